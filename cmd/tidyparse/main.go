// Command tidyparse parses HTML files, repairs them and reports every repair.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	tidy "github.com/dpotapov/go-tidy"
	"github.com/dpotapov/go-tidy/thtml"
)

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var z *zap.Logger
	var err error
	if debug {
		z, err = zap.NewDevelopment()
	} else {
		z, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return z.Sugar(), nil
}

func loadConfig(c *cli.Context) (*tidy.Config, error) {
	cfg := &tidy.Config{}
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = tidy.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if c.IsSet("xml") {
		cfg.InputXML = c.Bool("xml")
	}
	if c.IsSet("max-depth") {
		cfg.MaxDepth = c.Int("max-depth")
	}
	if c.IsSet("filter") {
		cfg.Filter = c.String("filter")
	}
	return cfg, nil
}

// serve tidies the documents of dir for HTTP clients until the server fails.
func serve(addr, dir string, p *tidy.Parser, sugar *zap.SugaredLogger) error {
	h := &tidy.Handler{
		FileSystem: os.DirFS(dir),
		Parser:     p,
		OnError: func(r *http.Request, err error) {
			sugar.Errorw("serve document", "url", r.URL.Redacted(), "error", err)
		},
	}
	sugar.Infow("listening", "addr", addr, "dir", dir)
	return http.ListenAndServe(addr, h)
}

// process is the action of the command.
func process(c *cli.Context) error {
	addr := c.String("listen")
	if addr == "" && !c.Args().Present() {
		return errors.New("no input files")
	}

	debug := c.Bool("debug")
	sugar, err := newLogger(debug)
	if err != nil {
		return err
	}
	defer sugar.Sync() //nolint:errcheck

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	p := &tidy.Parser{Config: cfg}
	if debug {
		p.Logger = slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	if addr != "" {
		dir := "."
		if c.Args().Present() {
			dir = c.Args().First()
		}
		return serve(addr, dir, p, sugar)
	}

	w := c.App.Writer
	failed := 0
	for _, path := range c.Args().Slice() {
		res, err := p.ParseFile(path)
		if err != nil {
			return err
		}
		sugar.Debugw("parsed file", "file", path, "encoding", res.Encoding,
			"nodes", res.Stats.Nodes, "implicit", res.Stats.Implicit)

		if c.Bool("verify") {
			if err := thtml.CheckLinks(res.Root); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}

		r := &tidy.Report{
			File:    path,
			Source:  res.Source,
			Context: c.Int("context"),
			Markup:  c.Bool("markup"),
			Color:   c.Bool("color"),
			Style:   c.String("style"),
		}
		if err := r.Write(w, res.Diagnostics); err != nil {
			return err
		}
		if err := writeDocument(c, w, res); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %d errors, %d warnings, %d infos\n",
			path, res.Stats.Errors, res.Stats.Warnings, res.Stats.Infos)

		if res.Stats.Errors > 0 {
			sugar.Warnw("document has errors", "file", path, "errors", res.Stats.Errors)
			failed++
		}
	}
	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func writeDocument(c *cli.Context, w io.Writer, res *tidy.Result) error {
	if c.Bool("tree") {
		if err := thtml.Dump(w, res.Root, c.Bool("debug")); err != nil {
			return err
		}
	}
	if c.Bool("html") {
		if err := thtml.Render(w, res.Root); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "tidyparse",
		Usage:     "parse HTML files, repair them and report every repair",
		UsageText: "tidyparse [options] FILE...\n   tidyparse --listen ADDR [DIR]",
		Action:    process,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "read parser settings from YAML `FILE`",
			},
			&cli.BoolFlag{
				Name:  "xml",
				Usage: "parse the input as XML-style markup",
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Usage: "limit element nesting to `N` levels",
			},
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "only report diagnostics matching `EXPR`",
			},
			&cli.BoolFlag{
				Name:    "tree",
				Aliases: []string{"t"},
				Usage:   "print the repaired tree",
			},
			&cli.BoolFlag{
				Name:  "html",
				Usage: "print the repaired document as HTML",
			},
			&cli.BoolFlag{
				Name:  "color",
				Usage: "highlight source excerpts",
			},
			&cli.StringFlag{
				Name:  "style",
				Value: "monokai",
				Usage: "highlighting `STYLE` used with --color",
			},
			&cli.IntFlag{
				Name:  "context",
				Value: 2,
				Usage: "show `N` source lines around each diagnostic, -1 disables excerpts",
			},
			&cli.BoolFlag{
				Name:  "markup",
				Usage: "show the repaired markup around each diagnostic",
			},
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "check the links of the repaired tree",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "serve the HTML files of DIR repaired on `ADDR` instead of printing reports",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "run in debug mode",
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tidyparse:", err)
		os.Exit(2)
	}
}

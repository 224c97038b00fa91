package tidy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/dpotapov/go-tidy/thtml"
)

// DefaultMaxBodySize limits the size of documents posted to a Handler.
const DefaultMaxBodySize = 10 << 20

// Handler serves repaired HTML documents over HTTP.
//
// A POST request parses the request body, using its Content-Type header to
// pick the character encoding. A GET request parses an .html or .htm file
// from FileSystem; other files are served as is.
//
// The "format" query parameter selects the response:
//   - html (default): the repaired document
//   - tree: the repaired tree in the "| " indented dump format
//   - report: the diagnostics with source excerpts
//   - json: the diagnostics and statistics as JSON
type Handler struct {
	// FileSystem to serve documents from. GET requests are rejected if it is nil.
	FileSystem fs.FS

	// Parser parses the documents. Nil means a Parser with the default settings.
	Parser *Parser

	// MaxBodySize limits the size of a posted document. Zero means DefaultMaxBodySize.
	MaxBodySize int64

	// OnError is a callback that is called when an error occurs while serving a document.
	OnError func(*http.Request, error)

	// Logger configures logging for internal events.
	Logger *slog.Logger

	// init is used to initialize the handler only once.
	init sync.Once

	// logger is a private logger instance that is used to log internal events.
	logger *slog.Logger

	parser *Parser
}

var errBadRequest = errors.New("bad request")

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.init.Do(func() {
		// TODO: replace with DiscardHandler when the minimum Go version is 1.24
		h.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		if h.Logger != nil {
			h.logger = h.Logger
		}
		h.parser = h.Parser
		if h.parser == nil {
			h.parser = &Parser{Logger: h.logger}
		}
	})

	if err := h.handleRequest(w, r); err != nil {
		if errors.Is(err, errBadRequest) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		h.logger.Error("Serve HTTP request", "url", r.URL.Redacted(), "error", err)

		if h.OnError != nil {
			h.OnError(r, err)
		}
	}
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) error {
	format := r.URL.Query().Get("format")
	switch format {
	case "":
		format = "html"
	case "html", "tree", "report", "json":
	default:
		return fmt.Errorf("%w: unknown format %q", errBadRequest, format)
	}

	switch r.Method {
	case http.MethodPost:
		limit := h.MaxBodySize
		if limit <= 0 {
			limit = DefaultMaxBodySize
		}
		res, err := h.parser.Parse(http.MaxBytesReader(w, r.Body, limit), r.Header.Get("Content-Type"))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return nil
			}
			return err
		}
		return h.writeResult(w, r, format, "", res)

	case http.MethodGet, http.MethodHead:
		if h.FileSystem == nil {
			break
		}
		fsPath := h.matchFS(cleanPath(r.URL.EscapedPath()))
		if fsPath == "" {
			http.NotFound(w, r)
			return nil
		}
		if ext := path.Ext(fsPath); ext != ".html" && ext != ".htm" {
			return h.serveFile(w, r, fsPath)
		}
		return h.serveDocument(w, r, format, fsPath)
	}

	allow := "POST"
	if h.FileSystem != nil {
		allow = "GET, HEAD, POST"
	}
	w.Header().Set("Allow", allow)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	return nil
}

func (h *Handler) serveDocument(w http.ResponseWriter, r *http.Request, format, fsPath string) error {
	f, err := h.FileSystem.Open(fsPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", fsPath, err)
	}
	defer f.Close()

	res, err := h.parser.Parse(f, "")
	if err != nil {
		return fmt.Errorf("parse %s: %w", fsPath, err)
	}
	return h.writeResult(w, r, format, fsPath, res)
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, fsPath string) error {
	r.URL.Path = "/" + fsPath
	r.URL.RawPath = ""
	http.FileServer(http.FS(h.FileSystem)).ServeHTTP(w, r)
	return nil
}

// matchFS maps a clean URL path to a file of the FileSystem. A path naming a
// directory maps to its index.html. Hidden files and directories never match.
//
// match examples:
// - / -> index.html
// - /foo/ -> foo/index.html
// - /foo -> foo/index.html if foo is a directory
// - /foo/bar.html -> foo/bar.html
func (h *Handler) matchFS(urlPath string) string {
	var segs []string
	for _, seg := range strings.Split(urlPath, "/") {
		if seg == "" {
			continue
		}
		seg = pathUnescape(seg)
		if seg[0] == '.' {
			return ""
		}
		segs = append(segs, seg)
	}

	fsPath := path.Join(segs...)
	if fsPath == "" {
		fsPath = "."
	}
	fi, err := fs.Stat(h.FileSystem, fsPath)
	if err != nil {
		return ""
	}
	if fi.IsDir() {
		fsPath = path.Join(fsPath, "index.html")
		if fi, err = fs.Stat(h.FileSystem, fsPath); err != nil || fi.IsDir() {
			return ""
		}
	}
	return fsPath
}

type jsonDiagnostic struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Class    string `json:"class"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Element  string `json:"element,omitempty"`
	Attr     string `json:"attr,omitempty"`
}

type jsonResult struct {
	File        string           `json:"file,omitempty"`
	Encoding    string           `json:"encoding"`
	Stats       Stats            `json:"stats"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
}

func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, format, file string, res *Result) error {
	w.Header().Set("X-Tidy-Errors", strconv.Itoa(res.Stats.Errors))
	w.Header().Set("X-Tidy-Warnings", strconv.Itoa(res.Stats.Warnings))

	switch format {
	case "tree":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if r.Method == http.MethodHead {
			return nil
		}
		return thtml.Dump(w, res.Root, true)

	case "report":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if r.Method == http.MethodHead {
			return nil
		}
		rep := &Report{File: file, Source: res.Source, Context: 1, Markup: true}
		return rep.Write(w, res.Diagnostics)

	case "json":
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodHead {
			return nil
		}
		out := jsonResult{
			File:        file,
			Encoding:    res.Encoding,
			Stats:       res.Stats,
			Diagnostics: []jsonDiagnostic{},
		}
		for _, d := range res.Diagnostics {
			out.Diagnostics = append(out.Diagnostics, jsonDiagnostic{
				Severity: strings.ToLower(d.Severity.String()),
				Code:     d.Code.String(),
				Class:    d.Class().String(),
				Message:  d.Message,
				Line:     d.Span.Line,
				Column:   d.Span.Column,
				Element:  d.Element,
				Attr:     d.Attr,
			})
		}
		return json.NewEncoder(w).Encode(out)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		return nil
	}
	return thtml.Render(w, res.Root)
}

// cleanPath returns the canonical path for p, eliminating . and .. elements.
//
// Copied from net/http/server.go
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	np := path.Clean(p)
	// path.Clean removes trailing slash except for root;
	// put the trailing slash back if necessary.
	if p[len(p)-1] == '/' && np != "/" {
		// Fast path for common case of p being the string we want:
		if len(p) == len(np)+1 && strings.HasPrefix(p, np) {
			np = p
		} else {
			np += "/"
		}
	}
	return np
}

// Copied from net/http/routing_tree.go.
func pathUnescape(path string) string {
	u, err := url.PathUnescape(path)
	if err != nil {
		// Invalidly escaped path; use the original
		return path
	}
	return u
}

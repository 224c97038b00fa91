package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"tidyparse"}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProcess(t *testing.T) {
	path := writeFile(t, "index.html", "<title>t</title>\n<p>a<b>b</b>c")

	out, err := runApp(t, "--tree", "--html", "--verify", "--context", "-1", path)
	require.NoError(t, err)
	assert.Contains(t, out, path+":2:1: info: missing </p> [missing-end-tag]\n")
	assert.Contains(t, out, "<p>\n")
	assert.Contains(t, out, "<p>a<b>b</b>c</p>")
	assert.Contains(t, out, path+": 0 errors, ")
}

func TestProcessFilter(t *testing.T) {
	path := writeFile(t, "index.html", "<title>t</title>\n<p>a<b>b</b>c")

	out, err := runApp(t, "-f", "severity >= Warning", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "[missing-end-tag]")
	assert.Contains(t, out, "0 infos\n")
}

func TestProcessErrors(t *testing.T) {
	path := writeFile(t, "deep.html", strings.Repeat("<div>", 10))

	out, err := runApp(t, "--max-depth", "8", path)
	require.Error(t, err)
	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.ExitCode())
	assert.Contains(t, out, "[depth-exceeded]")
}

func TestProcessConfig(t *testing.T) {
	cfg := writeFile(t, "tidy.yaml", "new-inline-tags: foo\n")
	path := writeFile(t, "index.html", "<p><foo>x</foo>")

	out, err := runApp(t, "-c", cfg, "--tree", path)
	require.NoError(t, err)
	assert.Contains(t, out, "<foo>")
	assert.NotContains(t, out, "[unknown-element]")

	_, err = runApp(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProcessNoInput(t *testing.T) {
	_, err := runApp(t)
	assert.EqualError(t, err, "no input files")

	_, err = runApp(t, filepath.Join(t.TempDir(), "missing.html"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

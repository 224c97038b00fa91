package tidy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerDoc = `<title>t</title><p>a&amp;b`

const handlerWant = `<html><head><title>t</title></head><body><p>a&amp;b</p></body></html>`

func TestHandler(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":        {Data: []byte(handlerDoc)},
		"style.css":         {Data: []byte("body { background: #fff; }\n")},
		"docs/index.html":   {Data: []byte(handlerDoc)},
		"docs/page.htm":     {Data: []byte(handlerDoc)},
		"empty/readme.txt":  {Data: []byte("x")},
		".hidden/page.html": {Data: []byte(handlerDoc)},
	}
	tests := []struct {
		url        string
		wantStatus int
		wantBody   string
	}{
		{"GET /", 200, handlerWant},
		{"GET /index.html", 200, handlerWant},
		{"GET /docs", 200, handlerWant},
		{"GET /docs/", 200, handlerWant},
		{"GET /docs/page.htm", 200, handlerWant},
		{"GET /docs/../index.html", 200, handlerWant},
		{"GET /style.css", 200, "body { background: #fff; }\n"},
		{"GET /empty/", 404, "404 page not found\n"},
		{"GET /missing.html", 404, "404 page not found\n"},
		{"GET /.hidden/page.html", 404, "404 page not found\n"},
		{"GET /?format=bogus", 400, "bad request: unknown format \"bogus\"\n"},
		{"PUT /", 405, "Method Not Allowed\n"},
		{"HEAD /", 200, ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			method, url, _ := strings.Cut(tt.url, " ")
			req := httptest.NewRequest(method, url, nil)
			rr := httptest.NewRecorder()

			var err error
			h := &Handler{
				FileSystem: fsys,
				OnError:    func(r *http.Request, herr error) { err = herr },
			}
			h.ServeHTTP(rr, req)

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestHandlerPost(t *testing.T) {
	h := &Handler{}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(handlerDoc))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, handlerWant, rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "POST", rr.Header().Get("Allow"))
}

func TestHandlerFormats(t *testing.T) {
	h := &Handler{}
	post := func(format, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/?format="+format, strings.NewReader(body))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		return rr
	}

	rr := post("json", "<p>x")
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "1", rr.Header().Get("X-Tidy-Warnings"))
	var res jsonResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, Stats{Warnings: 1, Infos: 1, Nodes: 5, Elements: 4, Implicit: 3}, res.Stats)
	assert.Len(t, res.Diagnostics, 2)
	for _, d := range res.Diagnostics {
		assert.Contains(t, []string{"info", "warning"}, d.Severity)
		assert.NotEmpty(t, d.Code)
	}

	rr = post("tree", "<p>x")
	assert.Contains(t, rr.Body.String(), "<p>")
	assert.Contains(t, rr.Body.String(), "(implicit)")

	rr = post("report", "<title>t</title>\n<p>a<b>b</b>c")
	assert.Contains(t, rr.Body.String(), "line 2 column 1: info: missing </p> [missing-end-tag]\n")
	assert.Contains(t, rr.Body.String(), "    <body><p>...</p></body>\n")
}

func TestHandlerErrors(t *testing.T) {
	h := &Handler{
		Parser:      &Parser{Config: &Config{MaxDepth: 8}},
		MaxBodySize: 64,
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("<div>", 10)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEqual(t, "0", rr.Header().Get("X-Tidy-Errors"))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("<p>x", 100)))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	var herr error
	h = &Handler{
		Parser:  &Parser{Config: &Config{Filter: "severity +"}},
		OnError: func(r *http.Request, err error) { herr = err },
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("<p>"))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.ErrorContains(t, herr, "configure parser")
}

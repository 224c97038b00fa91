package thtml

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"golang.org/x/net/html/atom"
)

func Test_buildErrorContext(t *testing.T) {
	testDoc := `<title>Test</title>` +
		`<body style="color: red;">` +
		`<h1>Lorem ipsum</h1>` +
		`<p class="styled">dolor sit amet</p>` +
		`consectetur` +
		`<span>sed do</span>` +
		`tempor` +
		`</body>`

	doc := mustParse(t, testDoc, nil)

	tests := []struct {
		name string
		t    *Node
		want string
	}{
		{
			name: "topElement",
			t:    findElement(doc.Root, atom.Html),
			want: "<html>...</html>",
		},
		{
			name: "textElement",
			t:    findElement(doc.Root, atom.Title).FirstChild,
			want: `<title>Test</title>`,
		},
		{
			name: "manyElements",
			t:    findElement(doc.Root, atom.P),
			want: `<body style="color: red;">` +
				`<h1>Lorem ipsum</h1>` +
				`<p class="styled">dolor sit amet</p>` +
				`consectetur` +
				`<span>sed do</span>...</body>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderErrorContext(buildErrorContext(tt.t))
			if diff := cmp.Diff(got, tt.want); diff != "" {
				t.Errorf("buildErrorContext() diff (-got +want):\n%s", diff)
			}
		})
	}
}

func TestDiagnosticHTMLContext(t *testing.T) {
	assert.Empty(t, Diagnostic{}.HTMLContext())

	doc := mustParse(t, `<p>a<b>b</b>c<i>d</i>e<u>f</u></p>`, nil)
	d := Diagnostic{Node: findElement(doc.Root, atom.U)}
	assert.Equal(t, `<p>...<i>d</i>e<u>f</u></p>`, d.HTMLContext())
}

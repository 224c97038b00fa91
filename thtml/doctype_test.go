package thtml

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParseDoctypeData(t *testing.T) {
	tests := []struct {
		data    string
		ok      bool
		name    string
		attr    []Attribute
		version Version
	}{
		{data: "html", ok: true, name: "html", version: HTML5},
		{
			data: `HTML PUBLIC "-//W3C//DTD HTML 4.01 Transitional//EN" "http://www.w3.org/TR/html4/loose.dtd"`,
			ok:   true,
			name: "html",
			attr: []Attribute{
				{Key: "public", Val: "-//W3C//DTD HTML 4.01 Transitional//EN", Quote: '"'},
				{Key: "system", Val: "http://www.w3.org/TR/html4/loose.dtd", Quote: '"'},
			},
			version: HTML40Loose,
		},
		{
			data:    `html PUBLIC "-//W3C//DTD HTML 4.01//EN"`,
			ok:      true,
			name:    "html",
			attr:    []Attribute{{Key: "public", Val: "-//W3C//DTD HTML 4.01//EN", Quote: '"'}},
			version: HTML40Strict,
		},
		{
			data:    `html PUBLIC '-//W3C//DTD HTML 4.01 Frameset//EN'`,
			ok:      true,
			name:    "html",
			attr:    []Attribute{{Key: "public", Val: "-//W3C//DTD HTML 4.01 Frameset//EN", Quote: '\''}},
			version: HTML40Frameset,
		},
		{
			data:    `html PUBLIC "-//W3C//DTD XHTML 1.1//EN"`,
			ok:      true,
			name:    "html",
			attr:    []Attribute{{Key: "public", Val: "-//W3C//DTD XHTML 1.1//EN", Quote: '"'}},
			version: XHTML11,
		},
		{
			data:    `html PUBLIC "-//W3C//DTD HTML 3.2 Final//EN"`,
			ok:      true,
			name:    "html",
			attr:    []Attribute{{Key: "public", Val: "-//W3C//DTD HTML 3.2 Final//EN", Quote: '"'}},
			version: HTML32,
		},
		{
			data:    `html SYSTEM "about:legacy-compat"`,
			ok:      true,
			name:    "html",
			attr:    []Attribute{{Key: "system", Val: "about:legacy-compat", Quote: '"'}},
			version: HTML5,
		},
		{data: "svg", ok: true, name: "svg"},
		{data: ""},
		{data: "1html"},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			n, ok := parseDoctype(tt.data)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, DoctypeNode, n.Type)
			assert.Equal(t, tt.name, n.Data)
			if diff := cmp.Diff(tt.attr, n.Attr); diff != "" {
				t.Errorf("attributes mismatch (-want +got):\n%s", diff)
			}
			if ok {
				assert.Equal(t, tt.version, doctypeVersion(n))
			}
		})
	}
}

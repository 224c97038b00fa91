package tidy

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/dpotapov/go-tidy/thtml"
)

// Filter selects diagnostics with a boolean expression. The expression sees
// the variables
//
//	severity  int     0 (Info), 1 (Warning) or 2 (Error)
//	code      string  stable code name, e.g. "missing-end-tag"
//	class     string  "lexical", "structural" or "discard"
//	message   string
//	line      int
//	column    int
//	element   string
//	attr      string
//
// and the constants Info, Warning and Error.
type Filter struct {
	src  string
	prog *vm.Program
}

func filterEnv(d thtml.Diagnostic) map[string]any {
	return map[string]any{
		"severity": int(d.Severity),
		"code":     d.Code.String(),
		"class":    d.Class().String(),
		"message":  d.Message,
		"line":     d.Span.Line,
		"column":   d.Span.Column,
		"element":  d.Element,
		"attr":     d.Attr,
		"Info":     int(thtml.Info),
		"Warning":  int(thtml.Warning),
		"Error":    int(thtml.Error),
	}
}

// CompileFilter compiles src. An empty expression matches every diagnostic.
func CompileFilter(src string) (*Filter, error) {
	f := &Filter{src: src}
	if src == "" {
		return f, nil
	}
	prog, err := expr.Compile(src, expr.Env(filterEnv(thtml.Diagnostic{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", src, err)
	}
	f.prog = prog
	return f, nil
}

// String returns the source of the expression.
func (f *Filter) String() string { return f.src }

// Match reports whether d passes the filter.
func (f *Filter) Match(d thtml.Diagnostic) (bool, error) {
	if f == nil || f.prog == nil {
		return true, nil
	}
	out, err := expr.Run(f.prog, filterEnv(d))
	if err != nil {
		return false, fmt.Errorf("run filter: %w", err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Apply returns the diagnostics that pass the filter, in order.
func (f *Filter) Apply(diags []thtml.Diagnostic) ([]thtml.Diagnostic, error) {
	if f == nil || f.prog == nil {
		return diags, nil
	}
	var kept []thtml.Diagnostic
	for _, d := range diags {
		ok, err := f.Match(d)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, d)
		}
	}
	return kept, nil
}

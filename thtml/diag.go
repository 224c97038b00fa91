package thtml

import (
	"errors"
	"fmt"
	"strings"
)

// Severity of a diagnostic.
type Severity uint8

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	}
	return fmt.Sprintf("Severity(%d)", s)
}

// Class groups diagnostics by the kind of repair applied.
type Class uint8

const (
	// LexicalRecoverable conditions are corrected in place by the tokenizer.
	LexicalRecoverable Class = iota
	// StructuralRecoverable conditions are repaired by inferring, moving,
	// coercing or discarding nodes.
	StructuralRecoverable
	// StructuralDiscard conditions drop the offending element and continue.
	StructuralDiscard
)

func (c Class) String() string {
	switch c {
	case LexicalRecoverable:
		return "lexical"
	case StructuralRecoverable:
		return "structural"
	case StructuralDiscard:
		return "discard"
	}
	return fmt.Sprintf("Class(%d)", c)
}

// Code identifies a diagnostic.
type Code uint16

const (
	UnknownEntity Code = iota + 1
	MissingSemicolon
	UnescapedAmpersand
	InvalidNCR
	ReplacedNCR
	MalformedComment
	UnterminatedMarkup
	UnexpectedCharInTag
	UnexpectedEndOfInput
	SuspectedMissingQuote
	RepeatedAttribute
	ServerCodeInTag
	AttributesOnEndTag
	MalformedDoctype
	MissingEndTag
	MissingEndTagBefore
	InsertingTag
	DiscardingUnexpected
	NestedEmphasis
	CoerceToEndTag
	IllegalNesting
	ContentExiled
	MovedToHead
	TooManyElements
	ProprietaryElement
	UnknownElement
	TrimEmptyElement
	SplitElement
	CoercedElement
	ContentAfterBody
	ContentAfterFrameset
	MissingTitle
	DepthExceeded
	UnexpectedXMLElement
)

type codeInfo struct {
	name  string
	sev   Severity
	class Class
}

var codeTable = map[Code]codeInfo{
	UnknownEntity:         {"unknown-entity", Warning, LexicalRecoverable},
	MissingSemicolon:      {"missing-semicolon", Warning, LexicalRecoverable},
	UnescapedAmpersand:    {"unescaped-ampersand", Warning, LexicalRecoverable},
	InvalidNCR:            {"invalid-ncr", Warning, LexicalRecoverable},
	ReplacedNCR:           {"replaced-ncr", Warning, LexicalRecoverable},
	MalformedComment:      {"malformed-comment", Warning, LexicalRecoverable},
	UnterminatedMarkup:    {"unterminated-markup", Warning, LexicalRecoverable},
	UnexpectedCharInTag:   {"unexpected-char-in-tag", Warning, LexicalRecoverable},
	UnexpectedEndOfInput:  {"unexpected-end-of-input", Warning, LexicalRecoverable},
	SuspectedMissingQuote: {"suspected-missing-quote", Warning, LexicalRecoverable},
	RepeatedAttribute:     {"repeated-attribute", Warning, LexicalRecoverable},
	ServerCodeInTag:       {"server-code-in-tag", Info, LexicalRecoverable},
	AttributesOnEndTag:    {"attributes-on-end-tag", Warning, LexicalRecoverable},
	MalformedDoctype:      {"malformed-doctype", Error, StructuralDiscard},
	MissingEndTag:         {"missing-end-tag", Warning, StructuralRecoverable},
	MissingEndTagBefore:   {"missing-end-tag-before", Warning, StructuralRecoverable},
	InsertingTag:          {"inserting-tag", Warning, StructuralRecoverable},
	DiscardingUnexpected:  {"discarding-unexpected", Warning, StructuralRecoverable},
	NestedEmphasis:        {"nested-emphasis", Warning, StructuralRecoverable},
	CoerceToEndTag:        {"coerce-to-end-tag", Warning, StructuralRecoverable},
	IllegalNesting:        {"illegal-nesting", Warning, StructuralRecoverable},
	ContentExiled:         {"content-exiled", Warning, StructuralRecoverable},
	MovedToHead:           {"moved-to-head", Warning, StructuralRecoverable},
	TooManyElements:       {"too-many-elements", Warning, StructuralRecoverable},
	ProprietaryElement:    {"proprietary-element", Info, StructuralRecoverable},
	UnknownElement:        {"unknown-element", Warning, StructuralRecoverable},
	TrimEmptyElement:      {"trim-empty-element", Info, StructuralRecoverable},
	SplitElement:          {"split-element", Warning, StructuralRecoverable},
	CoercedElement:        {"coerced-element", Warning, StructuralRecoverable},
	ContentAfterBody:      {"content-after-body", Warning, StructuralRecoverable},
	ContentAfterFrameset:  {"content-after-frameset", Warning, StructuralRecoverable},
	MissingTitle:          {"missing-title", Warning, StructuralRecoverable},
	DepthExceeded:         {"depth-exceeded", Error, StructuralDiscard},
	UnexpectedXMLElement:  {"unexpected-xml-element", Error, StructuralDiscard},
}

var codeByName = func() map[string]Code {
	m := make(map[string]Code, len(codeTable))
	for c, info := range codeTable {
		m[info.name] = c
	}
	return m
}()

func (c Code) String() string {
	if info, ok := codeTable[c]; ok {
		return info.name
	}
	return fmt.Sprintf("Code(%d)", uint16(c))
}

// Severity returns the default severity of the code.
func (c Code) Severity() Severity { return codeTable[c].sev }

// Class returns the repair class of the code.
func (c Code) Class() Class { return codeTable[c].class }

// LookupCode resolves a code by its name, as returned by Code.String.
func LookupCode(name string) (Code, bool) {
	c, ok := codeByName[name]
	return c, ok
}

// Diagnostic is one reported anomaly. The parser never fails on these; they
// describe what was repaired and where.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Span     Span

	// Element is the name of the element the diagnostic is about.
	Element string
	// Attr is the attribute name for attribute-level diagnostics.
	Attr string

	// Node is the node involved, if any. It may be detached from the final tree.
	Node *Node
}

// Error implements error.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s - %s: %s", d.Span, d.Severity, d.Message)
}

// Class returns the repair class of the diagnostic.
func (d Diagnostic) Class() Class { return d.Code.Class() }

// HTMLContext renders the markup around the involved node.
func (d Diagnostic) HTMLContext() string {
	if d.Node == nil {
		return ""
	}
	return renderErrorContext(buildErrorContext(d.Node))
}

// A Sink receives diagnostics as they are found.
type Sink interface {
	Report(Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Diagnostic)

func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Collector is a Sink accumulating diagnostics.
type Collector struct {
	Diagnostics []Diagnostic

	errors, warnings int
}

func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
	switch d.Severity {
	case Error:
		c.errors++
	case Warning:
		c.warnings++
	}
}

// Errors returns the number of error diagnostics collected.
func (c *Collector) Errors() int { return c.errors }

// Warnings returns the number of warning diagnostics collected.
func (c *Collector) Warnings() int { return c.warnings }

// Err joins the collected error diagnostics, or returns nil if there are none.
func (c *Collector) Err() error {
	var errs []error
	for _, d := range c.Diagnostics {
		if d.Severity == Error {
			errs = append(errs, d)
		}
	}
	return errors.Join(errs...)
}

// Codes returns the codes of the collected diagnostics in report order.
func (c *Collector) Codes() []Code {
	codes := make([]Code, len(c.Diagnostics))
	for i, d := range c.Diagnostics {
		codes[i] = d.Code
	}
	return codes
}

// describe renders a tag name the way diagnostics quote it.
func describe(name string, end bool) string {
	var sb strings.Builder
	sb.WriteByte('<')
	if end {
		sb.WriteByte('/')
	}
	sb.WriteString(name)
	sb.WriteByte('>')
	return sb.String()
}

// Package errors defines the error codes and structured error type reported
// by schema inlining.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a category of inlining failure.
type ErrorCode string

const (
	// ErrMalformedURI indicates a base or reference URI could not be parsed.
	ErrMalformedURI ErrorCode = "rng-malformed-uri"
	// ErrNoHandler indicates no configured URL handler claims a resolved URL.
	ErrNoHandler ErrorCode = "rng-no-handler"
	// ErrResourceNotFound indicates a referenced resource does not exist.
	ErrResourceNotFound ErrorCode = "rng-resource-not-found"
	// ErrResourceFetch indicates an I/O failure while reading a resource.
	ErrResourceFetch ErrorCode = "rng-resource-fetch"
	// ErrParse indicates fetched bytes are not well-formed XML.
	ErrParse ErrorCode = "rng-parse"
	// ErrInvalidGrammar indicates a document violates the structure inlining
	// relies on, such as an include target whose root is not a grammar.
	ErrInvalidGrammar ErrorCode = "rng-invalid-grammar"
	// ErrCircularInclude indicates a schema references itself, directly or
	// through intermediate documents.
	ErrCircularInclude ErrorCode = "rng-circular-include"
	// ErrOverrideTargetNotFound indicates an include override names a
	// definition absent from the included grammar.
	ErrOverrideTargetNotFound ErrorCode = "rng-override-target-not-found"
	// ErrCombineMismatch indicates same-named definitions disagree on their
	// combine attribute, or lack one while multiple exist.
	ErrCombineMismatch ErrorCode = "rng-combine-mismatch"
	// ErrMissingHref indicates an include or externalRef without an href.
	ErrMissingHref ErrorCode = "rng-missing-href"
)

// Inline describes an inlining failure with enough context to build a
// precise message: the offending URI, the component name for override and
// combine errors, the URL chain for cycles, and a source line when known.
type Inline struct {
	Code    ErrorCode
	Message string
	URI     string
	Name    string
	Cycle   []string
	Line    int
}

// Error formats the failure for display.
func (e *Inline) Error() string {
	if e == nil {
		return "inline <nil>"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Name != "" {
		fmt.Fprintf(&b, " (name: %s)", e.Name)
	}
	if e.URI != "" {
		fmt.Fprintf(&b, " (url: %s)", e.URI)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	if len(e.Cycle) > 0 {
		b.WriteString("\n  cycle: ")
		b.WriteString(strings.Join(e.Cycle, "\n    -> "))
	}
	return b.String()
}

// New builds an Inline error with a code and message.
func New(code ErrorCode, msg string) *Inline {
	return &Inline{Code: code, Message: msg}
}

// Newf formats a message and builds an Inline error.
func Newf(code ErrorCode, format string, args ...any) *Inline {
	return &Inline{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithURI returns a copy of the error annotated with the offending URI.
func (e *Inline) WithURI(uri string) *Inline {
	c := *e
	c.URI = uri
	return &c
}

// WithName returns a copy of the error annotated with a component name.
func (e *Inline) WithName(name string) *Inline {
	c := *e
	c.Name = name
	return &c
}

// WithLine returns a copy of the error annotated with a source line.
func (e *Inline) WithLine(line int) *Inline {
	c := *e
	c.Line = line
	return &c
}

// AsInline extracts the structured inline error from an error chain.
func AsInline(err error) (*Inline, bool) {
	if err == nil {
		return nil, false
	}
	var e *Inline
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// CodeOf reports the error code carried by err, if any.
func CodeOf(err error) (ErrorCode, bool) {
	e, ok := AsInline(err)
	if !ok {
		return "", false
	}
	return e.Code, true
}

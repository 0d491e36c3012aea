package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedInput covers missing columns, bad headers and bad or
	// decreasing timestamps.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidLabel is returned when a label matches none of the
	// recognized categories.
	ErrInvalidLabel = errors.New("invalid label")
	ErrConfig       = errors.New("invalid configuration")
)

// EvalError carries the location of a fatal evaluation error.
type EvalError struct {
	Kind      error
	Line      int
	Column    int
	Algorithm string
	Label     string
	Msg       string
	Err       error
}

func (e *EvalError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Column >= 0 && e.Line > 0 {
		fmt.Fprintf(&b, " column %d", e.Column)
	}
	if e.Algorithm != "" {
		fmt.Fprintf(&b, " algorithm %s", e.Algorithm)
	}
	if e.Label != "" {
		fmt.Fprintf(&b, " label %q", e.Label)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *EvalError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func MalformedInput(line, column int, msg string) *EvalError {
	return &EvalError{Kind: ErrMalformedInput, Line: line, Column: column, Msg: msg}
}

func InvalidLabel(algorithm, label, msg string) *EvalError {
	return &EvalError{Kind: ErrInvalidLabel, Column: -1, Algorithm: algorithm, Label: label, Msg: msg}
}

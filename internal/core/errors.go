package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput is returned for an upload with no header row.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidUTF8 is returned when the upload is not UTF-8 text.
	ErrInvalidUTF8 = errors.New("input is not valid UTF-8 text")
)

// ParseError reports malformed CSV structure or an unparseable field.
// Line is the 1-based source line, zero when the error is not tied to a row.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ", column %q", e.Column)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, ", value %q", e.Value)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// DateFormatError reports a date field that is not a real DD.MM.YYYY date.
type DateFormatError struct {
	Line  int
	Value string
	Err   error
}

func (e *DateFormatError) Error() string {
	msg := fmt.Sprintf("date format error: line %d: %q is not a valid DD.MM.YYYY date", e.Line, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DateFormatError) Unwrap() error { return e.Err }

// MissingColumnError lists required columns absent from the header.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return "missing required column(s): " + strings.Join(e.Columns, ", ")
}

// IsInputError reports whether err belongs to the upload error taxonomy,
// i.e. it was caused by the uploaded content rather than by the system.
func IsInputError(err error) bool {
	var pe *ParseError
	var de *DateFormatError
	var me *MissingColumnError
	return errors.As(err, &pe) || errors.As(err, &de) || errors.As(err, &me)
}

// ErrorKind names the taxonomy member of err for logs and API payloads.
func ErrorKind(err error) string {
	var pe *ParseError
	var de *DateFormatError
	var me *MissingColumnError
	switch {
	case errors.As(err, &de):
		return "date_format_error"
	case errors.As(err, &me):
		return "missing_column_error"
	case errors.As(err, &pe):
		return "parse_error"
	default:
		return "internal_error"
	}
}

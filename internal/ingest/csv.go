// Package ingest turns uploaded bytes into header-keyed rows.
//
// Rows are returned as raw text; typing and validation belong to the
// summarizer. The reader is lenient with short rows, trailing empty
// fields and stray quotes inside unquoted fields, and rejects everything else
// that does not line up with the header.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"findash/internal/core"
)

// DefaultDelimiter is the field separator of the uploaded files.
const DefaultDelimiter = ';'

// ErrDuplicateColumn is wrapped by the ParseError for a repeated header name.
var ErrDuplicateColumn = errors.New("duplicate column name")

// Row is one data record keyed by header name.
type Row struct {
	Line   int
	Fields map[string]string
}

// Get returns the raw text of a column, or "" when the column is absent.
func (r Row) Get(column string) string {
	return r.Fields[column]
}

// Table is the parsed content of one upload.
type Table struct {
	Header []string
	Rows   []Row
}

// HasColumn reports whether the header contains the column.
func (t *Table) HasColumn(column string) bool {
	for _, h := range t.Header {
		if h == column {
			return true
		}
	}
	return false
}

// MissingColumns returns the required columns absent from the header, in
// the order they were asked for.
func (t *Table) MissingColumns(required []string) []string {
	var missing []string
	for _, c := range required {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// ReadRows parses delimited text using the first record as header.
func ReadRows(data []byte, delim rune) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &core.ParseError{Err: core.ErrEmptyInput}
	}
	if !utf8.Valid(data) {
		return nil, &core.ParseError{Err: core.ErrInvalidUTF8}
	}
	text, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), data)
	if err != nil {
		return nil, &core.ParseError{Err: fmt.Errorf("decode text: %w", err)}
	}

	table, err := parse(text, delim, false)
	if errors.Is(err, csv.ErrBareQuote) {
		// Stray quotes inside unquoted fields are kept as text.
		table, err = parse(text, delim, true)
	}
	return table, err
}

func parse(text []byte, delim rune, lazyQuotes bool) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = lazyQuotes

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &core.ParseError{Err: core.ErrEmptyInput}
		}
		return nil, convertCSVError(err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	header = trimTrailingEmpty(header)
	if len(header) == 0 {
		return nil, &core.ParseError{Line: 1, Err: errors.New("header row has no column names")}
	}
	seen := make(map[string]bool, len(header))
	for _, name := range header {
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, &core.ParseError{Line: 1, Column: name, Err: ErrDuplicateColumn}
		}
		seen[name] = true
	}

	table := &Table{Header: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, convertCSVError(err)
		}
		line, _ := r.FieldPos(0)
		if isBlank(rec) {
			continue
		}

		if len(rec) > len(header) {
			for _, extra := range rec[len(header):] {
				if strings.TrimSpace(extra) != "" {
					return nil, &core.ParseError{
						Line: line,
						Err:  fmt.Errorf("expected %d fields, got %d", len(header), len(rec)),
					}
				}
			}
			rec = rec[:len(header)]
		}

		fields := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(rec) {
				fields[name] = rec[i]
			} else {
				fields[name] = ""
			}
		}
		table.Rows = append(table.Rows, Row{Line: line, Fields: fields})
	}
	return table, nil
}

func trimTrailingEmpty(header []string) []string {
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}
	return header
}

// isBlank reports rows made only of delimiters, as spreadsheet exports leave behind.
func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func convertCSVError(err error) error {
	var ce *csv.ParseError
	if errors.As(err, &ce) {
		return &core.ParseError{Line: ce.Line, Err: ce.Err}
	}
	return &core.ParseError{Err: err}
}

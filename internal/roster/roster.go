// Package roster reads comma-separated files whose header row names the
// columns: the nominee roster, and the survey export the tally consumes.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Column names the mailer relies on.
const (
	ColName      = "name"
	ColEmail     = "email_addr"
	ColPositions = "positions"
)

// Row maps a column name to its raw value.
type Row map[string]string

// FileAccessError reports a roster (or other input) file that could not be
// opened or read. Content that fails to parse is reported as a plain error.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// Table is a parsed file: the header in column order plus the data rows.
type Table struct {
	Header []string
	Rows   []Row
}

// ReadFile returns every data row of the file at path, in file order.
func ReadFile(path string) ([]Row, error) {
	t, err := ReadTableFile(path)
	if err != nil {
		return nil, err
	}
	return t.Rows, nil
}

// ReadTableFile is ReadFile keeping the header.
func ReadTableFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, &FileAccessError{Path: path, Err: err}
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return Table{}, fmt.Errorf("parse %s: %w", path, err)
		}
		return Table{}, &FileAccessError{Path: path, Err: err}
	}
	return t, nil
}

// Read parses a roster from r. Rows with a different column count than the
// header are passed through: missing cells are absent from the Row and
// surplus cells are dropped. Stray quotes inside unquoted cells are kept
// as literal characters.
func Read(r io.Reader) ([]Row, error) {
	t, err := ReadTable(r)
	return t.Rows, err
}

// ReadTable is Read keeping the header.
func ReadTable(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("header: %w", err)
	}
	t := Table{Header: trimBOM(header)}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return Table{}, err
		}
		row := make(Row, len(t.Header))
		for i, col := range t.Header {
			if i >= len(rec) {
				break
			}
			row[col] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}
}

// trimBOM strips a UTF-8 byte order mark that spreadsheet exports put in
// front of the first column name.
func trimBOM(header []string) []string {
	if len(header) > 0 && len(header[0]) >= 3 && header[0][:3] == "\xef\xbb\xbf" {
		header[0] = header[0][3:]
	}
	return header
}

// Package flatfile reads and writes the delimited and spreadsheet files that
// move between the console and the store. Files are held fully in memory.
package flatfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file has no header row")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrBadDelimiter      = errors.New("delimiter must be a single character")
	ErrTooManyFields     = errors.New("row has more fields than the header")
)

// Table is a parsed file: a header row and string cells. Every row has
// exactly len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Project returns a table holding only the named columns, in the order given.
func (t *Table) Project(columns []string) (*Table, error) {
	index := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		index[h] = i
	}
	pos := make([]int, len(columns))
	for i, c := range columns {
		p, ok := index[c]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, c)
		}
		pos[i] = p
	}

	out := &Table{Header: append([]string(nil), columns...), Rows: make([][]string, len(t.Rows))}
	for r, row := range t.Rows {
		cells := make([]string, len(pos))
		for i, p := range pos {
			cells[i] = row[p]
		}
		out.Rows[r] = cells
	}
	return out, nil
}

// FormatOf picks the reader for a file name by extension.
func FormatOf(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt", "":
		return constants.FormatCSV, nil
	case ".xlsx":
		return constants.FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Read parses data according to the extension of name. delimiter applies to
// delimited text only; empty means comma.
func Read(name string, data []byte, delimiter string) (*Table, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	if format == constants.FormatXLSX {
		return readXLSX(data)
	}
	comma, err := ParseDelimiter(delimiter)
	if err != nil {
		return nil, err
	}
	return readCSV(data, comma)
}

// ParseDelimiter turns a user supplied delimiter into a rune. "\t" and "tab"
// both mean a tab character.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, ErrBadDelimiter
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, ErrBadDelimiter
	}
	return r, nil
}

func readCSV(data []byte, comma rune) (*Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{Header: trimAll(header)}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", t.Len()+2, err)
		}
		row, err := fit(rec, len(t.Header))
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func readXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyFile
	}

	t := &Table{Header: trimAll(rows[0])}
	for i, rec := range rows[1:] {
		if isBlank(rec) {
			continue
		}
		row, err := fit(rec, len(t.Header))
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", sheets[0], i+2, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// fit pads a short record to n cells. Extra cells are only dropped when
// they are blank; anything else would lose data.
func fit(rec []string, n int) ([]string, error) {
	if len(rec) == n {
		return rec, nil
	}
	if len(rec) > n {
		if !isBlank(rec[n:]) {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrTooManyFields, len(rec), n)
		}
		return rec[:n], nil
	}
	out := make([]string, n)
	copy(out, rec)
	return out, nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

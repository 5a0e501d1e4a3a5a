package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnreadableInput marks input that cannot be parsed as tabular data.
// Fatal for an ingestion run.
var ErrUnreadableInput = errors.New("unreadable input")

// Table is tabular input: one header row plus data rows. Rows may be ragged;
// missing trailing cells read as empty.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the value of column idx in row, or "" when the row is short.
func (t *Table) Cell(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

// ReadTable parses an uploaded spreadsheet by file extension.
func ReadTable(filename string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".csv":
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrUnreadableInput, filepath.Ext(filename))
	}
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrUnreadableInput, sheets[0])
	}
	return &Table{Headers: rows[0], Rows: rows[1:]}, nil
}

// ReadCSV reads comma-separated input with a header row.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrUnreadableInput)
	}
	return &Table{Headers: records[0], Rows: records[1:]}, nil
}

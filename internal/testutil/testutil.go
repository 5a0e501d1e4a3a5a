// Package testutil holds shared helpers for package tests: a throwaway
// store and spreadsheet fixtures.
package testutil

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"ospanel/internal/store"
)

// SetupStore opens a migrated store on a per-test database file.
func SetupStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test DB: %v", err)
	}
	return s
}

// XLSX builds an in-memory workbook with the given header row and data rows.
func XLSX(t *testing.T, headers []string, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Failed to write xlsx fixture: %v", err)
	}
	return buf.Bytes()
}

// CSV builds a CSV fixture from a header row and data rows.
func CSV(t *testing.T, headers []string, rows [][]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writeRow := func(row []string) {
		for i, v := range row {
			if i > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(&buf, "%q", v)
		}
		buf.WriteByte('\n')
	}
	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	return buf.Bytes()
}

// MultipartFile wraps content as a multipart body with a file field plus
// optional extra form fields, returning the body and its content type.
func MultipartFile(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write form field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

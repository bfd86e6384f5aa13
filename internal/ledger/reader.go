package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "libledger/internal/errors"
)

// ReadTable reads one delimited source table from disk. CSV and Excel
// workbooks are supported; the extension decides the reader.
func ReadTable(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx", ".xlsm":
		return readExcel(path)
	default:
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("unsupported table format %q", filepath.Ext(path)), nil).
			WithContext("path", path)
	}
}

func readCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open ledger file", err).
			WithContext("path", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// Historical transcriptions have ragged rows; reconcile lengths later
	// instead of failing the whole file.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse CSV", err).
			WithContext("path", path)
	}

	return tableFromRows(path, records)
}

func readExcel(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	// Use the first sheet that actually carries rows.
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) < 2 {
			continue
		}
		return tableFromRows(path, rows)
	}

	return nil, apperrors.NewParsingError("no populated sheet in workbook", nil).
		WithContext("path", path)
}

func tableFromRows(path string, rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("table has no header row", nil).
			WithContext("path", path)
	}

	header := make([]string, len(rows[0]))
	for i, col := range rows[0] {
		header[i] = stripBOM(col)
	}

	return &Table{
		Source: filepath.Base(path),
		Header: header,
		Rows:   rows[1:],
	}, nil
}

// stripBOM drops a UTF-8 byte order mark from the first header cell. Excel
// exports prefix one routinely.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

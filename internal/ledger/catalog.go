package ledger

import (
	"strconv"
	"strings"

	apperrors "libledger/internal/errors"
	"libledger/pkg/contracts/domain"
)

// catalogAliases maps normalized catalog header names onto canonical
// catalog fields. Catalog exports vary between scans; the id column in
// particular appears under several names.
var catalogAliases = map[string]string{
	"book_id":      "book_id",
	"book id":      "book_id",
	"id":           "book_id",
	"title":        "title",
	"book_name":    "title",
	"book name":    "title",
	"author":       "author",
	"publisher":    "publisher",
	"language":     "language",
	"language_nli": "language",
	"link":         "link",
	"url":          "link",
}

// LoadCatalog reads the unique-books catalog. Rows whose id cell cannot be
// coerced to an integer are dropped and counted; they cannot participate in
// reference matching. The first id column found in the header wins.
func LoadCatalog(path string) ([]domain.CatalogEntry, int, error) {
	tbl, err := ReadTable(path)
	if err != nil {
		return nil, 0, err
	}

	cols := make(map[string]int, len(catalogAliases))
	for i, name := range tbl.Header {
		key, ok := catalogAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, taken := cols[key]; taken {
			continue
		}
		cols[key] = i
	}

	if _, ok := cols["book_id"]; !ok {
		return nil, 0, apperrors.NewSchemaError(
			"catalog is missing a book id column", nil).WithContext("path", path)
	}

	pick := func(row []string, key string) string {
		idx, ok := cols[key]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	entries := make([]domain.CatalogEntry, 0, len(tbl.Rows))
	skipped := 0
	for _, row := range tbl.Rows {
		id, ok := CoerceBookID(pick(row, "book_id"))
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, domain.CatalogEntry{
			BookID:    id,
			Title:     pick(row, "title"),
			Author:    pick(row, "author"),
			Publisher: pick(row, "publisher"),
			Language:  pick(row, "language"),
			Link:      pick(row, "link"),
		})
	}
	return entries, skipped, nil
}

// CoerceBookID parses a catalog or ledger id cell. Spreadsheet exports
// sometimes render integer ids as floats ("1024.0"); a trailing ".0" run is
// accepted, anything else non-numeric is not.
func CoerceBookID(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		frac := s[dot+1:]
		if frac == "" || strings.Trim(frac, "0") != "" {
			return 0, false
		}
		s = s[:dot]
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

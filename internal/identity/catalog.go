// Package identity canonicalizes ledger rows into transactions: merging the
// two book id columns, normalizing dates, resolving borrower name variants
// through rewrite rules, and classifying every row against the master
// catalog as matched, ghost or orphan.
package identity

import (
	"libledger/pkg/contracts/domain"
)

// CatalogIndex is the master catalog keyed by book id, built once and
// read-shared by every downstream stage.
type CatalogIndex struct {
	entries map[int64]domain.CatalogEntry
	order   []int64

	// DuplicateIDs lists catalog ids that appeared more than once. The first
	// entry wins; the repeats are a data-quality fault, not an error.
	DuplicateIDs []int64
}

// NewCatalogIndex builds an index over the catalog rows.
func NewCatalogIndex(entries []domain.CatalogEntry) *CatalogIndex {
	idx := &CatalogIndex{entries: make(map[int64]domain.CatalogEntry, len(entries))}
	dupes := make(map[int64]bool)
	for _, e := range entries {
		if _, ok := idx.entries[e.BookID]; ok {
			if !dupes[e.BookID] {
				dupes[e.BookID] = true
				idx.DuplicateIDs = append(idx.DuplicateIDs, e.BookID)
			}
			continue
		}
		idx.entries[e.BookID] = e
		idx.order = append(idx.order, e.BookID)
	}
	return idx
}

// Lookup returns the catalog entry for a book id.
func (c *CatalogIndex) Lookup(id int64) (domain.CatalogEntry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Len returns the number of distinct catalog entries.
func (c *CatalogIndex) Len() int {
	return len(c.entries)
}

// IDs returns the catalog ids in first-seen order.
func (c *CatalogIndex) IDs() []int64 {
	return c.order
}

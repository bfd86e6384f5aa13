package aggregate

import (
	"fmt"
	"sort"

	"libledger/pkg/contracts/domain"
)

// BookProfiles folds transactions into one profile per book id. Every
// catalog entry gets a profile even with zero circulation; ids seen only in
// the ledgers get a synthesized ghost profile. Output is sorted by
// descending circulation; ties keep catalog-then-first-seen order.
func (e *Engine) BookProfiles(txns []domain.Transaction) []domain.BookProfile {
	profiles := make(map[int64]*domain.BookProfile)
	var order []int64

	if e.catalog != nil {
		for _, id := range e.catalog.IDs() {
			entry, _ := e.catalog.Lookup(id)
			profiles[id] = &domain.BookProfile{
				BookID:    entry.BookID,
				Title:     entry.Title,
				Author:    entry.Author,
				Publisher: entry.Publisher,
				Language:  entry.Language,
				Link:      entry.Link,
			}
			order = append(order, id)
		}
	}

	for _, txn := range txns {
		if txn.BookID == nil {
			continue
		}
		id := *txn.BookID
		p, ok := profiles[id]
		if !ok {
			p = &domain.BookProfile{BookID: id, IsGhost: true}
			profiles[id] = p
			order = append(order, id)
		}
		p.Transactions = append(p.Transactions, txn)
		p.TransactionCount++
		if p.IsGhost && p.Title == "" && txn.BookName != nil && *txn.BookName != "" {
			p.Title = *txn.BookName
		}
	}

	out := make([]domain.BookProfile, 0, len(order))
	for _, id := range order {
		p := profiles[id]
		if p.IsGhost && p.Title == "" {
			p.Title = fmt.Sprintf("Unknown Book #%d", p.BookID)
		}
		p.UniqueBorrowers = uniqueBorrowers(p.Transactions)
		p.UniqueBorrowerCount = len(p.UniqueBorrowers)
		out = append(out, *p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TransactionCount > out[j].TransactionCount
	})
	return out
}

func uniqueBorrowers(txns []domain.Transaction) []string {
	set := make(map[string]bool)
	for _, txn := range txns {
		if txn.HasBorrower() {
			set[*txn.BorrowerName] = true
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bookTitles indexes profile titles by id for graph labeling.
func bookTitles(books []domain.BookProfile) map[int64]string {
	titles := make(map[int64]string, len(books))
	for _, b := range books {
		titles[b.BookID] = b.Title
	}
	return titles
}

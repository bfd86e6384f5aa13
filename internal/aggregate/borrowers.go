package aggregate

import (
	"sort"

	"libledger/pkg/contracts/domain"
)

// BorrowerProfiles folds the transactions into one profile per canonical
// borrower name. Rows without a borrower are skipped. Output is sorted by
// descending activity; ties keep first-appearance order.
func (e *Engine) BorrowerProfiles(txns []domain.Transaction) []domain.BorrowerProfile {
	profiles := make(map[string]*domain.BorrowerProfile)
	var order []string

	for _, txn := range txns {
		if !txn.HasBorrower() {
			continue
		}
		name := *txn.BorrowerName
		p, ok := profiles[name]
		if !ok {
			p = &domain.BorrowerProfile{BorrowerName: name, Gender: domain.GenderUnknown}
			profiles[name] = p
			order = append(order, name)
		}

		p.Transactions = append(p.Transactions, txn)
		p.TotalTransactions++
		if p.Gender == domain.GenderUnknown && txn.Gender != domain.GenderUnknown {
			p.Gender = txn.Gender
		}
		if txn.Date != nil {
			if p.FirstSeen == nil || *txn.Date < *p.FirstSeen {
				p.FirstSeen = txn.Date
			}
			if p.LastSeen == nil || *txn.Date > *p.LastSeen {
				p.LastSeen = txn.Date
			}
		}
	}

	out := make([]domain.BorrowerProfile, 0, len(order))
	for _, name := range order {
		p := profiles[name]
		finishBorrowerProfile(p)
		out = append(out, *p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalTransactions > out[j].TotalTransactions
	})
	return out
}

func finishBorrowerProfile(p *domain.BorrowerProfile) {
	books := make(map[int64]bool)
	years := make(map[int]bool)
	months := make(map[int]int)

	for _, txn := range p.Transactions {
		if txn.BookID != nil {
			books[*txn.BookID] = true
		}
		if txn.Year != nil {
			years[*txn.Year] = true
		}
		if txn.Date != nil {
			if m, ok := isoMonth(*txn.Date); ok {
				months[m]++
			}
		}
	}

	p.UniqueBooks = sortedInt64Keys(books)
	p.UniqueBookCount = len(p.UniqueBooks)
	p.YearsActive = sortedIntKeys(years)
	p.MostActiveMonth = modalMonth(months)
	p.ReadingVelocity = readingVelocity(p.TotalTransactions, p.YearsActive)
}

// readingVelocity is transactions per active calendar year, inclusive of
// both span endpoints, rounded to two decimals.
func readingVelocity(total int, years []int) float64 {
	if len(years) == 0 {
		return 0
	}
	span := years[len(years)-1] - years[0] + 1
	return round2(float64(total) / float64(span))
}

// modalMonth returns the most frequent month; ties resolve to the lowest
// month number.
func modalMonth(counts map[int]int) *int {
	best, bestCount := 0, 0
	for month, count := range counts {
		if count > bestCount || (count == bestCount && month < best) {
			best, bestCount = month, count
		}
	}
	if bestCount == 0 {
		return nil
	}
	return &best
}

// isoMonth extracts the month from an ISO date string.
func isoMonth(iso string) (int, bool) {
	if len(iso) < 7 || iso[4] != '-' {
		return 0, false
	}
	m := int(iso[5]-'0')*10 + int(iso[6]-'0')
	if m < 1 || m > 12 {
		return 0, false
	}
	return m, true
}

func sortedInt64Keys(set map[int64]bool) []int64 {
	keys := make([]int64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedIntKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

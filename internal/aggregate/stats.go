package aggregate

import (
	"sort"

	"libledger/pkg/contracts/domain"
)

// languageUnknown buckets matched books whose catalog row has no language.
const languageUnknown = "unknown"

// BuildStats computes the cross-sectional statistics. Year, gender and month
// sections fold the transactions directly; the language section joins
// through the catalog.
func (e *Engine) BuildStats(txns []domain.Transaction, borrowers []domain.BorrowerProfile, books []domain.BookProfile) domain.Stats {
	return domain.Stats{
		ByYear:     statsByYear(txns),
		ByGender:   statsByGender(txns),
		ByLanguage: e.statsByLanguage(txns),
		ByMonth:    statsByMonth(txns),
		Summary:    summarize(txns, borrowers, books),
	}
}

func statsByYear(txns []domain.Transaction) []domain.YearStats {
	type yearAcc struct {
		stats     domain.YearStats
		borrowers map[string]bool
		books     map[int64]bool
	}
	byYear := make(map[int]*yearAcc)

	for _, txn := range txns {
		if txn.Year == nil {
			continue
		}
		acc, ok := byYear[*txn.Year]
		if !ok {
			acc = &yearAcc{
				stats:     domain.YearStats{Year: *txn.Year},
				borrowers: make(map[string]bool),
				books:     make(map[int64]bool),
			}
			byYear[*txn.Year] = acc
		}
		acc.stats.TotalTransactions++
		switch txn.Gender {
		case domain.GenderMan:
			acc.stats.MenTransactions++
		case domain.GenderWoman:
			acc.stats.WomenTransactions++
		}
		if txn.HasBorrower() {
			acc.borrowers[*txn.BorrowerName] = true
		}
		if txn.BookID != nil {
			acc.books[*txn.BookID] = true
		}
	}

	out := make([]domain.YearStats, 0, len(byYear))
	for _, acc := range byYear {
		acc.stats.UniqueBorrowers = len(acc.borrowers)
		acc.stats.UniqueBooks = len(acc.books)
		out = append(out, acc.stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func statsByGender(txns []domain.Transaction) []domain.GenderStats {
	order := []domain.Gender{domain.GenderMan, domain.GenderWoman, domain.GenderUnknown}
	totals := make(map[domain.Gender]int)
	borrowers := make(map[domain.Gender]map[string]bool)

	for _, txn := range txns {
		totals[txn.Gender]++
		if txn.HasBorrower() {
			if borrowers[txn.Gender] == nil {
				borrowers[txn.Gender] = make(map[string]bool)
			}
			borrowers[txn.Gender][*txn.BorrowerName] = true
		}
	}

	var out []domain.GenderStats
	for _, g := range order {
		if totals[g] == 0 {
			continue
		}
		out = append(out, domain.GenderStats{
			Gender:            g,
			TotalTransactions: totals[g],
			UniqueBorrowers:   len(borrowers[g]),
		})
	}
	return out
}

func (e *Engine) statsByLanguage(txns []domain.Transaction) []domain.LanguageStats {
	if e.catalog == nil {
		return nil
	}
	totals := make(map[string]int)
	books := make(map[string]map[int64]bool)

	for _, txn := range txns {
		if txn.Match != domain.MatchClassMatched || txn.BookID == nil {
			continue
		}
		entry, ok := e.catalog.Lookup(*txn.BookID)
		if !ok {
			continue
		}
		lang := entry.Language
		if lang == "" {
			lang = languageUnknown
		}
		totals[lang]++
		if books[lang] == nil {
			books[lang] = make(map[int64]bool)
		}
		books[lang][*txn.BookID] = true
	}

	out := make([]domain.LanguageStats, 0, len(totals))
	for lang, total := range totals {
		out = append(out, domain.LanguageStats{
			Language:          lang,
			TotalTransactions: total,
			UniqueBooks:       len(books[lang]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalTransactions != out[j].TotalTransactions {
			return out[i].TotalTransactions > out[j].TotalTransactions
		}
		return out[i].Language < out[j].Language
	})
	return out
}

func statsByMonth(txns []domain.Transaction) []domain.MonthStats {
	counts := make(map[int]int)
	for _, txn := range txns {
		if txn.Date == nil {
			continue
		}
		if m, ok := isoMonth(*txn.Date); ok {
			counts[m]++
		}
	}

	out := make([]domain.MonthStats, 0, len(counts))
	for month, total := range counts {
		out = append(out, domain.MonthStats{Month: month, TotalTransactions: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func summarize(txns []domain.Transaction, borrowers []domain.BorrowerProfile, books []domain.BookProfile) domain.StatsSummary {
	summary := domain.StatsSummary{
		TotalTransactions: len(txns),
		TotalBorrowers:    len(borrowers),
		TotalBooks:        len(books),
	}

	for i := range txns {
		d := txns[i].Date
		if d == nil {
			continue
		}
		if summary.DateRange.Start == nil || *d < *summary.DateRange.Start {
			summary.DateRange.Start = d
		}
		if summary.DateRange.End == nil || *d > *summary.DateRange.End {
			summary.DateRange.End = d
		}
	}

	if summary.TotalBorrowers > 0 {
		summary.AvgTransactionsPerBorrower = round2(float64(summary.TotalTransactions) / float64(summary.TotalBorrowers))
	}
	if summary.TotalBooks > 0 {
		summary.AvgTransactionsPerBook = round2(float64(summary.TotalTransactions) / float64(summary.TotalBooks))
	}
	return summary
}

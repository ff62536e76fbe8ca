package core

import (
	"sort"
	"strings"
)

const (
	PeriodToday Period = iota
	PeriodThisWeek
	PeriodThisMonth
)

const (
	SortDateDesc SortKey = iota
	SortAmountAsc
	SortAmountDesc
)

type (
	// Period selects a reporting window relative to a "today" anchor.
	Period int

	// SortKey selects the ordering applied after filtering in SearchAndSort.
	SortKey int

	// Totals is the sum of amounts grouped by kind plus the derived balance.
	Totals struct {
		Income  Money
		Expense Money
		Net     Money // Income minus Expense
	}

	// DayCashflow is one point of a dense daily series: the net movement
	// (income minus expense) for a single calendar day.
	DayCashflow struct {
		Date Date
		Net  Money
	}

	// DaySpend is the summed expense amount for one calendar day.
	DaySpend struct {
		Date   Date
		Amount Money
	}

	// CategorySpend is the summed expense amount for one category.
	CategorySpend struct {
		Category Category
		Amount   Money
	}

	// Query is the composable filter pipeline for listings: text match, then
	// category match, then date range, then a stable sort. Filtering always
	// runs before sorting, so the sort never changes which rows pass.
	Query struct {
		Text     string   // case-insensitive substring on Reason; empty matches all
		Category Category // exact match; empty disables the filter
		Start    Date
		End      Date
		Sort     SortKey
	}
)

// TotalsByKind sums amounts grouped by kind. An empty ledger yields all-zero
// totals; there is no failure mode.
func TotalsByKind(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Kind {
		case KindIncome:
			t.Income = t.Income.Add(tx.Amount)
		case KindExpense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Net = t.Income.Sub(t.Expense)
	return t
}

// FilterByDateRange returns the transactions whose date falls in
// [start, end], inclusive on both bounds. A degenerate range (start after
// end) has no valid days and yields an empty result rather than an error.
func FilterByDateRange(txs []Transaction, start, end Date) []Transaction {
	if start.After(end.Time) {
		return nil
	}
	out := make([]Transaction, 0)
	for _, tx := range txs {
		if tx.Date.Before(start.Time) || tx.Date.After(end.Time) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// PeriodBounds resolves a period to its inclusive date range relative to
// today. Weeks start on Monday and run 7 days; months follow the calendar,
// so February is 28 or 29 days depending on the year.
func PeriodBounds(today Date, p Period) (Date, Date) {
	switch p {
	case PeriodThisWeek:
		// Monday-based offset: Sunday counts as day 6 of the current week.
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDays(-offset)
		return start, start.AddDays(6)
	case PeriodThisMonth:
		start := NewDate(today.Year(), int(today.Month()), 1)
		end := NewDate(today.Year(), int(today.Month())+1, 0)
		return start, end
	default:
		return today, today
	}
}

// FilterByPeriod returns the transactions falling in the given period
// relative to today. The source slice is never mutated.
func FilterByPeriod(txs []Transaction, today Date, p Period) []Transaction {
	start, end := PeriodBounds(today, p)
	return FilterByDateRange(txs, start, end)
}

// DailyCashflowSeries computes the net movement for every calendar day in
// [start, end], in chronological order with no gaps: days without
// transactions appear with a zero net. This zero-fill is what the time-series
// views depend on; silently dropping empty days would skew every chart drawn
// from the result. A degenerate range yields an empty series.
func DailyCashflowSeries(txs []Transaction, start, end Date) []DayCashflow {
	if start.After(end.Time) {
		return nil
	}
	perDay := make(map[Date]int64)
	for _, tx := range txs {
		if tx.Date.Before(start.Time) || tx.Date.After(end.Time) {
			continue
		}
		day := DateOf(tx.Date.Time) // normalize so map lookups match the dense walk
		switch tx.Kind {
		case KindIncome:
			perDay[day] += tx.Amount.Cents
		case KindExpense:
			perDay[day] -= tx.Amount.Cents
		}
	}
	series := make([]DayCashflow, 0, start.DaysUntil(end)+1)
	for d := start; !d.After(end.Time); d = d.AddDays(1) {
		series = append(series, DayCashflow{Date: d, Net: Money{Cents: perDay[d]}})
	}
	return series
}

// CategoryBreakdown groups transactions of the given kind by category and
// sums their amounts. The mapping is sparse: categories with no matching
// transactions are omitted, unlike the zero-filled daily series. A stray
// category outside the closed set is bucketed under Other rather than
// dropped, so the breakdown total always matches the kind total.
func CategoryBreakdown(txs []Transaction, kind Kind) map[Category]Money {
	out := make(map[Category]Money)
	for _, tx := range txs {
		if tx.Kind != kind {
			continue
		}
		cat := tx.Category
		if !cat.Valid() {
			cat = CategoryOther
		}
		out[cat] = out[cat].Add(tx.Amount)
	}
	return out
}

// HighestSpendDay returns the calendar day with the largest summed expense
// amount. Ties resolve to the earliest such day. The second return is false
// when the ledger holds no expense transactions; callers must handle that
// rather than rely on a synthetic zero day.
func HighestSpendDay(txs []Transaction) (DaySpend, bool) {
	perDay := make(map[Date]int64)
	for _, tx := range txs {
		if tx.Kind != KindExpense {
			continue
		}
		perDay[DateOf(tx.Date.Time)] += tx.Amount.Cents
	}
	if len(perDay) == 0 {
		return DaySpend{}, false
	}
	var best DaySpend
	found := false
	for d, cents := range perDay {
		if !found || cents > best.Amount.Cents ||
			(cents == best.Amount.Cents && d.Before(best.Date.Time)) {
			best = DaySpend{Date: d, Amount: Money{Cents: cents}}
			found = true
		}
	}
	return best, true
}

// MostExpensiveCategory returns the category with the largest summed expense
// amount. Ties resolve to the category appearing first in Categories() order,
// keeping the result deterministic regardless of input order. The second
// return is false when there are no expense transactions.
func MostExpensiveCategory(txs []Transaction) (CategorySpend, bool) {
	breakdown := CategoryBreakdown(txs, KindExpense)
	if len(breakdown) == 0 {
		return CategorySpend{}, false
	}
	var best CategorySpend
	found := false
	for _, cat := range Categories() {
		amount, ok := breakdown[cat]
		if !ok {
			continue
		}
		if !found || amount.Cents > best.Amount.Cents {
			best = CategorySpend{Category: cat, Amount: amount}
			found = true
		}
	}
	return best, true
}

// SearchAndSort applies the query's filters then its sort. The result is a
// fresh slice; applying the same query twice yields the same rows. All sorts
// are stable, so rows equal under the sort key keep their relative input
// order.
func SearchAndSort(txs []Transaction, q Query) []Transaction {
	matched := FilterByDateRange(txs, q.Start, q.End)
	matched = filterByText(matched, q.Text)
	matched = filterByCategory(matched, q.Category)

	switch q.Sort {
	case SortAmountAsc:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Amount.Cents < matched[j].Amount.Cents
		})
	case SortAmountDesc:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Amount.Cents > matched[j].Amount.Cents
		})
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Date.After(matched[j].Date.Time)
		})
	}
	return matched
}

func filterByText(txs []Transaction, text string) []Transaction {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return txs
	}
	out := txs[:0:0]
	for _, tx := range txs {
		if strings.Contains(strings.ToLower(tx.Reason), text) {
			out = append(out, tx)
		}
	}
	return out
}

func filterByCategory(txs []Transaction, cat Category) []Transaction {
	if cat == "" {
		return txs
	}
	out := txs[:0:0]
	for _, tx := range txs {
		if tx.Category == cat {
			out = append(out, tx)
		}
	}
	return out
}

// SortForDisplay orders a snapshot the way listings present it: most recent
// day first, entries within a day by creation time descending. Aggregation
// itself never depends on this ordering.
func SortForDisplay(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"finledger/internal/core"
)

// handleTotals reports income, expense and net over the whole ledger, or over
// a period when the period query parameter is present.
func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	txs, err := s.snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read ledger")
		return
	}

	payload := map[string]any{}
	if v := strings.TrimSpace(r.URL.Query().Get("period")); v != "" {
		period, ok := parsePeriod(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown period, want today, week or month")
			return
		}
		txs = core.FilterByPeriod(txs, s.today(), period)
		payload["period"] = strings.ToLower(v)
	}

	totals := core.TotalsByKind(txs)
	payload["income_cents"] = totals.Income.Cents
	payload["expense_cents"] = totals.Expense.Cents
	payload["net_cents"] = totals.Net.Cents

	writeJSON(w, http.StatusOK, payload)
}

type dayCashflowJSON struct {
	Date     string `json:"date"`
	NetCents int64  `json:"net_cents"`
}

// handleCashflow returns the dense daily net series for a date range,
// defaulting to the current calendar month.
func (s *Server) handleCashflow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	start, end, ok := s.cashflowRange(r.URL.Query())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date bound, want YYYY-MM-DD")
		return
	}

	txs, err := s.snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read ledger")
		return
	}

	series := core.DailyCashflowSeries(txs, start, end)
	days := make([]dayCashflowJSON, 0, len(series))
	for _, day := range series {
		days = append(days, dayCashflowJSON{
			Date:     day.Date.Format(dateLayout),
			NetCents: day.Net.Cents,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"from": start.Format(dateLayout),
		"to":   end.Format(dateLayout),
		"days": days,
	})
}

// cashflowRange resolves the chart and series date range: explicit from/to
// bounds when given, the current month otherwise.
func (s *Server) cashflowRange(query url.Values) (core.Date, core.Date, bool) {
	defaultStart, defaultEnd := core.PeriodBounds(s.today(), core.PeriodThisMonth)
	return parseDateRange(query, defaultStart, defaultEnd)
}

type categorySpendJSON struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
}

// handleCategories returns the per-category breakdown for one kind,
// defaulting to expenses. Categories without transactions are omitted.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	kind := core.KindExpense
	if v := strings.TrimSpace(r.URL.Query().Get("kind")); v != "" {
		parsed, err := core.ParseKind(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown kind, want income or expense")
			return
		}
		kind = parsed
	}

	txs, err := s.snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read ledger")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"kind":       string(kind),
		"categories": breakdownList(txs, kind),
	})
}

// breakdownList presents a sparse breakdown in the fixed category order so
// responses are deterministic.
func breakdownList(txs []core.Transaction, kind core.Kind) []categorySpendJSON {
	breakdown := core.CategoryBreakdown(txs, kind)
	out := make([]categorySpendJSON, 0, len(breakdown))
	for _, cat := range core.Categories() {
		amount, ok := breakdown[cat]
		if !ok {
			continue
		}
		out = append(out, categorySpendJSON{
			Category:    string(cat),
			AmountCents: amount.Cents,
		})
	}
	return out
}

type daySpendJSON struct {
	Date        string `json:"date"`
	AmountCents int64  `json:"amount_cents"`
}

// handleExtremes reports the highest-spend day and the most expensive
// category. Both are null when the ledger has no expenses.
func (s *Server) handleExtremes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	txs, err := s.snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read ledger")
		return
	}

	payload := map[string]any{
		"highest_spend_day":       nil,
		"most_expensive_category": nil,
	}

	if day, ok := core.HighestSpendDay(txs); ok {
		payload["highest_spend_day"] = daySpendJSON{
			Date:        day.Date.Format(dateLayout),
			AmountCents: day.Amount.Cents,
		}
	}
	if cat, ok := core.MostExpensiveCategory(txs); ok {
		payload["most_expensive_category"] = categorySpendJSON{
			Category:    string(cat.Category),
			AmountCents: cat.Amount.Cents,
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

// handleRecent returns the newest entries in display order.
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	limit := parseLimit(r.URL.Query(), 5, 100)

	txs, err := s.snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read ledger")
		return
	}

	ordered := core.SortForDisplay(txs)
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	out := make([]transactionJSON, 0, len(ordered))
	for _, tx := range ordered {
		out = append(out, toTransactionJSON(tx))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":        len(out),
		"transactions": out,
	})
}

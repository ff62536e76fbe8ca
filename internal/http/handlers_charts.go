package http

import (
	"log/slog"
	"net/http"

	"finledger/internal/core"
)

// handleCashflowChart renders the daily net series as a PNG line chart.
// Responds 204 when the range is too small to draw.
func (s *Server) handleCashflowChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	start, end, ok := s.cashflowRange(r.URL.Query())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date bound, want YYYY-MM-DD")
		return
	}

	key := "cashflow:" + start.Format(dateLayout) + ":" + end.Format(dateLayout)
	if png, found := s.chartCache.Get(key); found {
		writePNG(w, png)
		return
	}

	txs, err := s.snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read ledger")
		return
	}

	png, err := s.charts.CashflowPNG(core.DailyCashflowSeries(txs, start, end))
	if err != nil {
		slog.ErrorContext(r.Context(), "Cashflow chart render error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	if png != nil {
		s.chartCache.Set(key, png)
	}
	writePNG(w, png)
}

// handleCategoriesChart renders the expense category breakdown as a PNG pie
// chart. Responds 204 when there are no expenses.
func (s *Server) handleCategoriesChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	const key = "categories:expense"
	if png, found := s.chartCache.Get(key); found {
		writePNG(w, png)
		return
	}

	txs, err := s.snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read ledger")
		return
	}

	breakdown := core.CategoryBreakdown(txs, core.KindExpense)
	spends := make([]core.CategorySpend, 0, len(breakdown))
	for _, cat := range core.Categories() {
		if amount, ok := breakdown[cat]; ok {
			spends = append(spends, core.CategorySpend{Category: cat, Amount: amount})
		}
	}

	png, err := s.charts.CategoryPiePNG(spends)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category chart render error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	if png != nil {
		s.chartCache.Set(key, png)
	}
	writePNG(w, png)
}

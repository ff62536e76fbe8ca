package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finledger/internal/core"
)

// transactionJSON is the wire shape of a ledger entry. Amounts travel as raw
// cents so clients never see floating point.
type transactionJSON struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	AmountCents  int64     `json:"amount_cents"`
	Reason       string    `json:"reason"`
	Category     string    `json:"category"`
	Counterparty string    `json:"counterparty,omitempty"`
	Date         string    `json:"date"`
	Time         string    `json:"time,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:           tx.ID,
		Kind:         string(tx.Kind),
		AmountCents:  tx.Amount.Cents,
		Reason:       tx.Reason,
		Category:     string(tx.Category),
		Counterparty: tx.Counterparty,
		Date:         tx.Date.Format(dateLayout),
		Time:         tx.TimeOfDay,
		CreatedAt:    tx.CreatedAt,
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	case http.MethodGet:
		s.handleSearchTransactions(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		slog.ErrorContext(r.Context(), "Parse body error", "error", err, "method", r.Method, "url", r.URL.Path)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind, err := core.ParseKind(parser.Get("kind"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "unknown kind, want income or expense")
		return
	}

	cents, err := core.ParseDecimalToCents(parser.Get("amount"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	category, err := core.ParseCategory(parser.Get("category"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "unknown category")
		return
	}

	dateStr := parser.Get("date")
	date := s.today()
	if dateStr != "" {
		date, err = parseDate(dateStr)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date, want YYYY-MM-DD")
			return
		}
	}

	tx := core.Transaction{
		Kind:         kind,
		Amount:       core.Money{Cents: cents},
		Reason:       parser.Get("reason"),
		Category:     category,
		Counterparty: parser.Get("counterparty"),
		Date:         date,
		TimeOfDay:    parser.Get("time"),
	}
	if err := tx.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.ledger.AddTransaction(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction append error",
			"error", err, "reason", tx.Reason, "amount_cents", tx.Amount.Cents)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	s.invalidateCaches()

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// searchDefaults bound an unconstrained listing query.
var (
	searchRangeStart = core.NewDate(1, 1, 1)
	searchRangeEnd   = core.NewDate(9999, 12, 31)
)

func (s *Server) handleSearchTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	start, end, ok := parseDateRange(query, searchRangeStart, searchRangeEnd)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date bound, want YYYY-MM-DD")
		return
	}

	// "All" is the no-filter sentinel, matching the category selector's
	// default in the legacy dashboard.
	var category core.Category
	if v := strings.TrimSpace(query.Get("category")); v != "" && !strings.EqualFold(v, "all") {
		parsed, err := core.ParseCategory(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown category")
			return
		}
		category = parsed
	}

	txs, err := s.snapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Snapshot error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read ledger")
		return
	}

	matched := core.SearchAndSort(txs, core.Query{
		Text:     query.Get("q"),
		Category: category,
		Start:    start,
		End:      end,
		Sort:     parseSortKey(query.Get("sort")),
	})

	out := make([]transactionJSON, 0, len(matched))
	for _, tx := range matched {
		out = append(out, toTransactionJSON(tx))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":        len(out),
		"transactions": out,
	})
}

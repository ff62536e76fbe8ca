package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finledger/internal/core"
	"finledger/internal/ledger/memory"
	"finledger/internal/services"
)

// newTestServer wires a server over an in-memory store with a fixed clock so
// period queries are deterministic. Today is Friday 2024-03-15.
func newTestServer(t *testing.T) (*Server, *services.LedgerService) {
	t.Helper()
	svc := services.NewLedgerService(memory.New(), nil)
	srv := NewServer(":0", svc, 0)
	srv.now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, svc
}

func seed(t *testing.T, svc *services.LedgerService, kind core.Kind, cents int64, reason string, cat core.Category, date core.Date) {
	t.Helper()
	_, err := svc.AddTransaction(context.Background(), core.Transaction{
		Kind:     kind,
		Amount:   core.Money{Cents: cents},
		Reason:   reason,
		Category: cat,
		Date:     date,
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
}

func doJSON(t *testing.T, srv *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		if strings.HasPrefix(body, "{") {
			req.Header.Set("Content-Type", "application/json")
		} else {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	var payload map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response %q: %v", rr.Body.String(), err)
		}
	}
	return rr, payload
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr, _ := doJSON(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestCreateTransaction_Form(t *testing.T) {
	srv, _ := newTestServer(t)

	rr, payload := doJSON(t, srv, http.MethodPost, "/transactions",
		"kind=expense&amount=12.50&reason=lunch&category=Food&counterparty=cafe&date=2024-03-14&time=12:30")
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rr.Code, rr.Body.String())
	}
	if payload["id"] == "" {
		t.Error("expected non-empty id in response")
	}
}

func TestCreateTransaction_JSON(t *testing.T) {
	srv, _ := newTestServer(t)

	rr, _ := doJSON(t, srv, http.MethodPost, "/transactions",
		`{"kind":"income","amount":"1000.00","reason":"salary","category":"Other","date":"2024-03-01"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateTransaction_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"bad amount", "kind=expense&amount=abc&category=Food&date=2024-03-14"},
		{"negative amount", "kind=expense&amount=-5.00&category=Food&date=2024-03-14"},
		{"unknown kind", "kind=refund&amount=5.00&category=Food&date=2024-03-14"},
		{"unknown category", "kind=expense&amount=5.00&category=Groceries&date=2024-03-14"},
		{"bad date", "kind=expense&amount=5.00&category=Food&date=14-03-2024"},
		{"bad time", "kind=expense&amount=5.00&category=Food&date=2024-03-14&time=25:99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, _ := doJSON(t, srv, http.MethodPost, "/transactions", tt.body)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422, body: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestTransactions_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rr, _ := doJSON(t, srv, http.MethodDelete, "/transactions", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}

func TestTotals(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc, core.KindIncome, 100000, "salary", core.CategoryOther, core.NewDate(2024, 3, 1))
	seed(t, svc, core.KindExpense, 20000, "groceries", core.CategoryFood, core.NewDate(2024, 3, 1))
	seed(t, svc, core.KindExpense, 30000, "restaurant", core.CategoryFood, core.NewDate(2024, 3, 2))

	rr, payload := doJSON(t, srv, http.MethodGet, "/dashboard/totals", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["income_cents"].(float64) != 100000 {
		t.Errorf("income_cents = %v, want 100000", payload["income_cents"])
	}
	if payload["expense_cents"].(float64) != 50000 {
		t.Errorf("expense_cents = %v, want 50000", payload["expense_cents"])
	}
	if payload["net_cents"].(float64) != 50000 {
		t.Errorf("net_cents = %v, want 50000", payload["net_cents"])
	}
}

func TestTotals_Empty(t *testing.T) {
	srv, _ := newTestServer(t)

	rr, payload := doJSON(t, srv, http.MethodGet, "/dashboard/totals", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	for _, field := range []string{"income_cents", "expense_cents", "net_cents"} {
		if payload[field].(float64) != 0 {
			t.Errorf("%s = %v, want 0", field, payload[field])
		}
	}
}

func TestTotals_Period(t *testing.T) {
	srv, svc := newTestServer(t)
	// Today is Friday 2024-03-15; the week runs Monday 03-11 to Sunday 03-17
	seed(t, svc, core.KindExpense, 1000, "in week", core.CategoryFood, core.NewDate(2024, 3, 11))
	seed(t, svc, core.KindExpense, 2000, "today", core.CategoryFood, core.NewDate(2024, 3, 15))
	seed(t, svc, core.KindExpense, 4000, "before week", core.CategoryFood, core.NewDate(2024, 3, 10))

	rr, payload := doJSON(t, srv, http.MethodGet, "/dashboard/totals?period=week", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["expense_cents"].(float64) != 3000 {
		t.Errorf("expense_cents = %v, want 3000", payload["expense_cents"])
	}

	rr, payload = doJSON(t, srv, http.MethodGet, "/dashboard/totals?period=today", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["expense_cents"].(float64) != 2000 {
		t.Errorf("expense_cents = %v, want 2000", payload["expense_cents"])
	}

	rr, _ = doJSON(t, srv, http.MethodGet, "/dashboard/totals?period=quarter", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown period status = %d, want 400", rr.Code)
	}
}

func TestCashflow_DenseSeries(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc, core.KindIncome, 10000, "pay", core.CategoryOther, core.NewDate(2024, 3, 1))
	seed(t, svc, core.KindExpense, 2500, "lunch", core.CategoryFood, core.NewDate(2024, 3, 3))

	rr, payload := doJSON(t, srv, http.MethodGet, "/dashboard/cashflow?from=2024-03-01&to=2024-03-05", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	days := payload["days"].([]any)
	if len(days) != 5 {
		t.Fatalf("got %d days, want 5 (zero-filled)", len(days))
	}

	first := days[0].(map[string]any)
	if first["date"] != "2024-03-01" || first["net_cents"].(float64) != 10000 {
		t.Errorf("unexpected first day: %v", first)
	}
	second := days[1].(map[string]any)
	if second["net_cents"].(float64) != 0 {
		t.Errorf("empty day net = %v, want 0", second["net_cents"])
	}
	third := days[2].(map[string]any)
	if third["net_cents"].(float64) != -2500 {
		t.Errorf("expense day net = %v, want -2500", third["net_cents"])
	}
}

func TestCashflow_DefaultsToCurrentMonth(t *testing.T) {
	srv, _ := newTestServer(t)

	rr, payload := doJSON(t, srv, http.MethodGet, "/dashboard/cashflow", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["from"] != "2024-03-01" || payload["to"] != "2024-03-31" {
		t.Errorf("range = %v..%v, want 2024-03-01..2024-03-31", payload["from"], payload["to"])
	}
	if len(payload["days"].([]any)) != 31 {
		t.Errorf("got %d days, want 31", len(payload["days"].([]any)))
	}
}

func TestCategories(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc, core.KindExpense, 20000, "groceries", core.CategoryFood, core.NewDate(2024, 3, 1))
	seed(t, svc, core.KindExpense, 30000, "restaurant", core.CategoryFood, core.NewDate(2024, 3, 2))
	seed(t, svc, core.KindExpense, 10000, "train", core.CategoryTravel, core.NewDate(2024, 3, 2))
	seed(t, svc, core.KindIncome, 99999, "salary", core.CategoryOther, core.NewDate(2024, 3, 1))

	rr, payload := doJSON(t, srv, http.MethodGet, "/dashboard/categories", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	cats := payload["categories"].([]any)
	if len(cats) != 2 {
		t.Fatalf("got %d categories, want 2 (sparse)", len(cats))
	}
	first := cats[0].(map[string]any)
	if first["category"] != "Food" || first["amount_cents"].(float64) != 50000 {
		t.Errorf("unexpected first category: %v", first)
	}
}

func TestExtremes(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc, core.KindExpense, 10000, "a", core.CategoryFood, core.NewDate(2024, 3, 3))
	seed(t, svc, core.KindExpense, 10000, "b", core.CategoryTravel, core.NewDate(2024, 3, 5))
	seed(t, svc, core.KindExpense, 5000, "c", core.CategoryFood, core.NewDate(2024, 3, 4))

	rr, payload := doJSON(t, srv, http.MethodGet, "/dashboard/extremes", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	day := payload["highest_spend_day"].(map[string]any)
	// Tied days resolve to the earliest
	if day["date"] != "2024-03-03" || day["amount_cents"].(float64) != 10000 {
		t.Errorf("unexpected highest spend day: %v", day)
	}

	cat := payload["most_expensive_category"].(map[string]any)
	// Tied categories resolve in declaration order; Food comes before Travel
	if cat["category"] != "Food" {
		t.Errorf("unexpected most expensive category: %v", cat)
	}
}

func TestExtremes_NoExpenses(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc, core.KindIncome, 100000, "salary", core.CategoryOther, core.NewDate(2024, 3, 1))

	rr, payload := doJSON(t, srv, http.MethodGet, "/dashboard/extremes", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["highest_spend_day"] != nil {
		t.Errorf("highest_spend_day = %v, want null", payload["highest_spend_day"])
	}
	if payload["most_expensive_category"] != nil {
		t.Errorf("most_expensive_category = %v, want null", payload["most_expensive_category"])
	}
}

func TestSearchTransactions(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc, core.KindExpense, 1200, "Grocery run", core.CategoryFood, core.NewDate(2024, 3, 1))
	seed(t, svc, core.KindExpense, 5400, "grocery top-up", core.CategoryFood, core.NewDate(2024, 3, 5))
	seed(t, svc, core.KindExpense, 9900, "train ticket", core.CategoryTravel, core.NewDate(2024, 3, 5))

	rr, payload := doJSON(t, srv, http.MethodGet, "/transactions?q=grocery&sort=amount_desc", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["count"].(float64) != 2 {
		t.Fatalf("count = %v, want 2", payload["count"])
	}
	txs := payload["transactions"].([]any)
	first := txs[0].(map[string]any)
	if first["amount_cents"].(float64) != 5400 {
		t.Errorf("first amount = %v, want 5400 (amount_desc)", first["amount_cents"])
	}

	rr, payload = doJSON(t, srv, http.MethodGet, "/transactions?category=Travel", "")
	if payload["count"].(float64) != 1 {
		t.Errorf("category filter count = %v, want 1", payload["count"])
	}

	// "All" is the selector default, not a category: it disables the filter
	for _, sentinel := range []string{"All", "all"} {
		rr, payload = doJSON(t, srv, http.MethodGet, "/transactions?category="+sentinel, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("category=%s status = %d, want 200", sentinel, rr.Code)
		}
		if payload["count"].(float64) != 3 {
			t.Errorf("category=%s count = %v, want 3", sentinel, payload["count"])
		}
	}

	// Degenerate range yields empty, not an error
	rr, payload = doJSON(t, srv, http.MethodGet, "/transactions?from=2024-03-10&to=2024-03-01", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["count"].(float64) != 0 {
		t.Errorf("degenerate range count = %v, want 0", payload["count"])
	}
}

func TestWriteRateLimit(t *testing.T) {
	svc := services.NewLedgerService(memory.New(), nil)
	srv := NewServer(":0", svc, 1)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	body := "kind=expense&amount=5.00&category=Food&date=2024-03-14"
	rr, _ := doJSON(t, srv, http.MethodPost, "/transactions", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("first write status = %d, want 201", rr.Code)
	}

	rr, payload := doJSON(t, srv, http.MethodPost, "/transactions", body)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second write status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if payload["error"] == nil {
		t.Error("missing error body")
	}

	// Reads stay unthrottled
	rr, _ = doJSON(t, srv, http.MethodGet, "/dashboard/totals", "")
	if rr.Code != http.StatusOK {
		t.Errorf("read status = %d, want 200", rr.Code)
	}
}

func TestRecent(t *testing.T) {
	srv, svc := newTestServer(t)
	for i := 1; i <= 8; i++ {
		seed(t, svc, core.KindExpense, int64(100*i), "x", core.CategoryFood, core.NewDate(2024, 3, i))
	}

	rr, payload := doJSON(t, srv, http.MethodGet, "/dashboard/recent", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	txs := payload["transactions"].([]any)
	if len(txs) != 5 {
		t.Fatalf("got %d transactions, want default limit 5", len(txs))
	}
	first := txs[0].(map[string]any)
	if first["date"] != "2024-03-08" {
		t.Errorf("first date = %v, want 2024-03-08 (newest first)", first["date"])
	}

	_, payload = doJSON(t, srv, http.MethodGet, "/dashboard/recent?limit=2", "")
	if len(payload["transactions"].([]any)) != 2 {
		t.Error("limit parameter not applied")
	}
}

func TestWriteInvalidatesDashboardCache(t *testing.T) {
	srv, _ := newTestServer(t)

	_, payload := doJSON(t, srv, http.MethodGet, "/dashboard/totals", "")
	if payload["expense_cents"].(float64) != 0 {
		t.Fatalf("expected empty totals, got %v", payload["expense_cents"])
	}

	rr, _ := doJSON(t, srv, http.MethodPost, "/transactions",
		"kind=expense&amount=9.99&reason=snack&category=Food&date=2024-03-15")
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", rr.Code)
	}

	_, payload = doJSON(t, srv, http.MethodGet, "/dashboard/totals", "")
	if payload["expense_cents"].(float64) != 999 {
		t.Errorf("expense_cents = %v after write, want 999", payload["expense_cents"])
	}
}

func TestCashflowChartPNG(t *testing.T) {
	srv, svc := newTestServer(t)
	seed(t, svc, core.KindIncome, 10000, "pay", core.CategoryOther, core.NewDate(2024, 3, 1))
	seed(t, svc, core.KindExpense, 2500, "lunch", core.CategoryFood, core.NewDate(2024, 3, 3))

	req := httptest.NewRequest(http.MethodGet, "/charts/cashflow.png?from=2024-03-01&to=2024-03-10", nil)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if !strings.HasPrefix(rr.Body.String(), "\x89PNG") {
		t.Error("body is not a PNG")
	}
}

func TestCategoriesChart_NoExpenses(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/charts/categories.png", nil)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 for empty ledger", rr.Code)
	}
}

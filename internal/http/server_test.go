package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
	"spendtrack/internal/services"
	"spendtrack/internal/storage"
)

type fakeLedger struct {
	createCategory func(ctx context.Context, c core.Category) (core.Category, error)
	getCategory    func(ctx context.Context, id int64) (core.Category, error)
	listCategories func(ctx context.Context) ([]core.Category, error)
	updateCategory func(ctx context.Context, id int64, u storage.CategoryUpdate) (core.Category, error)
	createExpense  func(ctx context.Context, e core.Expense) (core.Expense, error)
	getExpense     func(ctx context.Context, id int64) (core.Expense, error)
	updateExpense  func(ctx context.Context, id int64, u storage.ExpenseUpdate) (core.Expense, error)
	deleteExpense  func(ctx context.Context, id int64) error
	listExpenses   func(ctx context.Context, p core.FilterParams) ([]core.Expense, error)
}

func (f *fakeLedger) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	return f.createCategory(ctx, c)
}

func (f *fakeLedger) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return f.getCategory(ctx, id)
}

func (f *fakeLedger) ListCategories(ctx context.Context) ([]core.Category, error) {
	return f.listCategories(ctx)
}

func (f *fakeLedger) UpdateCategory(ctx context.Context, id int64, u storage.CategoryUpdate) (core.Category, error) {
	return f.updateCategory(ctx, id, u)
}

func (f *fakeLedger) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	return f.createExpense(ctx, e)
}

func (f *fakeLedger) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return f.getExpense(ctx, id)
}

func (f *fakeLedger) UpdateExpense(ctx context.Context, id int64, u storage.ExpenseUpdate) (core.Expense, error) {
	return f.updateExpense(ctx, id, u)
}

func (f *fakeLedger) DeleteExpense(ctx context.Context, id int64) error {
	return f.deleteExpense(ctx, id)
}

func (f *fakeLedger) ListExpenses(ctx context.Context, p core.FilterParams) ([]core.Expense, error) {
	return f.listExpenses(ctx, p)
}

type fakeIntegrity struct {
	deleteCategory func(ctx context.Context, id int64) (services.CategoryCascadeResult, error)
	deleteUser     func(ctx context.Context, id int64) (services.UserCascadeResult, error)
}

func (f *fakeIntegrity) DeleteCategory(ctx context.Context, id int64) (services.CategoryCascadeResult, error) {
	return f.deleteCategory(ctx, id)
}

func (f *fakeIntegrity) DeleteUser(ctx context.Context, id int64) (services.UserCascadeResult, error) {
	return f.deleteUser(ctx, id)
}

type fakeReports struct {
	total      func(ctx context.Context, p core.FilterParams) (core.TotalReport, error)
	byCategory func(ctx context.Context, p core.FilterParams) ([]core.CategoryReportRow, error)
	byName     func(ctx context.Context, p core.FilterParams) ([]core.NameReportRow, error)
	highest    func(ctx context.Context, p core.FilterParams) (*core.Expense, error)
	overview   func(ctx context.Context, p core.FilterParams) (core.Overview, error)
}

func (f *fakeReports) Total(ctx context.Context, p core.FilterParams) (core.TotalReport, error) {
	return f.total(ctx, p)
}

func (f *fakeReports) ByCategory(ctx context.Context, p core.FilterParams) ([]core.CategoryReportRow, error) {
	return f.byCategory(ctx, p)
}

func (f *fakeReports) ByName(ctx context.Context, p core.FilterParams) ([]core.NameReportRow, error) {
	return f.byName(ctx, p)
}

func (f *fakeReports) Highest(ctx context.Context, p core.FilterParams) (*core.Expense, error) {
	return f.highest(ctx, p)
}

func (f *fakeReports) Overview(ctx context.Context, p core.FilterParams) (core.Overview, error) {
	return f.overview(ctx, p)
}

type fakeUsers struct {
	createUser     func(ctx context.Context, username, password string) (core.User, error)
	getUser        func(ctx context.Context, id int64) (core.User, error)
	updatePassword func(ctx context.Context, id int64, password string) error
	authenticate   func(ctx context.Context, username, password string) (core.User, error)
}

func (f *fakeUsers) CreateUser(ctx context.Context, username, password string) (core.User, error) {
	return f.createUser(ctx, username, password)
}

func (f *fakeUsers) GetUser(ctx context.Context, id int64) (core.User, error) {
	return f.getUser(ctx, id)
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id int64, password string) error {
	return f.updatePassword(ctx, id, password)
}

func (f *fakeUsers) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	return f.authenticate(ctx, username, password)
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestServer(ledger LedgerAPI, integrity IntegrityAPI, reports ReportsAPI, users UsersAPI) *Server {
	return NewServer(":0", ledger, integrity, reports, users, &fakePinger{}, 1000, quietLogger())
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestCreateCategoryEndpoint(t *testing.T) {
	ledger := &fakeLedger{
		createCategory: func(_ context.Context, c core.Category) (core.Category, error) {
			c.ID = 7
			c.CreatedAt = time.Now()
			return c, nil
		},
	}
	s := newTestServer(ledger, nil, nil, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/categories", `{"name":"groceries","description":"food"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Errorf("success = false, want true")
	}
}

func TestCreateCategoryValidationError(t *testing.T) {
	ledger := &fakeLedger{
		createCategory: func(_ context.Context, _ core.Category) (core.Category, error) {
			return core.Category{}, core.ErrCategoryNameTooShort
		},
	}
	s := newTestServer(ledger, nil, nil, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/categories", `{"name":"ab"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success {
		t.Errorf("success = true, want false")
	}
	if !strings.Contains(resp.Message, "at least 3 characters") {
		t.Errorf("message = %q, want name length hint", resp.Message)
	}
}

func TestCreateCategoryMalformedBody(t *testing.T) {
	s := newTestServer(&fakeLedger{}, nil, nil, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/categories", `{"name": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetCategoryNotFound(t *testing.T) {
	ledger := &fakeLedger{
		getCategory: func(_ context.Context, _ int64) (core.Category, error) {
			return core.Category{}, core.ErrNotFound
		},
	}
	s := newTestServer(ledger, nil, nil, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/categories/99", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetCategoryInvalidID(t *testing.T) {
	s := newTestServer(&fakeLedger{}, nil, nil, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/categories/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteCategoryReturnsCascadeCounts(t *testing.T) {
	integrity := &fakeIntegrity{
		deleteCategory: func(_ context.Context, id int64) (services.CategoryCascadeResult, error) {
			return services.CategoryCascadeResult{
				Deleted:         core.Category{ID: id, Name: "groceries"},
				RemovedExpenses: 4,
			}, nil
		},
	}
	s := newTestServer(nil, integrity, nil, nil)

	rec := doRequest(t, s, http.MethodDelete, "/api/categories/3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"removed_expenses":4`) {
		t.Errorf("body missing removed count: %s", rec.Body.String())
	}
}

func TestDeleteCategoryCascadeFailure(t *testing.T) {
	integrity := &fakeIntegrity{
		deleteCategory: func(_ context.Context, _ int64) (services.CategoryCascadeResult, error) {
			return services.CategoryCascadeResult{}, &core.CascadeError{
				Op:                "delete category",
				CategoriesRemoved: 1,
				Err:               errors.New("disk I/O error"),
			}
		},
	}
	s := newTestServer(nil, integrity, nil, nil)

	rec := doRequest(t, s, http.MethodDelete, "/api/categories/3", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"categories_removed":1`) {
		t.Errorf("body missing partial counts: %s", body)
	}
	if strings.Contains(body, "disk I/O") {
		t.Errorf("internal error leaked to client: %s", body)
	}
}

func TestDeleteUserReturnsCascadeCounts(t *testing.T) {
	integrity := &fakeIntegrity{
		deleteUser: func(_ context.Context, id int64) (services.UserCascadeResult, error) {
			return services.UserCascadeResult{
				DeletedUser:       core.User{ID: id, Username: "alice"},
				RemovedCategories: 2,
				RemovedExpenses:   9,
			}, nil
		},
	}
	s := newTestServer(nil, integrity, nil, nil)

	rec := doRequest(t, s, http.MethodDelete, "/api/users/5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"removed_categories":2`) || !strings.Contains(body, `"removed_expenses":9`) {
		t.Errorf("body missing cascade counts: %s", body)
	}
}

func TestReportHighestEmptyIsNull(t *testing.T) {
	reports := &fakeReports{
		highest: func(_ context.Context, _ core.FilterParams) (*core.Expense, error) {
			return nil, nil
		},
	}
	s := newTestServer(nil, nil, reports, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/reports/highest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success || resp.Data != nil {
		t.Errorf("response = %+v, want success with null data", resp)
	}
}

func TestReportFilterParamsReachService(t *testing.T) {
	var got core.FilterParams
	reports := &fakeReports{
		total: func(_ context.Context, p core.FilterParams) (core.TotalReport, error) {
			got = p
			return core.TotalReport{}, nil
		},
	}
	s := newTestServer(nil, nil, reports, nil)

	rec := doRequest(t, s, http.MethodGet,
		"/api/reports/total?start_date=2024-01-02&end_date=2024-01-31&search=milk&category_id=3&user_id=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.StartDate != "2024-01-02" || got.EndDate != "2024-01-31" {
		t.Errorf("dates = (%q, %q)", got.StartDate, got.EndDate)
	}
	if got.Search != "milk" || got.CategoryID != 3 || got.UserID != 5 {
		t.Errorf("params = %+v", got)
	}
}

func TestReportInvalidDateRejected(t *testing.T) {
	reports := &fakeReports{
		total: func(_ context.Context, p core.FilterParams) (core.TotalReport, error) {
			f, err := core.BuildFilter(p)
			if err != nil {
				return core.TotalReport{}, err
			}
			_ = f
			return core.TotalReport{}, nil
		},
	}
	s := newTestServer(nil, nil, reports, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/reports/total?start_date=02-01-2024", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestReportInvalidCategoryIDRejected(t *testing.T) {
	s := newTestServer(nil, nil, &fakeReports{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/reports/total?category_id=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateExpenseParsesAmountAndDate(t *testing.T) {
	var got core.Expense
	ledger := &fakeLedger{
		createExpense: func(_ context.Context, e core.Expense) (core.Expense, error) {
			got = e
			e.ID = 1
			return e, nil
		},
	}
	s := newTestServer(ledger, nil, nil, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/expenses",
		`{"name":"coffee","amount":3.50,"category_id":2,"spent_at":"2024-03-15"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if got.Amount.Cents != 350 {
		t.Errorf("amount = %d cents, want 350", got.Amount.Cents)
	}
	if got.SpentAt.Format("2006-01-02") != "2024-03-15" {
		t.Errorf("spent_at = %v, want 2024-03-15", got.SpentAt)
	}
}

func TestCreateExpenseRejectsBadAmount(t *testing.T) {
	s := newTestServer(&fakeLedger{}, nil, nil, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/expenses",
		`{"name":"coffee","amount":-3.50,"category_id":2}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	users := &fakeUsers{
		authenticate: func(_ context.Context, _, _ string) (core.User, error) {
			return core.User{}, errors.New("invalid credentials")
		},
	}
	s := newTestServer(nil, nil, nil, users)

	rec := doRequest(t, s, http.MethodPost, "/api/login", `{"username":"alice","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	ledger := &fakeLedger{
		listCategories: func(_ context.Context) ([]core.Category, error) { return nil, nil },
	}
	s := newTestServer(ledger, nil, nil, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/categories", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestRateLimitMutatingRequests(t *testing.T) {
	ledger := &fakeLedger{
		createCategory: func(_ context.Context, c core.Category) (core.Category, error) {
			return c, nil
		},
		listCategories: func(_ context.Context) ([]core.Category, error) { return nil, nil },
	}
	s := NewServer(":0", ledger, nil, nil, nil, nil, 2, quietLogger())
	defer s.rateLimiter.stop()

	for i := 0; i < 2; i++ {
		rec := doRequest(t, s, http.MethodPost, "/api/categories", `{"name":"groceries"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d, want 201", i+1, rec.Code)
		}
	}

	rec := doRequest(t, s, http.MethodPost, "/api/categories", `{"name":"groceries"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}

	// Reads are not rate limited.
	rec = doRequest(t, s, http.MethodGet, "/api/categories", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET after limit: status = %d, want 200", rec.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(nil, nil, nil, nil)

	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", rec.Code)
	}
}

func TestReadyReportsStorageFailure(t *testing.T) {
	s := NewServer(":0", nil, nil, nil, nil, &fakePinger{err: errors.New("closed")}, 60, quietLogger())
	defer s.rateLimiter.stop()

	rec := doRequest(t, s, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d, want 503", rec.Code)
	}
}

package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"moneybook/internal/auth"
	applog "moneybook/internal/log"
	"moneybook/internal/services"
	"moneybook/internal/store/memory"
)

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, ratePerMinute int) *Server {
	t.Helper()
	mem := memory.New()
	issuer := auth.NewIssuer("0123456789abcdef", time.Hour)
	analysis := services.NewAnalysisService(mem, nil)
	srv := NewServer(":0", Deps{
		Store:              mem,
		Users:              services.NewUserService(mem, issuer),
		Transactions:       services.NewTransactionService(mem, nil, analysis),
		Analysis:           analysis,
		Goals:              services.NewGoalService(mem),
		Issuer:             issuer,
		Logger:             applog.New(applog.Config{Output: io.Discard}),
		RateLimitPerMinute: ratePerMinute,
	})
	srv.now = func() time.Time { return testNow }
	t.Cleanup(srv.rateLimiter.Stop)
	return srv
}

func do(srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

// signup registers a user and returns a bearer token for it.
func signup(t *testing.T, srv *Server, name string) string {
	t.Helper()
	body := `{"username":"` + name + `","email":"` + name + `@example.com","password":"secret123"}`
	if rr := do(srv, http.MethodPost, "/users/register", "", body); rr.Code != http.StatusCreated {
		t.Fatalf("register %s status=%d body=%s", name, rr.Code, rr.Body.String())
	}
	rr := do(srv, http.MethodPost, "/users/login", "", `{"email":"`+name+`@example.com","password":"secret123"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s status=%d body=%s", name, rr.Code, rr.Body.String())
	}
	token, _ := decode(t, rr)["token"].(string)
	if token == "" {
		t.Fatalf("login returned no token")
	}
	return token
}

func TestPublicRoutes(t *testing.T) {
	srv := newTestServer(t, 100)
	for _, path := range []string{"/", "/api/health", "/healthz", "/readyz", "/metrics"} {
		rr := do(srv, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s missing request id header", path)
		}
	}

	rr := do(srv, http.MethodGet, "/users/profile", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
	if decode(t, rr)["error"] == "" {
		t.Fatalf("expected error body")
	}
	if rr := do(srv, http.MethodGet, "/income", "not-a-token", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rr.Code)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t, 100)
	token := signup(t, srv, "alice")

	cases := []struct {
		path, body string
		want       int
	}{
		{"/users/register", `{"username":"alice","email":"ALICE@example.com","password":"secret123"}`, http.StatusConflict},
		{"/users/register", `{"username":"bob","email":"not-an-email","password":"secret123"}`, http.StatusUnprocessableEntity},
		{"/users/register", `{"username":"bob","email":"bob@example.com","password":"123"}`, http.StatusUnprocessableEntity},
		{"/users/register", `{"username":`, http.StatusBadRequest},
		{"/users/login", `{"email":"alice@example.com","password":"wrong-password"}`, http.StatusUnauthorized},
		{"/users/login", `{"email":"nobody@example.com","password":"secret123"}`, http.StatusUnauthorized},
	}
	for i, c := range cases {
		if rr := do(srv, http.MethodPost, c.path, "", c.body); rr.Code != c.want {
			t.Fatalf("case %d expected %d, got %d (%s)", i, c.want, rr.Code, rr.Body.String())
		}
	}

	rr := do(srv, http.MethodGet, "/users/profile", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("profile status=%d", rr.Code)
	}
	profile := decode(t, rr)
	if profile["email"] != "alice@example.com" {
		t.Fatalf("unexpected profile %v", profile)
	}
	prefs := profile["preferences"].(map[string]any)
	if prefs["currency"] != "USD" || prefs["locale"] != "en" || prefs["theme"] != "light" {
		t.Fatalf("unexpected default preferences %v", prefs)
	}
}

func TestPreferences(t *testing.T) {
	srv := newTestServer(t, 100)
	token := signup(t, srv, "carol")

	rr := do(srv, http.MethodPut, "/users/preferences", token, `{"currency":"eur","theme":"dark"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	got := decode(t, do(srv, http.MethodGet, "/users/preferences", token, ""))
	if got["currency"] != "EUR" || got["theme"] != "dark" || got["locale"] != "en" {
		t.Fatalf("unexpected preferences %v", got)
	}

	for i, body := range []string{`{"locale":"fr"}`, `{"currency":"BTC"}`, `{"theme":"blue"}`} {
		if rr := do(srv, http.MethodPut, "/users/preferences", token, body); rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("case %d expected 422, got %d", i, rr.Code)
		}
	}
}

func TestTransactionsAndAnalysis(t *testing.T) {
	srv := newTestServer(t, 100)
	token := signup(t, srv, "dave")

	rr := do(srv, http.MethodPost, "/expenses", token, `{"amount":"12,50","category":"food","date":"2025-03-02","description":"lunch"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create expense status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode(t, rr)
	if created["category"] != "Food" || created["amount"] != 12.5 || created["kind"] != "expense" || created["date"] != "2025-03-02" {
		t.Fatalf("unexpected transaction %v", created)
	}
	if rr := do(srv, http.MethodPost, "/income", token, `{"amount":1000,"category":"salary","date":"2025-03-01"}`); rr.Code != http.StatusCreated {
		t.Fatalf("create income status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := do(srv, http.MethodPost, "/expenses", token, `{"amount":37.5,"category":"Transportation","date":"2025-02-27"}`); rr.Code != http.StatusCreated {
		t.Fatalf("create february expense status=%d", rr.Code)
	}

	invalid := []struct {
		body string
		want int
	}{
		{`{"amount":-5,"category":"food"}`, http.StatusUnprocessableEntity},
		{`{"amount":0,"category":"food"}`, http.StatusUnprocessableEntity},
		{`{"category":"food"}`, http.StatusUnprocessableEntity},
		{`{"amount":5,"category":"  "}`, http.StatusUnprocessableEntity},
		{`{"amount":5,"category":"food","date":"2025-02-30"}`, http.StatusUnprocessableEntity},
		{`{"amount":"abc","category":"food"}`, http.StatusUnprocessableEntity},
		{`not json`, http.StatusBadRequest},
	}
	for i, c := range invalid {
		if rr := do(srv, http.MethodPost, "/expenses", token, c.body); rr.Code != c.want {
			t.Fatalf("case %d expected %d, got %d (%s)", i, c.want, rr.Code, rr.Body.String())
		}
	}

	lists := []struct {
		path  string
		want  int
		count float64
	}{
		{"/expenses", http.StatusOK, 2},
		{"/expenses?year=2025&month=3", http.StatusOK, 1},
		{"/expenses?year=2025", http.StatusOK, 2},
		{"/income?month=3", http.StatusOK, 1},
		{"/expenses?month=13", http.StatusUnprocessableEntity, 0},
		{"/expenses?year=abc", http.StatusBadRequest, 0},
	}
	for i, c := range lists {
		rr := do(srv, http.MethodGet, c.path, token, "")
		if rr.Code != c.want {
			t.Fatalf("case %d expected %d, got %d", i, c.want, rr.Code)
		}
		if c.want == http.StatusOK && decode(t, rr)["count"] != c.count {
			t.Fatalf("case %d expected count %v, got %v", i, c.count, decode(t, rr)["count"])
		}
	}

	rr = do(srv, http.MethodGet, "/budget/analysis?year=2025&month=3", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("analysis status=%d body=%s", rr.Code, rr.Body.String())
	}
	analysis := decode(t, rr)
	summary := analysis["summary"].(map[string]any)
	if summary["total_income"] != 1000.0 || summary["total_expense"] != 12.5 || summary["balance"] != 987.5 || summary["savings_rate"] != 98.75 {
		t.Fatalf("unexpected summary %v", summary)
	}
	if display := summary["display"].(map[string]any); display["balance"] != "$987.50" {
		t.Fatalf("unexpected display %v", display)
	}
	categories := analysis["categories"].([]any)
	if len(categories) != 1 || categories[0].(map[string]any)["category"] != "Food" || categories[0].(map[string]any)["percentage"] != 100.0 {
		t.Fatalf("unexpected categories %v", categories)
	}

	eur := decode(t, do(srv, http.MethodGet, "/budget/analysis?year=2025&month=3&currency=EUR", token, ""))
	if d := eur["summary"].(map[string]any)["display"].(map[string]any)["total_income"]; d != "€930.00" {
		t.Fatalf("unexpected EUR display %v", d)
	}
	zh := decode(t, do(srv, http.MethodGet, "/budget/analysis?year=2025&month=3&locale=zh", token, ""))
	if label := zh["categories"].([]any)[0].(map[string]any)["label"]; label == "Food" {
		t.Fatalf("expected localized label, got %v", label)
	}
	if rr := do(srv, http.MethodGet, "/budget/analysis?currency=XYZ", token, ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown currency, got %d", rr.Code)
	}
	if metrics := do(srv, http.MethodGet, "/metrics", "", "").Body.String(); !strings.Contains(metrics, "analysis_cache_hits_total 2\n") {
		t.Fatalf("expected two cached analyses in metrics, got:\n%s", metrics)
	}

	stats := decode(t, do(srv, http.MethodGet, "/statistics?kind=income&year=2025&month=3", token, ""))
	if stats["kind"] != "income" || stats["total"] != 1000.0 {
		t.Fatalf("unexpected statistics %v", stats)
	}
	feb := decode(t, do(srv, http.MethodGet, "/statistics?year=2025&month=2", token, ""))
	if cats := feb["categories"].([]any); len(cats) != 1 || cats[0].(map[string]any)["category"] != "Transport" {
		t.Fatalf("unexpected february statistics %v", feb)
	}
	if rr := do(srv, http.MethodGet, "/statistics?kind=savings", token, ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown kind, got %d", rr.Code)
	}

	// Another user sees nothing.
	other := signup(t, srv, "erin")
	if got := decode(t, do(srv, http.MethodGet, "/expenses", other, ""))["count"]; got != 0.0 {
		t.Fatalf("expected isolated lists, got %v", got)
	}
}

func TestImport(t *testing.T) {
	srv := newTestServer(t, 100)
	token := signup(t, srv, "frank")

	body := `{"transactions":[
		{"external_id":"b1","date":"2025-03-03","amount":20,"category":"Transportation","kind":"expense"},
		{"external_id":"b2","date":"2025-03-04","amount":"150.25","category":"bonus","kind":"income"}
	]}`
	rr := do(srv, http.MethodPost, "/api/import", token, body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("import status=%d body=%s", rr.Code, rr.Body.String())
	}
	summary := decode(t, rr)
	if summary["income"] != 1.0 || summary["expense"] != 1.0 || summary["income_total"] != 150.25 || summary["batch_id"] == "" {
		t.Fatalf("unexpected summary %v", summary)
	}

	invalid := []string{
		`{"transactions":[{"date":"2025-03-03","amount":20,"category":"Food","kind":"gift"}]}`,
		`{"transactions":[{"amount":20,"category":"Food","kind":"expense"}]}`,
		`{"transactions":[{"date":"2025-03-03","amount":20,"category":"Food","kind":"expense"},{"date":"2025-03-03","category":"Food","kind":"expense"}]}`,
	}
	for i, b := range invalid {
		if rr := do(srv, http.MethodPost, "/api/import", token, b); rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("case %d expected 422, got %d (%s)", i, rr.Code, rr.Body.String())
		}
	}
	// All-or-nothing: the partially valid batch above stored nothing.
	if got := decode(t, do(srv, http.MethodGet, "/expenses", token, ""))["count"]; got != 1.0 {
		t.Fatalf("expected one stored expense, got %v", got)
	}

	rr = do(srv, http.MethodPost, "/api/import/alipay", token, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("alipay import status=%d body=%s", rr.Code, rr.Body.String())
	}
	if s := decode(t, rr); s["income"] != 1.0 || s["expense"] != 3.0 {
		t.Fatalf("unexpected alipay summary %v", s)
	}
	if rr := do(srv, http.MethodPost, "/api/import/paypal", token, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown source, got %d", rr.Code)
	}
	if rr := do(srv, http.MethodPost, "/api/import/wechat?from=yesterday", token, ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad range, got %d", rr.Code)
	}
}

func TestGoals(t *testing.T) {
	srv := newTestServer(t, 100)
	token := signup(t, srv, "grace")

	rr := do(srv, http.MethodPost, "/goals", token, `{"name":"Bike","target_amount":1000,"current_amount":250,"deadline":"2025-12-31"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create goal status=%d body=%s", rr.Code, rr.Body.String())
	}
	goal := decode(t, rr)
	if goal["progress"] != 25.0 || goal["remaining"] != 750.0 || goal["status"] != "active" {
		t.Fatalf("unexpected goal %v", goal)
	}
	path := "/goals/" + jsonID(goal)

	rr = do(srv, http.MethodPut, path, token, `{"current_amount":1000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	updated := decode(t, rr)
	if updated["status"] != "completed" || updated["name"] != "Bike" || updated["deadline"] != "2025-12-31" {
		t.Fatalf("unexpected updated goal %v", updated)
	}

	list := decode(t, do(srv, http.MethodGet, "/goals", token, ""))
	if list["count"] != 1.0 {
		t.Fatalf("unexpected goal list %v", list)
	}

	intruder := signup(t, srv, "heidi")
	checks := []struct {
		method, path, token, body string
		want                      int
	}{
		{http.MethodGet, path, intruder, "", http.StatusForbidden},
		{http.MethodPut, path, intruder, `{"name":"Mine"}`, http.StatusForbidden},
		{http.MethodDelete, path, intruder, "", http.StatusForbidden},
		{http.MethodGet, "/goals/abc", token, "", http.StatusBadRequest},
		{http.MethodGet, "/goals/999", token, "", http.StatusNotFound},
		{http.MethodPost, "/goals", token, `{"name":"","target_amount":10}`, http.StatusUnprocessableEntity},
		{http.MethodPost, "/goals", token, `{"name":"Car"}`, http.StatusUnprocessableEntity},
		{http.MethodDelete, path, token, "", http.StatusNoContent},
		{http.MethodGet, path, token, "", http.StatusNotFound},
	}
	for i, c := range checks {
		if rr := do(srv, c.method, c.path, c.token, c.body); rr.Code != c.want {
			t.Fatalf("case %d expected %d, got %d (%s)", i, c.want, rr.Code, rr.Body.String())
		}
	}
}

func jsonID(m map[string]any) string {
	b, _ := json.Marshal(m["id"])
	return string(b)
}

func TestAdviceAndSuggestions(t *testing.T) {
	srv := newTestServer(t, 100)
	token := signup(t, srv, "ivan")
	do(srv, http.MethodPost, "/income", token, `{"amount":3000,"category":"Salary","date":"2025-03-01"}`)
	do(srv, http.MethodPost, "/expenses", token, `{"amount":200,"category":"Food","date":"2025-03-05"}`)

	rr := do(srv, http.MethodPost, "/ai/advice", token, `{"question":"How can I save more money?","locale":"es"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("advice status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Language") != "es" {
		t.Fatalf("expected es content language, got %q", rr.Header().Get("Content-Language"))
	}
	advice := decode(t, rr)
	if advice["answer"] == "" || len(advice["suggestions"].([]any)) != 10 {
		t.Fatalf("unexpected advice %v", advice)
	}
	if !strings.Contains(advice["summary"].(string), "$3000.00") {
		t.Fatalf("expected income in summary, got %q", advice["summary"])
	}

	req := httptest.NewRequest(http.MethodGet, "/ai/suggestions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	got := decode(t, rr)
	if got["locale"] != "zh" || len(got["questions"].([]any)) != 4 {
		t.Fatalf("unexpected suggestions %v", got)
	}

	if got := decode(t, do(srv, http.MethodGet, "/ai/suggestions?locale=de", token, "")); got["locale"] != "en" {
		t.Fatalf("expected english fallback, got %v", got["locale"])
	}
}

func TestRateLimitAppliesToMutatingRequests(t *testing.T) {
	srv := newTestServer(t, 1)
	body := `{"email":"x@example.com","password":"secret123"}`
	if rr := do(srv, http.MethodPost, "/users/login", "", body); rr.Code != http.StatusUnauthorized {
		t.Fatalf("first request expected 401, got %d", rr.Code)
	}
	rr := do(srv, http.MethodPost, "/users/login", "", body)
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected 429 with Retry-After, got %d %q", rr.Code, rr.Header().Get("Retry-After"))
	}
	for i := 0; i < 3; i++ {
		if rr := do(srv, http.MethodGet, "/healthz", "", ""); rr.Code != http.StatusOK {
			t.Fatalf("GET %d should not be limited, got %d", i, rr.Code)
		}
	}
	if srv.rateLimiter.GetMetrics().TotalHits != 1 {
		t.Fatalf("expected one rate limit hit")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	srv := newTestServer(t, 10)
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}

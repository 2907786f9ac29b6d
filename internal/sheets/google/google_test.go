package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"moneybook/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets serves the two Values endpoints the exporter uses.
type fakeSheets struct {
	mu      sync.Mutex
	rows    [][]any
	reads   []string
	updates []update
}

type update struct {
	path   string
	option string
	values [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		f.reads = append(f.reads, r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.rows})
	case http.MethodPut:
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.updates = append(f.updates, update{
			path:   r.URL.Path,
			option: r.URL.Query().Get("valueInputOption"),
			values: vr.Values,
		})
		_, _ = w.Write([]byte(`{}`))
	default:
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	c, err := NewWithService(svc, "sheet-id", "Reports")
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func sampleReport() core.Report {
	return core.Report{
		UserID: 7,
		Year:   2025,
		Month:  3,
		Summary: core.PeriodSummary{
			TotalIncome:  core.Money{Cents: 300000},
			TotalExpense: core.Money{Cents: 20000},
			Balance:      core.Money{Cents: 280000},
			SavingsRate:  93.33,
		},
		TopExpenseCategory: "Food",
		GeneratedAt:        time.Date(2025, 4, 1, 6, 0, 0, 0, time.UTC),
	}
}

func TestExportReportWritesHeaderOnEmptySheet(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	ref, err := c.ExportReport(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ref != "2025 Reports!A2:I2" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if len(fake.reads) != 1 || !strings.HasSuffix(fake.reads[0], "/values/2025 Reports!A:C") {
		t.Fatalf("unexpected reads %v", fake.reads)
	}
	if len(fake.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(fake.updates))
	}
	u := fake.updates[0]
	if !strings.HasSuffix(u.path, "/values/2025 Reports!A1:I2") || u.option != "USER_ENTERED" {
		t.Fatalf("unexpected update %+v", u)
	}
	if len(u.values) != 2 || u.values[0][0] != "User" || u.values[1][7] != "Food" {
		t.Fatalf("unexpected values %v", u.values)
	}
}

func TestExportReportOverwritesExistingRow(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{
		{"User", "Year", "Month"},
		{"3", "2025", "3"},
		{"7", "2025", "3"},
		{"7", "2025", "4"},
	}}
	c := newTestClient(t, fake)

	ref, err := c.ExportReport(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ref != "2025 Reports!A3:I3" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if len(fake.updates[0].values) != 1 {
		t.Fatalf("expected a single row, got %v", fake.updates[0].values)
	}
}

func TestExportReportAppendsNewRow(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{
		{"User", "Year", "Month"},
		{"3", "2025", "3"},
	}}
	c := newTestClient(t, fake)

	ref, err := c.ExportReport(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if ref != "2025 Reports!A3:I3" {
		t.Fatalf("unexpected ref %q", ref)
	}
}

func TestExportReportRejectsInvalidMonth(t *testing.T) {
	c := newTestClient(t, &fakeSheets{})
	r := sampleReport()
	r.Month = 13
	if _, err := c.ExportReport(context.Background(), r); err == nil {
		t.Fatalf("expected error for month 13")
	}

	var nilSvc Client
	if _, err := nilSvc.ExportReport(context.Background(), sampleReport()); err == nil {
		t.Fatalf("expected error without service")
	}
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	if _, err := NewWithService(nil, " ", "Reports"); err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error %v", err)
	}
	c, err := NewWithService(nil, "id", "")
	if err != nil || c.sheetBase != "Reports" {
		t.Fatalf("expected default sheet name, got %+v %v", c, err)
	}

	_, err = New(context.Background(), Config{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error %v", err)
	}
	_, err = New(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: "/non/existent/sa.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestFindReportRow(t *testing.T) {
	values := [][]any{
		{"User", "Year", "Month"},
		{"7", "2025"},
		{float64(7), float64(2025), float64(3)},
	}
	cases := []struct {
		user        int64
		year, month int
		want        int
	}{
		{7, 2025, 3, 3},
		{7, 2025, 4, 0},
		{8, 2025, 3, 0},
	}
	for i, tc := range cases {
		if got := findReportRow(values, tc.user, tc.year, tc.month); got != tc.want {
			t.Fatalf("case %d expected %d, got %d", i, tc.want, got)
		}
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		baseName string
		year     int
		expected string
	}{
		{"Reports", 2025, "2025 Reports"},
		{"", 2023, ""},
		{"Monthly Reports", 2022, "2022 Monthly Reports"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"},
	}

	for _, tt := range tests {
		got := yearPrefixedName(tt.baseName, tt.year)
		if got != tt.expected {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q",
				tt.baseName, tt.year, got, tt.expected)
		}
	}
}

package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-03-20", "2025-03-20", true},
		{" 2025-03-20 ", "2025-03-20", true},
		{"2025-03-20T10:11:12Z", "2025-03-20", true},
		{"2025-13-01", "", false},
		{"20/03/2025", "", false},
		{"", "", false},
	}
	for i, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || d.String() != tc.want {
				t.Fatalf("case %d expected %s, got %s (err=%v)", i, tc.want, d, err)
			}
		} else if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("case %d expected ErrInvalidDate, got %v", i, err)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{NewDate(2025, 3, 5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"d":"2025-03-05"}` {
		t.Fatalf("unexpected json %s", b)
	}
	var out struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2025-04-30"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.D.Equal(NewDate(2025, 4, 30).Time) {
		t.Fatalf("unexpected date %v", out.D)
	}
	if err := json.Unmarshal([]byte(`{"d":"yesterday"}`), &out); err == nil {
		t.Fatalf("expected error for bad date")
	}
}

func TestMonthPeriod(t *testing.T) {
	cases := []struct {
		year, month int
		start, end  string
	}{
		{2025, 1, "2025-01-01", "2025-01-31"},
		{2024, 2, "2024-02-01", "2024-02-29"},
		{2025, 2, "2025-02-01", "2025-02-28"},
		{2025, 12, "2025-12-01", "2025-12-31"},
	}
	for i, tc := range cases {
		p := MonthPeriod(tc.year, tc.month)
		if p.Start.String() != tc.start || p.End.String() != tc.end {
			t.Fatalf("case %d expected %s..%s, got %s..%s", i, tc.start, tc.end, p.Start, p.End)
		}
		if err := p.Validate(); err != nil {
			t.Fatalf("case %d expected valid period, got %v", i, err)
		}
	}

	prev := MonthPeriod(2025, 1).Previous()
	if prev.Start.String() != "2024-12-01" || prev.End.String() != "2024-12-31" {
		t.Fatalf("unexpected previous period %s..%s", prev.Start, prev.End)
	}
}

func TestPeriodContainsAndValidate(t *testing.T) {
	p := MonthPeriod(2025, 3)
	if !p.Contains(NewDate(2025, 3, 1)) || !p.Contains(NewDate(2025, 3, 31)) {
		t.Fatalf("bounds must be inclusive")
	}
	if p.Contains(NewDate(2025, 4, 1)) || p.Contains(NewDate(2025, 2, 28)) {
		t.Fatalf("dates outside the month must not match")
	}
	bad := Period{Start: NewDate(2025, 3, 2), End: NewDate(2025, 3, 1)}
	if !errors.Is(bad.Validate(), ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod for inverted period")
	}
	if !errors.Is((Period{}).Validate(), ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod for zero period")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Kind:        Expense,
		Date:        NewDate(2025, 1, 1),
		Description: "ok",
		Amount:      Money{Cents: 100},
		Category:    "Food",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	chinese := good
	chinese.Description = strings.Repeat("餐", MaxDescriptionLength)
	if err := chinese.Validate(); err != nil {
		t.Fatalf("expected %d CJK characters to fit, got %v", MaxDescriptionLength, err)
	}
	noDesc := good
	noDesc.Description = ""
	if err := noDesc.Validate(); err != nil {
		t.Fatalf("description is optional, got %v", err)
	}

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}
	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Kind: "transfer", Date: NewDate(2025, 1, 1), Amount: Money{Cents: 1}, Category: "c"}, ErrInvalidKind},
		{Transaction{Kind: Income, Amount: Money{Cents: 1}, Category: "c"}, ErrInvalidDate},
		{Transaction{Kind: Income, Date: NewDate(2025, 1, 1), Amount: Money{Cents: 0}, Category: "c"}, ErrInvalidAmount},
		{Transaction{Kind: Income, Date: NewDate(2025, 1, 1), Amount: Money{Cents: 1}, Category: "  "}, ErrEmptyCategory},
		{Transaction{Kind: Income, Date: NewDate(2025, 1, 1), Amount: Money{Cents: 1}, Category: "c", Description: string(long)}, ErrDescriptionTooLong},
		{Transaction{Kind: Income, Date: NewDate(2025, 1, 1), Amount: Money{Cents: 1}, Category: "c", Description: strings.Repeat("餐", MaxDescriptionLength+1)}, ErrDescriptionTooLong},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, in := range []string{"income", "Incomes", " INCOME "} {
		if k, err := ParseKind(in); err != nil || k != Income {
			t.Fatalf("%q expected income, got %q (err=%v)", in, k, err)
		}
	}
	for _, in := range []string{"expense", "expenses"} {
		if k, err := ParseKind(in); err != nil || k != Expense {
			t.Fatalf("%q expected expense, got %q (err=%v)", in, k, err)
		}
	}
	if _, err := ParseKind("transfer"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestSplitByKind(t *testing.T) {
	txs := []Transaction{
		{ID: 1, Kind: Income},
		{ID: 2, Kind: Expense},
		{ID: 3, Kind: Income},
		{ID: 4, Kind: "bogus"},
	}
	inc, exp := SplitByKind(txs)
	if len(inc) != 2 || inc[0].ID != 1 || inc[1].ID != 3 {
		t.Fatalf("unexpected income split %+v", inc)
	}
	if len(exp) != 1 || exp[0].ID != 2 {
		t.Fatalf("unexpected expense split %+v", exp)
	}
}

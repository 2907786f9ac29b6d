package notify

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/jordan-wright/email"

	"moneybook/internal/core"
	applog "moneybook/internal/log"
)

type captured struct {
	mail *email.Email
	addr string
	auth smtp.Auth
}

func newTestMailer(cfg Config, err error) (*Mailer, *[]captured, *bytes.Buffer) {
	var buf bytes.Buffer
	m := NewMailer(cfg, applog.New(applog.Config{Output: &buf}))
	var sent []captured
	m.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		sent = append(sent, captured{mail: e, addr: addr, auth: auth})
		return err
	}
	return m, &sent, &buf
}

func sampleUser() core.User {
	return core.User{
		ID:       7,
		Username: "ada",
		Email:    "ada@example.com",
		Preferences: core.Preferences{
			Currency: core.EUR,
			Locale:   core.Spanish,
			Theme:    core.ThemeLight,
		},
	}
}

func sampleReport() core.Report {
	return core.Report{
		UserID: 7,
		Year:   2025,
		Month:  3,
		Summary: core.PeriodSummary{
			TotalIncome:  core.Money{Cents: 10000},
			TotalExpense: core.Money{Cents: 5000},
			Balance:      core.Money{Cents: 5000},
			SavingsRate:  50,
		},
		TopExpenseCategory: "Food",
	}
}

func TestNotifyReport(t *testing.T) {
	cfg := Config{Host: "smtp.example.com", Port: "587", Username: "u", Password: "p", From: "reports@example.com"}
	m, sent, logs := newTestMailer(cfg, nil)

	if err := m.NotifyReport(context.Background(), sampleUser(), sampleReport()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("expected one e-mail, got %d", len(*sent))
	}
	c := (*sent)[0]
	if c.addr != "smtp.example.com:587" || c.auth == nil {
		t.Fatalf("unexpected transport %q %v", c.addr, c.auth)
	}
	if c.mail.From != "reports@example.com" || c.mail.To[0] != "ada@example.com" {
		t.Fatalf("unexpected envelope %+v", c.mail)
	}
	if c.mail.Subject != "Your March 2025 money report" {
		t.Fatalf("unexpected subject %q", c.mail.Subject)
	}
	body := string(c.mail.Text)
	for _, want := range []string{"Dear ada", "€93.00", "€46.50", "50.0%", "Comida"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
	if !strings.Contains(logs.String(), "component=notify") {
		t.Fatalf("expected notify log, got %q", logs.String())
	}
}

func TestNotifyReportWithoutAuth(t *testing.T) {
	m, sent, _ := newTestMailer(Config{Host: "localhost", Port: "25", From: "r@example.com"}, nil)
	if err := m.NotifyReport(context.Background(), sampleUser(), sampleReport()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if (*sent)[0].auth != nil {
		t.Fatalf("expected no auth without username")
	}
}

func TestNotifyReportErrors(t *testing.T) {
	boom := errors.New("connection refused")
	m, _, _ := newTestMailer(Config{Host: "localhost", Port: "25"}, boom)
	if err := m.NotifyReport(context.Background(), sampleUser(), sampleReport()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}

	u := sampleUser()
	u.Email = ""
	if err := m.NotifyReport(context.Background(), u, sampleReport()); err == nil {
		t.Fatalf("expected error for missing address")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.NotifyReport(ctx, sampleUser(), sampleReport()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestReportBodyFallsBackToCanonicalCurrency(t *testing.T) {
	u := sampleUser()
	u.Preferences.Currency = ""
	r := sampleReport()
	r.TopExpenseCategory = ""
	body := reportBody(u, r)
	if !strings.Contains(body, "$100.00") || strings.Contains(body, "Top expense") {
		t.Fatalf("unexpected body:\n%s", body)
	}
}

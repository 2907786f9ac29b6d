// Package notify e-mails monthly reports over SMTP.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"

	"moneybook/internal/core"
	applog "moneybook/internal/log"
)

// Config holds the SMTP relay settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Mailer sends report e-mails
type Mailer struct {
	cfg    Config
	logger *applog.Logger
	send   sendFunc
}

// NewMailer creates a new report mailer
func NewMailer(cfg Config, logger *applog.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		logger: logger.WithComponent(applog.ComponentNotify),
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// NotifyReport e-mails r to user, with amounts in the user's display currency.
func (m *Mailer) NotifyReport(ctx context.Context, user core.User, r core.Report) error {
	if strings.TrimSpace(user.Email) == "" {
		return errors.New("user has no e-mail address")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = []string{user.Email}
	e.Subject = reportSubject(r)
	e.Text = []byte(reportBody(user, r))

	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(e, addr, auth); err != nil {
		m.logger.ErrorContext(ctx, "Failed to send report e-mail",
			applog.FieldUserID, user.ID, applog.FieldError, err)
		return fmt.Errorf("failed to send report e-mail: %w", err)
	}

	m.logger.InfoContext(ctx, "Report e-mail sent",
		applog.FieldUserID, user.ID, applog.FieldYear, r.Year, applog.FieldMonth, r.Month)
	return nil
}

func reportSubject(r core.Report) string {
	return fmt.Sprintf("Your %s %d money report", time.Month(r.Month), r.Year)
}

func reportBody(user core.User, r core.Report) string {
	currency := user.Preferences.Currency
	if !currency.Valid() {
		currency = core.CanonicalCurrency
	}
	s := r.Summary

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", user.Username)
	fmt.Fprintf(&b, "Here is your summary for %s %d.\n\n", time.Month(r.Month), r.Year)
	fmt.Fprintf(&b, "Total income:   %s\n", core.FormatCanonical(s.TotalIncome, currency))
	fmt.Fprintf(&b, "Total expenses: %s\n", core.FormatCanonical(s.TotalExpense, currency))
	fmt.Fprintf(&b, "Balance:        %s\n", core.FormatCanonical(s.Balance, currency))
	fmt.Fprintf(&b, "Saving rate:    %.1f%%\n", s.SavingsRate)
	if r.TopExpenseCategory != "" {
		fmt.Fprintf(&b, "Top expense:    %s\n",
			core.CategoryLabel(core.Expense, r.TopExpenseCategory, user.Preferences.Locale))
	}
	b.WriteString("\nBest regards,\nMoneybook")
	return b.String()
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"moneybook/internal/amqp"
	"moneybook/internal/core"
	applog "moneybook/internal/log"
	"moneybook/internal/sheets"
	"moneybook/internal/store"
)

type (
	// ReportBuilder recomputes a month from storage, bypassing any cache.
	ReportBuilder interface {
		MonthlyReport(ctx context.Context, userID int64, year, month int, at time.Time) (core.Report, error)
	}

	// ReportNotifier delivers a finished report to its owner.
	ReportNotifier interface {
		NotifyReport(ctx context.Context, user core.User, r core.Report) error
	}

	// Store is the slice of persistence the worker needs.
	Store interface {
		store.UserStore
		store.ReportStore
	}
)

// ReportWorker keeps monthly reports current from transaction events and
// rolls up closed months on a schedule.
type ReportWorker struct {
	reports  ReportBuilder
	store    Store
	exporter sheets.ReportExporter
	notifier ReportNotifier
	logger   *applog.Logger
	now      func() time.Time
}

// NewReportWorker wires the worker. exporter and notifier may be nil.
func NewReportWorker(reports ReportBuilder, s Store, exporter sheets.ReportExporter, notifier ReportNotifier, logger *applog.Logger) *ReportWorker {
	return &ReportWorker{
		reports:  reports,
		store:    s,
		exporter: exporter,
		notifier: notifier,
		logger:   logger.WithComponent(applog.ComponentWorker),
		now:      time.Now,
	}
}

// HandleEvent processes a single transaction.changed message from AMQP.
// A returned error makes the consumer requeue the message.
func (w *ReportWorker) HandleEvent(ctx context.Context, e *amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		applog.FieldUserID, e.UserID,
		applog.FieldYear, e.Year,
		applog.FieldMonth, e.Month,
		applog.FieldKind, e.Kind,
		applog.FieldCount, e.Count)

	user, err := w.store.GetUser(ctx, e.UserID)
	if errors.Is(err, store.ErrNotFound) {
		w.logger.WarnContext(ctx, "Dropping event for unknown user", applog.FieldUserID, e.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	r, err := w.generate(ctx, user, e.Year, e.Month)
	if err != nil {
		return err
	}
	w.export(ctx, r)
	return nil
}

// RollUp regenerates the month before at for every user, exports it and
// e-mails it. Per-user failures are logged and counted; the first one is
// returned once every user has been tried.
func (w *ReportWorker) RollUp(ctx context.Context, at time.Time) error {
	first := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	year, month := first.Year(), int(first.Month())

	users, err := w.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var firstErr error
	failed := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := w.generate(ctx, u, year, month)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to roll up report",
				applog.FieldUserID, u.ID, applog.FieldError, err)
			if firstErr == nil {
				firstErr = err
			}
			failed++
			continue
		}
		w.export(ctx, r)
		w.notify(ctx, u, r)
	}

	w.logger.InfoContext(ctx, "Monthly roll-up completed",
		applog.FieldYear, year,
		applog.FieldMonth, month,
		"users", len(users),
		"errors", failed)
	return firstErr
}

// Schedule runs RollUp on spec (standard cron syntax or a descriptor such
// as "@monthly") until ctx is done. The returned cron is already started.
func (w *ReportWorker) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := w.RollUp(ctx, w.now()); err != nil {
			w.logger.ErrorContext(ctx, "Scheduled roll-up failed", applog.FieldError, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", spec, err)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}

func (w *ReportWorker) generate(ctx context.Context, u core.User, year, month int) (core.Report, error) {
	r, err := w.reports.MonthlyReport(ctx, u.ID, year, month, w.now())
	if err != nil {
		return core.Report{}, fmt.Errorf("build report: %w", err)
	}
	if err := w.store.UpsertReport(ctx, r); err != nil {
		return core.Report{}, fmt.Errorf("save report: %w", err)
	}
	w.logger.InfoContext(ctx, "Report saved",
		applog.FieldUserID, u.ID,
		applog.FieldYear, year,
		applog.FieldMonth, month,
		"balance_cents", r.Summary.Balance.Cents)
	return r, nil
}

func (w *ReportWorker) export(ctx context.Context, r core.Report) {
	if w.exporter == nil {
		return
	}
	ref, err := w.exporter.ExportReport(ctx, r)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to export report",
			applog.FieldUserID, r.UserID, applog.FieldError, err)
		return
	}
	w.logger.DebugContext(ctx, "Report exported", applog.FieldUserID, r.UserID, "sheets_ref", ref)
}

func (w *ReportWorker) notify(ctx context.Context, u core.User, r core.Report) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.NotifyReport(ctx, u, r); err != nil {
		w.logger.ErrorContext(ctx, "Failed to e-mail report",
			applog.FieldUserID, u.ID, applog.FieldError, err)
	}
}

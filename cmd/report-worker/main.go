package main

import (
	"context"
	"os"
	"time"

	"moneybook/internal/amqp"
	"moneybook/internal/cli"
	"moneybook/internal/config"
	applog "moneybook/internal/log"
	"moneybook/internal/notify"
	"moneybook/internal/services"
	"moneybook/internal/sheets"
	gsheet "moneybook/internal/sheets/google"
	"moneybook/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting report-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	backend := cli.InitBackend(context.Background(), logger, cfg)
	st := backend.Store

	exporter := initExporter(logger, cfg)
	var notifier worker.ReportNotifier
	if cfg.SMTPEnabled() {
		notifier = notify.NewMailer(notify.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, logger)
		logger.Info("Report e-mails enabled", "smtp_host", cfg.SMTPHost)
	} else {
		logger.Info("Report e-mails disabled - no SMTP_HOST provided")
	}

	// Reports are rebuilt from storage, never from a cached analysis.
	reports := services.NewAnalysisService(st, nil)
	w := worker.NewReportWorker(reports, st, exporter, notifier, logger)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP disabled - only the scheduled roll-up will run")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", applog.FieldError, err)
			}
		}
		if backend.Cleanup != nil {
			if err := backend.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	if cfg.ReportSchedule != "" {
		if _, err := w.Schedule(ctx, cfg.ReportSchedule); err != nil {
			logger.Error("Failed to schedule monthly roll-up", applog.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Monthly roll-up scheduled", "schedule", cfg.ReportSchedule)
	} else {
		logger.Info("Monthly roll-up disabled - empty REPORT_SCHEDULE")
	}

	if amqpClient != nil {
		go func() {
			if err := amqpClient.ConsumeTransactionChanged(ctx, w.HandleEvent); err != nil && ctx.Err() == nil {
				logger.Error("Message consumption failed", applog.FieldError, err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Report worker stopped")
}

// initExporter returns nil when Google Sheets export is not configured.
func initExporter(logger *applog.Logger, cfg *config.Config) sheets.ReportExporter {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
		return nil
	}
	client, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client
}

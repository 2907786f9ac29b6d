package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"moneybook/internal/amqp"
	"moneybook/internal/auth"
	"moneybook/internal/cache"
	"moneybook/internal/cli"
	"moneybook/internal/core"
	apphttp "moneybook/internal/http"
	applog "moneybook/internal/log"
	"moneybook/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	backend := cli.InitBackend(context.Background(), logger, cfg)
	st := backend.Store

	cacheManager := cache.NewManager(logger)
	analysisCache := cache.NewLRUCache[core.Analysis](cfg.CacheSize, cfg.CacheTTL)
	cacheManager.Register(analysisCache)
	cacheManager.StartCleanup(cfg.CacheTTL)

	// Transaction events are optional; without AMQP the report worker only
	// runs its scheduled roll-up.
	var events services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		events = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	analysis := services.NewAnalysisService(st, analysisCache)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:              st,
		Users:              services.NewUserService(st, issuer),
		Transactions:       services.NewTransactionService(st, events, analysis),
		Analysis:           analysis,
		Goals:              services.NewGoalService(st),
		Issuer:             issuer,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cacheManager.Stop()
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

	logger.Info("Starting moneybook server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

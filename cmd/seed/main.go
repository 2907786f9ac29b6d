package main

import (
	"context"
	"flag"
	"os"

	"moneybook/internal/auth"
	"moneybook/internal/cli"
	applog "moneybook/internal/log"
	"moneybook/internal/seed"
	"moneybook/internal/services"
)

func main() {
	cli.LoadEnvFile()

	opts := seed.DefaultOptions()
	flag.IntVar(&opts.Users, "users", opts.Users, "number of users to create")
	flag.IntVar(&opts.Months, "months", opts.Months, "months of history per user")
	flag.IntVar(&opts.ExpensesPerMonth, "expenses", opts.ExpensesPerMonth, "expenses per user and month")
	flag.StringVar(&opts.Password, "password", opts.Password, "password shared by the generated users")
	flag.Int64Var(&opts.Seed, "seed", 0, "random seed, 0 for a random one")
	flag.Parse()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	backend := cli.InitBackend(ctx, logger, cfg)
	if backend.Cleanup != nil {
		defer func() {
			if err := backend.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", applog.FieldError, err)
			}
		}()
	}

	st := backend.Store
	users := services.NewUserService(st, auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL))
	transactions := services.NewTransactionService(st, nil, nil)

	res, err := seed.New(users, transactions, logger).Run(ctx, opts)
	if err != nil {
		logger.Error("Seeding failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Seeding complete",
		"users", len(res.Users),
		"transactions", res.Transactions,
		"backend", cfg.DataBackend)
}

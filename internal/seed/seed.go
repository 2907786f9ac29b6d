// Package seed fills a backend with fake users and transactions for local
// development and demos.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"moneybook/internal/core"
	applog "moneybook/internal/log"
	"moneybook/internal/services"
)

// Options controls how much data is generated.
type Options struct {
	Users int
	// Months of history per user, ending with the month of End.
	Months int
	// ExpensesPerMonth is the number of expense entries per user and month.
	ExpensesPerMonth int
	// Password is shared by every generated user so they can log in.
	Password string
	End      time.Time
	// Seed makes the output reproducible; zero picks a random seed.
	Seed int64
}

func DefaultOptions() Options {
	return Options{
		Users:            3,
		Months:           6,
		ExpensesPerMonth: 12,
		Password:         "moneybook",
		End:              time.Now().UTC(),
	}
}

// Result lists what was created.
type Result struct {
	Users        []core.User
	Transactions int
}

type Seeder struct {
	users        *services.UserService
	transactions *services.TransactionService
	logger       *applog.Logger
}

func New(users *services.UserService, transactions *services.TransactionService, logger *applog.Logger) *Seeder {
	return &Seeder{users: users, transactions: transactions, logger: logger.WithComponent(applog.ComponentApp)}
}

var locales = []string{string(core.English), string(core.Chinese), string(core.Spanish)}

var currencies = []string{"USD", "EUR", "GBP", "CNY", "JPY"}

// price draws an amount between lo and hi dollars, rounded to cents.
func price(f *gofakeit.Faker, lo, hi float64) core.Money {
	return core.Money{Cents: decimal.NewFromFloat(f.Price(lo, hi)).Shift(2).Round(0).IntPart()}
}

func day(f *gofakeit.Faker, year, month int, end time.Time) core.Date {
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if year == end.Year() && month == int(end.Month()) {
		last = end.Day()
	}
	return core.NewDate(year, month, f.Number(1, last))
}

// Run registers opts.Users users and records a salary, an occasional side
// income and opts.ExpensesPerMonth expenses for each of their months.
func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Users < 1 || opts.Months < 1 || opts.ExpensesPerMonth < 0 {
		return Result{}, fmt.Errorf("seed: invalid options %+v", opts)
	}
	if opts.End.IsZero() {
		opts.End = time.Now().UTC()
	}
	f := gofakeit.New(opts.Seed)

	expenseCategories := core.Categories(core.Expense)
	var res Result
	for i := 0; i < opts.Users; i++ {
		name := strings.ToLower(f.Username())
		u, err := s.users.Register(ctx, services.RegisterInput{
			Username: name,
			Email:    fmt.Sprintf("%s.%d@example.com", name, i+1),
			Password: opts.Password,
		})
		if err != nil {
			return res, fmt.Errorf("register user %d: %w", i+1, err)
		}
		currency := f.RandomString(currencies)
		locale := f.RandomString(locales)
		if _, err := s.users.UpdatePreferences(ctx, u.ID, services.PreferencesInput{Currency: &currency, Locale: &locale}); err != nil {
			return res, fmt.Errorf("set preferences for user %d: %w", u.ID, err)
		}
		res.Users = append(res.Users, u)

		first := time.Date(opts.End.Year(), opts.End.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(opts.Months - 1), 0)
		for m := 0; m < opts.Months; m++ {
			at := first.AddDate(0, m, 0)
			year, month := at.Year(), int(at.Month())

			inputs := []services.TransactionInput{{
				Kind:        core.Income,
				Amount:      price(f, 2500, 6000),
				Category:    "Salary",
				Date:        core.NewDate(year, month, 1),
				Description: f.Company() + " payroll",
			}}
			if f.Bool() {
				inputs = append(inputs, services.TransactionInput{
					Kind:        core.Income,
					Amount:      price(f, 100, 900),
					Category:    "Freelance",
					Date:        day(f, year, month, opts.End),
					Description: f.JobTitle(),
				})
			}
			for e := 0; e < opts.ExpensesPerMonth; e++ {
				inputs = append(inputs, services.TransactionInput{
					Kind:        core.Expense,
					Amount:      price(f, 3, 250),
					Category:    f.RandomString(expenseCategories),
					Date:        day(f, year, month, opts.End),
					Description: f.Sentence(4),
				})
			}

			for _, in := range inputs {
				if _, err := s.transactions.Create(ctx, u.ID, in); err != nil {
					return res, fmt.Errorf("create transaction for user %d: %w", u.ID, err)
				}
				res.Transactions++
			}
		}
		s.logger.InfoContext(ctx, "Seeded user",
			applog.FieldUserID, u.ID,
			"email", u.Email,
			applog.FieldCurrency, currency)
	}
	return res, nil
}

// Package storage implements the store ports on top of database/sql for
// SQLite (modernc.org/sqlite) and Postgres (pgx stdlib).
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"moneybook/internal/core"
	"moneybook/internal/store"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// Repository is the SQL backend shared by both dialects. Queries are written
// with ? placeholders and rebound for Postgres.
type Repository struct {
	db      *sql.DB
	dialect Dialect
}

var _ store.Store = (*Repository)(nil)

func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := sqliteDSN(dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return open(db, DialectSQLite, dsn)
}

func NewPostgresRepository(databaseURL string) (*Repository, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return open(db, DialectPostgres, databaseURL)
}

func open(db *sql.DB, dialect Dialect, dsn string) (*Repository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: dialect}, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func (r *Repository) Dialect() Dialect { return r.dialect }

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rebind turns ? placeholders into $n for Postgres.
func (r *Repository) rebind(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.rebind(query), args...)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, r.rebind(query), args...)
}

func (r *Repository) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.db.QueryRowContext(ctx, r.rebind(query), args...)
}

// isUniqueViolation recognises duplicate key errors from either driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// Transactions

const transactionColumns = `id, user_id, kind, amount_cents, category, date, description, notes, source, external_id, created_at`

func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Source == "" {
		t.Source = core.SourceManual
	}

	err := r.queryRow(ctx, `INSERT INTO transactions
		(user_id, kind, amount_cents, category, date, description, notes, source, external_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		t.UserID, string(t.Kind), t.Amount.Cents, t.Category, t.Date.String(),
		t.Description, t.Notes, string(t.Source), t.ExternalID, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved",
		"id", t.ID,
		"user_id", t.UserID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents)

	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID int64, kind core.Kind, period core.Period) ([]core.Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ? AND kind = ?`
	args := []any{userID, string(kind)}
	if !period.Start.IsZero() {
		q += ` AND date >= ? AND date <= ?`
		args = append(args, period.Start.String(), period.End.String())
	}
	q += ` ORDER BY date DESC, id DESC`

	rows, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			t             core.Transaction
			kindStr, src  string
			date, created dbTime
		)
		if err := rows.Scan(&t.ID, &t.UserID, &kindStr, &t.Amount.Cents, &t.Category, &date,
			&t.Description, &t.Notes, &src, &t.ExternalID, &created); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = core.Kind(kindStr)
		t.Source = core.Source(src)
		t.Date = date.date()
		t.CreatedAt = created.t
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Users

const userColumns = `id, username, email, password_hash, currency, locale, theme, created_at`

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	err := r.queryRow(ctx, `INSERT INTO users
		(username, email, password_hash, currency, locale, theme, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		u.Username, strings.ToLower(u.Email), u.PasswordHash,
		string(u.Preferences.Currency), string(u.Preferences.Locale), string(u.Preferences.Theme),
		u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("user %s: %w", u.Email, store.ErrConflict)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.Email = strings.ToLower(u.Email)
	return u, nil
}

func (r *Repository) scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var (
		u                       core.User
		currency, locale, theme string
		created                 dbTime
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &currency, &locale, &theme, &created); err != nil {
		return core.User{}, err
	}
	u.Preferences = core.Preferences{
		Currency: core.CurrencyCode(currency),
		Locale:   core.Locale(locale),
		Theme:    core.Theme(theme),
	}
	u.CreatedAt = created.t
	return u, nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (core.User, error) {
	u, err := r.scanUser(r.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := r.scanUser(r.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *Repository) UpdatePreferences(ctx context.Context, id int64, prefs core.Preferences) error {
	res, err := r.exec(ctx, `UPDATE users SET currency = ?, locale = ?, theme = ? WHERE id = ?`,
		string(prefs.Currency), string(prefs.Locale), string(prefs.Theme), id)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	return expectRow(res, fmt.Sprintf("user %d", id))
}

func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Goals

const goalColumns = `id, user_id, name, target_cents, current_cents, deadline, description, status, created_at`

func nullableDate(d core.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	err := r.queryRow(ctx, `INSERT INTO goals
		(user_id, name, target_cents, current_cents, deadline, description, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, nullableDate(g.Deadline),
		g.Description, string(g.Status), g.CreatedAt,
	).Scan(&g.ID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

func scanGoal(row interface{ Scan(...any) error }) (core.Goal, error) {
	var (
		g                 core.Goal
		status            string
		deadline, created dbTime
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents,
		&deadline, &g.Description, &status, &created); err != nil {
		return core.Goal{}, err
	}
	g.Status = core.GoalStatus(status)
	if deadline.valid {
		g.Deadline = deadline.date()
	}
	g.CreatedAt = created.t
	return g, nil
}

func (r *Repository) GetGoal(ctx context.Context, id int64) (core.Goal, error) {
	g, err := scanGoal(r.queryRow(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, fmt.Errorf("goal %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *Repository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := r.query(ctx, `SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	res, err := r.exec(ctx, `UPDATE goals SET name = ?, target_cents = ?, current_cents = ?,
		deadline = ?, description = ?, status = ? WHERE id = ?`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, nullableDate(g.Deadline),
		g.Description, string(g.Status), g.ID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	if err := expectRow(res, fmt.Sprintf("goal %d", g.ID)); err != nil {
		return core.Goal{}, err
	}
	return r.GetGoal(ctx, g.ID)
}

func (r *Repository) DeleteGoal(ctx context.Context, id int64) error {
	res, err := r.exec(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return expectRow(res, fmt.Sprintf("goal %d", id))
}

// Reports

func (r *Repository) UpsertReport(ctx context.Context, rep core.Report) error {
	s := rep.Summary
	_, err := r.exec(ctx, `INSERT INTO reports
		(user_id, year, month, total_income_cents, total_expense_cents, balance_cents, savings_rate, top_expense_category, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, year, month) DO UPDATE SET
			total_income_cents = excluded.total_income_cents,
			total_expense_cents = excluded.total_expense_cents,
			balance_cents = excluded.balance_cents,
			savings_rate = excluded.savings_rate,
			top_expense_category = excluded.top_expense_category,
			generated_at = excluded.generated_at`,
		rep.UserID, rep.Year, rep.Month, s.TotalIncome.Cents, s.TotalExpense.Cents, s.Balance.Cents,
		s.SavingsRate, rep.TopExpenseCategory, rep.GeneratedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

func (r *Repository) GetReport(ctx context.Context, userID int64, year, month int) (core.Report, error) {
	rep := core.Report{UserID: userID, Year: year, Month: month}
	var generated dbTime
	err := r.queryRow(ctx, `SELECT total_income_cents, total_expense_cents, balance_cents, savings_rate,
		top_expense_category, generated_at FROM reports WHERE user_id = ? AND year = ? AND month = ?`,
		userID, year, month,
	).Scan(&rep.Summary.TotalIncome.Cents, &rep.Summary.TotalExpense.Cents, &rep.Summary.Balance.Cents,
		&rep.Summary.SavingsRate, &rep.TopExpenseCategory, &generated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Report{}, fmt.Errorf("report %d/%04d-%02d: %w", userID, year, month, store.ErrNotFound)
	}
	if err != nil {
		return core.Report{}, fmt.Errorf("get report: %w", err)
	}
	rep.Summary.Period = core.MonthPeriod(year, month)
	rep.GeneratedAt = generated.t
	return rep, nil
}

func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return nil
}

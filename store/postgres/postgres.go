/*
Package postgres provides a PostgreSQL-backed session.Store.

PURPOSE:
  Shared session storage for multi-instance deployments. Selected with
  `pathlight serve --store postgres --database-url postgres://...`.

SCHEMA:
  Mirrors store/sqlite with native types: NUMERIC for money and rates
  (exact, scanned straight into decimal.Decimal) and TIMESTAMPTZ for
  times. Debts cascade on session delete.

CONCURRENCY:
  No process-level lock. Put runs in a transaction and PostgreSQL
  serializes the row writes.

SEE ALSO:
  - store/sqlite: Single-node equivalent
  - session/session.go: Store interface
*/
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pathlight/debt-engine/payoff"
	"github.com/pathlight/debt-engine/session"
	"github.com/shopspring/decimal"
)

// Store implements session.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New connects to dsn, verifies the connection and migrates the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  created_at TIMESTAMPTZ NOT NULL,
  last_accessed_at TIMESTAMPTZ NOT NULL,
  has_context BOOLEAN NOT NULL DEFAULT FALSE,
  monthly_income NUMERIC,
  monthly_expenses NUMERIC,
  liquid_savings NUMERIC,
  credit_score_band TEXT,
  primary_goal TEXT,
  time_horizon_months INTEGER,
  zip_code TEXT
);

CREATE INDEX IF NOT EXISTS idx_sessions_last_accessed ON sessions(last_accessed_at);

CREATE TABLE IF NOT EXISTS session_debts (
  session_id TEXT NOT NULL,
  id TEXT NOT NULL,
  position INTEGER NOT NULL,
  category TEXT NOT NULL,
  balance NUMERIC NOT NULL CHECK (balance >= 0),
  annual_rate NUMERIC NOT NULL CHECK (annual_rate >= 0 AND annual_rate <= 100),
  minimum_payment NUMERIC NOT NULL CHECK (minimum_payment >= 0),
  credit_limit NUMERIC,
  next_payment_date TIMESTAMPTZ,
  PRIMARY KEY (session_id, id),
  FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Reset deletes every session. Used by tests against a shared database.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions`)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	var (
		sess                      session.Session
		hasContext                bool
		income, expenses, savings decimal.NullDecimal
		band, goal, zip           sql.NullString
		horizon                   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, created_at, last_accessed_at, has_context,
       monthly_income, monthly_expenses, liquid_savings,
       credit_score_band, primary_goal, time_horizon_months, zip_code
FROM sessions WHERE id = $1`, id).
		Scan(&sess.ID, &sess.CreatedAt, &sess.LastAccessedAt, &hasContext,
			&income, &expenses, &savings, &band, &goal, &horizon, &zip)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	sess.CreatedAt = sess.CreatedAt.UTC()
	sess.LastAccessedAt = sess.LastAccessedAt.UTC()

	if hasContext {
		fc := &payoff.FinancialContext{
			MonthlyIncome:   income.Decimal,
			MonthlyExpenses: expenses.Decimal,
			LiquidSavings:   savings.Decimal,
			CreditScoreBand: payoff.CreditBand(band.String),
			PrimaryGoal:     payoff.Goal(goal.String),
			ZipCode:         zip.String,
		}
		if horizon.Valid {
			h := int(horizon.Int64)
			fc.TimeHorizonMonths = &h
		}
		sess.FinancialContext = fc
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, category, balance, annual_rate, minimum_payment, credit_limit, next_payment_date
FROM session_debts WHERE session_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query debts: %w", err)
	}
	defer rows.Close()

	sess.Debts = []payoff.DebtAccount{}
	for rows.Next() {
		var (
			d           payoff.DebtAccount
			nextPayment sql.NullTime
		)
		if err := rows.Scan(&d.ID, &d.Category, &d.Balance, &d.AnnualRate, &d.MinimumPayment,
			&d.CreditLimit, &nextPayment); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		if nextPayment.Valid {
			t := nextPayment.Time.UTC()
			d.NextPaymentDate = &t
		}
		sess.Debts = append(sess.Debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) Put(ctx context.Context, sess *session.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		hasContext                bool
		income, expenses, savings decimal.NullDecimal
		band, goal, zip           sql.NullString
		horizon                   sql.NullInt64
	)
	if fc := sess.FinancialContext; fc != nil {
		hasContext = true
		income = decimal.NewNullDecimal(fc.MonthlyIncome)
		expenses = decimal.NewNullDecimal(fc.MonthlyExpenses)
		savings = decimal.NewNullDecimal(fc.LiquidSavings)
		band = sql.NullString{String: string(fc.CreditScoreBand), Valid: true}
		goal = sql.NullString{String: string(fc.PrimaryGoal), Valid: true}
		zip = sql.NullString{String: fc.ZipCode, Valid: true}
		if fc.TimeHorizonMonths != nil {
			horizon = sql.NullInt64{Int64: int64(*fc.TimeHorizonMonths), Valid: true}
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO sessions (id, created_at, last_accessed_at, has_context,
  monthly_income, monthly_expenses, liquid_savings,
  credit_score_band, primary_goal, time_horizon_months, zip_code)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  last_accessed_at = EXCLUDED.last_accessed_at,
  has_context = EXCLUDED.has_context,
  monthly_income = EXCLUDED.monthly_income,
  monthly_expenses = EXCLUDED.monthly_expenses,
  liquid_savings = EXCLUDED.liquid_savings,
  credit_score_band = EXCLUDED.credit_score_band,
  primary_goal = EXCLUDED.primary_goal,
  time_horizon_months = EXCLUDED.time_horizon_months,
  zip_code = EXCLUDED.zip_code`,
		sess.ID, sess.CreatedAt.UTC(), sess.LastAccessedAt.UTC(), hasContext,
		income, expenses, savings, band, goal, horizon, zip)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_debts WHERE session_id = $1`, sess.ID); err != nil {
		return fmt.Errorf("failed to clear debts: %w", err)
	}
	for i, d := range sess.Debts {
		var nextPayment sql.NullTime
		if d.NextPaymentDate != nil {
			nextPayment = sql.NullTime{Time: d.NextPaymentDate.UTC(), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO session_debts (session_id, id, position, category, balance, annual_rate,
  minimum_payment, credit_limit, next_payment_date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			sess.ID, d.ID, i, string(d.Category), d.Balance, d.AnnualRate,
			d.MinimumPayment, d.CreditLimit, nextPayment)
		if err != nil {
			return fmt.Errorf("failed to save debt %s: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) SweepExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE last_accessed_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n)
	return n, err
}

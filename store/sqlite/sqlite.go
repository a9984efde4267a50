/*
Package sqlite provides a SQLite-backed session.Store.

PURPOSE:
  Keeps sessions across restarts of a single-node deployment. Selected
  with `pathlight serve --store sqlite --db ./data/pathlight.db`.

KEY TABLES:
  sessions: One row per session token, financial context as columns
  debts:    One row per debt, ordered by position within the session

  Money and rates are TEXT holding the exact decimal string, so nothing is
  rounded through float64 on the way in or out.

REPLACE-ON-PUT:
  Put upserts the session row and rewrites its debt rows inside one
  transaction. Sessions hold a handful of debts, so rewriting is cheaper
  than diffing.

INDEXES:
  - idx_sessions_last_accessed: Sweep of expired sessions
  - debts primary key (session_id, id): Load by session

TIMESTAMPS:
  Stored as fixed-width UTC text (nanosecond precision) so string order
  equals time order and the sweep can compare with `<`.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WAL journal mode lets readers run
  alongside the single writer.

USAGE:
  store, err := sqlite.New("./data/pathlight.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
  manager := session.NewManager(store)

SEE ALSO:
  - session/session.go: Store interface
  - store/postgres: Same schema on PostgreSQL
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pathlight/debt-engine/payoff"
	"github.com/pathlight/debt-engine/session"
	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements session.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		last_accessed_at TEXT NOT NULL,
		has_context INTEGER NOT NULL DEFAULT 0,
		monthly_income TEXT,
		monthly_expenses TEXT,
		liquid_savings TEXT,
		credit_score_band TEXT,
		primary_goal TEXT,
		time_horizon_months INTEGER,
		zip_code TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_last_accessed
		ON sessions(last_accessed_at);

	CREATE TABLE IF NOT EXISTS debts (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		position INTEGER NOT NULL,
		category TEXT NOT NULL,
		balance TEXT NOT NULL,
		annual_rate TEXT NOT NULL,
		minimum_payment TEXT NOT NULL,
		credit_limit TEXT,
		next_payment_date TEXT,
		PRIMARY KEY (session_id, id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// session.Store
// =============================================================================

func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		sess                      session.Session
		createdAt, lastAccessedAt string
		hasContext                bool
		income, expenses, savings sql.NullString
		band, goal, zip           sql.NullString
		horizon                   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, last_accessed_at, has_context,
		       monthly_income, monthly_expenses, liquid_savings,
		       credit_score_band, primary_goal, time_horizon_months, zip_code
		FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &createdAt, &lastAccessedAt, &hasContext,
		&income, &expenses, &savings, &band, &goal, &horizon, &zip)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	sess.LastAccessedAt, _ = time.Parse(timeLayout, lastAccessedAt)

	if hasContext {
		fc := &payoff.FinancialContext{
			MonthlyIncome:   parseDecimal(income),
			MonthlyExpenses: parseDecimal(expenses),
			LiquidSavings:   parseDecimal(savings),
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

	sess.Debts, err = s.loadDebts(ctx, id)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) loadDebts(ctx context.Context, sessionID string) ([]payoff.DebtAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, balance, annual_rate, minimum_payment, credit_limit, next_payment_date
		FROM debts WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query debts: %w", err)
	}
	defer rows.Close()

	debts := []payoff.DebtAccount{}
	for rows.Next() {
		var (
			d                      payoff.DebtAccount
			balance, rate, minimum decimal.Decimal
			limit                  decimal.NullDecimal
			nextPayment            sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Category, &balance, &rate, &minimum, &limit, &nextPayment); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		d.Balance = balance
		d.AnnualRate = rate
		d.MinimumPayment = minimum
		d.CreditLimit = limit
		if nextPayment.Valid {
			if t, err := time.Parse(timeLayout, nextPayment.String); err == nil {
				d.NextPaymentDate = &t
			}
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

func (s *Store) Put(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		hasContext                bool
		income, expenses, savings any
		band, goal, zip           any
		horizon                   any
	)
	if fc := sess.FinancialContext; fc != nil {
		hasContext = true
		income, expenses, savings = fc.MonthlyIncome.String(), fc.MonthlyExpenses.String(), fc.LiquidSavings.String()
		band, goal, zip = string(fc.CreditScoreBand), string(fc.PrimaryGoal), fc.ZipCode
		if fc.TimeHorizonMonths != nil {
			horizon = *fc.TimeHorizonMonths
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, last_accessed_at, has_context,
			monthly_income, monthly_expenses, liquid_savings,
			credit_score_band, primary_goal, time_horizon_months, zip_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_accessed_at = excluded.last_accessed_at,
			has_context = excluded.has_context,
			monthly_income = excluded.monthly_income,
			monthly_expenses = excluded.monthly_expenses,
			liquid_savings = excluded.liquid_savings,
			credit_score_band = excluded.credit_score_band,
			primary_goal = excluded.primary_goal,
			time_horizon_months = excluded.time_horizon_months,
			zip_code = excluded.zip_code
	`, sess.ID, formatTime(sess.CreatedAt), formatTime(sess.LastAccessedAt), hasContext,
		income, expenses, savings, band, goal, horizon, zip)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM debts WHERE session_id = ?", sess.ID); err != nil {
		return fmt.Errorf("failed to clear debts: %w", err)
	}
	for i, d := range sess.Debts {
		var limit, nextPayment any
		if d.CreditLimit.Valid {
			limit = d.CreditLimit.Decimal.String()
		}
		if d.NextPaymentDate != nil {
			nextPayment = formatTime(*d.NextPaymentDate)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO debts (session_id, id, position, category, balance, annual_rate,
				minimum_payment, credit_limit, next_payment_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, d.ID, i, string(d.Category), d.Balance.String(), d.AnnualRate.String(),
			d.MinimumPayment.String(), limit, nextPayment)
		if err != nil {
			return fmt.Errorf("failed to save debt %s: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) SweepExpired(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE last_accessed_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&n)
	return n, err
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseDecimal(ns sql.NullString) decimal.Decimal {
	if !ns.Valid {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return decimal.Zero
	}
	return d
}

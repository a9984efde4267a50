/*
Package importer reads debts from spreadsheet exports.

PURPOSE:
  Users paste or upload a CSV of their debts instead of typing each one.
  Good rows become payoff.DebtAccount values with fresh IDs; bad rows are
  reported back with their line number so the user can fix the file.

FORMAT:
  A header row is required. Column names are matched case-insensitively.

    debtType,balance,apr,minimumPayment,creditLimit,nextPaymentDate
    Credit Card,4500.00,22.99,135,6000,2025-03-15
    student loan,18000,5.5,210,,

  Required: debtType, balance, apr, minimumPayment
  Optional: creditLimit, nextPaymentDate (YYYY-MM-DD)

  debtType is lowercased and runs of whitespace become "_", so
  "Credit Card" reads as credit_card.

ROW RULES:
  A row is accepted when the type is known, balance > 0, 0 <= apr <= 100
  and minimumPayment > 0. This is stricter than payoff.ValidateAccount: a
  zero-balance or zero-minimum row in an import is almost always a typo.

SEE ALSO:
  - api/handlers.go: POST /api/debts/upload
  - cmd/server: `simulate` and `compare` read their input with Parse
*/
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathlight/debt-engine/payoff"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoValidRows is returned when the file parsed but no row was usable.
	ErrNoValidRows = errors.New("no valid debt records")

	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrMalformed wraps CSV syntax errors.
	ErrMalformed = errors.New("malformed csv")
)

// RowError describes one rejected row.
type RowError struct {
	Line   int               `json:"line"`
	Row    map[string]string `json:"row"`
	Reason string            `json:"reason"`
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// =============================================================================
// PARSING
// =============================================================================

const dateLayout = "2006-01-02"

var (
	required = []string{"debttype", "balance", "apr", "minimumpayment"}
	spaces   = regexp.MustCompile(`\s+`)
	hundred  = decimal.NewFromInt(100)
)

// Result is the outcome of an import.
type Result struct {
	Accounts []payoff.DebtAccount
	Errors   []RowError
}

// Parse reads every row of r. When no row is valid it returns the result
// (so callers can show the row errors) together with ErrNoValidRows.
func Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Result{}, ErrNoValidRows
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[normalizeHeader(name)] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	res := &Result{Accounts: []payoff.DebtAccount{}}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		line, _ := reader.FieldPos(0)

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[strings.TrimSpace(name)] = strings.TrimSpace(record[i])
			}
		}
		get := func(col string) string {
			if i, ok := columns[col]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		acct, reason := parseRow(get)
		if reason != "" {
			res.Errors = append(res.Errors, RowError{Line: line, Row: row, Reason: reason})
			continue
		}
		res.Accounts = append(res.Accounts, acct)
	}

	if len(res.Accounts) == 0 {
		return res, ErrNoValidRows
	}
	return res, nil
}

// parseRow returns the account or the reason it was rejected.
func parseRow(get func(string) string) (payoff.DebtAccount, string) {
	category := payoff.Category(spaces.ReplaceAllString(strings.ToLower(get("debttype")), "_"))
	if !category.Valid() {
		return payoff.DebtAccount{}, fmt.Sprintf("unknown debt type %q", get("debttype"))
	}

	balance, err := decimal.NewFromString(get("balance"))
	if err != nil || !balance.IsPositive() {
		return payoff.DebtAccount{}, "balance must be a number greater than 0"
	}
	apr, err := decimal.NewFromString(get("apr"))
	if err != nil || apr.IsNegative() || apr.GreaterThan(hundred) {
		return payoff.DebtAccount{}, "apr must be a number between 0 and 100"
	}
	minimum, err := decimal.NewFromString(get("minimumpayment"))
	if err != nil || !minimum.IsPositive() {
		return payoff.DebtAccount{}, "minimumPayment must be a number greater than 0"
	}

	acct := payoff.DebtAccount{
		ID:             uuid.NewString(),
		Category:       category,
		Balance:        balance,
		AnnualRate:     apr,
		MinimumPayment: minimum,
	}

	if raw := get("creditlimit"); raw != "" {
		limit, err := decimal.NewFromString(raw)
		if err != nil || limit.IsNegative() {
			return payoff.DebtAccount{}, "creditLimit must be a number >= 0"
		}
		acct.CreditLimit = decimal.NewNullDecimal(limit)
	}
	if raw := get("nextpaymentdate"); raw != "" {
		due, err := time.Parse(dateLayout, raw)
		if err != nil {
			return payoff.DebtAccount{}, "nextPaymentDate must be YYYY-MM-DD"
		}
		acct.NextPaymentDate = &due
	}

	return acct, ""
}

func normalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}

/*
Package guidance produces short plain-language explanations of a user's
debt situation or of a payoff concept.

PURPOSE:
  The dashboard has an "explain this" panel. It asks for guidance with an
  optional action ("what is avalanche?") and an optional scenario the user
  is looking at. The text explains; it never advises.

PROVIDERS:
  - Rules:  Deterministic templates. Always available.
  - Gemini: Sends a prompt to the Gemini generateContent endpoint. Any
            failure (network, status, empty answer) falls back to Rules.

  New picks Gemini when an API key is configured, Rules otherwise.

SEE ALSO:
  - rules.go: Rule templates
  - gemini.go: HTTP client
  - api/handlers.go: POST /api/ai/guidance
*/
package guidance

import (
	"context"
	"strings"

	"github.com/pathlight/debt-engine/payoff"
	"github.com/shopspring/decimal"
)

// Request is everything a provider may look at.
type Request struct {
	Action   string
	Debts    []payoff.DebtAccount
	Context  *payoff.FinancialContext
	Scenario *Scenario
}

// Scenario is the payoff plan the user is viewing.
type Scenario struct {
	Strategy       string
	MonthlyPayment decimal.Decimal
	PayoffMonths   int
}

// Provider generates guidance text.
type Provider interface {
	Guidance(ctx context.Context, req Request) (string, error)
}

// placeholderKey is the value shipped in the sample .env file.
const placeholderKey = "your_gemini_api_key_here"

// New returns the Gemini provider when apiKey is usable, Rules otherwise.
// An empty url selects DefaultGeminiURL.
func New(apiKey, url string) Provider {
	if apiKey == "" || apiKey == placeholderKey {
		return Rules{}
	}
	return NewGemini(apiKey, url)
}

func (r Request) metrics() payoff.Aggregate {
	return payoff.AggregateMetrics(r.Debts, r.Context.Income())
}

// formatMoney renders an amount with thousands separators and at most two
// decimals, dropping trailing zeros: 12500 -> "12,500", 99.5 -> "99.5".
func formatMoney(d decimal.Decimal) string {
	s := d.Round(2).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := b.String()
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

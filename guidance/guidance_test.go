package guidance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pathlight/debt-engine/payoff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func debt(balance, rate, minimum float64) payoff.DebtAccount {
	return payoff.DebtAccount{
		ID:             "d",
		Category:       payoff.CategoryCreditCard,
		Balance:        payoff.Money(balance),
		AnnualRate:     payoff.Money(rate),
		MinimumPayment: payoff.Money(minimum),
	}
}

func income(v float64) *payoff.FinancialContext {
	return &payoff.FinancialContext{
		MonthlyIncome:   payoff.Money(v),
		CreditScoreBand: payoff.CreditGood,
		PrimaryGoal:     payoff.GoalPayFaster,
	}
}

func rules(t *testing.T, req Request) string {
	t.Helper()
	text, err := Rules{}.Guidance(context.Background(), req)
	require.NoError(t, err)
	return text
}

// =============================================================================
// RULES
// =============================================================================

func TestRules_Actions(t *testing.T) {
	assert.Contains(t, rules(t, Request{Action: "Explain SNOWBALL"}), "smallest debts first")
	assert.Contains(t, rules(t, Request{Action: "avalanche?"}), "highest interest rates first")

	req := Request{Action: "what is my DTI", Debts: []payoff.DebtAccount{debt(1000, 10, 250)}, Context: income(5000)}
	assert.Contains(t, rules(t, req), "ratio of 5.0%")
}

func TestRules_Situations(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "no debts",
			req:  Request{},
			want: "Add your debts",
		},
		{
			name: "high dti",
			req:  Request{Debts: []payoff.DebtAccount{debt(10000, 10, 2500)}, Context: income(5000)},
			want: "ratio is 50.0%",
		},
		{
			name: "high apr",
			req:  Request{Debts: []payoff.DebtAccount{debt(1000, 24.5, 50)}},
			want: "average interest rate is 24.50%",
		},
		{
			name: "scenario",
			req: Request{
				Debts:    []payoff.DebtAccount{debt(12000, 8, 200)},
				Scenario: &Scenario{Strategy: "avalanche", MonthlyPayment: payoff.Money(1500), PayoffMonths: 27},
			},
			want: "avalanche strategy and $1,500 monthly payment, you'll be debt-free in about 2 years 3 months",
		},
		{
			name: "summary",
			req:  Request{Debts: []payoff.DebtAccount{debt(12000.5, 8, 200), debt(500, 5, 25)}},
			want: "You have 2 debts totaling $12,500.5",
		},
		{
			name: "summary singular",
			req:  Request{Debts: []payoff.DebtAccount{debt(500, 5, 25)}},
			want: "You have 1 debt totaling $500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, rules(t, tt.req), tt.want)
		})
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "1 month", duration(1))
	assert.Equal(t, "1 year", duration(12))
	assert.Equal(t, "3 years 1 month", duration(37))
	assert.Equal(t, "no time", duration(0))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "0", formatMoney(payoff.Money(0)))
	assert.Equal(t, "999", formatMoney(payoff.Money(999)))
	assert.Equal(t, "1,000", formatMoney(payoff.Money(1000)))
	assert.Equal(t, "1,234,567.89", formatMoney(payoff.Money(1234567.891)))
	assert.Equal(t, "-12,000.5", formatMoney(payoff.Money(-12000.5)))
}

func TestNew_PicksProvider(t *testing.T) {
	assert.IsType(t, Rules{}, New("", ""))
	assert.IsType(t, Rules{}, New(placeholderKey, ""))

	g, ok := New("key", "").(*Gemini)
	require.True(t, ok)
	assert.Equal(t, DefaultGeminiURL, g.apiURL)
}

// =============================================================================
// GEMINI
// =============================================================================

func TestGemini_UsesAnswer(t *testing.T) {
	// GIVEN: A Gemini endpoint that answers
	// WHEN: Guidance is requested
	// THEN: The request carries the prompt and the key; the answer is returned trimmed

	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  Keep going!  "}]}}]}`))
	}))
	defer srv.Close()

	g := NewGemini("secret", srv.URL)
	text, err := g.Guidance(context.Background(), Request{
		Action:  "avalanche",
		Debts:   []payoff.DebtAccount{debt(1000, 24, 50)},
		Context: income(4000),
	})
	require.NoError(t, err)
	assert.Equal(t, "Keep going!", text)

	require.Len(t, got.Contents, 1)
	prompt := got.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "not to give financial advice")
	assert.Contains(t, prompt, "- Total debt: $1,000")
	assert.Contains(t, prompt, "- Credit score: good")
	assert.Contains(t, prompt, "User wants to understand: avalanche")
	assert.Equal(t, 0.7, got.GenerationConfig.Temperature)
	assert.Equal(t, 300, got.GenerationConfig.MaxOutputTokens)
}

func TestGemini_FallsBackToRules(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{name: "server error", status: http.StatusInternalServerError, payload: `{"error":"boom"}`},
		{name: "no candidates", status: http.StatusOK, payload: `{"candidates":[]}`},
		{name: "empty text", status: http.StatusOK, payload: `{"candidates":[{"content":{"parts":[{"text":" "}]}}]}`},
		{name: "bad json", status: http.StatusOK, payload: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.payload))
			}))
			defer srv.Close()

			text, err := NewGemini("k", srv.URL).Guidance(context.Background(), Request{Action: "snowball"})
			require.NoError(t, err)
			assert.Contains(t, text, "smallest debts first")
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestBuildPrompt_WithoutAction(t *testing.T) {
	prompt := buildPrompt(Request{
		Scenario: &Scenario{Strategy: "snowball", MonthlyPayment: payoff.Money(800), PayoffMonths: 14},
	})
	assert.Contains(t, prompt, "- Payoff time: 14 months")
	assert.Contains(t, prompt, "Provide a brief, friendly explanation")
	assert.NotContains(t, prompt, "Monthly income")
}

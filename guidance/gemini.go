package guidance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pathlight/debt-engine/payoff"
)

// DefaultGeminiURL is the generateContent endpoint used when none is configured.
const DefaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"

const systemInstruction = `You are a helpful financial assistant for PathLight, a debt management tool.
Your role is to EXPLAIN financial concepts clearly and simply, not to give financial advice.
Keep explanations friendly, empathetic, and easy to understand. Use simple language.
If something seems unusual, gently point it out.`

var errEmptyAnswer = errors.New("gemini returned no text")

// Gemini asks the Gemini API and falls back to Rules on any failure.
type Gemini struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func NewGemini(apiKey, apiURL string) *Gemini {
	if apiURL == "" {
		apiURL = DefaultGeminiURL
	}
	return &Gemini{
		apiKey: apiKey,
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Guidance never returns an error: failures are logged and answered by Rules.
func (g *Gemini) Guidance(ctx context.Context, req Request) (string, error) {
	text, err := g.call(ctx, systemInstruction+"\n\n"+buildPrompt(req))
	if err != nil {
		log.Printf("[Guidance] gemini call failed, using rules: %v", err)
		return ruleBased(req), nil
	}
	return text, nil
}

func (g *Gemini) call(ctx context.Context, prompt string) (string, error) {
	var body geminiRequest
	body.Contents = []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}
	body.GenerationConfig.Temperature = 0.7
	body.GenerationConfig.MaxOutputTokens = 300

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	endpoint := g.apiURL + "?key=" + url.QueryEscape(g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(msg))
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errEmptyAnswer
	}
	text := strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", errEmptyAnswer
	}
	return text, nil
}

func buildPrompt(req Request) string {
	m := req.metrics()

	var b strings.Builder
	fmt.Fprintf(&b, "User's financial situation:\n")
	fmt.Fprintf(&b, "- Total debt: $%s\n", formatMoney(m.TotalDebt))
	fmt.Fprintf(&b, "- Average APR: %s%%\n", m.AverageRate.StringFixed(2))
	fmt.Fprintf(&b, "- DTI: %s%%\n", m.DebtToIncome.StringFixed(1))
	fmt.Fprintf(&b, "- Number of debts: %d", len(req.Debts))

	if fc := req.Context; fc != nil {
		fmt.Fprintf(&b, "\n- Monthly income: $%s", formatMoney(fc.MonthlyIncome))
		fmt.Fprintf(&b, "\n- Monthly expenses: $%s", formatMoney(fc.MonthlyExpenses))
		fmt.Fprintf(&b, "\n- Credit score: %s", fc.CreditScoreBand)
		fmt.Fprintf(&b, "\n- Primary goal: %s", goalText(fc.PrimaryGoal))
	}

	if s := req.Scenario; s != nil {
		fmt.Fprintf(&b, "\n\nUser is viewing a payoff scenario:")
		fmt.Fprintf(&b, "\n- Strategy: %s", s.Strategy)
		fmt.Fprintf(&b, "\n- Monthly payment: $%s", formatMoney(s.MonthlyPayment))
		fmt.Fprintf(&b, "\n- Payoff time: %d months", s.PayoffMonths)
	}

	if req.Action != "" {
		fmt.Fprintf(&b, "\n\nUser wants to understand: %s", req.Action)
	} else {
		b.WriteString("\n\nProvide a brief, friendly explanation of their current situation and what they can do.")
	}
	return b.String()
}

func goalText(g payoff.Goal) string {
	switch g {
	case payoff.GoalPayFaster:
		return "Pay off faster"
	case payoff.GoalReduceInterest:
		return "Reduce interest"
	case payoff.GoalLowerPayment:
		return "Lower monthly payment"
	case payoff.GoalAvoidDefault:
		return "Avoid default"
	}
	return string(g)
}

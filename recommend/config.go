/*
config.go - Recommendation rule thresholds

PURPOSE:
  Every number the evaluators compare against lives here: eligible credit
  bands, minimum APRs and account counts, promo rates, fees and fit-score
  cutoffs. Product can tune the rules by editing a YAML file instead of
  shipping code.

YAML SCHEMA (all sections optional, omitted keys keep their defaults):
  credit_score_ranges:
    poor: [0, 579]
    fair: [580, 669]
  consolidation:
    enabled: true
    min_debts: 3
    min_apr: 15
    eligible_credit_scores: [fair, good]
    debt_types: [credit_card]
  fit_score_thresholds:
    high: {savings_min: 1500, credit_score_requirement: excellent}
    medium: {savings_min: 500}

LOOKUP:
  LoadOrDefault tries each path in order and uses the first file that
  exists. No file at all is not an error: the built-in defaults apply.
  A file that exists but does not parse IS an error.

SEE ALSO:
  - rules.go: The evaluators reading these values
  - cmd/server: --recommendations-config flag
*/
package recommend

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pathlight/debt-engine/payoff"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultPaths are searched by LoadOrDefault when no explicit path is given.
var DefaultPaths = []string{
	"config/recommendations.yaml",
	"backend/config/recommendations.yaml",
}

// Config is the full rule document.
type Config struct {
	CreditScoreRanges  map[payoff.CreditBand][2]int `yaml:"credit_score_ranges"`
	Consolidation      ConsolidationConfig          `yaml:"consolidation"`
	BalanceTransfer    BalanceTransferConfig        `yaml:"balance_transfer"`
	Settlement         SettlementConfig             `yaml:"settlement"`
	Refinancing        RefinancingConfig            `yaml:"refinancing"`
	FitScoreThresholds FitThresholds                `yaml:"fit_score_thresholds"`
}

// ConsolidationConfig gates the personal-loan consolidation offer.
type ConsolidationConfig struct {
	Enabled              bool                `yaml:"enabled"`
	MinDebts             int                 `yaml:"min_debts"`
	MinAPR               decimal.Decimal     `yaml:"min_apr"`
	MaxTotalDebt         decimal.Decimal     `yaml:"max_total_debt"`
	EligibleCreditScores []payoff.CreditBand `yaml:"eligible_credit_scores"`
	DebtTypes            []payoff.Category   `yaml:"debt_types"`
	EstimatedAPR         decimal.Decimal     `yaml:"estimated_apr"`
	PaymentPercentage    decimal.Decimal     `yaml:"payment_percentage"`
	EvaluationMonths     int                 `yaml:"evaluation_period_months"`
}

// BalanceTransferConfig gates the promo-APR card transfer offer.
type BalanceTransferConfig struct {
	Enabled               bool                `yaml:"enabled"`
	MinDebts              int                 `yaml:"min_debts"`
	MinAPR                decimal.Decimal     `yaml:"min_apr"`
	MaxTotalDebt          decimal.Decimal     `yaml:"max_total_debt"`
	EligibleCreditScores  []payoff.CreditBand `yaml:"eligible_credit_scores"`
	DebtTypes             []payoff.Category   `yaml:"debt_types"`
	EstimatedPromoAPR     decimal.Decimal     `yaml:"estimated_promo_apr"`
	TransferFeePercentage decimal.Decimal     `yaml:"transfer_fee_percentage"`
	PromoPeriodMonths     int                 `yaml:"promo_period_months"`
}

// SettlementConfig gates the negotiated settlement suggestion.
type SettlementConfig struct {
	Enabled                       bool                `yaml:"enabled"`
	EligibleCreditScores          []payoff.CreditBand `yaml:"eligible_credit_scores"`
	MinAPR                        decimal.Decimal     `yaml:"min_apr"`
	MaxBalance                    decimal.Decimal     `yaml:"max_balance"`
	EstimatedSettlementPercentage decimal.Decimal     `yaml:"estimated_settlement_percentage"`
	SettlementPeriodMonths        int                 `yaml:"settlement_period_months"`
}

// RefinancingConfig gates the single-loan refinance suggestion.
type RefinancingConfig struct {
	Enabled                bool                `yaml:"enabled"`
	MinBalance             decimal.Decimal     `yaml:"min_balance"`
	MinAPR                 decimal.Decimal     `yaml:"min_apr"`
	EligibleCreditScores   []payoff.CreditBand `yaml:"eligible_credit_scores"`
	ExcludedDebtTypes      []payoff.Category   `yaml:"excluded_debt_types"`
	APRImprovementEstimate decimal.Decimal     `yaml:"apr_improvement_estimate"`
	EvaluationPeriodMonths int                 `yaml:"evaluation_period_months"`
}

// FitThresholds are the savings cutoffs for fit classification.
type FitThresholds struct {
	High struct {
		SavingsMin             decimal.Decimal   `yaml:"savings_min"`
		CreditScoreRequirement payoff.CreditBand `yaml:"credit_score_requirement,omitempty"`
	} `yaml:"high"`
	Medium struct {
		SavingsMin decimal.Decimal `yaml:"savings_min"`
	} `yaml:"medium"`
	Low struct {
		SavingsMax decimal.Decimal `yaml:"savings_max"`
	} `yaml:"low"`
}

// Default returns the built-in rule set.
func Default() *Config {
	cfg := &Config{
		CreditScoreRanges: map[payoff.CreditBand][2]int{
			payoff.CreditPoor:      {0, 579},
			payoff.CreditFair:      {580, 669},
			payoff.CreditGood:      {670, 739},
			payoff.CreditExcellent: {740, 850},
		},
		Consolidation: ConsolidationConfig{
			Enabled:              true,
			MinDebts:             3,
			MinAPR:               decimal.NewFromInt(15),
			MaxTotalDebt:         decimal.NewFromInt(50000),
			EligibleCreditScores: []payoff.CreditBand{payoff.CreditFair, payoff.CreditGood},
			DebtTypes:            []payoff.Category{payoff.CategoryCreditCard},
			EstimatedAPR:         decimal.NewFromInt(18),
			PaymentPercentage:    decimal.New(2, -2),
			EvaluationMonths:     36,
		},
		BalanceTransfer: BalanceTransferConfig{
			Enabled:               true,
			MinDebts:              2,
			MinAPR:                decimal.NewFromInt(18),
			MaxTotalDebt:          decimal.NewFromInt(30000),
			EligibleCreditScores:  []payoff.CreditBand{payoff.CreditGood, payoff.CreditExcellent},
			DebtTypes:             []payoff.Category{payoff.CategoryCreditCard},
			EstimatedPromoAPR:     decimal.NewFromInt(3),
			TransferFeePercentage: decimal.New(3, -2),
			PromoPeriodMonths:     18,
		},
		Settlement: SettlementConfig{
			Enabled:                       true,
			EligibleCreditScores:          []payoff.CreditBand{payoff.CreditPoor},
			MinAPR:                        decimal.NewFromInt(20),
			MaxBalance:                    decimal.NewFromInt(10000),
			EstimatedSettlementPercentage: decimal.New(5, -1),
			SettlementPeriodMonths:        12,
		},
		Refinancing: RefinancingConfig{
			Enabled:                true,
			MinBalance:             decimal.NewFromInt(10000),
			MinAPR:                 decimal.NewFromInt(10),
			EligibleCreditScores:   []payoff.CreditBand{payoff.CreditGood, payoff.CreditExcellent},
			ExcludedDebtTypes:      []payoff.Category{payoff.CategoryCreditCard},
			APRImprovementEstimate: decimal.NewFromInt(3),
			EvaluationPeriodMonths: 60,
		},
	}
	cfg.FitScoreThresholds.High.SavingsMin = decimal.NewFromInt(1500)
	cfg.FitScoreThresholds.Medium.SavingsMin = decimal.NewFromInt(500)
	cfg.FitScoreThresholds.Low.SavingsMax = decimal.NewFromInt(499)
	return cfg
}

// Load reads a rule file and overlays it onto Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recommendation config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing recommendation config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("recommendation config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads the first existing path. With no paths it searches
// DefaultPaths. The returned string is the file used, empty for defaults.
func LoadOrDefault(paths ...string) (*Config, string, error) {
	if len(paths) == 0 {
		paths = DefaultPaths
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		cfg, err := Load(p)
		if err != nil {
			return nil, p, err
		}
		return cfg, p, nil
	}
	return Default(), "", nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling recommendation config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing recommendation config: %w", err)
	}
	return nil
}

// Validate rejects values that would make an evaluator divide by zero or
// recommend nonsense.
func (c *Config) Validate() error {
	if c.Settlement.SettlementPeriodMonths <= 0 {
		return errors.New("settlement.settlement_period_months must be > 0")
	}
	if c.Consolidation.EvaluationMonths < 0 || c.BalanceTransfer.PromoPeriodMonths < 0 ||
		c.Refinancing.EvaluationPeriodMonths < 0 {
		return errors.New("evaluation periods must be >= 0")
	}
	pct := c.Settlement.EstimatedSettlementPercentage
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("settlement.estimated_settlement_percentage must be between 0 and 1")
	}
	for band, r := range c.CreditScoreRanges {
		if !band.Valid() {
			return fmt.Errorf("credit_score_ranges: unknown band %q", band)
		}
		if r[0] > r[1] {
			return fmt.Errorf("credit_score_ranges.%s: %d > %d", band, r[0], r[1])
		}
	}
	return nil
}

// BandForScore maps a numeric credit score onto a band using
// credit_score_ranges.
func (c *Config) BandForScore(score int) (payoff.CreditBand, bool) {
	for _, band := range []payoff.CreditBand{payoff.CreditPoor, payoff.CreditFair, payoff.CreditGood, payoff.CreditExcellent} {
		r, ok := c.CreditScoreRanges[band]
		if ok && score >= r[0] && score <= r[1] {
			return band, true
		}
	}
	return "", false
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pathlight/debt-engine/importer"
	"github.com/pathlight/debt-engine/payoff"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// =============================================================================
// SIMULATE
// =============================================================================

func newSimulateCommand() *cobra.Command {
	var strategy, payment string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "simulate <debts.csv>",
		Short: "Simulate one payoff strategy over a CSV of debts",
		Long: "Simulate one payoff strategy over a CSV of debts.\n\n" +
			"The custom strategy pays debts in file order.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := payoff.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			debts, budget, err := loadRun(cmd.ErrOrStderr(), args[0], payment)
			if err != nil {
				return err
			}

			result := payoff.Simulate(debts, budget, st)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printResult(cmd.OutOrStdout(), debts, budget, st, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", string(payoff.Avalanche), "avalanche, snowball or custom")
	cmd.Flags().StringVar(&payment, "payment", "", "monthly payment budget (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	_ = cmd.MarkFlagRequired("payment")

	return cmd
}

func printResult(w io.Writer, debts []payoff.DebtAccount, budget decimal.Decimal, st payoff.Strategy, r payoff.Result) {
	fmt.Fprintf(w, "Strategy:        %s\n", st)
	fmt.Fprintf(w, "Monthly payment: $%s\n", budget.StringFixed(2))
	if r.PaidOff {
		fmt.Fprintf(w, "Debt-free in:    %d months\n", r.MonthsToPayoff)
	} else {
		fmt.Fprintf(w, "Not paid off after %d months (remaining $%s)\n", r.MonthsToPayoff, r.FinalBalance().StringFixed(2))
	}
	fmt.Fprintf(w, "Total interest:  $%s\n\n", r.TotalInterestPaid.StringFixed(2))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tBALANCE\tAPR\tMINIMUM\tPAID OFF (MONTH)")
	for _, d := range debts {
		month := "-"
		if m := r.PayoffMonth(d.ID); m > 0 {
			month = fmt.Sprint(m)
		}
		fmt.Fprintf(tw, "%s\t$%s\t%s%%\t$%s\t%s\n",
			d.Category.DisplayName(), d.Balance.StringFixed(2), d.AnnualRate.String(),
			d.MinimumPayment.StringFixed(2), month)
	}
	tw.Flush()
}

// =============================================================================
// COMPARE
// =============================================================================

func newCompareCommand() *cobra.Command {
	var payment string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compare <debts.csv>",
		Short: "Compare every payoff strategy over a CSV of debts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			debts, budget, err := loadRun(cmd.ErrOrStderr(), args[0], payment)
			if err != nil {
				return err
			}

			comparisons := payoff.Compare(debts, budget, payoff.Strategies...)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), comparisons)
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "STRATEGY\tMONTHS\tINTEREST\tINTEREST SAVED\tPAID OFF")
			for _, c := range comparisons {
				fmt.Fprintf(tw, "%s\t%d\t$%s\t$%s\t%t\n",
					c.Strategy, c.Result.MonthsToPayoff, c.Result.TotalInterestPaid.StringFixed(2),
					c.InterestSaved.StringFixed(2), c.Result.PaidOff)
			}
			tw.Flush()

			if best, ok := payoff.Cheapest(comparisons); ok {
				fmt.Fprintf(out, "\nCheapest: %s\n", best.Strategy)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&payment, "payment", "", "monthly payment budget (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the comparison as JSON")
	_ = cmd.MarkFlagRequired("payment")

	return cmd
}

// =============================================================================
// HELPERS
// =============================================================================

// loadRun reads the CSV and budget. Rejected rows and an underfunded budget
// are reported on stderr; the run still happens.
func loadRun(stderr io.Writer, path, payment string) ([]payoff.DebtAccount, decimal.Decimal, error) {
	budget, err := decimal.NewFromString(payment)
	if err != nil || budget.IsNegative() {
		return nil, decimal.Zero, fmt.Errorf("invalid --payment %q: must be a number >= 0", payment)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, decimal.Zero, err
	}
	defer f.Close()

	res, err := importer.Parse(f)
	if res != nil {
		for i := range res.Errors {
			fmt.Fprintf(stderr, "warning: skipped %v\n", &res.Errors[i])
		}
	}
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := payoff.ValidatePayment(res.Accounts, budget); err != nil {
		fmt.Fprintf(stderr, "warning: %v; balances may grow\n", err)
	}
	return res.Accounts, budget, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

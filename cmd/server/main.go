/*
main.go - Application entry point

PURPOSE:
  The pathlight binary. Serves the session API and runs one-off payoff
  simulations from a CSV file on the command line.

COMMANDS:
  serve      Start the HTTP API (default when no command is given)
  simulate   Run one strategy over a CSV of debts
  compare    Run every strategy over a CSV of debts

CONFIGURATION:
  Flags win over environment variables, which win over defaults.

  PORT                    HTTP port (default: 3001)
  APP_ENV / NODE_ENV      "production" tightens CORS
  FRONTEND_URL            Comma separated allowed origins
  SESSION_TIMEOUT_HOURS   Idle session lifetime (default: 24)
  RECOMMENDATIONS_CONFIG  Rule file (YAML); built-in defaults otherwise
  STORE                   memory | sqlite | postgres | redis (default: memory)
  DB_PATH                 SQLite file (default: pathlight.db)
  DATABASE_URL            Postgres DSN
  REDIS_ADDR              Redis address (default: localhost:6379)
  GEMINI_API_KEY          Enables model-written guidance
  GEMINI_URL              Override the Gemini endpoint

EXAMPLES:
  # In-memory sessions on the default port
  ./pathlight serve

  # Persist sessions in SQLite
  STORE=sqlite DB_PATH=./data/pathlight.db ./pathlight serve

  # Compare strategies for a CSV at $900/month
  ./pathlight compare --payment 900 debts.csv

SEE ALSO:
  - serve.go: Server startup and shutdown
  - simulate.go: Command-line simulations
  - api/server.go: Router configuration
*/
package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	serve := newServeCommand()

	root := &cobra.Command{
		Use:   "pathlight",
		Short: "Debt payoff planning engine",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newSimulateCommand(), newCompareCommand())
	return root
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func isProduction() bool {
	env := envString("APP_ENV", os.Getenv("NODE_ENV"))
	return strings.EqualFold(env, "production")
}

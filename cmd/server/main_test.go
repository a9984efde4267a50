package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `debtType,balance,apr,minimumPayment
credit_card,1000,24,50
personal_loan,2000,6,100
mortgage,1,1,1
`

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "debts.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSimulateCommand(t *testing.T) {
	stdout, stderr, err := run(t, "simulate", "--payment", "500", writeCSV(t))
	require.NoError(t, err)

	assert.Contains(t, stdout, "Strategy:        avalanche")
	assert.Contains(t, stdout, "Debt-free in:")
	assert.Contains(t, stdout, "Credit Card")
	assert.Contains(t, stderr, "warning: skipped", "the mortgage row is reported")
}

func TestSimulateCommand_Underfunded(t *testing.T) {
	// GIVEN: A budget below the $150 of minimums
	// WHEN: Simulating
	// THEN: A warning is printed and the run still happens

	stdout, stderr, err := run(t, "simulate", "--strategy", "snowball", "--payment", "100", writeCSV(t))
	require.NoError(t, err)
	assert.Contains(t, stderr, "below total minimum payments")
	assert.Contains(t, stdout, "Strategy:        snowball")
}

func TestSimulateCommand_Errors(t *testing.T) {
	path := writeCSV(t)

	_, _, err := run(t, "simulate", "--payment", "500", "--strategy", "lottery", path)
	assert.Error(t, err)

	_, _, err = run(t, "simulate", "--payment", "lots", path)
	assert.Error(t, err)

	_, _, err = run(t, "simulate", path)
	assert.Error(t, err, "payment is required")

	_, _, err = run(t, "simulate", "--payment", "500", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestCompareCommand(t *testing.T) {
	stdout, _, err := run(t, "compare", "--payment", "300", writeCSV(t))
	require.NoError(t, err)

	for _, s := range []string{"avalanche", "snowball", "custom", "Cheapest:"} {
		assert.Contains(t, stdout, s)
	}
}

func TestCompareCommand_JSON(t *testing.T) {
	stdout, _, err := run(t, "compare", "--json", "--payment", "300", writeCSV(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, `"Strategy": "avalanche"`)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("PATHLIGHT_TEST_INT", "42")
	t.Setenv("PATHLIGHT_TEST_BAD", "x")
	assert.Equal(t, 42, envInt("PATHLIGHT_TEST_INT", 1))
	assert.Equal(t, 1, envInt("PATHLIGHT_TEST_BAD", 1))
	assert.Equal(t, "fallback", envString("PATHLIGHT_TEST_UNSET", "fallback"))

	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "production")
	assert.True(t, isProduction())
	t.Setenv("APP_ENV", "development")
	assert.False(t, isProduction())
}

func TestOpenStore_Unknown(t *testing.T) {
	_, err := openStore(context.Background(), serveOptions{store: "floppy"}, 0)
	assert.Error(t, err)
}

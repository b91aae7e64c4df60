package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/billing-recon/internal/config"
)

// testConfig returns an English/USD config so assertions do not depend on
// pt-BR number formatting.
func testConfig() *config.Config {
	c := &config.Config{}
	c.Input.HasHeader = true
	c.Input.Delimiter = ","
	c.Report.Lang = "en"
	c.Report.Currency = "USD"
	c.Report.SortBy = "id"
	c.Report.SampleSize = 10
	c.Anthropic.Model = "claude-sonnet-4-5-20250929"
	c.Anthropic.MaxTokens = 512
	c.Anthropic.Temperature = 0.2
	c.Summary.Fallback = "Summary unavailable."
	c.Log.Level = "info"
	c.Log.Format = "json"
	return c
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"reconcile", "price", "version"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "billing-recon", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestReconcileCommand_Flags(t *testing.T) {
	for _, name := range []string{"companies", "rules", "sort", "desc", "search", "status", "set", "csv-out", "xlsx-out", "summary", "lang"} {
		assert.NotNil(t, reconcileCmd.Flags().Lookup(name), "reconcile should have --%s flag", name)
	}

	flag := reconcileCmd.Flags().Lookup("desc")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestPriceCommand_Flags(t *testing.T) {
	for _, name := range []string{"active", "model", "base", "included", "excess", "minimum", "lang"} {
		assert.NotNil(t, priceCmd.Flags().Lookup(name), "price should have --%s flag", name)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	assert.Equal(t, "billing-recon dev (none)\n", buf.String())
}

func TestNewEngine(t *testing.T) {
	c := testConfig()

	e, err := newEngine(c, "")
	require.NoError(t, err)
	assert.Equal(t, "en", e.Language().String())
	assert.Equal(t, "USD", e.Currency().String())

	e, err = newEngine(c, "pt-BR")
	require.NoError(t, err)
	assert.Equal(t, "pt-BR", e.Language().String())

	_, err = newEngine(c, "not a tag!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse --lang")
}

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPrice(t *testing.T) {
	cfg = testConfig()

	tests := []struct {
		name string
		opts priceOptions
		want []string
	}{
		{
			name: "tiered with excess",
			opts: priceOptions{Active: 15, Model: "TIERED", Base: "100", Included: 10, Excess: "5.80"},
			want: []string{"US$ 129.00", "5 excess"},
		},
		{
			name: "per head below minimum",
			opts: priceOptions{Active: 3, Model: "per_head_min", Base: "10", Minimum: 5},
			want: []string{"US$ 50.00", "5 billable"},
		},
		{
			name: "flat",
			opts: priceOptions{Active: 500, Model: "FLAT", Base: "1200"},
			want: []string{"US$ 1,200.00", "fixed monthly amount"},
		},
		{
			name: "unknown model",
			opts: priceOptions{Active: 5, Model: "ANNUAL", Base: "10"},
			want: []string{"US$ 0.00", "not recognized", "Warning:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, runPrice(&buf, tt.opts))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestRunPrice_PortugueseOutput(t *testing.T) {
	cfg = testConfig()
	cfg.Report.Currency = "BRL"

	var buf bytes.Buffer
	require.NoError(t, runPrice(&buf, priceOptions{Active: 15, Model: "TIERED", Base: "100", Included: 10, Excess: "5.80", Lang: "pt-BR"}))
	assert.Contains(t, buf.String(), "R$ 129,00")
}

func TestRunPrice_InvalidAmount(t *testing.T) {
	cfg = testConfig()

	err := runPrice(&bytes.Buffer{}, priceOptions{Model: "FLAT", Base: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --base")
}

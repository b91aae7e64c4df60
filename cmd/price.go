package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sells-group/billing-recon/internal/billing"
	"github.com/sells-group/billing-recon/internal/report"
)

type priceOptions struct {
	Active   int
	Model    string
	Base     string
	Included int
	Excess   string
	Minimum  int
	Lang     string
}

var priceOpts priceOptions

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a single company under an ad-hoc contract",
	Long: `Computes one bill without reading any files. Useful for checking a contract
before it is loaded.

Examples:
  billing-recon price --active 15 --model TIERED --base 100 --included 10 --excess 5.80
  billing-recon price --active 3 --model PER_HEAD_MIN --base 10 --minimum 5 --lang en`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPrice(cmd.OutOrStdout(), priceOpts)
	},
}

func runPrice(out io.Writer, opts priceOptions) error {
	if err := cfg.Validate("reconcile"); err != nil {
		return err
	}
	engine, err := newEngine(cfg, opts.Lang)
	if err != nil {
		return err
	}

	base, err := parseAmount("base", opts.Base)
	if err != nil {
		return err
	}
	excess, err := parseAmount("excess", opts.Excess)
	if err != nil {
		return err
	}

	rule := billing.RuleRow{
		Model:           opts.Model,
		BasePrice:       base,
		IncludedCount:   opts.Included,
		ExcessUnitPrice: excess,
		MinimumCount:    opts.Minimum,
	}.Rule()
	res := engine.Price(billing.CompanyRecord{ActiveCount: max(opts.Active, 0)}, &rule)

	loc := report.LocaleOf(engine)
	_, _ = fmt.Fprintf(out, "Amount:      %s\n", loc.Money(res.Amount))
	_, _ = fmt.Fprintf(out, "Explanation: %s\n", res.Explanation)
	if res.Unrecognized() {
		_, _ = fmt.Fprintf(out, "Warning:     pricing model %q is not recognized\n", opts.Model)
	}
	return nil
}

func parseAmount(name, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "invalid --%s %q", name, s)
	}
	return d, nil
}

func init() {
	f := priceCmd.Flags()
	f.IntVar(&priceOpts.Active, "active", 0, "active employee count")
	f.StringVar(&priceOpts.Model, "model", "", "pricing model: TIERED, PER_HEAD_MIN or FLAT (required)")
	f.StringVar(&priceOpts.Base, "base", "0", "base price: base fee, per-head rate or monthly fee depending on model")
	f.IntVar(&priceOpts.Included, "included", 0, "employees covered by the TIERED base fee")
	f.StringVar(&priceOpts.Excess, "excess", "0", "TIERED price per employee beyond the included count")
	f.IntVar(&priceOpts.Minimum, "minimum", 0, "PER_HEAD_MIN minimum billable count")
	f.StringVar(&priceOpts.Lang, "lang", "", "explanation language, e.g. pt-BR or en (default from config)")
	_ = priceCmd.MarkFlagRequired("model")
	rootCmd.AddCommand(priceCmd)
}

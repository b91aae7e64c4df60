package main

import (
	"github.com/rotisserie/eris"
	"golang.org/x/text/language"

	"github.com/sells-group/billing-recon/internal/billing"
	"github.com/sells-group/billing-recon/internal/config"
)

// newEngine builds a pricing engine from config. A non-empty lang overrides
// report.lang.
func newEngine(c *config.Config, lang string) (*billing.Engine, error) {
	tag, err := c.Report.Language()
	if err != nil {
		return nil, err
	}
	if lang != "" {
		if tag, err = language.Parse(lang); err != nil {
			return nil, eris.Wrapf(err, "parse --lang %q", lang)
		}
	}

	unit, err := c.Report.CurrencyUnit()
	if err != nil {
		return nil, err
	}
	return billing.NewEngine(tag, unit), nil
}

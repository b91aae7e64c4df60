package billing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// currencySymbols holds the display symbol for the currencies we bill in.
// Anything else is shown by its ISO code.
var currencySymbols = map[string]string{
	"BRL": "R$",
	"USD": "US$",
	"EUR": "€",
}

// FormatMoney renders d in unit, rounded to the unit's standard scale and
// grouped according to lang.
func FormatMoney(lang language.Tag, unit currency.Unit, d decimal.Decimal) string {
	return formatMoney(message.NewPrinter(lang), unit, d)
}

func formatMoney(p *message.Printer, unit currency.Unit, d decimal.Decimal) string {
	scale, _ := currency.Standard.Rounding(unit)
	f := d.Round(int32(scale)).InexactFloat64()

	sym, ok := currencySymbols[unit.String()]
	if !ok {
		sym = unit.String()
	}
	return sym + " " + p.Sprint(number.Decimal(f, number.Scale(scale)))
}

package billing

import (
	"errors"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Explanation message keys. The keys double as the English text.
const (
	msgRuleNotFound = "contract rule not found"
	msgTieredFlat   = "fixed amount of %s up to %d employees"
	msgTieredExcess = "%s base + %d excess × %s"
	msgPerHead      = "%d billable × %s (minimum %d)"
	msgFlat         = "fixed monthly amount of %s"
	msgUnknownModel = "pricing model %q not recognized"
)

// DefaultLanguage is the locale explanations are written in when the caller
// does not pick one.
var DefaultLanguage = language.BrazilianPortuguese

// ptBR holds the Brazilian Portuguese explanation for every message key.
var ptBR = map[string]string{
	msgRuleNotFound: "Regra de contrato não encontrada",
	msgTieredFlat:   "Valor fixo de %s até %d funcionários",
	msgTieredExcess: "%s base + %d excedentes × %s",
	msgPerHead:      "%d faturáveis × %s (mínimo %d)",
	msgFlat:         "Valor mensal fixo de %s",
	msgUnknownModel: "Modelo de cobrança %q não reconhecido",
}

func init() {
	if err := registerMessages(language.BrazilianPortuguese, ptBR); err != nil {
		panic(err)
	}
}

// registerMessages adds msgs to the default catalog under tag.
func registerMessages(tag language.Tag, msgs map[string]string) error {
	var errs []error
	for key, msg := range msgs {
		if err := message.SetString(tag, key, msg); err != nil {
			errs = append(errs, eris.Wrapf(err, "billing: register %s message %q", tag, key))
		}
	}
	return errors.Join(errs...)
}

// Engine prices company records. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	lang language.Tag
	unit currency.Unit
}

// NewEngine creates an Engine that writes explanations in lang and formats
// money in unit.
func NewEngine(lang language.Tag, unit currency.Unit) *Engine {
	return &Engine{lang: lang, unit: unit}
}

var defaultEngine = NewEngine(DefaultLanguage, currency.BRL)

// Price prices c under rule using the default locale.
func Price(c CompanyRecord, rule *PricingRule) BillingResult {
	return defaultEngine.Price(c, rule)
}

// Language returns the locale the engine explains results in.
func (e *Engine) Language() language.Tag { return e.lang }

// Currency returns the unit the engine formats money in.
func (e *Engine) Currency() currency.Unit { return e.unit }

// Price computes the billed amount for c under rule. A nil rule yields a
// zero-amount StatusMissingRule result. Price never fails: negative or
// missing numbers count as 0.
func (e *Engine) Price(c CompanyRecord, rule *PricingRule) BillingResult {
	p := message.NewPrinter(e.lang)
	c = c.WithActiveCount(c.ActiveCount)

	if rule == nil {
		return BillingResult{
			Company:     c,
			Amount:      decimal.Zero,
			Explanation: p.Sprintf(msgRuleNotFound),
			Status:      StatusMissingRule,
		}
	}

	held := *rule
	held.Model = rule.Name()
	res := BillingResult{Company: c, Rule: &held, Status: StatusReady}
	money := func(d decimal.Decimal) string { return formatMoney(p, e.unit, d) }

	switch t := rule.Terms.(type) {
	case TieredTerms:
		base := nonNegative(t.Base)
		included := max(t.IncludedCount, 0)
		if c.ActiveCount <= included {
			res.Amount = base
			res.Explanation = p.Sprintf(msgTieredFlat, money(base), included)
			break
		}
		rate := nonNegative(t.ExcessUnitPrice)
		excess := c.ActiveCount - included
		res.Amount = base.Add(decimal.NewFromInt(int64(excess)).Mul(rate))
		res.Explanation = p.Sprintf(msgTieredExcess, money(base), excess, money(rate))

	case PerHeadTerms:
		rate := nonNegative(t.UnitPrice)
		minimum := max(t.MinimumCount, 0)
		billable := max(c.ActiveCount, minimum)
		res.Amount = decimal.NewFromInt(int64(billable)).Mul(rate)
		res.Explanation = p.Sprintf(msgPerHead, billable, money(rate), minimum)

	case FlatTerms:
		res.Amount = nonNegative(t.Monthly)
		res.Explanation = p.Sprintf(msgFlat, money(res.Amount))

	default:
		res.Amount = decimal.Zero
		res.Explanation = p.Sprintf(msgUnknownModel, string(rule.Model))
	}

	return res
}

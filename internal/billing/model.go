// Package billing joins company headcounts against pricing contracts and
// computes the amount to bill each company.
package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Model names a pricing formula.
type Model string

const (
	ModelTiered     Model = "TIERED"       // base fee plus per-head overage
	ModelPerHeadMin Model = "PER_HEAD_MIN" // per-head rate with a billable floor
	ModelFlat       Model = "FLAT"         // fixed monthly fee
)

// ParseModel matches s against the supported formulas ignoring case and
// surrounding space. Unrecognized names are returned trimmed but otherwise
// as written so that callers can report them.
func ParseModel(s string) Model {
	s = strings.TrimSpace(s)
	if m := Model(strings.ToUpper(s)); m.Known() {
		return m
	}
	return Model(s)
}

// Known reports whether m is one of the supported pricing formulas.
func (m Model) Known() bool {
	switch m {
	case ModelTiered, ModelPerHeadMin, ModelFlat:
		return true
	}
	return false
}

// Status describes the outcome of pricing one company.
type Status string

const (
	StatusReady       Status = "READY"
	StatusMissingRule Status = "MISSING_RULE"
)

// CompanyRecord is one billable company for the current period.
type CompanyRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ActiveCount int    `json:"active_count"`
}

// WithActiveCount returns a copy of c with its active count replaced.
// Negative counts become 0.
func (c CompanyRecord) WithActiveCount(n int) CompanyRecord {
	c.ActiveCount = max(n, 0)
	return c
}

// Terms is the model-specific payload of a PricingRule. Exactly one of
// TieredTerms, PerHeadTerms or FlatTerms.
type Terms interface {
	model() Model
}

// TieredTerms bills Base up to IncludedCount heads, then ExcessUnitPrice per
// extra head.
type TieredTerms struct {
	Base            decimal.Decimal `json:"base"`
	IncludedCount   int             `json:"included_count"`
	ExcessUnitPrice decimal.Decimal `json:"excess_unit_price"`
}

func (TieredTerms) model() Model { return ModelTiered }

// PerHeadTerms bills UnitPrice per head, never fewer than MinimumCount heads.
type PerHeadTerms struct {
	UnitPrice    decimal.Decimal `json:"unit_price"`
	MinimumCount int             `json:"minimum_count"`
}

func (PerHeadTerms) model() Model { return ModelPerHeadMin }

// FlatTerms bills a fixed monthly amount.
type FlatTerms struct {
	Monthly decimal.Decimal `json:"monthly"`
}

func (FlatTerms) model() Model { return ModelFlat }

// PricingRule is the contract for one company. Terms is nil when Model is
// not a recognized formula; otherwise Terms decides the formula.
type PricingRule struct {
	ID    string `json:"id"`
	Model Model  `json:"model"`
	Terms Terms  `json:"terms"`
}

// Name returns the formula the rule is priced with. Model is only consulted
// when there are no terms.
func (p PricingRule) Name() Model {
	if p.Terms != nil {
		return p.Terms.model()
	}
	return p.Model
}

// RuleRow is the flat tabular shape a contract arrives in. BasePrice is
// overloaded by model: the base fee for TIERED, the per-head rate for
// PER_HEAD_MIN and the monthly fee for FLAT.
type RuleRow struct {
	ID              string          `json:"identifier"`
	Model           string          `json:"model"`
	BasePrice       decimal.Decimal `json:"base_price"`
	IncludedCount   int             `json:"included_count"`
	ExcessUnitPrice decimal.Decimal `json:"excess_unit_price"`
	MinimumCount    int             `json:"minimum_count"`
}

// Rule converts the flat row into a PricingRule. Negative numbers become 0.
func (r RuleRow) Rule() PricingRule {
	m := ParseModel(r.Model)
	rule := PricingRule{ID: r.ID, Model: m}
	if !m.Known() {
		return rule
	}

	base := nonNegative(r.BasePrice)
	switch m {
	case ModelTiered:
		rule.Terms = TieredTerms{
			Base:            base,
			IncludedCount:   max(r.IncludedCount, 0),
			ExcessUnitPrice: nonNegative(r.ExcessUnitPrice),
		}
	case ModelPerHeadMin:
		rule.Terms = PerHeadTerms{
			UnitPrice:    base,
			MinimumCount: max(r.MinimumCount, 0),
		}
	case ModelFlat:
		rule.Terms = FlatTerms{Monthly: base}
	}
	return rule
}

// Row flattens the rule back into its tabular shape.
func (p PricingRule) Row() RuleRow {
	row := RuleRow{ID: p.ID, Model: string(p.Name())}
	switch t := p.Terms.(type) {
	case TieredTerms:
		row.BasePrice = t.Base
		row.IncludedCount = t.IncludedCount
		row.ExcessUnitPrice = t.ExcessUnitPrice
	case PerHeadTerms:
		row.BasePrice = t.UnitPrice
		row.MinimumCount = t.MinimumCount
	case FlatTerms:
		row.BasePrice = t.Monthly
	}
	return row
}

// BillingResult is the priced outcome for one company record.
type BillingResult struct {
	Company     CompanyRecord   `json:"company"`
	Rule        *PricingRule    `json:"rule,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Explanation string          `json:"explanation"`
	Status      Status          `json:"status"`
}

// Unrecognized reports whether the result matched a rule whose model is not
// a supported formula. Such results carry StatusReady with a zero amount.
func (r BillingResult) Unrecognized() bool {
	return r.Status == StatusReady && r.Rule != nil && r.Rule.Terms == nil
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

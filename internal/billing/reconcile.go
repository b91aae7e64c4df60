package billing

import "github.com/shopspring/decimal"

// IndexRules folds rules, in order, into a map keyed by normalized ID. When
// two rules normalize to the same ID the later one overwrites the earlier.
func IndexRules(rules []PricingRule) map[string]PricingRule {
	idx := make(map[string]PricingRule, len(rules))
	for _, r := range rules {
		idx[NormalizeID(r.ID)] = r
	}
	return idx
}

// Reconcile prices every record against rules using the default locale.
func Reconcile(records []CompanyRecord, rules []PricingRule) []BillingResult {
	return defaultEngine.Reconcile(records, rules)
}

// Reconcile returns one result per record, in record order. Records are
// matched to rules by normalized ID; unmatched records get
// StatusMissingRule.
func (e *Engine) Reconcile(records []CompanyRecord, rules []PricingRule) []BillingResult {
	idx := IndexRules(rules)

	out := make([]BillingResult, len(records))
	for i, rec := range records {
		var rule *PricingRule
		if r, ok := idx[NormalizeID(rec.ID)]; ok {
			rule = &r
		}
		out[i] = e.Price(rec, rule)
	}
	return out
}

// UpdateActiveCount re-prices results for id using the default locale.
func UpdateActiveCount(results []BillingResult, id string, newCount int) []BillingResult {
	return defaultEngine.UpdateActiveCount(results, id, newCount)
}

// UpdateActiveCount returns a copy of results where every result whose raw
// company ID equals id is re-priced with newCount against the rule it
// already holds. The rule set is not consulted again.
func (e *Engine) UpdateActiveCount(results []BillingResult, id string, newCount int) []BillingResult {
	out := make([]BillingResult, len(results))
	for i, r := range results {
		if r.Company.ID != id {
			out[i] = r
			continue
		}
		out[i] = e.Price(r.Company.WithActiveCount(newCount), r.Rule)
	}
	return out
}

// Totals aggregates a result set.
type Totals struct {
	Companies    int             `json:"companies"`
	Ready        int             `json:"ready"`
	Missing      int             `json:"missing"`
	Unrecognized int             `json:"unrecognized"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// Summarize counts results by status and sums the READY amounts.
func Summarize(results []BillingResult) Totals {
	t := Totals{Companies: len(results), Revenue: decimal.Zero}
	for _, r := range results {
		switch r.Status {
		case StatusReady:
			t.Ready++
			t.Revenue = t.Revenue.Add(r.Amount)
			if r.Unrecognized() {
				t.Unrecognized++
			}
		case StatusMissingRule:
			t.Missing++
		}
	}
	return t
}

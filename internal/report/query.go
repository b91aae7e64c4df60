// Package report sorts, filters, renders and exports billing results.
package report

import (
	"cmp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/sells-group/billing-recon/internal/billing"
)

// SortKey names a result column the table can be ordered by.
type SortKey string

const (
	SortID     SortKey = "id"
	SortName   SortKey = "name"
	SortActive SortKey = "active"
	SortModel  SortKey = "model"
	SortAmount SortKey = "amount"
	SortStatus SortKey = "status"
)

// ParseSortKey validates a user-supplied sort column. Empty means SortID.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case "":
		return SortID, nil
	case SortID, SortName, SortActive, SortModel, SortAmount, SortStatus:
		return k, nil
	}
	return "", eris.Errorf("report: unknown sort column %q", s)
}

// ParseStatus validates a user-supplied status filter. Empty matches every
// status.
func ParseStatus(s string) (billing.Status, error) {
	st := billing.Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case "", billing.StatusReady, billing.StatusMissingRule:
		return st, nil
	}
	return "", eris.Errorf("report: unknown status %q", s)
}

// Query is the table state: ordering plus filters.
type Query struct {
	SortBy SortKey
	Desc   bool
	Search string         // matches name or identifier, case-insensitive
	Status billing.Status // empty matches every status
}

// Apply returns a filtered, stably sorted copy of results.
func Apply(results []billing.BillingResult, q Query) []billing.BillingResult {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	digits := billing.NormalizeID(needle)

	out := make([]billing.BillingResult, 0, len(results))
	for _, r := range results {
		if q.Status != "" && r.Status != q.Status {
			continue
		}
		if needle != "" && !matches(r, needle, digits) {
			continue
		}
		out = append(out, r)
	}

	if q.SortBy == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b billing.BillingResult) int {
		c := compare(a, b, q.SortBy)
		if q.Desc {
			return -c
		}
		return c
	})
	return out
}

func matches(r billing.BillingResult, needle, digits string) bool {
	if strings.Contains(strings.ToLower(r.Company.Name), needle) ||
		strings.Contains(strings.ToLower(r.Company.ID), needle) {
		return true
	}
	return digits != "" && strings.Contains(billing.NormalizeID(r.Company.ID), digits)
}

func compare(a, b billing.BillingResult, key SortKey) int {
	switch key {
	case SortName:
		return cmp.Compare(strings.ToLower(a.Company.Name), strings.ToLower(b.Company.Name))
	case SortActive:
		return cmp.Compare(a.Company.ActiveCount, b.Company.ActiveCount)
	case SortModel:
		return cmp.Compare(modelOf(a), modelOf(b))
	case SortAmount:
		return a.Amount.Cmp(b.Amount)
	case SortStatus:
		return cmp.Compare(a.Status, b.Status)
	default:
		return cmp.Compare(a.Company.ID, b.Company.ID)
	}
}

func modelOf(r billing.BillingResult) string {
	if r.Rule == nil {
		return ""
	}
	return string(r.Rule.Name())
}

// Locale controls how money and messages are rendered.
type Locale struct {
	Lang     language.Tag
	Currency currency.Unit
}

// LocaleOf returns the locale an engine prices in.
func LocaleOf(e *billing.Engine) Locale {
	return Locale{Lang: e.Language(), Currency: e.Currency()}
}

// Money formats d as currency for this locale.
func (l Locale) Money(d decimal.Decimal) string {
	return billing.FormatMoney(l.Lang, l.Currency, d)
}

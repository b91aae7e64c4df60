package ingest

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/billing-recon/internal/billing"
)

// Column positions. Company rows: identifier, name, activeCount.
// Pricing rows: identifier, model, basePrice, includedCount,
// excessUnitPrice, minimumCount.
const (
	colID = iota
	colName
	colActive
)

const (
	ruleColID = iota
	ruleColModel
	ruleColBase
	ruleColIncluded
	ruleColExcess
	ruleColMinimum
)

// ParseCompanies maps positional rows to company records. Rows without an
// identifier are dropped; unreadable counts become 0.
func ParseCompanies(rows [][]string) []billing.CompanyRecord {
	out := make([]billing.CompanyRecord, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		id := col(row, colID)
		if id == "" {
			dropped++
			continue
		}
		out = append(out, billing.CompanyRecord{
			ID:          id,
			Name:        col(row, colName),
			ActiveCount: ParseCount(col(row, colActive)),
		})
	}
	if dropped > 0 {
		zap.L().Debug("ingest: dropped company rows without identifier", zap.Int("dropped", dropped))
	}
	return out
}

// ParseRules maps positional rows to pricing rules. Rows without an
// identifier are dropped; unreadable numbers become 0.
func ParseRules(rows [][]string) []billing.PricingRule {
	out := make([]billing.PricingRule, 0, len(rows))
	for _, row := range rows {
		id := col(row, ruleColID)
		if id == "" {
			continue
		}
		out = append(out, billing.RuleRow{
			ID:              id,
			Model:           col(row, ruleColModel),
			BasePrice:       ParseNumber(col(row, ruleColBase)),
			IncludedCount:   ParseCount(col(row, ruleColIncluded)),
			ExcessUnitPrice: ParseNumber(col(row, ruleColExcess)),
			MinimumCount:    ParseCount(col(row, ruleColMinimum)),
		}.Rule())
	}
	return out
}

// LoadCompanies reads a company headcount file.
func LoadCompanies(path string, opts Options) ([]billing.CompanyRecord, error) {
	rows, err := ReadRows(path, opts)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: load companies")
	}
	return ParseCompanies(rows), nil
}

// LoadRules reads a pricing contract file. YAML files are decoded by field
// name, everything else positionally.
func LoadRules(path string, opts Options) ([]billing.PricingRule, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadRulesYAML(path)
	}

	rows, err := ReadRows(path, opts)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: load rules")
	}
	return ParseRules(rows), nil
}

// yamlRule mirrors billing.RuleRow with string numerics so that locale
// formatted amounts survive decoding.
type yamlRule struct {
	ID              string `yaml:"identifier"`
	Model           string `yaml:"model"`
	BasePrice       string `yaml:"base_price"`
	IncludedCount   string `yaml:"included_count"`
	ExcessUnitPrice string `yaml:"excess_unit_price"`
	MinimumCount    string `yaml:"minimum_count"`
}

// LoadRulesYAML reads contracts from a YAML file with a top-level "rules"
// list.
func LoadRulesYAML(path string) ([]billing.PricingRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read rules %s", path)
	}

	var doc struct {
		Rules []yamlRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "ingest: parse rules yaml")
	}

	rows := make([][]string, 0, len(doc.Rules))
	for _, r := range doc.Rules {
		rows = append(rows, []string{
			strings.TrimSpace(r.ID), r.Model, r.BasePrice,
			r.IncludedCount, r.ExcessUnitPrice, r.MinimumCount,
		})
	}
	return ParseRules(rows), nil
}

// ParseNumber reads a money or count cell leniently. It accepts "129",
// "129.50", "129,50", "1.234,56", "1,234.56" and a leading currency symbol.
// A single '.' followed by exactly three digits groups thousands, as in
// pt-BR "R$ 2.000". Anything unreadable is 0.
func ParseNumber(s string) decimal.Decimal {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		}
		return -1
	}, s)
	if s == "" {
		return decimal.Zero
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1, groupsThousands(s, lastDot):
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// groupsThousands reports whether the single '.' at dot separates a leading
// group of one to three digits from exactly three more, as in "2.000".
func groupsThousands(s string, dot int) bool {
	if dot < 0 || len(s)-dot != 4 {
		return false
	}
	head := strings.TrimPrefix(s[:dot], "-")
	return len(head) >= 1 && len(head) <= 3 && head[0] != '0'
}

// ParseCount reads a headcount cell. Fractions are truncated, negative or
// unreadable values are 0 and values beyond int range saturate.
func ParseCount(s string) int {
	d := ParseNumber(s).Truncate(0)
	switch {
	case d.IsNegative():
		return 0
	case d.GreaterThan(maxCount):
		return math.MaxInt
	}
	return int(d.IntPart())
}

var maxCount = decimal.NewFromInt(math.MaxInt)

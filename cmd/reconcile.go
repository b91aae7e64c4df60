package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/billing-recon/internal/billing"
	"github.com/sells-group/billing-recon/internal/ingest"
	"github.com/sells-group/billing-recon/internal/report"
	"github.com/sells-group/billing-recon/internal/summary"
	"github.com/sells-group/billing-recon/pkg/anthropic"
)

type reconcileOptions struct {
	CompaniesPath string
	RulesPath     string
	SortBy        string
	Desc          bool
	Search        string
	Status        string
	Sets          []string
	CSVOut        string
	XLSXOut       string
	Summary       bool
	Lang          string
}

var reconcileOpts reconcileOptions

// newSummaryClient is swapped in tests.
var newSummaryClient = func(key string) anthropic.Client {
	return anthropic.NewClient(key)
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Price every company against its contract and render the results",
	Long: `Reads a company headcount table and a pricing contract table, joins them by
normalized identifier and prices each company.

Company rows:  identifier, name, activeCount
Contract rows: identifier, model, basePrice, includedCount, excessUnitPrice, minimumCount

Examples:
  # Render the table sorted by amount
  billing-recon reconcile --companies empresas.csv --rules contratos.xlsx --sort amount --desc

  # Apply an inline edit and export
  billing-recon reconcile --companies empresas.csv --rules contratos.yaml \
    --set 12.345.678/0001-90=42 --csv-out faturamento.csv`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReconcile(cmd.Context(), cmd.OutOrStdout(), reconcileOpts)
	},
}

func runReconcile(ctx context.Context, out io.Writer, opts reconcileOptions) error {
	mode := "reconcile"
	if opts.Summary || cfg.Summary.Enabled {
		mode = "summary"
	}
	if err := cfg.Validate(mode); err != nil {
		return err
	}

	log := zap.L().With(zap.String("run_id", uuid.NewString()))

	engine, err := newEngine(cfg, opts.Lang)
	if err != nil {
		return err
	}
	query, err := buildQuery(opts)
	if err != nil {
		return err
	}
	edits, err := parseEdits(opts.Sets)
	if err != nil {
		return err
	}

	records, rules, err := loadInputs(ctx, opts.CompaniesPath, opts.RulesPath)
	if err != nil {
		return err
	}
	log.Info("inputs loaded",
		zap.Int("companies", len(records)),
		zap.Int("rules", len(rules)),
	)

	results := engine.Reconcile(records, rules)
	for _, e := range edits {
		if !hasCompany(results, e.id) {
			log.Warn("edit matches no company", zap.String("identifier", e.id))
			continue
		}
		results = engine.UpdateActiveCount(results, e.id, e.count)
		log.Info("active count updated", zap.String("identifier", e.id), zap.Int("active", e.count))
	}

	totals := billing.Summarize(results)
	if totals.Unrecognized > 0 {
		log.Warn("contracts with unrecognized pricing model billed as zero",
			zap.Int("count", totals.Unrecognized),
		)
	}
	log.Info("reconciliation complete",
		zap.Int("ready", totals.Ready),
		zap.Int("missing_rule", totals.Missing),
		zap.String("revenue", totals.Revenue.StringFixed(2)),
	)

	loc := report.LocaleOf(engine)
	view := report.Apply(results, query)
	if err := report.WriteTable(out, view, totals, loc); err != nil {
		return err
	}

	if opts.CSVOut != "" {
		if err := exportCSV(opts.CSVOut, view, loc); err != nil {
			return err
		}
		log.Info("csv exported", zap.String("path", opts.CSVOut), zap.Int("rows", len(view)))
	}
	if opts.XLSXOut != "" {
		if err := report.WriteXLSX(opts.XLSXOut, view); err != nil {
			return err
		}
		log.Info("xlsx exported", zap.String("path", opts.XLSXOut), zap.Int("rows", len(view)))
	}

	if mode == "summary" {
		temp := cfg.Anthropic.Temperature
		s := summary.New(newSummaryClient(cfg.Anthropic.Key), summary.Options{
			Model:       cfg.Anthropic.Model,
			MaxTokens:   cfg.Anthropic.MaxTokens,
			Temperature: &temp,
			SampleSize:  cfg.Report.SampleSize,
			Fallback:    cfg.Summary.Fallback,
			Locale:      loc,
		})
		_, _ = fmt.Fprintf(out, "\nSummary:\n%s\n", s.Summarize(ctx, results))
	}

	return nil
}

// loadInputs reads both tables concurrently.
func loadInputs(ctx context.Context, companiesPath, rulesPath string) ([]billing.CompanyRecord, []billing.PricingRule, error) {
	opts := ingest.Options{
		HasHeader: cfg.Input.HasHeader,
		Delimiter: cfg.Input.DelimiterRune(),
		SheetName: cfg.Input.Sheet,
	}

	var (
		records []billing.CompanyRecord
		rules   []billing.PricingRule
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = ingest.LoadCompanies(companiesPath, opts)
		return err
	})
	g.Go(func() error {
		var err error
		rules, err = ingest.LoadRules(rulesPath, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrap(err, "reconcile: load inputs")
	}
	return records, rules, nil
}

func buildQuery(opts reconcileOptions) (report.Query, error) {
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = cfg.Report.SortBy
	}
	key, err := report.ParseSortKey(sortBy)
	if err != nil {
		return report.Query{}, err
	}
	status, err := report.ParseStatus(opts.Status)
	if err != nil {
		return report.Query{}, err
	}
	return report.Query{SortBy: key, Desc: opts.Desc, Search: opts.Search, Status: status}, nil
}

type edit struct {
	id    string
	count int
}

// parseEdits reads --set values of the form IDENTIFIER=COUNT. The split is
// on the last '=' so identifiers may contain any punctuation.
func parseEdits(sets []string) ([]edit, error) {
	edits := make([]edit, 0, len(sets))
	for _, s := range sets {
		i := strings.LastIndex(s, "=")
		if i <= 0 {
			return nil, eris.Errorf("invalid --set %q: want IDENTIFIER=COUNT", s)
		}
		n, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
		if err != nil || n < 0 {
			return nil, eris.Errorf("invalid --set %q: count must be a non-negative integer", s)
		}
		edits = append(edits, edit{id: strings.TrimSpace(s[:i]), count: n})
	}
	return edits, nil
}

func hasCompany(results []billing.BillingResult, id string) bool {
	for _, r := range results {
		if r.Company.ID == id {
			return true
		}
	}
	return false
}

func exportCSV(path string, results []billing.BillingResult, loc report.Locale) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "reconcile: create csv")
	}
	defer f.Close()

	return report.WriteCSV(f, results, loc)
}

func init() {
	f := reconcileCmd.Flags()
	f.StringVar(&reconcileOpts.CompaniesPath, "companies", "", "company headcount file: .csv or .xlsx (required)")
	f.StringVar(&reconcileOpts.RulesPath, "rules", "", "pricing contract file: .csv, .xlsx or .yaml (required)")
	f.StringVar(&reconcileOpts.SortBy, "sort", "", "sort column: id, name, active, model, amount, status (default from config)")
	f.BoolVar(&reconcileOpts.Desc, "desc", false, "sort descending")
	f.StringVar(&reconcileOpts.Search, "search", "", "show only companies whose name or identifier contains this text")
	f.StringVar(&reconcileOpts.Status, "status", "", "show only READY or MISSING_RULE results")
	f.StringArrayVar(&reconcileOpts.Sets, "set", nil, "override an active count, IDENTIFIER=COUNT (repeatable)")
	f.StringVar(&reconcileOpts.CSVOut, "csv-out", "", "write the displayed rows to a CSV file")
	f.StringVar(&reconcileOpts.XLSXOut, "xlsx-out", "", "write the displayed rows to an XLSX file")
	f.BoolVar(&reconcileOpts.Summary, "summary", false, "append an LLM-written summary")
	f.StringVar(&reconcileOpts.Lang, "lang", "", "explanation language, e.g. pt-BR or en (default from config)")
	_ = reconcileCmd.MarkFlagRequired("companies")
	_ = reconcileCmd.MarkFlagRequired("rules")
	rootCmd.AddCommand(reconcileCmd)
}

// Package summary asks an LLM for a short natural-language reading of a
// billing run.
package summary

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/billing-recon/internal/billing"
	"github.com/sells-group/billing-recon/internal/report"
	"github.com/sells-group/billing-recon/pkg/anthropic"
)

// DefaultFallback is returned when no summary could be produced.
const DefaultFallback = "Summary unavailable."

const systemPrompt = "You are a billing analyst. Summarize monthly billing results for a finance team " +
	"in at most five sentences. Mention total revenue, the largest accounts and anything unusual. " +
	"Do not invent numbers that are not in the data."

// Options configures a Summarizer.
type Options struct {
	Model       string
	MaxTokens   int64
	Temperature *float64 // nil leaves the API default
	SampleSize  int
	Fallback    string
	Locale      report.Locale
}

// Summarizer produces LLM summaries of billing results.
type Summarizer struct {
	client anthropic.Client
	opts   Options
}

// New creates a Summarizer. Zero option values fall back to defaults.
func New(client anthropic.Client, opts Options) *Summarizer {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = 10
	}
	if opts.Fallback == "" {
		opts.Fallback = DefaultFallback
	}
	return &Summarizer{client: client, opts: opts}
}

// Summarize returns the model's summary of results. It never fails: any
// error or empty answer yields the fallback text.
func (s *Summarizer) Summarize(ctx context.Context, results []billing.BillingResult) string {
	prompt, ok := BuildPrompt(results, s.opts.Locale, s.opts.SampleSize)
	if !ok {
		return s.opts.Fallback
	}

	resp, err := s.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       s.opts.Model,
		MaxTokens:   s.opts.MaxTokens,
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		zap.L().Warn("summary: llm request failed", zap.Error(err))
		return s.opts.Fallback
	}
	resp.Usage.LogCost(s.opts.Model, "summary")

	text := resp.Text()
	if text == "" {
		zap.L().Warn("summary: llm returned no text", zap.String("stop_reason", resp.StopReason))
		return s.opts.Fallback
	}
	return text
}

// BuildPrompt renders the READY results as prompt text: totals followed by
// the sampleSize highest-billed rows. It reports false when there is
// nothing to summarize.
func BuildPrompt(results []billing.BillingResult, loc report.Locale, sampleSize int) (string, bool) {
	ready := report.Apply(results, report.Query{
		Status: billing.StatusReady,
		SortBy: report.SortAmount,
		Desc:   true,
	})
	if len(ready) == 0 {
		return "", false
	}
	totals := billing.Summarize(ready)

	var b strings.Builder
	fmt.Fprintf(&b, "Respond in the language with BCP 47 tag %s.\n\n", loc.Lang)
	fmt.Fprintf(&b, "Billed companies: %d\n", totals.Ready)
	fmt.Fprintf(&b, "Total revenue: %s\n", loc.Money(totals.Revenue))
	if totals.Unrecognized > 0 {
		fmt.Fprintf(&b, "Companies with an unrecognized pricing model (billed 0): %d\n", totals.Unrecognized)
	}

	n := min(sampleSize, len(ready))
	fmt.Fprintf(&b, "\nTop %d companies by amount:\n", n)
	b.WriteString("identifier | company | active employees | model | amount | explanation\n")
	for _, r := range ready[:n] {
		model := ""
		if r.Rule != nil {
			model = string(r.Rule.Name())
		}
		fmt.Fprintf(&b, "%s | %s | %d | %s | %s | %s\n",
			r.Company.ID, r.Company.Name, r.Company.ActiveCount, model,
			loc.Money(r.Amount), r.Explanation)
	}
	return b.String(), true
}

package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/billing-recon/pkg/anthropic"
)

// mockClient implements anthropic.Client for testing.
type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

const (
	companiesCSV = `identifier,name,activeCount
12.345.678/0001-90,Acme,15
2,Beta,3
3,Gamma,4
`
	rulesCSV = `identifier,model,basePrice,includedCount,excessUnitPrice,minimumCount
12345678000190,TIERED,100,10,5.80,0
2,PER_HEAD_MIN,10,0,0,5
`
)

func writeInputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	companies := filepath.Join(dir, "companies.csv")
	rules := filepath.Join(dir, "rules.csv")
	require.NoError(t, os.WriteFile(companies, []byte(companiesCSV), 0o644))
	require.NoError(t, os.WriteFile(rules, []byte(rulesCSV), 0o644))
	return companies, rules
}

func TestRunReconcile_Table(t *testing.T) {
	cfg = testConfig()
	companies, rules := writeInputs(t)

	var buf bytes.Buffer
	err := runReconcile(context.Background(), &buf, reconcileOptions{CompaniesPath: companies, RulesPath: rules})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "US$ 129.00")
	assert.Contains(t, out, "US$ 50.00")
	assert.Contains(t, out, "MISSING_RULE")
	assert.Contains(t, out, "contract rule not found")
	assert.Contains(t, out, "US$ 179.00")
	assert.NotContains(t, out, "Summary:")
}

func TestRunReconcile_EditsAndFilters(t *testing.T) {
	cfg = testConfig()
	companies, rules := writeInputs(t)

	var buf bytes.Buffer
	err := runReconcile(context.Background(), &buf, reconcileOptions{
		CompaniesPath: companies,
		RulesPath:     rules,
		Status:        "ready",
		Sets:          []string{"12.345.678/0001-90=20", "999=1"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "US$ 158.00", "edit reprices under the held rule")
	assert.NotContains(t, out, "Gamma", "status filter hides missing-rule rows")
	assert.Contains(t, out, "US$ 208.00", "totals cover every result")
}

func TestRunReconcile_EditByNormalizedIDIsIgnored(t *testing.T) {
	cfg = testConfig()
	companies, rules := writeInputs(t)

	var buf bytes.Buffer
	err := runReconcile(context.Background(), &buf, reconcileOptions{
		CompaniesPath: companies,
		RulesPath:     rules,
		Sets:          []string{"12345678000190=20"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "US$ 129.00")
	assert.NotContains(t, buf.String(), "US$ 158.00")
}

func TestRunReconcile_Exports(t *testing.T) {
	cfg = testConfig()
	companies, rules := writeInputs(t)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "out.csv")
	xlsxPath := filepath.Join(dir, "out.xlsx")

	err := runReconcile(context.Background(), &bytes.Buffer{}, reconcileOptions{
		CompaniesPath: companies,
		RulesPath:     rules,
		SortBy:        "amount",
		Desc:          true,
		CSVOut:        csvPath,
		XLSXOut:       xlsxPath,
	})
	require.NoError(t, err)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "12.345.678/0001-90", rows[1][0])
	assert.Equal(t, "Gamma", rows[3][1])

	book, err := xlsx.OpenFile(xlsxPath)
	require.NoError(t, err)
	sheet, ok := book.Sheet["Billing"]
	require.True(t, ok)
	assert.Len(t, sheet.Rows, 4)
}

func TestRunReconcile_Summary(t *testing.T) {
	cfg = testConfig()
	cfg.Anthropic.Key = "sk-ant-test"
	companies, rules := writeInputs(t)

	mc := new(mockClient)
	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.MaxTokens == 512 &&
			req.Temperature != nil && *req.Temperature == 0.2 &&
			len(req.Messages) == 1 && strings.Contains(req.Messages[0].Content, "Acme")
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "Acme leads revenue."}},
	}, nil)

	orig := newSummaryClient
	newSummaryClient = func(key string) anthropic.Client {
		assert.Equal(t, "sk-ant-test", key)
		return mc
	}
	t.Cleanup(func() { newSummaryClient = orig })

	var buf bytes.Buffer
	err := runReconcile(context.Background(), &buf, reconcileOptions{CompaniesPath: companies, RulesPath: rules, Summary: true})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Summary:\nAcme leads revenue.")
	mc.AssertExpectations(t)
}

func TestRunReconcile_SummaryFallback(t *testing.T) {
	cfg = testConfig()
	cfg.Anthropic.Key = "sk-ant-test"
	cfg.Summary.Enabled = true
	companies, rules := writeInputs(t)

	mc := new(mockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	orig := newSummaryClient
	newSummaryClient = func(string) anthropic.Client { return mc }
	t.Cleanup(func() { newSummaryClient = orig })

	var buf bytes.Buffer
	err := runReconcile(context.Background(), &buf, reconcileOptions{CompaniesPath: companies, RulesPath: rules})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Summary unavailable.")
}

func TestRunReconcile_SummaryRequiresKey(t *testing.T) {
	cfg = testConfig()
	companies, rules := writeInputs(t)

	err := runReconcile(context.Background(), &bytes.Buffer{}, reconcileOptions{CompaniesPath: companies, RulesPath: rules, Summary: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestRunReconcile_Errors(t *testing.T) {
	cfg = testConfig()
	companies, rules := writeInputs(t)

	tests := []struct {
		name string
		opts reconcileOptions
		want string
	}{
		{"bad sort", reconcileOptions{CompaniesPath: companies, RulesPath: rules, SortBy: "revenue"}, "unknown sort column"},
		{"bad status", reconcileOptions{CompaniesPath: companies, RulesPath: rules, Status: "paid"}, "status"},
		{"bad edit", reconcileOptions{CompaniesPath: companies, RulesPath: rules, Sets: []string{"2=many"}}, "invalid --set"},
		{"missing file", reconcileOptions{CompaniesPath: filepath.Join(t.TempDir(), "nope.csv"), RulesPath: rules}, "reconcile: load inputs"},
		{"unsupported type", reconcileOptions{CompaniesPath: companies, RulesPath: "rules.pdf"}, "unsupported file type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runReconcile(context.Background(), &bytes.Buffer{}, tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseEdits(t *testing.T) {
	edits, err := parseEdits([]string{"12.345.678/0001-90=42", " a=b = 7 "})
	require.NoError(t, err)
	require.Len(t, edits, 2)
	assert.Equal(t, edit{id: "12.345.678/0001-90", count: 42}, edits[0])
	assert.Equal(t, edit{id: "a=b", count: 7}, edits[1])

	for _, bad := range []string{"=3", "noequals", "1=-2", "1="} {
		_, err := parseEdits([]string{bad})
		assert.Error(t, err, bad)
	}
}

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/billing-recon/internal/billing"
)

// exportColumns defines the ordered CSV and XLSX output columns.
var exportColumns = []string{
	"Identifier",
	"Company",
	"Active",
	"Model",
	"Base Price",
	"Amount",
	"Status",
	"Explanation",
}

const moneyFormat = "#,##0.00"

// WriteTable renders results and their totals as an aligned text table.
func WriteTable(out io.Writer, results []billing.BillingResult, totals billing.Totals, loc Locale) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCOMPANY\tACTIVE\tMODEL\tAMOUNT\tSTATUS\tDETAIL")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t-----\t------\t------\t------")

	for _, r := range results {
		status := string(r.Status)
		if r.Unrecognized() {
			status += "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.Company.ID,
			truncate(r.Company.Name, 40),
			r.Company.ActiveCount,
			modelOf(r),
			loc.Money(r.Amount),
			status,
			r.Explanation,
		)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Companies:\t%d\n", totals.Companies)
	_, _ = fmt.Fprintf(w, "Ready:\t%d\n", totals.Ready)
	_, _ = fmt.Fprintf(w, "Missing rule:\t%d\n", totals.Missing)
	if totals.Unrecognized > 0 {
		_, _ = fmt.Fprintf(w, "Unrecognized model (*):\t%d\n", totals.Unrecognized)
	}
	_, _ = fmt.Fprintf(w, "Total revenue:\t%s\n", loc.Money(totals.Revenue))

	return eris.Wrap(w.Flush(), "report: flush table")
}

// WriteCSV writes one row per result with money formatted as currency.
func WriteCSV(out io.Writer, results []billing.BillingResult, loc Locale) error {
	w := csv.NewWriter(out)

	if err := w.Write(exportColumns); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, r := range results {
		row := []string{
			r.Company.ID,
			r.Company.Name,
			strconv.Itoa(r.Company.ActiveCount),
			modelOf(r),
			"",
			loc.Money(r.Amount),
			string(r.Status),
			r.Explanation,
		}
		if r.Rule != nil {
			row[4] = loc.Money(r.Rule.Row().BasePrice)
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "report: flush csv")
}

// WriteXLSX saves results to an XLSX workbook at path. Money columns are
// numeric cells with a currency number format.
func WriteXLSX(path string, results []billing.BillingResult) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Billing")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range exportColumns {
		header.AddCell().SetString(c)
	}

	for _, r := range results {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Company.ID)
		row.AddCell().SetString(r.Company.Name)
		row.AddCell().SetInt(r.Company.ActiveCount)
		row.AddCell().SetString(modelOf(r))

		base := row.AddCell()
		if r.Rule != nil {
			base.SetFloatWithFormat(r.Rule.Row().BasePrice.InexactFloat64(), moneyFormat)
		}
		row.AddCell().SetFloatWithFormat(r.Amount.Round(2).InexactFloat64(), moneyFormat)
		row.AddCell().SetString(string(r.Status))
		row.AddCell().SetString(r.Explanation)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save xlsx %s", path)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

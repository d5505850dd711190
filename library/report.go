package library

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// StatusRow is one line of the library status report.
type StatusRow struct {
	BookID       string
	BookName     string
	Author       string
	Status       string
	BorrowerID   string
	BorrowerName string
	DueDate      string
	Quantity     int
}

var statusHeaders = []string{"Book ID", "Book Name", "Author", "Status", "Borrower ID", "Borrower Name", "Due Date", "Current Stock"}

func (r StatusRow) cells() []string {
	return []string{r.BookID, r.BookName, r.Author, r.Status, r.BorrowerID, r.BorrowerName, r.DueDate, strconv.Itoa(r.Quantity)}
}

// StatusRows joins every title with its borrower's name.
func (d *Database) StatusRows(ctx context.Context) ([]StatusRow, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT L.BK_ID, L.BK_NAME, L.AUTHOR_NAME, L.BK_STATUS, L.CARD_ID, S.NAME, L.DUE_DATE, L.QUANTITY
        FROM Library L
        LEFT JOIN Students S ON L.CARD_ID = S.STUDENT_ID
        ORDER BY L.BK_ID`)
	if err != nil {
		return nil, external("status report", err)
	}
	defer rows.Close()

	out := []StatusRow{}
	for rows.Next() {
		var (
			r    StatusRow
			name sql.NullString
		)
		if err := rows.Scan(&r.BookID, &r.BookName, &r.Author, &r.Status, &r.BorrowerID, &name, &r.DueDate, &r.Quantity); err != nil {
			return nil, external("scan status row", err)
		}
		r.BorrowerName = name.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, external("status report", err)
	}
	return out, nil
}

// WriteStatusCSV writes the library status report: three banner lines, a
// blank line, the header and one row per title.
func WriteStatusCSV(w io.Writer, rows []StatusRow, generated time.Time) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		{"LIBRARY STATUS REPORT"},
		{"Generated on: " + generated.Format(timestampLayout)},
		{fmt.Sprintf("Total Records: %d", len(rows))},
		{},
		statusHeaders,
	}
	for _, r := range rows {
		records = append(records, r.cells())
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write status report: %w", err)
	}
	return nil
}

// WriteStatusXLSX writes the same report as a single-sheet workbook.
func WriteStatusXLSX(w io.Writer, rows []StatusRow, generated time.Time) error {
	const sheet = "Library Status"
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	banner := [][]any{
		{"LIBRARY STATUS REPORT"},
		{"Generated on: " + generated.Format(timestampLayout)},
		{fmt.Sprintf("Total Records: %d", len(rows))},
		{},
		toAny(statusHeaders),
	}
	for _, r := range rows {
		banner = append(banner, []any{r.BookID, r.BookName, r.Author, r.Status, r.BorrowerID, r.BorrowerName, r.DueDate, r.Quantity})
	}
	for i, values := range banner {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("xlsx cell: %w", err)
		}
		row := values
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+1, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// WriteFinancialCSV writes the financial summary followed by budget status.
func WriteFinancialCSV(w io.Writer, r *FinancialReport, generated time.Time) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		{"FINANCIAL REPORT"},
		{fmt.Sprintf("Period: %s to %s", r.Start, r.End)},
		{"Generated on: " + generated.Format(timestampLayout)},
		{},
		{"SUMMARY"},
		{"Total Fees Collected", money(r.TotalFees())},
		{"Total Expenses", money(r.TotalExpenses())},
		{"Total Donations", money(r.Donations)},
		{"Net Balance", money(r.NetBalance())},
		{},
		{"FEES BY TYPE"},
		{"Fee Type", "Status", "Payments", "Amount"},
	}
	for _, f := range r.Fees {
		records = append(records, []string{f.FeeType, f.Status, strconv.Itoa(f.Count), money(f.Total)})
	}
	records = append(records, []string{}, []string{"EXPENSES BY CATEGORY"}, []string{"Category", "Entries", "Amount"})
	for _, e := range r.Expenses {
		records = append(records, []string{e.Category, strconv.Itoa(e.Count), money(e.Total)})
	}
	records = append(records, []string{}, []string{"BUDGET STATUS"}, []string{"Category", "Allocated", "Spent", "Remaining", "Utilization %"})
	for _, b := range r.Budgets {
		records = append(records, []string{
			b.Category,
			strconv.FormatFloat(b.Allocated, 'f', 2, 64),
			strconv.FormatFloat(b.Spent, 'f', 2, 64),
			strconv.FormatFloat(b.Remaining(), 'f', 2, 64),
			fmt.Sprintf("%.1f%%", b.Utilization()),
		})
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write financial report: %w", err)
	}
	return nil
}

func money(v float64) string {
	return "Rs." + strconv.FormatFloat(v, 'f', 2, 64)
}

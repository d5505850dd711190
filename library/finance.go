package library

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PaymentCompleted = "Completed"
	DefaultMode      = "Cash"
)

type FeeStructure struct {
	ID           int64   `json:"id"`
	FeeType      string  `json:"fee_type" validate:"required"`
	Amount       float64 `json:"amount" validate:"gt=0"`
	DueDate      string  `json:"due_date" validate:"required,datetime=2006-01-02"`
	ApplicableTo string  `json:"applicable_to"`
	AcademicYear string  `json:"academic_year"`
}

type FeePayment struct {
	ID            int64   `json:"id"`
	StudentID     string  `json:"student_id" validate:"required"`
	FeeType       string  `json:"fee_type" validate:"required"`
	AmountPaid    float64 `json:"amount_paid" validate:"gt=0"`
	PaymentDate   string  `json:"payment_date"`
	PaymentMode   string  `json:"payment_mode"`
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
}

type Expense struct {
	ID          int64   `json:"id"`
	Category    string  `json:"category" validate:"required"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Description string  `json:"description"`
	ExpenseDate string  `json:"expense_date"`
	PaymentMode string  `json:"payment_mode"`
	ReceiptNo   string  `json:"receipt_no"`
	ApprovedBy  string  `json:"approved_by"`
}

type Donation struct {
	ID           int64   `json:"id"`
	DonorName    string  `json:"donor_name" validate:"required"`
	Amount       float64 `json:"amount" validate:"gt=0"`
	DonationDate string  `json:"donation_date"`
	Purpose      string  `json:"purpose"`
	PaymentMode  string  `json:"payment_mode"`
	ReceiptNo    string  `json:"receipt_no"`
	Notes        string  `json:"notes"`
}

// Budget is one category's allocation for a fiscal year.
type Budget struct {
	ID         int64   `json:"id"`
	Category   string  `json:"category" validate:"required"`
	Allocated  float64 `json:"allocated" validate:"gte=0"`
	Spent      float64 `json:"spent"`
	FiscalYear string  `json:"fiscal_year" validate:"required"`
	StartDate  string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string  `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (b Budget) Remaining() float64 { return b.Allocated - b.Spent }

// Utilization is the spent share in percent, 0 for an empty allocation.
func (b Budget) Utilization() float64 {
	if b.Allocated <= 0 {
		return 0
	}
	return b.Spent / b.Allocated * 100
}

// FeeLine, ExpenseLine and the totals make up a FinancialReport.
type FeeLine struct {
	FeeType string  `json:"fee_type"`
	Status  string  `json:"status"`
	Count   int     `json:"count"`
	Total   float64 `json:"total"`
}

type ExpenseLine struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Total    float64 `json:"total"`
}

type FinancialReport struct {
	Start         string        `json:"start"`
	End           string        `json:"end"`
	Fees          []FeeLine     `json:"fees"`
	Expenses      []ExpenseLine `json:"expenses"`
	DonationCount int           `json:"donation_count"`
	Donations     float64       `json:"donations"`
	Budgets       []Budget      `json:"budgets"`
}

func (r *FinancialReport) TotalFees() float64 {
	var t float64
	for _, f := range r.Fees {
		t += f.Total
	}
	return t
}

func (r *FinancialReport) TotalExpenses() float64 {
	var t float64
	for _, e := range r.Expenses {
		t += e.Total
	}
	return t
}

// NetBalance is fees plus donations minus expenses.
func (r *FinancialReport) NetBalance() float64 {
	return r.TotalFees() + r.Donations - r.TotalExpenses()
}

// ---------------------------------------------------------------------------
// Fees
// ---------------------------------------------------------------------------

func (d *Database) AddFeeStructure(ctx context.Context, f FeeStructure, now time.Time) (int64, error) {
	if f.ApplicableTo == "" {
		f.ApplicableTo = "All"
	}
	if f.AcademicYear == "" {
		f.AcademicYear = strconv.Itoa(now.Year())
	}
	if err := validateStruct(f); err != nil {
		return 0, err
	}
	res, err := d.db.ExecContext(ctx, `INSERT INTO FeeStructure(FEE_TYPE, AMOUNT, DUE_DATE, APPLICABLE_TO, ACADEMIC_YEAR) VALUES(?,?,?,?,?)`,
		f.FeeType, f.Amount, f.DueDate, f.ApplicableTo, f.AcademicYear)
	if err != nil {
		return 0, external("add fee structure", err)
	}
	return res.LastInsertId()
}

func (d *Database) FeeStructures(ctx context.Context) ([]*FeeStructure, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT FEE_ID, FEE_TYPE, AMOUNT, DUE_DATE, APPLICABLE_TO, ACADEMIC_YEAR
        FROM FeeStructure ORDER BY DUE_DATE, FEE_ID`)
	if err != nil {
		return nil, external("fee structures", err)
	}
	defer rows.Close()

	out := []*FeeStructure{}
	for rows.Next() {
		var f FeeStructure
		if err := rows.Scan(&f.ID, &f.FeeType, &f.Amount, &f.DueDate, &f.ApplicableTo, &f.AcademicYear); err != nil {
			return nil, external("scan fee structure", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// RecordFeePayment stores a completed payment by an existing student.
func (d *Database) RecordFeePayment(ctx context.Context, p FeePayment, now time.Time) (*FeePayment, error) {
	if p.PaymentMode == "" {
		p.PaymentMode = DefaultMode
	}
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	if _, err := d.GetStudent(ctx, p.StudentID); err != nil {
		return nil, err
	}
	p.PaymentDate = now.Format(DateLayout)
	p.Status = PaymentCompleted
	res, err := d.db.ExecContext(ctx, `INSERT INTO FeePayments(STUDENT_ID, FEE_TYPE, AMOUNT_PAID, PAYMENT_DATE, PAYMENT_MODE, TRANSACTION_ID, STATUS)
        VALUES(?,?,?,?,?,?,?)`,
		p.StudentID, p.FeeType, p.AmountPaid, p.PaymentDate, p.PaymentMode, p.TransactionID, p.Status)
	if err != nil {
		return nil, external("record fee payment", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return nil, external("record fee payment", err)
	}
	return &p, nil
}

// FeePayments lists payments, newest first. An empty studentID lists all.
func (d *Database) FeePayments(ctx context.Context, studentID string) ([]*FeePayment, error) {
	query := `SELECT PAYMENT_ID, STUDENT_ID, FEE_TYPE, AMOUNT_PAID, PAYMENT_DATE, PAYMENT_MODE, TRANSACTION_ID, STATUS FROM FeePayments`
	var args []any
	if studentID != "" {
		query += ` WHERE STUDENT_ID=?`
		args = append(args, studentID)
	}
	rows, err := d.db.QueryContext(ctx, query+` ORDER BY PAYMENT_ID DESC`, args...)
	if err != nil {
		return nil, external("fee payments", err)
	}
	defer rows.Close()

	out := []*FeePayment{}
	for rows.Next() {
		var p FeePayment
		if err := rows.Scan(&p.ID, &p.StudentID, &p.FeeType, &p.AmountPaid, &p.PaymentDate, &p.PaymentMode, &p.TransactionID, &p.Status); err != nil {
			return nil, external("scan fee payment", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Budget and expenses
// ---------------------------------------------------------------------------

// SetBudget creates or replaces the allocation for (category, fiscal year).
// Spending recorded so far is kept.
func (d *Database) SetBudget(ctx context.Context, b Budget) error {
	if err := validateStruct(b); err != nil {
		return err
	}
	_, err := d.db.ExecContext(ctx, `INSERT INTO Budget(CATEGORY, ALLOCATED_AMOUNT, FISCAL_YEAR, START_DATE, END_DATE)
        VALUES(?,?,?,?,?)
        ON CONFLICT(CATEGORY, FISCAL_YEAR) DO UPDATE SET
            ALLOCATED_AMOUNT=excluded.ALLOCATED_AMOUNT, START_DATE=excluded.START_DATE, END_DATE=excluded.END_DATE`,
		b.Category, b.Allocated, b.FiscalYear, b.StartDate, b.EndDate)
	if err != nil {
		return external("set budget", err)
	}
	return nil
}

func (d *Database) Budgets(ctx context.Context, fiscalYear string) ([]Budget, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT BUDGET_ID, CATEGORY, ALLOCATED_AMOUNT, SPENT_AMOUNT, FISCAL_YEAR, START_DATE, END_DATE
        FROM Budget WHERE FISCAL_YEAR=? ORDER BY CATEGORY`, fiscalYear)
	if err != nil {
		return nil, external("budgets", err)
	}
	defer rows.Close()

	out := []Budget{}
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.Category, &b.Allocated, &b.Spent, &b.FiscalYear, &b.StartDate, &b.EndDate); err != nil {
			return nil, external("scan budget", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AddExpense records an expense and charges it to the category's budget for
// the current fiscal year, if one exists.
func (d *Database) AddExpense(ctx context.Context, e Expense, now time.Time) (*Expense, error) {
	if e.PaymentMode == "" {
		e.PaymentMode = DefaultMode
	}
	if e.ApprovedBy == "" {
		e.ApprovedBy = "Admin"
	}
	if err := validateStruct(e); err != nil {
		return nil, err
	}
	e.ExpenseDate = now.Format(DateLayout)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, external("begin expense", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO Expenses(CATEGORY, AMOUNT, DESCRIPTION, EXPENSE_DATE, PAYMENT_MODE, RECEIPT_NO, APPROVED_BY)
        VALUES(?,?,?,?,?,?,?)`,
		e.Category, e.Amount, e.Description, e.ExpenseDate, e.PaymentMode, e.ReceiptNo, e.ApprovedBy)
	if err != nil {
		return nil, external("add expense", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return nil, external("add expense", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE Budget SET SPENT_AMOUNT = SPENT_AMOUNT + ? WHERE CATEGORY=? AND FISCAL_YEAR=?`,
		e.Amount, e.Category, strconv.Itoa(now.Year())); err != nil {
		return nil, external("charge budget", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, external("commit expense", err)
	}
	return &e, nil
}

func (d *Database) Expenses(ctx context.Context) ([]*Expense, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT EXPENSE_ID, CATEGORY, AMOUNT, DESCRIPTION, EXPENSE_DATE, PAYMENT_MODE, RECEIPT_NO, APPROVED_BY
        FROM Expenses ORDER BY EXPENSE_ID DESC`)
	if err != nil {
		return nil, external("expenses", err)
	}
	defer rows.Close()

	out := []*Expense{}
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Category, &e.Amount, &e.Description, &e.ExpenseDate, &e.PaymentMode, &e.ReceiptNo, &e.ApprovedBy); err != nil {
			return nil, external("scan expense", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Donations
// ---------------------------------------------------------------------------

// RecordDonation stores a donation under a fresh receipt number.
func (d *Database) RecordDonation(ctx context.Context, dn Donation, now time.Time) (*Donation, error) {
	if dn.PaymentMode == "" {
		dn.PaymentMode = DefaultMode
	}
	if err := validateStruct(dn); err != nil {
		return nil, err
	}
	dn.DonationDate = now.Format(DateLayout)
	dn.ReceiptNo = receiptNumber("DON", now)
	res, err := d.db.ExecContext(ctx, `INSERT INTO Donations(DONOR_NAME, AMOUNT, DONATION_DATE, PURPOSE, PAYMENT_MODE, RECEIPT_NO, NOTES)
        VALUES(?,?,?,?,?,?,?)`,
		dn.DonorName, dn.Amount, dn.DonationDate, dn.Purpose, dn.PaymentMode, dn.ReceiptNo, dn.Notes)
	if err != nil {
		return nil, external("record donation", err)
	}
	if dn.ID, err = res.LastInsertId(); err != nil {
		return nil, external("record donation", err)
	}
	return &dn, nil
}

func (d *Database) Donations(ctx context.Context) ([]*Donation, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT DONATION_ID, DONOR_NAME, AMOUNT, DONATION_DATE, PURPOSE, PAYMENT_MODE, RECEIPT_NO, NOTES
        FROM Donations ORDER BY DONATION_ID DESC`)
	if err != nil {
		return nil, external("donations", err)
	}
	defer rows.Close()

	out := []*Donation{}
	for rows.Next() {
		var dn Donation
		if err := rows.Scan(&dn.ID, &dn.DonorName, &dn.Amount, &dn.DonationDate, &dn.Purpose, &dn.PaymentMode, &dn.ReceiptNo, &dn.Notes); err != nil {
			return nil, external("scan donation", err)
		}
		out = append(out, &dn)
	}
	return out, rows.Err()
}

// receiptNumber is PREFIX-YYYYMMDDHHMMSS-xxxxxx. The random suffix keeps two
// receipts issued in the same second apart.
func receiptNumber(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return prefix + "-" + now.Format("20060102150405") + "-" + suffix
}

// ---------------------------------------------------------------------------
// Report
// ---------------------------------------------------------------------------

// FinancialReport summarizes fees, expenses and donations dated between
// start and end inclusive, plus the budgets of end's fiscal year. Empty
// bounds default to the first of now's month and today.
func (d *Database) FinancialReport(ctx context.Context, start, end string, now time.Time) (*FinancialReport, error) {
	if start == "" {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format(DateLayout)
	}
	if end == "" {
		end = now.Format(DateLayout)
	}
	if err := validateDate("start", start); err != nil {
		return nil, err
	}
	if err := validateDate("end", end); err != nil {
		return nil, err
	}
	if start > end {
		return nil, invalid("start", "must not be after end")
	}

	r := &FinancialReport{Start: start, End: end, Fees: []FeeLine{}, Expenses: []ExpenseLine{}}

	rows, err := d.db.QueryContext(ctx, `SELECT FEE_TYPE, STATUS, COUNT(*), SUM(AMOUNT_PAID) FROM FeePayments
        WHERE PAYMENT_DATE BETWEEN ? AND ? GROUP BY FEE_TYPE, STATUS ORDER BY FEE_TYPE, STATUS`, start, end)
	if err != nil {
		return nil, external("fee summary", err)
	}
	for rows.Next() {
		var f FeeLine
		if err := rows.Scan(&f.FeeType, &f.Status, &f.Count, &f.Total); err != nil {
			rows.Close()
			return nil, external("scan fee summary", err)
		}
		r.Fees = append(r.Fees, f)
	}
	rows.Close()

	rows, err = d.db.QueryContext(ctx, `SELECT CATEGORY, COUNT(*), SUM(AMOUNT) FROM Expenses
        WHERE EXPENSE_DATE BETWEEN ? AND ? GROUP BY CATEGORY ORDER BY CATEGORY`, start, end)
	if err != nil {
		return nil, external("expense summary", err)
	}
	for rows.Next() {
		var e ExpenseLine
		if err := rows.Scan(&e.Category, &e.Count, &e.Total); err != nil {
			rows.Close()
			return nil, external("scan expense summary", err)
		}
		r.Expenses = append(r.Expenses, e)
	}
	rows.Close()

	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(AMOUNT), 0) FROM Donations
        WHERE DONATION_DATE BETWEEN ? AND ?`, start, end).Scan(&r.DonationCount, &r.Donations); err != nil {
		return nil, external("donation summary", err)
	}

	if r.Budgets, err = d.Budgets(ctx, end[:4]); err != nil {
		return nil, err
	}
	return r, nil
}

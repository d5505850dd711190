package library

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestFeesExpensesAndReport(t *testing.T) {
	now := time.Date(2026, 3, 20, 11, 0, 0, 0, time.Local)
	mgr := newManager(t, fixedClock(now))
	ctx := context.Background()

	if err := mgr.AddStudent(ctx, Student{ID: "S1", Name: "Asha", Class: "BCA", Contact: "9876543210", AdmissionYear: 2025}); err != nil {
		t.Fatalf("add student: %v", err)
	}
	id, err := mgr.AddFeeStructure(ctx, FeeStructure{FeeType: "Library Fee", Amount: 500, DueDate: "2026-04-01"})
	if err != nil || id == 0 {
		t.Fatalf("fee structure id=%d err=%v", id, err)
	}
	fees, _ := mgr.FeeStructures(ctx)
	if len(fees) != 1 || fees[0].ApplicableTo != "All" || fees[0].AcademicYear != "2026" {
		t.Fatalf("fee structures: %+v", fees)
	}

	if _, err := mgr.RecordFeePayment(ctx, FeePayment{StudentID: "GHOST", FeeType: "Library Fee", AmountPaid: 500}); !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("payment by unknown student: %v", err)
	}
	p, err := mgr.RecordFeePayment(ctx, FeePayment{StudentID: "S1", FeeType: "Library Fee", AmountPaid: 500})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}
	if p.Status != PaymentCompleted || p.PaymentMode != DefaultMode || p.PaymentDate != "2026-03-20" {
		t.Fatalf("payment defaults: %+v", p)
	}

	if err := mgr.SetBudget(ctx, Budget{Category: "Books", Allocated: 1000}); err != nil {
		t.Fatalf("budget: %v", err)
	}
	if _, err := mgr.AddExpense(ctx, Expense{Category: "Books", Amount: 250, Description: "New titles"}); err != nil {
		t.Fatalf("expense: %v", err)
	}
	// Re-allocating keeps what was already spent.
	if err := mgr.SetBudget(ctx, Budget{Category: "Books", Allocated: 2000}); err != nil {
		t.Fatalf("budget update: %v", err)
	}
	budgets, err := mgr.Budgets(ctx)
	if err != nil {
		t.Fatalf("budgets: %v", err)
	}
	if len(budgets) != 1 || budgets[0].Spent != 250 || budgets[0].Allocated != 2000 || budgets[0].Remaining() != 1750 {
		t.Fatalf("budgets: %+v", budgets)
	}

	d, err := mgr.RecordDonation(ctx, Donation{DonorName: "Alumni Club", Amount: 300})
	if err != nil {
		t.Fatalf("donation: %v", err)
	}
	if !regexp.MustCompile(`^DON-20260320110000-[0-9A-F]{6}$`).MatchString(d.ReceiptNo) {
		t.Fatalf("receipt number %q", d.ReceiptNo)
	}

	r, err := mgr.FinancialReport(ctx, "", "")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if r.Start != "2026-03-01" || r.End != "2026-03-20" {
		t.Fatalf("default period %s..%s", r.Start, r.End)
	}
	if r.TotalFees() != 500 || r.TotalExpenses() != 250 || r.Donations != 300 || r.NetBalance() != 550 {
		t.Fatalf("totals fees=%v expenses=%v donations=%v net=%v", r.TotalFees(), r.TotalExpenses(), r.Donations, r.NetBalance())
	}

	var buf bytes.Buffer
	if err := mgr.WriteFinancialReport(ctx, &buf, "", ""); err != nil {
		t.Fatalf("write report: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"FINANCIAL REPORT", "Net Balance,Rs.550.00", "BUDGET STATUS", "Books,2000.00,250.00,1750.00,12.5%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestFinanceValidation(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()

	if _, err := mgr.AddFeeStructure(ctx, FeeStructure{FeeType: "Late", Amount: 0, DueDate: "2026-04-01"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero fee: %v", err)
	}
	if _, err := mgr.AddFeeStructure(ctx, FeeStructure{FeeType: "Late", Amount: 10, DueDate: "01/04/2026"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad date: %v", err)
	}
	if _, err := mgr.AddExpense(ctx, Expense{Amount: 10}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expense without category: %v", err)
	}
	if _, err := mgr.RecordDonation(ctx, Donation{DonorName: "X", Amount: -1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative donation: %v", err)
	}
	if _, err := mgr.FinancialReport(ctx, "2026-05-01", "2026-04-01"); !errors.Is(err, ErrValidation) {
		t.Fatalf("reversed period: %v", err)
	}
}

func TestWishlist(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()
	if err := mgr.AddBook(ctx, Book{ID: "B1", Name: "Compilers"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := mgr.AddStudent(ctx, Student{ID: "S1", Name: "Asha", Class: "BCA", Contact: "9876543210", AdmissionYear: 2025}); err != nil {
		t.Fatalf("add student: %v", err)
	}
	if _, err := mgr.AddToWishlist(ctx, "S1", "B9"); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("unknown book: %v", err)
	}
	if _, err := mgr.AddToWishlist(ctx, "S1", "B1"); err != nil {
		t.Fatalf("wishlist: %v", err)
	}
	items, _ := mgr.Wishlist(ctx, "S1")
	if len(items) != 1 || items[0].BookName != "Compilers" {
		t.Fatalf("items: %+v", items)
	}
	if err := mgr.RemoveFromWishlist(ctx, "S1", "B1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := mgr.RemoveFromWishlist(ctx, "S1", "B1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second remove: %v", err)
	}
}

func TestDeleteStudentKeepsFeePayments(t *testing.T) {
	mgr := newManager(t)
	ctx := context.Background()

	if err := mgr.AddStudent(ctx, Student{ID: "S1", Name: "Asha", Class: "BCA", Contact: "9876543210", AdmissionYear: 2025}); err != nil {
		t.Fatalf("add student: %v", err)
	}
	if _, err := mgr.RecordFeePayment(ctx, FeePayment{StudentID: "S1", FeeType: "Library Fee", AmountPaid: 500}); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if err := mgr.DeleteStudent(ctx, "S1"); err != nil {
		t.Fatalf("delete student with payments: %v", err)
	}
	if _, err := mgr.GetStudent(ctx, "S1"); !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("student still present: %v", err)
	}
	payments, err := mgr.FeePayments(ctx, "S1")
	if err != nil {
		t.Fatalf("payments: %v", err)
	}
	if len(payments) != 1 || payments[0].AmountPaid != 500 {
		t.Fatalf("payment history lost: %+v", payments)
	}
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"library-catalog/library"
)

var (
	// Finance flags
	feeStructure library.FeeStructure
	feePayment   library.FeePayment
	expense      library.Expense
	budget       library.Budget
	donation     library.Donation
	summaryStart string
	summaryEnd   string
)

var financeCmd = &cobra.Command{
	Use:   "finance",
	Short: "Fees, expenses, budgets and donations",
	Long: `Record and list the library's money.

Subcommands:
  fees        - fee structures (add, list)
  pay         - record a student fee payment
  payments    - list fee payments
  expense     - record an expense charged to its category budget
  expenses    - list expenses
  budget      - set or list category budgets for the current year
  donate      - record a donation and print its receipt number
  donations   - list donations
  summary     - totals for a period`,
}

var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "List fee structures",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.mgr.FeeStructures(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, f := range list {
			rows = append(rows, []string{fmt.Sprint(f.ID), f.FeeType, money(f.Amount), f.DueDate, f.ApplicableTo, f.AcademicYear})
		}
		table(cmd.OutOrStdout(), []int{4, 20, 10, 10, 12, 8},
			[]string{"ID", "Type", "Amount", "Due", "Applies to", "Year"}, rows)
		return nil
	},
}

var feesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a fee structure",
	Long: `Examples:
  library finance fees add --type "Library Fee" --amount 500 --due 2026-07-31`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.mgr.AddFeeStructure(cmd.Context(), feeStructure)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Fee structure %d added.", id)
		return nil
	},
}

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Record a fee payment",
	Long: `Examples:
  library finance pay --student S1 --type "Library Fee" --amount 500 --mode UPI`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.mgr.RecordFeePayment(cmd.Context(), feePayment)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Payment %d recorded: %s from %s on %s.", p.ID, money(p.AmountPaid), p.StudentID, p.PaymentDate)
		return nil
	},
}

var paymentsCmd = &cobra.Command{
	Use:   "payments [student-id]",
	Short: "List fee payments",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		studentID := ""
		if len(args) == 1 {
			studentID = args[0]
		}
		list, err := a.mgr.FeePayments(cmd.Context(), studentID)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, p := range list {
			rows = append(rows, []string{p.PaymentDate, p.StudentID, p.FeeType, money(p.AmountPaid), p.PaymentMode, p.Status})
		}
		table(cmd.OutOrStdout(), []int{10, 10, 20, 10, 8, 10},
			[]string{"Date", "Student", "Type", "Amount", "Mode", "Status"}, rows)
		return nil
	},
}

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Record an expense",
	Long: `Record an expense. The amount is charged to the category's budget for
the current year when one exists.

Examples:
  library finance expense --category Books --amount 250 --description "Reference set"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := a.mgr.AddExpense(cmd.Context(), expense)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Expense %d recorded: %s for %s.", e.ID, money(e.Amount), e.Category)
		return nil
	},
}

var expensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "List expenses",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.mgr.Expenses(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, e := range list {
			rows = append(rows, []string{e.ExpenseDate, e.Category, money(e.Amount), e.Description, e.ApprovedBy})
		}
		table(cmd.OutOrStdout(), []int{10, 14, 10, 30, 14},
			[]string{"Date", "Category", "Amount", "Description", "Approved by"}, rows)
		return nil
	},
}

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show budgets for the current year",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.mgr.Budgets(cmd.Context())
		if err != nil {
			return err
		}
		printBudgets(cmd.OutOrStdout(), list)
		return nil
	},
}

var budgetSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set a category budget",
	Long: `Set the allocation for a category. Amounts already spent are kept.

Examples:
  library finance budget set --category Books --allocated 20000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.mgr.SetBudget(cmd.Context(), budget); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Budget for %s set to %s.", budget.Category, money(budget.Allocated))
		return nil
	},
}

var donateCmd = &cobra.Command{
	Use:   "donate",
	Short: "Record a donation",
	Long: `Examples:
  library finance donate --donor "Alumni Association" --amount 300 --purpose Books`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.mgr.RecordDonation(cmd.Context(), donation)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Donation of %s from %s recorded. Receipt %s.", money(d.Amount), d.DonorName, d.ReceiptNo)
		return nil
	},
}

var donationsCmd = &cobra.Command{
	Use:   "donations",
	Short: "List donations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.mgr.Donations(cmd.Context())
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(list))
		for _, d := range list {
			rows = append(rows, []string{d.DonationDate, d.DonorName, money(d.Amount), d.Purpose, d.ReceiptNo})
		}
		table(cmd.OutOrStdout(), []int{10, 24, 10, 16, 24},
			[]string{"Date", "Donor", "Amount", "Purpose", "Receipt"}, rows)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show financial totals for a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.mgr.FinancialReport(cmd.Context(), summaryStart, summaryEnd)
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), r)
		return nil
	},
}

func init() {
	f := feesAddCmd.Flags()
	f.StringVar(&feeStructure.FeeType, "type", "", "Fee type")
	f.Float64Var(&feeStructure.Amount, "amount", 0, "Amount")
	f.StringVar(&feeStructure.DueDate, "due", "", "Due date YYYY-MM-DD")
	f.StringVar(&feeStructure.ApplicableTo, "applicable-to", "", "Class or course (default All)")
	f.StringVar(&feeStructure.AcademicYear, "year", "", "Academic year (default current)")

	f = payCmd.Flags()
	f.StringVar(&feePayment.StudentID, "student", "", "Student ID")
	f.StringVar(&feePayment.FeeType, "type", "", "Fee type")
	f.Float64Var(&feePayment.AmountPaid, "amount", 0, "Amount paid")
	f.StringVar(&feePayment.PaymentMode, "mode", "", "Payment mode (default Cash)")
	f.StringVar(&feePayment.TransactionID, "txn", "", "Transaction reference")

	f = expenseCmd.Flags()
	f.StringVar(&expense.Category, "category", "", "Budget category")
	f.Float64Var(&expense.Amount, "amount", 0, "Amount")
	f.StringVar(&expense.Description, "description", "", "Description")
	f.StringVar(&expense.PaymentMode, "mode", "", "Payment mode (default Cash)")
	f.StringVar(&expense.ApprovedBy, "approved-by", "", "Approver")

	f = budgetSetCmd.Flags()
	f.StringVar(&budget.Category, "category", "", "Budget category")
	f.Float64Var(&budget.Allocated, "allocated", 0, "Allocated amount")
	f.StringVar(&budget.FiscalYear, "year", "", "Fiscal year (default current)")

	f = donateCmd.Flags()
	f.StringVar(&donation.DonorName, "donor", "", "Donor name")
	f.Float64Var(&donation.Amount, "amount", 0, "Amount")
	f.StringVar(&donation.Purpose, "purpose", "", "Purpose")
	f.StringVar(&donation.PaymentMode, "mode", "", "Payment mode (default Cash)")
	f.StringVar(&donation.Notes, "notes", "", "Notes")

	summaryCmd.Flags().StringVar(&summaryStart, "start", "", "Period start YYYY-MM-DD (default first of month)")
	summaryCmd.Flags().StringVar(&summaryEnd, "end", "", "Period end YYYY-MM-DD (default today)")

	feesCmd.AddCommand(feesAddCmd)
	budgetCmd.AddCommand(budgetSetCmd)
	financeCmd.AddCommand(feesCmd, payCmd, paymentsCmd, expenseCmd, expensesCmd, budgetCmd, donateCmd, donationsCmd, summaryCmd)
	rootCmd.AddCommand(financeCmd)
}

func printBudgets(w io.Writer, list []library.Budget) {
	if len(list) == 0 {
		info(w, "No budgets set for this year.")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, b := range list {
		rows = append(rows, []string{b.Category, money(b.Allocated), money(b.Spent), money(b.Remaining()), fmt.Sprintf("%.1f%%", b.Utilization())})
	}
	table(w, []int{16, 12, 12, 12, 8}, []string{"Category", "Allocated", "Spent", "Remaining", "Used"}, rows)
}

func printSummary(w io.Writer, r *library.FinancialReport) {
	section(w, fmt.Sprintf("Financial Summary %s to %s", r.Start, r.End))
	fmt.Fprintf(w, "Fees collected:  %s\n", money(r.TotalFees()))
	fmt.Fprintf(w, "Donations:       %s (%d)\n", money(r.Donations), r.DonationCount)
	fmt.Fprintf(w, "Expenses:        %s\n", money(r.TotalExpenses()))
	fmt.Fprintf(w, "Net balance:     %s\n", money(r.NetBalance()))
	if len(r.Expenses) > 0 {
		fmt.Fprintln(w)
		rows := make([][]string, 0, len(r.Expenses))
		for _, e := range r.Expenses {
			rows = append(rows, []string{e.Category, fmt.Sprint(e.Count), money(e.Total)})
		}
		table(w, []int{16, 6, 12}, []string{"Category", "Count", "Total"}, rows)
	}
	if len(r.Budgets) > 0 {
		fmt.Fprintln(w)
		printBudgets(w, r.Budgets)
	}
}

func money(v float64) string {
	return fmt.Sprintf("Rs.%.2f", v)
}

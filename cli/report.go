package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Report flags
	reportFormat string
	reportOut    string
	reportStart  string
	reportEnd    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export library and financial reports",
	Long: `Export reports as files.

Subcommands:
  library  - status of every title with borrower, due date and fine
  finance  - fees, expenses, donations and budgets for a period`,
}

var reportLibraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Export the library status report",
	Long: `Export every title with its borrower, due date and accrued fine.

Examples:
  library report library                         # library_report_YYYYMMDD.csv
  library report library --format xlsx
  library report library --out -                 # CSV to stdout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		format := strings.ToLower(reportFormat)
		path := reportOut
		if path == "" {
			path = fmt.Sprintf("library_report_%s.%s", time.Now().Format("20060102"), format)
		}
		return writeReport(cmd, path, func(w io.Writer) error {
			return a.mgr.WriteLibraryReport(cmd.Context(), w, format)
		})
	},
}

var reportFinanceCmd = &cobra.Command{
	Use:   "finance",
	Short: "Export the financial report",
	Long: `Export fee collections, expenses by category, donations and the
current budgets. The period defaults to the current month.

Examples:
  library report finance
  library report finance --start 2026-01-01 --end 2026-03-31 --out q1.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		path := reportOut
		if path == "" {
			path = fmt.Sprintf("financial_report_%s.csv", time.Now().Format("20060102"))
		}
		return writeReport(cmd, path, func(w io.Writer) error {
			return a.mgr.WriteFinancialReport(cmd.Context(), w, reportStart, reportEnd)
		})
	},
}

func init() {
	reportLibraryCmd.Flags().StringVarP(&reportFormat, "format", "f", "csv", "csv or xlsx")
	reportCmd.PersistentFlags().StringVarP(&reportOut, "out", "o", "", "Output file, - for stdout")
	reportFinanceCmd.Flags().StringVar(&reportStart, "start", "", "Period start YYYY-MM-DD")
	reportFinanceCmd.Flags().StringVar(&reportEnd, "end", "", "Period end YYYY-MM-DD")

	reportCmd.AddCommand(reportLibraryCmd)
	reportCmd.AddCommand(reportFinanceCmd)
	rootCmd.AddCommand(reportCmd)
}

// writeReport renders into path, removing a partial file on failure.
func writeReport(cmd *cobra.Command, path string, render func(io.Writer) error) error {
	if path == "-" {
		return render(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	success(cmd.ErrOrStderr(), "Report written to %s", path)
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var adminPassword string

var seedCmd = &cobra.Command{
	Use:   "seed [course]",
	Short: "Load the predefined course syllabus into the catalog",
	Long: `Add the syllabus titles of a course (BCA, BSC, B.COM, BA, BBA), or of
every course when none is named. Titles already present are left alone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		course := ""
		if len(args) == 1 {
			course = args[0]
		}
		n, err := a.mgr.SeedCourses(cmd.Context(), course)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Added %d syllabus titles.", n)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import books from a CSV file",
	Long: `Import rows of id,name[,author[,fine_per_day[,quantity]]]. A header row is
recognised and skipped. Existing ids are reported as skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := a.mgr.ImportBooksCSV(cmd.Context(), f)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		success(out, "Imported %d books, skipped %d.", res.Imported, res.Skipped)
		for _, e := range res.Errors {
			warning(out, "%s", e)
		}
		return nil
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage librarian accounts",
}

var adminAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a librarian account",
	Long: `Create a librarian account. Once any account exists the interactive
shell asks for a login. The password is prompted for unless --password is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := adminPassword
		if password == "" {
			var err error
			if password, err = promptNewPassword(cmd); err != nil {
				return err
			}
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.mgr.AddAdmin(cmd.Context(), args[0], password); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Librarian %s created.", args[0])
		return nil
	},
}

func init() {
	adminAddCmd.Flags().StringVar(&adminPassword, "password", "", "Password (prompted when empty)")
	adminCmd.AddCommand(adminAddCmd)

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(adminCmd)
}

func promptNewPassword(cmd *cobra.Command) (string, error) {
	out := cmd.OutOrStdout()
	read := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(out)
		return string(b), err
	}
	first, err := read("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	second, err := read("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

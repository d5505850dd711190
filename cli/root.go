// Package cli is the command-line front end: an interactive shell for the
// circulation desk plus batch commands for serving, reporting and seeding.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"library-catalog/config"
	"library-catalog/library"
	"library-catalog/logging"
	"library-catalog/notify"
	"library-catalog/recommend"
)

var (
	// Global flags
	configPath string
	dbPath     string
	logLevel   string
)

// rootCmd opens the shell when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "library",
	Short: "Library catalog with lending ledger, recommendations and chat",
	Long: `Manage a small academic library from the terminal.

Run without arguments for the interactive circulation shell, or use one of
the subcommands for batch work:
  serve      - HTTP mirror of the catalog
  report     - CSV/XLSX status and financial reports
  recommend  - book recommendations for a student
  chat       - ask the library assistant
  seed       - load the predefined course syllabus
  admin      - manage librarian accounts
  finance    - fees, expenses, budgets and donations`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd.Context())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database file (overrides database.path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
}

// app bundles what every command needs once the config is loaded.
type app struct {
	cfg   *config.Config
	mgr   *library.LibraryManager
	async *notify.Async
}

// loadConfig applies the global flags on top of the file and environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// openApp loads the config, configures logging and opens the catalog.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	return newApp(ctx, cfg)
}

func newApp(ctx context.Context, cfg *config.Config, extra ...library.ManagerOption) (*app, error) {
	a := &app{cfg: cfg}
	var notifier notify.Notifier = notify.Log{}
	if cfg.Mail.Enabled {
		a.async = notify.NewAsync(notify.NewSMTP(smtpConfig(cfg.Mail)), 30*time.Second)
		notifier = a.async
	}

	opts := append([]library.ManagerOption{
		library.WithLendingPolicy(lendingPolicy(cfg.Ledger)),
		library.WithNotifications(notifier),
		library.WithRecommendConfig(recommendConfig(cfg.Recommend)),
		library.WithChatOptions(recommend.WithThreshold(cfg.Recommend.MatchThreshold)),
	}, extra...)

	mgr, err := library.NewLibraryManager(cfg.Database.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", cfg.Database.Path, err)
	}
	a.mgr = mgr

	created, err := mgr.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password)
	if err != nil {
		mgr.Close()
		return nil, fmt.Errorf("seed librarian account: %w", err)
	}
	if created {
		logging.Info().Str("username", cfg.Admin.Username).Msg("created librarian account from config")
	}
	return a, nil
}

// Close waits for queued mail and closes the database.
func (a *app) Close() error {
	if a.async != nil {
		a.async.Wait()
	}
	return a.mgr.Close()
}

func lendingPolicy(c config.LedgerConfig) library.Policy {
	return library.Policy{
		LoanDays:          c.LoanDays,
		GraceDays:         c.GraceDays,
		DefaultFinePerDay: c.DefaultFinePerDay,
		Quantity:          c.Quantity,
	}
}

func recommendConfig(c config.RecommendConfig) recommend.Config {
	return recommend.Config{
		TopN:               c.TopN,
		TrendingWindowDays: c.TrendingWindowDays,
		SimilarStudents:    c.SimilarStudents,
		SameClassWeight:    c.SameClassWeight,
	}
}

func smtpConfig(c config.MailConfig) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:      c.Host,
		Port:      c.Port,
		Username:  c.Username,
		Password:  c.Password,
		From:      c.From,
		To:        c.To,
		RateLimit: c.RateLimit,
		Burst:     c.Burst,
	}
}

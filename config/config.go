// Package config loads runtime settings in three layers: built-in defaults,
// an optional YAML file, then LIBRARY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before mapping them to keys.
const EnvPrefix = "LIBRARY_"

// PathEnvVar overrides the config file location.
const PathEnvVar = "LIBRARY_CONFIG"

// DefaultPaths are probed in order when no explicit path is given.
var DefaultPaths = []string{"library.yaml", "library.yml", "config.yaml"}

// listKeys are split on commas when they arrive through the environment.
var listKeys = map[string]bool{
	"server.cors_origins": true,
	"mail.to":             true,
}

type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Ledger    LedgerConfig    `koanf:"ledger"`
	Recommend RecommendConfig `koanf:"recommend"`
	Mail      MailConfig      `koanf:"mail"`
	Admin     AdminConfig     `koanf:"admin"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout       time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// Addr is the listen address for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// LedgerConfig controls loan length and fine accrual.
type LedgerConfig struct {
	LoanDays          int     `koanf:"loan_days" validate:"min=1"`
	GraceDays         int     `koanf:"grace_days" validate:"min=0"`
	DefaultFinePerDay float64 `koanf:"default_fine_per_day" validate:"gte=0"`
	Quantity          int     `koanf:"quantity" validate:"min=1"`
}

type RecommendConfig struct {
	TopN               int     `koanf:"top_n" validate:"min=1"`
	TrendingWindowDays int     `koanf:"trending_window_days" validate:"min=1"`
	SimilarStudents    int     `koanf:"similar_students" validate:"min=1"`
	SameClassWeight    int     `koanf:"same_class_weight" validate:"min=1"`
	MatchThreshold     float64 `koanf:"match_threshold" validate:"gt=0,lt=1"`
}

// MailConfig describes the SMTP relay used for issue/return notices.
type MailConfig struct {
	Enabled   bool     `koanf:"enabled"`
	Host      string   `koanf:"host"`
	Port      int      `koanf:"port" validate:"min=0,max=65535"`
	Username  string   `koanf:"username"`
	Password  string   `koanf:"password"`
	From      string   `koanf:"from" validate:"omitempty,email"`
	To        []string `koanf:"to" validate:"dive,email"`
	RateLimit float64  `koanf:"rate_limit" validate:"gte=0"`
	Burst     int      `koanf:"burst" validate:"min=1"`
}

// AdminConfig seeds a librarian account on first start when both fields are set.
type AdminConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "library.db"},
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              5000,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Ledger: LedgerConfig{
			LoanDays:          14,
			GraceDays:         0,
			DefaultFinePerDay: 5,
			Quantity:          10,
		},
		Recommend: RecommendConfig{
			TopN:               5,
			TrendingWindowDays: 30,
			SimilarStudents:    3,
			SameClassWeight:    2,
			MatchThreshold:     0.4,
		},
		Mail: MailConfig{
			Port:      587,
			RateLimit: 1,
			Burst:     5,
		},
	}
}

// Load builds the configuration. An empty path falls back to LIBRARY_CONFIG
// and then DefaultPaths; a missing default file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform maps LIBRARY_LEDGER_LOAN_DAYS to ledger.loan_days. The first
// underscore separates the section from the field.
func envTransform(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return "", nil
	}
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return "", nil
	}
	key = section + "." + field
	if listKeys[key] {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return key, out
	}
	return key, value
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Mail.Enabled && (c.Mail.Host == "" || c.Mail.From == "" || len(c.Mail.To) == 0) {
		return errors.New("invalid configuration: mail.host, mail.from and mail.to are required when mail is enabled")
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return errors.New("invalid configuration: server.rate_limit_window must be positive when rate limiting is on")
	}
	return nil
}

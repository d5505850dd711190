package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(PathEnvVar, "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "library.db", cfg.Database.Path)
	assert.Equal(t, 14, cfg.Ledger.LoanDays)
	assert.Equal(t, 10, cfg.Ledger.Quantity)
	assert.InDelta(t, 5.0, cfg.Ledger.DefaultFinePerDay, 0.001)
	assert.Equal(t, 30, cfg.Recommend.TrendingWindowDays)
	assert.InDelta(t, 0.4, cfg.Recommend.MatchThreshold, 0.0001)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "127.0.0.1:5000", cfg.Server.Addr())
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.yaml")
	yaml := `
database:
  path: /tmp/other.db
ledger:
  loan_days: 7
  grace_days: 2
recommend:
  top_n: 3
server:
  port: 8081
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("LIBRARY_LEDGER_LOAN_DAYS", "21")
	t.Setenv("LIBRARY_SERVER_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, 21, cfg.Ledger.LoanDays, "env wins over file")
	assert.Equal(t, 2, cfg.Ledger.GraceDays)
	assert.Equal(t, 3, cfg.Recommend.TopN)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero loan days", func(c *Config) { c.Ledger.LoanDays = 0 }},
		{"threshold above one", func(c *Config) { c.Recommend.MatchThreshold = 1.5 }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"mail enabled without host", func(c *Config) {
			c.Mail.Enabled = true
			c.Mail.From = "desk@library.test"
			c.Mail.To = []string{"admin@library.test"}
		}},
		{"rate limit without window", func(c *Config) { c.Server.RateLimitWindow = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEnvTransform(t *testing.T) {
	key, val := envTransform("LIBRARY_RECOMMEND_TOP_N", "9")
	assert.Equal(t, "recommend.top_n", key)
	assert.Equal(t, "9", val)

	key, _ = envTransform("LIBRARY_CONFIG", "x.yaml")
	assert.Equal(t, "", key)
}

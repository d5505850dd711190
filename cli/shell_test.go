package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-catalog/config"
	"library-catalog/library"
)

func newTestManager(t *testing.T) *library.LibraryManager {
	t.Helper()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)
	mgr, err := library.NewLibraryManager(filepath.Join(t.TempDir(), "shell.db"),
		library.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func script(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestShellCirculation(t *testing.T) {
	mgr := newTestManager(t)
	var out bytes.Buffer
	in := script(
		"add book", "B1", "Operating Systems", "Silberschatz", "",
		"add student", "S1", "Asha", "BCA 2nd Year", "9876543210", "", "2024",
		"issue", "B1", "S1",
		"issue", "B1", "S1",
		"issue", "B1", "NOPE",
		"list books",
		"stats",
		"chat", "tell me about book b1", "bye",
		"return", "B1",
		"frobnicate",
		"exit",
	)

	require.NoError(t, newShell(context.Background(), mgr, in, &out).run())

	got := out.String()
	assert.Contains(t, got, "No librarian accounts exist")
	assert.Contains(t, got, "Book B1 added.")
	assert.Contains(t, got, "Student S1 added.")
	assert.Contains(t, got, "Book B1 issued to S1. Due on 2026-03-15.")
	assert.Contains(t, got, "This book is already issued.")
	assert.Contains(t, got, "Operating Systems")
	assert.Contains(t, got, "Titles:          1")
	assert.Contains(t, got, "Assistant: ")
	assert.Contains(t, got, "Book B1 returned.")
	assert.Contains(t, got, `Unknown command "frobnicate"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(got), "Goodbye!"))

	b, err := mgr.GetBook(context.Background(), "B1")
	require.NoError(t, err)
	assert.Equal(t, library.StatusAvailable, b.Status)
}

func TestShellTranscriptSave(t *testing.T) {
	mgr := newTestManager(t)
	path := filepath.Join(t.TempDir(), "chat.txt")
	var out bytes.Buffer
	in := script("save chat", "chat", "hello", "", "save chat", path, "exit")

	require.NoError(t, newShell(context.Background(), mgr, in, &out).run())
	assert.Contains(t, out.String(), "Nothing to save yet.")
	assert.Contains(t, out.String(), "Saved 1 exchanges to "+path)
	assert.FileExists(t, path)
}

func TestShellLogin(t *testing.T) {
	ctx := context.Background()
	mgr := newTestManager(t)
	require.NoError(t, mgr.AddAdmin(ctx, "librarian", "secret-pass"))

	var out bytes.Buffer
	sh := newShell(ctx, mgr, script("librarian", "librarian", "librarian"), &out)
	sh.readPassword = func(string) (string, error) { return "wrong", nil }
	assert.ErrorIs(t, sh.run(), errLoginFailed)
	assert.Contains(t, out.String(), "(3/3)")

	out.Reset()
	sh = newShell(ctx, mgr, script("librarian", "exit"), &out)
	sh.readPassword = func(string) (string, error) { return "secret-pass", nil }
	require.NoError(t, sh.run())
	assert.Contains(t, out.String(), "Welcome, librarian.")
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestNewAppWiresConfig(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "app.db")
	cfg.Ledger.LoanDays = 7
	cfg.Admin = config.AdminConfig{Username: "librarian", Password: "secret-pass"}
	cfg.Mail.Enabled = true
	cfg.Mail.Host = "localhost"

	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.async)
	assert.Equal(t, 7, a.mgr.Policy().LoanDays)
	required, err := a.mgr.LoginRequired(ctx)
	require.NoError(t, err)
	assert.True(t, required)
	assert.NoError(t, a.mgr.Authenticate(ctx, "librarian", "secret-pass"))
}

func TestSeedAndReportCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cmd.db")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		dbPath, reportOut = "", ""
	})

	rootCmd.SetArgs([]string{"--db", db, "seed", "BCA"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Added 15 syllabus titles.")

	out.Reset()
	rootCmd.SetArgs([]string{"--db", db, "report", "library", "--out", "-"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "BCA101,Introduction to Computers,P.K. Sinha,Available")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "Operating...", truncateString("Operating Systems", 12))
	assert.Equal(t, "short", truncateString("short", 12))
	assert.Equal(t, "ab", truncateString("abcdef", 2))
}

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
)

func success(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, successStyle.Render("✓ "))
	fmt.Fprintf(w, format+"\n", args...)
}

func warning(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, warningStyle.Render("⚠ "))
	fmt.Fprintf(w, format+"\n", args...)
}

func failure(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, errorStyle.Render("✗ "))
	fmt.Fprintf(w, format+"\n", args...)
}

func info(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, infoStyle.Render("ℹ "))
	fmt.Fprintf(w, format+"\n", args...)
}

func muted(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, primaryStyle.Render(title))
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
}

// statusIcon colours a book status.
func statusIcon(status string) string {
	switch status {
	case "Available":
		return successStyle.Render("●")
	case "Issued":
		return warningStyle.Render("●")
	default:
		return mutedStyle.Render("•")
	}
}

// table prints a header, a rule and rows with fixed column widths.
func table(w io.Writer, widths []int, header []string, rows [][]string) {
	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			width := 20
			if i < len(widths) {
				width = widths[i]
			}
			parts[i] = fmt.Sprintf("%-*s", width, truncateString(c, width))
		}
		return strings.TrimRight(strings.Join(parts, " "), " ")
	}
	total := 0
	for _, n := range widths {
		total += n + 1
	}
	fmt.Fprintln(w, primaryStyle.Render(line(header)))
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("-", total)))
	for _, r := range rows {
		fmt.Fprintln(w, line(r))
	}
}

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}

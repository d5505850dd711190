package recommend

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Exchange is one question and its answer.
type Exchange struct {
	At       time.Time
	Question string
	Answer   string
}

// Transcript collects a chat session for export.
type Transcript struct {
	mu      sync.Mutex
	entries []Exchange
}

func (t *Transcript) Add(at time.Time, question, answer string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Exchange{At: at, Question: question, Answer: answer})
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// WriteTo renders the transcript as plain text.
func (t *Transcript) WriteTo(w io.Writer) (int64, error) {
	t.mu.Lock()
	entries := append([]Exchange(nil), t.entries...)
	t.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("Library Assistant Chat History\n")
	fmt.Fprintf(&sb, "Exported on: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	for _, e := range entries {
		ts := e.At.Format("15:04:05")
		fmt.Fprintf(&sb, "[%s] You: %s\n", ts, e.Question)
		fmt.Fprintf(&sb, "[%s] Assistant: %s\n\n", ts, e.Answer)
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

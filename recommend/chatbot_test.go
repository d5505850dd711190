package recommend

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogSnapshot() *Snapshot {
	return &Snapshot{
		Books: []Book{
			{ID: "BCA101", Name: "Introduction to Computers", Author: "P.K. Sinha", Status: "Available", BorrowerID: "N/A", DueDate: "N/A"},
			{ID: "BCA102", Name: "Programming in C", Author: "E. Balagurusamy", Status: "Issued", BorrowerID: "S1", IssueDate: "2026-03-01", DueDate: "2026-03-15"},
			{ID: "BSC101", Name: "Fundamentals of computer- I", Author: "E. Balagurusam", Status: "Available"},
			{ID: "BA101", Name: "English Literature - I", Author: "William Shakespeare", Status: "Available"},
		},
		PendingFines: 45,
	}
}

func newTestBot(s *Snapshot) *Chatbot {
	return NewChatbot(staticSource(s), WithRand(rand.New(rand.NewSource(1))))
}

func TestChatbotLibraryHours(t *testing.T) {
	a := newTestBot(catalogSnapshot()).Respond(context.Background(), "What are the library hours?")
	assert.Equal(t, AnswerIntent, a.Kind)
	assert.Equal(t, "library_hours", a.Intent)
	assert.Contains(t, a.Text, "Monday-Friday: 9:00 AM - 8:00 PM")
}

func TestChatbotGibberishFallsBack(t *testing.T) {
	a := newTestBot(catalogSnapshot()).Respond(context.Background(), "asdkjasd")
	assert.Equal(t, AnswerFallback, a.Kind)
	assert.True(t, strings.HasPrefix(a.Text, "I'm not sure I understand"))
	assert.Contains(t, a.Text, "type 'help'")
}

func TestChatbotEmptyInput(t *testing.T) {
	a := newTestBot(catalogSnapshot()).Respond(context.Background(), "   ")
	assert.Equal(t, AnswerEmpty, a.Kind)
}

func TestChatbotBookByID(t *testing.T) {
	a := newTestBot(catalogSnapshot()).Respond(context.Background(), "Is book id BCA102 in?")
	require.Equal(t, AnswerBook, a.Kind)
	assert.Equal(t, "BCA102", a.BookID)
	assert.Contains(t, a.Text, "Currently Issued")
	assert.Contains(t, a.Text, "Borrower ID: S1")
	assert.Contains(t, a.Text, "Due Date: 2026-03-15")
	assert.Contains(t, a.Text, "Fundamentals of computer- I", "related by author first name")
}

func TestChatbotBookByTitleWord(t *testing.T) {
	a := newTestBot(catalogSnapshot()).Respond(context.Background(), "do you have shakespeare?")
	require.Equal(t, AnswerBook, a.Kind)
	assert.Equal(t, "BA101", a.BookID)
	assert.Contains(t, a.Text, "Available")
}

func TestChatbotGreetingPicksFromResponses(t *testing.T) {
	a := newTestBot(catalogSnapshot()).Respond(context.Background(), "hello")
	assert.Equal(t, "greeting", a.Intent)
	var greeting Intent
	for _, in := range DefaultIntents() {
		if in.Name == "greeting" {
			greeting = in
		}
	}
	assert.Contains(t, greeting.Responses, a.Text)
}

func TestChatbotKeywordChain(t *testing.T) {
	bot := newTestBot(&Snapshot{PendingFines: 45})

	a := bot.Respond(context.Background(), "How do I borrow a book?")
	assert.Equal(t, AnswerKeyword, a.Kind)
	assert.Equal(t, "borrowing", a.Intent)

	a = bot.Respond(context.Background(), "extra charge")
	assert.Equal(t, AnswerKeyword, a.Kind)
	assert.Equal(t, "fines", a.Intent)
	assert.Contains(t, a.Text, "Rs.45.00")
}

func TestChatbotCourseQuery(t *testing.T) {
	a := newTestBot(catalogSnapshot()).Respond(context.Background(), "show me bca titles")
	require.Equal(t, AnswerCourse, a.Kind)
	assert.Equal(t, "BCA", a.Intent)
	assert.Contains(t, a.Text, "We have 2 books for BCA course")
}

func TestIntentTieBreakPrefersLongerThenFirst(t *testing.T) {
	intents := []Intent{
		{Name: "first", Patterns: []string{"hours"}, Response: "first"},
		{Name: "second", Patterns: []string{"hours"}, Response: "second"},
		{Name: "longer", Patterns: []string{"opening hours"}, Response: "longer"},
	}
	bot := NewChatbot(staticSource(&Snapshot{}), WithIntents(intents))

	a := bot.Respond(context.Background(), "hours")
	assert.Equal(t, "first", a.Intent, "equal score and length keeps registration order")

	a = bot.Respond(context.Background(), "the opening hours")
	assert.Equal(t, "longer", a.Intent, "equal score prefers the longer pattern")
}

func TestChatbotSurvivesSourceFailure(t *testing.T) {
	src := SourceFunc(func(context.Context) (*Snapshot, error) { return nil, errors.New("gone") })
	a := NewChatbot(src).Respond(context.Background(), "What are the library hours?")
	assert.Equal(t, "library_hours", a.Intent)
}

func TestRatio(t *testing.T) {
	assert.InDelta(t, 1.0, ratio("hours", "hours"), 1e-9)
	assert.InDelta(t, 1.0, ratio("", ""), 1e-9)
	assert.InDelta(t, 0.8, ratio("hours", "hour"), 1e-9)
	assert.Less(t, patternScore("asdkjasd", []string{"asdkjasd"}, "address"), 0.4)
}

func TestTranscriptExport(t *testing.T) {
	var tr Transcript
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	tr.Add(at, "hi", "Hello!")
	tr.Add(at, "bye", "See you soon!")
	assert.Equal(t, 2, tr.Len())

	var buf bytes.Buffer
	_, err := tr.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Library Assistant Chat History\n"))
	assert.Contains(t, out, "[09:30:00] You: hi\n")
	assert.Contains(t, out, "[09:30:00] Assistant: See you soon!\n")
}

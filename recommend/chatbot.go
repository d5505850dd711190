package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"library-catalog/logging"
	"library-catalog/metrics"
)

type AnswerKind string

const (
	AnswerEmpty    AnswerKind = "empty"
	AnswerBook     AnswerKind = "book"
	AnswerIntent   AnswerKind = "intent"
	AnswerCourse   AnswerKind = "course"
	AnswerKeyword  AnswerKind = "keyword"
	AnswerFallback AnswerKind = "fallback"
)

// Answer is a chatbot reply. Intent names the matched intent, course or
// keyword rule; BookID is set for book answers.
type Answer struct {
	Kind   AnswerKind `json:"kind"`
	Intent string     `json:"intent,omitempty"`
	BookID string     `json:"book_id,omitempty"`
	Text   string     `json:"text"`
}

var bookIDPattern = regexp.MustCompile(`book\s*(?:id\s*)?(\w+\d+\w*)`)

// minTokenLen is the length a word must exceed to count as a title or
// author match.
const minTokenLen = 3

// Chatbot answers questions from a fixed knowledge base and the live catalog.
//
// Intent ties are resolved deterministically: the higher score wins, then the
// longer pattern, then the intent registered first.
type Chatbot struct {
	src       Source
	intents   []Intent
	threshold float64

	mu  sync.Mutex
	rnd *rand.Rand
}

type ChatOption func(*Chatbot)

func WithIntents(intents []Intent) ChatOption {
	return func(c *Chatbot) { c.intents = intents }
}

// WithThreshold sets the minimum similarity an intent must exceed.
func WithThreshold(t float64) ChatOption {
	return func(c *Chatbot) {
		if t > 0 && t < 1 {
			c.threshold = t
		}
	}
}

// WithRand makes response selection reproducible.
func WithRand(r *rand.Rand) ChatOption {
	return func(c *Chatbot) { c.rnd = r }
}

func NewChatbot(src Source, opts ...ChatOption) *Chatbot {
	c := &Chatbot{
		src:       src,
		intents:   DefaultIntents(),
		threshold: 0.4,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Respond answers one message. It never fails; catalog errors only skip the
// book lookup step.
func (c *Chatbot) Respond(ctx context.Context, input string) Answer {
	a := c.respond(ctx, input)
	metrics.ChatbotAnswers.WithLabelValues(string(a.Kind)).Inc()
	return a
}

func (c *Chatbot) respond(ctx context.Context, input string) Answer {
	input = strings.TrimSpace(input)
	if input == "" {
		return Answer{Kind: AnswerEmpty, Text: "Please ask a question about books or library services."}
	}
	lower := strings.ToLower(input)
	norm := normalize(input)
	words := strings.Fields(norm)

	snap, err := c.src.Snapshot(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("chatbot catalog unavailable")
		snap = &Snapshot{}
	}

	if b, ok := findBook(snap.Books, lower, norm, words); ok {
		return Answer{Kind: AnswerBook, BookID: b.ID, Text: describeBook(b, snap.Books)}
	}

	if in, ok := c.bestIntent(norm, words); ok {
		return Answer{Kind: AnswerIntent, Intent: in.Name, Text: c.intentText(in)}
	}

	if course, ok := courseQuery(words); ok {
		n := countCourseBooks(snap.Books, course)
		return Answer{
			Kind:   AnswerCourse,
			Intent: course,
			Text: fmt.Sprintf("%s Course Books:\n  We have %d books for %s course\n  Each book has 10 fixed copies\n  Ask for recommendations for personalized suggestions",
				course, n, course),
		}
	}

	for _, rule := range keywordChain {
		for _, p := range rule.phrases {
			if !strings.Contains(lower, p) {
				continue
			}
			text := rule.response
			if rule.kind == "fines" {
				text = fmt.Sprintf("Fine Information:\n  Late return fine: Rs.5 per day\n  Current pending fines in system: Rs.%.2f\n  Fines are settled at the desk against the issued book",
					snap.PendingFines)
			}
			return Answer{Kind: AnswerKeyword, Intent: rule.kind, Text: text}
		}
	}

	return Answer{
		Kind: AnswerFallback,
		Text: "I'm not sure I understand that question about the library.\n\n" +
			c.pick(fallbackSuggestions) +
			"\n\nOr type 'help' to see what I can do!",
	}
}

func (c *Chatbot) bestIntent(norm string, words []string) (Intent, bool) {
	var (
		best      Intent
		bestScore float64
		bestLen   int
		found     bool
	)
	for _, in := range c.intents {
		for _, p := range in.Patterns {
			score := patternScore(norm, words, p)
			if score <= c.threshold {
				continue
			}
			if !found || score > bestScore || (score == bestScore && len(p) > bestLen) {
				best, bestScore, bestLen, found = in, score, len(p), true
			}
		}
	}
	return best, found
}

func (c *Chatbot) intentText(in Intent) string {
	if len(in.Responses) > 0 {
		return c.pick(in.Responses)
	}
	return in.Response
}

func (c *Chatbot) pick(options []string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return options[c.rnd.Intn(len(options))]
}

// findBook looks for an explicit "book <id>" reference first, then for a
// title or author mentioned in the message.
func findBook(books []Book, lower, norm string, words []string) (Book, bool) {
	if len(books) == 0 {
		return Book{}, false
	}
	if m := bookIDPattern.FindStringSubmatch(lower); m != nil {
		for _, b := range books {
			if strings.EqualFold(b.ID, m[1]) {
				return b, true
			}
		}
	}

	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[w] = true
	}
	mentions := func(field string) bool {
		f := normalize(field)
		if len(f) > minTokenLen && strings.Contains(norm, f) {
			return true
		}
		for _, tok := range strings.Fields(f) {
			if len(tok) > minTokenLen && present[tok] {
				return true
			}
		}
		return false
	}
	for _, b := range books {
		if mentions(b.Name) || mentions(b.Author) {
			return b, true
		}
	}
	return Book{}, false
}

func describeBook(b Book, catalog []Book) string {
	var sb strings.Builder
	sb.WriteString("Book Information:\n")
	fmt.Fprintf(&sb, "  Title: %s\n", b.Name)
	fmt.Fprintf(&sb, "  Author: %s\n", b.Author)
	fmt.Fprintf(&sb, "  Book ID: %s\n", b.ID)
	if strings.EqualFold(b.Status, "Issued") {
		fmt.Fprintf(&sb, "  Status: Currently Issued\n    Borrower ID: %s\n    Issue Date: %s\n    Due Date: %s\n",
			b.BorrowerID, b.IssueDate, b.DueDate)
	} else {
		sb.WriteString("  Status: Available (10 copies in stock, fixed quantity)\n")
	}

	related := relatedByAuthor(b, catalog, 3)
	if len(related) > 0 {
		sb.WriteString("\nRelated Books by Same Author:\n")
		for _, r := range related {
			mark := "[available]"
			if strings.EqualFold(r.Status, "Issued") {
				mark = "[issued]"
			}
			fmt.Fprintf(&sb, "  %s %s by %s\n", mark, r.Name, r.Author)
		}
	}
	return sb.String()
}

// relatedByAuthor matches on the first word of the author's name.
func relatedByAuthor(b Book, catalog []Book, limit int) []Book {
	fields := strings.Fields(b.Author)
	if len(fields) == 0 {
		return nil
	}
	first := strings.ToLower(fields[0])
	var out []Book
	for _, other := range catalog {
		if len(out) >= limit {
			break
		}
		if other.ID == b.ID {
			continue
		}
		if strings.Contains(strings.ToLower(other.Author), first) {
			out = append(out, other)
		}
	}
	return out
}

func courseQuery(words []string) (string, bool) {
	for _, cq := range courseQueryWords {
		for _, w := range words {
			if w == cq.word {
				return cq.course, true
			}
		}
	}
	return "", false
}

func countCourseBooks(books []Book, course string) int {
	code := strings.ReplaceAll(course, ".", "")
	n := 0
	for _, b := range books {
		id := strings.ToUpper(b.ID)
		if strings.HasPrefix(id, code) && (len(id) == len(code) || id[len(code)] >= '0' && id[len(code)] <= '9') {
			n++
			continue
		}
		if containsWord(strings.ToUpper(b.Name), course) {
			n++
		}
	}
	return n
}

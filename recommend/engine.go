package recommend

import (
	"context"
	"time"

	"library-catalog/logging"
	"library-catalog/metrics"
)

type Config struct {
	TopN               int
	TrendingWindowDays int
	SimilarStudents    int
	SameClassWeight    int
}

func DefaultConfig() Config {
	return Config{TopN: 5, TrendingWindowDays: 30, SimilarStudents: 3, SameClassWeight: 2}
}

// Engine ranks books from a fresh snapshot on every call.
type Engine struct {
	src Source
	cfg Config
	now func() time.Time
}

type Option func(*Engine)

// WithClock fixes the engine's notion of "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(src Source, cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.TopN <= 0 {
		cfg.TopN = def.TopN
	}
	if cfg.TrendingWindowDays <= 0 {
		cfg.TrendingWindowDays = def.TrendingWindowDays
	}
	if cfg.SimilarStudents <= 0 {
		cfg.SimilarStudents = def.SimilarStudents
	}
	if cfg.SameClassWeight <= 0 {
		cfg.SameClassWeight = def.SameClassWeight
	}
	e := &Engine{src: src, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend returns at most topN books for studentID. A topN of zero or less
// uses the configured default. Load failures yield an empty list.
func (e *Engine) Recommend(ctx context.Context, studentID string, s Strategy, topN int) []Recommendation {
	if topN <= 0 {
		topN = e.cfg.TopN
	}
	if _, ok := policy[s]; !ok {
		s = Hybrid
	}
	metrics.Recommendations.WithLabelValues(s.String()).Inc()

	snap, err := e.src.Snapshot(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("student_id", studentID).Msg("recommendation snapshot unavailable")
		return []Recommendation{}
	}

	st := newState(snap, e.now())
	recs := e.resolve(st, s, studentID, topN, 0)
	if recs == nil {
		recs = []Recommendation{}
	}
	return recs
}

// state is the per-call view built from a snapshot.
type state struct {
	now      time.Time
	books    []Book
	byID     map[string]Book
	loans    []Loan
	classes  map[string]string
	profiles map[string]map[string]bool
	history  map[string][]string
	students []string
}

func newState(snap *Snapshot, now time.Time) *state {
	st := &state{
		now:      now,
		books:    snap.Books,
		byID:     make(map[string]Book, len(snap.Books)),
		loans:    snap.Loans,
		classes:  make(map[string]string),
		profiles: make(map[string]map[string]bool),
		history:  make(map[string][]string),
	}
	for _, b := range snap.Books {
		st.byID[b.ID] = b
	}
	for id, class := range snap.Classes {
		st.classes[id] = class
	}
	for _, l := range snap.Loans {
		p, ok := st.profiles[l.StudentID]
		if !ok {
			p = make(map[string]bool)
			st.profiles[l.StudentID] = p
			st.students = append(st.students, l.StudentID)
		}
		if !p[l.BookID] {
			p[l.BookID] = true
			st.history[l.StudentID] = append(st.history[l.StudentID], l.BookID)
		}
		if _, ok := st.classes[l.StudentID]; !ok && l.Class != "" {
			st.classes[l.StudentID] = l.Class
		}
	}
	return st
}

func (st *state) owns(studentID, bookID string) bool {
	return st.profiles[studentID][bookID]
}

func (st *state) rec(bookID string) (Recommendation, bool) {
	b, ok := st.byID[bookID]
	if !ok {
		return Recommendation{}, false
	}
	return Recommendation{BookID: b.ID, Name: b.Name, Author: b.Author}, true
}

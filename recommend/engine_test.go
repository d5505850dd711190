package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

func staticSource(s *Snapshot) Source {
	return SourceFunc(func(context.Context) (*Snapshot, error) { return s, nil })
}

func newTestEngine(s *Snapshot) *Engine {
	return NewEngine(staticSource(s), DefaultConfig(), WithClock(func() time.Time { return testNow }))
}

func books(ids ...string) []Book {
	out := make([]Book, 0, len(ids))
	for _, id := range ids {
		out = append(out, Book{ID: id, Name: "Title " + id, Author: "Author " + id, Status: "Available"})
	}
	return out
}

func ids(recs []Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.BookID)
	}
	return out
}

func loan(student, class, book string) Loan {
	return Loan{StudentID: student, Class: class, BookID: book}
}

func TestPopularOrdersByBorrowCount(t *testing.T) {
	snap := &Snapshot{
		Books: books("A", "B", "C"),
		Loans: []Loan{
			loan("S1", "", "A"), loan("S2", "", "B"), loan("S3", "", "C"),
			loan("S4", "", "A"), loan("S5", "", "C"), loan("S6", "", "A"),
		},
	}
	got := newTestEngine(snap).Recommend(context.Background(), "", Popular, 2)
	assert.Equal(t, []string{"A", "C"}, ids(got))
}

func TestPopularTiesKeepFirstSeenOrder(t *testing.T) {
	snap := &Snapshot{
		Books: books("A", "B", "C"),
		Loans: []Loan{loan("S1", "", "C"), loan("S2", "", "A"), loan("S3", "", "B")},
	}
	got := newTestEngine(snap).Recommend(context.Background(), "", Popular, 3)
	assert.Equal(t, []string{"C", "A", "B"}, ids(got))
}

func TestCollaborativePrefersPeerBooks(t *testing.T) {
	snap := &Snapshot{
		Books: books("B1", "B2", "B3", "B4"),
		Loans: []Loan{
			loan("S1", "BCA 1st Year", "B1"),
			loan("S1", "BCA 1st Year", "B2"),
			loan("S2", "BCA 1st Year", "B2"),
			loan("S2", "BCA 1st Year", "B3"),
			loan("S3", "BA 1st Year", "B4"),
			loan("S4", "BA 1st Year", "B4"),
			loan("S5", "BA 1st Year", "B4"),
		},
	}
	got := newTestEngine(snap).Recommend(context.Background(), "S1", Collaborative, 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "B3", got[0].BookID, "peer book ranks before popular top-up")
	assert.NotContains(t, ids(got), "B1")
	assert.NotContains(t, ids(got), "B2")
	assert.Contains(t, ids(got), "B4", "popular top-up fills the rest")
}

func TestCollaborativeClassmatesWeighDouble(t *testing.T) {
	snap := &Snapshot{
		Books: books("B1", "X", "Y"),
		Loans: []Loan{
			loan("S1", "BCA", "B1"),
			loan("OTHER", "BBA", "B1"),
			loan("OTHER", "BBA", "X"),
			loan("MATE", "BCA", "B1"),
			loan("MATE", "BCA", "Y"),
		},
	}
	got := newTestEngine(snap).Recommend(context.Background(), "S1", Collaborative, 1)
	assert.Equal(t, []string{"Y"}, ids(got))
}

func TestCollaborativeWithoutHistoryFallsBack(t *testing.T) {
	snap := &Snapshot{
		Books: []Book{
			{ID: "BCA102", Name: "Programming in C", Author: "E. Balagurusamy"},
			{ID: "BA101", Name: "English Literature - I", Author: "William Shakespeare"},
			{ID: "BCA203", Name: "Database Management Systems", Author: "Raghu Ramakrishnan"},
		},
		Loans:   []Loan{loan("S9", "BA", "BA101"), loan("S8", "BA", "BA101")},
		Classes: map[string]string{"NEW": "BCA 1st Year"},
	}
	e := newTestEngine(snap)

	got := e.Recommend(context.Background(), "NEW", Collaborative, 2)
	assert.Equal(t, []string{"BCA102", "BCA203"}, ids(got), "course-based fallback")

	got = e.Recommend(context.Background(), "UNKNOWN", Collaborative, 2)
	assert.Equal(t, []string{"BA101"}, ids(got), "popular when class is unknown too")
}

func TestCourseBasedExcludesOwnAndTopsUp(t *testing.T) {
	snap := &Snapshot{
		Books: []Book{
			{ID: "P1", Name: "Programming in C"},
			{ID: "P2", Name: "Java Programming"},
			{ID: "H1", Name: "World History"},
		},
		Loans: []Loan{
			loan("S1", "BCA 2nd Year", "P1"),
			loan("S2", "BA", "H1"),
			loan("S3", "BA", "H1"),
		},
	}
	got := newTestEngine(snap).Recommend(context.Background(), "S1", CourseBased, 3)
	assert.Equal(t, []string{"P2", "H1"}, ids(got))
}

func TestTrendingUsesWindow(t *testing.T) {
	snap := &Snapshot{
		Books: books("OLD", "NEW", "RET"),
		Loans: []Loan{
			{StudentID: "S1", BookID: "OLD", Active: true, DueDate: testNow.AddDate(0, 0, -45).Format(dateLayout)},
			{StudentID: "S2", BookID: "NEW", Active: true, DueDate: testNow.AddDate(0, 0, 7).Format(dateLayout)},
			{StudentID: "S3", BookID: "RET", Active: false, DueDate: testNow.AddDate(0, 0, 7).Format(dateLayout)},
		},
	}
	got := newTestEngine(snap).Recommend(context.Background(), "", Trending, 5)
	assert.Equal(t, []string{"NEW"}, ids(got))
}

func TestTrendingMayBeEmpty(t *testing.T) {
	got := newTestEngine(&Snapshot{Books: books("A")}).Recommend(context.Background(), "", Trending, 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHybridUniqueAndBounded(t *testing.T) {
	snap := &Snapshot{
		Books: books("B1", "B2", "B3", "B4", "B5", "B6"),
		Loans: []Loan{
			loan("S1", "BCA", "B1"),
			loan("S2", "BCA", "B1"),
			loan("S2", "BCA", "B2"),
			loan("S2", "BCA", "B3"),
			{StudentID: "S3", BookID: "B2", Active: true, DueDate: testNow.Format(dateLayout)},
			{StudentID: "S3", BookID: "B4", Active: true, DueDate: testNow.Format(dateLayout)},
			loan("S4", "", "B5"),
		},
	}
	e := newTestEngine(snap)
	for _, n := range []int{1, 2, 3, 10} {
		got := e.Recommend(context.Background(), "S1", Hybrid, n)
		assert.LessOrEqual(t, len(got), n)
		seen := map[string]bool{}
		for _, r := range got {
			assert.False(t, seen[r.BookID], "duplicate %s", r.BookID)
			seen[r.BookID] = true
			assert.NotEqual(t, "B1", r.BookID, "own book recommended")
		}
	}
}

func TestRecommendSurvivesSourceFailure(t *testing.T) {
	src := SourceFunc(func(context.Context) (*Snapshot, error) { return nil, errors.New("db locked") })
	got := NewEngine(src, DefaultConfig()).Recommend(context.Background(), "S1", Hybrid, 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParseStrategy(t *testing.T) {
	cases := map[string]Strategy{
		"":              Hybrid,
		"popular":       Popular,
		"TRENDING":      Trending,
		"course":        CourseBased,
		"course-based":  CourseBased,
		"collaborative": Collaborative,
	}
	for in, want := range cases {
		got, err := ParseStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseStrategy("magic")
	assert.Error(t, err)
}

func TestCourseForClass(t *testing.T) {
	cases := map[string]string{
		"BCA 1st Year":  "BCA",
		"bba-2nd year":  "BBA",
		"BA 3rd Year":   "BA",
		"B.COM 1st":     "B.COM",
		"BSC Computers": "BSC",
		"1st Year":      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, CourseForClass(in), in)
	}
}

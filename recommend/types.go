// Package recommend ranks books for a student and answers free-text
// questions about the library. Both paths work on a Snapshot read once per
// call and never return an error to the caller.
package recommend

import (
	"context"
	"fmt"
	"strings"
)

// Strategy is the closed set of ranking strategies.
type Strategy int

const (
	Hybrid Strategy = iota
	Popular
	Trending
	CourseBased
	Collaborative

	// none marks an empty slot in the fallback policy.
	none Strategy = -1
)

var strategyNames = map[Strategy]string{
	Hybrid:        "hybrid",
	Popular:       "popular",
	Trending:      "trending",
	CourseBased:   "course",
	Collaborative: "collaborative",
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy accepts the names printed by String; "" means Hybrid.
func ParseStrategy(s string) (Strategy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Hybrid, nil
	}
	for k, v := range strategyNames {
		if v == s {
			return k, nil
		}
	}
	if s == "course-based" || s == "course_based" {
		return CourseBased, nil
	}
	return Hybrid, fmt.Errorf("unknown strategy %q", s)
}

// Book is a catalog row as the recommender and chatbot see it.
type Book struct {
	ID         string
	Name       string
	Author     string
	Status     string
	BorrowerID string
	IssueDate  string
	DueDate    string
}

// Loan is one historical issue event. Active loans have not been returned.
type Loan struct {
	StudentID string
	Class     string
	BookID    string
	DueDate   string
	Active    bool
}

// Snapshot is the state a single recommendation or chat call works from.
type Snapshot struct {
	Books        []Book
	Loans        []Loan
	Classes      map[string]string
	PendingFines float64
}

// Source produces snapshots; the catalog database implements it.
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Snapshot, error)

func (f SourceFunc) Snapshot(ctx context.Context) (*Snapshot, error) { return f(ctx) }

// Recommendation is one ranked result.
type Recommendation struct {
	BookID string `json:"book_id"`
	Name   string `json:"name"`
	Author string `json:"author"`
}

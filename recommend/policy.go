package recommend

import (
	"errors"

	"library-catalog/metrics"
)

// errNoProfile means a strategy has nothing to work from for this student.
var errNoProfile = errors.New("no profile for student")

// rule says where a strategy goes when it cannot run (fallback) and what
// fills the list when it runs short (topUp).
type rule struct {
	fallback Strategy
	topUp    Strategy
}

var policy = map[Strategy]rule{
	Popular:       {fallback: none, topUp: none},
	Trending:      {fallback: none, topUp: none},
	CourseBased:   {fallback: Popular, topUp: Popular},
	Collaborative: {fallback: CourseBased, topUp: Popular},
	Hybrid:        {fallback: Popular, topUp: none},
}

const maxPolicyDepth = 4

func (e *Engine) resolve(st *state, s Strategy, studentID string, n, depth int) []Recommendation {
	r := policy[s]
	recs, err := e.run(st, s, studentID, n, depth)
	if err != nil {
		if r.fallback == none || depth >= maxPolicyDepth {
			return nil
		}
		metrics.RecommendationFallbacks.WithLabelValues(s.String(), r.fallback.String(), "fallback").Inc()
		return e.resolve(st, r.fallback, studentID, n, depth+1)
	}
	if len(recs) >= n || r.topUp == none || depth >= maxPolicyDepth {
		return truncate(recs, n)
	}

	metrics.RecommendationFallbacks.WithLabelValues(s.String(), r.topUp.String(), "top_up").Inc()
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		seen[rec.BookID] = true
	}
	for _, extra := range e.resolve(st, r.topUp, studentID, len(st.books), depth+1) {
		if len(recs) >= n {
			break
		}
		if seen[extra.BookID] || st.owns(studentID, extra.BookID) {
			continue
		}
		seen[extra.BookID] = true
		recs = append(recs, extra)
	}
	return recs
}

// run is the single dispatch point for every strategy.
func (e *Engine) run(st *state, s Strategy, studentID string, n, depth int) ([]Recommendation, error) {
	switch s {
	case Popular:
		return st.popular(n), nil
	case Trending:
		return st.trending(n, e.cfg.TrendingWindowDays), nil
	case CourseBased:
		return st.courseBased(studentID, n)
	case Collaborative:
		return st.collaborative(studentID, n, e.cfg.SimilarStudents, e.cfg.SameClassWeight)
	case Hybrid:
		return e.hybrid(st, studentID, n, depth)
	default:
		return nil, errNoProfile
	}
}

func (e *Engine) hybrid(st *state, studentID string, n, depth int) ([]Recommendation, error) {
	seen := make(map[string]bool)
	var out []Recommendation
	for _, part := range []Strategy{Collaborative, CourseBased, Trending} {
		for _, rec := range e.resolve(st, part, studentID, n, depth+1) {
			if seen[rec.BookID] || st.owns(studentID, rec.BookID) {
				continue
			}
			seen[rec.BookID] = true
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, errNoProfile
	}
	return truncate(out, n), nil
}

func truncate(recs []Recommendation, n int) []Recommendation {
	if len(recs) > n {
		return recs[:n]
	}
	return recs
}

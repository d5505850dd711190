package recommend

import (
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type counted struct {
	id    string
	count int
	order int
}

// rankByCount sorts by count descending, keeping first-seen order on ties.
func rankByCount(counts map[string]*counted) []counted {
	out := make([]counted, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].order < out[j].order
	})
	return out
}

func (st *state) toRecs(ranked []counted, n int) []Recommendation {
	out := make([]Recommendation, 0, n)
	for _, c := range ranked {
		if len(out) >= n {
			break
		}
		if r, ok := st.rec(c.id); ok {
			out = append(out, r)
		}
	}
	return out
}

// popular ranks by how often each book was ever issued.
func (st *state) popular(n int) []Recommendation {
	counts := make(map[string]*counted)
	for i, l := range st.loans {
		c, ok := counts[l.BookID]
		if !ok {
			c = &counted{id: l.BookID, order: i}
			counts[l.BookID] = c
		}
		c.count++
	}
	return st.toRecs(rankByCount(counts), n)
}

// trending ranks books on loan right now whose due date falls inside the
// window ending today.
func (st *state) trending(n, windowDays int) []Recommendation {
	cutoff := st.now.AddDate(0, 0, -windowDays)
	counts := make(map[string]*counted)
	for i, l := range st.loans {
		if !l.Active {
			continue
		}
		due, err := time.ParseInLocation(dateLayout, l.DueDate, st.now.Location())
		if err != nil || !due.After(cutoff) {
			continue
		}
		c, ok := counts[l.BookID]
		if !ok {
			c = &counted{id: l.BookID, order: i}
			counts[l.BookID] = c
		}
		c.count++
	}
	return st.toRecs(rankByCount(counts), n)
}

// courseBased picks titles containing a keyword of the student's course.
func (st *state) courseBased(studentID string, n int) ([]Recommendation, error) {
	keywords := CourseKeywords(CourseForClass(st.classes[studentID]))
	if len(keywords) == 0 {
		return nil, errNoProfile
	}
	out := make([]Recommendation, 0, n)
	for _, b := range st.books {
		if len(out) >= n {
			break
		}
		if st.owns(studentID, b.ID) {
			continue
		}
		name := strings.ToLower(b.Name)
		for _, kw := range keywords {
			if strings.Contains(name, kw) {
				out = append(out, Recommendation{BookID: b.ID, Name: b.Name, Author: b.Author})
				break
			}
		}
	}
	return out, nil
}

// collaborative scores other students by shared books, weighting classmates,
// and suggests what the closest ones borrowed that the student has not.
func (st *state) collaborative(studentID string, n, topK, classWeight int) ([]Recommendation, error) {
	mine := st.profiles[studentID]
	if len(mine) == 0 {
		return nil, errNoProfile
	}
	myClass := normalizeClass(st.classes[studentID])

	type peer struct {
		id    string
		score int
		order int
	}
	var peers []peer
	for i, other := range st.students {
		if other == studentID {
			continue
		}
		shared := 0
		for b := range st.profiles[other] {
			if mine[b] {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		if myClass != "" && normalizeClass(st.classes[other]) == myClass {
			shared *= classWeight
		}
		peers = append(peers, peer{id: other, score: shared, order: i})
	}
	sort.Slice(peers, func(i, j int) bool {
		if peers[i].score != peers[j].score {
			return peers[i].score > peers[j].score
		}
		return peers[i].order < peers[j].order
	})
	if len(peers) > topK {
		peers = peers[:topK]
	}

	seen := make(map[string]bool)
	out := make([]Recommendation, 0, n)
	for _, p := range peers {
		for _, b := range st.history[p.id] {
			if len(out) >= n {
				return out, nil
			}
			if mine[b] || seen[b] {
				continue
			}
			seen[b] = true
			if r, ok := st.rec(b); ok {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func normalizeClass(c string) string {
	return strings.ToUpper(strings.TrimSpace(c))
}

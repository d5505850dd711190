package recommend

import "strings"

// courseKeywords maps a course code to the title keywords that mark its books.
var courseKeywords = map[string][]string{
	"BCA":   {"computer", "programming", "software", "database"},
	"BSC":   {"science", "math", "physics", "chemistry"},
	"B.COM": {"commerce", "accounting", "finance", "business"},
	"BA":    {"arts", "history", "literature", "psychology"},
	"BBA":   {"business", "management", "marketing", "finance"},
}

// courseMatchOrder checks longer codes first so "BBA" is not read as "BA".
var courseMatchOrder = []struct {
	code    string
	markers []string
}{
	{"B.COM", []string{"B.COM", "BCOM"}},
	{"BCA", []string{"BCA"}},
	{"BSC", []string{"BSC", "B.SC"}},
	{"BBA", []string{"BBA"}},
	{"BA", []string{"BA"}},
}

// CourseForClass extracts the course code from a class string such as
// "BCA 2nd Year". It returns "" when no course is recognised.
func CourseForClass(class string) string {
	up := strings.ToUpper(class)
	for _, c := range courseMatchOrder {
		for _, m := range c.markers {
			if containsWord(up, m) {
				return c.code
			}
		}
	}
	return ""
}

// CourseKeywords returns the keyword set for a course code.
func CourseKeywords(course string) []string {
	return courseKeywords[course]
}

// containsWord reports whether word occurs in s delimited by non-alphanumerics.
func containsWord(s, word string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], word)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(word)
		if (start == 0 || !isAlnum(s[start-1])) && (end == len(s) || !isAlnum(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

package library

import (
	"context"
	"errors"
	"strings"
)

// CourseBook is one entry of the predefined syllabus catalog.
type CourseBook struct {
	Course string
	Year   string
	ID     string
	Name   string
	Author string
}

// Years in syllabus order.
var Years = []string{"1st Year", "2nd Year", "3rd Year"}

// Courses in display order.
var Courses = []string{"BCA", "BSC", "B.COM", "BA", "BBA"}

var courseCatalog = map[string]map[string][][3]string{
	"BCA": {
		"1st Year": {
			{"BCA101", "Introduction to Computers", "P.K. Sinha"},
			{"BCA102", "Programming in C", "E. Balagurusamy"},
			{"BCA103", "Digital Electronics", "Morris Mano"},
			{"BCA104", "Mathematics for Computing", "R.D. Sharma"},
			{"BCA105", "Business Communication", "R.K. Madhukar"},
		},
		"2nd Year": {
			{"BCA201", "Data Structures", "Seymour Lipschutz"},
			{"BCA202", "Object Oriented Programming with C++", "Robert Lafore"},
			{"BCA203", "Database Management Systems", "Raghu Ramakrishnan"},
			{"BCA204", "Operating Systems", "Silberschatz"},
			{"BCA205", "Web Technologies", "Achyut Godbole"},
		},
		"3rd Year": {
			{"BCA301", "Software Engineering", "Roger Pressman"},
			{"BCA302", "Computer Networks", "Andrew Tanenbaum"},
			{"BCA303", "Java Programming", "Herbert Schildt"},
			{"BCA304", "Python Programming", "Mark Lutz"},
			{"BCA305", "Cloud Computing", "Rajkumar Buyya"},
		},
	},
	"BSC": {
		"1st Year": {
			{"BSC101", "Fundamentals of computer- I", "E. Balagurusam"},
			{"BSC102", "Data Structure- I", "Donald Knuth"},
			{"BSC103", "RDBMS - I", "Edgar F. Codd"},
			{"BSC104", "web tech", "Achyut S. Godbole"},
			{"BSC105", "C Programming", "Dennis Ritchie"},
		},
		"2nd Year": {
			{"BSC201", "Software testing- II", "Ron Patton"},
			{"BSC202", "windows Programming- II", "Charles Petzold"},
			{"BSC203", "Python - II", "Mark Lutz"},
			{"BSC204", "Statistics", "Karl Pearson"},
			{"BSC205", "java", "Herbert Schildt"},
		},
		"3rd Year": {
			{"BSC301", "image processing", "Rafael C.Gonzalez"},
			{"BSC302", "SPM", "Mike Cotterell"},
			{"BSC303", "Android Studio", "Neil Smyth"},
			{"BSC304", "Machine learning", "Tom Mitchell"},
			{"BSC305", "Research Methodology", "C.R. Kothari"},
		},
	},
	"B.COM": {
		"1st Year": {
			{"BCOM101", "Financial Accounting", "S.N. Maheshwari"},
			{"BCOM102", "Business Economics", "H.L. Ahuja"},
			{"BCOM103", "Business Law", "N.D. Kapoor"},
			{"BCOM104", "Business Mathematics", "J.K. Thukral"},
			{"BCOM105", "Principles of Management", "Prasad & Prasad"},
		},
		"2nd Year": {
			{"BCOM201", "Cost Accounting", "Jain & Narang"},
			{"BCOM202", "Corporate Accounting", "S.P. Iyengar"},
			{"BCOM203", "Income Tax", "V.K. Singhania"},
			{"BCOM204", "Business Statistics", "S.P. Gupta"},
			{"BCOM205", "Marketing Management", "Philip Kotler"},
		},
		"3rd Year": {
			{"BCOM301", "Auditing", "D.K. Mittal"},
			{"BCOM302", "Management Accounting", "Khan & Jain"},
			{"BCOM303", "Financial Management", "I.M. Pandey"},
			{"BCOM304", "Indian Economy", "Mishra & Puri"},
			{"BCOM305", "Entrepreneurship", "Robert Hisrich"},
		},
	},
	"BA": {
		"1st Year": {
			{"BA101", "English Literature - I", "William Shakespeare"},
			{"BA102", "History of India - I", "Romila Thapar"},
			{"BA103", "Political Theory", "O.P. Gauba"},
			{"BA104", "Sociology - I", "Haralambos & Holborn"},
			{"BA105", "Psychology - I", "Morgan & King"},
		},
		"2nd Year": {
			{"BA201", "English Literature - II", "Jane Austen"},
			{"BA202", "History of India - II", "Bipin Chandra"},
			{"BA203", "Indian Constitution", "D.D. Basu"},
			{"BA204", "Sociology - II", "Anthony Giddens"},
			{"BA205", "Psychology - II", "Baron & Misra"},
		},
		"3rd Year": {
			{"BA301", "Modern English Literature", "T.S. Eliot"},
			{"BA302", "World History", "H.G. Wells"},
			{"BA303", "International Relations", "Palmer & Perkins"},
			{"BA304", "Social Anthropology", "E.E. Evans-Pritchard"},
			{"BA305", "Clinical Psychology", "Barlow & Durand"},
		},
	},
	"BBA": {
		"1st Year": {
			{"BBA101", "Principles of Management", "Koontz & O'Donnell"},
			{"BBA102", "Business Economics", "P.N. Chopra"},
			{"BBA103", "Financial Accounting", "Mukherjee & Hanif"},
			{"BBA104", "Business Mathematics", "Qazi Zameeruddin"},
			{"BBA105", "Organizational Behavior", "Stephen Robbins"},
		},
		"2nd Year": {
			{"BBA201", "Human Resource Management", "Gary Dessler"},
			{"BBA202", "Marketing Management", "Philip Kotler"},
			{"BBA203", "Financial Management", "Prasanna Chandra"},
			{"BBA204", "Business Statistics", "S.P. Gupta"},
			{"BBA205", "Production Management", "Buffa & Sarin"},
		},
		"3rd Year": {
			{"BBA301", "Strategic Management", "Fred David"},
			{"BBA302", "International Business", "Charles Hill"},
			{"BBA303", "Management Information Systems", "James O'Brien"},
			{"BBA304", "Business Research Methods", "William Zikmund"},
			{"BBA305", "Entrepreneurship Development", "Robert Hisrich"},
		},
	},
}

// CourseBooks returns the syllabus for course and year. Empty arguments match
// everything. Results follow Courses, then Years.
func CourseBooks(course, year string) []CourseBook {
	var out []CourseBook
	for _, c := range Courses {
		if course != "" && !strings.EqualFold(course, c) {
			continue
		}
		for _, y := range Years {
			if year != "" && !strings.EqualFold(year, y) {
				continue
			}
			for _, e := range courseCatalog[c][y] {
				out = append(out, CourseBook{Course: c, Year: y, ID: e[0], Name: e[1], Author: e[2]})
			}
		}
	}
	return out
}

// SeedCourses inserts every syllabus title that is not in the catalog yet and
// returns how many were added. Existing rows, issued or not, are untouched.
func (d *Database) SeedCourses(ctx context.Context, course string, p Policy) (int, error) {
	added := 0
	for _, cb := range CourseBooks(course, "") {
		err := d.AddBook(ctx, Book{
			ID:         cb.ID,
			Name:       cb.Name,
			Author:     cb.Author,
			FinePerDay: p.DefaultFinePerDay,
			Quantity:   p.Quantity,
		})
		if err == nil {
			added++
			continue
		}
		if errors.Is(err, ErrDuplicateID) {
			continue
		}
		return added, err
	}
	return added, nil
}

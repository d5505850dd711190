package library

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func addBook(t *testing.T, db *Database, id, name, author string) {
	t.Helper()
	if err := db.AddBook(context.Background(), Book{ID: id, Name: name, Author: author, FinePerDay: 5, Quantity: 10}); err != nil {
		t.Fatalf("add book %s: %v", id, err)
	}
}

func addStudent(t *testing.T, db *Database, id, name, class string) {
	t.Helper()
	s := Student{ID: id, Name: name, Class: class, Contact: "9876543210", JoinDate: "2024-07-01", AdmissionYear: 2024}
	if err := db.AddStudent(context.Background(), s); err != nil {
		t.Fatalf("add student %s: %v", id, err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	for i := 0; i < 2; i++ {
		db, err := NewDatabase(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		db.Close()
	}
}

func TestAddBookStartsAvailable(t *testing.T) {
	db := tempDB(t)
	addBook(t, db, "BCA101", "Introduction to Computers", "P.K. Sinha")

	b, err := db.GetBook(context.Background(), "BCA101")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.Status != StatusAvailable || b.BorrowerID != Sentinel || b.DueDate != Sentinel {
		t.Fatalf("new book not in sentinel state: %+v", b)
	}
	if b.Quantity != 10 {
		t.Fatalf("quantity = %d, want 10", b.Quantity)
	}
}

func TestAddBookRejectsDuplicatesAndBlanks(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	addBook(t, db, "B1", "Title", "Author")

	if err := db.AddBook(ctx, Book{ID: "B1", Name: "Other"}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("duplicate: got %v", err)
	}
	err := db.AddBook(ctx, Book{ID: "B2"})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields[0].Field != "name" {
		t.Fatalf("blank name: got %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("validation error does not match ErrValidation")
	}
	err = db.AddBook(ctx, Book{ID: Sentinel, Name: "Reserved"})
	if !errors.As(err, &ve) || ve.Fields[0].Field != "id" {
		t.Fatalf("sentinel id: got %v", err)
	}
	if _, err := db.GetBook(ctx, Sentinel); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("sentinel book was stored: %v", err)
	}
}

func TestSearchBooksIsCaseInsensitive(t *testing.T) {
	db := tempDB(t)
	addBook(t, db, "BCA303", "Java Programming", "Herbert Schildt")
	addBook(t, db, "BSC205", "java", "Herbert Schildt")
	addBook(t, db, "BA101", "English Literature - I", "William Shakespeare")
	addBook(t, db, "X1", "100% Pure", "Anon")

	cases := []struct {
		q    string
		want int
	}{
		{"JAVA", 2},
		{"schildt", 2},
		{"shake", 1},
		{"%", 1},
		{"   ", 0},
		{"nothing", 0},
	}
	for _, tc := range cases {
		res, err := db.SearchBooks(context.Background(), tc.q)
		if err != nil {
			t.Fatalf("search %q: %v", tc.q, err)
		}
		if len(res) != tc.want {
			t.Fatalf("search %q: want %d results, got %d", tc.q, tc.want, len(res))
		}
	}
}

func TestUpdateAndDeleteBook(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	addBook(t, db, "B1", "Old", "Someone")

	if err := db.UpdateBook(ctx, "B1", "New", "Else", 7); err != nil {
		t.Fatalf("update: %v", err)
	}
	b, _ := db.GetBook(ctx, "B1")
	if b.Name != "New" || b.Author != "Else" || b.FinePerDay != 7 {
		t.Fatalf("update not applied: %+v", b)
	}
	if err := db.UpdateBook(ctx, "NOPE", "x", "y", 1); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("update missing: got %v", err)
	}
	if err := db.DeleteBook(ctx, "B1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.GetBook(ctx, "B1"); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("get deleted: got %v", err)
	}
}

func TestStudentValidation(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	next := time.Now().Year() + 1

	cases := []struct {
		name  string
		s     Student
		field string
	}{
		{"missing contact", Student{ID: "S1", Name: "A", Class: "BCA", JoinDate: "2024-01-01", AdmissionYear: 2024}, "contact"},
		{"bad date", Student{ID: "S1", Name: "A", Class: "BCA", Contact: "1", JoinDate: "01/02/2024", AdmissionYear: 2024}, "join_date"},
		{"too old", Student{ID: "S1", Name: "A", Class: "BCA", Contact: "1", JoinDate: "2024-01-01", AdmissionYear: 1999}, "admission_year"},
		{"future", Student{ID: "S1", Name: "A", Class: "BCA", Contact: "1", JoinDate: "2024-01-01", AdmissionYear: next}, "admission_year"},
	}
	for _, tc := range cases {
		err := db.AddStudent(ctx, tc.s)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: want validation error, got %v", tc.name, err)
		}
		if ve.Fields[0].Field != tc.field {
			t.Fatalf("%s: field = %s, want %s", tc.name, ve.Fields[0].Field, tc.field)
		}
	}

	sentinel := Student{ID: Sentinel, Name: "A", Class: "BCA", Contact: "1", JoinDate: "2024-01-01", AdmissionYear: 2024}
	if err := db.AddStudent(ctx, sentinel); !errors.Is(err, ErrValidation) {
		t.Fatalf("sentinel id accepted: %v", err)
	}
}

func TestStudentUpdateDeleteAndCounts(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	addStudent(t, db, "S1", "Asha", "BCA 1st Year")
	addStudent(t, db, "S2", "Ravi", "BA 2nd Year")
	addBook(t, db, "B1", "Title", "Author")

	if _, _, err := db.issueBook(ctx, "B1", "S1", time.Now(), "2030-01-01"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	list, err := db.ListStudents(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].BooksIssued != 1 || list[1].BooksIssued != 0 {
		t.Fatalf("unexpected counts: %+v %+v", list[0], list[1])
	}

	if err := db.UpdateStudent(ctx, "S2", "2025-01-10", 2025); err != nil {
		t.Fatalf("update: %v", err)
	}
	s, _ := db.GetStudent(ctx, "S2")
	if s.JoinDate != "2025-01-10" || s.AdmissionYear != 2025 {
		t.Fatalf("update not applied: %+v", s)
	}

	// Deleting a borrower leaves the book issued to the old id.
	if err := db.DeleteStudent(ctx, "S1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	b, _ := db.GetBook(ctx, "B1")
	if b.BorrowerID != "S1" || b.Status != StatusIssued {
		t.Fatalf("delete cascaded: %+v", b)
	}
}

func TestIssueReturnFlow(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	addBook(t, db, "B1", "Book", "Author")
	addStudent(t, db, "S1", "Asha", "BCA")

	if _, _, err := db.issueBook(ctx, "B1", "S1", time.Now(), "2030-01-01"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := db.issueBook(ctx, "B1", "S1", time.Now(), "2030-01-01"); !errors.Is(err, ErrAlreadyIssued) {
		t.Fatalf("second issue: got %v", err)
	}
	if _, err := db.returnBook(ctx, "B1", time.Now()); err != nil {
		t.Fatalf("return: %v", err)
	}
	if _, err := db.returnBook(ctx, "B1", time.Now()); !errors.Is(err, ErrAlreadyAvailable) {
		t.Fatalf("second return: got %v", err)
	}

	hist, err := db.IssueHistory(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 || hist[0].ReturnedAt == nil || hist[0].Class != "BCA" || hist[0].BookName != "Book" {
		t.Fatalf("unexpected history: %+v", hist)
	}
}

func TestIssueUnknownIDs(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	addBook(t, db, "B1", "Book", "Author")

	if _, _, err := db.issueBook(ctx, "NOPE", "S1", time.Now(), "2030-01-01"); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("unknown book: got %v", err)
	}
	if _, _, err := db.issueBook(ctx, "B1", "GHOST", time.Now(), "2030-01-01"); !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("unknown student: got %v", err)
	}
	b, _ := db.GetBook(ctx, "B1")
	if b.Status != StatusAvailable {
		t.Fatalf("failed issue mutated the row: %+v", b)
	}
}

func TestCountsUseQuantity(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	addBook(t, db, "B1", "One", "A")
	addBook(t, db, "B2", "Two", "B")
	addStudent(t, db, "S1", "Asha", "BCA")
	if _, _, err := db.issueBook(ctx, "B1", "S1", time.Now(), "2030-01-01"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	s, err := db.counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	want := Stats{TotalTitles: 2, TotalStock: 20, IssuedCount: 1, AvailableStock: 19, TotalStudents: 1}
	if s != want {
		t.Fatalf("counts = %+v, want %+v", s, want)
	}
}

func TestWishlistUpsert(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	addBook(t, db, "B1", "Book", "Author")
	addStudent(t, db, "S1", "Asha", "BCA")

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := db.AddToWishlist(ctx, "S1", "B1", first); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := db.AddToWishlist(ctx, "S1", "B1", first.AddDate(0, 0, 3)); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	list, err := db.Wishlist(ctx, "S1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].AddedDate != "2026-01-04" {
		t.Fatalf("upsert failed: %+v", list)
	}
	if _, err := db.AddToWishlist(ctx, "S1", "NOPE", first); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("unknown book: got %v", err)
	}
	if err := db.RemoveFromWishlist(ctx, "S1", "B1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := db.RemoveFromWishlist(ctx, "S1", "B1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("remove twice: got %v", err)
	}
}

func TestSeedCoursesSkipsExisting(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	addBook(t, db, "BCA101", "Custom Title", "Someone")

	n, err := db.SeedCourses(ctx, "BCA", DefaultPolicy())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 14 {
		t.Fatalf("seeded %d, want 14", n)
	}
	b, _ := db.GetBook(ctx, "BCA101")
	if b.Name != "Custom Title" {
		t.Fatalf("existing row overwritten: %+v", b)
	}
	if got := len(CourseBooks("", "")); got != 75 {
		t.Fatalf("catalog has %d titles, want 75", got)
	}
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	addStudent(t, db, "S1", "Asha", "BCA")
	for i := 0; i < 20; i++ {
		addBook(t, db, fmt.Sprintf("B%02d", i), fmt.Sprintf("Title %d", i), "Author")
	}

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if _, _, err := db.issueBook(ctx, fmt.Sprintf("B%02d", i), "S1", time.Now(), "2030-01-01"); err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := db.ListBooks(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent op: %v", err)
	}

	issued, err := db.IssuedBooks(ctx)
	if err != nil {
		t.Fatalf("issued: %v", err)
	}
	if len(issued) != 20 {
		t.Fatalf("want 20 issued, got %d", len(issued))
	}
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"library-catalog/library"
	"library-catalog/recommend"
)

const maxLoginAttempts = 3

var errLoginFailed = errors.New("too many failed login attempts")

// shell is the interactive circulation desk.
type shell struct {
	ctx          context.Context
	mgr          *library.LibraryManager
	sc           *bufio.Scanner
	out          io.Writer
	readPassword func(prompt string) (string, error)
	transcript   recommend.Transcript
	now          func() time.Time
}

func newShell(ctx context.Context, mgr *library.LibraryManager, in io.Reader, out io.Writer) *shell {
	s := &shell{
		ctx: ctx,
		mgr: mgr,
		sc:  bufio.NewScanner(in),
		out: out,
		now: time.Now,
	}
	s.readPassword = s.readTerminalPassword
	return s
}

func runShell(ctx context.Context) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return newShell(ctx, a.mgr, os.Stdin, os.Stdout).run()
}

// readTerminalPassword reads a password with echo disabled.
func (s *shell) readTerminalPassword(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(s.out)
	return strings.TrimSpace(string(bytePassword)), nil
}

// ask prints a prompt and returns the trimmed next line. ok is false at EOF.
func (s *shell) ask(prompt string) (string, bool) {
	fmt.Fprint(s.out, prompt)
	if !s.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.sc.Text()), true
}

func (s *shell) line(prompt string) string {
	v, _ := s.ask(prompt)
	return v
}

// login gates the shell when at least one librarian account exists.
func (s *shell) login() error {
	required, err := s.mgr.LoginRequired(s.ctx)
	if err != nil {
		return err
	}
	if !required {
		warning(s.out, "No librarian accounts exist; run `library admin add` to require a login.")
		return nil
	}
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		username, ok := s.ask("Username: ")
		if !ok {
			return io.EOF
		}
		password, err := s.readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if err := s.mgr.Authenticate(s.ctx, username, password); err == nil {
			success(s.out, "Welcome, %s.", username)
			return nil
		}
		failure(s.out, "Invalid username or password (%d/%d).", attempt, maxLoginAttempts)
	}
	return errLoginFailed
}

func (s *shell) run() error {
	if err := s.login(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	section(s.out, "Library Management System")
	s.help()

	for {
		cmd, ok := s.ask("\n> ")
		if !ok {
			return nil
		}
		switch strings.ToLower(cmd) {
		case "":
			continue
		case "help":
			s.help()
		case "add book":
			s.handleAddBook()
		case "edit book":
			s.handleEditBook()
		case "delete book":
			s.handleDeleteBook()
		case "list books":
			s.handleListBooks()
		case "issued books":
			s.handleIssuedBooks()
		case "search book":
			s.handleSearchBook()
		case "add student":
			s.handleAddStudent()
		case "edit student":
			s.handleEditStudent()
		case "delete student":
			s.handleDeleteStudent()
		case "list students":
			s.handleListStudents()
		case "student books":
			s.handleStudentBooks()
		case "issue":
			s.handleIssue()
		case "return":
			s.handleReturn()
		case "fine":
			s.handleFine()
		case "pay fine":
			s.handlePayFine()
		case "fine history":
			s.handleFineHistory()
		case "history":
			s.handleHistory()
		case "wishlist":
			s.handleWishlist()
		case "wishlist add":
			s.handleWishlistAdd()
		case "wishlist remove":
			s.handleWishlistRemove()
		case "courses":
			s.handleCourseView()
		case "seed courses":
			s.handleSeedCourses()
		case "stats":
			s.handleStats()
		case "recommend":
			s.handleRecommend()
		case "chat":
			s.handleChat()
		case "save chat":
			s.handleSaveChat()
		case "exit", "quit":
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		default:
			failure(s.out, "Unknown command %q. Type 'help' for the list.", cmd)
		}
	}
}

func (s *shell) help() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out, "  Books:       add book, edit book, delete book, list books, issued books, search book")
	fmt.Fprintln(s.out, "  Students:    add student, edit student, delete student, list students, student books")
	fmt.Fprintln(s.out, "  Circulation: issue, return, fine, pay fine, fine history, history")
	fmt.Fprintln(s.out, "  Wishlist:    wishlist, wishlist add, wishlist remove")
	fmt.Fprintln(s.out, "  Courses:     courses, seed courses")
	fmt.Fprintln(s.out, "  Assistant:   recommend, chat, save chat")
	fmt.Fprintln(s.out, "  System:      stats, help, exit")
}

// report prints err the way a librarian should see it.
func (s *shell) report(err error) {
	failure(s.out, "%s", library.UserMessage(err))
}

// ------------------ Books ------------------

func (s *shell) handleAddBook() {
	id := s.line("Book ID: ")
	name := s.line("Name: ")
	author := s.line("Author (blank for Unknown): ")
	fine, err := parseOptionalFloat(s.line("Fine per day (blank for default): "))
	if err != nil {
		failure(s.out, "Invalid fine: %v", err)
		return
	}
	if err := s.mgr.AddBook(s.ctx, library.Book{ID: id, Name: name, Author: author, FinePerDay: fine}); err != nil {
		s.report(err)
		return
	}
	success(s.out, "Book %s added.", id)
}

func (s *shell) handleEditBook() {
	id := s.line("Book ID: ")
	b, err := s.mgr.GetBook(s.ctx, id)
	if err != nil {
		s.report(err)
		return
	}
	name := s.line(fmt.Sprintf("Name [%s]: ", b.Name))
	if name == "" {
		name = b.Name
	}
	author := s.line(fmt.Sprintf("Author [%s]: ", b.Author))
	if author == "" {
		author = b.Author
	}
	fine := b.FinePerDay
	if raw := s.line(fmt.Sprintf("Fine per day [%.2f]: ", b.FinePerDay)); raw != "" {
		if fine, err = strconv.ParseFloat(raw, 64); err != nil {
			failure(s.out, "Invalid fine: %v", err)
			return
		}
	}
	if err := s.mgr.UpdateBook(s.ctx, id, name, author, fine); err != nil {
		s.report(err)
		return
	}
	success(s.out, "Book %s updated.", id)
}

func (s *shell) handleDeleteBook() {
	id := s.line("Book ID: ")
	if !s.confirm(fmt.Sprintf("Delete book %s?", id)) {
		muted(s.out, "Cancelled.")
		return
	}
	if err := s.mgr.DeleteBook(s.ctx, id); err != nil {
		s.report(err)
		return
	}
	success(s.out, "Book %s deleted.", id)
}

func (s *shell) handleListBooks() {
	books, err := s.mgr.ListBooks(s.ctx)
	if err != nil {
		s.report(err)
		return
	}
	s.printBooks(books)
}

func (s *shell) handleIssuedBooks() {
	books, err := s.mgr.IssuedBooks(s.ctx)
	if err != nil {
		s.report(err)
		return
	}
	s.printBooks(books)
}

func (s *shell) handleSearchBook() {
	q := s.line("Search (id, title or author): ")
	books, err := s.mgr.SearchBooks(s.ctx, q)
	if err != nil {
		s.report(err)
		return
	}
	s.printBooks(books)
}

func (s *shell) printBooks(books []*library.Book) {
	if len(books) == 0 {
		info(s.out, "No books found.")
		return
	}
	names := s.studentNames()
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		borrower := ""
		if b.Issued() {
			borrower = names[b.BorrowerID]
			if borrower == "" {
				borrower = b.BorrowerID
			}
		}
		fine := ""
		if f := s.mgr.Fine(b); f > 0 {
			fine = fmt.Sprintf("%.2f", f)
		}
		rows = append(rows, []string{statusIcon(b.Status), b.ID, b.Name, b.Author, b.Status, borrower, b.DueDate, fine})
	}
	table(s.out, []int{1, 8, 32, 22, 10, 20, 10, 8},
		[]string{" ", "ID", "Name", "Author", "Status", "Borrower", "Due", "Fine"}, rows)
}

func (s *shell) studentNames() map[string]string {
	names := map[string]string{}
	list, err := s.mgr.ListStudents(s.ctx)
	if err != nil {
		return names
	}
	for _, st := range list {
		names[st.ID] = st.Name
	}
	return names
}

// ------------------ Students ------------------

func (s *shell) handleAddStudent() {
	st := library.Student{
		ID:      s.line("Student ID: "),
		Name:    s.line("Name: "),
		Class:   s.line("Class (e.g. BCA 2nd Year): "),
		Contact: s.line("Contact: "),
	}
	st.JoinDate = s.line("Join date YYYY-MM-DD (blank for today): ")
	year, err := strconv.Atoi(s.line("Admission year: "))
	if err != nil {
		failure(s.out, "Admission year must be a number.")
		return
	}
	st.AdmissionYear = year
	if err := s.mgr.AddStudent(s.ctx, st); err != nil {
		s.report(err)
		return
	}
	success(s.out, "Student %s added.", st.ID)
}

func (s *shell) handleEditStudent() {
	id := s.line("Student ID: ")
	st, err := s.mgr.GetStudent(s.ctx, id)
	if err != nil {
		s.report(err)
		return
	}
	joinDate := s.line(fmt.Sprintf("Join date [%s]: ", st.JoinDate))
	if joinDate == "" {
		joinDate = st.JoinDate
	}
	year := st.AdmissionYear
	if raw := s.line(fmt.Sprintf("Admission year [%d]: ", st.AdmissionYear)); raw != "" {
		if year, err = strconv.Atoi(raw); err != nil {
			failure(s.out, "Admission year must be a number.")
			return
		}
	}
	if err := s.mgr.UpdateStudent(s.ctx, id, joinDate, year); err != nil {
		s.report(err)
		return
	}
	success(s.out, "Student %s updated.", id)
}

func (s *shell) handleDeleteStudent() {
	id := s.line("Student ID: ")
	if !s.confirm(fmt.Sprintf("Delete student %s?", id)) {
		muted(s.out, "Cancelled.")
		return
	}
	if err := s.mgr.DeleteStudent(s.ctx, id); err != nil {
		s.report(err)
		return
	}
	success(s.out, "Student %s deleted.", id)
}

func (s *shell) handleListStudents() {
	list, err := s.mgr.ListStudents(s.ctx)
	if err != nil {
		s.report(err)
		return
	}
	if len(list) == 0 {
		info(s.out, "No students registered.")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, st := range list {
		rows = append(rows, []string{st.ID, st.Name, st.Class, st.Contact, st.JoinDate, strconv.Itoa(st.BooksIssued)})
	}
	table(s.out, []int{10, 24, 18, 14, 10, 5},
		[]string{"ID", "Name", "Class", "Contact", "Joined", "Books"}, rows)
}

func (s *shell) handleStudentBooks() {
	id := s.line("Student ID: ")
	books, err := s.mgr.StudentBooks(s.ctx, id)
	if err != nil {
		s.report(err)
		return
	}
	s.printBooks(books)
}

// ------------------ Circulation ------------------

func (s *shell) handleIssue() {
	bookID := s.line("Book ID: ")
	studentID := s.line("Student ID: ")
	due, err := s.mgr.IssueBook(s.ctx, bookID, studentID)
	if err != nil {
		s.report(err)
		return
	}
	success(s.out, "Book %s issued to %s. Due on %s.", bookID, studentID, due.Format(library.DateLayout))
}

func (s *shell) handleReturn() {
	bookID := s.line("Book ID: ")
	if b, err := s.mgr.GetBook(s.ctx, bookID); err == nil {
		if f := s.mgr.Fine(b); f > 0 {
			warning(s.out, "Outstanding fine on %s: Rs.%.2f", bookID, f)
		}
	}
	if err := s.mgr.ReturnBook(s.ctx, bookID); err != nil {
		s.report(err)
		return
	}
	success(s.out, "Book %s returned.", bookID)
}

func (s *shell) handleFine() {
	b, err := s.mgr.GetBook(s.ctx, s.line("Book ID: "))
	if err != nil {
		s.report(err)
		return
	}
	if !b.Issued() {
		info(s.out, "%s is not issued.", b.ID)
		return
	}
	info(s.out, "%s is due %s; fine so far Rs.%.2f", b.ID, b.DueDate, s.mgr.Fine(b))
}

func (s *shell) handlePayFine() {
	bookID := s.line("Book ID: ")
	studentID := s.line("Student ID (blank for borrower): ")
	amount, err := parseOptionalFloat(s.line("Amount (blank for full fine): "))
	if err != nil {
		failure(s.out, "Invalid amount: %v", err)
		return
	}
	p, err := s.mgr.PayFine(s.ctx, bookID, studentID, amount)
	if err != nil {
		s.report(err)
		return
	}
	success(s.out, "Recorded Rs.%.2f from %s for %s on %s.", p.Amount, p.StudentID, p.BookID, p.PaymentDate)
}

func (s *shell) handleFineHistory() {
	payments, err := s.mgr.FinePayments(s.ctx, s.line("Student ID (blank for all): "))
	if err != nil {
		s.report(err)
		return
	}
	if len(payments) == 0 {
		info(s.out, "No fine payments recorded.")
		return
	}
	rows := make([][]string, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, []string{p.PaymentDate, p.StudentID, p.BookID, fmt.Sprintf("%.2f", p.Amount)})
	}
	table(s.out, []int{10, 12, 10, 10}, []string{"Date", "Student", "Book", "Amount"}, rows)
}

func (s *shell) handleHistory() {
	records, err := s.mgr.IssueHistory(s.ctx)
	if err != nil {
		s.report(err)
		return
	}
	if len(records) == 0 {
		info(s.out, "No loans recorded yet.")
		return
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		returned := "-"
		if r.ReturnedAt != nil {
			returned = r.ReturnedAt.Format(library.DateLayout)
		}
		rows = append(rows, []string{r.IssuedAt.Format(library.DateLayout), r.BookID, r.BookName, r.StudentID, r.DueDate, returned})
	}
	table(s.out, []int{10, 8, 30, 10, 10, 10},
		[]string{"Issued", "Book", "Name", "Student", "Due", "Returned"}, rows)
}

// ------------------ Wishlist ------------------

func (s *shell) handleWishlist() {
	entries, err := s.mgr.Wishlist(s.ctx, s.line("Student ID: "))
	if err != nil {
		s.report(err)
		return
	}
	if len(entries) == 0 {
		info(s.out, "Wishlist is empty.")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.BookID, e.BookName, e.AddedDate})
	}
	table(s.out, []int{8, 32, 10}, []string{"Book", "Name", "Added"}, rows)
}

func (s *shell) handleWishlistAdd() {
	studentID := s.line("Student ID: ")
	bookID := s.line("Book ID: ")
	e, err := s.mgr.AddToWishlist(s.ctx, studentID, bookID)
	if err != nil {
		s.report(err)
		return
	}
	success(s.out, "Added %s to %s's wishlist.", e.BookName, studentID)
}

func (s *shell) handleWishlistRemove() {
	studentID := s.line("Student ID: ")
	bookID := s.line("Book ID: ")
	if err := s.mgr.RemoveFromWishlist(s.ctx, studentID, bookID); err != nil {
		s.report(err)
		return
	}
	success(s.out, "Removed %s from %s's wishlist.", bookID, studentID)
}

// ------------------ Courses ------------------

func (s *shell) handleCourseView() {
	course := s.line(fmt.Sprintf("Course (%s): ", strings.Join(library.Courses, ", ")))
	year := s.line("Year (blank for all): ")
	view, err := s.mgr.CourseView(s.ctx, course, year)
	if err != nil {
		s.report(err)
		return
	}
	if len(view) == 0 {
		info(s.out, "No syllabus titles for %q.", course)
		return
	}
	rows := make([][]string, 0, len(view))
	for _, cs := range view {
		status := "Not in catalog"
		if cs.Book != nil {
			status = cs.Book.Status
		}
		rows = append(rows, []string{cs.Year, cs.ID, cs.Name, cs.Author, status})
	}
	table(s.out, []int{8, 8, 32, 22, 14}, []string{"Year", "ID", "Name", "Author", "Status"}, rows)
}

func (s *shell) handleSeedCourses() {
	n, err := s.mgr.SeedCourses(s.ctx, s.line("Course (blank for all): "))
	if err != nil {
		s.report(err)
		return
	}
	success(s.out, "Added %d syllabus titles.", n)
}

// ------------------ Dashboard ------------------

func (s *shell) handleStats() {
	st, err := s.mgr.Stats(s.ctx)
	if err != nil {
		s.report(err)
		return
	}
	section(s.out, "Library Statistics")
	fmt.Fprintf(s.out, "Titles:          %d\n", st.TotalTitles)
	fmt.Fprintf(s.out, "Total stock:     %d\n", st.TotalStock)
	fmt.Fprintf(s.out, "Issued:          %d\n", st.IssuedCount)
	fmt.Fprintf(s.out, "Available stock: %d\n", st.AvailableStock)
	fmt.Fprintf(s.out, "Students:        %d\n", st.TotalStudents)
	fmt.Fprintf(s.out, "Pending fines:   Rs.%.2f\n", st.PendingFines)
}

// ------------------ Assistant ------------------

func (s *shell) handleRecommend() {
	studentID := s.line("Student ID (blank for general picks): ")
	strategy, err := recommend.ParseStrategy(s.line("Strategy (hybrid, popular, trending, course, collaborative): "))
	if err != nil {
		failure(s.out, "%v", err)
		return
	}
	printRecommendations(s.out, s.mgr.Recommend(s.ctx, studentID, strategy, 0))
}

// handleChat talks to the assistant until a blank line or "bye".
func (s *shell) handleChat() {
	info(s.out, "Ask about books, courses or library rules. Blank line or 'bye' to leave.")
	for {
		q, ok := s.ask("You: ")
		if !ok || q == "" || strings.EqualFold(q, "bye") {
			return
		}
		a := s.mgr.Chat(s.ctx, q)
		fmt.Fprintf(s.out, "Assistant: %s\n", a.Text)
		s.transcript.Add(s.now(), q, a.Text)
	}
}

func (s *shell) handleSaveChat() {
	if s.transcript.Len() == 0 {
		info(s.out, "Nothing to save yet.")
		return
	}
	path := s.line("File (blank for chat_history.txt): ")
	if path == "" {
		path = "chat_history.txt"
	}
	if err := writeTranscript(path, &s.transcript); err != nil {
		failure(s.out, "Could not save chat: %v", err)
		return
	}
	success(s.out, "Saved %d exchanges to %s.", s.transcript.Len(), path)
}

func (s *shell) confirm(question string) bool {
	answer := strings.ToLower(s.line(question + " [y/N]: "))
	return answer == "y" || answer == "yes"
}

func parseOptionalFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

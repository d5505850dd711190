package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"library-catalog/notify"
	"library-catalog/recommend"
)

// LibraryManager is the session object built once at startup and shared by
// the shell, the HTTP mirror and the batch commands.
type LibraryManager struct {
	db      *Database
	ledger  *Ledger
	engine  *recommend.Engine
	chatbot *recommend.Chatbot
	policy  Policy
	now     func() time.Time
}

type managerOptions struct {
	policy    Policy
	notifier  notify.Notifier
	recommend recommend.Config
	chat      []recommend.ChatOption
	now       func() time.Time
}

type ManagerOption func(*managerOptions)

func WithLendingPolicy(p Policy) ManagerOption {
	return func(o *managerOptions) { o.policy = p }
}

func WithNotifications(n notify.Notifier) ManagerOption {
	return func(o *managerOptions) { o.notifier = n }
}

func WithRecommendConfig(c recommend.Config) ManagerOption {
	return func(o *managerOptions) { o.recommend = c }
}

func WithChatOptions(opts ...recommend.ChatOption) ManagerOption {
	return func(o *managerOptions) { o.chat = append(o.chat, opts...) }
}

// WithClock fixes "now" for the ledger, the recommender and record dates.
func WithClock(now func() time.Time) ManagerOption {
	return func(o *managerOptions) { o.now = now }
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(dbPath string, opts ...ManagerOption) (*LibraryManager, error) {
	o := managerOptions{
		policy:    DefaultPolicy(),
		notifier:  notify.Nop{},
		recommend: recommend.DefaultConfig(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	lm := &LibraryManager{
		db:     db,
		policy: o.policy,
		now:    o.now,
		ledger: NewLedger(db, WithPolicy(o.policy), WithNotifier(o.notifier), WithLedgerClock(o.now)),
	}
	lm.engine = recommend.NewEngine(lm, o.recommend, recommend.WithClock(o.now))
	lm.chatbot = recommend.NewChatbot(lm, o.chat...)
	return lm, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

func (lm *LibraryManager) Ping(ctx context.Context) error { return lm.db.Ping(ctx) }

func (lm *LibraryManager) Policy() Policy { return lm.policy }

// ------------------ Book helpers ------------------

// AddBook adds a title. A blank author becomes "Unknown"; zero fine and
// quantity take the policy defaults.
func (lm *LibraryManager) AddBook(ctx context.Context, b Book) error {
	if strings.TrimSpace(b.Author) == "" {
		b.Author = "Unknown"
	}
	if b.FinePerDay == 0 {
		b.FinePerDay = lm.policy.DefaultFinePerDay
	}
	if b.Quantity == 0 {
		b.Quantity = lm.policy.Quantity
	}
	return lm.db.AddBook(ctx, b)
}

func (lm *LibraryManager) UpdateBook(ctx context.Context, id, name, author string, finePerDay float64) error {
	if strings.TrimSpace(author) == "" {
		author = "Unknown"
	}
	return lm.db.UpdateBook(ctx, id, name, author, finePerDay)
}

func (lm *LibraryManager) DeleteBook(ctx context.Context, id string) error { return lm.db.DeleteBook(ctx, id) }
func (lm *LibraryManager) GetBook(ctx context.Context, id string) (*Book, error) {
	return lm.db.GetBook(ctx, id)
}
func (lm *LibraryManager) ListBooks(ctx context.Context) ([]*Book, error) { return lm.db.ListBooks(ctx) }
func (lm *LibraryManager) IssuedBooks(ctx context.Context) ([]*Book, error) {
	return lm.db.IssuedBooks(ctx)
}

// ------------------ Search ------------------

func (lm *LibraryManager) SearchBooks(ctx context.Context, q string) ([]*Book, error) {
	return lm.db.SearchBooks(ctx, q)
}

// ------------------ Student helpers ------------------

func (lm *LibraryManager) AddStudent(ctx context.Context, s Student) error {
	if s.JoinDate == "" {
		s.JoinDate = lm.now().Format(DateLayout)
	}
	return lm.db.AddStudent(ctx, s)
}

func (lm *LibraryManager) UpdateStudent(ctx context.Context, id, joinDate string, admissionYear int) error {
	return lm.db.UpdateStudent(ctx, id, joinDate, admissionYear)
}

func (lm *LibraryManager) DeleteStudent(ctx context.Context, id string) error {
	return lm.db.DeleteStudent(ctx, id)
}

func (lm *LibraryManager) GetStudent(ctx context.Context, id string) (*Student, error) {
	return lm.db.GetStudent(ctx, id)
}

func (lm *LibraryManager) ListStudents(ctx context.Context) ([]*StudentSummary, error) {
	return lm.db.ListStudents(ctx)
}

// StudentBooks lists what a student currently holds.
func (lm *LibraryManager) StudentBooks(ctx context.Context, studentID string) ([]*Book, error) {
	if _, err := lm.db.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return lm.db.BooksIssuedTo(ctx, studentID)
}

// ------------------ Circulation ------------------

func (lm *LibraryManager) IssueBook(ctx context.Context, bookID, studentID string) (time.Time, error) {
	return lm.ledger.Issue(ctx, bookID, studentID)
}

func (lm *LibraryManager) ReturnBook(ctx context.Context, bookID string) error {
	return lm.ledger.Return(ctx, bookID)
}

// Fine is what b owes as of now.
func (lm *LibraryManager) Fine(b *Book) float64 { return lm.ledger.Fine(b) }

func (lm *LibraryManager) PayFine(ctx context.Context, bookID, studentID string, amount float64) (*FinePayment, error) {
	return lm.ledger.PayFine(ctx, bookID, studentID, amount)
}

func (lm *LibraryManager) FinePayments(ctx context.Context, studentID string) ([]*FinePayment, error) {
	return lm.db.FinePayments(ctx, studentID)
}

func (lm *LibraryManager) IssueHistory(ctx context.Context) ([]*IssueRecord, error) {
	return lm.db.IssueHistory(ctx)
}

func (lm *LibraryManager) Stats(ctx context.Context) (Stats, error) { return lm.ledger.Stats(ctx) }

// IssueDate derives when b was issued from its due date.
func (lm *LibraryManager) IssueDate(b *Book) string {
	if !b.Issued() {
		return Sentinel
	}
	return b.IssueDate(lm.policy.LoanDays)
}

// ------------------ Wishlist ------------------

func (lm *LibraryManager) AddToWishlist(ctx context.Context, studentID, bookID string) (*WishlistEntry, error) {
	return lm.db.AddToWishlist(ctx, studentID, bookID, lm.now())
}

func (lm *LibraryManager) RemoveFromWishlist(ctx context.Context, studentID, bookID string) error {
	return lm.db.RemoveFromWishlist(ctx, studentID, bookID)
}

func (lm *LibraryManager) Wishlist(ctx context.Context, studentID string) ([]*WishlistEntry, error) {
	return lm.db.Wishlist(ctx, studentID)
}

// ------------------ Courses ------------------

// CourseStatus is a syllabus title with its live catalog row, if any.
type CourseStatus struct {
	CourseBook
	Book *Book
}

// SeedCourses adds the predefined syllabus titles for course ("" for all).
func (lm *LibraryManager) SeedCourses(ctx context.Context, course string) (int, error) {
	return lm.db.SeedCourses(ctx, course, lm.policy)
}

func (lm *LibraryManager) CourseView(ctx context.Context, course, year string) ([]CourseStatus, error) {
	var out []CourseStatus
	for _, cb := range CourseBooks(course, year) {
		cs := CourseStatus{CourseBook: cb}
		b, err := lm.db.GetBook(ctx, cb.ID)
		switch {
		case err == nil:
			cs.Book = b
		case !errors.Is(err, ErrBookNotFound):
			return nil, err
		}
		out = append(out, cs)
	}
	return out, nil
}

// ------------------ Import ------------------

func (lm *LibraryManager) ImportBooksCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	return lm.db.ImportBooksCSV(ctx, r, lm.policy)
}

// ------------------ Finance ------------------

func (lm *LibraryManager) AddFeeStructure(ctx context.Context, f FeeStructure) (int64, error) {
	return lm.db.AddFeeStructure(ctx, f, lm.now())
}

func (lm *LibraryManager) FeeStructures(ctx context.Context) ([]*FeeStructure, error) {
	return lm.db.FeeStructures(ctx)
}

func (lm *LibraryManager) RecordFeePayment(ctx context.Context, p FeePayment) (*FeePayment, error) {
	return lm.db.RecordFeePayment(ctx, p, lm.now())
}

func (lm *LibraryManager) FeePayments(ctx context.Context, studentID string) ([]*FeePayment, error) {
	return lm.db.FeePayments(ctx, studentID)
}

// SetBudget defaults the fiscal year to the current one spanning the whole
// calendar year.
func (lm *LibraryManager) SetBudget(ctx context.Context, b Budget) error {
	year := lm.now().Year()
	if b.FiscalYear == "" {
		b.FiscalYear = strconv.Itoa(year)
	}
	if b.StartDate == "" {
		b.StartDate = b.FiscalYear + "-01-01"
	}
	if b.EndDate == "" {
		b.EndDate = b.FiscalYear + "-12-31"
	}
	return lm.db.SetBudget(ctx, b)
}

func (lm *LibraryManager) Budgets(ctx context.Context) ([]Budget, error) {
	return lm.db.Budgets(ctx, strconv.Itoa(lm.now().Year()))
}

func (lm *LibraryManager) AddExpense(ctx context.Context, e Expense) (*Expense, error) {
	return lm.db.AddExpense(ctx, e, lm.now())
}

func (lm *LibraryManager) Expenses(ctx context.Context) ([]*Expense, error) { return lm.db.Expenses(ctx) }

func (lm *LibraryManager) RecordDonation(ctx context.Context, d Donation) (*Donation, error) {
	return lm.db.RecordDonation(ctx, d, lm.now())
}

func (lm *LibraryManager) Donations(ctx context.Context) ([]*Donation, error) {
	return lm.db.Donations(ctx)
}

func (lm *LibraryManager) FinancialReport(ctx context.Context, start, end string) (*FinancialReport, error) {
	return lm.db.FinancialReport(ctx, start, end, lm.now())
}

// ------------------ Reports ------------------

// WriteLibraryReport exports the status report as "csv" or "xlsx".
func (lm *LibraryManager) WriteLibraryReport(ctx context.Context, w io.Writer, format string) error {
	rows, err := lm.db.StatusRows(ctx)
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "", "csv":
		return WriteStatusCSV(w, rows, lm.now())
	case "xlsx":
		return WriteStatusXLSX(w, rows, lm.now())
	default:
		return invalid("format", fmt.Sprintf("unsupported report format %q", format))
	}
}

func (lm *LibraryManager) WriteFinancialReport(ctx context.Context, w io.Writer, start, end string) error {
	r, err := lm.db.FinancialReport(ctx, start, end, lm.now())
	if err != nil {
		return err
	}
	return WriteFinancialCSV(w, r, lm.now())
}

// ------------------ Librarians ------------------

func (lm *LibraryManager) AddAdmin(ctx context.Context, username, password string) error {
	return lm.db.AddAdmin(ctx, username, password, lm.now())
}

func (lm *LibraryManager) Authenticate(ctx context.Context, username, password string) error {
	return lm.db.Authenticate(ctx, username, password)
}

// LoginRequired reports whether any librarian account exists.
func (lm *LibraryManager) LoginRequired(ctx context.Context) (bool, error) {
	n, err := lm.db.AdminCount(ctx)
	return n > 0, err
}

// EnsureAdmin creates the bootstrap account when no librarian exists yet.
func (lm *LibraryManager) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	n, err := lm.db.AdminCount(ctx)
	if err != nil || n > 0 {
		return false, err
	}
	if err := lm.AddAdmin(ctx, username, password); err != nil {
		return false, err
	}
	return true, nil
}

// ------------------ Recommendations and chat ------------------

func (lm *LibraryManager) Recommend(ctx context.Context, studentID string, s recommend.Strategy, topN int) []recommend.Recommendation {
	return lm.engine.Recommend(ctx, studentID, s, topN)
}

func (lm *LibraryManager) Chat(ctx context.Context, message string) recommend.Answer {
	return lm.chatbot.Respond(ctx, message)
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b *Book, borrowerName string) string {
	return fmt.Sprintf("%-8s %-35s %-22s %-10s %-20s %-10s", b.ID, truncate(b.Name, 35), truncate(b.Author, 22), b.Status, truncate(borrowerName, 20), b.DueDate)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

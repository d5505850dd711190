package library

import "time"

const (
	StatusAvailable = "Available"
	StatusIssued    = "Issued"

	// Sentinel marks an unset borrower or due date. It is never a valid
	// student id or date.
	Sentinel = "N/A"

	// DateLayout is how dates are stored in the catalog tables.
	DateLayout = "2006-01-02"

	// timestampLayout is used for IssueLog timestamps.
	timestampLayout = "2006-01-02 15:04:05"
)

// Book is one catalog row. Every title has a single row, so one loan per
// title is outstanding at a time; Quantity is informational and never changes.
type Book struct {
	ID         string  `json:"id" validate:"required,max=32"`
	Name       string  `json:"name" validate:"required"`
	Author     string  `json:"author"`
	Status     string  `json:"status"`
	BorrowerID string  `json:"borrower_id"`
	DueDate    string  `json:"due_date"`
	FinePerDay float64 `json:"fine_per_day" validate:"gte=0"`
	Quantity   int     `json:"quantity" validate:"gte=0"`
}

// Issued reports whether the row holds an outstanding loan.
func (b *Book) Issued() bool {
	return b.Status == StatusIssued && b.BorrowerID != Sentinel && b.DueDate != Sentinel
}

// IssueDate derives the issue date from the due date.
func (b *Book) IssueDate(loanDays int) string {
	due, err := time.Parse(DateLayout, b.DueDate)
	if err != nil {
		return Sentinel
	}
	return due.AddDate(0, 0, -loanDays).Format(DateLayout)
}

// Student is a registered library member.
type Student struct {
	ID            string `json:"id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Class         string `json:"class" validate:"required"`
	Contact       string `json:"contact" validate:"required"`
	JoinDate      string `json:"join_date" validate:"required,datetime=2006-01-02"`
	AdmissionYear int    `json:"admission_year" validate:"gte=2000,notfuture"`
}

// StudentSummary adds the number of books currently held.
type StudentSummary struct {
	Student
	BooksIssued int `json:"books_issued"`
}

// FinePayment is an append-only FineHistory row.
type FinePayment struct {
	ID          int64   `json:"id"`
	StudentID   string  `json:"student_id"`
	BookID      string  `json:"book_id"`
	Amount      float64 `json:"amount"`
	PaymentDate string  `json:"payment_date"`
}

type WishlistEntry struct {
	StudentID string `json:"student_id"`
	BookID    string `json:"book_id"`
	BookName  string `json:"book_name"`
	AddedDate string `json:"added_date"`
}

// IssueRecord is one IssueLog row. ReturnedAt is nil while the loan is open.
type IssueRecord struct {
	ID         int64      `json:"id"`
	BookID     string     `json:"book_id"`
	BookName   string     `json:"book_name"`
	StudentID  string     `json:"student_id"`
	Class      string     `json:"class"`
	IssuedAt   time.Time  `json:"issued_at"`
	DueDate    string     `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// Stats is the dashboard summary.
type Stats struct {
	TotalTitles     int     `json:"total_titles"`
	TotalStock      int     `json:"total_books"`
	IssuedCount     int     `json:"issued_books"`
	AvailableStock  int     `json:"available_books"`
	MultiCopyIssued int     `json:"multi_copy_issued"`
	TotalStudents   int     `json:"total_students"`
	PendingFines    float64 `json:"pending_fines"`
}

package library

import (
	"context"
	"errors"
	"sync"
	"time"

	"library-catalog/logging"
	"library-catalog/metrics"
	"library-catalog/notify"
)

// Policy holds the lending rules.
type Policy struct {
	LoanDays          int
	GraceDays         int
	DefaultFinePerDay float64
	Quantity          int
}

func DefaultPolicy() Policy {
	return Policy{LoanDays: 14, GraceDays: 0, DefaultFinePerDay: 5, Quantity: 10}
}

// Ledger owns issue, return and fine transitions. Mutations on the same book
// are serialized; different books proceed in parallel.
type Ledger struct {
	db       *Database
	notifier notify.Notifier
	policy   Policy
	now      func() time.Time
	locks    keyedMutex
}

type LedgerOption func(*Ledger)

// WithNotifier sets where issue and return events go. Delivery errors are
// logged and never fail the operation.
func WithNotifier(n notify.Notifier) LedgerOption {
	return func(l *Ledger) {
		if n != nil {
			l.notifier = n
		}
	}
}

func WithPolicy(p Policy) LedgerOption {
	return func(l *Ledger) { l.policy = p }
}

// WithLedgerClock replaces time.Now, mainly for tests.
func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(db *Database, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		db:       db,
		notifier: notify.Nop{},
		policy:   DefaultPolicy(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Issue lends bookID to studentID and returns the due instant, exactly
// LoanDays after now. The stored due date keeps only the calendar day.
func (l *Ledger) Issue(ctx context.Context, bookID, studentID string) (time.Time, error) {
	if bookID == "" || bookID == Sentinel {
		return time.Time{}, invalid("book_id", "is required")
	}
	if studentID == "" || studentID == Sentinel {
		return time.Time{}, invalid("student_id", "is required")
	}
	unlock := l.locks.lock(bookID)
	defer unlock()

	now := l.now()
	due := now.AddDate(0, 0, l.policy.LoanDays)
	book, student, err := l.db.issueBook(ctx, bookID, studentID, now, due.Format(DateLayout))
	l.record(ctx, "issue", bookID, err)
	if err != nil {
		return time.Time{}, err
	}

	l.notify(ctx, notify.Event{
		Kind:        notify.KindIssued,
		BookID:      book.ID,
		BookName:    book.Name,
		StudentID:   student.ID,
		StudentName: student.Name,
		DueDate:     due.Format(DateLayout),
		At:          now,
	})
	return due, nil
}

// Return puts bookID back on the shelf.
func (l *Ledger) Return(ctx context.Context, bookID string) error {
	unlock := l.locks.lock(bookID)
	defer unlock()

	now := l.now()
	book, err := l.db.returnBook(ctx, bookID, now)
	l.record(ctx, "return", bookID, err)
	if err != nil {
		return err
	}

	name := book.BorrowerID
	if s, err := l.db.GetStudent(ctx, book.BorrowerID); err == nil {
		name = s.Name
	}
	l.notify(ctx, notify.Event{
		Kind:        notify.KindReturned,
		BookID:      book.ID,
		BookName:    book.Name,
		StudentID:   book.BorrowerID,
		StudentName: name,
		DueDate:     book.DueDate,
		At:          now,
	})
	return nil
}

// Fine is the amount currently owed on b.
func (l *Ledger) Fine(b *Book) float64 {
	if !b.Issued() {
		return 0
	}
	return Fine(b.DueDate, b.FinePerDay, l.now(), l.policy.GraceDays)
}

// PayFine settles the fine on bookID. An amount of 0 pays whatever has
// accrued; an empty studentID means the current borrower. The due date moves
// to today, so accrual restarts from zero.
func (l *Ledger) PayFine(ctx context.Context, bookID, studentID string, amount float64) (*FinePayment, error) {
	if amount < 0 {
		return nil, invalid("amount", "must be at least 0")
	}
	unlock := l.locks.lock(bookID)
	defer unlock()

	today := l.now().Format(DateLayout)
	p, err := l.db.recordFinePayment(ctx, bookID, studentID, today, func(b *Book) float64 {
		owed := l.Fine(b)
		if owed <= 0 {
			return 0
		}
		if amount > 0 {
			return amount
		}
		return owed
	})
	l.record(ctx, "pay_fine", bookID, err)
	if err != nil {
		return nil, err
	}
	metrics.FinesCollected.Add(p.Amount)
	return p, nil
}

// Stats returns the dashboard aggregates including fines accrued as of now.
func (l *Ledger) Stats(ctx context.Context) (Stats, error) {
	s, err := l.db.counts(ctx)
	if err != nil {
		return s, err
	}
	s.PendingFines, err = l.PendingFines(ctx)
	return s, err
}

// PendingFines sums the fines on every issued book.
func (l *Ledger) PendingFines(ctx context.Context) (float64, error) {
	issued, err := l.db.IssuedBooks(ctx)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, b := range issued {
		total += l.Fine(b)
	}
	return total, nil
}

func (l *Ledger) notify(ctx context.Context, ev notify.Event) {
	if err := l.notifier.Notify(ctx, ev); err != nil {
		metrics.Notifications.WithLabelValues(string(ev.Kind), "failed").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("book_id", ev.BookID).Msg("notification failed")
	}
}

func (l *Ledger) record(ctx context.Context, op, bookID string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrExternal):
		result = "error"
		logging.Ctx(ctx).Error().Err(err).Str("op", op).Str("book_id", bookID).Msg("ledger operation failed")
	default:
		result = "rejected"
		logging.Ctx(ctx).Debug().Err(err).Str("op", op).Str("book_id", bookID).Msg("ledger operation rejected")
	}
	if err == nil {
		logging.Ctx(ctx).Info().Str("op", op).Str("book_id", bookID).Msg("ledger")
	}
	metrics.LedgerOperations.WithLabelValues(op, result).Inc()
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Package notify delivers issue and return notices. The ledger only sees the
// Notifier interface; transports and credentials live behind it.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"library-catalog/logging"
	"library-catalog/metrics"
)

type Kind string

const (
	KindIssued   Kind = "issued"
	KindReturned Kind = "returned"
)

// Event describes one circulation change.
type Event struct {
	Kind        Kind
	BookID      string
	BookName    string
	StudentID   string
	StudentName string
	DueDate     string
	At          time.Time
}

// Subject is the mail subject line for the event.
func (e Event) Subject() string {
	switch e.Kind {
	case KindIssued:
		return fmt.Sprintf("Library Alert: Book Issued to %s", e.StudentName)
	case KindReturned:
		return fmt.Sprintf("Library Confirmation: Book Returned by %s", e.StudentName)
	default:
		return "Library Notice"
	}
}

// Body is the plain text message for the event.
func (e Event) Body() string {
	switch e.Kind {
	case KindIssued:
		return fmt.Sprintf("Book Issued\n\nStudent: %s (%s)\nBook: %s (%s)\nIssued on: %s\nDue date: %s\n\nPlease return the book on or before the due date to avoid fines.\n",
			e.StudentName, e.StudentID, e.BookName, e.BookID, e.At.Format("2006-01-02"), e.DueDate)
	case KindReturned:
		return fmt.Sprintf("Book Returned\n\nStudent: %s (%s)\nBook: %s (%s)\nReturned on: %s\n\nThank you for returning the book.\n",
			e.StudentName, e.StudentID, e.BookName, e.BookID, e.At.Format("2006-01-02"))
	default:
		return ""
	}
}

// Notifier sends a single event.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, ev Event) error

func (f Func) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Log writes events to the structured log instead of sending them.
type Log struct{}

func (Log) Notify(ctx context.Context, ev Event) error {
	logging.Ctx(ctx).Info().
		Str("kind", string(ev.Kind)).
		Str("book_id", ev.BookID).
		Str("student_id", ev.StudentID).
		Str("due_date", ev.DueDate).
		Msg(ev.Subject())
	return nil
}

// Async hands each event to a goroutine and returns immediately. Failures are
// logged and counted, never retried.
type Async struct {
	inner   Notifier
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsync wraps inner. A zero timeout means 30s per delivery.
func NewAsync(inner Notifier, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Async{inner: inner, timeout: timeout}
}

func (a *Async) Notify(ctx context.Context, ev Event) error {
	reqID := logging.RequestIDFromContext(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if reqID != "" {
			sendCtx = logging.ContextWithRequestID(sendCtx, reqID)
		}
		if err := a.inner.Notify(sendCtx, ev); err != nil {
			metrics.Notifications.WithLabelValues(string(ev.Kind), "failed").Inc()
			logging.Ctx(sendCtx).Warn().Err(err).
				Str("kind", string(ev.Kind)).
				Str("book_id", ev.BookID).
				Msg("notification failed")
			return
		}
		metrics.Notifications.WithLabelValues(string(ev.Kind), "sent").Inc()
	}()
	return nil
}

// Wait blocks until every in-flight delivery has finished.
func (a *Async) Wait() { a.wg.Wait() }

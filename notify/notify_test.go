package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent(kind Kind) Event {
	return Event{
		Kind:        kind,
		BookID:      "BCA101",
		BookName:    "Introduction to Computers",
		StudentID:   "S1",
		StudentName: "Asha",
		DueDate:     "2026-03-15",
		At:          time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestEventSubjects(t *testing.T) {
	assert.Equal(t, "Library Alert: Book Issued to Asha", sampleEvent(KindIssued).Subject())
	assert.Equal(t, "Library Confirmation: Book Returned by Asha", sampleEvent(KindReturned).Subject())
	assert.Contains(t, sampleEvent(KindIssued).Body(), "Due date: 2026-03-15")
	assert.Contains(t, sampleEvent(KindReturned).Body(), "Returned on: 2026-03-01")
}

func TestAsyncSwallowsFailures(t *testing.T) {
	var mu sync.Mutex
	var seen []Event
	inner := Func(func(_ context.Context, ev Event) error {
		mu.Lock()
		seen = append(seen, ev)
		mu.Unlock()
		return errors.New("relay down")
	})

	a := NewAsync(inner, time.Second)
	require.NoError(t, a.Notify(context.Background(), sampleEvent(KindIssued)))
	require.NoError(t, a.Notify(context.Background(), sampleEvent(KindReturned)))
	a.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 2)
}

func TestSMTPFormatsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string
	send := func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	n := NewSMTP(SMTPConfig{
		Host: "mail.library.test",
		Port: 2525,
		From: "desk@library.test",
		To:   []string{"admin@library.test"},
	}, WithSendFunc(send))

	require.NoError(t, n.Notify(context.Background(), sampleEvent(KindIssued)))
	assert.Equal(t, "mail.library.test:2525", gotAddr)
	assert.Equal(t, "desk@library.test", gotFrom)
	assert.Equal(t, []string{"admin@library.test"}, gotTo)
	assert.True(t, strings.Contains(gotMsg, "Subject: Library Alert: Book Issued to Asha\r\n"))
	assert.Contains(t, gotMsg, "Book: Introduction to Computers (BCA101)")
}

func TestSMTPBreakerOpensAfterRepeatedFailures(t *testing.T) {
	calls := 0
	send := func(string, smtp.Auth, string, []string, []byte) error {
		calls++
		return errors.New("connection refused")
	}
	n := NewSMTP(SMTPConfig{Host: "localhost", From: "a@b.test", To: []string{"c@d.test"}}, WithSendFunc(send))

	for i := 0; i < 3; i++ {
		require.Error(t, n.Notify(context.Background(), sampleEvent(KindIssued)))
	}
	err := n.Notify(context.Background(), sampleEvent(KindIssued))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, calls, "open breaker must not reach the relay")
}

func TestSMTPWithoutRecipients(t *testing.T) {
	n := NewSMTP(SMTPConfig{Host: "localhost"}, WithSendFunc(func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send should not be called")
		return nil
	}))
	assert.Error(t, n.Notify(context.Background(), sampleEvent(KindReturned)))
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"library-catalog/logging"
	"library-catalog/metrics"
)

// SendFunc matches smtp.SendMail so tests can capture outgoing mail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	To        []string
	RateLimit float64
	Burst     int
}

// SMTP mails events through a relay, guarded by a token bucket and a circuit
// breaker so a dead relay does not stall every issue.
type SMTP struct {
	cfg     SMTPConfig
	send    SendFunc
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
}

type SMTPOption func(*SMTP)

// WithSendFunc replaces smtp.SendMail.
func WithSendFunc(fn SendFunc) SMTPOption {
	return func(s *SMTP) { s.send = fn }
}

func NewSMTP(cfg SMTPConfig, opts ...SMTPOption) *SMTP {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	s := &SMTP{
		cfg:     cfg,
		send:    smtp.SendMail,
		limiter: rate.NewLimiter(limit, cfg.Burst),
	}
	for _, opt := range opts {
		opt(s)
	}

	const name = "smtp"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	s.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return s
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (s *SMTP) Notify(ctx context.Context, ev Event) error {
	if len(s.cfg.To) == 0 {
		return errors.New("smtp: no recipients configured")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("smtp rate limit: %w", err)
	}
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.deliver(ev)
	})
	return err
}

func (s *SMTP) deliver(ev Event) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.send(addr, auth, s.cfg.From, s.cfg.To, s.message(ev)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	return nil
}

func (s *SMTP) message(ev Event) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(s.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", ev.Subject())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(ev.Body(), "\n", "\r\n"))
	return []byte(b.String())
}

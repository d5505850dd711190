// Package web is the read-mostly HTTP mirror of the catalog. It runs next to
// the interactive shell against the same database.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"library-catalog/library"
	"library-catalog/recommend"
)

// Catalog is what the handlers need from the library session.
type Catalog interface {
	ListBooks(ctx context.Context) ([]*library.Book, error)
	SearchBooks(ctx context.Context, q string) ([]*library.Book, error)
	ListStudents(ctx context.Context) ([]*library.StudentSummary, error)
	Stats(ctx context.Context) (library.Stats, error)
	IssueBook(ctx context.Context, bookID, studentID string) (time.Time, error)
	ReturnBook(ctx context.Context, bookID string) error
	IssueDate(b *library.Book) string
	Recommend(ctx context.Context, studentID string, s recommend.Strategy, topN int) []recommend.Recommendation
	Chat(ctx context.Context, message string) recommend.Answer
	Ping(ctx context.Context) error
}

// Config holds the router settings.
type Config struct {
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	TopN              int
}

// Server wires handlers to a Catalog.
type Server struct {
	cat Catalog
	cfg Config
}

func NewServer(cat Catalog, cfg Config) *Server {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return &Server{cat: cat, cfg: cfg}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         86400,
	}))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		if s.cfg.RateLimitRequests > 0 && s.cfg.RateLimitWindow > 0 {
			r.Use(httprate.Limit(s.cfg.RateLimitRequests, s.cfg.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP)))
		}
		r.Use(instrument)

		r.Get("/health", s.health)
		r.Get("/books", s.books)
		r.Get("/search", s.search)
		r.Get("/students", s.students)
		r.Get("/statistics", s.statistics)
		r.Get("/recommendations", s.recommendations)
		r.Post("/issue", s.issue)
		r.Post("/return", s.returnBook)
		r.Post("/chat", s.chat)
	})

	return r
}

package web

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"library-catalog/library"
	"library-catalog/recommend"
)

const maxBody = 1 << 16

type bookView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Author      string `json:"author"`
	Status      string `json:"status"`
	IssueDate   string `json:"issue_date"`
	DueDate     string `json:"due_date"`
	Quantity    int    `json:"quantity"`
	IssuedCount int    `json:"issued_count"`
}

func (s *Server) views(books []*library.Book) []bookView {
	out := make([]bookView, 0, len(books))
	for _, b := range books {
		v := bookView{
			ID:        b.ID,
			Name:      b.Name,
			Author:    b.Author,
			Status:    b.Status,
			IssueDate: s.cat.IssueDate(b),
			DueDate:   b.DueDate,
			Quantity:  b.Quantity,
		}
		if b.Issued() {
			v.IssuedCount = 1
		}
		out = append(out, v)
	}
	return out
}

type studentView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Class       string `json:"class"`
	Contact     string `json:"contact"`
	BooksIssued int    `json:"books_issued"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.cat.Ping(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, envelope{"status": "ok"})
}

func (s *Server) books(w http.ResponseWriter, r *http.Request) {
	books, err := s.cat.ListBooks(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, envelope{"books": s.views(books)})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	books, err := s.cat.SearchBooks(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, envelope{"books": s.views(books)})
}

func (s *Server) students(w http.ResponseWriter, r *http.Request) {
	list, err := s.cat.ListStudents(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]studentView, 0, len(list))
	for _, st := range list {
		out = append(out, studentView{ID: st.ID, Name: st.Name, Class: st.Class, Contact: st.Contact, BooksIssued: st.BooksIssued})
	}
	ok(w, r, envelope{"students": out})
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	st, err := s.cat.Stats(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, envelope{"statistics": st})
}

type issueRequest struct {
	StudentID string `json:"student_id"`
	BookID    string `json:"book_id"`
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if !decode(w, r, &req) {
		return
	}
	due, err := s.cat.IssueBook(r.Context(), strings.TrimSpace(req.BookID), strings.TrimSpace(req.StudentID))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, envelope{
		"message":  "Book issued successfully",
		"due_date": due.Format(library.DateLayout),
	})
}

type returnRequest struct {
	BookID string `json:"book_id"`
}

func (s *Server) returnBook(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.cat.ReturnBook(r.Context(), strings.TrimSpace(req.BookID)); err != nil {
		fail(w, r, err)
		return
	}
	ok(w, r, envelope{"message": "Book returned successfully"})
}

func (s *Server) recommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	strategy, err := recommend.ParseStrategy(q.Get("strategy"))
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}
	n := s.cfg.TopN
	if v := q.Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 50 {
			badRequest(w, r, "n must be between 1 and 50")
			return
		}
		n = parsed
	}
	recs := s.cat.Recommend(r.Context(), strings.TrimSpace(q.Get("student_id")), strategy, n)
	ok(w, r, envelope{"strategy": strategy.String(), "recommendations": recs})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	ok(w, r, envelope{"answer": s.cat.Chat(r.Context(), req.Message)})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		badRequest(w, r, "could not read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		badRequest(w, r, "request body must be JSON")
		return false
	}
	return true
}

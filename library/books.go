package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// ---------------------------------------------------------------------------
// Book CRUD
// ---------------------------------------------------------------------------

// AddBook inserts a new, available title. Status, borrower and due date are
// always reset so the sentinel invariant holds from creation.
func (d *Database) AddBook(ctx context.Context, b Book) error {
	b.ID = strings.TrimSpace(b.ID)
	b.Name = strings.TrimSpace(b.Name)
	if b.ID == Sentinel {
		return invalid("id", Sentinel+" is reserved")
	}
	if err := validateStruct(b); err != nil {
		return err
	}
	_, err := d.addBookStmt.ExecContext(ctx, b.ID, b.Name, b.Author, StatusAvailable, Sentinel, Sentinel, b.FinePerDay, b.Quantity)
	if isConstraint(err) {
		return fmt.Errorf("book %s: %w", b.ID, ErrDuplicateID)
	}
	if err != nil {
		return external("add book", err)
	}
	return nil
}

// UpdateBook edits the descriptive columns. Loan state is left alone.
func (d *Database) UpdateBook(ctx context.Context, id, name, author string, finePerDay float64) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", "is required")
	}
	if finePerDay < 0 {
		return invalid("fine_per_day", "must be at least 0")
	}
	res, err := d.db.ExecContext(ctx, `UPDATE Library SET BK_NAME=?, AUTHOR_NAME=?, FINE_PER_DAY=? WHERE BK_ID=?`,
		strings.TrimSpace(name), author, finePerDay, id)
	if err != nil {
		return external("update book", err)
	}
	return mustAffect(res, ErrBookNotFound)
}

func (d *Database) DeleteBook(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM Library WHERE BK_ID=?`, id)
	if err != nil {
		return external("delete book", err)
	}
	return mustAffect(res, ErrBookNotFound)
}

func (d *Database) GetBook(ctx context.Context, id string) (*Book, error) {
	b, err := scanBook(d.getBookStmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, external("get book", err)
	}
	return b, nil
}

// ListBooks returns the whole catalog ordered by id.
func (d *Database) ListBooks(ctx context.Context) ([]*Book, error) {
	return d.queryBooks(ctx, `SELECT `+bookColumns+` FROM Library ORDER BY BK_ID`)
}

// SearchBooks matches q case-insensitively against title and author.
func (d *Database) SearchBooks(ctx context.Context, q string) ([]*Book, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []*Book{}, nil
	}
	like := "%" + escapeLike(strings.ToLower(q)) + "%"
	return d.queryBooks(ctx, `SELECT `+bookColumns+` FROM Library
        WHERE LOWER(BK_NAME) LIKE ? ESCAPE '\' OR LOWER(AUTHOR_NAME) LIKE ? ESCAPE '\'
        ORDER BY BK_ID`, like, like)
}

// IssuedBooks lists every title currently on loan.
func (d *Database) IssuedBooks(ctx context.Context) ([]*Book, error) {
	return d.queryBooks(ctx, `SELECT `+bookColumns+` FROM Library WHERE BK_STATUS=? ORDER BY DUE_DATE, BK_ID`, StatusIssued)
}

// BooksIssuedTo lists the titles a student currently holds.
func (d *Database) BooksIssuedTo(ctx context.Context, studentID string) ([]*Book, error) {
	return d.queryBooks(ctx, `SELECT `+bookColumns+` FROM Library WHERE BK_STATUS=? AND CARD_ID=? ORDER BY BK_ID`,
		StatusIssued, studentID)
}

func (d *Database) queryBooks(ctx context.Context, query string, args ...any) ([]*Book, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, external("query books", err)
	}
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, external("scan book", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, external("query books", err)
	}
	return books, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isConstraint(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}

func mustAffect(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return external("rows affected", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

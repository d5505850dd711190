package library

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ---------------------------------------------------------------------------
// Circulation (each operation is one transaction)
// ---------------------------------------------------------------------------

// issueBook marks bookID as issued to studentID until due and opens an
// IssueLog entry. It returns the rows as they were before the update.
func (d *Database) issueBook(ctx context.Context, bookID, studentID string, at time.Time, due string) (*Book, *Student, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, external("begin issue", err)
	}
	defer tx.Rollback()

	book, err := txBook(ctx, tx, d.getBookStmt, bookID)
	if err != nil {
		return nil, nil, err
	}
	if book.Status == StatusIssued {
		return nil, nil, ErrAlreadyIssued
	}

	student, err := scanStudent(tx.StmtContext(ctx, d.getStudentStmt).QueryRowContext(ctx, studentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, nil, external("get student", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE Library SET BK_STATUS=?, CARD_ID=?, DUE_DATE=? WHERE BK_ID=?`,
		StatusIssued, studentID, due, bookID); err != nil {
		return nil, nil, external("issue book", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO IssueLog(BK_ID, STUDENT_ID, ISSUED_AT, DUE_DATE) VALUES(?,?,?,?)`,
		bookID, studentID, at.Format(timestampLayout), due); err != nil {
		return nil, nil, external("log issue", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, external("commit issue", err)
	}
	return book, student, nil
}

// returnBook resets bookID to the sentinel state and closes its IssueLog
// entry. The returned Book is the row as it was while issued.
func (d *Database) returnBook(ctx context.Context, bookID string, at time.Time) (*Book, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, external("begin return", err)
	}
	defer tx.Rollback()

	book, err := txBook(ctx, tx, d.getBookStmt, bookID)
	if err != nil {
		return nil, err
	}
	if book.Status != StatusIssued {
		return nil, ErrAlreadyAvailable
	}

	if _, err := tx.ExecContext(ctx, `UPDATE Library SET BK_STATUS=?, CARD_ID=?, DUE_DATE=? WHERE BK_ID=?`,
		StatusAvailable, Sentinel, Sentinel, bookID); err != nil {
		return nil, external("return book", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE IssueLog SET RETURNED_AT=? WHERE BK_ID=? AND RETURNED_AT IS NULL`,
		at.Format(timestampLayout), bookID); err != nil {
		return nil, external("log return", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, external("commit return", err)
	}
	return book, nil
}

// recordFinePayment appends a FineHistory row and moves the due date to
// today. amountFor receives the issued row and returns what is charged; a
// zero charge means nothing is pending.
func (d *Database) recordFinePayment(ctx context.Context, bookID, studentID string, today string, amountFor func(*Book) float64) (*FinePayment, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, external("begin fine payment", err)
	}
	defer tx.Rollback()

	book, err := txBook(ctx, tx, d.getBookStmt, bookID)
	if err != nil {
		return nil, err
	}
	if !book.Issued() {
		return nil, ErrNoFinePending
	}
	if studentID == "" {
		studentID = book.BorrowerID
	}
	if studentID != book.BorrowerID {
		return nil, invalid("student_id", "book "+bookID+" is not issued to "+studentID)
	}
	amount := amountFor(book)
	if amount <= 0 {
		return nil, ErrNoFinePending
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO FineHistory(STUDENT_ID, BK_ID, AMOUNT, PAYMENT_DATE) VALUES(?,?,?,?)`,
		studentID, bookID, amount, today)
	if err != nil {
		return nil, external("record fine", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, external("record fine", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE Library SET DUE_DATE=? WHERE BK_ID=?`, today, bookID); err != nil {
		return nil, external("reset due date", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE IssueLog SET DUE_DATE=? WHERE BK_ID=? AND RETURNED_AT IS NULL`, today, bookID); err != nil {
		return nil, external("reset due date", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, external("commit fine payment", err)
	}
	return &FinePayment{ID: id, StudentID: studentID, BookID: bookID, Amount: amount, PaymentDate: today}, nil
}

func txBook(ctx context.Context, tx *sql.Tx, stmt *sql.Stmt, id string) (*Book, error) {
	b, err := scanBook(tx.StmtContext(ctx, stmt).QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, external("get book", err)
	}
	return b, nil
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// IssueHistory returns every IssueLog entry, oldest first, with the book name
// and the borrower's class where those rows still exist.
func (d *Database) IssueHistory(ctx context.Context) ([]*IssueRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT I.ID, I.BK_ID, COALESCE(L.BK_NAME, ''), I.STUDENT_ID, COALESCE(S.CLASS, ''),
               I.ISSUED_AT, I.DUE_DATE, I.RETURNED_AT
        FROM IssueLog I
        LEFT JOIN Library L ON L.BK_ID = I.BK_ID
        LEFT JOIN Students S ON S.STUDENT_ID = I.STUDENT_ID
        ORDER BY I.ID`)
	if err != nil {
		return nil, external("issue history", err)
	}
	defer rows.Close()

	out := []*IssueRecord{}
	for rows.Next() {
		var (
			r        IssueRecord
			issued   string
			returned sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.BookID, &r.BookName, &r.StudentID, &r.Class, &issued, &r.DueDate, &returned); err != nil {
			return nil, external("scan issue", err)
		}
		r.IssuedAt, _ = time.ParseInLocation(timestampLayout, issued, time.Local)
		if returned.Valid {
			t, err := time.ParseInLocation(timestampLayout, returned.String, time.Local)
			if err == nil {
				r.ReturnedAt = &t
			}
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, external("issue history", err)
	}
	return out, nil
}

// FinePayments lists FineHistory, newest first. An empty studentID lists all.
func (d *Database) FinePayments(ctx context.Context, studentID string) ([]*FinePayment, error) {
	query := `SELECT ID, STUDENT_ID, BK_ID, AMOUNT, PAYMENT_DATE FROM FineHistory`
	var args []any
	if studentID != "" {
		query += ` WHERE STUDENT_ID=?`
		args = append(args, studentID)
	}
	query += ` ORDER BY ID DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, external("fine history", err)
	}
	defer rows.Close()

	out := []*FinePayment{}
	for rows.Next() {
		var p FinePayment
		if err := rows.Scan(&p.ID, &p.StudentID, &p.BookID, &p.Amount, &p.PaymentDate); err != nil {
			return nil, external("scan fine", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, external("fine history", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Aggregates
// ---------------------------------------------------------------------------

// counts returns the raw dashboard numbers. Pending fines are computed by the
// Ledger because they depend on the clock.
func (d *Database) counts(ctx context.Context) (Stats, error) {
	var s Stats
	err := d.db.QueryRowContext(ctx, `
        SELECT COUNT(*), COALESCE(SUM(QUANTITY), 0),
               COALESCE(SUM(CASE WHEN BK_STATUS=? THEN 1 ELSE 0 END), 0)
        FROM Library`, StatusIssued).Scan(&s.TotalTitles, &s.TotalStock, &s.IssuedCount)
	if err != nil {
		return s, external("count books", err)
	}
	// BK_ID is the primary key, so this is 0 until titles get one row per copy.
	err = d.db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM (
            SELECT BK_ID FROM Library WHERE BK_STATUS=? GROUP BY BK_ID HAVING COUNT(*) > 1
        )`, StatusIssued).Scan(&s.MultiCopyIssued)
	if err != nil {
		return s, external("count multi-copy", err)
	}
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM Students`).Scan(&s.TotalStudents); err != nil {
		return s, external("count students", err)
	}
	s.AvailableStock = s.TotalStock - s.IssuedCount
	return s, nil
}

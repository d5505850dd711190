package library

import (
	"context"
	"time"
)

// AddToWishlist stores or refreshes (studentID, bookID). The book name is
// copied so the entry survives the title being deleted.
func (d *Database) AddToWishlist(ctx context.Context, studentID, bookID string, at time.Time) (*WishlistEntry, error) {
	if _, err := d.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}
	book, err := d.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	e := &WishlistEntry{StudentID: studentID, BookID: bookID, BookName: book.Name, AddedDate: at.Format(DateLayout)}
	_, err = d.db.ExecContext(ctx, `INSERT OR REPLACE INTO Wishlist(STUDENT_ID, BOOK_ID, BOOK_NAME, ADDED_DATE) VALUES(?,?,?,?)`,
		e.StudentID, e.BookID, e.BookName, e.AddedDate)
	if err != nil {
		return nil, external("add wishlist", err)
	}
	return e, nil
}

func (d *Database) RemoveFromWishlist(ctx context.Context, studentID, bookID string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM Wishlist WHERE STUDENT_ID=? AND BOOK_ID=?`, studentID, bookID)
	if err != nil {
		return external("remove wishlist", err)
	}
	return mustAffect(res, ErrNotFound)
}

func (d *Database) Wishlist(ctx context.Context, studentID string) ([]*WishlistEntry, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT STUDENT_ID, BOOK_ID, BOOK_NAME, ADDED_DATE FROM Wishlist
        WHERE STUDENT_ID=? ORDER BY ADDED_DATE DESC, BOOK_ID`, studentID)
	if err != nil {
		return nil, external("wishlist", err)
	}
	defer rows.Close()

	out := []*WishlistEntry{}
	for rows.Next() {
		var e WishlistEntry
		if err := rows.Scan(&e.StudentID, &e.BookID, &e.BookName, &e.AddedDate); err != nil {
			return nil, external("scan wishlist", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, external("wishlist", err)
	}
	return out, nil
}

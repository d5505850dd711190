package library

import (
	"context"

	"library-catalog/recommend"
)

// Snapshot reads the catalog, the issue history and the member classes for
// one recommendation or chat call. LibraryManager satisfies recommend.Source.
func (lm *LibraryManager) Snapshot(ctx context.Context) (*recommend.Snapshot, error) {
	books, err := lm.db.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	history, err := lm.db.IssueHistory(ctx)
	if err != nil {
		return nil, err
	}
	students, err := lm.db.ListStudents(ctx)
	if err != nil {
		return nil, err
	}

	snap := &recommend.Snapshot{
		Books:   make([]recommend.Book, 0, len(books)),
		Loans:   make([]recommend.Loan, 0, len(history)),
		Classes: make(map[string]string, len(students)),
	}
	for _, s := range students {
		snap.Classes[s.ID] = s.Class
	}

	open := make(map[string]bool)
	for _, r := range history {
		active := r.ReturnedAt == nil
		if active {
			open[r.BookID] = true
		}
		snap.Loans = append(snap.Loans, recommend.Loan{
			StudentID: r.StudentID,
			Class:     r.Class,
			BookID:    r.BookID,
			DueDate:   r.DueDate,
			Active:    active,
		})
	}

	for _, b := range books {
		rb := recommend.Book{
			ID:         b.ID,
			Name:       b.Name,
			Author:     b.Author,
			Status:     b.Status,
			BorrowerID: b.BorrowerID,
			DueDate:    b.DueDate,
			IssueDate:  Sentinel,
		}
		if b.Issued() {
			rb.IssueDate = b.IssueDate(lm.policy.LoanDays)
			snap.PendingFines += lm.ledger.Fine(b)
			// Loans recorded before the issue log existed.
			if !open[b.ID] {
				snap.Loans = append(snap.Loans, recommend.Loan{
					StudentID: b.BorrowerID,
					Class:     snap.Classes[b.BorrowerID],
					BookID:    b.ID,
					DueDate:   b.DueDate,
					Active:    true,
				})
			}
		}
		snap.Books = append(snap.Books, rb)
	}
	return snap, nil
}

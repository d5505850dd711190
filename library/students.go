package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Student CRUD
// ---------------------------------------------------------------------------

func (d *Database) AddStudent(ctx context.Context, s Student) error {
	s.ID = strings.TrimSpace(s.ID)
	if s.ID == Sentinel {
		return invalid("id", Sentinel+" is reserved")
	}
	if err := validateStruct(s); err != nil {
		return err
	}
	_, err := d.addStudentStmt.ExecContext(ctx, s.ID, strings.TrimSpace(s.Name), s.Class, s.Contact, s.JoinDate, s.AdmissionYear)
	if isConstraint(err) {
		return fmt.Errorf("student %s: %w", s.ID, ErrDuplicateID)
	}
	if err != nil {
		return external("add student", err)
	}
	return nil
}

// UpdateStudent changes the join date and admission year, the two fields the
// desk is allowed to correct after registration.
func (d *Database) UpdateStudent(ctx context.Context, id, joinDate string, admissionYear int) error {
	probe := Student{ID: id, Name: "-", Class: "-", Contact: "-", JoinDate: joinDate, AdmissionYear: admissionYear}
	if err := validateStruct(probe); err != nil {
		return err
	}
	res, err := d.db.ExecContext(ctx, `UPDATE Students SET LIBRARY_JOINING_DATE=?, ADMISSION_YEAR=? WHERE STUDENT_ID=?`,
		joinDate, admissionYear, id)
	if err != nil {
		return external("update student", err)
	}
	return mustAffect(res, ErrStudentNotFound)
}

// DeleteStudent removes the member. Books they hold stay issued to the old id.
func (d *Database) DeleteStudent(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM Students WHERE STUDENT_ID=?`, id)
	if err != nil {
		return external("delete student", err)
	}
	return mustAffect(res, ErrStudentNotFound)
}

func (d *Database) GetStudent(ctx context.Context, id string) (*Student, error) {
	s, err := scanStudent(d.getStudentStmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, external("get student", err)
	}
	return s, nil
}

// ListStudents returns every member with the number of titles they hold.
func (d *Database) ListStudents(ctx context.Context) ([]*StudentSummary, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT S.STUDENT_ID, S.NAME, S.CLASS, S.CONTACT, S.LIBRARY_JOINING_DATE, S.ADMISSION_YEAR,
               COUNT(L.BK_ID)
        FROM Students S
        LEFT JOIN Library L ON L.CARD_ID = S.STUDENT_ID AND L.BK_STATUS = ?
        GROUP BY S.STUDENT_ID
        ORDER BY S.STUDENT_ID`, StatusIssued)
	if err != nil {
		return nil, external("list students", err)
	}
	defer rows.Close()

	out := []*StudentSummary{}
	for rows.Next() {
		var s StudentSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Class, &s.Contact, &s.JoinDate, &s.AdmissionYear, &s.BooksIssued); err != nil {
			return nil, external("scan student", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, external("list students", err)
	}
	return out, nil
}

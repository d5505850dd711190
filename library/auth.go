package library

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// AddAdmin creates a librarian account or replaces its password.
func (d *Database) AddAdmin(ctx context.Context, username, password string, now time.Time) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return invalid("username", "is required")
	}
	if len(password) < minPasswordLen {
		return invalid("password", "must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return invalid("password", err.Error())
	}
	_, err = d.db.ExecContext(ctx, `INSERT INTO Admins(USERNAME, PASSWORD_HASH, CREATED_AT) VALUES(?,?,?)
        ON CONFLICT(USERNAME) DO UPDATE SET PASSWORD_HASH=excluded.PASSWORD_HASH`,
		username, hash, now.Format(timestampLayout))
	if err != nil {
		return external("add admin", err)
	}
	return nil
}

// Authenticate checks a librarian's password. Unknown users and wrong
// passwords give the same error.
func (d *Database) Authenticate(ctx context.Context, username, password string) error {
	var hash []byte
	err := d.db.QueryRowContext(ctx, `SELECT PASSWORD_HASH FROM Admins WHERE USERNAME=?`, strings.TrimSpace(username)).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBadCredentials
	}
	if err != nil {
		return external("authenticate", err)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return ErrBadCredentials
	}
	return nil
}

// AdminCount is used to decide whether the shell needs a login at all.
func (d *Database) AdminCount(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM Admins`).Scan(&n); err != nil {
		return 0, external("count admins", err)
	}
	return n, nil
}

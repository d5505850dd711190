package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Database provides high-level helpers around a SQLite connection.
//
// database/sql hands each caller its own pooled connection, so the HTTP
// mirror and the shell can share one Database safely.
type Database struct {
	db *sql.DB

	addBookStmt    *sql.Stmt
	getBookStmt    *sql.Stmt
	addStudentStmt *sql.Stmt
	getStudentStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Immediate transactions take the write lock up front, so concurrent
	// issue/return calls wait on busy_timeout instead of failing on upgrade.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	for _, stmt := range []*sql.Stmt{d.addBookStmt, d.getBookStmt, d.addStudentStmt, d.getStudentStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return d.db.Close()
}

// Ping reports whether the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return external("ping", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL lets the HTTP mirror read while the shell writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS Library (
            BK_NAME TEXT NOT NULL,
            BK_ID TEXT PRIMARY KEY,
            AUTHOR_NAME TEXT NOT NULL DEFAULT 'Unknown',
            BK_STATUS TEXT NOT NULL DEFAULT 'Available',
            CARD_ID TEXT NOT NULL DEFAULT 'N/A',
            DUE_DATE TEXT NOT NULL DEFAULT 'N/A',
            FINE_PER_DAY REAL NOT NULL DEFAULT 5,
            QUANTITY INTEGER NOT NULL DEFAULT 10
        );`,
		`CREATE TABLE IF NOT EXISTS Students (
            STUDENT_ID TEXT PRIMARY KEY,
            NAME TEXT NOT NULL,
            CLASS TEXT NOT NULL,
            CONTACT TEXT NOT NULL,
            LIBRARY_JOINING_DATE TEXT NOT NULL,
            ADMISSION_YEAR INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS FineHistory (
            ID INTEGER PRIMARY KEY AUTOINCREMENT,
            STUDENT_ID TEXT NOT NULL,
            BK_ID TEXT NOT NULL,
            AMOUNT REAL NOT NULL,
            PAYMENT_DATE TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS Wishlist (
            STUDENT_ID TEXT NOT NULL,
            BOOK_ID TEXT NOT NULL,
            BOOK_NAME TEXT NOT NULL,
            ADDED_DATE TEXT NOT NULL,
            PRIMARY KEY (STUDENT_ID, BOOK_ID)
        );`,
		// No foreign keys: deleting a student or book leaves history intact.
		`CREATE TABLE IF NOT EXISTS IssueLog (
            ID INTEGER PRIMARY KEY AUTOINCREMENT,
            BK_ID TEXT NOT NULL,
            STUDENT_ID TEXT NOT NULL,
            ISSUED_AT TEXT NOT NULL,
            DUE_DATE TEXT NOT NULL,
            RETURNED_AT TEXT
        );`,
		`CREATE INDEX IF NOT EXISTS idx_issuelog_open ON IssueLog(BK_ID) WHERE RETURNED_AT IS NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_issuelog_student ON IssueLog(STUDENT_ID);`,
		`CREATE TABLE IF NOT EXISTS Admins (
            USERNAME TEXT PRIMARY KEY,
            PASSWORD_HASH BLOB NOT NULL,
            CREATED_AT TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS FeeStructure (
            FEE_ID INTEGER PRIMARY KEY AUTOINCREMENT,
            FEE_TYPE TEXT NOT NULL,
            AMOUNT REAL NOT NULL,
            DUE_DATE TEXT NOT NULL,
            APPLICABLE_TO TEXT NOT NULL DEFAULT 'All',
            ACADEMIC_YEAR TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS FeePayments (
            PAYMENT_ID INTEGER PRIMARY KEY AUTOINCREMENT,
            STUDENT_ID TEXT NOT NULL,
            FEE_TYPE TEXT NOT NULL,
            AMOUNT_PAID REAL NOT NULL,
            PAYMENT_DATE TEXT NOT NULL,
            PAYMENT_MODE TEXT NOT NULL,
            TRANSACTION_ID TEXT NOT NULL DEFAULT '',
            STATUS TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS Budget (
            BUDGET_ID INTEGER PRIMARY KEY AUTOINCREMENT,
            CATEGORY TEXT NOT NULL,
            ALLOCATED_AMOUNT REAL NOT NULL,
            SPENT_AMOUNT REAL NOT NULL DEFAULT 0,
            FISCAL_YEAR TEXT NOT NULL,
            START_DATE TEXT NOT NULL,
            END_DATE TEXT NOT NULL,
            UNIQUE(CATEGORY, FISCAL_YEAR)
        );`,
		`CREATE TABLE IF NOT EXISTS Expenses (
            EXPENSE_ID INTEGER PRIMARY KEY AUTOINCREMENT,
            CATEGORY TEXT NOT NULL,
            AMOUNT REAL NOT NULL,
            DESCRIPTION TEXT NOT NULL DEFAULT '',
            EXPENSE_DATE TEXT NOT NULL,
            PAYMENT_MODE TEXT NOT NULL,
            RECEIPT_NO TEXT NOT NULL DEFAULT '',
            APPROVED_BY TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS Donations (
            DONATION_ID INTEGER PRIMARY KEY AUTOINCREMENT,
            DONOR_NAME TEXT NOT NULL,
            AMOUNT REAL NOT NULL,
            DONATION_DATE TEXT NOT NULL,
            PURPOSE TEXT NOT NULL DEFAULT '',
            PAYMENT_MODE TEXT NOT NULL,
            RECEIPT_NO TEXT NOT NULL,
            NOTES TEXT NOT NULL DEFAULT ''
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

const (
	bookColumns    = `BK_ID, BK_NAME, AUTHOR_NAME, BK_STATUS, CARD_ID, DUE_DATE, FINE_PER_DAY, QUANTITY`
	studentColumns = `STUDENT_ID, NAME, CLASS, CONTACT, LIBRARY_JOINING_DATE, ADMISSION_YEAR`
)

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Prepare(`INSERT INTO Library(` + bookColumns + `) VALUES(?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	if d.getBookStmt, err = d.db.Prepare(`SELECT ` + bookColumns + ` FROM Library WHERE BK_ID=?`); err != nil {
		return err
	}
	if d.addStudentStmt, err = d.db.Prepare(`INSERT INTO Students(` + studentColumns + `) VALUES(?,?,?,?,?,?)`); err != nil {
		return err
	}
	if d.getStudentStmt, err = d.db.Prepare(`SELECT ` + studentColumns + ` FROM Students WHERE STUDENT_ID=?`); err != nil {
		return err
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBook(s scanner) (*Book, error) {
	var b Book
	if err := s.Scan(&b.ID, &b.Name, &b.Author, &b.Status, &b.BorrowerID, &b.DueDate, &b.FinePerDay, &b.Quantity); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanStudent(s scanner) (*Student, error) {
	var st Student
	if err := s.Scan(&st.ID, &st.Name, &st.Class, &st.Contact, &st.JoinDate, &st.AdmissionYear); err != nil {
		return nil, err
	}
	return &st, nil
}

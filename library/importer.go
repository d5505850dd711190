package library

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ImportResult tallies a catalog import.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []string
}

// ImportBooksCSV reads rows of id,name[,author[,fine_per_day[,quantity]]]
// and adds each as a new title. A first row starting with "id" is treated as
// a header. Titles already in the catalog are skipped, not updated.
func (d *Database) ImportBooksCSV(ctx context.Context, r io.Reader, p Policy) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	res := &ImportResult{Errors: []string{}}
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if line == 1 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "id") {
			continue
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}

		b, err := bookFromRecord(rec, p)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		switch err := d.AddBook(ctx, b); {
		case err == nil:
			res.Imported++
		case errors.Is(err, ErrExternal):
			return res, err
		case errors.Is(err, ErrDuplicateID):
			res.Skipped++
		default:
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %s", line, UserMessage(err)))
		}
	}
	return res, nil
}

func bookFromRecord(rec []string, p Policy) (Book, error) {
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	b := Book{
		ID:         field(0),
		Name:       field(1),
		Author:     field(2),
		FinePerDay: p.DefaultFinePerDay,
		Quantity:   p.Quantity,
	}
	if b.Author == "" {
		b.Author = "Unknown"
	}
	if s := field(3); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return b, fmt.Errorf("fine_per_day %q is not a number", s)
		}
		b.FinePerDay = v
	}
	if s := field(4); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return b, fmt.Errorf("quantity %q is not a number", s)
		}
		b.Quantity = v
	}
	return b, nil
}

// Command import_books loads a CSV book list into a catalog database, with an
// option to start from a clean file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"library-catalog/library"
)

func main() {
	dbFile := flag.String("db", "library.db", "SQLite database file")
	csvFile := flag.String("csv", "books.csv", "CSV file of id,name[,author[,fine_per_day[,quantity]]]")
	fresh := flag.Bool("fresh", false, "Remove the existing database first")
	flag.Parse()

	if *fresh {
		fmt.Println("Cleaning up existing database files...")
		for _, file := range []string{*dbFile, *dbFile + "-shm", *dbFile + "-wal"} {
			if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
				fmt.Printf("Warning: Could not remove %s: %v\n", file, err)
			}
		}
		fmt.Println("Database cleanup complete.")
	}

	manager, err := library.NewLibraryManager(*dbFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	f, err := os.Open(*csvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *csvFile, err)
		os.Exit(1)
	}
	defer f.Close()

	ctx := context.Background()
	fmt.Printf("Importing books from %s...\n", *csvFile)
	res, err := manager.ImportBooksCSV(ctx, f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	for _, e := range res.Errors {
		fmt.Printf("ERROR - %s\n", e)
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", res.Imported)
	fmt.Printf("Skipped (already present): %d\n", res.Skipped)
	fmt.Printf("Errors: %d\n", len(res.Errors))

	if res.Imported == 0 {
		return
	}
	books, err := manager.ListBooks(ctx)
	if err != nil {
		fmt.Printf("Error retrieving books: %v\n", err)
		return
	}
	fmt.Println("\nCatalog:")
	fmt.Printf("%-8s %-50s %-30s\n", "ID", "Title", "Author")
	fmt.Println(strings.Repeat("-", 90))
	for _, book := range books {
		fmt.Printf("%-8s %-50s %-30s\n", book.ID, truncateString(book.Name, 50), truncateString(book.Author, 30))
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

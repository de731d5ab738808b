package meta

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"xetra/internal/domain"
)

// Compile-time interface check.
var _ Log = (*SQLiteLog)(nil)

// SQLiteLog implements Log backed by a SQLite database. Entries are kept in
// insertion order via rowid; duplicates are permitted, matching CSVLog.
type SQLiteLog struct {
	db *sql.DB
}

// NewSQLiteLog opens (or creates) the database at dbPath and ensures the
// meta table exists.
func NewSQLiteLog(dbPath string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrUnavailable, dbPath, err)
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS meta_entries (
		%s TEXT NOT NULL,
		%s TEXT NOT NULL
	)`, ColSourceDate, ColProcessedAt)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating meta table: %v", ErrUnavailable, err)
	}

	return &SQLiteLog{db: db}, nil
}

// Close closes the underlying database connection.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

// Load returns all entries in append order. Rows with malformed dates are
// skipped, matching CSVLog's tolerant read.
func (l *SQLiteLog) Load(ctx context.Context) ([]domain.MetaEntry, error) {
	query := fmt.Sprintf("SELECT %s, %s FROM meta_entries ORDER BY rowid", ColSourceDate, ColProcessedAt)
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying meta table: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var entries []domain.MetaEntry
	for rows.Next() {
		var dateStr, processedStr string
		if err := rows.Scan(&dateStr, &processedStr); err != nil {
			return nil, fmt.Errorf("%w: scanning meta row: %v", ErrUnavailable, err)
		}
		date, err := domain.ParseDate(dateStr)
		if err != nil {
			continue
		}
		processed, err := time.Parse(domain.TimestampLayout, processedStr)
		if err != nil {
			continue
		}
		entries = append(entries, domain.MetaEntry{SourceDate: date, ProcessedAt: processed})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading meta rows: %v", ErrUnavailable, err)
	}
	return entries, nil
}

// Append inserts one row per date inside a single transaction.
func (l *SQLiteLog) Append(ctx context.Context, dates []time.Time, asOf time.Time) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning append: %v", ErrUnavailable, err)
	}

	insert := fmt.Sprintf("INSERT INTO meta_entries (%s, %s) VALUES (?, ?)", ColSourceDate, ColProcessedAt)
	for _, d := range dates {
		if _, err := tx.ExecContext(ctx, insert, domain.FormatDate(d), asOf.Format(domain.TimestampLayout)); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: inserting meta row: %v", ErrUnavailable, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing append: %v", ErrUnavailable, err)
	}
	return nil
}

// Package meta implements the meta log: the append-only record of which
// source dates have been processed, used to resume the ETL incrementally.
package meta

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"xetra/internal/domain"
	"xetra/internal/storage"
)

// Meta-table column names, fixed by the report contract.
const (
	ColSourceDate  = "source_date"
	ColProcessedAt = "datetime_of_processing"
)

// ErrUnavailable is returned when the underlying store cannot be reached.
// Callers treat it as recoverable and fall back to full-window processing.
var ErrUnavailable = errors.New("meta: log unavailable")

// Log is the meta-log contract. Append never deduplicates; a date may
// appear more than once when reprocessed, and readers collapse duplicates.
type Log interface {
	// Load returns every entry ever appended, in append order.
	Load(ctx context.Context) ([]domain.MetaEntry, error)

	// Append records the given source dates as processed at asOf.
	Append(ctx context.Context, dates []time.Time, asOf time.Time) error
}

// ProcessedSet collapses entries into the set of distinct source dates,
// keyed by YYYY-MM-DD.
func ProcessedSet(entries []domain.MetaEntry) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[domain.FormatDate(e.SourceDate)] = struct{}{}
	}
	return set
}

// Compile-time interface check.
var _ Log = (*CSVLog)(nil)

// CSVLog stores the meta log as a two-column CSV table at a fixed key in an
// object store, read and rewritten wholesale on each append. Durability is
// last-writer-wins, single process.
type CSVLog struct {
	store storage.ObjectStore
	key   string
}

// NewCSVLog creates a CSVLog at the given key (e.g. "meta_file.csv").
func NewCSVLog(store storage.ObjectStore, key string) *CSVLog {
	return &CSVLog{store: store, key: key}
}

// Load reads and parses the meta table. A missing object loads as an empty
// log; malformed rows are skipped. Any other store failure is reported as
// ErrUnavailable.
func (l *CSVLog) Load(_ context.Context) ([]domain.MetaEntry, error) {
	data, err := l.store.Read(l.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnavailable, l.key, err)
	}
	return decodeEntries(data), nil
}

// Append rewrites the meta table with the new entries added at the end.
func (l *CSVLog) Append(ctx context.Context, dates []time.Time, asOf time.Time) error {
	existing, err := l.Load(ctx)
	if err != nil {
		return err
	}

	entries := append(existing, newEntries(dates, asOf)...)
	data, err := encodeEntries(entries)
	if err != nil {
		return fmt.Errorf("encoding meta table: %w", err)
	}
	if err := l.store.Write(l.key, data); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrUnavailable, l.key, err)
	}
	return nil
}

func newEntries(dates []time.Time, asOf time.Time) []domain.MetaEntry {
	entries := make([]domain.MetaEntry, 0, len(dates))
	for _, d := range dates {
		entries = append(entries, domain.MetaEntry{SourceDate: d, ProcessedAt: asOf})
	}
	return entries
}

func decodeEntries(data []byte) []domain.MetaEntry {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil || len(rows) == 0 {
		return nil
	}

	var entries []domain.MetaEntry
	for _, row := range rows {
		if len(row) < 2 || row[0] == ColSourceDate {
			continue
		}
		date, err := domain.ParseDate(row[0])
		if err != nil {
			continue
		}
		processed, err := time.Parse(domain.TimestampLayout, row[1])
		if err != nil {
			continue
		}
		entries = append(entries, domain.MetaEntry{SourceDate: date, ProcessedAt: processed})
	}
	return entries
}

func encodeEntries(entries []domain.MetaEntry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{ColSourceDate, ColProcessedAt}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		row := []string{
			domain.FormatDate(e.SourceDate),
			e.ProcessedAt.Format(domain.TimestampLayout),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

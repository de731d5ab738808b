package meta

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"xetra/internal/domain"
	"xetra/internal/storage"
)

// brokenStore fails every operation, simulating an unreachable backend.
type brokenStore struct{}

func (brokenStore) List(string) ([]string, error) { return nil, errors.New("unreachable") }
func (brokenStore) Read(string) ([]byte, error)   { return nil, errors.New("unreachable") }
func (brokenStore) Write(string, []byte) error    { return errors.New("unreachable") }

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func logDates(t *testing.T, l Log) []string {
	t.Helper()
	entries, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var dates []string
	for _, e := range entries {
		dates = append(dates, domain.FormatDate(e.SourceDate))
	}
	return dates
}

func testBackends(t *testing.T) map[string]Log {
	t.Helper()
	sqliteLog, err := NewSQLiteLog(filepath.Join(t.TempDir(), "meta.db"))
	if err != nil {
		t.Fatalf("NewSQLiteLog: %v", err)
	}
	t.Cleanup(func() { sqliteLog.Close() })

	return map[string]Log{
		"csv":    NewCSVLog(storage.NewFSStore(t.TempDir()), "meta_file.csv"),
		"sqlite": sqliteLog,
	}
}

func TestLogAppendLoadRoundTrip(t *testing.T) {
	for name, l := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			asOf := time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)

			if err := l.Append(ctx, []time.Time{day("2024-01-01"), day("2024-01-02")}, asOf); err != nil {
				t.Fatalf("Append (first): %v", err)
			}
			if err := l.Append(ctx, []time.Time{day("2024-01-03")}, asOf.Add(time.Hour)); err != nil {
				t.Fatalf("Append (second): %v", err)
			}

			entries, err := l.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(entries) != 3 {
				t.Fatalf("got %d entries, want 3", len(entries))
			}
			// Append order preserved.
			want := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
			for i, e := range entries {
				if domain.FormatDate(e.SourceDate) != want[i] {
					t.Errorf("entry %d date = %s, want %s", i, domain.FormatDate(e.SourceDate), want[i])
				}
			}
			if !entries[0].ProcessedAt.Equal(asOf) {
				t.Errorf("entry 0 processed at %v, want %v", entries[0].ProcessedAt, asOf)
			}
		})
	}
}

func TestLogDuplicatesKeptInStorageCollapsedInSet(t *testing.T) {
	for name, l := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now()

			if err := l.Append(ctx, []time.Time{day("2024-01-01")}, now); err != nil {
				t.Fatal(err)
			}
			if err := l.Append(ctx, []time.Time{day("2024-01-01")}, now); err != nil {
				t.Fatal(err)
			}

			if got := logDates(t, l); len(got) != 2 {
				t.Errorf("storage should keep duplicates, got %v", got)
			}

			entries, err := l.Load(ctx)
			if err != nil {
				t.Fatal(err)
			}
			set := ProcessedSet(entries)
			if len(set) != 1 {
				t.Errorf("ProcessedSet should collapse duplicates, got %d dates", len(set))
			}
		})
	}
}

func TestLogEmptyWhenMissing(t *testing.T) {
	for name, l := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			entries, err := l.Load(context.Background())
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("fresh log should be empty, got %d entries", len(entries))
			}
		})
	}
}

func TestCSVLogSkipsMalformedRows(t *testing.T) {
	store := storage.NewFSStore(t.TempDir())
	content := strings.Join([]string{
		fmt.Sprintf("%s,%s", ColSourceDate, ColProcessedAt),
		"2024-01-01,2024-01-10 14:30:00",
		"not-a-date,2024-01-10 14:30:00",
		"2024-01-02,not-a-timestamp",
		"short-row",
		"2024-01-03,2024-01-10 15:30:00",
	}, "\n")
	if err := store.Write("meta_file.csv", []byte(content)); err != nil {
		t.Fatal(err)
	}

	l := NewCSVLog(store, "meta_file.csv")
	got := logDates(t, l)
	sort.Strings(got)
	want := []string{"2024-01-01", "2024-01-03"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("dates = %v, want %v", got, want)
	}
}

func TestCSVLogUnreachableStore(t *testing.T) {
	l := NewCSVLog(brokenStore{}, "meta_file.csv")

	_, err := l.Load(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Load err = %v, want ErrUnavailable", err)
	}

	err = l.Append(context.Background(), []time.Time{day("2024-01-01")}, time.Now())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Append err = %v, want ErrUnavailable", err)
	}
}

func TestCSVLogHeaderWritten(t *testing.T) {
	store := storage.NewFSStore(t.TempDir())
	l := NewCSVLog(store, "meta_file.csv")
	if err := l.Append(context.Background(), []time.Time{day("2024-01-01")}, time.Now()); err != nil {
		t.Fatal(err)
	}

	data, err := store.Read("meta_file.csv")
	if err != nil {
		t.Fatal(err)
	}
	first := strings.SplitN(string(data), "\n", 2)[0]
	want := ColSourceDate + "," + ColProcessedAt
	if first != want {
		t.Errorf("header = %q, want %q", first, want)
	}
}

func TestSQLiteLogReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.db")

	l, err := NewSQLiteLog(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Append(context.Background(), []time.Time{day("2024-01-01")}, time.Now()); err != nil {
		t.Fatal(err)
	}
	l.Close()

	l2, err := NewSQLiteLog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer l2.Close()

	got := logDates(t, l2)
	if len(got) != 1 || got[0] != "2024-01-01" {
		t.Errorf("dates after reopen = %v, want [2024-01-01]", got)
	}
}

// Package domain defines the core data types shared across the xetra ETL:
// raw trade records, aggregated daily summaries, and meta-log entries.
package domain

import "time"

// DateLayout is the calendar-date format used throughout the pipeline,
// in source keys, and in the meta log.
const DateLayout = "2006-01-02"

// TimestampLayout is the format for processing timestamps in the meta log.
const TimestampLayout = "2006-01-02 15:04:05"

// TradeRecord is one raw row from a Xetra source CSV file. Immutable once
// decoded.
type TradeRecord struct {
	ISIN         string
	Date         time.Time // UTC midnight
	Time         string    // intra-day time of day, "HH:MM"
	StartPrice   float64
	MinPrice     float64
	MaxPrice     float64
	EndPrice     float64
	TradedVolume int64
}

// DailySummary is one aggregated output row per (ISIN, date).
// ChangePrevClosePct is nil when the ISIN has no earlier date in the batch
// or the previous closing price is zero.
type DailySummary struct {
	ISIN               string
	Date               time.Time
	OpeningPrice       float64
	ClosingPrice       float64
	MinimumPrice       float64
	MaximumPrice       float64
	DailyTradedVolume  int64
	ChangePrevClosePct *float64
}

// MetaEntry records that all source rows for SourceDate were aggregated and
// written at least once, at ProcessedAt.
type MetaEntry struct {
	SourceDate  time.Time
	ProcessedAt time.Time
}

// ParseDate parses a YYYY-MM-DD string into a UTC-midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a time as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Midnight truncates t to UTC midnight, the canonical form for calendar
// dates in this module.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package etl

import (
	"time"

	"xetra/internal/domain"
	"xetra/internal/meta"
)

// FarFuture is the sentinel extract-from date returned when no dates are
// missing. Persisting it as the high-water mark keeps subsequent runs
// no-ops until new source dates appear.
var FarFuture = time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)

// Resolve computes the dates a run must (re-)extract and the new high-water
// mark to persist afterwards.
//
// One lookback day before the requested start is always considered so that
// the first missing date's percent change can be recomputed against the
// prior day's close. The lookback day itself never counts as missing; when
// anything is missing, the returned dates begin one day before the earliest
// gap and run through today, and extractFrom is the earliest gap itself.
// When nothing is missing, dates is empty and extractFrom is FarFuture.
func Resolve(entries []domain.MetaEntry, requestedStart, today time.Time) (extractFrom time.Time, dates []time.Time, err error) {
	requestedStart = domain.Midnight(requestedStart)
	today = domain.Midnight(today)
	if requestedStart.After(today) {
		return time.Time{}, nil, ErrInvalidDateRange
	}

	minDate := requestedStart.AddDate(0, 0, -1)
	var candidates []time.Time
	for d := minDate; !d.After(today); d = d.AddDate(0, 0, 1) {
		candidates = append(candidates, d)
	}

	processed := meta.ProcessedSet(entries)

	var earliestMissing time.Time
	for _, d := range candidates[1:] {
		if _, ok := processed[domain.FormatDate(d)]; ok {
			continue
		}
		if earliestMissing.IsZero() || d.Before(earliestMissing) {
			earliestMissing = d
		}
	}
	if earliestMissing.IsZero() {
		return FarFuture, nil, nil
	}

	newMin := earliestMissing.AddDate(0, 0, -1)
	for _, d := range candidates {
		if !d.Before(newMin) {
			dates = append(dates, d)
		}
	}
	return earliestMissing, dates, nil
}

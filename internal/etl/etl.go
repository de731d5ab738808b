// Package etl contains the core of the xetra pipeline: incremental date
// resolution against the meta log, daily OHLC aggregation of raw trades,
// and the run orchestration tying them to the storage collaborators.
package etl

import "errors"

// ErrInvalidDateRange reports a requested start date after today. Fatal;
// nothing has been read or written when it is returned.
var ErrInvalidDateRange = errors.New("etl: requested start date is after today")

// ErrEmptyInput reports that aggregation received zero usable records.
// Whether that fails the run is the caller's policy.
var ErrEmptyInput = errors.New("etl: no usable trade records")

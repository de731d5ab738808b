package util

import (
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar answers whether a calendar date is a trading day on a
// given exchange, identified by its ISO 10383 MIC (e.g. "xfra" for the
// Frankfurt/Xetra venue). When the MIC is unknown to the calendar library
// it falls back to plain Monday-Friday.
type TradingCalendar struct {
	cal      *calendar.Calendar
	fallback bool
	loc      *time.Location
}

// NewTradingCalendar creates a TradingCalendar for the given MIC.
func NewTradingCalendar(mic string) *TradingCalendar {
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		return &TradingCalendar{fallback: true, loc: time.UTC}
	}
	return &TradingCalendar{cal: cal, loc: cal.Loc}
}

// IsTradingDay reports whether date falls on a business day of the exchange.
// The argument is treated as a pure calendar date; it is re-anchored to noon
// in the exchange timezone so UTC-midnight dates never shift across days.
func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	d := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, tc.loc)
	if tc.fallback {
		wd := d.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.cal.IsBusinessDay(d)
}

// AnyTradingDay reports whether at least one of the dates is a trading day.
func (tc *TradingCalendar) AnyTradingDay(dates []time.Time) bool {
	for _, d := range dates {
		if tc.IsTradingDay(d) {
			return true
		}
	}
	return false
}

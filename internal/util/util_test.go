package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	attempts := 0
	targetAttempts := 3

	err := Retry(context.Background(), 5, 0, nil, func() error {
		attempts++
		if attempts < targetAttempts {
			return errors.New("transient error")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry returned unexpected error: %v", err)
	}
	if attempts != targetAttempts {
		t.Errorf("Retry called fn %d times, want %d", attempts, targetAttempts)
	}
}

func TestRetryAllFail(t *testing.T) {
	attempts := 0
	maxAttempts := 3

	err := Retry(context.Background(), maxAttempts, 0, nil, func() error {
		attempts++
		return errors.New("persistent error")
	})

	if err == nil {
		t.Fatal("Retry should return error when all attempts fail")
	}
	if attempts != maxAttempts {
		t.Errorf("Retry called fn %d times, want %d", attempts, maxAttempts)
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Minute, nil, func() error {
		return errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestTradingCalendarWeekend(t *testing.T) {
	cal := NewTradingCalendar("xfra")
	if cal == nil {
		t.Fatal("NewTradingCalendar returned nil")
	}

	saturday := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	friday := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	if cal.IsTradingDay(saturday) {
		t.Error("Saturday should not be a trading day")
	}
	if cal.IsTradingDay(sunday) {
		t.Error("Sunday should not be a trading day")
	}
	if !cal.IsTradingDay(friday) {
		t.Error("a regular Friday should be a trading day")
	}

	if cal.AnyTradingDay([]time.Time{saturday, sunday}) {
		t.Error("weekend-only window should have no trading day")
	}
	if !cal.AnyTradingDay([]time.Time{saturday, friday}) {
		t.Error("window containing Friday should have a trading day")
	}
	if cal.AnyTradingDay(nil) {
		t.Error("empty window should have no trading day")
	}
}

func TestTradingCalendarUnknownMICFallsBack(t *testing.T) {
	cal := NewTradingCalendar("zzzz")

	monday := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	saturday := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	if !cal.IsTradingDay(monday) {
		t.Error("fallback calendar should treat Monday as a trading day")
	}
	if cal.IsTradingDay(saturday) {
		t.Error("fallback calendar should treat Saturday as a non-trading day")
	}
}

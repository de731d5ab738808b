package etl

import (
	"math"
	"sort"

	"xetra/internal/domain"
)

// Aggregate folds raw trade records into one daily summary per (ISIN, date).
//
// Opening price is the start price of the chronologically earliest record in
// the group and closing price the start price of the latest, with ties broken
// by original read order. Percent change compares each ISIN's closing price
// to its previous summarized date in the batch; it is nil for the ISIN's
// first date and when the previous close is zero. All prices and percentages
// are rounded to 2 decimals.
//
// Records with a missing ISIN, date, or time are dropped silently. Returns
// ErrEmptyInput when nothing usable remains.
func Aggregate(records []domain.TradeRecord) ([]domain.DailySummary, error) {
	type key struct {
		isin string
		date int64
	}
	groups := make(map[key][]domain.TradeRecord)
	for _, r := range records {
		if r.ISIN == "" || r.Date.IsZero() || r.Time == "" || r.TradedVolume < 0 {
			continue
		}
		k := key{isin: r.ISIN, date: r.Date.Unix()}
		groups[k] = append(groups[k], r)
	}
	if len(groups) == 0 {
		return nil, ErrEmptyInput
	}

	summaries := make([]domain.DailySummary, 0, len(groups))
	for _, rs := range groups {
		// Stable sort keeps read order for rows sharing a timestamp, so
		// opening/closing picks are deterministic.
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Time < rs[j].Time })

		s := domain.DailySummary{
			ISIN:         rs[0].ISIN,
			Date:         rs[0].Date,
			OpeningPrice: rs[0].StartPrice,
			ClosingPrice: rs[len(rs)-1].StartPrice,
			MinimumPrice: rs[0].MinPrice,
			MaximumPrice: rs[0].MaxPrice,
		}
		for _, r := range rs {
			if r.MinPrice < s.MinimumPrice {
				s.MinimumPrice = r.MinPrice
			}
			if r.MaxPrice > s.MaximumPrice {
				s.MaximumPrice = r.MaxPrice
			}
			s.DailyTradedVolume += r.TradedVolume
		}
		summaries = append(summaries, s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].ISIN != summaries[j].ISIN {
			return summaries[i].ISIN < summaries[j].ISIN
		}
		return summaries[i].Date.Before(summaries[j].Date)
	})

	for i := range summaries {
		if i == 0 || summaries[i].ISIN != summaries[i-1].ISIN {
			continue
		}
		prevClose := summaries[i-1].ClosingPrice
		if prevClose == 0 {
			continue
		}
		pct := (summaries[i].ClosingPrice - prevClose) / prevClose * 100
		summaries[i].ChangePrevClosePct = &pct
	}

	for i := range summaries {
		s := &summaries[i]
		s.OpeningPrice = round2(s.OpeningPrice)
		s.ClosingPrice = round2(s.ClosingPrice)
		s.MinimumPrice = round2(s.MinimumPrice)
		s.MaximumPrice = round2(s.MaximumPrice)
		if s.ChangePrevClosePct != nil {
			r := round2(*s.ChangePrevClosePct)
			s.ChangePrevClosePct = &r
		}
	}
	return summaries, nil
}

// round2 rounds half away from zero to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package storage

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"xetra/internal/domain"
)

// SummaryRecord is the parquet schema for the daily report. Column names
// follow the report contract consumed downstream; change_prev_closing_pct
// is optional and absent for an ISIN's first date in a batch.
type SummaryRecord struct {
	ISIN               string   `parquet:"isin"`
	Date               string   `parquet:"date"` // YYYY-MM-DD
	OpeningPriceEUR    float64  `parquet:"opening_price_eur"`
	ClosingPriceEUR    float64  `parquet:"closing_price_eur"`
	MinimumPriceEUR    float64  `parquet:"minimum_price_eur"`
	MaximumPriceEUR    float64  `parquet:"maximum_price_eur"`
	DailyTradedVolume  int64    `parquet:"daily_traded_volume"`
	ChangePrevClosePct *float64 `parquet:"change_prev_closing_pct,optional"`
}

// EncodeReport serializes daily summaries into parquet bytes suitable for
// an ObjectStore write.
func EncodeReport(summaries []domain.DailySummary) ([]byte, error) {
	records := make([]SummaryRecord, 0, len(summaries))
	for _, s := range summaries {
		records = append(records, SummaryRecord{
			ISIN:               s.ISIN,
			Date:               domain.FormatDate(s.Date),
			OpeningPriceEUR:    s.OpeningPrice,
			ClosingPriceEUR:    s.ClosingPrice,
			MinimumPriceEUR:    s.MinimumPrice,
			MaximumPriceEUR:    s.MaximumPrice,
			DailyTradedVolume:  s.DailyTradedVolume,
			ChangePrevClosePct: s.ChangePrevClosePct,
		})
	}

	var buf bytes.Buffer
	w := parquet.NewGenericWriter[SummaryRecord](&buf)
	if _, err := w.Write(records); err != nil {
		return nil, fmt.Errorf("writing report rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing report writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeReport parses parquet report bytes back into daily summaries.
// Used by the meta tool and tests; the pipeline itself only writes.
func DecodeReport(data []byte) ([]domain.DailySummary, error) {
	records, err := parquet.Read[SummaryRecord](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	summaries := make([]domain.DailySummary, 0, len(records))
	for _, r := range records {
		date, err := domain.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date %q", ErrDecode, r.Date)
		}
		summaries = append(summaries, domain.DailySummary{
			ISIN:               r.ISIN,
			Date:               date,
			OpeningPrice:       r.OpeningPriceEUR,
			ClosingPrice:       r.ClosingPriceEUR,
			MinimumPrice:       r.MinimumPriceEUR,
			MaximumPrice:       r.MaximumPriceEUR,
			DailyTradedVolume:  r.DailyTradedVolume,
			ChangePrevClosePct: r.ChangePrevClosePct,
		})
	}
	return summaries, nil
}

package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"xetra/internal/domain"
)

// ColumnMap names the source CSV columns carrying each required field.
// Header names differ between dataset exports, so the mapping is part of
// the configuration surface rather than hard-coded.
type ColumnMap struct {
	ISIN         string `yaml:"isin"`
	Date         string `yaml:"date"`
	Time         string `yaml:"time"`
	StartPrice   string `yaml:"start_price"`
	MinPrice     string `yaml:"min_price"`
	MaxPrice     string `yaml:"max_price"`
	EndPrice     string `yaml:"end_price"`
	TradedVolume string `yaml:"traded_volume"`
}

// DefaultColumns returns the column names used by the Deutsche Börse
// public dataset export.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		ISIN:         "ISIN",
		Date:         "Date",
		Time:         "Time",
		StartPrice:   "StartPrice",
		MinPrice:     "MinPrice",
		MaxPrice:     "MaxPrice",
		EndPrice:     "EndPrice",
		TradedVolume: "TradedVolume",
	}
}

// DecodeTrades parses a source CSV object into trade records. Rows with
// missing or unparseable required fields are dropped, not treated as
// errors — partial source data is expected. The second return value is
// the number of dropped rows. A missing required column or an unreadable
// file yields ErrDecode.
func DecodeTrades(data []byte, cols ColumnMap, delimiter rune) ([]domain.TradeRecord, int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(rows) == 0 {
		return nil, 0, nil
	}

	idx, err := columnIndex(rows[0], cols)
	if err != nil {
		return nil, 0, err
	}

	var records []domain.TradeRecord
	dropped := 0
	for _, row := range rows[1:] {
		rec, ok := decodeRow(row, idx)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped, nil
}

// rowIndex holds the resolved position of each required column.
type rowIndex struct {
	isin, date, tod, start, min, max, end, volume int
}

func columnIndex(header []string, cols ColumnMap) (rowIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}

	idx := rowIndex{}
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{cols.ISIN, &idx.isin},
		{cols.Date, &idx.date},
		{cols.Time, &idx.tod},
		{cols.StartPrice, &idx.start},
		{cols.MinPrice, &idx.min},
		{cols.MaxPrice, &idx.max},
		{cols.EndPrice, &idx.end},
		{cols.TradedVolume, &idx.volume},
	} {
		i, ok := pos[c.name]
		if !ok {
			return idx, fmt.Errorf("%w: missing column %q", ErrDecode, c.name)
		}
		*c.dst = i
	}
	return idx, nil
}

func decodeRow(row []string, idx rowIndex) (domain.TradeRecord, bool) {
	field := func(i int) (string, bool) {
		if i >= len(row) {
			return "", false
		}
		v := strings.TrimSpace(row[i])
		return v, v != ""
	}

	isin, ok := field(idx.isin)
	if !ok {
		return domain.TradeRecord{}, false
	}
	dateStr, ok := field(idx.date)
	if !ok {
		return domain.TradeRecord{}, false
	}
	date, err := domain.ParseDate(dateStr)
	if err != nil {
		return domain.TradeRecord{}, false
	}
	tod, ok := field(idx.tod)
	if !ok {
		return domain.TradeRecord{}, false
	}

	prices := [4]float64{}
	for i, col := range []int{idx.start, idx.min, idx.max, idx.end} {
		v, ok := field(col)
		if !ok {
			return domain.TradeRecord{}, false
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return domain.TradeRecord{}, false
		}
		prices[i] = f
	}

	volStr, ok := field(idx.volume)
	if !ok {
		return domain.TradeRecord{}, false
	}
	vol, err := strconv.ParseInt(volStr, 10, 64)
	if err != nil || vol < 0 {
		return domain.TradeRecord{}, false
	}

	return domain.TradeRecord{
		ISIN:         isin,
		Date:         date,
		Time:         tod,
		StartPrice:   prices[0],
		MinPrice:     prices[1],
		MaxPrice:     prices[2],
		EndPrice:     prices[3],
		TradedVolume: vol,
	}, true
}

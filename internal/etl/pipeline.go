package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"xetra/internal/domain"
	"xetra/internal/meta"
	"xetra/internal/storage"
	"xetra/internal/util"
)

// State is the pipeline run state. A run moves strictly forward through the
// states and ends in StateDone or StateFailed.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateExtracting
	StateAggregating
	StateLoading
	StateUpdatingMeta
	StateDone
	StateFailed
)

var stateNames = [...]string{"idle", "resolving", "extracting", "aggregating", "loading", "updating-meta", "done", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Params configures a pipeline run.
type Params struct {
	RequestedStart time.Time
	Columns        storage.ColumnMap
	Delimiter      rune
	SourceExt      string // source file extension incl. dot, e.g. ".csv"
	ReportName     string // output file base name
}

// Result summarizes a completed (or failed) run.
type Result struct {
	State        State
	ExtractFrom  time.Time
	Dates        []time.Time
	RecordsRead  int
	RowsDropped  int
	FilesSkipped int
	Summaries    int
	OutputKey    string
}

// Pipeline orchestrates one ETL run: resolve missing dates, extract raw
// trade files, aggregate, write the report, and record the processed dates
// in the meta log. The meta log is only touched after the report write
// succeeds, so a failed run is retried over the same window.
type Pipeline struct {
	source   storage.ObjectStore
	target   storage.ObjectStore
	metaLog  meta.Log
	calendar *util.TradingCalendar
	params   Params
	now      func() time.Time
	log      *slog.Logger

	state State
}

// New creates a Pipeline wired to the given collaborators.
func New(source, target storage.ObjectStore, metaLog meta.Log, cal *util.TradingCalendar, params Params, log *slog.Logger) *Pipeline {
	if params.Delimiter == 0 {
		params.Delimiter = ','
	}
	if params.SourceExt == "" {
		params.SourceExt = ".csv"
	}
	return &Pipeline{
		source:   source,
		target:   target,
		metaLog:  metaLog,
		calendar: cal,
		params:   params,
		now:      time.Now,
		log:      log.With("component", "pipeline"),
		state:    StateIdle,
	}
}

// State returns the current run state.
func (p *Pipeline) State() State { return p.state }

func (p *Pipeline) setState(s State) {
	p.log.Debug("state transition", "from", p.state.String(), "to", s.String())
	p.state = s
}

func (p *Pipeline) fail(res *Result, err error) (*Result, error) {
	p.setState(StateFailed)
	res.State = StateFailed
	return res, err
}

// Run executes one complete ETL cycle. It returns the run result along
// with the first unrecoverable error, if any.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	today := domain.Midnight(p.now())

	// Resolving.
	p.setState(StateResolving)
	entries, err := p.metaLog.Load(ctx)
	if err != nil {
		// Recoverable: treat the whole window since the requested start as
		// missing and reprocess it.
		p.log.Warn("meta log unreadable, falling back to full window", "error", err)
		entries = nil
	}
	extractFrom, dates, err := Resolve(entries, p.params.RequestedStart, today)
	if err != nil {
		return p.fail(res, err)
	}
	res.ExtractFrom = extractFrom
	res.Dates = dates

	// The dates at or after extractFrom are the ones this run is accountable
	// for; anything earlier is the lookback seed for percent-change
	// continuity.
	var processed []time.Time
	for _, d := range dates {
		if !d.Before(extractFrom) {
			processed = append(processed, d)
		}
	}

	if len(dates) == 0 {
		p.log.Info("all dates already processed, nothing to do")
		p.setState(StateDone)
		res.State = StateDone
		return res, nil
	}
	p.log.Info("resolved dates to process",
		"extract_from", domain.FormatDate(extractFrom),
		"first", domain.FormatDate(dates[0]),
		"last", domain.FormatDate(dates[len(dates)-1]),
		"count", len(dates),
	)

	// Extracting. A date with no files contributes zero records; a file
	// that is missing or undecodable is skipped, never fatal.
	p.setState(StateExtracting)
	var records []domain.TradeRecord
	for _, d := range dates {
		if ctx.Err() != nil {
			return p.fail(res, ctx.Err())
		}
		keys, err := p.source.List(domain.FormatDate(d))
		if err != nil {
			return p.fail(res, fmt.Errorf("listing source keys for %s: %w", domain.FormatDate(d), err))
		}
		for _, key := range keys {
			if !strings.HasSuffix(key, p.params.SourceExt) {
				continue
			}
			data, err := p.source.Read(key)
			if err != nil {
				p.log.Warn("skipping unreadable source file", "key", key, "error", err)
				res.FilesSkipped++
				continue
			}
			recs, dropped, err := storage.DecodeTrades(data, p.params.Columns, p.params.Delimiter)
			if err != nil {
				p.log.Warn("skipping undecodable source file", "key", key, "error", err)
				res.FilesSkipped++
				continue
			}
			res.RowsDropped += dropped
			records = append(records, recs...)
		}
	}
	res.RecordsRead = len(records)
	p.log.Info("extraction complete",
		"records", res.RecordsRead,
		"rows_dropped", res.RowsDropped,
		"files_skipped", res.FilesSkipped,
	)

	// Aggregating.
	p.setState(StateAggregating)
	summaries, err := Aggregate(records)
	if err != nil {
		if errors.Is(err, ErrEmptyInput) && !p.calendar.AnyTradingDay(processed) {
			// None of the accountable dates is a trading day, so empty input
			// is the expected outcome. Record them and finish without a
			// report.
			p.log.Info("no trading day in window, completing without report")
			return p.commitMeta(ctx, res, processed)
		}
		return p.fail(res, err)
	}
	res.Summaries = len(summaries)

	// Loading.
	p.setState(StateLoading)
	report, err := storage.EncodeReport(summaries)
	if err != nil {
		return p.fail(res, fmt.Errorf("encoding report: %w", err))
	}
	key := p.reportKey()
	err = util.Retry(ctx, 3, time.Second, p.log, func() error {
		return p.target.Write(key, report)
	})
	if err != nil {
		return p.fail(res, fmt.Errorf("writing report %s: %w", key, err))
	}
	res.OutputKey = key
	p.log.Info("report written", "key", key, "summaries", len(summaries))

	return p.commitMeta(ctx, res, processed)
}

// commitMeta appends the processed dates (the lookback-only seed day is
// already excluded) and finishes the run.
func (p *Pipeline) commitMeta(ctx context.Context, res *Result, processed []time.Time) (*Result, error) {
	p.setState(StateUpdatingMeta)
	if err := p.metaLog.Append(ctx, processed, p.now()); err != nil {
		return p.fail(res, fmt.Errorf("updating meta log: %w", err))
	}
	p.log.Info("meta log updated", "dates", len(processed))

	p.setState(StateDone)
	res.State = StateDone
	return res, nil
}

// reportKey builds the deterministic timestamped output key:
// {date-partition}/{report-name}_{YYYYMMDD_HHMMSS}.parquet
func (p *Pipeline) reportKey() string {
	now := p.now()
	return fmt.Sprintf("%s/%s_%s.parquet",
		now.Format(domain.DateLayout),
		p.params.ReportName,
		now.Format("20060102_150405"),
	)
}

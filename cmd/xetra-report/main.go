// One-shot tool: run the xetra daily-report ETL once. Resolves the dates
// still missing from the meta log, aggregates their trade files, and writes
// a timestamped parquet report.
//
// Usage:
//
//	go run cmd/xetra-report/main.go [-proc_date YYYY-MM-DD] [-config path]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"xetra/internal/config"
	"xetra/internal/domain"
	"xetra/internal/etl"
	"xetra/internal/meta"
	"xetra/internal/storage"
	"xetra/internal/util"
)

func main() {
	procDate := flag.String("proc_date", "", "process date override (YYYY-MM-DD)")
	cfgFlag := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	cfgPath := "config/xetra.yaml"
	if p := os.Getenv("XETRA_CONFIG"); p != "" {
		cfgPath = p
	}
	if *cfgFlag != "" {
		cfgPath = *cfgFlag
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	start, err := resolveStart(*procDate, cfg)
	if err != nil {
		log.Fatalf("invalid process date: %v", err)
	}

	target := storage.NewFSStore(cfg.Storage.TargetDir)
	metaLog, closeMeta, err := openMetaLog(cfg, target)
	if err != nil {
		log.Fatalf("failed to open meta log: %v", err)
	}
	defer closeMeta()

	pipeline := etl.New(
		storage.NewFSStore(cfg.Storage.SourceDir),
		target,
		metaLog,
		util.NewTradingCalendar(cfg.ETL.CalendarMIC),
		etl.Params{
			RequestedStart: start,
			Columns:        cfg.Source.Columns,
			Delimiter:      cfg.Source.DelimiterRune(),
			SourceExt:      cfg.Source.Extension,
			ReportName:     cfg.Target.ReportName,
		},
		logger,
	)

	res, err := pipeline.Run(context.Background())
	if err != nil {
		log.Fatalf("run failed in state %s: %v", res.State, err)
	}

	if len(res.Dates) == 0 {
		logger.Info("nothing to process, meta log is up to date")
		return
	}
	logger.Info("run complete",
		"dates", len(res.Dates),
		"records", res.RecordsRead,
		"summaries", res.Summaries,
		"output", res.OutputKey,
	)
}

// resolveStart picks the requested start date: the -proc_date flag wins,
// then the configured default, then today; the configured lag is subtracted
// in every case.
func resolveStart(flagDate string, cfg *config.Config) (time.Time, error) {
	raw := flagDate
	if raw == "" {
		raw = cfg.ETL.DefaultStartDate
	}

	var d time.Time
	if raw == "" {
		d = domain.Midnight(time.Now())
	} else {
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			return time.Time{}, err
		}
		d = parsed
	}
	return d.AddDate(0, 0, -cfg.ETL.LagDays), nil
}

// openMetaLog builds the configured meta-log backend. The returned close
// function is a no-op for the CSV backend.
func openMetaLog(cfg *config.Config, target storage.ObjectStore) (meta.Log, func(), error) {
	if cfg.Meta.Backend == "sqlite" {
		l, err := meta.NewSQLiteLog(cfg.Meta.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return l, func() { l.Close() }, nil
	}
	return meta.NewCSVLog(target, cfg.Meta.Key), func() {}, nil
}

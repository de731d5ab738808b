// One-shot tool: inspect the meta log. Prints the processed-date count,
// the latest processed date, and any gap dates remaining in the configured
// window.
//
// Usage:
//
//	go run cmd/xetra-meta/main.go [-config path]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"xetra/internal/config"
	"xetra/internal/domain"
	"xetra/internal/etl"
	"xetra/internal/meta"
	"xetra/internal/storage"
)

func main() {
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

	target := storage.NewFSStore(cfg.Storage.TargetDir)
	var metaLog meta.Log
	if cfg.Meta.Backend == "sqlite" {
		l, err := meta.NewSQLiteLog(cfg.Meta.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open meta log: %v", err)
		}
		defer l.Close()
		metaLog = l
	} else {
		metaLog = meta.NewCSVLog(target, cfg.Meta.Key)
	}

	entries, err := metaLog.Load(context.Background())
	if err != nil {
		log.Fatalf("failed to load meta log: %v", err)
	}

	distinct := meta.ProcessedSet(entries)
	fmt.Printf("entries:        %d\n", len(entries))
	fmt.Printf("distinct dates: %d\n", len(distinct))

	var latest time.Time
	for _, e := range entries {
		if e.SourceDate.After(latest) {
			latest = e.SourceDate
		}
	}
	if !latest.IsZero() {
		fmt.Printf("latest date:    %s\n", domain.FormatDate(latest))
	}

	start := domain.Midnight(time.Now())
	if cfg.ETL.DefaultStartDate != "" {
		d, err := domain.ParseDate(cfg.ETL.DefaultStartDate)
		if err != nil {
			log.Fatalf("invalid default_start_date: %v", err)
		}
		start = d
	}
	start = start.AddDate(0, 0, -cfg.ETL.LagDays)

	extractFrom, dates, err := etl.Resolve(entries, start, domain.Midnight(time.Now()))
	if err != nil {
		log.Fatalf("failed to resolve window: %v", err)
	}
	if len(dates) == 0 {
		fmt.Println("pending dates:  none")
		return
	}
	fmt.Printf("extract from:   %s\n", domain.FormatDate(extractFrom))
	fmt.Printf("pending dates:  %d (%s .. %s)\n",
		len(dates), domain.FormatDate(dates[0]), domain.FormatDate(dates[len(dates)-1]))
}

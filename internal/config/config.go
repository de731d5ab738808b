package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"xetra/internal/storage"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the xetra ETL.
type Config struct {
	Storage Storage   `yaml:"storage"`
	Meta    Meta      `yaml:"meta"`
	Source  Source    `yaml:"source"`
	Target  Target    `yaml:"target"`
	ETL     ETLConfig `yaml:"etl"`
	Logging Logging   `yaml:"logging"`
}

// Storage holds the roots of the source and target object stores.
type Storage struct {
	SourceDir string `yaml:"source_dir"`
	TargetDir string `yaml:"target_dir"`
}

// Meta selects and locates the meta-log backend.
type Meta struct {
	Backend    string `yaml:"backend"` // "csv" (default) or "sqlite"
	Key        string `yaml:"key"`     // CSV backend: key in the target store
	SQLitePath string `yaml:"sqlite_path"`
}

// Source describes the raw trade files: column mapping, delimiter, and
// file extension.
type Source struct {
	Columns   storage.ColumnMap `yaml:"columns"`
	Delimiter string            `yaml:"delimiter"`
	Extension string            `yaml:"extension"`
}

// DelimiterRune returns the configured delimiter as a rune, defaulting to
// a comma when empty.
func (s Source) DelimiterRune() rune {
	for _, r := range s.Delimiter {
		return r
	}
	return ','
}

// Target describes the daily report output.
type Target struct {
	ReportName string `yaml:"report_name"`
}

// ETLConfig holds date-window parameters for a run.
type ETLConfig struct {
	DefaultStartDate string `yaml:"default_start_date"` // YYYY-MM-DD
	LagDays          int    `yaml:"lag_days"`
	CalendarMIC      string `yaml:"calendar_mic"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into
// a Config struct, applies environment variable overrides, and fills in
// defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("XETRA_SOURCE_DIR"); v != "" {
		cfg.Storage.SourceDir = v
	}
	if v := os.Getenv("XETRA_TARGET_DIR"); v != "" {
		cfg.Storage.TargetDir = v
	}
	if v := os.Getenv("XETRA_META_KEY"); v != "" {
		cfg.Meta.Key = v
	}
	if v := os.Getenv("XETRA_SQLITE_PATH"); v != "" {
		cfg.Meta.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// applyDefaults fills unset fields with working defaults.
func applyDefaults(cfg *Config) {
	if cfg.Meta.Backend == "" {
		cfg.Meta.Backend = "csv"
	}
	if cfg.Meta.Key == "" {
		cfg.Meta.Key = "meta_file.csv"
	}
	if cfg.Source.Delimiter == "" {
		cfg.Source.Delimiter = ","
	}
	if cfg.Source.Extension == "" {
		cfg.Source.Extension = ".csv"
	}
	if (cfg.Source.Columns == storage.ColumnMap{}) {
		cfg.Source.Columns = storage.DefaultColumns()
	}
	if cfg.Target.ReportName == "" {
		cfg.Target.ReportName = "xetra_daily_report"
	}
	if cfg.ETL.LagDays == 0 {
		cfg.ETL.LagDays = 1
	}
	if cfg.ETL.CalendarMIC == "" {
		cfg.ETL.CalendarMIC = "xfra"
	}
}

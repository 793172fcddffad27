// Package config holds runtime configuration for jobsync: defaults
// overlaid with JOBSYNC_* environment variables. Command-line flags
// override both at the command layer.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	// DataDir holds the SQLite database.
	DataDir string
	// PostgresURL is the replication target. Empty unless replicating.
	PostgresURL string
	// BatchSize is the number of records per commit during a sync run.
	BatchSize int
}

func defaults() Config {
	return Config{
		DataDir:   defaultDataDir(),
		BatchSize: 100,
	}
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".jobsync")
	}
	return "data"
}

// Load reads configuration from the environment over built-in defaults.
func Load() Config {
	cfg := defaults()
	if v := os.Getenv("JOBSYNC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("JOBSYNC_POSTGRES_URL"); v != "" {
		cfg.PostgresURL = v
	}
	if v := os.Getenv("JOBSYNC_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BatchSize = n
		}
	}
	return cfg
}

package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JOBSYNC_DATA_DIR", "")
	t.Setenv("JOBSYNC_POSTGRES_URL", "")
	t.Setenv("JOBSYNC_BATCH_SIZE", "")

	cfg := Load()
	if cfg.DataDir == "" {
		t.Error("DataDir should have a default")
	}
	if cfg.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100", cfg.BatchSize)
	}
	if cfg.PostgresURL != "" {
		t.Errorf("PostgresURL = %q, want empty", cfg.PostgresURL)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JOBSYNC_DATA_DIR", "/tmp/js-test")
	t.Setenv("JOBSYNC_POSTGRES_URL", "postgres://localhost/jobs")
	t.Setenv("JOBSYNC_BATCH_SIZE", "250")

	cfg := Load()
	if cfg.DataDir != "/tmp/js-test" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.PostgresURL != "postgres://localhost/jobs" {
		t.Errorf("PostgresURL = %q", cfg.PostgresURL)
	}
	if cfg.BatchSize != 250 {
		t.Errorf("BatchSize = %d, want 250", cfg.BatchSize)
	}
}

func TestLoadIgnoresInvalidBatchSize(t *testing.T) {
	t.Setenv("JOBSYNC_BATCH_SIZE", "zero")
	if cfg := Load(); cfg.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100 for invalid env value", cfg.BatchSize)
	}

	t.Setenv("JOBSYNC_BATCH_SIZE", "-5")
	if cfg := Load(); cfg.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100 for negative env value", cfg.BatchSize)
	}
}

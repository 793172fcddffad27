package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jmarket/jobsync/internal/config"
	"github.com/jmarket/jobsync/internal/ingest"
	"github.com/jmarket/jobsync/internal/replicate"
	"github.com/jmarket/jobsync/internal/resolve"
	"github.com/jmarket/jobsync/internal/storage"
)

func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.Load()
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	}
	if v, _ := cmd.Flags().GetString("postgres-url"); v != "" {
		cfg.PostgresURL = v
	}
	return cfg
}

// --- sync ---

var syncCmd = &cobra.Command{
	Use:   "sync [file]",
	Short: "Run one sync: ingest a batch of job records and reconcile open jobs",
	Long: `Run one sync against the normalized store.

Reads job records (JSON array or JSONL) from a file or stdin, upserts
each job with its company, locations, and skills, then closes every
open job the batch did not mention.

Examples:
  jobsync sync jobs.json
  curl -s https://collector/batch | jobsync sync`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)

		var in io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening input: %w", err)
			}
			defer f.Close()
			in = f
		}

		records, err := ingest.ReadRecords(in)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			printWarning("No records in input; nothing to sync.")
			return nil
		}

		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		runStart := time.Now().UTC()
		runner := ingest.NewRunner(store, resolve.New(store), cfg.BatchSize)

		printStep("Syncing %d records...", len(records))
		stats, err := runner.Run(cmd.Context(), records, runStart)
		if err != nil {
			return fmt.Errorf("sync run failed: %w", err)
		}

		// Reconcile only after the batch is known complete: an aborted
		// run above must never close jobs it did not get to see.
		closed, err := store.CloseStaleJobs(runStart)
		if err != nil {
			return fmt.Errorf("reconciliation failed: %w", err)
		}
		stats.JobsClosed = int(closed)

		if err := store.RecordSyncRun(storage.SyncRun{
			ID:                uuid.New().String(),
			StartedAt:         runStart,
			FinishedAt:        time.Now().UTC(),
			JobsCreated:       stats.JobsCreated,
			JobsUpdated:       stats.JobsUpdated,
			JobsClosed:        stats.JobsClosed,
			CompaniesCreated:  stats.CompaniesCreated,
			LocationsCreated:  stats.LocationsCreated,
			SkillLinksCreated: stats.SkillLinksCreated,
			Errors:            stats.Errors,
		}); err != nil {
			return err
		}

		printSuccess("Sync complete")
		printStatus("Jobs created", "%d", stats.JobsCreated)
		printStatus("Jobs updated", "%d", stats.JobsUpdated)
		printStatus("Jobs closed", "%d", stats.JobsClosed)
		printStatus("Companies created", "%d", stats.CompaniesCreated)
		printStatus("Locations created", "%d", stats.LocationsCreated)
		printStatus("Skill links created", "%d", stats.SkillLinksCreated)
		printStatus("Errors", "%d", stats.Errors)
		return nil
	},
}

func init() {
	syncCmd.Flags().Int("batch-size", 0, "records per commit (default: $JOBSYNC_BATCH_SIZE or 100)")
}

// --- replicate ---

var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Copy the store into a PostgreSQL database",
	Long: `Rebuild a PostgreSQL database from the local SQLite store.

The target schema is dropped and recreated; rows are bulk-copied in
foreign-key order with original ids preserved, and id sequences are
reset so the target accepts new inserts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		if cfg.PostgresURL == "" {
			return fmt.Errorf("--postgres-url (or JOBSYNC_POSTGRES_URL) is required")
		}

		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		printStep("Replicating to PostgreSQL...")
		if err := replicate.New(store).Run(cmd.Context(), cfg.PostgresURL); err != nil {
			return err
		}
		printSuccess("Replication complete")
		return nil
	},
}

func init() {
	replicateCmd.Flags().String("postgres-url", "", "target PostgreSQL connection URL")
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show table sizes, job status counts, and recent sync runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)

		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		counts, err := store.TableCounts()
		if err != nil {
			return err
		}
		tables := make([]string, 0, len(counts))
		for t := range counts {
			tables = append(tables, t)
		}
		sort.Strings(tables)
		for _, t := range tables {
			printStatus(t, "%d", counts[t])
		}

		open, closed, err := store.JobStatusCounts()
		if err != nil {
			return err
		}
		printStatus("jobs open", "%d", open)
		printStatus("jobs closed", "%d", closed)

		runs, err := store.RecentSyncRuns(5)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  created=%d updated=%d closed=%d errors=%d\n",
				colorize(colorCyan, r.ID[:8]),
				r.StartedAt.Format(time.RFC3339),
				r.JobsCreated, r.JobsUpdated, r.JobsClosed, r.Errors)
		}
		return nil
	},
}

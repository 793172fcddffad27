package storage

import (
	"fmt"
)

// RecordSyncRun appends one row to the sync_runs audit log.
func (s *Store) RecordSyncRun(run SyncRun) error {
	_, err := s.h.Exec(`
		INSERT INTO sync_runs (id, started_at, finished_at,
			jobs_created, jobs_updated, jobs_closed,
			companies_created, locations_created, skill_links_created, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.JobsCreated, run.JobsUpdated, run.JobsClosed,
		run.CompaniesCreated, run.LocationsCreated, run.SkillLinksCreated, run.Errors,
	)
	if err != nil {
		return fmt.Errorf("recording sync run %s: %w", run.ID, err)
	}
	return nil
}

// RecentSyncRuns returns the latest sync runs, most recent first.
func (s *Store) RecentSyncRuns(limit int) ([]SyncRun, error) {
	rows, err := s.h.Query(`
		SELECT id, started_at, finished_at,
			jobs_created, jobs_updated, jobs_closed,
			companies_created, locations_created, skill_links_created, errors
		FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []SyncRun
	for rows.Next() {
		var r SyncRun
		var startedAt, finishedAt string
		if err := rows.Scan(&r.ID, &startedAt, &finishedAt,
			&r.JobsCreated, &r.JobsUpdated, &r.JobsClosed,
			&r.CompaniesCreated, &r.LocationsCreated, &r.SkillLinksCreated, &r.Errors); err != nil {
			return nil, err
		}
		if r.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if r.FinishedAt, err = parseTime(finishedAt); err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// TableCounts returns the row count of every normalized table, keyed by
// table name.
func (s *Store) TableCounts() (map[string]int64, error) {
	tables := []string{
		"companies", "locations", "skill_categories", "skills",
		"jobs", "job_locations", "job_skills", "sync_runs",
	}
	counts := make(map[string]int64, len(tables))
	for _, t := range tables {
		var n int64
		if err := s.h.QueryRow("SELECT COUNT(*) FROM " + t).Scan(&n); err != nil {
			return nil, fmt.Errorf("counting %s: %w", t, err)
		}
		counts[t] = n
	}
	return counts, nil
}

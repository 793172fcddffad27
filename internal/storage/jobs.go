package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertResult reports what UpsertJob did to the row.
type UpsertResult struct {
	JobID    int64
	Created  bool // row was newly inserted
	Reopened bool // row existed with status closed and was forced back to open
}

// UpsertJob inserts or updates the job identified by f.ExternalJobID.
// Either way the row ends up with status open and last_seen_at stamped
// with runTS, so a later reconciliation pass with a cutoff at or before
// runTS will not close it. A closed job that reappears is reopened
// here; that is the only closed-to-open transition in the system.
func (s *Store) UpsertJob(f JobFields, runTS time.Time) (UpsertResult, error) {
	if f.ExternalJobID == "" {
		return UpsertResult{}, fmt.Errorf("upserting job: empty external job id")
	}

	now := formatTime(time.Now())
	run := formatTime(runTS)

	var id int64
	var status string
	err := s.h.QueryRow("SELECT id, status FROM jobs WHERE external_job_id = ?", f.ExternalJobID).Scan(&id, &status)
	switch {
	case err == sql.ErrNoRows:
		res, err := s.h.Exec(`
			INSERT INTO jobs (external_job_id, title, company_id, description,
				salary_min, salary_max, is_remote, publication_date, url,
				fetched_at, last_seen_at, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'open', ?, ?)`,
			f.ExternalJobID, f.Title, f.CompanyID, f.Description,
			f.SalaryMin, f.SalaryMax, boolToInt(f.IsRemote),
			formatTimePtr(f.PublicationDate), f.URL,
			run, run, now, now,
		)
		if err != nil {
			return UpsertResult{}, fmt.Errorf("inserting job %q: %w", f.ExternalJobID, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return UpsertResult{}, err
		}
		return UpsertResult{JobID: id, Created: true}, nil

	case err != nil:
		return UpsertResult{}, fmt.Errorf("looking up job %q: %w", f.ExternalJobID, err)
	}

	_, err = s.h.Exec(`
		UPDATE jobs SET title = ?, company_id = ?, description = ?,
			salary_min = ?, salary_max = ?, is_remote = ?, publication_date = ?,
			url = ?, fetched_at = ?, last_seen_at = ?, status = 'open', updated_at = ?
		WHERE id = ?`,
		f.Title, f.CompanyID, f.Description,
		f.SalaryMin, f.SalaryMax, boolToInt(f.IsRemote),
		formatTimePtr(f.PublicationDate),
		f.URL, run, run, now, id,
	)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("updating job %q: %w", f.ExternalJobID, err)
	}
	return UpsertResult{JobID: id, Reopened: status == StatusClosed}, nil
}

// JobByExternalID returns the full job row for a stable external id.
func (s *Store) JobByExternalID(externalJobID string) (Job, error) {
	var j Job
	var salaryMin, salaryMax sql.NullFloat64
	var pubDate, fetchedAt, lastSeenAt sql.NullString
	var isRemote int
	var createdAt, updatedAt string

	err := s.h.QueryRow(`
		SELECT id, external_job_id, title, company_id, description,
			salary_min, salary_max, is_remote, publication_date, url,
			fetched_at, last_seen_at, status, created_at, updated_at
		FROM jobs WHERE external_job_id = ?`, externalJobID,
	).Scan(&j.ID, &j.ExternalJobID, &j.Title, &j.CompanyID, &j.Description,
		&salaryMin, &salaryMax, &isRemote, &pubDate, &j.URL,
		&fetchedAt, &lastSeenAt, &j.Status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, err
	}

	if salaryMin.Valid {
		j.SalaryMin = &salaryMin.Float64
	}
	if salaryMax.Valid {
		j.SalaryMax = &salaryMax.Float64
	}
	j.IsRemote = isRemote != 0
	if j.PublicationDate, err = parseTimePtr(pubDate); err != nil {
		return Job{}, fmt.Errorf("parsing publication_date: %w", err)
	}
	if j.FetchedAt, err = parseTimePtr(fetchedAt); err != nil {
		return Job{}, fmt.Errorf("parsing fetched_at: %w", err)
	}
	if j.LastSeenAt, err = parseTimePtr(lastSeenAt); err != nil {
		return Job{}, fmt.Errorf("parsing last_seen_at: %w", err)
	}
	if j.CreatedAt, err = parseTime(createdAt); err != nil {
		return Job{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if j.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Job{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return j, nil
}

// LinkJobLocation attaches a location to a job. Links accumulate across
// runs: an existing pair is silently kept, never duplicated or removed.
// Returns whether a new link row was inserted.
func (s *Store) LinkJobLocation(jobID, locationID int64) (bool, error) {
	res, err := s.h.Exec(
		"INSERT OR IGNORE INTO job_locations (job_id, location_id) VALUES (?, ?)",
		jobID, locationID,
	)
	if err != nil {
		return false, fmt.Errorf("linking job %d to location %d: %w", jobID, locationID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LinkJobSkill attaches a skill to a job with the same accumulate-only
// semantics as LinkJobLocation.
func (s *Store) LinkJobSkill(jobID, skillID int64) (bool, error) {
	res, err := s.h.Exec(
		"INSERT OR IGNORE INTO job_skills (job_id, skill_id) VALUES (?, ?)",
		jobID, skillID,
	)
	if err != nil {
		return false, fmt.Errorf("linking job %d to skill %d: %w", jobID, skillID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CloseStaleJobs closes every open job not seen since the cutoff (the
// start timestamp of the run that just completed). A job touched at or
// after the cutoff stays open, so the run that just stamped it can
// never close it. Idempotent: a second call with the same cutoff
// closes nothing. Returns the number of jobs closed.
func (s *Store) CloseStaleJobs(cutoff time.Time) (int64, error) {
	res, err := s.h.Exec(`
		UPDATE jobs SET status = 'closed', updated_at = ?
		WHERE status = 'open' AND (last_seen_at IS NULL OR last_seen_at < ?)`,
		formatTime(time.Now()), formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("closing stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// JobStatusCounts returns the number of open and closed jobs.
func (s *Store) JobStatusCounts() (open, closed int64, err error) {
	rows, err := s.h.Query("SELECT status, COUNT(*) FROM jobs GROUP BY status")
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return 0, 0, err
		}
		switch status {
		case StatusOpen:
			open = n
		case StatusClosed:
			closed = n
		}
	}
	return open, closed, rows.Err()
}

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmarket/jobsync/internal/resolve"
	"github.com/jmarket/jobsync/internal/storage"
)

// JobStore is the write side of the store the runner needs: chunked
// batch transactions, job upserts, and link inserts.
type JobStore interface {
	Begin() error
	Commit() error
	Rollback() error
	UpsertJob(f storage.JobFields, runTS time.Time) (storage.UpsertResult, error)
	LinkJobLocation(jobID, locationID int64) (bool, error)
	LinkJobSkill(jobID, skillID int64) (bool, error)
}

// Stats aggregates the outcome of one sync run.
type Stats struct {
	JobsCreated       int
	JobsUpdated       int
	JobsClosed        int
	CompaniesCreated  int
	LocationsCreated  int
	SkillLinksCreated int
	Errors            int
}

func (s Stats) String() string {
	return fmt.Sprintf("created=%d updated=%d closed=%d companies=%d locations=%d skill_links=%d errors=%d",
		s.JobsCreated, s.JobsUpdated, s.JobsClosed,
		s.CompaniesCreated, s.LocationsCreated, s.SkillLinksCreated, s.Errors)
}

// skipReason marks a record the run rejects without failing the batch.
// Skips are counted under Stats.Errors; real store errors abort the
// run instead.
type skipReason string

const (
	skipMissingExternalID   skipReason = "missing external id"
	skipUnresolvableCompany skipReason = "unresolvable company"
)

const defaultBatchSize = 100

// Runner drives records through resolve → upsert → link, committing
// every batchSize records. One Runner serves one run; it is
// single-writer like the store beneath it.
type Runner struct {
	store     JobStore
	resolver  *resolve.Resolver
	batchSize int
	logger    *slog.Logger
}

func NewRunner(store JobStore, resolver *resolve.Resolver, batchSize int) *Runner {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Runner{
		store:     store,
		resolver:  resolver,
		batchSize: batchSize,
		logger:    slog.Default(),
	}
}

// Run processes every record against the store, stamping all effects
// with runTS. Malformed records are skipped and counted; a store-level
// failure rolls back the current chunk and aborts. After Run returns
// nil, every record's effects are committed. Reconciliation is a
// separate step (storage.CloseStaleJobs) the caller invokes only when
// the batch is known complete.
func (r *Runner) Run(ctx context.Context, records []Record, runTS time.Time) (Stats, error) {
	var stats Stats

	for start := 0; start < len(records); start += r.batchSize {
		end := min(start+r.batchSize, len(records))

		if err := r.store.Begin(); err != nil {
			return stats, err
		}
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				r.store.Rollback()
				return stats, err
			}

			skip, err := r.processRecord(records[i], runTS, &stats)
			if err != nil {
				r.store.Rollback()
				return stats, fmt.Errorf("processing record %d (%q): %w", i, records[i].ExternalID, err)
			}
			if skip != "" {
				stats.Errors++
				r.logger.Warn("skipping record",
					"index", i,
					"external_id", records[i].ExternalID,
					"reason", string(skip))
			}
		}
		if err := r.store.Commit(); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// processRecord runs one record through the full pipeline. It returns
// a skipReason for malformed records (no partial writes happen before
// the skip decision) and an error only for store-level failures.
func (r *Runner) processRecord(rec Record, runTS time.Time, stats *Stats) (skipReason, error) {
	externalID := strings.TrimSpace(rec.ExternalID)
	if externalID == "" {
		return skipMissingExternalID, nil
	}

	companyID, companyCreated, err := r.resolver.Company(resolve.CompanyRef{
		Key:       rec.Company.IDOrName,
		Name:      rec.Company.DisplayName,
		ShortName: rec.Company.ShortName,
	})
	if err != nil {
		return "", err
	}
	if companyID == 0 {
		return skipUnresolvableCompany, nil
	}
	if companyCreated {
		stats.CompaniesCreated++
	}

	salaryMin, salaryMax := ParseSalary(rec.SalaryText)

	res, err := r.store.UpsertJob(storage.JobFields{
		ExternalJobID:   externalID,
		Title:           rec.Title,
		CompanyID:       companyID,
		Description:     rec.Description,
		SalaryMin:       salaryMin,
		SalaryMax:       salaryMax,
		IsRemote:        rec.IsRemote,
		PublicationDate: ParsePublicationDate(rec.PublicationDate, time.Now()),
		URL:             rec.URL,
	}, runTS)
	if err != nil {
		return "", err
	}
	if res.Created {
		stats.JobsCreated++
	} else {
		stats.JobsUpdated++
	}
	if res.Reopened {
		r.logger.Info("job reopened", "external_id", externalID)
	}

	if err := r.linkLocations(res.JobID, rec, stats); err != nil {
		return "", err
	}
	if err := r.linkSkills(res.JobID, rec, stats); err != nil {
		return "", err
	}
	return "", nil
}

func (r *Runner) linkLocations(jobID int64, rec Record, stats *Stats) error {
	linked := false
	for _, ref := range rec.Locations {
		loc, ok := resolve.NormalizeLocation(ref.Name, rec.IsRemote)
		if !ok {
			continue
		}
		if err := r.linkLocation(jobID, loc, stats); err != nil {
			return err
		}
		linked = true
	}

	// A fully-remote job with no explicit locations still gets the
	// remote sentinel location, so every open job is reachable by
	// location queries.
	if !linked && rec.IsRemote {
		return r.linkLocation(jobID, resolve.Remote(), stats)
	}
	return nil
}

func (r *Runner) linkLocation(jobID int64, loc resolve.Location, stats *Stats) error {
	locationID, created, err := r.resolver.Location(loc)
	if err != nil {
		return err
	}
	if locationID == 0 {
		return nil
	}
	if created {
		stats.LocationsCreated++
	}
	_, err = r.store.LinkJobLocation(jobID, locationID)
	return err
}

func (r *Runner) linkSkills(jobID int64, rec Record, stats *Stats) error {
	for category, names := range rec.Skills {
		for _, name := range names {
			skillID, _, err := r.resolver.Skill(name, category)
			if err != nil {
				return err
			}
			if skillID == 0 {
				continue
			}
			inserted, err := r.store.LinkJobSkill(jobID, skillID)
			if err != nil {
				return err
			}
			if inserted {
				stats.SkillLinksCreated++
			}
		}
	}
	return nil
}

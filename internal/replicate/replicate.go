// Package replicate copies the normalized job market store from its
// SQLite primary into a PostgreSQL database, preserving row ids and
// referential integrity.
package replicate

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

//go:embed pg_schema.sql
var pgSchema string

// Source streams raw table rows out of the primary store.
type Source interface {
	StreamTable(table string, columns []string, orderBy string, fn func(row []any) error) error
}

// tableSpec describes one table of the copy plan. The plan is ordered
// by foreign-key dependency: parents before children.
type tableSpec struct {
	name    string
	columns []string
	orderBy string
}

var copyPlan = []tableSpec{
	{name: "companies", columns: []string{"id", "external_id", "name", "short_name"}, orderBy: "id"},
	{name: "locations", columns: []string{"id", "city", "state", "country", "is_remote"}, orderBy: "id"},
	{name: "skill_categories", columns: []string{"id", "name"}, orderBy: "id"},
	{name: "skills", columns: []string{"id", "name", "category_id"}, orderBy: "id"},
	{name: "jobs", columns: []string{
		"id", "external_job_id", "title", "company_id", "description",
		"salary_min", "salary_max", "is_remote", "publication_date", "url",
		"fetched_at", "last_seen_at", "status", "created_at", "updated_at",
	}, orderBy: "id"},
	{name: "job_locations", columns: []string{"job_id", "location_id"}},
	{name: "job_skills", columns: []string{"job_id", "skill_id"}},
}

// serialTables are the tables whose id sequences are reset after load.
var serialTables = []string{"companies", "locations", "skill_categories", "skills", "jobs"}

// orphanCleanup removes link rows whose endpoints are missing. The
// SQLite primary historically ran without enforced foreign keys, so a
// copied store may carry dangling links PostgreSQL would reject.
var orphanCleanup = []string{
	"DELETE FROM job_locations WHERE location_id NOT IN (SELECT id FROM locations)",
	"DELETE FROM job_locations WHERE job_id NOT IN (SELECT id FROM jobs)",
	"DELETE FROM job_skills WHERE job_id NOT IN (SELECT id FROM jobs)",
	"DELETE FROM job_skills WHERE skill_id NOT IN (SELECT id FROM skills)",
}

type Replicator struct {
	src    Source
	logger *slog.Logger
}

func New(src Source) *Replicator {
	return &Replicator{src: src, logger: slog.Default()}
}

// Run rebuilds the target database from the source: drop and recreate
// the schema, bulk-copy every table in dependency order with FK checks
// deferred, remove orphan links, and reset each serial sequence to the
// max copied id so later inserts on the target allocate fresh ids.
func (r *Replicator) Run(ctx context.Context, postgresURL string) error {
	conn, err := pgx.Connect(ctx, postgresURL)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer conn.Close(ctx)

	for i := len(copyPlan) - 1; i >= 0; i-- {
		if _, err := conn.Exec(ctx, "DROP TABLE IF EXISTS "+copyPlan[i].name+" CASCADE"); err != nil {
			return fmt.Errorf("dropping %s: %w", copyPlan[i].name, err)
		}
	}
	if _, err := conn.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	// FK checks stay off for the duration of the load; the copy plan
	// order makes them hold anyway for non-orphan rows.
	if _, err := conn.Exec(ctx, "SET session_replication_role = 'replica'"); err != nil {
		return fmt.Errorf("deferring constraint checks: %w", err)
	}

	for _, spec := range copyPlan {
		n, err := r.copyTable(ctx, conn, spec)
		if err != nil {
			return fmt.Errorf("copying %s: %w", spec.name, err)
		}
		r.logger.Info("table copied", "table", spec.name, "rows", n)
	}

	if _, err := conn.Exec(ctx, "SET session_replication_role = 'origin'"); err != nil {
		return fmt.Errorf("restoring constraint checks: %w", err)
	}

	for _, stmt := range orphanCleanup {
		tag, err := conn.Exec(ctx, stmt)
		if err != nil {
			return fmt.Errorf("cleaning orphan links: %w", err)
		}
		if tag.RowsAffected() > 0 {
			r.logger.Warn("removed orphan link rows", "count", tag.RowsAffected())
		}
	}

	for _, table := range serialTables {
		if _, err := conn.Exec(ctx, fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))",
			table, table,
		)); err != nil {
			return fmt.Errorf("resetting %s sequence: %w", table, err)
		}
	}

	return nil
}

// copyTable streams rows from the source into a pg COPY, with a reader
// goroutine feeding the COPY through a channel.
func (r *Replicator) copyTable(ctx context.Context, conn *pgx.Conn, spec tableSpec) (int64, error) {
	g, gctx := errgroup.WithContext(ctx)
	rowCh := make(chan []any, 256)

	g.Go(func() error {
		defer close(rowCh)
		return r.src.StreamTable(spec.name, spec.columns, spec.orderBy, func(row []any) error {
			converted, err := ConvertRow(spec.name, spec.columns, row)
			if err != nil {
				return err
			}
			select {
			case rowCh <- converted:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	var copied int64
	g.Go(func() error {
		n, err := conn.CopyFrom(gctx, pgx.Identifier{spec.name}, spec.columns, &rowSource{ch: rowCh})
		copied = n
		return err
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return copied, nil
}

// rowSource adapts the channel feed to pgx.CopyFromSource.
type rowSource struct {
	ch  <-chan []any
	row []any
}

func (s *rowSource) Next() bool {
	row, ok := <-s.ch
	s.row = row
	return ok
}

func (s *rowSource) Values() ([]any, error) { return s.row, nil }

func (s *rowSource) Err() error { return nil }

// ConvertRow translates SQLite representations into the target
// engine's: 0/1 integers become booleans and RFC3339 text becomes
// timestamps. Everything else passes through unchanged.
func ConvertRow(table string, columns []string, row []any) ([]any, error) {
	out := make([]any, len(row))
	for i, col := range columns {
		v, err := convertValue(col, row[i])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", table, col, err)
		}
		out[i] = v
	}
	return out, nil
}

func convertValue(column string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch column {
	case "is_remote":
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("expected integer boolean, got %T", v)
		}
		return n != 0, nil
	case "publication_date", "fetched_at", "last_seen_at", "created_at", "updated_at":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected text timestamp, got %T", v)
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp %q: %w", s, err)
		}
		return t, nil
	}
	return v, nil
}

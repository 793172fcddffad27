package replicate

import (
	"testing"
	"time"
)

func TestConvertRowBooleansAndTimestamps(t *testing.T) {
	columns := []string{"id", "external_job_id", "is_remote", "last_seen_at", "salary_min"}
	row := []any{int64(7), "j1", int64(1), "2026-08-01T12:00:00Z", 90000.0}

	out, err := ConvertRow("jobs", columns, row)
	if err != nil {
		t.Fatalf("ConvertRow: %v", err)
	}

	if out[0] != int64(7) || out[1] != "j1" || out[4] != 90000.0 {
		t.Errorf("passthrough values changed: %v", out)
	}
	if b, ok := out[2].(bool); !ok || !b {
		t.Errorf("is_remote = %v (%T), want true", out[2], out[2])
	}
	ts, ok := out[3].(time.Time)
	if !ok {
		t.Fatalf("last_seen_at = %T, want time.Time", out[3])
	}
	want := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("last_seen_at = %v, want %v", ts, want)
	}
}

func TestConvertRowFalseBoolean(t *testing.T) {
	out, err := ConvertRow("locations", []string{"is_remote"}, []any{int64(0)})
	if err != nil {
		t.Fatalf("ConvertRow: %v", err)
	}
	if b, ok := out[0].(bool); !ok || b {
		t.Errorf("is_remote = %v, want false", out[0])
	}
}

func TestConvertRowNullsPassThrough(t *testing.T) {
	columns := []string{"publication_date", "salary_min", "is_remote"}
	out, err := ConvertRow("jobs", columns, []any{nil, nil, int64(0)})
	if err != nil {
		t.Fatalf("ConvertRow: %v", err)
	}
	if out[0] != nil || out[1] != nil {
		t.Errorf("nulls did not pass through: %v", out)
	}
}

func TestConvertRowRejectsBadTimestamp(t *testing.T) {
	if _, err := ConvertRow("jobs", []string{"created_at"}, []any{"not a time"}); err == nil {
		t.Error("expected error for malformed timestamp")
	}
	if _, err := ConvertRow("jobs", []string{"created_at"}, []any{int64(5)}); err == nil {
		t.Error("expected error for non-text timestamp")
	}
}

func TestConvertRowRejectsBadBoolean(t *testing.T) {
	if _, err := ConvertRow("jobs", []string{"is_remote"}, []any{"yes"}); err == nil {
		t.Error("expected error for non-integer boolean")
	}
}

// The copy plan must list every parent table before any child that
// references it, since rows load in plan order.
func TestCopyPlanParentsBeforeChildren(t *testing.T) {
	pos := make(map[string]int, len(copyPlan))
	for i, spec := range copyPlan {
		pos[spec.name] = i
	}

	deps := map[string][]string{
		"skills":        {"skill_categories"},
		"jobs":          {"companies"},
		"job_locations": {"jobs", "locations"},
		"job_skills":    {"jobs", "skills"},
	}
	for child, parents := range deps {
		ci, ok := pos[child]
		if !ok {
			t.Fatalf("copy plan missing table %q", child)
		}
		for _, parent := range parents {
			pi, ok := pos[parent]
			if !ok {
				t.Fatalf("copy plan missing table %q", parent)
			}
			if pi >= ci {
				t.Errorf("%s (pos %d) must precede %s (pos %d)", parent, pi, child, ci)
			}
		}
	}
}

func TestSerialTablesAreInPlan(t *testing.T) {
	inPlan := make(map[string]bool, len(copyPlan))
	for _, spec := range copyPlan {
		inPlan[spec.name] = true
	}
	for _, table := range serialTables {
		if !inPlan[table] {
			t.Errorf("serial table %q not in copy plan", table)
		}
	}
}

func TestRowSourceDrainsChannel(t *testing.T) {
	ch := make(chan []any, 2)
	ch <- []any{int64(1)}
	ch <- []any{int64(2)}
	close(ch)

	src := &rowSource{ch: ch}
	var got []int64
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			t.Fatalf("Values: %v", err)
		}
		got = append(got, vals[0].(int64))
	}
	if src.Err() != nil {
		t.Errorf("Err = %v, want nil", src.Err())
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("got %v, want [1 2]", got)
	}
}

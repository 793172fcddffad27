package resolve

import (
	"errors"
	"testing"

	"github.com/jmarket/jobsync/internal/storage"
)

// countingStore wraps a real store and counts durable inserts so tests
// can assert the cache prevents repeat writes.
type countingStore struct {
	DimensionStore
	inserts int
}

func (c *countingStore) InsertCompany(externalID, name, shortName string) (int64, error) {
	c.inserts++
	return c.DimensionStore.InsertCompany(externalID, name, shortName)
}

func (c *countingStore) InsertLocation(city, state, country string, isRemote bool) (int64, error) {
	c.inserts++
	return c.DimensionStore.InsertLocation(city, state, country, isRemote)
}

func (c *countingStore) InsertSkillCategory(name string) (int64, error) {
	c.inserts++
	return c.DimensionStore.InsertSkillCategory(name)
}

func (c *countingStore) InsertSkill(name string, categoryID int64) (int64, error) {
	c.inserts++
	return c.DimensionStore.InsertSkill(name, categoryID)
}

func newTestResolver(t *testing.T) (*Resolver, *countingStore) {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	cs := &countingStore{DimensionStore: s}
	return New(cs), cs
}

func TestCompanyResolvedOnce(t *testing.T) {
	r, cs := newTestResolver(t)

	id1, created, err := r.Company(CompanyRef{Key: "muse-42", Name: "Acme"})
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if !created {
		t.Error("first resolve should create")
	}

	id2, created, err := r.Company(CompanyRef{Key: "muse-42", Name: "Acme"})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if created {
		t.Error("second resolve should hit the cache")
	}
	if id1 != id2 {
		t.Errorf("ids differ: %d != %d", id1, id2)
	}
	if cs.inserts != 1 {
		t.Errorf("durable inserts = %d, want 1", cs.inserts)
	}
}

func TestCompanyNameFallsBackAsKey(t *testing.T) {
	r, _ := newTestResolver(t)

	id1, _, err := r.Company(CompanyRef{Name: "Initech"})
	if err != nil {
		t.Fatalf("resolve by name: %v", err)
	}
	if id1 == 0 {
		t.Fatal("expected non-zero id for name-only company")
	}

	id2, created, err := r.Company(CompanyRef{Name: "Initech"})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if created || id1 != id2 {
		t.Errorf("name-keyed company not deduplicated: %d vs %d created=%v", id1, id2, created)
	}
}

func TestCompanyBlankRefUnresolvable(t *testing.T) {
	r, cs := newTestResolver(t)

	id, created, err := r.Company(CompanyRef{Key: "  ", Name: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0 || created {
		t.Errorf("blank ref resolved to id=%d created=%v, want 0/false", id, created)
	}
	if cs.inserts != 0 {
		t.Errorf("blank ref caused %d inserts", cs.inserts)
	}
}

func TestSkillIdentityScopedByCategory(t *testing.T) {
	r, _ := newTestResolver(t)

	langID, _, err := r.Skill("python", "Languages")
	if err != nil {
		t.Fatalf("resolve python/Languages: %v", err)
	}
	toolID, _, err := r.Skill("python", "Tools_Infrastructure")
	if err != nil {
		t.Fatalf("resolve python/Tools_Infrastructure: %v", err)
	}
	if langID == toolID {
		t.Error("same skill name under different categories must get distinct ids")
	}

	again, created, err := r.Skill("python", "Languages")
	if err != nil {
		t.Fatalf("re-resolve: %v", err)
	}
	if created || again != langID {
		t.Errorf("re-resolve: id=%d created=%v, want %d/false", again, created, langID)
	}
}

func TestSkillBlankInputs(t *testing.T) {
	r, cs := newTestResolver(t)

	for _, pair := range [][2]string{{"", "Languages"}, {"go", ""}, {" ", " "}} {
		id, created, err := r.Skill(pair[0], pair[1])
		if err != nil {
			t.Fatalf("Skill(%q, %q): %v", pair[0], pair[1], err)
		}
		if id != 0 || created {
			t.Errorf("Skill(%q, %q) = %d/%v, want 0/false", pair[0], pair[1], id, created)
		}
	}
	if cs.inserts != 0 {
		t.Errorf("blank skills caused %d inserts", cs.inserts)
	}
}

func TestLocationResolvedOnce(t *testing.T) {
	r, cs := newTestResolver(t)

	loc := Location{City: "Seattle", State: "WA", Country: "USA"}
	id1, created, err := r.Location(loc)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if !created || id1 == 0 {
		t.Fatalf("first resolve: id=%d created=%v", id1, created)
	}

	id2, created, err := r.Location(loc)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if created || id1 != id2 {
		t.Errorf("second resolve: id=%d created=%v, want %d/false", id2, created, id1)
	}
	if cs.inserts != 1 {
		t.Errorf("durable inserts = %d, want 1", cs.inserts)
	}
}

func TestLocationDefaultsCountry(t *testing.T) {
	r, _ := newTestResolver(t)

	id1, _, err := r.Location(Location{City: "Miami", State: "FL"})
	if err != nil {
		t.Fatalf("resolve without country: %v", err)
	}
	id2, created, err := r.Location(Location{City: "Miami", State: "FL", Country: "USA"})
	if err != nil {
		t.Fatalf("resolve with country: %v", err)
	}
	if created || id1 != id2 {
		t.Errorf("defaulted country should match explicit USA: %d vs %d", id1, id2)
	}
}

// raceStore simulates a concurrent writer: the first lookup misses, the
// insert fails on the unique constraint, and the second lookup finds the
// row the other writer created.
type raceStore struct {
	DimensionStore
	lookups int
}

func (r *raceStore) CompanyIDByKey(externalID string) (int64, error) {
	r.lookups++
	if r.lookups == 1 {
		return 0, storage.ErrNotFound
	}
	return 77, nil
}

func (r *raceStore) InsertCompany(externalID, name, shortName string) (int64, error) {
	return 0, errors.New("UNIQUE constraint failed: companies.external_id")
}

func TestCompanyInsertRaceFallsBackToLookup(t *testing.T) {
	r := New(&raceStore{})

	id, created, err := r.Company(CompanyRef{Key: "contested"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if created {
		t.Error("losing the insert race must not report created")
	}
	if id != 77 {
		t.Errorf("id = %d, want the winner's row id 77", id)
	}
}

// failStore reports a lookup failure that is not ErrNotFound; the
// resolver must propagate it rather than attempt an insert.
type failStore struct {
	DimensionStore
}

var errDisk = errors.New("disk I/O error")

func (f *failStore) CompanyIDByKey(externalID string) (int64, error) {
	return 0, errDisk
}

func TestLookupErrorPropagates(t *testing.T) {
	r := New(&failStore{})

	_, _, err := r.Company(CompanyRef{Key: "x"})
	if !errors.Is(err, errDisk) {
		t.Errorf("error = %v, want %v", err, errDisk)
	}
}

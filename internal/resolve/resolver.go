// Package resolve deduplicates the dimension entities a job batch
// references (companies, locations, skills, skill categories) into
// stable row ids via get-or-create with a write-through cache.
package resolve

import (
	"errors"
	"strings"

	"github.com/jmarket/jobsync/internal/storage"
)

// DimensionStore is the durable side of get-or-create: natural-key
// lookup plus insert, per dimension kind. The store's unique
// constraints are the source of truth; the resolver's cache is only an
// accelerator.
type DimensionStore interface {
	CompanyIDByKey(externalID string) (int64, error)
	InsertCompany(externalID, name, shortName string) (int64, error)
	LocationIDByKey(city, state, country string, isRemote bool) (int64, error)
	InsertLocation(city, state, country string, isRemote bool) (int64, error)
	SkillCategoryIDByName(name string) (int64, error)
	InsertSkillCategory(name string) (int64, error)
	SkillIDByName(name string, categoryID int64) (int64, error)
	InsertSkill(name string, categoryID int64) (int64, error)
}

// CompanyRef identifies a company as reported upstream. Key is the
// stable upstream id when the source has one; Name stands in as the
// identity key when it doesn't.
type CompanyRef struct {
	Key       string
	Name      string
	ShortName string
}

type locationKey struct {
	city, state, country string
	remote               bool
}

type skillKey struct {
	name, category string
}

// Resolver owns the per-run lookup caches. Construct one per sync run
// (or per process with a stable store); it is not safe for concurrent
// use, matching the single-writer model of the engine.
type Resolver struct {
	store DimensionStore

	companies  map[string]int64
	locations  map[locationKey]int64
	categories map[string]int64
	skills     map[skillKey]int64
}

func New(store DimensionStore) *Resolver {
	return &Resolver{
		store:      store,
		companies:  make(map[string]int64),
		locations:  make(map[locationKey]int64),
		categories: make(map[string]int64),
		skills:     make(map[skillKey]int64),
	}
}

// getOrCreate runs the cache-miss path: lookup by natural key, insert
// on miss, and on insert failure re-read once. The re-read covers the
// duplicate-insert race where another writer created the row between
// our lookup and insert; the unique constraint makes exactly one
// insert win and the loser adopts the existing id.
func getOrCreate(lookup func() (int64, error), insert func() (int64, error)) (int64, bool, error) {
	id, err := lookup()
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return 0, false, err
	}

	id, insErr := insert()
	if insErr == nil {
		return id, true, nil
	}

	id, err = lookup()
	if err == nil {
		return id, false, nil
	}
	return 0, false, insErr
}

// Company resolves a company reference to a row id, creating the row on
// first sight. A reference with neither key nor name resolves to id 0
// with no error; callers must treat that as an unresolvable company.
func (r *Resolver) Company(ref CompanyRef) (int64, bool, error) {
	key := strings.TrimSpace(ref.Key)
	name := strings.TrimSpace(ref.Name)
	if key == "" {
		key = name
	}
	if key == "" {
		return 0, false, nil
	}
	if name == "" {
		name = key
	}

	if id, ok := r.companies[key]; ok {
		return id, false, nil
	}

	id, created, err := getOrCreate(
		func() (int64, error) { return r.store.CompanyIDByKey(key) },
		func() (int64, error) { return r.store.InsertCompany(key, name, strings.TrimSpace(ref.ShortName)) },
	)
	if err != nil {
		return 0, false, err
	}
	r.companies[key] = id
	return id, created, nil
}

// SkillCategory resolves a category name to a row id, creating it on
// first sight. Blank names resolve to id 0 with no error.
func (r *Resolver) SkillCategory(name string) (int64, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false, nil
	}

	if id, ok := r.categories[name]; ok {
		return id, false, nil
	}

	id, created, err := getOrCreate(
		func() (int64, error) { return r.store.SkillCategoryIDByName(name) },
		func() (int64, error) { return r.store.InsertSkillCategory(name) },
	)
	if err != nil {
		return 0, false, err
	}
	r.categories[name] = id
	return id, created, nil
}

// Skill resolves a skill name within a category. Identity is
// category-scoped: "python" under "Languages" and "python" under
// "Tools_Infrastructure" are two distinct skills. Blank skill or
// category names resolve to id 0 with no error.
func (r *Resolver) Skill(name, category string) (int64, bool, error) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	if name == "" || category == "" {
		return 0, false, nil
	}

	key := skillKey{name: name, category: category}
	if id, ok := r.skills[key]; ok {
		return id, false, nil
	}

	categoryID, _, err := r.SkillCategory(category)
	if err != nil {
		return 0, false, err
	}

	id, created, err := getOrCreate(
		func() (int64, error) { return r.store.SkillIDByName(name, categoryID) },
		func() (int64, error) { return r.store.InsertSkill(name, categoryID) },
	)
	if err != nil {
		return 0, false, err
	}
	r.skills[key] = id
	return id, created, nil
}

// Location resolves an already-normalized location to a row id,
// creating it on first sight. Locations with a blank city resolve to
// id 0 with no error.
func (r *Resolver) Location(loc Location) (int64, bool, error) {
	if loc.City == "" {
		return 0, false, nil
	}
	if loc.Country == "" {
		loc.Country = DefaultCountry
	}

	key := locationKey{city: loc.City, state: loc.State, country: loc.Country, remote: loc.IsRemote}
	if id, ok := r.locations[key]; ok {
		return id, false, nil
	}

	id, created, err := getOrCreate(
		func() (int64, error) { return r.store.LocationIDByKey(loc.City, loc.State, loc.Country, loc.IsRemote) },
		func() (int64, error) { return r.store.InsertLocation(loc.City, loc.State, loc.Country, loc.IsRemote) },
	)
	if err != nil {
		return 0, false, err
	}
	r.locations[key] = id
	return id, created, nil
}

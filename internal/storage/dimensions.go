package storage

import (
	"database/sql"
	"fmt"
)

// Dimension rows (companies, locations, skills, skill categories) are
// created once per natural key and never updated or deleted by the sync
// engine. Lookup and insert are split so the resolver can layer its
// cache and race fallback on top.

func (s *Store) CompanyIDByKey(externalID string) (int64, error) {
	var id int64
	err := s.h.QueryRow("SELECT id FROM companies WHERE external_id = ?", externalID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return id, err
}

func (s *Store) InsertCompany(externalID, name, shortName string) (int64, error) {
	res, err := s.h.Exec(
		"INSERT INTO companies (external_id, name, short_name) VALUES (?, ?, ?)",
		externalID, name, shortName,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting company %q: %w", externalID, err)
	}
	return res.LastInsertId()
}

func (s *Store) LocationIDByKey(city, state, country string, isRemote bool) (int64, error) {
	var id int64
	err := s.h.QueryRow(
		"SELECT id FROM locations WHERE city = ? AND state = ? AND country = ? AND is_remote = ?",
		city, state, country, boolToInt(isRemote),
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return id, err
}

func (s *Store) InsertLocation(city, state, country string, isRemote bool) (int64, error) {
	res, err := s.h.Exec(
		"INSERT INTO locations (city, state, country, is_remote) VALUES (?, ?, ?, ?)",
		city, state, country, boolToInt(isRemote),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting location %q: %w", city, err)
	}
	return res.LastInsertId()
}

func (s *Store) SkillCategoryIDByName(name string) (int64, error) {
	var id int64
	err := s.h.QueryRow("SELECT id FROM skill_categories WHERE name = ?", name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return id, err
}

func (s *Store) InsertSkillCategory(name string) (int64, error) {
	res, err := s.h.Exec("INSERT INTO skill_categories (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("inserting skill category %q: %w", name, err)
	}
	return res.LastInsertId()
}

// Skills are scoped to a category: the same name under two categories
// is two distinct skills.

func (s *Store) SkillIDByName(name string, categoryID int64) (int64, error) {
	var id int64
	err := s.h.QueryRow(
		"SELECT id FROM skills WHERE name = ? AND category_id = ?",
		name, categoryID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return id, err
}

func (s *Store) InsertSkill(name string, categoryID int64) (int64, error) {
	res, err := s.h.Exec(
		"INSERT INTO skills (name, category_id) VALUES (?, ?)",
		name, categoryID,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting skill %q: %w", name, err)
	}
	return res.LastInsertId()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

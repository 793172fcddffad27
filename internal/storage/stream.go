package storage

import (
	"fmt"
	"strings"
)

// StreamTable reads every row of a table in id order and hands the raw
// column values to fn one row at a time. It exists for the replication
// path, which copies whole tables without caring about their Go shape.
// Table and column names come from the replication plan, never from
// user input.
func (s *Store) StreamTable(table string, columns []string, orderBy string, fn func(row []any) error) error {
	query := "SELECT " + strings.Join(columns, ", ") + " FROM " + table
	if orderBy != "" {
		query += " ORDER BY " + orderBy
	}

	rows, err := s.h.Query(query)
	if err != nil {
		return fmt.Errorf("streaming %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scanning %s row: %w", table, err)
		}
		if err := fn(vals); err != nil {
			return err
		}
	}
	return rows.Err()
}

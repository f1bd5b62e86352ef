package store

import (
	"context"
	"fmt"
)

var schema = map[string][]string{
	"postgres": {
		`CREATE TABLE IF NOT EXISTS location (
			id SERIAL PRIMARY KEY,
			location_name VARCHAR(255) NOT NULL,
			formatted_query VARCHAR(255),
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_location_name ON location (location_name)`,
	},
	"sqlite3": {
		`CREATE TABLE IF NOT EXISTS location (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			location_name TEXT NOT NULL,
			formatted_query TEXT,
			latitude REAL,
			longitude REAL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_location_name ON location (location_name)`,
	},
}

// Migrate creates the location table and its lookup index if absent.
// The index is not unique: concurrent misses for one query may both insert.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for i, stmt := range schema[s.dialect] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

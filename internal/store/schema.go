package store

import (
	"context"
	"fmt"
)

const schemaVersion = "1"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		image_key TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		image_path TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		sender_name TEXT NOT NULL DEFAULT '',
		sender_address TEXT NOT NULL DEFAULT '',
		sender_pincode TEXT NOT NULL DEFAULT '',
		receiver_name TEXT NOT NULL DEFAULT '',
		receiver_address TEXT NOT NULL DEFAULT '',
		receiver_pincode TEXT NOT NULL DEFAULT '',
		sorting_center TEXT NOT NULL DEFAULT '',
		raw_payload TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at)`,
	`CREATE TABLE IF NOT EXISTS session (
		slot INTEGER PRIMARY KEY CHECK (slot = 1),
		user_id TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		token TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if err := s.execWithoutResultRetry(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if err := s.SetSetting(ctx, "schema_version", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

package pgparcel

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS parcels (
  id BIGSERIAL PRIMARY KEY,
  carrier_id TEXT NOT NULL,
  carrier_name TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL,
  tracking_code TEXT NOT NULL,
  tracking_url TEXT NOT NULL DEFAULT '',
  accent_color BIGINT NOT NULL DEFAULT 0,
  delivered BOOLEAN NOT NULL DEFAULT FALSE,
  progress DOUBLE PRECISION NOT NULL DEFAULT 0,
  status_type TEXT NOT NULL DEFAULT '',
  creation_date TIMESTAMPTZ NULL,
  last_updated TIMESTAMPTZ NULL,
  origin JSONB NULL,
  destination JSONB NULL,
  last_checked_at TIMESTAMPTZ NULL,
  next_check_at TIMESTAMPTZ NOT NULL,
  check_fail_count INT NOT NULL DEFAULT 0,
  last_error TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  UNIQUE (carrier_id, tracking_code)
)`,
		`CREATE INDEX IF NOT EXISTS idx_parcels_next_check_at ON parcels(next_check_at)`,
		`
CREATE TABLE IF NOT EXISTS parcel_updates (
  id BIGSERIAL PRIMARY KEY,
  parcel_id BIGINT NOT NULL REFERENCES parcels(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  event_time TIMESTAMPTZ NOT NULL,
  location JSONB NULL,
  status_type TEXT NOT NULL,
  progress DOUBLE PRECISION NOT NULL,
  status_data JSONB NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_parcel_updates_parcel_id_event_time ON parcel_updates(parcel_id, event_time DESC)`,
		// Дедупликация событий истории при повторных проверках.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_parcel_updates_dedup ON parcel_updates(parcel_id, title, event_time, status_type)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}

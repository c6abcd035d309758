package pgparcel

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/BearBump/ParcelBox/internal/status"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// CheckUpdate — результат одной проверки посылки воркером.
// Parcel == nil означает ошибку проверки (fetch или парсинг payload).
type CheckUpdate struct {
	ParcelID uint64

	CheckedAt time.Time

	Parcel *models.Parcel

	NextCheckAt time.Time

	Error *string
}

func (s *Storage) ListParcelUpdates(ctx context.Context, parcelID uint64, limit, offset int) ([]*models.ParcelUpdate, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT
  id, parcel_id, title, description,
  event_time, location, status_type, progress, status_data, created_at
FROM parcel_updates
WHERE parcel_id = $1
ORDER BY event_time DESC
LIMIT $2 OFFSET $3
`, parcelID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select updates")
	}
	defer rows.Close()

	var out []*models.ParcelUpdate
	for rows.Next() {
		var u models.ParcelUpdate
		var statusType string
		var locJSON, dataJSON []byte
		if err := rows.Scan(
			&u.ID, &u.ParcelID, &u.Title, &u.Description,
			&u.Timestamp, &locJSON, &statusType, &u.Status.Progress, &dataJSON, &u.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan update")
		}

		u.Status.Kind = status.FromWire(statusType)
		if u.Location, err = unmarshalLocation(locJSON); err != nil {
			return nil, err
		}
		if len(dataJSON) > 0 {
			var m map[string]any
			if json.Unmarshal(dataJSON, &m) == nil {
				u.Status.Data = m
			}
		}

		out = append(out, &u)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) ApplyCheckUpdate(ctx context.Context, upd CheckUpdate) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if upd.Error != nil && *upd.Error != "" {
		_, err := tx.Exec(ctx, `
UPDATE parcels
SET
  last_checked_at = $2,
  check_fail_count = check_fail_count + 1,
  last_error = $3,
  next_check_at = $4,
  updated_at = now()
WHERE id = $1
`, upd.ParcelID, upd.CheckedAt.UTC(), *upd.Error, upd.NextCheckAt.UTC())
		if err != nil {
			return errors.Wrap(err, "update parcel (error)")
		}
	} else if upd.Parcel != nil {
		p := upd.Parcel

		var originJSON, destinationJSON []byte
		if p.Origin != nil {
			originJSON, _ = json.Marshal(p.Origin)
		}
		if p.Destination != nil {
			destinationJSON, _ = json.Marshal(p.Destination)
		}

		_, err := tx.Exec(ctx, `
UPDATE parcels
SET
  carrier_name = $3,
  tracking_url = $4,
  accent_color = $5,
  delivered = $6,
  progress = $7,
  status_type = $8,
  creation_date = $9,
  last_updated = $10,
  origin = $11,
  destination = $12,
  last_checked_at = $2,
  check_fail_count = 0,
  last_error = NULL,
  next_check_at = $13,
  updated_at = now()
WHERE id = $1
`, upd.ParcelID, upd.CheckedAt.UTC(),
			p.Carrier.Name, p.TrackingURL, int64(p.AccentColor), p.Delivered,
			p.Progress, p.StatusType, p.CreationDate, p.LastUpdated,
			originJSON, destinationJSON, upd.NextCheckAt.UTC())
		if err != nil {
			return errors.Wrap(err, "update parcel (ok)")
		}

		for _, u := range p.History {
			var locJSON []byte
			if u.Location != nil {
				locJSON, _ = json.Marshal(u.Location)
			}
			var dataJSON []byte
			if len(u.Status.Data) > 0 {
				dataJSON, _ = json.Marshal(u.Status.Data)
			}

			_, err := tx.Exec(ctx, `
INSERT INTO parcel_updates (
  parcel_id, title, description, event_time, location, status_type, progress, status_data, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now())
ON CONFLICT (parcel_id, title, event_time, status_type) DO NOTHING
`, upd.ParcelID, u.Title, u.Description, u.Timestamp.UTC(),
				locJSON, u.Status.Kind.WireType(), u.Status.Progress, dataJSON)
			if err != nil {
				return errors.Wrap(err, "insert parcel update")
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

package pgparcel

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const parcelColumns = `
  id, carrier_id, carrier_name, name,
  tracking_code, tracking_url, accent_color, delivered,
  progress, status_type,
  creation_date, last_updated, origin, destination,
  last_checked_at, next_check_at, check_fail_count, last_error,
  created_at, updated_at`

func (s *Storage) CreateOrGetParcels(ctx context.Context, items []models.ParcelCreateInput) ([]*models.Parcel, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		var id uint64
		err := tx.QueryRow(ctx, `
INSERT INTO parcels (
  carrier_id, name, tracking_code, next_check_at, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$5)
ON CONFLICT (carrier_id, tracking_code)
DO UPDATE SET updated_at = parcels.updated_at
RETURNING id
`, it.CarrierID, it.Name, it.TrackingCode, now, now).Scan(&id)
		if err != nil {
			return nil, errors.Wrap(err, "insert parcel")
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}

	return s.GetParcelsByIDs(ctx, ids)
}

func (s *Storage) GetParcelsByIDs(ctx context.Context, ids []uint64) ([]*models.Parcel, error) {
	if len(ids) == 0 {
		return []*models.Parcel{}, nil
	}

	rows, err := s.db.Query(ctx, `SELECT `+parcelColumns+` FROM parcels WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "select parcels")
	}
	defer rows.Close()

	out := make([]*models.Parcel, 0, len(ids))
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) RefreshParcel(ctx context.Context, parcelID uint64) error {
	_, err := s.db.Exec(ctx, `UPDATE parcels SET next_check_at = now(), updated_at = now() WHERE id = $1`, parcelID)
	return errors.Wrap(err, "refresh parcel")
}

// ClaimDueParcels выбирает пачку посылок, готовых к проверке, и "бронирует"
// их двиганием next_check_at на lease вперёд, чтобы они не попадали в
// повторную выборку, пока воркер их обрабатывает.
// Использует SELECT ... FOR UPDATE SKIP LOCKED.
func (s *Storage) ClaimDueParcels(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Parcel, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
SELECT `+parcelColumns+`
FROM parcels
WHERE next_check_at <= $1
  AND delivered = FALSE
ORDER BY next_check_at ASC
LIMIT $2
FOR UPDATE SKIP LOCKED
`, now.UTC(), limit)
	if err != nil {
		return nil, errors.Wrap(err, "select due parcels")
	}
	defer rows.Close()

	var picked []*models.Parcel
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, err
		}
		picked = append(picked, p)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	rows.Close()

	leaseUntil := now.UTC().Add(lease)
	for _, p := range picked {
		_, err := tx.Exec(ctx, `UPDATE parcels SET next_check_at = $2, updated_at = now() WHERE id = $1`, p.ID, leaseUntil)
		if err != nil {
			return nil, errors.Wrap(err, "lease parcel")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return picked, nil
}

func scanParcel(rows pgx.Rows) (*models.Parcel, error) {
	var p models.Parcel
	var accentColor int64
	var originJSON, destinationJSON []byte
	if err := rows.Scan(
		&p.ID, &p.Carrier.ID, &p.Carrier.Name, &p.Name,
		&p.TrackingCode, &p.TrackingURL, &accentColor, &p.Delivered,
		&p.Progress, &p.StatusType,
		&p.CreationDate, &p.LastUpdated, &originJSON, &destinationJSON,
		&p.LastCheckedAt, &p.NextCheckAt, &p.CheckFailCount, &p.LastError,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "scan parcel")
	}
	p.AccentColor = uint32(accentColor)

	var err error
	if p.Origin, err = unmarshalLocation(originJSON); err != nil {
		return nil, err
	}
	if p.Destination, err = unmarshalLocation(destinationJSON); err != nil {
		return nil, err
	}
	return &p, nil
}

func unmarshalLocation(b []byte) (*models.Location, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var loc models.Location
	if err := json.Unmarshal(b, &loc); err != nil {
		return nil, errors.Wrap(err, "unmarshal location")
	}
	if loc.IsZero() {
		return nil, nil
	}
	return &loc, nil
}

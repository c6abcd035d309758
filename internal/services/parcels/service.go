package parcels

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BearBump/ParcelBox/internal/broker/messages"
	"github.com/BearBump/ParcelBox/internal/cache"
	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/BearBump/ParcelBox/internal/parcel"
	"github.com/BearBump/ParcelBox/internal/storage/pgparcel"
	"github.com/pkg/errors"
)

type Repository interface {
	CreateOrGetParcels(ctx context.Context, items []models.ParcelCreateInput) ([]*models.Parcel, error)
	GetParcelsByIDs(ctx context.Context, ids []uint64) ([]*models.Parcel, error)
	ListParcelUpdates(ctx context.Context, parcelID uint64, limit, offset int) ([]*models.ParcelUpdate, error)
	RefreshParcel(ctx context.Context, parcelID uint64) error
	ApplyCheckUpdate(ctx context.Context, upd pgparcel.CheckUpdate) error
}

type Service struct {
	repo       Repository
	cache      cache.BytesCache
	currentTTL time.Duration
}

func New(repo Repository, c cache.BytesCache, currentTTL time.Duration) *Service {
	return &Service{repo: repo, cache: c, currentTTL: currentTTL}
}

func (s *Service) CreateParcels(ctx context.Context, items []models.ParcelCreateInput) ([]*models.Parcel, error) {
	if len(items) == 0 {
		return nil, errors.New("items is empty")
	}
	if len(items) > 10_000 {
		return nil, errors.New("too many items (max 10000)")
	}

	clean := make([]models.ParcelCreateInput, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.CarrierID == "" {
			return nil, errors.New("carrierId is required")
		}
		if it.TrackingCode == "" {
			return nil, errors.New("trackingCode is required")
		}
		if it.Name == "" {
			return nil, errors.New("name is required")
		}
		k := fmt.Sprintf("%s|%s", it.CarrierID, it.TrackingCode)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		clean = append(clean, it)
	}

	return s.repo.CreateOrGetParcels(ctx, clean)
}

func (s *Service) GetParcelsByIDs(ctx context.Context, ids []uint64) ([]*models.Parcel, error) {
	if len(ids) == 0 {
		return []*models.Parcel{}, nil
	}
	// Кэшируем "текущее состояние" целиком как JSON посылки.
	// Кэш best-effort: промах или ошибка просто отправляет нас в БД.
	miss := make([]uint64, 0, len(ids))
	got := make(map[uint64]*models.Parcel, len(ids))

	if s.cache != nil && s.currentTTL > 0 {
		for _, id := range ids {
			key := currentKey(id)
			b, ok, err := s.cache.Get(ctx, key)
			if err != nil || !ok {
				miss = append(miss, id)
				continue
			}
			var p models.Parcel
			if json.Unmarshal(b, &p) != nil {
				miss = append(miss, id)
				continue
			}
			got[id] = &p
		}
	} else {
		miss = ids
	}

	var fromDB []*models.Parcel
	var err error
	if len(miss) > 0 {
		fromDB, err = s.repo.GetParcelsByIDs(ctx, miss)
		if err != nil {
			return nil, err
		}
		if s.cache != nil && s.currentTTL > 0 {
			for _, p := range fromDB {
				b, _ := json.Marshal(p)
				_ = s.cache.Set(ctx, currentKey(p.ID), b, s.currentTTL)
			}
		}
		for _, p := range fromDB {
			got[p.ID] = p
		}
	}

	// Собираем ответ в том же порядке, что ids.
	out := make([]*models.Parcel, 0, len(ids))
	for _, id := range ids {
		if p, ok := got[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) ListParcelUpdates(ctx context.Context, parcelID uint64, limit, offset int) ([]*models.ParcelUpdate, error) {
	return s.repo.ListParcelUpdates(ctx, parcelID, limit, offset)
}

// GetParcelRoute возвращает короткие метки origin/destination для посылки.
func (s *Service) GetParcelRoute(ctx context.Context, parcelID uint64) (string, string, error) {
	ps, err := s.GetParcelsByIDs(ctx, []uint64{parcelID})
	if err != nil {
		return "", "", err
	}
	if len(ps) == 0 {
		return "", "", errors.New("parcel not found")
	}
	origin, destination := parcel.ResolveRoute(ps[0].Origin, ps[0].Destination)
	return origin, destination, nil
}

func (s *Service) RefreshParcel(ctx context.Context, parcelID uint64) error {
	if parcelID == 0 {
		return errors.New("parcelId is required")
	}
	return s.repo.RefreshParcel(ctx, parcelID)
}

func (s *Service) ApplyKafkaUpdate(ctx context.Context, msg messages.ParcelUpdated) error {
	if msg.ParcelID == 0 {
		return errors.New("parcelId is required")
	}
	if msg.CheckedAt.IsZero() {
		msg.CheckedAt = time.Now().UTC()
	}
	if msg.NextCheckAt.IsZero() {
		// fallback: если воркер не прислал nextCheckAt, ставим "через час"
		msg.NextCheckAt = msg.CheckedAt.Add(60 * time.Minute)
	}

	err := s.repo.ApplyCheckUpdate(ctx, pgparcel.CheckUpdate{
		ParcelID:    msg.ParcelID,
		CheckedAt:   msg.CheckedAt,
		Parcel:      msg.Parcel,
		NextCheckAt: msg.NextCheckAt,
		Error:       msg.Error,
	})
	if err != nil {
		return err
	}

	// Обновляем кэш текущего состояния: перечитываем одну запись из БД,
	// при неудаче — инвалидируем, чтобы не отдавать устаревшее.
	if s.cache != nil && s.currentTTL > 0 {
		ps, err := s.repo.GetParcelsByIDs(ctx, []uint64{msg.ParcelID})
		if err == nil && len(ps) == 1 {
			b, _ := json.Marshal(ps[0])
			_ = s.cache.Set(ctx, currentKey(msg.ParcelID), b, s.currentTTL)
		} else {
			_ = s.cache.Del(ctx, currentKey(msg.ParcelID))
		}
	}

	return nil
}

func currentKey(id uint64) string {
	return fmt.Sprintf("parcel:%d:current", id)
}

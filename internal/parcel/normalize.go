package parcel

import (
	"time"

	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/BearBump/ParcelBox/internal/status"
)

// seedProgress — стартовое значение "переносимого" прогресса до обработки
// самого свежего события.
const seedProgress = 0.70

// carryThreshold: выше этого значения (почти доставленные статусы) переход в
// транзитный разрыв прогресс не уменьшает.
const carryThreshold = 0.80

// HistoryRecord — одно сырое событие истории после декодирования, до
// нормализации. Status == nil означает, что перевозчик статус не прислал
// (типичный транзитный "шум" между вехами).
type HistoryRecord struct {
	Title       string
	Description string
	Timestamp   time.Time
	Location    *models.Location
	Status      *StatusRecord
}

// StatusRecord — явный статус из payload.
type StatusRecord struct {
	Type string
	Data map[string]any
}

// NormalizeHistory converts a newest-first raw history into updates where
// every entry carries a status and a progress value.
//
// Records without an explicit status are synthesized as InTransit with a
// carried-forward progress value. The carry decision for record i looks at the
// record emitted at i-1, not at the current one: an InTransit entry carries
// its progress unchanged, any other status at or below the carry threshold
// opens a new transit gap and drops the carried value by 0.10, and a
// near-delivery status above the threshold leaves it untouched. The carried
// value never falls below the InTransit default.
//
// An empty history is tolerated by emitting a single placeholder update with
// an empty title stamped at now.
func NormalizeHistory(recs []HistoryRecord, now time.Time) []models.ParcelUpdate {
	if len(recs) == 0 {
		return []models.ParcelUpdate{{
			Title:     "",
			Timestamp: now,
			Status:    status.NewInstance(status.InTransit),
		}}
	}

	out := make([]models.ParcelUpdate, 0, len(recs))
	last := seedProgress

	for i, rec := range recs {
		if i > 0 {
			prev := out[i-1].Status
			if prev.Kind == status.InTransit {
				last = prev.Progress
			} else if prev.Progress <= carryThreshold {
				last = prev.Progress - 0.10
			}
			if last < status.InTransit.DefaultProgress() {
				last = status.InTransit.DefaultProgress()
			}
		}

		st := status.InTransit.WithProgress(last)
		if rec.Status != nil {
			k := status.FromWire(rec.Status.Type)
			st = status.NewInstance(k)
			st.Data = rec.Status.Data
		}

		out = append(out, models.ParcelUpdate{
			Title:       rec.Title,
			Description: rec.Description,
			Timestamp:   rec.Timestamp,
			Location:    rec.Location,
			Status:      st,
		})
	}

	return out
}

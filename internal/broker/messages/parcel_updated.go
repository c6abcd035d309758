package messages

import (
	"time"

	"github.com/BearBump/ParcelBox/internal/models"
)

// ParcelUpdated — сообщение воркера о результате проверки посылки.
// При успехе несёт полностью нормализованный снапшот (история newest-first,
// у каждого события есть статус и прогресс). При ошибке снапшота нет, только
// текст ошибки и время следующей попытки.
type ParcelUpdated struct {
	ParcelID  uint64    `json:"parcelId"`
	CheckedAt time.Time `json:"checkedAt"`

	NextCheckAt time.Time `json:"nextCheckAt"`

	Parcel *models.Parcel `json:"parcel,omitempty"`

	Error *string `json:"error,omitempty"`
}

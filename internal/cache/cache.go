package cache

import (
	"context"
	"time"
)

// BytesCache — кэш "текущего состояния" посылки. Best-effort: промах или
// ошибка кэша никогда не фатальны для чтения.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

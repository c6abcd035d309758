package carrier

import "context"

// Client возвращает сырой JSON payload посылки от перевозчика (или
// carrier-proxy сервера). Декодирование и нормализация — ответственность
// вызывающего.
type Client interface {
	GetParcel(ctx context.Context, carrierID, trackingCode string) ([]byte, error)
}

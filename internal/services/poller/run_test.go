package poller

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeClaimRepo struct {
	calls int
}

func (r *fakeClaimRepo) ClaimDueParcels(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Parcel, error) {
	r.calls++
	return []*models.Parcel{}, nil
}

type noopProducer struct{}

func (p noopProducer) Publish(ctx context.Context, topic string, key, value []byte) error { return nil }

type noopCarrier struct{}

func (c noopCarrier) GetParcel(ctx context.Context, carrierID, trackingCode string) ([]byte, error) {
	return nil, nil
}

func TestPoller_Run_StopsOnContextCancel(t *testing.T) {
	repo := &fakeClaimRepo{}
	p := New(repo, noopCarrier{}, noopProducer{}, nil, "t").WithSettings(5*time.Millisecond, 1, 1, 1*time.Second, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := p.Run(ctx)
	require.Error(t, err)
	require.GreaterOrEqual(t, repo.calls, 1)
}

func TestPoller_Trigger_NonBlocking(t *testing.T) {
	p := New(&fakeClaimRepo{}, noopCarrier{}, noopProducer{}, nil, "t")
	// канал триггера буферизован на один элемент, повторные вызовы не блокируют
	p.Trigger()
	p.Trigger()
	p.Trigger()

	st := p.Stats()
	require.NotNil(t, st.LastTriggerAt)
	require.Zero(t, st.TotalClaimed)
}

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/ParcelBox/internal/broker/messages"
	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/BearBump/ParcelBox/internal/services/parcels"
	"github.com/BearBump/ParcelBox/internal/storage/pgparcel"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	applied []pgparcel.CheckUpdate
}

func (r *fakeRepo) appliedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.applied)
}

func (r *fakeRepo) CreateOrGetParcels(ctx context.Context, items []models.ParcelCreateInput) ([]*models.Parcel, error) {
	return []*models.Parcel{}, nil
}
func (r *fakeRepo) GetParcelsByIDs(ctx context.Context, ids []uint64) ([]*models.Parcel, error) {
	return []*models.Parcel{}, nil
}
func (r *fakeRepo) ListParcelUpdates(ctx context.Context, parcelID uint64, limit, offset int) ([]*models.ParcelUpdate, error) {
	return []*models.ParcelUpdate{}, nil
}
func (r *fakeRepo) RefreshParcel(ctx context.Context, parcelID uint64) error { return nil }
func (r *fakeRepo) ApplyCheckUpdate(ctx context.Context, upd pgparcel.CheckUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, upd)
	return nil
}

type fakeConsumer struct {
	msgs [][]byte
}

func (c fakeConsumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	for _, m := range c.msgs {
		if err := handler(nil, m); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunParcelAPI_SwaggerServed(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	svc := parcels.New(&fakeRepo{}, nil, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := parcelAPIOpts{
		httpAddr:      "127.0.0.1:0",
		swaggerPath:   sw,
		topic:         "t",
		consumerGroup: "g",
		onListen:      func(httpAddr string) { addrCh <- httpAddr },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- runParcelAPI(ctx, opts, svc, fakeConsumer{})
	}()

	httpAddr := <-addrCh

	resp, err := http.Get("http://" + httpAddr + "/swagger.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	require.Contains(t, string(body), "\"swagger\"")

	cancel()
	require.Error(t, <-errCh)
}

func TestRunParcelAPI_EndpointsAndConsumer(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	repo := &fakeRepo{}
	svc := parcels.New(repo, nil, 0)

	msg, _ := json.Marshal(messages.ParcelUpdated{ParcelID: 5, CheckedAt: time.Now().UTC(), NextCheckAt: time.Now().UTC().Add(time.Hour)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := parcelAPIOpts{
		httpAddr:      "127.0.0.1:0",
		swaggerPath:   sw,
		topic:         "t",
		consumerGroup: "g",
		onListen:      func(httpAddr string) { addrCh <- httpAddr },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- runParcelAPI(ctx, opts, svc, fakeConsumer{msgs: [][]byte{msg}})
	}()

	httpAddr := <-addrCh

	resp, err := http.Get("http://" + httpAddr + "/healthz")
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Post("http://"+httpAddr+"/v1/parcels", "application/json",
		strings.NewReader(`{"items":[{"carrierId":"dhl","trackingCode":"A1","name":"Camera"}]}`))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	resp.Body.Close()

	require.Eventually(t, func() bool { return repo.appliedCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, uint64(5), repo.applied[0].ParcelID)

	cancel()
	require.Error(t, <-errCh)
}

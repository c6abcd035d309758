package parcels

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/BearBump/ParcelBox/internal/broker/messages"
	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/BearBump/ParcelBox/internal/status"
	"github.com/BearBump/ParcelBox/internal/storage/pgparcel"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	createIn  []models.ParcelCreateInput
	createOut []*models.Parcel
	createErr error

	refreshID  uint64
	refreshErr error

	getIn  [][]uint64
	getOut []*models.Parcel
	getErr error

	listID  uint64
	listOut []*models.ParcelUpdate

	applyUpd pgparcel.CheckUpdate
	applyErr error
}

func (f *fakeRepo) CreateOrGetParcels(ctx context.Context, items []models.ParcelCreateInput) ([]*models.Parcel, error) {
	f.createIn = items
	return f.createOut, f.createErr
}
func (f *fakeRepo) GetParcelsByIDs(ctx context.Context, ids []uint64) ([]*models.Parcel, error) {
	f.getIn = append(f.getIn, ids)
	return f.getOut, f.getErr
}
func (f *fakeRepo) ListParcelUpdates(ctx context.Context, parcelID uint64, limit, offset int) ([]*models.ParcelUpdate, error) {
	f.listID = parcelID
	return f.listOut, nil
}
func (f *fakeRepo) RefreshParcel(ctx context.Context, parcelID uint64) error {
	f.refreshID = parcelID
	return f.refreshErr
}
func (f *fakeRepo) ApplyCheckUpdate(ctx context.Context, upd pgparcel.CheckUpdate) error {
	f.applyUpd = upd
	return f.applyErr
}

type fakeCache struct {
	m       map[string][]byte
	deleted []string
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok := c.m[key]
	return b, ok, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.m[key] = value
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.m, key)
	c.deleted = append(c.deleted, key)
	return nil
}

func TestService_CreateParcels_validate(t *testing.T) {
	s := New(&fakeRepo{}, nil, 0)
	_, err := s.CreateParcels(context.Background(), nil)
	require.Error(t, err)

	_, err = s.CreateParcels(context.Background(), []models.ParcelCreateInput{{CarrierID: "", TrackingCode: "X", Name: "N"}})
	require.Error(t, err)

	_, err = s.CreateParcels(context.Background(), []models.ParcelCreateInput{{CarrierID: "dhl", TrackingCode: "", Name: "N"}})
	require.Error(t, err)

	_, err = s.CreateParcels(context.Background(), []models.ParcelCreateInput{{CarrierID: "dhl", TrackingCode: "X", Name: ""}})
	require.Error(t, err)
}

func TestService_CreateParcels_dedup(t *testing.T) {
	r := &fakeRepo{createOut: []*models.Parcel{{ID: 1}}}
	s := New(r, nil, 0)

	_, err := s.CreateParcels(context.Background(), []models.ParcelCreateInput{
		{CarrierID: "dhl", TrackingCode: "A", Name: "Camera"},
		{CarrierID: "dhl", TrackingCode: "A", Name: "Camera"},
		{CarrierID: "dhl", TrackingCode: "B", Name: "Lens"},
	})
	require.NoError(t, err)
	require.Len(t, r.createIn, 2)
}

func TestService_RefreshParcel_validate(t *testing.T) {
	r := &fakeRepo{}
	s := New(r, nil, 0)
	require.Error(t, s.RefreshParcel(context.Background(), 0))

	require.NoError(t, s.RefreshParcel(context.Background(), 10))
	require.Equal(t, uint64(10), r.refreshID)
}

func TestService_GetParcelsByIDs_cacheHit(t *testing.T) {
	r := &fakeRepo{}
	c := &fakeCache{m: map[string][]byte{}}
	s := New(r, c, 10*time.Minute)

	want := &models.Parcel{ID: 7, Name: "Camera", TrackingCode: "N", StatusType: "in-transit", Progress: 0.35}
	b, _ := json.Marshal(want)
	c.m["parcel:7:current"] = b

	out, err := s.GetParcelsByIDs(context.Background(), []uint64{7})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, uint64(7), out[0].ID)
	require.InDelta(t, 0.35, out[0].Progress, 1e-9)
	require.Empty(t, r.getIn) // БД не трогали
}

func TestService_GetParcelsByIDs_missPrimesCache(t *testing.T) {
	r := &fakeRepo{getOut: []*models.Parcel{{ID: 7, Name: "Camera"}}}
	c := &fakeCache{m: map[string][]byte{}}
	s := New(r, c, 10*time.Minute)

	out, err := s.GetParcelsByIDs(context.Background(), []uint64{7})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Contains(t, c.m, "parcel:7:current")
}

func TestService_GetParcelRoute(t *testing.T) {
	r := &fakeRepo{getOut: []*models.Parcel{{
		ID:          7,
		Origin:      &models.Location{Country: "Germany"},
		Destination: &models.Location{City: "Lisbon", Country: "Portugal"},
	}}}
	s := New(r, nil, 0)

	origin, destination, err := s.GetParcelRoute(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "Germany", origin)
	require.Equal(t, "Lisbon", destination)

	r.getOut = nil
	_, _, err = s.GetParcelRoute(context.Background(), 8)
	require.Error(t, err)
}

func TestService_ApplyKafkaUpdate_buildsUpdate(t *testing.T) {
	now := time.Now().UTC()
	snapshot := &models.Parcel{
		ID:         1,
		StatusType: status.Delivering.WireType(),
		Progress:   0.90,
		History: []models.ParcelUpdate{
			{Title: "Out for delivery", Timestamp: now, Status: status.NewInstance(status.Delivering)},
		},
	}
	r := &fakeRepo{getOut: []*models.Parcel{snapshot}}
	s := New(r, nil, 0)

	msg := messages.ParcelUpdated{
		ParcelID:    1,
		CheckedAt:   now,
		NextCheckAt: now.Add(10 * time.Minute),
		Parcel:      snapshot,
	}
	require.NoError(t, s.ApplyKafkaUpdate(context.Background(), msg))
	require.Equal(t, uint64(1), r.applyUpd.ParcelID)
	require.Equal(t, now, r.applyUpd.CheckedAt)
	require.NotNil(t, r.applyUpd.Parcel)
	require.Len(t, r.applyUpd.Parcel.History, 1)
}

func TestService_ApplyKafkaUpdate_defaultsNextCheck(t *testing.T) {
	r := &fakeRepo{}
	s := New(r, nil, 0)

	require.NoError(t, s.ApplyKafkaUpdate(context.Background(), messages.ParcelUpdated{ParcelID: 1}))
	require.False(t, r.applyUpd.CheckedAt.IsZero())
	require.Equal(t, r.applyUpd.CheckedAt.Add(60*time.Minute), r.applyUpd.NextCheckAt)

	require.Error(t, s.ApplyKafkaUpdate(context.Background(), messages.ParcelUpdated{}))
}

func TestService_ApplyKafkaUpdate_reprimeFailureInvalidates(t *testing.T) {
	r := &fakeRepo{getErr: errors.New("db down")}
	c := &fakeCache{m: map[string][]byte{"parcel:1:current": []byte(`{}`)}}
	s := New(r, c, 10*time.Minute)

	require.NoError(t, s.ApplyKafkaUpdate(context.Background(), messages.ParcelUpdated{ParcelID: 1}))
	require.NotContains(t, c.m, "parcel:1:current")
	require.Equal(t, []string{"parcel:1:current"}, c.deleted)
}

package region

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placepulse/fencewatch/internal/geo"
	"github.com/placepulse/fencewatch/internal/model"
	"github.com/placepulse/fencewatch/internal/store"
)

// memRegionStore is an in-memory RegionStore that counts saves.
type memRegionStore struct {
	mu        sync.Mutex
	records   []store.RegionRecord
	saveCalls int
	saveErr   error
	loadErr   error
}

func (m *memRegionStore) LoadRegions(context.Context) ([]store.RegionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]store.RegionRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memRegionStore) SaveRegions(_ context.Context, records []store.RegionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records = make([]store.RegionRecord, len(records))
	copy(m.records, records)
	return nil
}

func (m *memRegionStore) saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}

var (
	jakarta = model.Coordinate{Latitude: -6.2088, Longitude: 106.8456}
	faraway = model.Coordinate{Latitude: -7.0, Longitude: 107.0}
)

func TestRegistry_AddAndList(t *testing.T) {
	st := &memRegionStore{}
	r := NewRegistry(st)
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, "office", jakarta, 50))

	fences := r.List()
	require.Len(t, fences, 1)
	assert.Equal(t, "office", fences[0].ID)
	assert.False(t, fences[0].Inside)
	assert.Equal(t, 1, st.saves())
}

func TestRegistry_AddDuplicate(t *testing.T) {
	r := NewRegistry(&memRegionStore{})
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, "office", jakarta, 50))
	err := r.Add(ctx, "office", jakarta, 80)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDuplicateRegion))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_AddInvalidRadius(t *testing.T) {
	r := NewRegistry(&memRegionStore{})

	err := r.Add(context.Background(), "office", jakarta, 0)
	assert.True(t, eris.Is(err, ErrInvalidRadius))

	err = r.Add(context.Background(), "office", jakarta, -5)
	assert.True(t, eris.Is(err, ErrInvalidRadius))
}

func TestRegistry_RemoveUnknownIsNoop(t *testing.T) {
	st := &memRegionStore{}
	r := NewRegistry(st)

	require.NoError(t, r.Remove(context.Background(), "nonexistent"))
	assert.Equal(t, 0, st.saves())
}

func TestRegistry_ListReturnsCopies(t *testing.T) {
	r := NewRegistry(&memRegionStore{})
	ctx := context.Background()
	require.NoError(t, r.Add(ctx, "office", jakarta, 50))

	fences := r.List()
	fences[0].Inside = true
	fences[0].Radius = 1

	again := r.List()
	assert.False(t, again[0].Inside)
	assert.Equal(t, float64(50), again[0].Radius)
}

func TestRegistry_EvaluateEnterThenExit(t *testing.T) {
	st := &memRegionStore{}
	r := NewRegistry(st)
	ctx := context.Background()
	require.NoError(t, r.Add(ctx, "office", jakarta, 50))

	transitions := r.Evaluate(ctx, jakarta)
	require.Len(t, transitions, 1)
	assert.Equal(t, model.ActionEnter, transitions[0].Action)
	assert.Equal(t, "office", transitions[0].Region.ID)
	assert.True(t, transitions[0].Region.Inside)

	transitions = r.Evaluate(ctx, faraway)
	require.Len(t, transitions, 1)
	assert.Equal(t, model.ActionExit, transitions[0].Action)
}

func TestRegistry_EvaluateIdempotent(t *testing.T) {
	r := NewRegistry(&memRegionStore{})
	ctx := context.Background()
	require.NoError(t, r.Add(ctx, "office", jakarta, 50))

	first := r.Evaluate(ctx, jakarta)
	require.Len(t, first, 1)

	// Same position again: already inside, no transition.
	second := r.Evaluate(ctx, jakarta)
	assert.Empty(t, second)
}

func TestRegistry_BoundaryCountsAsInside(t *testing.T) {
	r := NewRegistry(&memRegionStore{})
	ctx := context.Background()

	pos := model.Coordinate{Latitude: -6.2100, Longitude: 106.8456}
	radius := geo.DistanceMeters(jakarta, pos)
	require.NoError(t, r.Add(ctx, "edge", jakarta, radius))

	transitions := r.Evaluate(ctx, pos)
	require.Len(t, transitions, 1)
	assert.Equal(t, model.ActionEnter, transitions[0].Action)
}

func TestRegistry_EvaluatePersistsOncePerCall(t *testing.T) {
	st := &memRegionStore{}
	r := NewRegistry(st)
	ctx := context.Background()
	require.NoError(t, r.Add(ctx, "a", jakarta, 50))
	require.NoError(t, r.Add(ctx, "b", jakarta, 500))
	savesBefore := st.saves()

	// Both regions transition in one call; one batched save.
	transitions := r.Evaluate(ctx, jakarta)
	require.Len(t, transitions, 2)
	assert.Equal(t, savesBefore+1, st.saves())

	// Unchanged evaluation saves nothing.
	r.Evaluate(ctx, jakarta)
	assert.Equal(t, savesBefore+1, st.saves())
}

func TestRegistry_PersistFailureKeepsMemoryState(t *testing.T) {
	st := &memRegionStore{saveErr: eris.New("disk full")}
	r := NewRegistry(st)
	ctx := context.Background()

	require.NoError(t, r.Add(ctx, "office", jakarta, 50))
	assert.Equal(t, 1, r.Len())

	transitions := r.Evaluate(ctx, jakarta)
	require.Len(t, transitions, 1)
	assert.True(t, r.List()[0].Inside)
}

func TestRegistry_LoadRestoresStateAndOrder(t *testing.T) {
	st := &memRegionStore{records: []store.RegionRecord{
		{ID: "office", Latitude: jakarta.Latitude, Longitude: jakarta.Longitude, Radius: 50, Inside: true},
		{ID: "gym", Latitude: faraway.Latitude, Longitude: faraway.Longitude, Radius: 80},
	}}
	r := NewRegistry(st)

	require.NoError(t, r.Load(context.Background()))

	fences := r.List()
	require.Len(t, fences, 2)
	assert.Equal(t, "office", fences[0].ID)
	assert.True(t, fences[0].Inside)
	assert.Equal(t, "gym", fences[1].ID)
	assert.False(t, fences[1].Inside)
}

func TestRegistry_LoadSkipsDuplicateIDs(t *testing.T) {
	st := &memRegionStore{records: []store.RegionRecord{
		{ID: "office", Latitude: jakarta.Latitude, Longitude: jakarta.Longitude, Radius: 50},
		{ID: "office", Latitude: faraway.Latitude, Longitude: faraway.Longitude, Radius: 80},
	}}
	r := NewRegistry(st)

	require.NoError(t, r.Load(context.Background()))
	assert.Equal(t, 1, r.Len())
}

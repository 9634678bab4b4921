// Package region owns the set of monitored geofence regions and the
// transition detection over it.
package region

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/placepulse/fencewatch/internal/geo"
	"github.com/placepulse/fencewatch/internal/model"
	"github.com/placepulse/fencewatch/internal/store"
)

var (
	// ErrDuplicateRegion is returned by Add for an already-registered id.
	ErrDuplicateRegion = eris.New("region: duplicate identifier")

	// ErrInvalidRadius is returned by Add for a non-positive radius.
	ErrInvalidRadius = eris.New("region: radius must be positive")
)

// Transition is one detected containment change for a region.
type Transition struct {
	Region model.Region
	Action model.Action
}

// Registry holds the monitored regions. Region state is owned exclusively
// by the registry; callers only ever see copies and refer to regions by id.
type Registry struct {
	mu      sync.Mutex
	store   store.RegionStore
	regions []*model.Region
	index   map[string]*model.Region
	log     *zap.Logger
}

// NewRegistry creates an empty registry backed by the given store.
func NewRegistry(st store.RegionStore) *Registry {
	return &Registry{
		store: st,
		index: make(map[string]*model.Region),
		log:   zap.L().With(zap.String("component", "region.registry")),
	}
}

// Load replaces the in-memory set with the persisted one. Malformed
// persisted records have already been skipped by the store.
func (r *Registry) Load(ctx context.Context) error {
	records, err := r.store.LoadRegions(ctx)
	if err != nil {
		return eris.Wrap(err, "region: load")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.regions = r.regions[:0]
	r.index = make(map[string]*model.Region, len(records))
	for _, rec := range records {
		if _, ok := r.index[rec.ID]; ok {
			r.log.Warn("skipping duplicate persisted region", zap.String("id", rec.ID))
			continue
		}
		reg := &model.Region{
			ID:     rec.ID,
			Center: model.Coordinate{Latitude: rec.Latitude, Longitude: rec.Longitude},
			Radius: rec.Radius,
			Inside: rec.Inside,
		}
		r.regions = append(r.regions, reg)
		r.index[reg.ID] = reg
	}

	r.log.Info("regions loaded", zap.Int("count", len(r.regions)))
	return nil
}

// Add registers a new region with Inside=false and persists the full set.
func (r *Registry) Add(ctx context.Context, id string, center model.Coordinate, radius float64) error {
	if radius <= 0 {
		return ErrInvalidRadius
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[id]; ok {
		return eris.Wrapf(ErrDuplicateRegion, "%s", id)
	}

	reg := &model.Region{ID: id, Center: center, Radius: radius}
	r.regions = append(r.regions, reg)
	r.index[id] = reg

	if err := r.store.SaveRegions(ctx, r.recordsLocked()); err != nil {
		// The in-memory region stands; it is re-persisted on the next save.
		r.log.Error("region set not persisted", zap.Error(err))
	}
	return nil
}

// Remove deletes the region if present and persists the full set.
// Removing an unknown id is a no-op.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[id]; !ok {
		return nil
	}
	delete(r.index, id)
	for i, reg := range r.regions {
		if reg.ID == id {
			r.regions = append(r.regions[:i], r.regions[i+1:]...)
			break
		}
	}

	if err := r.store.SaveRegions(ctx, r.recordsLocked()); err != nil {
		r.log.Error("region set not persisted", zap.Error(err))
	}
	return nil
}

// List returns a snapshot copy of all regions in registration order.
func (r *Registry) List() []model.Region {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Region, len(r.regions))
	for i, reg := range r.regions {
		out[i] = *reg
	}
	return out
}

// Len returns the number of registered regions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.regions)
}

// Evaluate compares the position against every region and returns the
// ordered transitions. Containment uses a closed boundary: a position
// exactly at the radius counts as inside. Region state is updated in
// place and the whole set is persisted once per call when anything changed.
func (r *Registry) Evaluate(ctx context.Context, pos model.Coordinate) []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()

	var transitions []Transition
	changed := false
	for _, reg := range r.regions {
		dist := geo.DistanceMeters(pos, reg.Center)
		inside := dist <= reg.Radius
		if inside == reg.Inside {
			continue
		}
		reg.Inside = inside
		changed = true

		action := model.ActionExit
		if inside {
			action = model.ActionEnter
		}
		transitions = append(transitions, Transition{Region: *reg, Action: action})
	}

	if changed {
		if err := r.store.SaveRegions(ctx, r.recordsLocked()); err != nil {
			r.log.Error("region state not persisted", zap.Error(err))
		}
	}
	return transitions
}

// recordsLocked builds the persisted form of the set. Callers hold r.mu.
func (r *Registry) recordsLocked() []store.RegionRecord {
	records := make([]store.RegionRecord, len(r.regions))
	for i, reg := range r.regions {
		records[i] = store.RegionRecord{
			ID:        reg.ID,
			Latitude:  reg.Center.Latitude,
			Longitude: reg.Center.Longitude,
			Radius:    reg.Radius,
			Inside:    reg.Inside,
		}
	}
	return records
}

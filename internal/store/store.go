// Package store provides durable persistence for geofence regions and
// per-user visit statistics, with SQLite and Postgres drivers.
package store

import (
	"context"
	"time"

	"github.com/placepulse/fencewatch/internal/model"
)

// RegionRecord is the persisted form of a geofence region. Records are
// stored as independently decodable entries so one malformed record never
// invalidates the rest of the set.
type RegionRecord struct {
	ID        string  `json:"identifier"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
	Inside    bool    `json:"is_inside"`
}

// StatsFields carries a partial update for a user's visit stats.
// Nil fields are left untouched by MergeStats.
type StatsFields struct {
	AverageDurationSecs *int64
	VisitCount          *int64
	EntranceTime        *time.Time
}

// RegionStore persists the full ordered region set.
type RegionStore interface {
	// LoadRegions returns all stored regions in insertion order.
	// Individually malformed records are logged and skipped.
	LoadRegions(ctx context.Context) ([]RegionRecord, error)

	// SaveRegions replaces the stored region set.
	SaveRegions(ctx context.Context, records []RegionRecord) error
}

// StatsStore persists per-user visit statistics. The store is shared across
// devices for the same user with no coordination; last write wins.
type StatsStore interface {
	// ReadStats returns the user's stats, or nil if none exist yet.
	ReadStats(ctx context.Context, userID string) (*model.VisitStats, error)

	// MergeStats writes the non-nil fields, leaving the rest untouched.
	MergeStats(ctx context.Context, userID string, fields StatsFields) error
}

// Store is the full persistence interface.
type Store interface {
	RegionStore
	StatsStore

	Migrate(ctx context.Context) error
	Close() error
}

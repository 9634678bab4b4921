// Package stats maintains the rolling average of completed visit durations
// per user, backed by a durable store.
package stats

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/placepulse/fencewatch/internal/store"
)

// Tracker updates a user's incremental visit statistics. The average is
// recomputable from only the previous average, previous count and the new
// duration; no raw history is retained.
type Tracker struct {
	store store.StatsStore
}

// NewTracker creates a tracker over the given stats store.
func NewTracker(st store.StatsStore) *Tracker {
	return &Tracker{store: st}
}

// CurrentAverage returns the user's rolling average visit duration in
// seconds, or 0 when no stats exist yet.
func (t *Tracker) CurrentAverage(ctx context.Context, userID string) (int64, error) {
	stats, err := t.store.ReadStats(ctx, userID)
	if err != nil {
		return 0, eris.Wrap(err, "stats: current average")
	}
	if stats == nil {
		return 0, nil
	}
	return stats.AverageDurationSecs, nil
}

// MarkEntrance merge-writes the entrance time of the visit in progress so
// the durable record mirrors the open session.
func (t *Tracker) MarkEntrance(ctx context.Context, userID string, at time.Time) error {
	return eris.Wrap(
		t.store.MergeStats(ctx, userID, store.StatsFields{EntranceTime: &at}),
		"stats: mark entrance",
	)
}

// RecordVisitEnd folds a completed visit into the rolling average and
// increments the visit count. Rounding is half away from zero; repeated
// rounding is not associative, so the chosen mode is fixed here.
func (t *Tracker) RecordVisitEnd(ctx context.Context, userID string, durationSecs int64) error {
	stats, err := t.store.ReadStats(ctx, userID)
	if err != nil {
		return eris.Wrap(err, "stats: read before update")
	}

	var oldAvg, oldCount int64
	if stats != nil {
		oldAvg = stats.AverageDurationSecs
		oldCount = stats.VisitCount
	}

	newCount := oldCount + 1
	newAvg := int64(math.Round(
		float64(oldAvg*oldCount+durationSecs) / float64(newCount),
	))

	err = t.store.MergeStats(ctx, userID, store.StatsFields{
		AverageDurationSecs: &newAvg,
		VisitCount:          &newCount,
	})
	return eris.Wrap(err, "stats: record visit end")
}

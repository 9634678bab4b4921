// Package monitor runs the periodic geofence sampling and transition
// handling loop.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/placepulse/fencewatch/internal/location"
	"github.com/placepulse/fencewatch/internal/metrics"
	"github.com/placepulse/fencewatch/internal/model"
	"github.com/placepulse/fencewatch/internal/notify"
	"github.com/placepulse/fencewatch/internal/region"
	"github.com/placepulse/fencewatch/internal/resilience"
	"github.com/placepulse/fencewatch/internal/stats"
	"github.com/placepulse/fencewatch/internal/timers"
)

// ErrPermissionDenied is returned by Start when location access has not
// been granted. The monitor does not transition to running.
var ErrPermissionDenied = eris.New("monitor: location permission denied")

const backgroundTaskName = "fencewatch.periodic"

// Config holds the monitor's tunables.
type Config struct {
	// UserID keys the durable visit statistics.
	UserID string

	// TickInterval is the sampling period. Default: 5s.
	TickInterval time.Duration

	// DefaultRegion is seeded when the registry is empty at Start.
	// Nil disables seeding.
	DefaultRegion *model.Region
}

// Deps are the monitor's collaborators. Metrics and Scheduler may be nil.
type Deps struct {
	Registry  *region.Registry
	Timers    *timers.Manager
	Stats     *stats.Tracker
	Provider  location.Provider
	Perm      PermissionCheck
	Sink      notify.Sink
	Scheduler BackgroundScheduler
	Metrics   *metrics.Collector
}

// Monitor drives periodic location sampling and geofence evaluation.
// There is one logical tick path: ticks are serialized (skip-if-busy) and
// no failure inside a tick ever stops the driver.
type Monitor struct {
	cfg  Config
	deps Deps
	log  *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// tickMu serializes tick bodies; an overdue tick is skipped rather
	// than evaluated concurrently, since evaluation mutates region state.
	tickMu   sync.Mutex
	sessions map[string]time.Time

	subMu     sync.Mutex
	eventSubs []chan model.Event
	posSubs   []chan model.Coordinate

	now func() time.Time
}

// New creates a stopped monitor.
func New(cfg Config, deps Deps) *Monitor {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 5 * time.Second
	}
	return &Monitor{
		cfg:      cfg,
		deps:     deps,
		log:      zap.L().With(zap.String("component", "monitor")),
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
}

// IsRunning reports whether the periodic driver is armed.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Start arms the periodic driver. It fails with ErrPermissionDenied when
// location access is missing and is a no-op when already running. Each
// Start begins with a clean timer and session set.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}
	if !m.deps.Perm.HasLocationAccess(ctx) {
		return ErrPermissionDenied
	}

	if m.deps.Registry.Len() == 0 && m.cfg.DefaultRegion != nil {
		def := m.cfg.DefaultRegion
		if err := m.deps.Registry.Add(ctx, def.ID, def.Center, def.Radius); err != nil {
			m.log.Warn("default region not seeded", zap.Error(err))
		}
	}

	m.sessions = make(map[string]time.Time)

	m.registerBackgroundTask(ctx)

	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	go m.run(runCtx)

	m.log.Info("monitoring started",
		zap.String("user", m.cfg.UserID),
		zap.Duration("interval", m.cfg.TickInterval),
	)
	return nil
}

// Stop cancels the driver and every outstanding visit timer. No timer
// fires after Stop returns. Stopping a stopped monitor is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.cancel()
	<-m.done
	m.deps.Timers.CancelAll()

	if m.deps.Scheduler != nil {
		if err := m.deps.Scheduler.Cancel(backgroundTaskName); err != nil {
			m.log.Warn("background task not cancelled", zap.Error(err))
		}
	}

	m.running = false
	m.log.Info("monitoring stopped")
}

// SubscribeEvents returns a stream of geofence transition events. Slow
// subscribers lose events rather than blocking the tick path.
func (m *Monitor) SubscribeEvents() <-chan model.Event {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	ch := make(chan model.Event, 16)
	m.eventSubs = append(m.eventSubs, ch)
	return ch
}

// SubscribePositions returns a stream of raw position samples.
func (m *Monitor) SubscribePositions() <-chan model.Coordinate {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	ch := make(chan model.Coordinate, 16)
	m.posSubs = append(m.posSubs, ch)
	return ch
}

// UnsubscribeEvents detaches a channel returned by SubscribeEvents.
func (m *Monitor) UnsubscribeEvents(ch <-chan model.Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for i, sub := range m.eventSubs {
		if sub == ch {
			m.eventSubs = append(m.eventSubs[:i], m.eventSubs[i+1:]...)
			return
		}
	}
}

// UnsubscribePositions detaches a channel returned by SubscribePositions.
func (m *Monitor) UnsubscribePositions(ch <-chan model.Coordinate) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for i, sub := range m.posSubs {
		if sub == ch {
			m.posSubs = append(m.posSubs[:i], m.posSubs[i+1:]...)
			return
		}
	}
}

// AddFence registers a new region. A region added while running is
// included starting from the next tick, never retroactively.
func (m *Monitor) AddFence(ctx context.Context, id string, center model.Coordinate, radius float64) error {
	return m.deps.Registry.Add(ctx, id, center, radius)
}

// RemoveFence deletes a region; unknown ids are a no-op.
func (m *Monitor) RemoveFence(ctx context.Context, id string) error {
	return m.deps.Registry.Remove(ctx, id)
}

// Fences returns a snapshot of all monitored regions.
func (m *Monitor) Fences() []model.Region {
	return m.deps.Registry.List()
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick performs one sample-and-evaluate cycle. Every failure is local to
// the tick: the driver keeps its schedule regardless of the outcome.
func (m *Monitor) tick(ctx context.Context) {
	if !m.tickMu.TryLock() {
		m.log.Debug("tick skipped, previous tick still in flight")
		if m.deps.Metrics != nil {
			m.deps.Metrics.RecordTickSkipped()
		}
		return
	}
	defer m.tickMu.Unlock()

	pos, err := m.deps.Provider.Current(ctx)
	if err != nil {
		m.log.Warn("location unavailable, skipping tick", zap.Error(err))
		if m.deps.Metrics != nil {
			m.deps.Metrics.RecordLocationFailure()
		}
		return
	}

	m.emitPosition(pos)

	for _, tr := range m.deps.Registry.Evaluate(ctx, pos) {
		switch tr.Action {
		case model.ActionEnter:
			m.handleEnter(ctx, tr.Region, pos)
		case model.ActionExit:
			m.handleExit(ctx, tr.Region, pos)
		}
		if m.deps.Metrics != nil {
			m.deps.Metrics.RecordTransition(string(tr.Action))
		}
	}

	if m.deps.Metrics != nil {
		m.deps.Metrics.RecordTick()
	}
}

func (m *Monitor) handleEnter(ctx context.Context, reg model.Region, pos model.Coordinate) {
	ev := model.Event{
		ID:        uuid.NewString(),
		RegionID:  reg.ID,
		Action:    model.ActionEnter,
		Position:  pos,
		Timestamp: m.now().UTC(),
	}
	m.log.Info("entered geofence", zap.String("region", reg.ID))

	m.sessions[reg.ID] = ev.Timestamp

	if err := m.deps.Stats.MarkEntrance(ctx, m.cfg.UserID, ev.Timestamp); err != nil {
		m.log.Warn("entrance time not persisted", zap.Error(err))
	}

	m.scheduleHalfway(ctx, reg.ID)
	m.show(ctx, "Arrived", fmt.Sprintf("You entered %s", reg.ID))
	m.emitEvent(ev)
}

func (m *Monitor) handleExit(ctx context.Context, reg model.Region, pos model.Coordinate) {
	ev := model.Event{
		ID:        uuid.NewString(),
		RegionID:  reg.ID,
		Action:    model.ActionExit,
		Position:  pos,
		Timestamp: m.now().UTC(),
	}
	m.log.Info("exited geofence", zap.String("region", reg.ID))

	m.deps.Timers.Cancel(reg.ID)

	if entrance, ok := m.sessions[reg.ID]; ok {
		delete(m.sessions, reg.ID)
		duration := int64(ev.Timestamp.Sub(entrance).Seconds())
		if err := m.deps.Stats.RecordVisitEnd(ctx, m.cfg.UserID, duration); err != nil {
			// Accepted data loss: this visit's duration is not retried.
			m.log.Warn("visit duration not recorded", zap.Error(err))
		}
	}

	m.emitEvent(ev)
}

// scheduleHalfway arms the halfway-through-visit alert at half the user's
// rolling average. New users (average 0) get no timer.
func (m *Monitor) scheduleHalfway(ctx context.Context, regionID string) {
	avg, err := m.deps.Stats.CurrentAverage(ctx, m.cfg.UserID)
	if err != nil {
		m.log.Warn("average visit duration unavailable", zap.Error(err))
		return
	}
	if avg <= 0 {
		return
	}
	halfway := avg / 2
	if halfway <= 0 {
		return
	}

	m.deps.Timers.Schedule(regionID, time.Duration(halfway)*time.Second, func() {
		m.fireHalfway(regionID)
	})
}

func (m *Monitor) fireHalfway(regionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	m.log.Info("halfway notification due", zap.String("region", regionID))
	m.show(ctx, "Halfway there",
		fmt.Sprintf("You're halfway through your usual visit at %s", regionID))
}

func (m *Monitor) show(ctx context.Context, title, message string) {
	if err := m.deps.Sink.Show(ctx, title, message); err != nil {
		m.log.Warn("notification not delivered",
			zap.String("title", title),
			zap.Error(err),
		)
		return
	}
	if m.deps.Metrics != nil {
		m.deps.Metrics.RecordNotification()
	}
}

func (m *Monitor) registerBackgroundTask(ctx context.Context) {
	if m.deps.Scheduler == nil {
		return
	}
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = 2
	err := resilience.Do(ctx, cfg, func(context.Context) error {
		return m.deps.Scheduler.RegisterPeriodic(backgroundTaskName, m.cfg.TickInterval)
	})
	if err != nil {
		// Foreground monitoring works without the fallback.
		m.log.Warn("background task not registered", zap.Error(err))
	}
}

func (m *Monitor) emitEvent(ev model.Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for _, ch := range m.eventSubs {
		select {
		case ch <- ev:
		default:
			m.log.Debug("event dropped for slow subscriber", zap.String("event", ev.ID))
		}
	}
}

func (m *Monitor) emitPosition(pos model.Coordinate) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for _, ch := range m.posSubs {
		select {
		case ch <- pos:
		default:
		}
	}
}

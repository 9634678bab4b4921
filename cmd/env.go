package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/placepulse/fencewatch/internal/location"
	"github.com/placepulse/fencewatch/internal/metrics"
	"github.com/placepulse/fencewatch/internal/model"
	"github.com/placepulse/fencewatch/internal/monitor"
	"github.com/placepulse/fencewatch/internal/notify"
	"github.com/placepulse/fencewatch/internal/region"
	"github.com/placepulse/fencewatch/internal/server"
	"github.com/placepulse/fencewatch/internal/stats"
	"github.com/placepulse/fencewatch/internal/store"
	"github.com/placepulse/fencewatch/internal/timers"
)

// env holds the assembled application components.
type env struct {
	Store    store.Store
	Registry *region.Registry
	Tracker  *stats.Tracker
	Monitor  *monitor.Monitor
	Server   *server.Server
}

func (e *env) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("store close failed", zap.Error(err))
		}
	}
}

// openStore creates the configured persistence backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func buildProvider() (location.Provider, error) {
	switch cfg.Location.Provider {
	case "http":
		if cfg.Location.URL == "" {
			return nil, eris.New("location.url is required for the http provider")
		}
		return location.NewHTTPProvider(cfg.Location.URL), nil
	case "static", "":
		return location.Static{Coord: model.Coordinate{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
		}}, nil
	default:
		return nil, eris.Errorf("unknown location provider %q", cfg.Location.Provider)
	}
}

func buildSink() notify.Sink {
	if cfg.Notify.WebhookURL != "" {
		return notify.Multi(
			notify.NewLogSink(),
			notify.NewWebhookSink(cfg.Notify.WebhookURL, cfg.Notify.PerMinute),
		)
	}
	return notify.NewLogSink()
}

// initMonitor assembles the full monitoring stack from config.
func initMonitor(ctx context.Context) (*env, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	registry := region.NewRegistry(st)
	if err := registry.Load(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	provider, err := buildProvider()
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	tracker := stats.NewTracker(st)

	promReg := prometheus.NewRegistry()
	collector := metrics.NewCollector(promReg)

	var defaultFence *model.Region
	if cfg.Monitor.DefaultFence.ID != "" {
		defaultFence = &model.Region{
			ID: cfg.Monitor.DefaultFence.ID,
			Center: model.Coordinate{
				Latitude:  cfg.Monitor.DefaultFence.Latitude,
				Longitude: cfg.Monitor.DefaultFence.Longitude,
			},
			Radius: cfg.Monitor.DefaultFence.Radius,
		}
	}

	mon := monitor.New(monitor.Config{
		UserID:        cfg.Monitor.UserID,
		TickInterval:  time.Duration(cfg.Monitor.TickIntervalSecs) * time.Second,
		DefaultRegion: defaultFence,
	}, monitor.Deps{
		Registry:  registry,
		Timers:    timers.NewManager(),
		Stats:     tracker,
		Provider:  provider,
		Perm:      monitor.StaticPermission(true),
		Sink:      buildSink(),
		Scheduler: monitor.LogScheduler{},
		Metrics:   collector,
	})

	srv := server.New(mon, tracker, promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

	return &env{
		Store:    st,
		Registry: registry,
		Tracker:  tracker,
		Monitor:  mon,
		Server:   srv,
	}, nil
}

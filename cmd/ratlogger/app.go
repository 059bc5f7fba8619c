package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"ratlogger/internal/adapters/backend"
	"ratlogger/internal/adapters/cache"
	"ratlogger/internal/adapters/geolocation"
	"ratlogger/internal/adapters/mapsurface"
	"ratlogger/internal/adapters/repositories"
	"ratlogger/internal/adapters/sessionstore"
	"ratlogger/internal/config"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/db"
	"ratlogger/internal/platform/logging"
	"ratlogger/internal/platform/metrics"
	"ratlogger/internal/platform/schedule"
	"ratlogger/internal/ports"
	"ratlogger/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// app is the composition root: concrete adapters wired behind ports.
type app struct {
	cfg *config.Config

	store    ports.SessionStore
	snapshot ports.SnapshotCache
	client   *backend.Client
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	session   *services.SessionManager
	dashboard *services.Dashboard

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	if err := a.openStores(ctx); err != nil {
		a.Close()
		return nil, err
	}

	client, err := backend.NewClient(cfg.API.BaseURL, backend.Options{
		Timeout:         cfg.API.Timeout,
		MaxAttempts:     cfg.API.MaxAttempts,
		BreakerFailures: cfg.API.BreakerFailures,
		BreakerCooldown: cfg.API.BreakerCooldown,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.client = client

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	a.session = services.NewSessionManager(a.store, client, stderrNavigator{}, cfg.API.VerifyTimeout)
	client.SetUnauthorizedHook(func(ctx context.Context) {
		a.session.ForceLogout(ctx, "session expired")
	})
	a.dashboard = services.NewDashboard(a.session, client, cfg.Dashboard.CacheTTL)

	return a, nil
}

// openStores selects the session store and snapshot cache for the
// configured driver.
func (a *app) openStores(ctx context.Context) error {
	st := a.cfg.Store

	switch st.Driver {
	case "sqlite":
		if dir := filepath.Dir(st.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("open store: %w", err)
			}
		}
		conn, err := db.OpenSqlite(st.Path)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, conn.Close)
		if err := repositories.InitSchema(ctx, conn, repositories.DialectSqlite); err != nil {
			return err
		}
		a.store = sessionstore.NewSqliteStore(conn, st.Namespace)
		a.snapshot = cache.NewSqliteSightingCache(conn, st.Namespace)

	case "postgres":
		conn, err := db.Open(st.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, conn.Close)
		if err := repositories.InitSchema(ctx, conn, repositories.DialectPostgres); err != nil {
			return err
		}
		a.store = sessionstore.NewPostgresStore(conn, st.Namespace)
		a.snapshot = cache.NewSQLSightingCache(conn, st.Namespace)

	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: st.RedisAddr})
		a.closers = append(a.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("open store: ping redis %q: %w", st.RedisAddr, err)
		}
		a.store = sessionstore.NewRedisStore(rdb, st.Namespace)
		a.snapshot = cache.NewRedisSightingCache(rdb, st.Namespace)

	case "memory":
		a.store = sessionstore.NewMemoryStore()
		a.snapshot = cache.NewMemorySightingCache()

	default:
		return fmt.Errorf("open store: unknown driver %q", st.Driver)
	}

	return nil
}

// geolocationProvider builds the configured device position source.
// A photo with GPS EXIF data is consulted first.
func (a *app) geolocationProvider(photoPath string) (ports.GeolocationProvider, error) {
	var chain []ports.GeolocationProvider
	if photoPath != "" {
		chain = append(chain, geolocation.NewExifProvider(photoPath))
	}

	g := a.cfg.Geolocation
	switch g.Provider {
	case "static":
		chain = append(chain, geolocation.NewStaticProvider(a.cfg.DevicePosition()))
	case "http":
		p, err := geolocation.NewHTTPProvider(g.URL, &http.Client{Timeout: a.cfg.PinDrop.GeolocationTimeout})
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
	}

	switch len(chain) {
	case 0:
		return geolocation.NewStaticProvider(nil), nil
	case 1:
		return chain[0], nil
	default:
		return geolocation.NewChainProvider(chain...), nil
	}
}

type mapStack struct {
	renderer *mapsurface.MemoryRenderer
	screen   *services.MapScreen
}

// newMapStack wires the map screen on a headless renderer.
func (a *app) newMapStack(photoPath string) (*mapStack, error) {
	provider, err := a.geolocationProvider(photoPath)
	if err != nil {
		return nil, err
	}

	cfg := a.cfg
	renderer := mapsurface.NewMemoryRenderer(cfg.Map.SurfaceID)
	sched := schedule.NewTickerScheduler()

	resolver := services.NewGeolocationResolver(provider, cfg.DefaultCenter(), cfg.PinDrop.GeolocationTimeout)
	mapc := services.NewMapController(renderer, sched, services.MapOptions{
		SurfaceID:     cfg.Map.SurfaceID,
		Zoom:          cfg.Map.Zoom,
		FlyToZoom:     cfg.Map.FlyToZoom,
		FlyToDuration: cfg.Map.FlyToDuration,
		HighlightTTL:  cfg.Map.HighlightTTL,
	})
	sync := services.NewMarkerSynchronizer(a.session, a.client, mapc, sched, services.SyncOptions{
		Interval: cfg.Sync.Interval,
		Snapshot: a.snapshot,
		Metrics:  a.metrics,
	})
	pindrop := services.NewPinDrop(a.session, a.client, resolver, sync, sched, services.PinDropOptions{
		ErrorTTL:    cfg.PinDrop.ErrorTTL,
		Metrics:     a.metrics,
		OnSubmitted: func(domain.Sighting) { a.dashboard.Invalidate() },
	})

	return &mapStack{
		renderer: renderer,
		screen:   services.NewMapScreen(resolver, mapc, sync, pindrop),
	}, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && !errors.Is(err, sql.ErrConnDone) {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	if err := errors.Join(errs...); err != nil {
		l := logging.Logger()
		l.Warn().Err(err).Msg("close app")
		return err
	}
	return nil
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/courtcycle/internal/api"
	"github.com/friendsincode/courtcycle/internal/cache"
	"github.com/friendsincode/courtcycle/internal/config"
	"github.com/friendsincode/courtcycle/internal/db"
	"github.com/friendsincode/courtcycle/internal/drills"
	"github.com/friendsincode/courtcycle/internal/eventbus"
	"github.com/friendsincode/courtcycle/internal/events"
	"github.com/friendsincode/courtcycle/internal/export"
	"github.com/friendsincode/courtcycle/internal/planner"
	"github.com/friendsincode/courtcycle/internal/plans"
	"github.com/friendsincode/courtcycle/internal/storage"
	"github.com/friendsincode/courtcycle/internal/telemetry"
)

// connectionPollInterval is how often pool gauges are refreshed.
const connectionPollInterval = 15 * time.Second

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db        *gorm.DB
	cache     *cache.Cache
	bus       *events.Bus
	publisher events.Publisher
	store     storage.ObjectStore
	plans     *plans.Service
	api       *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware)
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		bus:    events.NewBus(),
	}

	if err := srv.initDependencies(); err != nil {
		_ = srv.Close()
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	srv.httpServer = &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg, s.logger)
	if err != nil {
		return err
	}
	s.DeferClose(func() error { return db.Close(database) })
	if err := db.Migrate(database); err != nil {
		return err
	}
	s.db = database

	var catalog *drills.Catalog
	if s.cfg.DrillsPath != "" {
		catalog, err = drills.Load(s.cfg.DrillsPath)
	} else {
		catalog, err = drills.Default()
	}
	if err != nil {
		return fmt.Errorf("load drill catalog: %w", err)
	}
	s.logger.Info().Int("drills", catalog.Len()).Str("path", s.cfg.DrillsPath).Msg("drill catalog loaded")

	if s.cfg.CacheEnabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.RedisAddr = s.cfg.RedisAddr
		cacheCfg.RedisPassword = s.cfg.RedisPassword
		cacheCfg.RedisDB = s.cfg.RedisDB
		planCache, err := cache.New(cacheCfg, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("cache initialization failed, continuing without cache")
		} else {
			s.cache = planCache
			s.DeferClose(func() error { return s.cache.Close() })
		}
	}

	s.publisher = s.bus
	if s.cfg.NATSURL != "" {
		natsCfg := eventbus.DefaultNATSConfig()
		natsCfg.URL = s.cfg.NATSURL
		natsCfg.Subject = s.cfg.NATSSubject
		natsBus, err := eventbus.NewNATSBus(natsCfg, s.bus, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", s.cfg.NATSURL).Msg("nats unavailable, events stay in process")
		} else {
			s.publisher = natsBus
			s.DeferClose(natsBus.Close)
		}
	}

	store, err := newObjectStore(context.Background(), s.cfg)
	if err != nil {
		return err
	}
	s.store = store

	engine := planner.NewEngine(catalog, s.logger)
	s.plans = plans.NewService(database, engine, s.cache, s.publisher, s.cfg.DefaultWeeks, s.logger)
	s.api = api.New(s.plans, export.NewExporter(s.store, s.publisher, s.logger), s.logger)
	return nil
}

// newObjectStore returns nil when export archiving is disabled.
func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.StorageBackend {
	case config.StorageNone:
		return nil, nil
	case config.StorageS3:
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 export store: %w", err)
		}
		return store, nil
	default:
		store, err := storage.NewFilesystemStore(cfg.ExportDir)
		if err != nil {
			return nil, fmt.Errorf("init export dir %s: %w", cfg.ExportDir, err)
		}
		return store, nil
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// Router exposes the configured handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		db.WatchConnections(ctx, s.db, connectionPollInterval)
	}()

	if s.cache != nil {
		sub := s.bus.Subscribe(events.EventPlanGenerated)
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			runCacheInvalidationListener(ctx, s.bus, sub, s.cache, s.logger)
		}()
	}
}

type historyInvalidator interface {
	InvalidateHistory(ctx context.Context, userID string) error
}

// runCacheInvalidationListener drops a user's cached load history whenever a
// plan is stored for them. Local writes already invalidate inline; this
// catches plans stored by other nodes and relayed over NATS.
func runCacheInvalidationListener(ctx context.Context, bus *events.Bus, sub events.Subscriber, c historyInvalidator, logger zerolog.Logger) {
	defer bus.Unsubscribe(events.EventPlanGenerated, sub)

	logger.Debug().Msg("cache invalidation listener started")
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("cache invalidation listener stopped")
			return
		case payload, ok := <-sub:
			if !ok {
				return
			}
			userID, _ := payload["user_id"].(string)
			if userID == "" {
				continue
			}
			if err := c.InvalidateHistory(ctx, userID); err != nil {
				logger.Debug().Err(err).Str("user_id", userID).Msg("invalidate history cache")
			}
		}
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	s.router.Handle("/metrics", telemetry.Handler())
	s.api.Routes(s.router)
}

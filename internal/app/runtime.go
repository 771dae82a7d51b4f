// Package app composes the casestatus service from configuration: it opens
// the configured collaborators, picks store implementations and mounts the router.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"casestatus/internal/admin"
	"casestatus/internal/admin/adapters"
	adminMetrics "casestatus/internal/admin/metrics"
	adminStore "casestatus/internal/admin/store"
	"casestatus/internal/audit"
	auditPostgres "casestatus/internal/audit/store/postgres"
	casehandler "casestatus/internal/cases/handler"
	caseMetrics "casestatus/internal/cases/metrics"
	caseService "casestatus/internal/cases/service"
	caseStore "casestatus/internal/cases/store"
	identityhandler "casestatus/internal/identity/handler"
	identityService "casestatus/internal/identity/service"
	sessionStore "casestatus/internal/identity/store/session"
	"casestatus/internal/identity/token"
	"casestatus/internal/platform/config"
	"casestatus/internal/platform/database"
	"casestatus/internal/platform/handle"
	"casestatus/internal/platform/health"
	"casestatus/internal/platform/kafka"
	"casestatus/internal/platform/kafka/producer"
	platformMetrics "casestatus/internal/platform/metrics"
	redisclient "casestatus/internal/platform/redis"
	"casestatus/internal/platform/tracer"
	rateLimitMetrics "casestatus/internal/ratelimit/metrics"
	rateLimitMiddleware "casestatus/internal/ratelimit/middleware"
	rateLimitStore "casestatus/internal/ratelimit/store"
	"casestatus/internal/seeder"
	httptransport "casestatus/internal/transport/http"
	"casestatus/migrations"
	"casestatus/pkg/platform/middleware/request"
)

const (
	redisStatsInterval  = 15 * time.Second
	rateLimitPruneEvery = time.Minute
	lookupScope         = "case_lookup"
	kafkaCloseTimeout   = 5 * time.Second
	auditTopicPartition = 3
)

// adminRegistry is what both the gate and the seeder need from admin storage.
type adminRegistry interface {
	admin.AdminStore
	seeder.AdminStore
}

// Runtime owns the HTTP server and every collaborator handle.
type Runtime struct {
	cfg       config.Config
	logger    *slog.Logger
	handler   http.Handler
	server    *http.Server
	publisher *audit.Publisher

	// lookupWindows is set when lookup limits are kept in process memory.
	lookupWindows *rateLimitStore.InMemoryStore

	db    *handle.Lazy[*database.Pool]
	redis *handle.Lazy[*redisclient.Client]
	kafka *handle.Lazy[*producer.Producer]

	closeOnce sync.Once
}

type options struct {
	registry *prometheus.Registry
	tracer   tracer.Tracer
}

type Option func(*options)

// WithRegistry registers service metrics on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithTracer replaces the OpenTelemetry tracer, e.g. with a no-op in tests.
func WithTracer(t tracer.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// Build wires the service. Collaborators without configuration fall back to
// in-memory implementations; configured collaborators that cannot be reached
// fail the build.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*Runtime, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = platformMetrics.NewRegistry()
	}
	if o.tracer == nil {
		o.tracer = tracer.NewOTel()
	}

	rt := &Runtime{cfg: cfg, logger: logger}
	rt.db = handle.NewLazy(func(ctx context.Context) (*database.Pool, error) {
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.Postgres.URL
		dbCfg.MaxOpenConns = cfg.Postgres.MaxOpenConns
		dbCfg.MaxIdleConns = cfg.Postgres.MaxIdleConns
		return database.Open(ctx, dbCfg)
	})
	rt.redis = handle.NewLazy(func(ctx context.Context) (*redisclient.Client, error) {
		redisCfg := redisclient.DefaultConfig()
		redisCfg.URL = cfg.Redis.URL
		return redisclient.Open(ctx, redisCfg)
	})
	rt.kafka = handle.NewLazy(func(ctx context.Context) (*producer.Producer, error) {
		producerCfg := producer.DefaultConfig()
		producerCfg.Brokers = cfg.Kafka.Brokers
		return producer.New(producerCfg, logger)
	})

	platform := platformMetrics.NewWithRegistry(o.registry, health.Version)
	healthHandler := health.New(cfg.Environment, health.WithObserver(platform.SetCollaboratorUp))

	var (
		admins   adminRegistry                = adminStore.NewInMemory()
		cases    caseStore.Backing            = caseStore.NewInMemory()
		events   audit.Store                  = audit.NewInMemoryStore()
		sessions identityService.SessionStore = sessionStore.New()
	)

	if cfg.Postgres.URL != "" {
		pool, err := rt.db.Get(ctx)
		platform.SetCollaboratorUp("postgres", err == nil)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.Postgres.AutoMigrate {
			applied, err := migrations.Up(ctx, pool.DB())
			if err != nil {
				rt.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
			logger.InfoContext(ctx, "postgres schema migrated", "applied", applied)
		}
		admins = adminStore.NewPostgres(pool.DB())
		cases = caseStore.NewPostgres(pool.DB())
		events = auditPostgres.New(pool.DB())
		healthHandler.RegisterCheck("postgres", pool.Health)
		if err := pool.RegisterMetrics(o.registry); err != nil {
			logger.WarnContext(ctx, "postgres pool metrics not registered", "error", err)
		}
	}

	var cacheClient *redis.Client
	if cfg.Redis.URL != "" {
		client, err := rt.redis.Get(ctx)
		platform.SetCollaboratorUp("redis", err == nil)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open redis: %w", err)
		}
		cacheClient = client.Client
		sessions = sessionStore.NewRedis(client.Client)
		healthHandler.RegisterCheck("redis", client.Health)
	}

	var limiter rateLimitMiddleware.Limiter
	if cacheClient != nil {
		limiter = rateLimitStore.NewRedis(cacheClient)
	} else {
		rt.lookupWindows = rateLimitStore.NewInMemory()
		limiter = rt.lookupWindows
	}
	lookupLimit := rateLimitMiddleware.New(limiter, rateLimitMetrics.NewWithRegistry(o.registry), logger).
		PerClientIP(lookupScope, cfg.RateLimit.LookupsPerWindow, cfg.RateLimit.Window)

	auditOpts := []audit.PublisherOption{
		audit.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
		audit.WithPublisherLogger(logger),
		audit.WithMetrics(audit.NewMetricsWithRegistry(o.registry)),
	}
	if cfg.Kafka.Brokers != "" {
		p, err := rt.kafka.Get(ctx)
		platform.SetCollaboratorUp("kafka", err == nil)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open kafka producer: %w", err)
		}
		if err := p.EnsureTopic(ctx, cfg.Kafka.AuditTopic, auditTopicPartition, 1); err != nil {
			// Brokers may still be starting; records are retried by the client.
			logger.WarnContext(ctx, "could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		auditOpts = append(auditOpts, audit.WithForwarder(audit.NewKafkaForwarder(p, cfg.Kafka.AuditTopic)))
		healthHandler.RegisterCheck("kafka", kafka.HealthCheck(p))
	}
	rt.publisher = audit.NewPublisher(events, auditOpts...)
	auditLog := audit.NewLogger(logger, rt.publisher)

	tokens := token.New(cfg.Session.SigningKey, cfg.Session.Issuer, cfg.Session.Audience)
	identity, err := identityService.New(sessions, tokens,
		identityService.WithLogger(logger),
		identityService.WithSessionTTL(cfg.Session.TTL),
		identityService.WithAuditLogger(auditLog),
	)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("identity service: %w", err)
	}
	identityAdapter := adapters.NewIdentityAdapter(identity)

	lookupMetrics := caseMetrics.NewWithRegistry(o.registry)
	cachedCases := caseStore.NewCached(cases, cacheClient, cfg.Cases.CacheTTL, lookupMetrics, logger,
		caseStore.WithLookupTimeout(cfg.Cases.LookupTimeout))

	if cfg.SeedDemoData && cfg.Postgres.URL == "" {
		if err := seeder.New(admins, cachedCases, sessions, logger).SeedAll(ctx); err != nil {
			rt.Close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	gate := admin.NewGate(identityAdapter, admins,
		admin.WithGateLogger(logger),
		admin.WithGateAudit(auditLog),
		admin.WithGateMetrics(adminMetrics.NewWithRegistry(o.registry)),
		admin.WithGateTracer(o.tracer),
	)
	dashboard := admin.NewService(cachedCases, identityAdapter, rt.publisher, logger)
	resolver := caseService.New(cachedCases,
		caseService.WithLogger(logger),
		caseService.WithAuditLogger(auditLog),
		caseService.WithMetrics(lookupMetrics),
		caseService.WithTracer(o.tracer),
	)

	rt.handler = httptransport.NewRouter(httptransport.Config{
		RequestTimeout: cfg.Server.RequestTimeout,
		TrustedProxies: cfg.Server.TrustedProxies,
		CookieName:     cfg.Session.CookieName,
		LoginURL:       cfg.Server.LoginURL,
		DevRoutes:      cfg.IsDevelopment(),
	}, httptransport.Routes{
		Health:      healthHandler,
		Metrics:     platformMetrics.HandlerFor(o.registry, prometheus.DefaultGatherer),
		Latency:     request.NewMetricsWithRegistry(o.registry),
		Cases:       casehandler.New(resolver, logger),
		LookupLimit: lookupLimit,
		Gate:        gate,
		Admin:       admin.New(dashboard, logger),
		Sessions:    identityhandler.New(identity, cfg.Session.CookieName, logger),
	}, logger)

	rt.server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           rt.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return rt, nil
}

// Handler returns the router, for in-process tests.
func (rt *Runtime) Handler() http.Handler {
	return rt.handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (rt *Runtime) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rt.logger.InfoContext(gCtx, "starting http server", "addr", rt.cfg.Server.Addr)
		if err := rt.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		rt.logger.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := rt.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if client, ok := rt.redis.Peek(); ok {
		g.Go(func() error {
			client.ReportPoolStats(gCtx, redisStatsInterval)
			return nil
		})
	}

	if rt.lookupWindows != nil && rt.cfg.RateLimit.LookupsPerWindow > 0 {
		g.Go(func() error {
			rt.pruneLookupWindows(gCtx)
			return nil
		})
	}

	err := g.Wait()
	rt.Close()
	return err
}

func (rt *Runtime) pruneLookupWindows(ctx context.Context) {
	ticker := time.NewTicker(rateLimitPruneEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rt.lookupWindows.Prune(rt.cfg.RateLimit.Window); n > 0 {
				rt.logger.Debug("pruned idle rate limit windows", "count", n)
			}
		}
	}
}

// Close flushes pending audit events and closes every opened collaborator.
// Handles that were never opened are left alone. Safe to call more than once.
func (rt *Runtime) Close() {
	rt.closeOnce.Do(rt.close)
}

func (rt *Runtime) close() {
	if rt.publisher != nil {
		rt.publisher.Close()
	}
	if p, ok := rt.kafka.Peek(); ok {
		if err := p.Close(kafkaCloseTimeout); err != nil {
			rt.logger.Warn("kafka producer close failed", "error", err)
		}
	}
	if client, ok := rt.redis.Peek(); ok {
		if err := client.Close(); err != nil {
			rt.logger.Warn("redis close failed", "error", err)
		}
	}
	if pool, ok := rt.db.Peek(); ok {
		if err := pool.Close(); err != nil {
			rt.logger.Warn("postgres close failed", "error", err)
		}
	}
}

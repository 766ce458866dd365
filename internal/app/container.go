package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/doeshing/promptsmith/internal/application/analysis"
	"github.com/doeshing/promptsmith/internal/application/doctor"
	"github.com/doeshing/promptsmith/internal/application/evaluation"
	"github.com/doeshing/promptsmith/internal/application/generation"
	"github.com/doeshing/promptsmith/internal/application/models"
	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/infrastructure/ai"
	"github.com/doeshing/promptsmith/internal/infrastructure/cache"
	"github.com/doeshing/promptsmith/internal/infrastructure/config"
	"github.com/doeshing/promptsmith/internal/infrastructure/history"
	"github.com/doeshing/promptsmith/internal/infrastructure/scheduler"
	"github.com/doeshing/promptsmith/internal/infrastructure/server"
	"github.com/doeshing/promptsmith/internal/pkg/logger"
	"github.com/doeshing/promptsmith/internal/ports"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config            domain.Config
	ConfigProvider    ports.ConfigProvider
	ConfigLoader      *config.FileLoader
	Logger            *logger.ZapLogger
	AnalysisService   *analysis.Service
	GenerationService *generation.Service
	EvaluationService *evaluation.Service
	ModelService      *models.Service
	DoctorService     *doctor.Service
	HistoryStore      ports.HistoryStore
	Cache             *cache.GenerationCache

	closers []io.Closer
}

// Options tunes container construction.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	genCache, err := buildCache(cfg, log)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:         cfg,
		ConfigProvider: cfgLoader,
		ConfigLoader:   cfgLoader,
		Logger:         log,
		Cache:          genCache,
	}

	historyStore, closer, err := buildHistory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		c.closers = append(c.closers, closer)
	}
	c.HistoryStore = historyStore

	factory := ai.NewFactoryWithClient(&http.Client{Timeout: cfg.GetTimeout()})
	router := &ai.Router{Config: cfgLoader, Factory: factory, Logger: log.Named("router")}

	c.AnalysisService = &analysis.Service{
		ConfigProvider: cfgLoader,
		Router:         router,
		History:        historyStore,
		Logger:         log.Named("analysis"),
		Clock:          ports.SystemClock,
	}
	c.GenerationService = &generation.Service{
		ConfigProvider: cfgLoader,
		Router:         router,
		Cache:          genCache,
		History:        historyStore,
		Logger:         log.Named("generation"),
		Clock:          ports.SystemClock,
	}
	c.EvaluationService = &evaluation.Service{
		Analyzer: c.AnalysisService,
		Logger:   log.Named("evaluation"),
		Clock:    ports.SystemClock,
	}
	c.ModelService = &models.Service{
		ConfigProvider: cfgLoader,
		Factory:        factory,
		Logger:         log.Named("models"),
		Clock:          ports.SystemClock,
	}
	c.DoctorService = &doctor.Service{
		ConfigProvider: cfgLoader,
		Cache:          genCache,
		History:        historyStore,
	}
	return c, nil
}

// Handlers returns the HTTP handlers bound to the container's services.
func (c *Container) Handlers() *server.Handlers {
	return &server.Handlers{
		Analyzer:       c.AnalysisService,
		Generator:      c.GenerationService,
		Evaluator:      c.EvaluationService,
		History:        c.HistoryStore,
		Cache:          c.Cache,
		Models:         c.ModelService,
		Logger:         c.Logger.Named("http"),
		AllowedOrigins: c.Config.Server.AllowedOrigins,
	}
}

// NewServer builds the API server. An empty addr uses the configured listen address.
func (c *Container) NewServer(addr string) *server.Server {
	if addr == "" {
		addr = c.Config.GetListenAddress()
	}
	return server.New(addr, c.Handlers().Routes(), c.Logger.Named("server"))
}

// NewScheduler builds the maintenance scheduler from config.
func (c *Container) NewScheduler() (*scheduler.Scheduler, error) {
	return scheduler.New(c.Config.GetMaintenanceSchedule(), c.Maintenance())
}

// Maintenance returns the cache sweep and history prune job.
func (c *Container) Maintenance() *scheduler.Maintenance {
	return &scheduler.Maintenance{
		Cache:         c.Cache,
		History:       c.HistoryStore,
		RetentionDays: c.Config.GetHistoryRetentionDays(),
		Logger:        c.Logger.Named("maintenance"),
	}
}

// Close releases database handles and flushes the logger.
func (c *Container) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	_ = c.Logger.Sync()
	return errors.Join(errs...)
}

func buildCache(cfg domain.Config, log *logger.ZapLogger) (*cache.GenerationCache, error) {
	ttl, err := cfg.GetCacheTTL()
	if err != nil {
		return nil, err
	}
	var store ports.CacheStore
	switch cfg.GetCacheBackend() {
	case domain.CacheBackendFile:
		store = cache.NewFileStore(cfg.Cache.Dir, cfg.GetCacheMaxEntries())
	case domain.CacheBackendMemory:
		memory, err := cache.NewMemoryStore(cfg.GetCacheMaxEntries())
		if err != nil {
			return nil, fmt.Errorf("build memory cache: %w", err)
		}
		store = memory
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.GetCacheBackend())
	}
	return cache.NewGenerationCache(store, cache.WithTTL(ttl), cache.WithLogger(log.Named("cache"))), nil
}

func buildHistory(ctx context.Context, cfg domain.Config) (ports.HistoryStore, io.Closer, error) {
	switch cfg.GetHistoryBackend() {
	case domain.HistoryBackendFile:
		return history.NewFileStore(cfg.History.Path, ports.SystemClock), nil, nil
	case domain.HistoryBackendSQLite:
		store, err := history.OpenSQLite(ctx, cfg.History.Path, ports.SystemClock)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite history: %w", err)
		}
		return store, store, nil
	case domain.HistoryBackendPostgres:
		store, err := history.OpenPostgres(ctx, cfg.History.DSN, ports.SystemClock)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres history: %w", err)
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.GetHistoryBackend())
	}
}

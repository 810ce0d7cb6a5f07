// Package main provides the valuation API server entrypoint.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vozant-ai/valuation-engine/cmd/valuation-api/handlers"
	"github.com/vozant-ai/valuation-engine/cmd/valuation-api/middleware"
	"github.com/vozant-ai/valuation-engine/internal/appraisal"
	"github.com/vozant-ai/valuation-engine/internal/cache"
	"github.com/vozant-ai/valuation-engine/internal/config"
	"github.com/vozant-ai/valuation-engine/internal/imagery"
	"github.com/vozant-ai/valuation-engine/internal/insight"
	"github.com/vozant-ai/valuation-engine/internal/observability"
	"github.com/vozant-ai/valuation-engine/internal/prediction"
	"github.com/vozant-ai/valuation-engine/internal/selection"
	"github.com/vozant-ai/valuation-engine/internal/storage"
	"github.com/vozant-ai/valuation-engine/internal/taxonomy"
)

// App wires the service dependencies behind the HTTP router.
type App struct {
	Router http.Handler

	db          *sql.DB
	cacheClient cache.Client
}

// NewApp builds all service dependencies from config.
func NewApp(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*App, error) {
	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var cacheClient cache.Client
	if cfg.Cache.Driver == "redis" {
		cacheClient, err = cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	} else {
		cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}

	taxonomyClient, err := taxonomy.NewClient(taxonomy.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create taxonomy client: %w", err)
	}

	predictor, err := prediction.NewClient(prediction.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create prediction client: %w", err)
	}

	imager, err := imagery.NewClient(imagery.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create imagery client: %w", err)
	}

	insightClient, err := insight.NewClient(insight.Config{
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  cfg.Upstream.APIKey,
		Timeout: cfg.Upstream.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create insight client: %w", err)
	}

	// The durable tier of the brief cache follows the cache driver: "sql"
	// rides the relational database, anything else the cache client.
	var briefStore insight.Store
	if cfg.Cache.Driver == "sql" {
		briefStore = storage.NewInsightCacheRepository(db)
	} else {
		briefStore = insight.NewCacheStore(cacheClient, cfg.Cache.BriefTTL)
	}
	briefCache := insight.NewBriefCache(briefStore, logger, insight.BriefCacheConfig{TTL: cfg.Cache.BriefTTL})
	insightService := insight.NewService(insightClient, briefCache, logger)

	mileageRule := selection.MileageRule{
		UsedMin: cfg.Appraisal.UsedMileageMin,
		Max:     cfg.Appraisal.MileageMax,
	}

	orchestrator := appraisal.NewOrchestrator(predictor, insightService, insightService, imager, appraisal.Options{
		RangeMargin:       cfg.Appraisal.RangeMargin,
		DefaultConfidence: cfg.Appraisal.DefaultConfidence,
		MileageRule:       mileageRule,
	}, logger)

	appraisalHandler := handlers.NewAppraisalHandler(logger, orchestrator)
	optionsHandler := handlers.NewOptionsHandler(logger, taxonomyClient, cacheClient, mileageRule)
	preferencesHandler := handlers.NewPreferencesHandler(logger, storage.NewPreferenceRepository(db))

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.ReadTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"valuation-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{
			Enabled: cfg.Server.APIKey != "",
			APIKey:  cfg.Server.APIKey,
		}))

		r.Route("/appraisals", func(r chi.Router) {
			r.Post("/", appraisalHandler.Submit)
			r.Get("/{sessionId}", appraisalHandler.Latest)
		})

		r.Get("/options", optionsHandler.Options)
		r.Post("/options/resolve", optionsHandler.Resolve)
		r.Post("/options/refresh", optionsHandler.Refresh)

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/", preferencesHandler.Get)
			r.Put("/", preferencesHandler.Update)
		})
	})

	return &App{
		Router:      r,
		db:          db,
		cacheClient: cacheClient,
	}, nil
}

// Close releases the app's connections.
func (a *App) Close() {
	if a.cacheClient != nil {
		a.cacheClient.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

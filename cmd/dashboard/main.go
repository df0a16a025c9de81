package main

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alisaviation/metricboard/internal/config"
	"github.com/alisaviation/metricboard/internal/loader"
	"github.com/alisaviation/metricboard/internal/logger"
	"github.com/alisaviation/metricboard/internal/middleware"
	"github.com/alisaviation/metricboard/internal/registry"
	"github.com/alisaviation/metricboard/internal/scheduler"
	"github.com/alisaviation/metricboard/internal/server"
	"github.com/alisaviation/metricboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Log.Sync()

	if err := run(cfg); err != nil {
		logger.Log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	reg := registry.NewRegistry()
	reg.SetOnChange(func() {
		logger.Log.Info("source list changed", zap.Int("sources", len(reg.List())))
	})

	var catalog *registry.Catalog
	if cfg.DatabaseDSN != "" {
		db, err := sql.Open("postgres", cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		catalog, err = registry.NewCatalogFromDB(ctx, db)
		if err != nil {
			return err
		}
		if err := catalog.LoadInto(ctx, reg); err != nil {
			logger.Log.Warn("failed to load persisted sources", zap.Error(err))
		}
	}

	st := store.NewStore()
	sched := scheduler.NewScheduler(reg, st, loader.NewLoader(cfg.LocalRoot))
	sched.SetInterval(cfg.RefreshInterval)
	sched.SetAutoRefresh(cfg.AutoRefresh)
	defer sched.Stop()

	srv := &server.Server{
		Registry:  reg,
		Store:     st,
		Scheduler: sched,
		Catalog:   catalog,
	}

	r := chi.NewRouter()
	r.Use(logger.RequestResponseLogger)
	r.Use(middleware.GzipMiddleware)
	srv.Routes(r)

	logger.Log.Info("dashboard listening", zap.String("address", cfg.Address))
	return http.ListenAndServe(cfg.Address, r)
}

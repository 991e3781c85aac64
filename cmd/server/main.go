package main

import (
	"context"

	"github.com/emberdate/match-engine/internal/app"
	"github.com/emberdate/match-engine/internal/cache"
	"github.com/emberdate/match-engine/internal/config"
	"github.com/emberdate/match-engine/internal/db"
	"github.com/emberdate/match-engine/internal/logger"
	"github.com/emberdate/match-engine/internal/server"
	"github.com/emberdate/match-engine/internal/service/discovery"
	"github.com/emberdate/match-engine/internal/service/likes"
	"github.com/emberdate/match-engine/internal/service/match"
	"github.com/emberdate/match-engine/internal/service/safety"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log, cfg)

	registrars := []server.Registrar{
		discovery.NewRegistrar(appCtx),
		match.NewRegistrar(appCtx),
		likes.NewRegistrar(appCtx),
		safety.NewRegistrar(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}

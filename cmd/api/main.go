package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/MJbae/novel-craft/internal/http/handlers"
	httpapi "github.com/MJbae/novel-craft/internal/http/httpapi"
	"github.com/MJbae/novel-craft/internal/infra"
	"github.com/MJbae/novel-craft/internal/infra/geoip"
	"github.com/MJbae/novel-craft/internal/wiring"
)

func main() {
	infra.LoadEnvFiles()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := wiring.Build(ctx, cfg, &logger, wiring.Options{RunsWorker: cfg.WorkerEnabled})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: startup failed")
	}
	defer services.Close()

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	}
	defer resolver.Close()

	var wg sync.WaitGroup
	if cfg.WorkerEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := services.Worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("api: worker stopped with error")
			}
		}()
	}

	app := handlers.NewApp(services.Projects, services.Characters, services.Episodes, services.Queue, handlers.Options{
		Logger: &logger,
		Ping:   services.Ping,
	})
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Logger:         logger,
		CORSOrigins:    cfg.CORSOrigins,
		DefaultLocale:  cfg.DefaultLocale,
		CountryLookup:  resolver.Lookup(),
		GenerateLimit:  cfg.RateLimitPerMin,
		GenerateWindow: time.Minute,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Bool("worker", cfg.WorkerEnabled).Msg("api: listening")
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("api: http server failed")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: shutdown failed")
	}
	wg.Wait()
	logger.Info().Msg("api: stopped")
}

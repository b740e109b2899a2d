package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/MJbae/novel-craft/internal/infra"
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

	services, err := wiring.Build(ctx, cfg, &logger, wiring.Options{RunsWorker: true})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: startup failed")
	}
	defer services.Close()

	if err := services.Worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker: stopped with error")
	}
}

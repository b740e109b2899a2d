package main

import (
	"flag"
	"os"

	"github.com/MJbae/novel-craft/internal/db"
	"github.com/MJbae/novel-craft/internal/infra"
)

func main() {
	dir := flag.String("dir", string(db.Up), "migration direction: up, down or status")
	flag.Parse()

	infra.LoadEnvFiles()
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if err := db.Migrate(cfg.DatabaseURL, db.Direction(*dir), logger); err != nil {
		logger.Error().Err(err).Str("dir", *dir).Msg("migrate: failed")
		os.Exit(1)
	}
	logger.Info().Str("dir", *dir).Msg("migrate: done")
}

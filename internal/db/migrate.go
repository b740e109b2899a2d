// Package db owns the schema and applies it with goose.
package db

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/MJbae/novel-craft/internal/infra"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Direction selects the goose command run by Migrate.
type Direction string

const (
	Up     Direction = "up"
	Down   Direction = "down"
	Status Direction = "status"
)

// Migrate opens a database/sql connection with lib/pq and runs the embedded
// migrations in the given direction.
func Migrate(databaseURL string, dir Direction, logger infra.Logger) error {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqlDB.Close()

	goose.SetLogger(&gooseLogger{logger: logger})
	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch dir {
	case Up:
		return goose.Up(sqlDB, "migrations")
	case Down:
		return goose.Down(sqlDB, "migrations")
	case Status:
		return goose.Status(sqlDB, "migrations")
	default:
		return fmt.Errorf("unknown migration direction %q", dir)
	}
}

// gooseLogger implements goose.Logger on top of zerolog.
type gooseLogger struct {
	logger infra.Logger
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal().Msgf(format, v...)
}

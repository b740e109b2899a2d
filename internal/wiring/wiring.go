// Package wiring builds the long-lived collaborators shared by the API and
// worker binaries.
package wiring

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MJbae/novel-craft/internal/adapter/repo"
	"github.com/MJbae/novel-craft/internal/generation"
	"github.com/MJbae/novel-craft/internal/infra"
	"github.com/MJbae/novel-craft/internal/prompts"
	"github.com/MJbae/novel-craft/internal/providers/codex"
	"github.com/MJbae/novel-craft/internal/queue"
	"github.com/MJbae/novel-craft/internal/storage"
	"github.com/MJbae/novel-craft/internal/worker"
)

// Container holds the database pool, repositories, queue and worker.
type Container struct {
	Pool       *pgxpool.Pool
	Projects   *repo.ProjectRepositoryPG
	Characters *repo.CharacterRepositoryPG
	Episodes   *repo.EpisodeRepositoryPG
	Events     *repo.EventRepositoryPG
	Queue      *queue.Queue
	Worker     *worker.Worker
}

// Options selects the role of the calling process.
type Options struct {
	// RunsWorker is set by processes that run the worker loop. Only they
	// fail jobs a previous process left running.
	RunsWorker bool
}

// StaleJobCleaner fails jobs left running by a process that died.
type StaleJobCleaner interface {
	CleanupStaleJobs(ctx context.Context) (int64, error)
}

// Build connects to the database and assembles the generation worker. The
// caller owns Close.
func Build(ctx context.Context, cfg *infra.Config, logger *infra.Logger, opts Options) (*Container, error) {
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runner := infra.NewSQLRunner(pool, *logger)

	c := &Container{
		Pool:       pool,
		Projects:   repo.NewProjectRepository(runner),
		Characters: repo.NewCharacterRepository(runner),
		Episodes:   repo.NewEpisodeRepository(runner),
		Events:     repo.NewEventRepository(runner),
		Queue:      queue.New(repo.NewJobRepository(runner), queue.Options{Logger: logger}),
	}

	if err := RecoverStaleJobs(ctx, c.Queue, opts.RunsWorker, logger); err != nil {
		pool.Close()
		return nil, err
	}

	catalogue, err := prompts.Load()
	if err != nil {
		pool.Close()
		return nil, err
	}

	storagePath := cfg.StoragePath
	if abs, err := filepath.Abs(storagePath); err == nil {
		storagePath = abs
	}
	drafts, err := storage.NewFileStore(storagePath)
	if err != nil {
		pool.Close()
		return nil, err
	}

	client := codex.NewClient(codex.Options{Binary: cfg.CodexPath, Model: cfg.CodexModel, Logger: logger})
	service := generation.NewService(client, c.Queue, catalogue, generation.Repositories{
		Projects:   c.Projects,
		Characters: c.Characters,
		Episodes:   c.Episodes,
		Events:     c.Events,
	}, generation.Options{
		Logger:        logger,
		Drafts:        drafts,
		ContextBudget: cfg.ContextBudget,
		MaxRetries:    cfg.CodexMaxRetries,
	})

	c.Worker = worker.New(c.Queue, service.Registry(), worker.Options{
		Logger:        logger,
		PollInterval:  cfg.WorkerPollInterval,
		MaxConcurrent: cfg.WorkerMaxConcurrent,
	})
	logger.Info().
		Str("codex_model", client.Model()).
		Str("storage_path", drafts.BasePath()).
		Msg("wiring: services ready")
	return c, nil
}

// RecoverStaleJobs runs the stale job cleanup when the process hosts the
// worker and skips it otherwise.
func RecoverStaleJobs(ctx context.Context, cleaner StaleJobCleaner, runsWorker bool, logger *infra.Logger) error {
	if !runsWorker {
		logger.Info().Msg("wiring: worker disabled, stale job cleanup skipped")
		return nil
	}
	if _, err := cleaner.CleanupStaleJobs(ctx); err != nil {
		return fmt.Errorf("cleanup stale jobs: %w", err)
	}
	return nil
}

// Ping reports database reachability.
func (c *Container) Ping(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}

func (c *Container) Close() {
	if c != nil && c.Pool != nil {
		c.Pool.Close()
	}
}

// Package app assembles the state database, repositories and services shared by every command.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"grognon/internal/background"
	"grognon/internal/config"
	"grognon/internal/database"
	"grognon/internal/repositories"
	"grognon/internal/services"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *database.Database

	Connections *services.ConnectionService
	Reflection  *services.ReflectionService
	Crons       *services.CronService
	Queries     *services.QueryService
}

// New opens the state database under cfg.Data.Dir and connects every stored connection.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := database.Open(ctx, cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	connectionRepo := repositories.NewConnectionRepository(db.DB)
	schemaRepo := repositories.NewSchemaRepository(db.DB)
	cronRepo := repositories.NewCronRepository(db.DB)
	historyRepo := repositories.NewQueryHistoryRepository(db.DB)

	reflection := services.NewReflectionService(schemaRepo)
	connections := services.NewConnectionService(connectionRepo, reflection)

	a := &App{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Connections: connections,
		Reflection:  reflection,
		Crons:       services.NewCronService(cronRepo, connections, cfg.Jobs.QueryTimeout),
		Queries:     services.NewQueryService(connections, historyRepo, cfg.Jobs.QueryTimeout),
	}

	if err := connections.Setup(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to set up connections: %w", err)
	}

	logger.Info("state database ready", slog.String("path", db.Path), slog.Int("connected", len(connections.Registered())))
	return a, nil
}

func (a *App) Scheduler() *background.Scheduler {
	return background.NewScheduler(a.Config.Jobs, a.Crons, a.Connections, a.Logger)
}

func (a *App) Close() {
	a.Connections.Close()
	if err := a.DB.Close(); err != nil {
		a.Logger.Warn("Failed to close state database", slog.Any("error", err))
	}
}

package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"grognon/internal/apperrors"
	"grognon/internal/database"
	"grognon/internal/models"
	"grognon/internal/repositories"
)

// ConnectionService owns the open handles of every live connection.
type ConnectionService struct {
	repo       *repositories.ConnectionRepository
	reflection *ReflectionService

	mu      sync.RWMutex
	handles map[int64]*sql.DB
}

func NewConnectionService(repo *repositories.ConnectionRepository, reflection *ReflectionService) *ConnectionService {
	return &ConnectionService{
		repo:       repo,
		reflection: reflection,
		handles:    make(map[int64]*sql.DB),
	}
}

// Setup connects every non-deleted connection. Individual failures are recorded on the row.
func (s *ConnectionService) Setup(ctx context.Context) error {
	slog.Info("Setting up connections")

	connections, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	for _, con := range connections {
		if err := s.connect(ctx, con); err != nil {
			slog.Warn("Failed to connect", slog.Int64("connection_id", con.ConnectionId), slog.Any("error", err))
		}
	}
	return nil
}

func (s *ConnectionService) open(ctx context.Context, con models.Connection) (*sql.DB, error) {
	switch con.DbType {
	case models.DbTypeSQLite:
		return database.OpenSQLite(ctx, con.ConnectionUrl)
	default:
		return nil, fmt.Errorf("unknown database type %s", con.DbType)
	}
}

func (s *ConnectionService) connect(ctx context.Context, con models.Connection) error {
	db, err := s.open(ctx, con)
	if err != nil {
		if markErr := s.repo.MarkDisconnected(ctx, con.ConnectionId, err); markErr != nil {
			slog.Error("Failed to save connection error", slog.Int64("connection_id", con.ConnectionId), slog.Any("error", markErr))
		}
		return apperrors.Wrapf(err, apperrors.ErrTypeConnection, "failed to connect to connection %d", con.ConnectionId)
	}

	if err := s.repo.MarkConnected(ctx, con.ConnectionId); err != nil {
		db.Close()
		return err
	}

	s.register(con.ConnectionId, db)
	slog.Info("Connected", slog.Int64("connection_id", con.ConnectionId))
	return nil
}

func (s *ConnectionService) register(id int64, db *sql.DB) {
	s.mu.Lock()
	previous, ok := s.handles[id]
	s.handles[id] = db
	s.mu.Unlock()

	if ok && previous != db {
		_ = previous.Close()
	}
}

func (s *ConnectionService) unregister(id int64) {
	s.mu.Lock()
	db, ok := s.handles[id]
	delete(s.handles, id)
	s.mu.Unlock()

	if ok {
		if err := db.Close(); err != nil {
			slog.Warn("Failed to close connection", slog.Int64("connection_id", id), slog.Any("error", err))
		}
	}
}

// Handle returns the open handle of a connection.
func (s *ConnectionService) Handle(id int64) (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	db, ok := s.handles[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrTypeConnection, "connection %d is not connected", id)
	}
	return db, nil
}

// Registered returns the ids of every open handle.
func (s *ConnectionService) Registered() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.handles))
	for id := range s.handles {
		ids = append(ids, id)
	}
	return ids
}

// Create saves a new connection, opens it and reflects its schema.
func (s *ConnectionService) Create(ctx context.Context, input models.ConnectionCreate) (*models.Connection, error) {
	input.ConnectionUrl = strings.TrimSpace(input.ConnectionUrl)
	if !input.DbType.Valid() {
		return nil, apperrors.Validation("DbType", fmt.Sprintf("unsupported database type %q", input.DbType))
	}
	if input.ConnectionUrl == "" {
		return nil, apperrors.Validation("ConnectionUrl", "connection url is required")
	}

	con, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.connect(ctx, *con); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeValidation, "failed to connect").WithField("ConnectionUrl")
	}

	if err := s.ReflectConnection(ctx, con.ConnectionId); err != nil {
		slog.Warn("Failed to reflect new connection", slog.Int64("connection_id", con.ConnectionId), slog.Any("error", err))
	}

	return s.repo.GetByID(ctx, con.ConnectionId)
}

func (s *ConnectionService) Get(ctx context.Context, id int64) (*models.Connection, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ConnectionService) List(ctx context.Context) ([]models.Connection, error) {
	return s.repo.List(ctx)
}

// Delete closes the connection and marks it removed.
func (s *ConnectionService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	s.unregister(id)
	return s.repo.SoftDelete(ctx, id)
}

// Refresh pings the open handles and retries the connections that are not open.
func (s *ConnectionService) Refresh(ctx context.Context) error {
	slog.Debug("Refreshing connections")

	connections, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	for _, con := range connections {
		db, err := s.Handle(con.ConnectionId)
		if err != nil {
			if err := s.connect(ctx, con); err != nil {
				slog.Warn("Failed to reconnect", slog.Int64("connection_id", con.ConnectionId), slog.Any("error", err))
			}
			continue
		}

		if err := db.PingContext(ctx); err != nil {
			slog.Warn("Connection lost", slog.Int64("connection_id", con.ConnectionId), slog.Any("error", err))
			s.unregister(con.ConnectionId)
			if markErr := s.repo.MarkDisconnected(ctx, con.ConnectionId, err); markErr != nil {
				slog.Error("Failed to save connection error", slog.Int64("connection_id", con.ConnectionId), slog.Any("error", markErr))
			}
			continue
		}

		if err := s.repo.MarkConnected(ctx, con.ConnectionId); err != nil {
			slog.Error("Failed to save connection state", slog.Int64("connection_id", con.ConnectionId), slog.Any("error", err))
		}
	}
	return nil
}

// ReflectConnection refreshes the cached schema of one open connection.
func (s *ConnectionService) ReflectConnection(ctx context.Context, id int64) error {
	con, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	db, err := s.Handle(con.ConnectionId)
	if err != nil {
		return err
	}

	switch con.DbType {
	case models.DbTypeSQLite:
		return s.reflection.Reflect(ctx, con.ConnectionId, db)
	default:
		return apperrors.Newf(apperrors.ErrTypeValidation, "unknown database type %s", con.DbType)
	}
}

// ReflectAll refreshes the cached schema of every open connection.
func (s *ConnectionService) ReflectAll(ctx context.Context) error {
	slog.Info("Reflecting all connections")

	connections, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	for _, con := range connections {
		if err := s.ReflectConnection(ctx, con.ConnectionId); err != nil {
			slog.Error("Failed to reflect connection", slog.Int64("connection_id", con.ConnectionId), slog.Any("error", err))
		}
	}
	return nil
}

// Close releases every open handle.
func (s *ConnectionService) Close() {
	for _, id := range s.Registered() {
		s.unregister(id)
	}
}

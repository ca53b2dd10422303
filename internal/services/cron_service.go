package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"grognon/internal/apperrors"
	"grognon/internal/models"
	"grognon/internal/repositories"
)

type CronService struct {
	repo        *repositories.CronRepository
	connections *ConnectionService
	timeout     time.Duration
}

func NewCronService(repo *repositories.CronRepository, connections *ConnectionService, timeout time.Duration) *CronService {
	return &CronService{
		repo:        repo,
		connections: connections,
		timeout:     timeout,
	}
}

func validateCron(input models.CronCreate) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.Validation("Name", "name is required")
	}
	if strings.TrimSpace(input.Command) == "" {
		return apperrors.Validation("Command", "command is required")
	}
	if !input.Schedule.Valid() {
		return apperrors.Validation("Schedule", fmt.Sprintf("unknown schedule %q", input.Schedule))
	}
	if err := ValidateSQLQuery(input.Command); err != nil {
		return apperrors.Validation("Command", err.Error())
	}
	return nil
}

func (s *CronService) handle(connectionId int64) (*sql.DB, error) {
	db, err := s.connections.Handle(connectionId)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeValidation, "connection unavailable").WithField("ConnectionId")
	}
	return db, nil
}

// Create saves a cron, runs its command once to learn its outputs and creates its data table.
func (s *CronService) Create(ctx context.Context, input models.CronCreate) (*models.Cron, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateCron(input); err != nil {
		return nil, err
	}

	db, err := s.handle(input.ConnectionId)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.setup(ctx, db, created); err != nil {
		if delErr := s.repo.Delete(ctx, created.CronId); delErr != nil {
			slog.Error("Failed to roll back cron", slog.Int64("cron_id", created.CronId), slog.Any("error", delErr))
		}
		return nil, err
	}

	slog.Info("Cron created", slog.Int64("cron_id", created.CronId), slog.String("schedule", string(created.Schedule)))
	return created, nil
}

func (s *CronService) setup(ctx context.Context, db *sql.DB, c *models.Cron) error {
	outputs, err := s.reflectCommand(ctx, db, c.CronId, c.Command)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTypeValidation, "failed to reflect command").WithField("Command")
	}
	if err := s.repo.CreateDataTable(ctx, c.CronId, outputs); err != nil {
		return err
	}
	return s.repo.SaveOutputs(ctx, c.CronId, outputs)
}

func (s *CronService) execute(ctx context.Context, db *sql.DB, command string) ([]models.Object, []string, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := db.QueryContext(queryCtx, command)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	return repositories.ScanObjects(rows)
}

func (s *CronService) reflectCommand(ctx context.Context, db *sql.DB, cronId int64, command string) ([]models.CronOutput, error) {
	objects, columns, err := s.execute(ctx, db, command)
	if err != nil {
		return nil, err
	}
	return InferOutputs(cronId, columns, objects)
}

func valueType(value interface{}) (string, error) {
	switch value.(type) {
	case string, []byte, time.Time:
		return models.OutputText, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return models.OutputInteger, nil
	case float32, float64:
		return models.OutputReal, nil
	default:
		return "", fmt.Errorf("unknown type %T", value)
	}
}

// InferOutputs derives one typed output per column. Every row must carry a non-null value of a single type.
func InferOutputs(cronId int64, columns []string, objects []models.Object) ([]models.CronOutput, error) {
	if len(objects) == 0 {
		return nil, fmt.Errorf("no rows returned")
	}

	seen := make(map[string]bool, len(columns))
	outputs := make([]models.CronOutput, 0, len(columns))
	for _, col := range columns {
		key := strings.ToLower(col)
		if key == repositories.TimestampColumn {
			return nil, fmt.Errorf("column %s is reserved", col)
		}
		if seen[key] {
			return nil, fmt.Errorf("column %s is returned twice", col)
		}
		seen[key] = true

		output := models.CronOutput{CronId: cronId, Name: col}
		for _, object := range objects {
			value := object[col]
			if value == nil {
				return nil, fmt.Errorf("column %s is null", col)
			}
			typ, err := valueType(value)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			if output.Type == "" {
				output.Type = typ
			} else if output.Type != typ {
				return nil, fmt.Errorf("column %s has mixed types", col)
			}
		}
		outputs = append(outputs, output)
	}

	return outputs, nil
}

// Update changes a cron's name, command or schedule. The command must keep producing the same outputs.
func (s *CronService) Update(ctx context.Context, id int64, input models.CronCreate) (*models.Cron, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.ConnectionId != 0 && input.ConnectionId != current.ConnectionId {
		return nil, apperrors.Validation("ConnectionId", "the connection of a cron cannot change")
	}

	input.ConnectionId = current.ConnectionId
	input.Name = strings.TrimSpace(input.Name)
	if err := validateCron(input); err != nil {
		return nil, err
	}

	db, err := s.handle(current.ConnectionId)
	if err != nil {
		return nil, err
	}

	oldOutputs, err := s.repo.Outputs(ctx, id)
	if err != nil {
		return nil, err
	}
	newOutputs, err := s.reflectCommand(ctx, db, id, input.Command)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTypeValidation, "failed to reflect command").WithField("Command")
	}
	if err := compareOutputs(oldOutputs, newOutputs); err != nil {
		return nil, err
	}

	updated := *current
	updated.Name = input.Name
	updated.Command = input.Command
	updated.Schedule = input.Schedule
	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func compareOutputs(oldOutputs, newOutputs []models.CronOutput) error {
	if len(newOutputs) != len(oldOutputs) {
		return apperrors.Newf(apperrors.ErrTypeConflict,
			"cannot update cron outputs, number of outputs changed: %d -> %d", len(oldOutputs), len(newOutputs)).WithField("Command")
	}
	for i := range oldOutputs {
		if oldOutputs[i].Name != newOutputs[i].Name || oldOutputs[i].Type != newOutputs[i].Type {
			return apperrors.Newf(apperrors.ErrTypeConflict,
				"cannot update cron outputs, output %d changed: %s %s -> %s %s",
				i, oldOutputs[i].Name, oldOutputs[i].Type, newOutputs[i].Name, newOutputs[i].Type).WithField("Command")
		}
	}
	return nil
}

func (s *CronService) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *CronService) Get(ctx context.Context, id int64) (*models.Cron, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns the live crons, optionally only those of one connection.
func (s *CronService) List(ctx context.Context, connectionId *int64) ([]models.Cron, error) {
	return s.repo.List(ctx, connectionId)
}

func (s *CronService) Outputs(ctx context.Context, id int64) ([]models.CronOutput, error) {
	return s.repo.Outputs(ctx, id)
}

func (s *CronService) Data(ctx context.Context, id int64) ([]models.Object, error) {
	return s.repo.Data(ctx, id)
}

// IsDue reports whether a cron should run at now.
func IsDue(c models.Cron, now time.Time) (bool, error) {
	if !c.LastRunAt.Valid {
		return true, nil
	}
	schedule, err := cron.ParseStandard(c.Schedule.Spec())
	if err != nil {
		return false, fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
	}
	return !schedule.Next(c.LastRunAt.Time).After(now), nil
}

// ExecuteDue runs every due cron and returns how many ran successfully.
func (s *CronService) ExecuteDue(ctx context.Context, now time.Time) (int, error) {
	slog.Debug("Executing crons")

	crons, err := s.repo.List(ctx, nil)
	if err != nil {
		return 0, err
	}
	slog.Debug("Found crons", slog.Int("count", len(crons)))

	executed := 0
	for _, c := range crons {
		due, err := IsDue(c, now)
		if err != nil {
			slog.Error("Failed to check cron schedule", slog.Int64("cron_id", c.CronId), slog.Any("error", err))
			continue
		}
		if !due {
			continue
		}

		if err := s.run(ctx, c, now); err != nil {
			slog.Error("Failed to execute cron", slog.Int64("cron_id", c.CronId), slog.Any("error", err))
			continue
		}
		executed++
	}

	return executed, nil
}

func (s *CronService) run(ctx context.Context, c models.Cron, now time.Time) error {
	db, err := s.connections.Handle(c.ConnectionId)
	if err != nil {
		return err
	}

	slog.Info("Executing cron", slog.Int64("cron_id", c.CronId))

	at := models.NewEpochTime(now.Truncate(time.Second))
	if err := s.repo.SetLastRun(ctx, c.CronId, at); err != nil {
		return err
	}

	objects, columns, err := s.execute(ctx, db, c.Command)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrTypeConnection, "failed to run command of cron %d", c.CronId)
	}

	if err := s.repo.InsertData(ctx, c.CronId, at, columns, objects); err != nil {
		return err
	}

	slog.Info("Cron executed", slog.Int64("cron_id", c.CronId), slog.Int("rows", len(objects)))
	return nil
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grognon/internal/apperrors"
	"grognon/internal/models"
)

func TestInferOutputs(t *testing.T) {
	tests := []struct {
		name     string
		columns  []string
		objects  []models.Object
		expected []models.CronOutput
		wantErr  string
	}{
		{
			name:    "all types",
			columns: []string{"label", "n", "avg", "raw"},
			objects: []models.Object{
				{"label": "a", "n": int64(1), "avg": 1.5, "raw": []byte("x")},
				{"label": "b", "n": int64(2), "avg": 2.5, "raw": []byte("y")},
			},
			expected: []models.CronOutput{
				{CronId: 7, Name: "label", Type: models.OutputText},
				{CronId: 7, Name: "n", Type: models.OutputInteger},
				{CronId: 7, Name: "avg", Type: models.OutputReal},
				{CronId: 7, Name: "raw", Type: models.OutputText},
			},
		},
		{
			name:    "no rows",
			columns: []string{"n"},
			wantErr: "no rows returned",
		},
		{
			name:    "null value",
			columns: []string{"n"},
			objects: []models.Object{{"n": int64(1)}, {"n": nil}},
			wantErr: "column n is null",
		},
		{
			name:    "mixed types",
			columns: []string{"n"},
			objects: []models.Object{{"n": int64(1)}, {"n": 1.5}},
			wantErr: "column n has mixed types",
		},
		{
			name:    "unknown type",
			columns: []string{"n"},
			objects: []models.Object{{"n": struct{}{}}},
			wantErr: "unknown type",
		},
		{
			name:    "duplicate column",
			columns: []string{"n", "n"},
			objects: []models.Object{{"n": int64(1)}},
			wantErr: "returned twice",
		},
		{
			name:    "duplicate column differing in case",
			columns: []string{"total", "Total"},
			objects: []models.Object{{"total": int64(1), "Total": int64(2)}},
			wantErr: "column Total is returned twice",
		},
		{
			name:    "reserved timestamp column",
			columns: []string{"n", "Timestamp"},
			objects: []models.Object{{"n": int64(1), "Timestamp": int64(2)}},
			wantErr: "column Timestamp is reserved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outputs, err := InferOutputs(7, tt.columns, tt.objects)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, outputs)
		})
	}
}

func TestIsDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		schedule models.Schedule
		lastRun  models.EpochTime
		expected bool
	}{
		{"never run", models.ScheduleYear, models.EpochTime{}, true},
		{"minute elapsed", models.ScheduleMinute, models.NewEpochTime(now.Add(-time.Minute)), true},
		{"just ran", models.ScheduleMinute, models.NewEpochTime(now), false},
		{"hour boundary crossed", models.ScheduleHour, models.NewEpochTime(now.Add(-31 * time.Minute)), true},
		{"hour boundary not crossed", models.ScheduleHour, models.NewEpochTime(now.Add(-20 * time.Minute)), false},
		{"day not crossed", models.ScheduleDay, models.NewEpochTime(now.Add(-2 * time.Hour)), false},
		{"day crossed", models.ScheduleDay, models.NewEpochTime(now.Add(-13 * time.Hour)), true},
		{"month not crossed", models.ScheduleMonth, models.NewEpochTime(now.AddDate(0, 0, -5)), false},
		{"year crossed", models.ScheduleYear, models.NewEpochTime(now.AddDate(-1, 0, 0)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due, err := IsDue(models.Cron{Schedule: tt.schedule, LastRunAt: tt.lastRun}, now)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, due)
		})
	}

	_, err := IsDue(models.Cron{Schedule: "fortnight", LastRunAt: models.NewEpochTime(now)}, now)
	assert.Error(t, err)
}

func TestCronService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	con := env.connect(t)

	cron, err := env.crons.Create(ctx, models.CronCreate{
		ConnectionId: con.ConnectionId,
		Name:         " users ",
		Command:      "SELECT count(*) AS users, avg(score) AS avg_score FROM users",
		Schedule:     models.ScheduleHour,
	})
	require.NoError(t, err)
	assert.Equal(t, "users", cron.Name)

	outputs, err := env.crons.Outputs(ctx, cron.CronId)
	require.NoError(t, err)
	assert.Equal(t, []models.CronOutput{
		{CronId: cron.CronId, Name: "users", Type: models.OutputInteger},
		{CronId: cron.CronId, Name: "avg_score", Type: models.OutputReal},
	}, outputs)

	data, err := env.crons.Data(ctx, cron.CronId)
	require.NoError(t, err)
	assert.Empty(t, data)

	list, err := env.crons.List(ctx, &con.ConnectionId)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCronService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	con := env.connect(t)

	valid := models.CronCreate{ConnectionId: con.ConnectionId, Name: "n", Command: "SELECT 1 AS one", Schedule: models.ScheduleDay}

	tests := []struct {
		name   string
		mutate func(c *models.CronCreate)
		field  string
	}{
		{"blank name", func(c *models.CronCreate) { c.Name = " " }, "Name"},
		{"blank command", func(c *models.CronCreate) { c.Command = "" }, "Command"},
		{"bad schedule", func(c *models.CronCreate) { c.Schedule = "fortnight" }, "Schedule"},
		{"two statements", func(c *models.CronCreate) { c.Command = "SELECT 1; SELECT 2" }, "Command"},
		{"unknown connection", func(c *models.CronCreate) { c.ConnectionId = 999 }, "ConnectionId"},
		{"no rows", func(c *models.CronCreate) { c.Command = "SELECT id FROM users WHERE id < 0" }, "Command"},
		{"null column", func(c *models.CronCreate) { c.Command = "SELECT NULL AS nothing" }, "Command"},
		{"broken sql", func(c *models.CronCreate) { c.Command = "SELECT * FROM nope" }, "Command"},
		{"reserved timestamp output", func(c *models.CronCreate) { c.Command = "SELECT 1 AS timestamp" }, "Command"},
		{"outputs differing in case", func(c *models.CronCreate) { c.Command = "SELECT 1 AS a, 2 AS A" }, "Command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)

			_, err := env.crons.Create(ctx, input)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation), err.Error())
			assert.Equal(t, tt.field, apperrors.FieldOf(err, ""))
		})
	}

	// failed creations leave neither rows nor data tables behind
	list, err := env.crons.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	var tables int
	require.NoError(t, env.db.QueryRow("SELECT count(*) FROM sqlite_schema WHERE name GLOB 'cron_[0-9]*'").Scan(&tables))
	assert.Zero(t, tables)
}

func TestCronService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	con := env.connect(t)

	cron, err := env.crons.Create(ctx, models.CronCreate{
		ConnectionId: con.ConnectionId,
		Name:         "orders",
		Command:      "SELECT count(*) AS n FROM orders",
		Schedule:     models.ScheduleHour,
	})
	require.NoError(t, err)

	updated, err := env.crons.Update(ctx, cron.CronId, models.CronCreate{
		Name:     "big orders",
		Command:  "SELECT count(*) AS n FROM orders WHERE total > 6",
		Schedule: models.ScheduleDay,
	})
	require.NoError(t, err)
	assert.Equal(t, "big orders", updated.Name)
	assert.Equal(t, models.ScheduleDay, updated.Schedule)

	_, err = env.crons.Update(ctx, cron.CronId, models.CronCreate{
		Name:     "orders",
		Command:  "SELECT count(*) AS n, sum(total) AS total FROM orders",
		Schedule: models.ScheduleDay,
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConflict))

	_, err = env.crons.Update(ctx, cron.CronId, models.CronCreate{
		Name:     "orders",
		Command:  "SELECT sum(total) AS n FROM orders",
		Schedule: models.ScheduleDay,
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConflict))

	_, err = env.crons.Update(ctx, cron.CronId, models.CronCreate{
		ConnectionId: con.ConnectionId + 1,
		Name:         "orders",
		Command:      "SELECT count(*) AS n FROM orders",
		Schedule:     models.ScheduleDay,
	})
	assert.Equal(t, "ConnectionId", apperrors.FieldOf(err, ""))

	reloaded, err := env.crons.Get(ctx, cron.CronId)
	require.NoError(t, err)
	assert.Equal(t, "big orders", reloaded.Name)
}

func TestCronService_ExecuteDue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	con := env.connect(t)

	perUser, err := env.crons.Create(ctx, models.CronCreate{
		ConnectionId: con.ConnectionId,
		Name:         "orders per user",
		Command:      "SELECT user_id, count(*) AS n FROM orders GROUP BY user_id",
		Schedule:     models.ScheduleHour,
	})
	require.NoError(t, err)

	broken, err := env.crons.Create(ctx, models.CronCreate{
		ConnectionId: con.ConnectionId,
		Name:         "tags",
		Command:      "SELECT id FROM users",
		Schedule:     models.ScheduleHour,
	})
	require.NoError(t, err)
	_, err = env.target.Exec("ALTER TABLE users RENAME TO people")
	require.NoError(t, err)

	now := time.Date(2026, 3, 10, 12, 30, 0, 0, time.Local)
	executed, err := env.crons.ExecuteDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, executed)

	data, err := env.crons.Data(ctx, perUser.CronId)
	require.NoError(t, err)
	require.Len(t, data, 2)
	for _, row := range data {
		assert.Equal(t, now.Unix(), row["timestamp"])
	}

	// both ran, so neither is due again within the hour
	for _, id := range []int64{perUser.CronId, broken.CronId} {
		c, err := env.crons.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, now.Unix(), c.LastRunAt.Unix())
	}

	executed, err = env.crons.ExecuteDue(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, executed)

	_, err = env.target.Exec("INSERT INTO orders (id, user_id, total) VALUES (4, 3, 1.0)")
	require.NoError(t, err)

	later := now.Add(time.Hour)
	executed, err = env.crons.ExecuteDue(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 1, executed)

	data, err = env.crons.Data(ctx, perUser.CronId)
	require.NoError(t, err)
	require.Len(t, data, 5)
	assert.Equal(t, later.Unix(), data[0]["timestamp"])
	assert.Equal(t, now.Unix(), data[4]["timestamp"])
}

func TestCronService_DeleteStopsExecution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	con := env.connect(t)

	cron, err := env.crons.Create(ctx, models.CronCreate{
		ConnectionId: con.ConnectionId,
		Name:         "n",
		Command:      "SELECT 1 AS one",
		Schedule:     models.ScheduleMinute,
	})
	require.NoError(t, err)
	require.NoError(t, env.crons.Delete(ctx, cron.CronId))

	executed, err := env.crons.ExecuteDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, executed)

	_, err = env.crons.Get(ctx, cron.CronId)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

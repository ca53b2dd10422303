// Package background runs the periodic jobs: due crons, schema reflection and connection refresh.
package background

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"grognon/internal/config"
)

type CronExecutor interface {
	ExecuteDue(ctx context.Context, now time.Time) (int, error)
}

type ConnectionMaintainer interface {
	ReflectAll(ctx context.Context) error
	Refresh(ctx context.Context) error
}

// slogAdapter satisfies cron.Logger.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append(keysAndValues, "error", err)...)
}

type job struct {
	name     string
	interval time.Duration
	eager    bool
	run      func(ctx context.Context) error
}

type Scheduler struct {
	cron  *cron.Cron
	chain cron.Chain
	jobs  []job
}

func NewScheduler(cfg config.JobsConfig, crons CronExecutor, connections ConnectionMaintainer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := slogAdapter{logger: logger.With(slog.String("component", "scheduler"))}

	return &Scheduler{
		cron:  cron.New(cron.WithLogger(cronLogger)),
		chain: cron.NewChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		jobs: []job{
			{
				name:     "crons",
				interval: cfg.CronInterval,
				eager:    true,
				run: func(ctx context.Context) error {
					_, err := crons.ExecuteDue(ctx, time.Now())
					return err
				},
			},
			{
				name:     "reflection",
				interval: cfg.ReflectionInterval,
				eager:    true,
				run:      connections.ReflectAll,
			},
			{
				name:     "refresh",
				interval: cfg.RefreshInterval,
				eager:    false,
				run:      connections.Refresh,
			},
		},
	}
}

// Start schedules every job and returns. The jobs stop once ctx is done.
// The eager run and the periodic runs of a job share one chain, so they never overlap.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, j := range s.jobs {
		if j.interval <= 0 {
			return fmt.Errorf("failed to schedule %s job: interval must be positive, got %s", j.name, j.interval)
		}
	}

	for _, j := range s.jobs {
		j := j
		wrapped := s.chain.Then(cron.FuncJob(func() {
			if err := j.run(ctx); err != nil {
				slog.Error("Background job failed", slog.String("job", j.name), slog.Any("error", err))
			}
		}))

		s.cron.Schedule(cron.Every(j.interval), wrapped)
		if j.eager {
			go wrapped.Run()
		}
	}

	s.cron.Start()
	slog.Info("Background jobs started", slog.Int("jobs", len(s.jobs)))

	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
		slog.Info("Background jobs stopped")
	}()
	return nil
}

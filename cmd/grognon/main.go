package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"grognon/internal/app"
	"grognon/internal/config"
	"grognon/internal/logging"
	"grognon/internal/server"
)

func newRootCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "grognon",
		Usage:  "Scavenge for statistics",
		Writer: w,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Folder where the data is stored",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP API and the background jobs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Address to listen on",
					},
				},
				Action: serveAction,
			},
			{
				Name:  "reflect",
				Usage: "Reflect the schema of every connection once",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					if err := a.Connections.ReflectAll(ctx); err != nil {
						return err
					}
					_, err := fmt.Fprintf(cmd.Root().Writer, "Reflected %d connection(s)\n", len(a.Connections.Registered()))
					return err
				}),
			},
			{
				Name:  "run-crons",
				Usage: "Execute every due cron once",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					executed, err := a.Crons.ExecuteDue(ctx, time.Now())
					if err != nil {
						return err
					}
					_, err = fmt.Fprintf(cmd.Root().Writer, "Executed %d cron(s)\n", executed)
					return err
				}),
			},
			{
				Name:  "connections",
				Usage: "List connections",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					connections, err := a.Connections.List(ctx)
					if err != nil {
						return err
					}
					renderConnections(cmd.Root().Writer, connections)
					return nil
				}),
			},
			{
				Name:  "crons",
				Usage: "List crons",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, a *app.App) error {
					crons, err := a.Crons.List(ctx, nil)
					if err != nil {
						return err
					}
					renderCrons(cmd.Root().Writer, crons)
					return nil
				}),
			},
		},
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	return config.Load(cmd.String("config"), config.Overrides{
		DataDir:  cmd.String("data"),
		Addr:     cmd.String("addr"),
		LogLevel: cmd.String("log-level"),
	})
}

// withApp loads the configuration and opens the application around action.
func withApp(action func(ctx context.Context, cmd *cli.Command, a *app.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := logging.New(cfg.Logging, nil)

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		return action(ctx, cmd, a)
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withApp(func(ctx context.Context, _ *cli.Command, a *app.App) error {
		if err := a.Scheduler().Start(ctx); err != nil {
			return err
		}
		return server.NewServer(a.Config.Server, a).Run(ctx)
	})(ctx, cmd)
}

func main() {
	if err := newRootCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

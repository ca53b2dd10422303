package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"grognon/internal/app"
	"grognon/internal/config"
	"grognon/internal/handlers"
	"grognon/internal/logging"
	"grognon/internal/middlewares"
	"grognon/internal/routes"
)

type Server struct {
	cfg    config.ServerConfig
	router *gin.Engine
	logger *slog.Logger
}

func NewServer(cfg config.ServerConfig, a *app.App) *Server {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Dependency injection
	connectionHandler := handlers.NewConnectionHandler(a.Connections, a.Reflection, a.Crons)
	cronHandler := handlers.NewCronHandler(a.Crons, a.Connections)
	queryHandler := handlers.NewQueryHandler(a.Queries)
	metaHandler := handlers.NewMetaHandler()

	return &Server{
		cfg:    cfg,
		router: NewRouter(cfg, logger, connectionHandler, cronHandler, queryHandler, metaHandler),
		logger: logger,
	}
}

// NewRouter builds the gin engine with its middleware chain and every route.
func NewRouter(cfg config.ServerConfig, logger *slog.Logger, connectionHandler *handlers.ConnectionHandler, cronHandler *handlers.CronHandler, queryHandler *handlers.QueryHandler, metaHandler *handlers.MetaHandler) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middlewares.RequestID,
		logging.GinLogger(logger),
		cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middlewares.RequestIDHeader},
			ExposeHeaders:    []string{middlewares.RequestIDHeader},
			AllowCredentials: true,
		}),
		middlewares.Session(middlewares.NewSessionStore(cfg.SessionKey)),
	)

	routes.RegisterRoutes(router, connectionHandler, cronHandler, queryHandler, metaHandler)
	return router
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.router,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		IdleTimeout:  s.cfg.IdleTimeout,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	eg.Go(func() error {
		s.logger.Info("Server listening", slog.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down server gracefully ...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

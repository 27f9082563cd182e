package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chat-sentiment/backend/conversation/grpc"
	"chat-sentiment/backend/pkg/config"
	"chat-sentiment/backend/pkg/di"
	"chat-sentiment/backend/pkg/logger"
	"chat-sentiment/backend/pkg/router"
	"chat-sentiment/backend/shared/observability"

	"golang.org/x/sync/errgroup"
)

const serviceName = "chat-sentiment"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.GetGlobal().LogError(err, "Failed to load configuration")
		os.Exit(1)
	}

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"
	log := logger.New(logConfig)
	logger.SetGlobal(log)

	if err := run(cfg, log); err != nil {
		log.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting application",
		"version", cfg.Server.Version,
		"env", cfg.Server.Env,
		"driver", cfg.Database.Driver,
	)

	shutdownTracing, err := observability.SetupTracing(serviceName, cfg.Server.Version, cfg.Observability.TracingEnabled)
	if err != nil {
		return err
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics, err = observability.SetupMetrics(serviceName, cfg.Server.Version)
		if err != nil {
			return err
		}
	}

	container, err := di.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.LogError(err, "Failed to close stores")
		}
	}()

	r := router.New(container)
	r.SetupRoutes()
	if metrics != nil {
		r.MountMetrics(metrics.Handler)
	}
	r.Start(ctx)
	container.Health.Start(ctx)
	container.Secrets.Start(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r.Engine,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Server.GRPCPort != "" {
		healthServer := grpc.NewHealthServer(container.Health, log)
		g.Go(func() error {
			return healthServer.ListenAndServe(gctx, cfg.Server.GRPCPort)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if tErr := shutdownTracing(shutdownCtx); tErr != nil {
			log.LogError(tErr, "Failed to flush traces")
		}
		if metrics != nil {
			if mErr := metrics.Shutdown(shutdownCtx); mErr != nil {
				log.LogError(mErr, "Failed to stop meter provider")
			}
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server exited")
	return nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/brandsite-backend/config"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/bootstrap"
	contenthttp "github.com/GoSim-25-26J-441/brandsite-backend/internal/content/http"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/logging"
	revhttp "github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.App.ServiceName, logging.ParseLevel(cfg.App.LogLevel))
	slog.SetDefault(log)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.OpenInfra(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to backing services", "error", err)
		os.Exit(1)
	}
	defer infra.Close()

	svc := bootstrap.BuildServices(infra)

	authMW, err := bootstrap.AuthMiddleware(ctx, cfg, svc.Users, log)
	if err != nil {
		log.Error("failed to configure authentication", "error", err)
		os.Exit(1)
	}

	if cfg.Revalidation.SweeperEnabled {
		if err := svc.Sweeper.Start(ctx, cfg.Revalidation.SweepSpec); err != nil {
			log.Error("failed to start sweeper", "error", err)
			os.Exit(1)
		}
		defer svc.Sweeper.Stop()
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    cfg.App.ServiceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RatePerMinute:  cfg.Revalidation.RatePerMinute,
		Logger:         log,
		DB:             infra.DB.Pool,
		Redis:          infra.Redis,
		Auth:           authMW,
		Content:        contenthttp.New(svc.Editor),
		Revalidation:   revhttp.New(svc.Trigger, svc.Events),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", srv.Addr, "env", cfg.App.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/brandsite-backend/config"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/auth"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/logging"
)

// worker runs the stale-publish sweeper. "worker sweep" runs one pass and
// exits; no argument keeps it on its schedule. "worker assign <uid>
// <projectId> [role]" binds a user to a project.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logging.New(cfg.App.ServiceName+"-worker", logging.ParseLevel(cfg.App.LogLevel))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.OpenInfra(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to backing services", "error", err)
		os.Exit(1)
	}
	defer infra.Close()

	svc := bootstrap.BuildServices(infra)

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "sweep":
		rep, err := svc.Sweeper.SweepOnce(ctx)
		if err != nil {
			log.Error("sweep failed", "error", err)
			os.Exit(1)
		}
		log.Info("sweep finished", "checked", rep.Checked, "current", rep.Current, "triggered", rep.Triggered, "failed", rep.Failed)
	case "":
		if err := svc.Sweeper.Start(ctx, cfg.Revalidation.SweepSpec); err != nil {
			log.Error("failed to start sweeper", "error", err)
			os.Exit(1)
		}
		<-ctx.Done()
		svc.Sweeper.Stop()
		log.Info("worker stopped")
	case "assign":
		if len(os.Args) < 4 {
			log.Error("usage: worker assign <firebase_uid> <projectId> [admin|user]")
			os.Exit(2)
		}
		role := auth.RoleUser
		if len(os.Args) > 4 {
			role = auth.NormalizeRole(os.Args[4])
		}
		if err := svc.Users.AssignProject(ctx, os.Args[2], os.Args[3], role); err != nil {
			log.Error("assign failed", "error", err)
			os.Exit(1)
		}
		log.Info("user assigned", "uid", os.Args[2], "project_id", os.Args[3], "role", role)
	default:
		log.Error("unknown command", "command", cmd, "usage", "worker [sweep | assign <uid> <projectId> [role]]")
		os.Exit(2)
	}
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/GoSim-25-26J-441/brandsite-backend/config"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/logging"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/storage/postgres"
)

// migrate applies the embedded goose migrations.
//
//	migrate up | status | down -to <version>
func main() {
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logging.New("brandsite-migrate", logging.ParseLevel(os.Getenv("LOG_LEVEL")))

	fs := flag.NewFlagSet("down", flag.ExitOnError)
	to := fs.Int64("to", 0, "target version")

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx := context.Background()
	sqlDB, err := postgres.NewConnection(ctx, &dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	m, err := postgres.NewMigrator(sqlDB, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}

	switch cmd {
	case "up":
		err = m.Up(ctx)
	case "status":
		err = m.Status(ctx)
	case "down":
		_ = fs.Parse(os.Args[2:])
		err = m.Down(ctx, *to)
	default:
		log.Error("unknown command", "command", cmd, "usage", "migrate up|status|down -to N")
		os.Exit(2)
	}
	if err != nil {
		log.Error("migration failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

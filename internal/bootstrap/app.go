package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/brandsite-backend/config"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/auth"
	authmw "github.com/GoSim-25-26J-441/brandsite-backend/internal/auth/middleware"
	contentrepo "github.com/GoSim-25-26J-441/brandsite-backend/internal/content/repository"
	contentservice "github.com/GoSim-25-26J-441/brandsite-backend/internal/content/service"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/db"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/render"
	revrepo "github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/repository"
	revservice "github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/service"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/sweeper"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/tracker"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/storage/postgres"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/users"
)

// Infra holds the connections shared by the API and the worker.
type Infra struct {
	Cfg   *config.Config
	Log   *slog.Logger
	DB    *db.DB
	SQL   *sql.DB
	Redis *redis.Client
}

// OpenInfra connects to Postgres (pgx pool and database/sql) and, when
// REDIS_ADDR is set, to Redis. Migrations run first if DB_AUTO_MIGRATE.
func OpenInfra(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Infra, error) {
	sqlDB, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		m, err := postgres.NewMigrator(sqlDB, log)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		if err := m.Up(ctx); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}

	pool, err := db.Open(ctx, cfg.Database)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	infra := &Infra{Cfg: cfg, Log: log, DB: pool, SQL: sqlDB}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			infra.Close()
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		infra.Redis = rdb
	} else {
		log.Warn("REDIS_ADDR not set, revalidation tracker is in-memory")
	}

	return infra, nil
}

func (i *Infra) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	i.DB.Close()
	if i.SQL != nil {
		_ = i.SQL.Close()
	}
}

// Services is the wired domain layer.
type Services struct {
	Content *contentrepo.ContentRepository
	Events  *revrepo.EventRepository
	Tracker tracker.Tracker
	Trigger *revservice.Trigger
	Editor  *contentservice.ContentService
	Sweeper *sweeper.Sweeper
	Users   *users.Repo
}

func BuildServices(i *Infra) *Services {
	cfg := i.Cfg

	var tr tracker.Tracker = tracker.NewMemory()
	if i.Redis != nil {
		tr = tracker.NewRedis(i.Redis, cfg.Revalidation.TrackerTTL)
	}

	content := contentrepo.NewContentRepository(i.DB.Pool)
	events := revrepo.NewEventRepository(i.SQL)
	renderer := render.NewClient(cfg.Render, nil)
	trigger := revservice.NewTrigger(renderer, tr, content, events, cfg.Revalidation)

	return &Services{
		Content: content,
		Events:  events,
		Tracker: tr,
		Trigger: trigger,
		Editor:  contentservice.NewContentService(content, trigger, cfg.Revalidation.PublicPath),
		Sweeper: sweeper.New(content, tr, trigger, cfg.Revalidation.PublicPath, i.Log.With("component", "sweeper")),
		Users:   users.NewRepo(i.DB.Pool),
	}
}

// AuthMiddleware picks the identity middleware for cfg.Auth.Mode.
func AuthMiddleware(ctx context.Context, cfg *config.Config, members *users.Repo, log *slog.Logger) (gin.HandlerFunc, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeHeader:
		log.Warn("AUTH_MODE=header: identities are taken from request headers unverified")
		return auth.HeaderIdentity(), nil
	case config.AuthModeFirebase:
		client, err := auth.InitializeFirebase(ctx, &cfg.Auth)
		if err != nil {
			return nil, err
		}
		return authmw.FirebaseAuthMiddleware(client, members), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}

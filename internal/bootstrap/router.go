package bootstrap

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/GoSim-25-26J-441/brandsite-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/api/http/middleware"
	contenthttp "github.com/GoSim-25-26J-441/brandsite-backend/internal/content/http"
	revhttp "github.com/GoSim-25-26J-441/brandsite-backend/internal/revalidation/http"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	RatePerMinute  int
	Logger         *slog.Logger
	DB             *pgxpool.Pool
	Redis          *redis.Client

	// Auth builds the request identity; it guards every /api/v1 route.
	Auth         gin.HandlerFunc
	Content      *contenthttp.Handler
	Revalidation *revhttp.Handler
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(dep.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id", "X-User-Id", "X-User-Role", "X-Project-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(dep.Auth)

	limiter := middleware.NewRateLimiter(dep.RatePerMinute)
	dep.Revalidation.Register(api, limiter.Middleware())

	projectsGroup := api.Group("/projects")
	dep.Content.Register(projectsGroup)
	dep.Revalidation.RegisterProjectRoutes(projectsGroup)

	return r
}

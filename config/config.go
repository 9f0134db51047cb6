package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Render       RenderConfig
	Revalidation RevalidationConfig
	App          AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	DSN         string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Auth modes.
const (
	AuthModeFirebase = "firebase"
	AuthModeHeader   = "header"
)

type AuthConfig struct {
	Mode                    string
	FirebaseCredentialsPath string
	FirebaseProjectID       string
}

// RenderConfig describes the static render boundary.
type RenderConfig struct {
	BaseURL        string
	RevalidatePath string
	Secret         string
	PublicSiteURL  string
	Timeout        time.Duration
	PrimaryRetries int
}

type RevalidationConfig struct {
	// PathTemplate maps a project to its public path; must contain {projectId}.
	PathTemplate         string
	SupplementaryFetches int
	SupplementaryTimeout time.Duration
	TouchTimeout         time.Duration
	TrackerTTL           time.Duration
	RatePerMinute        int
	SweepSpec            string
	SweeperEnabled       bool
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	ServiceName string
}

const projectIDPlaceholder = "{projectId}"

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	renderBase := getEnv("RENDER_BASE_URL", "http://localhost:3000")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			DSN:         getEnv("DB_DSN", ""),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 2),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Mode:                    strings.ToLower(getEnv("AUTH_MODE", AuthModeFirebase)),
			FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		},
		Render: RenderConfig{
			BaseURL:        renderBase,
			RevalidatePath: getEnv("RENDER_REVALIDATE_PATH", "/api/revalidate"),
			Secret:         getEnv("RENDER_REVALIDATE_SECRET", ""),
			PublicSiteURL:  getEnv("PUBLIC_SITE_URL", renderBase),
			Timeout:        getEnvAsDuration("RENDER_TIMEOUT", 10*time.Second),
			PrimaryRetries: getEnvAsInt("RENDER_PRIMARY_RETRIES", 2),
		},
		Revalidation: RevalidationConfig{
			PathTemplate:         getEnv("PUBLIC_PATH_TEMPLATE", "/"+projectIDPlaceholder),
			SupplementaryFetches: getEnvAsInt("REVALIDATION_SUPPLEMENTARY_FETCHES", 3),
			SupplementaryTimeout: getEnvAsDuration("REVALIDATION_SUPPLEMENTARY_TIMEOUT", 5*time.Second),
			TouchTimeout:         getEnvAsDuration("REVALIDATION_TOUCH_TIMEOUT", 2*time.Second),
			TrackerTTL:           getEnvAsDuration("REVALIDATION_TRACKER_TTL", 30*24*time.Hour),
			RatePerMinute:        getEnvAsInt("REVALIDATION_RATE_PER_MINUTE", 30),
			SweepSpec:            getEnv("REVALIDATION_SWEEP_SPEC", "@every 5m"),
			SweeperEnabled:       getEnvAsBool("SWEEPER_ENABLED", false),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			ServiceName: getEnv("SERVICE_NAME", "brandsite-backend"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings. Tools that just migrate
// should not need auth or render configuration.
func LoadDatabase() (DatabaseConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	db := DatabaseConfig{
		DSN:      getEnv("DB_DSN", ""),
		MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		MinConns: getEnvAsInt("DB_MIN_CONNS", 2),
	}
	if db.DSN == "" {
		return db, fmt.Errorf("DB_DSN is required")
	}
	return db, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	switch c.Auth.Mode {
	case AuthModeFirebase:
		if c.Auth.FirebaseCredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required when AUTH_MODE=firebase")
		}
	case AuthModeHeader:
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeFirebase, AuthModeHeader, c.Auth.Mode)
	}

	if c.Render.BaseURL == "" {
		return fmt.Errorf("RENDER_BASE_URL is required")
	}
	if c.Render.Timeout <= 0 {
		return fmt.Errorf("RENDER_TIMEOUT must be positive")
	}
	if c.Render.PrimaryRetries < 0 {
		return fmt.Errorf("RENDER_PRIMARY_RETRIES must not be negative")
	}

	if !strings.Contains(c.Revalidation.PathTemplate, projectIDPlaceholder) {
		return fmt.Errorf("PUBLIC_PATH_TEMPLATE must contain %s", projectIDPlaceholder)
	}
	if c.Revalidation.SupplementaryFetches < 0 {
		return fmt.Errorf("REVALIDATION_SUPPLEMENTARY_FETCHES must not be negative")
	}

	return nil
}

// PublicPath renders the public path of a project.
func (c RevalidationConfig) PublicPath(projectID string) string {
	return strings.ReplaceAll(c.PathTemplate, projectIDPlaceholder, projectID)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid bool for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvAsDuration accepts Go durations ("10s") or plain seconds ("10").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}

	log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

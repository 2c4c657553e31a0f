package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Env         string
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Server      ServerConfig
	Recommender RecommenderConfig
	Slack       SlackConfig
	Log         LogConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string //nolint:gosec // G117: DB connection config
	DBName         string
	SSLMode        string
	MaxConns       int
	MigrateOnStart bool
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
	StatsTTL time.Duration
}

// JWTConfig holds bearer-token verification settings.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
	Issuer string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// RecommenderConfig points at the recommendation service. An empty BaseURL
// disables recommendation generation.
type RecommenderConfig struct {
	BaseURL string
	Token   string //nolint:gosec // G117: service credential config
	Timeout time.Duration
}

// SlackConfig holds Slack notification settings. An empty BotToken disables Slack.
type SlackConfig struct {
	BotToken        string
	FallbackChannel string
}

// LogConfig holds zerolog settings.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("AUDITOR_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("AUDITOR_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	migrateOnStart, err := getEnvBool("AUDITOR_DB_MIGRATE", true)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("AUDITOR_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	statsTTL, err := getEnvDuration("AUDITOR_REDIS_STATS_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("AUDITOR_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("AUDITOR_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateRPS, err := getEnvFloat("AUDITOR_RATE_LIMIT_RPS", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("AUDITOR_RATE_LIMIT_BURST", 40)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	recommenderTimeout, err := getEnvDuration("AUDITOR_RECOMMENDER_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("AUDITOR_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Env: getEnv("AUDITOR_ENV", "development"),
		Database: DatabaseConfig{
			Host:           getEnv("AUDITOR_DB_HOST", "localhost"),
			Port:           dbPort,
			User:           getEnv("AUDITOR_DB_USER", "auditor"),
			Password:       getEnv("AUDITOR_DB_PASSWORD", ""),
			DBName:         getEnv("AUDITOR_DB_NAME", "auditor_dev"),
			SSLMode:        getEnv("AUDITOR_DB_SSLMODE", "disable"),
			MaxConns:       dbMaxConns,
			MigrateOnStart: migrateOnStart,
		},
		Redis: RedisConfig{
			Addr:     getEnv("AUDITOR_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("AUDITOR_REDIS_PASSWORD", ""),
			DB:       redisDB,
			StatsTTL: statsTTL,
		},
		JWT: JWTConfig{
			Secret: getEnv("AUDITOR_JWT_SECRET", ""),
			Issuer: getEnv("AUDITOR_JWT_ISSUER", ""),
		},
		Server: ServerConfig{
			Addr:           getEnv("AUDITOR_SERVER_ADDR", ":8080"),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			CORSOrigins:    corsOrigins,
			RateLimitRPS:   rateRPS,
			RateLimitBurst: rateBurst,
		},
		Recommender: RecommenderConfig{
			BaseURL: strings.TrimRight(getEnv("AUDITOR_RECOMMENDER_URL", ""), "/"),
			Token:   getEnv("AUDITOR_RECOMMENDER_TOKEN", ""),
			Timeout: recommenderTimeout,
		},
		Slack: SlackConfig{
			BotToken:        getEnv("AUDITOR_SLACK_BOT_TOKEN", ""),
			FallbackChannel: getEnv("AUDITOR_SLACK_FALLBACK_CHANNEL", ""),
		},
		Log: LogConfig{
			Level:  getEnv("AUDITOR_LOG_LEVEL", "info"),
			Format: getEnv("AUDITOR_LOG_FORMAT", "json"),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("AUDITOR_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("AUDITOR_JWT_SECRET must be at least 32 characters")
	}

	if c.Database.SSLMode == "disable" && c.Env == "production" {
		log.Warn().Msg("AUDITOR_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("AUDITOR_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("AUDITOR_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Redis.StatsTTL <= 0 {
		return fmt.Errorf("AUDITOR_REDIS_STATS_TTL must be positive, got %s", c.Redis.StatsTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("AUDITOR_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("AUDITOR_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 {
		return fmt.Errorf("AUDITOR_RATE_LIMIT_RPS must be positive, got %g", c.Server.RateLimitRPS)
	}
	if c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("AUDITOR_RATE_LIMIT_BURST must be >= 1, got %d", c.Server.RateLimitBurst)
	}
	if c.Recommender.Timeout <= 0 {
		return fmt.Errorf("AUDITOR_RECOMMENDER_TIMEOUT must be positive, got %s", c.Recommender.Timeout)
	}
	if c.Recommender.BaseURL != "" {
		u, err := url.Parse(c.Recommender.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("AUDITOR_RECOMMENDER_URL must be an absolute http(s) URL, got %q", c.Recommender.BaseURL)
		}
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("AUDITOR_LOG_LEVEL: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("AUDITOR_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// DSN returns the PostgreSQL connection URL. Both pgxpool and the migrator
// accept it.
func (c *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.User(c.User),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

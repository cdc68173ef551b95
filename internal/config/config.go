package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database (empty disables the result archive)
	DatabaseURL    string
	MigrateOnStart bool

	// Redis (empty keeps event delivery in-process)
	RedisURL      string
	EventsChannel string

	// Server
	Port        string
	FrontendURL string

	// Table Settings
	TickMs              int
	BroadcastHz         int
	ChampionHoldSeconds int
	ScoreWindowHours    int
	NameMaxLength       int
	SettingsFile        string

	// Security
	SessionSecret   string
	SessionTTLHours int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Redis
		RedisURL:      getEnv("REDIS_URL", ""),
		EventsChannel: getEnv("EVENTS_CHANNEL", "pool_events"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Table Settings
		TickMs:              getEnvInt("TICK_MS", 16),
		BroadcastHz:         getEnvInt("BROADCAST_HZ", 30),
		ChampionHoldSeconds: getEnvInt("CHAMPION_HOLD_SECONDS", 30),
		ScoreWindowHours:    getEnvInt("SCORE_WINDOW_HOURS", 24),
		NameMaxLength:       getEnvInt("NAME_MAX_LENGTH", 20),
		SettingsFile:        getEnv("POOL_SETTINGS_FILE", ""),

		// Security
		SessionSecret:   getEnv("SESSION_SECRET", "change-me-in-production"),
		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 12),
	}

	if cfg.SettingsFile != "" {
		if err := cfg.ApplySettingsFile(cfg.SettingsFile); err != nil {
			log.Printf("[CONFIG] ignoring settings file %s: %v", cfg.SettingsFile, err)
		}
	}

	return cfg
}

// TickInterval is the fixed simulation step.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickMs) * time.Millisecond
}

// HoldDuration is how long a winner keeps the table.
func (c *Config) HoldDuration() time.Duration {
	return time.Duration(c.ChampionHoldSeconds) * time.Second
}

// ScoreWindow is the scoreboard's trailing window.
func (c *Config) ScoreWindow() time.Duration {
	return time.Duration(c.ScoreWindowHours) * time.Hour
}

// SessionTTL is the lifetime of a participant token.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

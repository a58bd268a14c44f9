package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                  string
	DatabaseDSN           string
	RedisURL              string
	JWTSecret             string
	Env                   string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int

	// ChannelOwner is the only identity allowed to publish to the
	// broadcast channel.
	ChannelOwner string

	// SweepIntervalSeconds controls how often expired self-destruct
	// messages and stories are reaped.
	SweepIntervalSeconds int
	StoryTTLHours        int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getint(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func Load() Config {
	// Local development keeps overrides in a .env file; absence is fine.
	_ = godotenv.Load()

	return Config{
		Port:                  getenv("APP_PORT", "8080"),
		DatabaseDSN:           getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=messenger port=5432 sslmode=disable TimeZone=UTC"),
		RedisURL:              getenv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:             getenv("JWT_SECRET", "dev-secret-change-me"),
		Env:                   getenv("APP_ENV", "dev"),
		AccessTokenTTLMinutes: getint("ACCESS_TOKEN_TTL_MINUTES", 15),
		RefreshTokenTTLDays:   getint("REFRESH_TOKEN_TTL_DAYS", 7),
		ChannelOwner:          getenv("CHANNEL_OWNER", "admin"),
		SweepIntervalSeconds:  getint("SWEEP_INTERVAL_SECONDS", 30),
		StoryTTLHours:         getint("STORY_TTL_HOURS", 24),
	}
}

// Validate rejects configurations that cannot run safely.
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("config: port is required")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("config: database DSN is required")
	}
	if cfg.Env != "dev" && cfg.JWTSecret == "dev-secret-change-me" {
		return errors.New("config: default JWT secret is not allowed outside dev")
	}
	return nil
}

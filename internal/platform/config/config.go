package config

import (
	"os"
	"strconv"
	"time"
)

// Config aggregates every tunable the server reads at startup so main stays
// lean and services receive plain values.
type Config struct {
	Server     Server
	Postgres   Postgres
	Redis      RedisConfig
	Auth       Auth
	Governance Governance
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// Postgres holds the connection string for the durable stores. Empty means
// run on in-memory stores (dev mode).
type Postgres struct {
	DSN string
}

// RedisConfig configures the notification publisher. Empty URL disables it.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Auth configures the identity-assurance collaborator. The JWT signing key
// validates bearer tokens; TrustedHeader switches to reading the principal
// from X-Principal behind an authenticating proxy.
type Auth struct {
	JWTSigningKey string
	TrustedHeader bool
}

// Governance holds the policy knobs left to deployment.
type Governance struct {
	// SeedAdmin bootstraps the admin registry on first start.
	SeedAdmin string
	// AllowSelfReview controls whether project owners may review their own
	// project.
	AllowSelfReview bool
}

// FromEnv builds the full configuration from environment variables with
// development defaults.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:              envOr("PROJECTHUB_ADDR", ":8080"),
			ReadHeaderTimeout: envDuration("PROJECTHUB_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       envDuration("PROJECTHUB_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      envDuration("PROJECTHUB_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       envDuration("PROJECTHUB_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout:   envDuration("PROJECTHUB_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: Postgres{
			DSN: os.Getenv("PROJECTHUB_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("PROJECTHUB_REDIS_URL"),
			DialTimeout:  envDuration("PROJECTHUB_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("PROJECTHUB_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("PROJECTHUB_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Auth: Auth{
			// Development default, override in production.
			JWTSigningKey: envOr("PROJECTHUB_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			TrustedHeader: os.Getenv("PROJECTHUB_TRUSTED_HEADER") == "true",
		},
		Governance: Governance{
			SeedAdmin:       os.Getenv("PROJECTHUB_SEED_ADMIN"),
			AllowSelfReview: os.Getenv("PROJECTHUB_ALLOW_SELF_REVIEW") == "true",
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

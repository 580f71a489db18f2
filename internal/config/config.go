// Package config loads runtime settings from the environment, with .env and
// .env.local as development conveniences. Runtime-provided variables are
// never overridden by the files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLength = 32

type Config struct {
	Addr        string
	DatabaseDSN string // empty selects the in-memory session store

	// SecretKey signs CSRF cookies and hashes session tokens at rest.
	// Rotating it invalidates all sessions and CSRF cookies.
	SecretKey string

	LoginPath    string
	AppPath      string
	CookieSecure bool

	SessionTTL  time.Duration
	RememberTTL time.Duration

	EnableHSTS            bool
	ContentSecurityPolicy string

	// AllowedRedirectHosts are extra hosts accepted by post-login next
	// targets. Relative paths are always accepted.
	AllowedRedirectHosts map[string]bool

	RateLimitPerMinute int
	RateLimitBurst     int

	SentryDSN string
}

func Load() (Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	secret := os.Getenv("SECRET_KEY")
	if len(secret) < minSecretLength {
		return Config{}, fmt.Errorf("config: SECRET_KEY must be at least %d characters", minSecretLength)
	}

	cfg := Config{
		Addr:        getEnv("APP_ADDR", ":8080"),
		DatabaseDSN: os.Getenv("DB_DSN"),
		SecretKey:   secret,

		LoginPath:    getEnv("LOGIN_PATH", "/login"),
		AppPath:      getEnv("APP_PATH", "/app"),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),

		EnableHSTS:            getEnvBool("ENABLE_HSTS", false),
		ContentSecurityPolicy: os.Getenv("CONTENT_SECURITY_POLICY"),

		AllowedRedirectHosts: parseHostList(os.Getenv("ALLOWED_REDIRECT_HOSTS")),

		SentryDSN: os.Getenv("SENTRY_DSN"),
	}

	var err error
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", 12*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RememberTTL, err = getEnvDuration("REMEMBER_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = getEnvInt("RATE_LIMIT_BURST", 10); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return parsed, nil
}

func parseHostList(raw string) map[string]bool {
	hosts := make(map[string]bool)
	for _, host := range strings.Split(raw, ",") {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			hosts[host] = true
		}
	}
	return hosts
}

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth modes selectable at startup.
const (
	AuthModeJWT   = "jwt"
	AuthModeFixed = "fixed"
)

// Rate-limit store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// LLM providers.
const (
	LLMMock   = "mock"
	LLMOpenAI = "openai"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	AuthMode       string
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	FixedUserID    string
	FixedUserEmail string
	CookieSecure   bool

	RateLimitRequests      int
	RateLimitWindow        time.Duration
	RateLimitStore         string
	RateLimitSweepInterval time.Duration
	GenerationLimitPerHour int
	RedisAddr              string
	RedisPassword          string

	LLMProvider string
	LLMBaseURL  string
	LLMAPIKey   string
	LLMModel    string
	LLMTimeout  time.Duration
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:     envOr("ADDR", ":8080"),
		DBPath:   envOr("DB_PATH", "file:tenxcards.db"),
		LogLevel: envOr("LOG_LEVEL", "INFO"),

		AuthMode:       strings.ToLower(envOr("AUTH_MODE", AuthModeJWT)),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      os.Getenv("JWT_ISSUER"),
		JWTAudience:    envOr("JWT_AUDIENCE", "authenticated"),
		FixedUserID:    envOr("FIXED_USER_ID", "00000000-0000-0000-0000-000000000000"),
		FixedUserEmail: envOr("FIXED_USER_EMAIL", "dev@example.com"),
		CookieSecure:   envBoolOr("SESSION_COOKIE_SECURE", false),

		RateLimitRequests:      envIntOr("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:        envDurationOr("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitStore:         strings.ToLower(envOr("RATE_LIMIT_STORE", StoreMemory)),
		RateLimitSweepInterval: envDurationOr("RATE_LIMIT_SWEEP_INTERVAL", time.Minute),
		GenerationLimitPerHour: envIntOr("GENERATION_LIMIT_PER_HOUR", 10),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),

		LLMProvider: strings.ToLower(envOr("LLM_PROVIDER", LLMMock)),
		LLMBaseURL:  os.Getenv("LLM_BASE_URL"),
		LLMAPIKey:   os.Getenv("LLM_API_KEY"),
		LLMModel:    envOr("LLM_MODEL", "openai/gpt-4"),
		LLMTimeout:  envDurationOr("LLM_TIMEOUT", 30*time.Second),
	}
}

// Validate checks that the configuration is usable. All problems are reported
// together.
func (c Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}

	switch c.AuthMode {
	case AuthModeJWT:
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required when AUTH_MODE=jwt"))
		}
	case AuthModeFixed:
		if c.FixedUserID == "" {
			errs = append(errs, errors.New("FIXED_USER_ID is required when AUTH_MODE=fixed"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeJWT, AuthModeFixed, c.AuthMode))
	}

	if c.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimitRequests))
	}
	if c.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow))
	}
	if c.RateLimitSweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_SWEEP_INTERVAL must be positive, got %s", c.RateLimitSweepInterval))
	}
	if c.GenerationLimitPerHour <= 0 {
		errs = append(errs, fmt.Errorf("GENERATION_LIMIT_PER_HOUR must be positive, got %d", c.GenerationLimitPerHour))
	}

	switch c.RateLimitStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when RATE_LIMIT_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_STORE must be %q or %q, got %q", StoreMemory, StoreRedis, c.RateLimitStore))
	}

	switch c.LLMProvider {
	case LLMMock:
	case LLMOpenAI:
		if c.LLMBaseURL == "" {
			errs = append(errs, errors.New("LLM_BASE_URL is required when LLM_PROVIDER=openai"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", LLMMock, LLMOpenAI, c.LLMProvider))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, fmt.Errorf("LLM_TIMEOUT must be positive, got %s", c.LLMTimeout))
	}

	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("invalid value for %s=%q, using default %t", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}

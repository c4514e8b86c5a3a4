package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port                string
	Env                 string
	PublicURL           string
	CORSAllowOrigin     []string
	BackendBaseURL      string
	BackendTimeout      time.Duration
	SessionSecret       string
	SessionTTL          time.Duration
	SessionStore        string
	DatabaseURL         string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	ObjectStoreType     string
	LocalStoreDir       string
	AWSRegion           string
	S3Bucket            string
	S3Prefix            string
	SSEKMSKeyID         string
	GoogleClientID      string
	GoogleClientSecret  string
	GoogleRedirectURL   string
	MaxUploadBytes      int64
	MinDescriptionChars int
}

// ConfigError reports a missing or invalid setting.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	secret := os.Getenv("SESSION_SECRET")
	if env == "production" && secret == "" {
		log.Printf("SESSION_SECRET is required in production")
	}

	return Config{
		Port:                getEnv("PORT", "3000"),
		Env:                 env,
		PublicURL:           strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:3000"), "/"),
		CORSAllowOrigin:     splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		BackendBaseURL:      getEnv("BACKEND_BASE_URL", "http://localhost:5000"),
		BackendTimeout:      time.Duration(getEnvInt("BACKEND_TIMEOUT_SECONDS", 120)) * time.Second,
		SessionSecret:       secret,
		SessionTTL:          getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionStore:        normalizeSessionStore(getEnv("SESSION_STORE", "memory")),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		ObjectStoreType:     normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:       getEnv("LOCAL_STORE_DIR", "./data/drafts"),
		AWSRegion:           getEnv("AWS_REGION", ""),
		S3Bucket:            getEnv("S3_BUCKET", ""),
		S3Prefix:            getEnv("S3_PREFIX", "drafts/"),
		SSEKMSKeyID:         getEnv("SSE_KMS_KEY_ID", ""),
		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:   getEnv("GOOGLE_REDIRECT_URL", ""),
		MaxUploadBytes:      int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		MinDescriptionChars: getEnvInt("MIN_DESCRIPTION_CHARS", 30),
	}
}

// Validate checks settings that cannot fall back to defaults.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BackendBaseURL) == "" {
		return &ConfigError{Field: "BACKEND_BASE_URL", Message: "backend base url is required"}
	}
	if c.MaxUploadBytes <= 0 {
		return &ConfigError{Field: "MAX_UPLOAD_BYTES", Message: "must be positive"}
	}
	if c.MinDescriptionChars < 0 {
		return &ConfigError{Field: "MIN_DESCRIPTION_CHARS", Message: "must not be negative"}
	}
	switch c.SessionStore {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return &ConfigError{Field: "DATABASE_URL", Message: "required when SESSION_STORE=postgres"}
		}
	case "redis":
		if strings.TrimSpace(c.RedisAddr) == "" {
			return &ConfigError{Field: "REDIS_ADDR", Message: "required when SESSION_STORE=redis"}
		}
	}
	if c.ObjectStoreType == "s3" && strings.TrimSpace(c.S3Bucket) == "" {
		return &ConfigError{Field: "S3_BUCKET", Message: "required when OBJECT_STORE=s3"}
	}
	if c.Env == "production" {
		if strings.TrimSpace(c.SessionSecret) == "" {
			return &ConfigError{Field: "SESSION_SECRET", Message: "required in production"}
		}
		if !c.GoogleConfigured() {
			return &ConfigError{Field: "GOOGLE_CLIENT_ID", Message: "google sign-in must be configured in production"}
		}
	}
	return nil
}

// GoogleConfigured reports whether the OAuth client settings are complete.
func (c Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// IsDevLike reports whether local conveniences (dev sign-in, insecure cookies) apply.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config env %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config env %s invalid duration: %q", key, raw)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeSessionStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "redis":
		return "redis"
	case "postgres", "pg", "postgresql":
		return "postgres"
	default:
		return "memory"
	}
}

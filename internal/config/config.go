package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string
	LogMode    string

	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	SessionDuration time.Duration
	CSRFSecret      string

	StaticFilesPath  string
	AudioPath        string
	ResourcesPath    string
	ResourcesBaseURL string
	ResourceCacheTTL time.Duration

	PracticeStore      string
	PracticeSessionTTL time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
	EmailDebug   bool

	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
	OAuthRedirectBaseURL string

	TTSEnabled bool

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	appBaseURL := getEnv("APP_BASE_URL", "http://localhost:8080")

	return &Config{
		ServerPort: getEnv("PORT", "8080"),
		LogMode:    getEnv("LOG_MODE", "dev"),

		DatabaseType: getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./nihongo.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		SessionDuration: getEnvDuration("SESSION_DURATION", 7*24*time.Hour),
		CSRFSecret:      getEnv("CSRF_SECRET", "change-me-in-production"),

		StaticFilesPath:  getEnv("STATIC_PATH", "./static"),
		AudioPath:        getEnv("AUDIO_PATH", "./static/audio"),
		ResourcesPath:    getEnv("RESOURCES_PATH", "./resources"),
		ResourcesBaseURL: getEnv("RESOURCES_BASE_URL", ""),
		ResourceCacheTTL: getEnvDuration("RESOURCE_CACHE_TTL", 5*time.Minute),

		PracticeStore:      getEnv("PRACTICE_STORE", "memory"),
		PracticeSessionTTL: getEnvDuration("PRACTICE_SESSION_TTL", 2*time.Hour),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Nihongo"),
		AppBaseURL:   appBaseURL,
		EmailDebug:   getEnvBool("EMAIL_DEBUG", false),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		FacebookClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: getEnv("OAUTH_REDIRECT_BASE_URL", appBaseURL),

		TTSEnabled: getEnvBool("TTS_ENABLED", false),

		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 5),
		LoginRateWindow: getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

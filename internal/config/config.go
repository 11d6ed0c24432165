package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the typed runtime configuration of the API server and the
// operator CLI. Values come from the environment; main loads .env first.
type Config struct {
	Environment string
	Port        string

	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	AWSRegion      string
	S3Bucket       string
	CDNBaseURL     string
	SignedURLTTL   time.Duration
	SESFromAddress string
	PublicSiteURL  string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	LogLevel string
	LogFile  string

	OTLPEndpoint    string
	TracingEnabled  bool
	TracingSampling float64

	RateLimitPerMinute int
	// TrustedProxies lists the proxy addresses or CIDRs whose
	// X-Forwarded-For is believed. Empty means the peer address is the
	// client address.
	TrustedProxies []string

	AnalyticsWindowDays int
	RollupInterval      time.Duration

	ReachMultiplier      float64
	ImpressionMultiplier float64
}

// Load reads the configuration. JWT_SECRET is required outside development.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:          getEnvOrDefault("ENVIRONMENT", "development"),
		Port:                 getEnvOrDefault("PORT", "8787"),
		DatabaseURL:          databaseURL(),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTTTL:               getDuration("JWT_TTL", 24*time.Hour),
		AWSRegion:            getEnvOrDefault("AWS_REGION", "eu-west-2"),
		S3Bucket:             os.Getenv("AWS_BUCKET"),
		CDNBaseURL:           os.Getenv("CDN_BASE_URL"),
		SignedURLTTL:         getDuration("SIGNED_URL_TTL", time.Hour),
		SESFromAddress:       getEnvOrDefault("SES_FROM_ADDRESS", "notifications@impactusall.com"),
		PublicSiteURL:        getEnvOrDefault("PUBLIC_SITE_URL", "http://localhost:3000"),
		RedisHost:            getEnvOrDefault("REDIS_HOST", ""),
		RedisPort:            getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:              getEnvOrDefault("LOG_FILE", "impactusall.log"),
		OTLPEndpoint:         getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		TracingEnabled:       getBool("OTEL_ENABLED", false),
		TracingSampling:      getFloat("OTEL_SAMPLING_RATE", 0.1),
		RateLimitPerMinute:   getInt("RATE_LIMIT_PER_MINUTE", 60),
		TrustedProxies:       getList("TRUSTED_PROXIES"),
		AnalyticsWindowDays:  getInt("ANALYTICS_WINDOW_DAYS", 30),
		RollupInterval:       getDuration("ROLLUP_INTERVAL", time.Hour),
		ReachMultiplier:      getFloat("REPORT_REACH_MULTIPLIER", 12),
		ImpressionMultiplier: getFloat("REPORT_IMPRESSION_MULTIPLIER", 25),
	}

	if cfg.JWTSecret == "" {
		if cfg.Environment != "development" && cfg.Environment != "test" {
			return nil, fmt.Errorf("JWT_SECRET environment variable not set")
		}
		cfg.JWTSecret = "development-secret-do-not-use"
	}
	if cfg.AnalyticsWindowDays <= 0 {
		return nil, fmt.Errorf("ANALYTICS_WINDOW_DAYS must be positive, got %d", cfg.AnalyticsWindowDays)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RedisAddr returns host:port, or "" when redis is not configured
func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return c.RedisHost + ":" + c.RedisPort
}

func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnvOrDefault("DB_HOST", "localhost"),
		getEnvOrDefault("DB_PORT", "5432"),
		getEnvOrDefault("DB_USER", "postgres"),
		getEnvOrDefault("DB_PASSWORD", ""),
		getEnvOrDefault("DB_NAME", "impactusall"),
		getEnvOrDefault("DB_SSLMODE", "disable"),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabaseURL    string
	DatabasePath   string
	MigrationsPath string

	LogLevel  string
	LogFormat string

	// Identity provider
	AuthIssuer     string
	AuthAudience   string
	AuthJWKSURL    string
	AuthHMACSecret string

	CORSAllowedOrigins []string

	// Lesson attempts
	HeartsInitial        int
	GradingCaseSensitive bool
	XPPerLesson          int
	XPPerHeart           int
	SessionTTL           time.Duration
	StudyTimezone        string
	LessonsPath          string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Email digest (Amazon SES)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
	EmailDebug   bool
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		ServerPort:     v.GetString("PORT"),
		DatabaseType:   strings.ToLower(v.GetString("DB_TYPE")),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		DatabasePath:   v.GetString("DB_PATH"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		AuthIssuer:     v.GetString("AUTH_ISSUER"),
		AuthAudience:   v.GetString("AUTH_AUDIENCE"),
		AuthJWKSURL:    v.GetString("AUTH_JWKS_URL"),
		AuthHMACSecret: v.GetString("AUTH_HMAC_SECRET"),

		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		HeartsInitial:        v.GetInt("HEARTS_INITIAL"),
		GradingCaseSensitive: v.GetBool("GRADING_CASE_SENSITIVE"),
		XPPerLesson:          v.GetInt("XP_PER_LESSON"),
		XPPerHeart:           v.GetInt("XP_PER_HEART"),
		SessionTTL:           v.GetDuration("SESSION_TTL"),
		StudyTimezone:        v.GetString("STUDY_TIMEZONE"),
		LessonsPath:          v.GetString("LESSONS_PATH"),

		RateLimitRequests: v.GetInt("RATE_LIMIT_REQUESTS"),
		RateLimitWindow:   v.GetDuration("RATE_LIMIT_WINDOW"),

		AWSRegion:    v.GetString("AWS_REGION"),
		SESFromEmail: v.GetString("SES_FROM_EMAIL"),
		SESFromName:  v.GetString("SES_FROM_NAME"),
		AppBaseURL:   v.GetString("APP_BASE_URL"),
		EmailDebug:   v.GetBool("EMAIL_DEBUG"),
	}

	if cfg.AuthJWKSURL == "" && cfg.AuthIssuer != "" {
		cfg.AuthJWKSURL = strings.TrimSuffix(cfg.AuthIssuer, "/") + "/.well-known/jwks.json"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location returns the time zone used to decide which calendar day it is
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StudyTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_TYPE", "sqlite")
	v.SetDefault("DB_PATH", "./linguapath.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("HEARTS_INITIAL", 5)
	v.SetDefault("GRADING_CASE_SENSITIVE", false)
	v.SetDefault("XP_PER_LESSON", 10)
	v.SetDefault("XP_PER_HEART", 2)
	v.SetDefault("SESSION_TTL", "2h")
	v.SetDefault("STUDY_TIMEZONE", "UTC")
	v.SetDefault("RATE_LIMIT_REQUESTS", 120)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("SES_FROM_NAME", "Linguapath")
	v.SetDefault("APP_BASE_URL", "http://localhost:5173")
	v.SetDefault("EMAIL_DEBUG", false)
}

func (c *Config) validate() error {
	switch c.DatabaseType {
	case "sqlite", "sqlite3", "postgres", "postgresql", "mysql":
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DatabaseType)
	}
	if c.DatabaseType == "postgres" || c.DatabaseType == "postgresql" || c.DatabaseType == "mysql" {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for DB_TYPE %s", c.DatabaseType)
		}
	}
	if c.HeartsInitial < 1 {
		return fmt.Errorf("HEARTS_INITIAL must be at least 1, got %d", c.HeartsInitial)
	}
	if c.XPPerLesson < 0 || c.XPPerHeart < 0 {
		return fmt.Errorf("XP_PER_LESSON and XP_PER_HEART must not be negative")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.RateLimitRequests < 1 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	if _, err := time.LoadLocation(c.StudyTimezone); err != nil {
		return fmt.Errorf("invalid STUDY_TIMEZONE %q: %w", c.StudyTimezone, err)
	}
	return nil
}

// splitList splits a comma separated value, dropping empty entries
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

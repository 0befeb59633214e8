package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Push notification configuration
	Push PushConfig

	// SMTP mail configuration
	Mail MailConfig

	// Deadline reminder sweep configuration
	Reminder ReminderConfig

	// Workflow policy configuration
	Workflow WorkflowConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// PushConfig holds push notification gateway configuration
type PushConfig struct {
	Mode      string // "dev" logs sends, "production" delivers via FCM
	APIURL    string
	ServerKey string
}

// MailConfig holds SMTP configuration for reminder mail fan-out
type MailConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string // e.g. "FC 온보딩 <no-reply@kyobodev.example>"
	SkipTLSVerify bool
}

// ReminderConfig holds deadline reminder sweep configuration
type ReminderConfig struct {
	CronSpec      string // robfig/cron spec with seconds
	CutoffHour    int    // deadline-of-day hour, local to UTCOffsetHours
	UTCOffsetHour int    // fixed timezone offset (KST = 9)
}

// WorkflowConfig holds workflow policy configuration
type WorkflowConfig struct {
	// RequireBothAppointments makes step 5 require appointment dates on
	// both the life and non-life tracks.
	RequireBothAppointments bool
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxPhoneRequests int
	PhoneWindow      time.Duration
	MaxIPRequests    int
	IPWindow         time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost     int
	EnableAuditLog bool
	// EncryptionKey encrypts the full resident registration number at rest.
	EncryptionKey string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		Push: PushConfig{
			Mode:      getEnv("PUSH_MODE", "dev"), // "dev" or "production"
			APIURL:    getEnv("PUSH_API_URL", "https://fcm.googleapis.com/fcm/send"),
			ServerKey: getEnv("PUSH_SERVER_KEY", ""),
		},
		Mail: MailConfig{
			Host:          getEnv("SMTP_HOST", ""),
			Port:          getEnvAsInt("SMTP_PORT", 587),
			Username:      getEnv("SMTP_USER", ""),
			Password:      getEnv("SMTP_PASS", ""),
			From:          getEnv("SMTP_FROM", ""),
			SkipTLSVerify: getEnvAsBool("SMTP_SKIP_TLS_VERIFY", false),
		},
		Reminder: ReminderConfig{
			// Daily at 18:05 local time, right after the deadline-of-day cutoff
			CronSpec:      getEnv("REMINDER_CRON", "0 5 18 * * *"),
			CutoffHour:    getEnvAsInt("REMINDER_CUTOFF_HOUR", 18),
			UTCOffsetHour: getEnvAsInt("REMINDER_UTC_OFFSET", 9),
		},
		Workflow: WorkflowConfig{
			RequireBothAppointments: getEnvAsBool("REQUIRE_BOTH_APPOINTMENTS", false),
		},
		RateLimit: RateLimitConfig{
			MaxPhoneRequests: getEnvAsInt("RATE_LIMIT_PHONE_REQUESTS", 5),
			PhoneWindow:      time.Duration(getEnvAsInt("RATE_LIMIT_PHONE_WINDOW_MINUTES", 10)) * time.Minute,
			MaxIPRequests:    getEnvAsInt("RATE_LIMIT_IP_REQUESTS", 20),
			IPWindow:         time.Duration(getEnvAsInt("RATE_LIMIT_IP_WINDOW_MINUTES", 60)) * time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Authorization"}),
		},
		Security: SecurityConfig{
			BcryptCost:     getEnvAsInt("BCRYPT_COST", 12),
			EnableAuditLog: getEnvAsBool("ENABLE_AUDIT_LOG", true),
			EncryptionKey:  getEnv("DATA_ENCRYPTION_KEY", ""),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks that required configuration is present
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}
	if c.Server.Environment == "production" && c.Push.Mode == "production" && c.Push.ServerKey == "" {
		return fmt.Errorf("PUSH_SERVER_KEY is required when PUSH_MODE=production")
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsSlice gets an environment variable as a comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

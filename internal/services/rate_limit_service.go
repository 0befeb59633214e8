package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kyobodev/fc-onboarding-backend/internal/config"
	"github.com/kyobodev/fc-onboarding-backend/internal/database"
)

// RateLimitService throttles login attempts per phone and per source IP.
// Counters live in the database so limits hold across instances.
type RateLimitService struct {
	db     database.DB
	config config.RateLimitConfig
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB, cfg config.RateLimitConfig) *RateLimitService {
	return &RateLimitService{
		db:     db,
		config: cfg,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "phone" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckLoginRateLimit checks if a phone number or IP has exceeded rate limits
func (s *RateLimitService) CheckLoginRateLimit(phone, ip string) error {
	if phone != "" {
		phoneCount, lastRequest, err := s.getRequestCount(phone, "phone", s.config.PhoneWindow)
		if err != nil {
			return fmt.Errorf("failed to check phone rate limit: %w", err)
		}

		if phoneCount >= s.config.MaxPhoneRequests {
			retryAfter := lastRequest.Add(s.config.PhoneWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many login attempts for this phone number. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "phone",
			}
		}
	}

	if ip != "" {
		ipCount, lastRequest, err := s.getRequestCount(ip, "ip", s.config.IPWindow)
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}

		if ipCount >= s.config.MaxIPRequests {
			retryAfter := lastRequest.Add(s.config.IPWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many login attempts from this IP address. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "ip",
			}
		}
	}

	return nil
}

// getRequestCount gets the number of requests within the time window
func (s *RateLimitService) getRequestCount(identifier, identifierType string, window time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM auth_rate_limits
		WHERE identifier = $1
		  AND identifier_type = $2
		  AND created_at > $3
	`

	var count int
	var lastRequest time.Time

	err := s.db.QueryRow(query, identifier, identifierType, windowStart).Scan(&count, &lastRequest)
	if err != nil && err != sql.ErrNoRows {
		return 0, time.Time{}, err
	}

	return count, lastRequest, nil
}

// RecordLoginAttempt records a login attempt for rate limiting
func (s *RateLimitService) RecordLoginAttempt(phone, ip string) error {
	if phone != "" {
		if err := s.recordRequest(phone, "phone"); err != nil {
			return fmt.Errorf("failed to record phone request: %w", err)
		}
	}

	if ip != "" {
		if err := s.recordRequest(ip, "ip"); err != nil {
			return fmt.Errorf("failed to record IP request: %w", err)
		}
	}

	return nil
}

// recordRequest inserts a rate limit record
func (s *RateLimitService) recordRequest(identifier, identifierType string) error {
	query := `
		INSERT INTO auth_rate_limits (identifier, identifier_type, created_at)
		VALUES ($1, $2, NOW())
	`

	_, err := s.db.Exec(query, identifier, identifierType)
	return err
}

// CleanupExpiredRateLimits removes rate limit records older than the longest
// window. Run periodically from the scheduler.
func (s *RateLimitService) CleanupExpiredRateLimits() (int64, error) {
	maxWindow := s.config.IPWindow
	if s.config.PhoneWindow > maxWindow {
		maxWindow = s.config.PhoneWindow
	}

	cutoffTime := time.Now().Add(-maxWindow)

	query := `
		DELETE FROM auth_rate_limits
		WHERE created_at < $1
	`

	result, err := s.db.Exec(query, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rate limits: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// IsRateLimited checks if an identifier is currently rate limited
func (s *RateLimitService) IsRateLimited(identifier, identifierType string) (bool, time.Time, error) {
	window := s.config.PhoneWindow
	maxRequests := s.config.MaxPhoneRequests
	if identifierType == "ip" {
		window = s.config.IPWindow
		maxRequests = s.config.MaxIPRequests
	}

	count, lastRequest, err := s.getRequestCount(identifier, identifierType, window)
	if err != nil {
		return false, time.Time{}, err
	}

	if count >= maxRequests {
		retryAfter := lastRequest.Add(window)
		return true, retryAfter, nil
	}

	return false, time.Time{}, nil
}

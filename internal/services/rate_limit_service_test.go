package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyobodev/fc-onboarding-backend/internal/config"
	"github.com/kyobodev/fc-onboarding-backend/internal/database"
)

func setupRateLimitTest(t *testing.T) (*RateLimitService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	postgresDB := &database.PostgresDB{DB: sqlxDB}
	service := NewRateLimitService(postgresDB, config.RateLimitConfig{
		MaxPhoneRequests: 5,
		PhoneWindow:      10 * time.Minute,
		MaxIPRequests:    20,
		IPWindow:         1 * time.Hour,
	})

	cleanup := func() {
		db.Close()
	}

	return service, mock, cleanup
}

func TestCheckLoginRateLimit_NoRequests(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	phone := "01012345678"
	ip := "203.0.113.10"

	// No previous attempts for either identifier
	mock.ExpectQuery("SELECT COUNT(.+) FROM auth_rate_limits").
		WithArgs(phone, "phone", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(0, time.Now()))

	mock.ExpectQuery("SELECT COUNT(.+) FROM auth_rate_limits").
		WithArgs(ip, "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(0, time.Now()))

	err := service.CheckLoginRateLimit(phone, ip)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckLoginRateLimit_PhoneExceeded(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	phone := "01012345678"
	ip := "203.0.113.10"
	lastRequest := time.Now().Add(-5 * time.Minute)

	mock.ExpectQuery("SELECT COUNT(.+) FROM auth_rate_limits").
		WithArgs(phone, "phone", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(5, lastRequest))

	err := service.CheckLoginRateLimit(phone, ip)
	assert.Error(t, err)

	rateLimitErr, ok := err.(*RateLimitError)
	require.True(t, ok, "Error should be RateLimitError")
	assert.Equal(t, "phone", rateLimitErr.Type)
	assert.Contains(t, rateLimitErr.Message, "Too many login attempts for this phone number")
	assert.True(t, rateLimitErr.RetryAfter.After(time.Now()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckLoginRateLimit_IPExceeded(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	phone := "01012345678"
	ip := "203.0.113.10"
	lastRequest := time.Now().Add(-30 * time.Minute)

	mock.ExpectQuery("SELECT COUNT(.+) FROM auth_rate_limits").
		WithArgs(phone, "phone", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(2, lastRequest))

	mock.ExpectQuery("SELECT COUNT(.+) FROM auth_rate_limits").
		WithArgs(ip, "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(20, lastRequest))

	err := service.CheckLoginRateLimit(phone, ip)
	assert.Error(t, err)

	rateLimitErr, ok := err.(*RateLimitError)
	require.True(t, ok, "Error should be RateLimitError")
	assert.Equal(t, "ip", rateLimitErr.Type)
	assert.Contains(t, rateLimitErr.Message, "Too many login attempts from this IP address")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLoginAttempt_Success(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	phone := "01012345678"
	ip := "203.0.113.10"

	mock.ExpectExec("INSERT INTO auth_rate_limits").
		WithArgs(phone, "phone").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec("INSERT INTO auth_rate_limits").
		WithArgs(ip, "ip").
		WillReturnResult(sqlmock.NewResult(2, 1))

	err := service.RecordLoginAttempt(phone, ip)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLoginAttempt_PhoneOnly(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	phone := "01012345678"

	mock.ExpectExec("INSERT INTO auth_rate_limits").
		WithArgs(phone, "phone").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := service.RecordLoginAttempt(phone, "")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanupExpiredRateLimits_Success(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM auth_rate_limits").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 10))

	rowsAffected, err := service.CleanupExpiredRateLimits()
	assert.NoError(t, err)
	assert.Equal(t, int64(10), rowsAffected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRateLimited_NotLimited(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	phone := "01012345678"
	lastRequest := time.Now().Add(-2 * time.Minute)

	mock.ExpectQuery("SELECT COUNT(.+) FROM auth_rate_limits").
		WithArgs(phone, "phone", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(2, lastRequest))

	isLimited, retryAfter, err := service.IsRateLimited(phone, "phone")
	assert.NoError(t, err)
	assert.False(t, isLimited)
	assert.True(t, retryAfter.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRateLimited_Limited(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	phone := "01012345678"
	lastRequest := time.Now().Add(-5 * time.Minute)

	mock.ExpectQuery("SELECT COUNT(.+) FROM auth_rate_limits").
		WithArgs(phone, "phone", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(5, lastRequest))

	isLimited, retryAfter, err := service.IsRateLimited(phone, "phone")
	assert.NoError(t, err)
	assert.True(t, isLimited)
	assert.True(t, retryAfter.After(time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckLoginRateLimit_DatabaseError(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	phone := "01012345678"

	mock.ExpectQuery("SELECT COUNT(.+) FROM auth_rate_limits").
		WithArgs(phone, "phone", sqlmock.AnyArg()).
		WillReturnError(sql.ErrConnDone)

	err := service.CheckLoginRateLimit(phone, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check phone rate limit")
	assert.NoError(t, mock.ExpectationsWereMet())
}

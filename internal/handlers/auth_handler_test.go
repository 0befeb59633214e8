package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyobodev/fc-onboarding-backend/internal/config"
	"github.com/kyobodev/fc-onboarding-backend/internal/database"
	"github.com/kyobodev/fc-onboarding-backend/internal/services"
	"github.com/kyobodev/fc-onboarding-backend/pkg/jwt"
	"github.com/kyobodev/fc-onboarding-backend/pkg/validator"
)

// handlerProfileColumns mirrors the fc_profiles select list.
var handlerProfileColumns = []string{
	"id", "phone", "name", "affiliation", "email", "address", "address_detail",
	"resident_id_masked", "career_type", "status", "temp_id",
	"allowance_date", "allowance_reject_reason",
	"docs_deadline_at", "docs_deadline_last_notified_at",
	"appointment_schedule_life", "appointment_schedule_nonlife",
	"appointment_date_life", "appointment_date_life_sub",
	"appointment_date_nonlife", "appointment_date_nonlife_sub",
	"appointment_reject_reason_life", "appointment_reject_reason_nonlife",
	"created_at", "updated_at",
}

func handlerProfileRow(id uuid.UUID, phone, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(handlerProfileColumns).AddRow(
		id, phone, nil, nil, nil, nil, nil,
		nil, nil, status, nil,
		nil, nil,
		nil, nil,
		nil, nil,
		nil, nil,
		nil, nil,
		nil, nil,
		now, now,
	)
}

func testDiscardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testRateLimitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		MaxPhoneRequests: 5,
		PhoneWindow:      10 * time.Minute,
		MaxIPRequests:    20,
		IPWindow:         time.Hour,
	}
}

func setupAuthHandlerTest(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *jwt.Service, func()) {
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	postgresDB := &database.PostgresDB{DB: sqlxDB}

	jwtService := jwt.NewService("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
	onboardingSvc := services.NewOnboardingService(
		database.NewProfileRepository(postgresDB),
		validator.NewPhoneValidator(),
		testDiscardLogger(),
	)
	rateLimitSvc := services.NewRateLimitService(postgresDB, testRateLimitConfig())
	auditSvc := services.NewAuditService(postgresDB)

	handler := NewAuthHandler(jwtService, onboardingSvc, rateLimitSvc, auditSvc)

	router := gin.New()
	router.POST("/auth/login", handler.Login)
	router.POST("/auth/refresh", handler.Refresh)

	return router, mock, jwtService, func() { db.Close() }
}

func expectRateLimitCount(mock sqlmock.Sqlmock, count int) {
	mock.ExpectQuery("SELECT COUNT\\(\\*\\), COALESCE\\(MAX\\(created_at\\), NOW\\(\\)\\)").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "coalesce"}).AddRow(count, time.Now()))
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestLogin_ProvisionsNewProfile(t *testing.T) {
	router, mock, _, cleanup := setupAuthHandlerTest(t)
	defer cleanup()

	phone := "01012345678"

	// Rate limit counters: phone then IP, both under the limit
	expectRateLimitCount(mock, 0)
	expectRateLimitCount(mock, 0)

	// First login: no profile yet, a draft gets provisioned
	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs(phone).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO fc_profiles").
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Attempt recorded for phone and IP
	mock.ExpectExec("INSERT INTO auth_rate_limits").
		WithArgs(phone, "phone").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO auth_rate_limits").
		WithArgs(sqlmock.AnyArg(), "ip").
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Audit trail
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := postJSON(t, router, "/auth/login", gin.H{"phone": "010-1234-5678"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsNewProfile)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_RateLimited(t *testing.T) {
	router, mock, _, cleanup := setupAuthHandlerTest(t)
	defer cleanup()

	// Phone counter already at the limit
	expectRateLimitCount(mock, 5)

	// Violation is audited
	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := postJSON(t, router, "/auth/login", gin.H{"phone": "01012345678"})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_InvalidPhone(t *testing.T) {
	router, mock, _, cleanup := setupAuthHandlerTest(t)
	defer cleanup()

	// Rate limit check runs before validation
	expectRateLimitCount(mock, 0)
	expectRateLimitCount(mock, 0)

	w := postJSON(t, router, "/auth/login", gin.H{"phone": "02-123-4567"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_MissingBody(t *testing.T) {
	router, _, _, cleanup := setupAuthHandlerTest(t)
	defer cleanup()

	w := postJSON(t, router, "/auth/login", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefresh_IssuesNewTokenPair(t *testing.T) {
	router, mock, jwtService, cleanup := setupAuthHandlerTest(t)
	defer cleanup()

	phone := "01012345678"
	id := uuid.New()

	refreshToken, err := jwtService.GenerateRefreshToken(id, phone)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs(phone).
		WillReturnRows(handlerProfileRow(id, phone, "temp-id-issued"))

	w := postJSON(t, router, "/auth/refresh", gin.H{"refresh_token": refreshToken})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "access_token")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_DeletedAccount(t *testing.T) {
	router, mock, jwtService, cleanup := setupAuthHandlerTest(t)
	defer cleanup()

	phone := "01012345678"
	refreshToken, err := jwtService.GenerateRefreshToken(uuid.New(), phone)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs(phone).
		WillReturnError(sql.ErrNoRows)

	w := postJSON(t, router, "/auth/refresh", gin.H{"refresh_token": refreshToken})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	router, _, jwtService, cleanup := setupAuthHandlerTest(t)
	defer cleanup()

	accessToken, err := jwtService.GenerateAccessToken(uuid.New(), "01012345678", jwt.RoleFC)
	require.NoError(t, err)

	w := postJSON(t, router, "/auth/refresh", gin.H{"refresh_token": accessToken})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

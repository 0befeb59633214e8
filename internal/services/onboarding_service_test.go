package services

import (
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyobodev/fc-onboarding-backend/internal/database"
	"github.com/kyobodev/fc-onboarding-backend/pkg/validator"
	"github.com/kyobodev/fc-onboarding-backend/pkg/workflow"
)

// serviceProfileColumns mirrors the fc_profiles select list.
var serviceProfileColumns = []string{
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

// profileRow builds a sqlmock row for a profile with the given status and
// temp ID (nil for none). Everything else stays NULL.
func profileRow(id uuid.UUID, phone string, status workflow.Status, tempID interface{}) *sqlmock.Rows {
	return profileRowWith(id, phone, status, tempID, nil, nil, nil)
}

func profileRowWith(id uuid.UUID, phone string, status workflow.Status, tempID, email, deadline, allowanceDate interface{}) *sqlmock.Rows {
	return addProfileRow(sqlmock.NewRows(serviceProfileColumns), id, phone, status, tempID, email, deadline, allowanceDate)
}

func addProfileRow(rows *sqlmock.Rows, id uuid.UUID, phone string, status workflow.Status, tempID, email, deadline, allowanceDate interface{}) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, phone, nil, nil, email, nil, nil,
		nil, nil, string(status), tempID,
		allowanceDate, nil,
		deadline, nil,
		nil, nil,
		nil, nil,
		nil, nil,
		nil, nil,
		now, now,
	)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupOnboardingTest(t *testing.T) (*OnboardingService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	postgresDB := &database.PostgresDB{DB: sqlxDB}

	service := NewOnboardingService(
		database.NewProfileRepository(postgresDB),
		validator.NewPhoneValidator(),
		testLogger(),
	)

	return service, mock, func() { db.Close() }
}

func TestProvision_CreatesDraftOnFirstLogin(t *testing.T) {
	service, mock, cleanup := setupOnboardingTest(t)
	defer cleanup()

	phone := "01012345678"

	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs(phone).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectExec("INSERT INTO fc_profiles").
		WithArgs(sqlmock.AnyArg(), phone, string(workflow.StatusDraft), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	profile, created, err := service.Provision("010-1234-5678")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, phone, profile.Phone)
	assert.Equal(t, workflow.StatusDraft, profile.WorkflowStatus())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvision_ReturnsExistingProfile(t *testing.T) {
	service, mock, cleanup := setupOnboardingTest(t)
	defer cleanup()

	phone := "01012345678"
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs(phone).
		WillReturnRows(profileRow(id, phone, workflow.StatusTempIDIssued, "T-1024"))

	profile, created, err := service.Provision(phone)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id, profile.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvision_InvalidPhone(t *testing.T) {
	service, _, cleanup := setupOnboardingTest(t)
	defer cleanup()

	_, _, err := service.Provision("02-123-4567")
	require.Error(t, err)

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestGetByPhone_NotFound(t *testing.T) {
	service, mock, cleanup := setupOnboardingTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs("01012345678").
		WillReturnError(sql.ErrNoRows)

	_, err := service.GetByPhone("01012345678")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueTempID_EmptyID(t *testing.T) {
	service, _, cleanup := setupOnboardingTest(t)
	defer cleanup()

	_, err := service.IssueTempID("01012345678", "   ")
	require.Error(t, err)

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestIssueTempID_Success(t *testing.T) {
	service, mock, cleanup := setupOnboardingTest(t)
	defer cleanup()

	phone := "01012345678"
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs(phone).
		WillReturnRows(profileRow(id, phone, workflow.StatusDraft, nil))

	mock.ExpectExec("UPDATE fc_profiles").
		WithArgs("T-1024", string(workflow.StatusTempIDIssued), sqlmock.AnyArg(), phone).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs(phone).
		WillReturnRows(profileRow(id, phone, workflow.StatusTempIDIssued, "T-1024"))

	profile, err := service.IssueTempID(phone, "T-1024")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusTempIDIssued, profile.WorkflowStatus())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitAllowanceConsent_RequiresTempID(t *testing.T) {
	service, mock, cleanup := setupOnboardingTest(t)
	defer cleanup()

	phone := "01012345678"

	// Profile exists but no temp ID has been issued yet
	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs(phone).
		WillReturnRows(profileRow(uuid.New(), phone, workflow.StatusDraft, nil))

	_, err := service.SubmitAllowanceConsent(phone, "2026-09-01")
	require.Error(t, err)

	var preconditionErr *PreconditionError
	require.True(t, errors.As(err, &preconditionErr))
	assert.Equal(t, "temp_id_required", preconditionErr.Code)
	assert.Equal(t, msgTempIDRequired, preconditionErr.Message)

	// No UPDATE was issued: the profile stays untouched
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitAllowanceConsent_Success(t *testing.T) {
	service, mock, cleanup := setupOnboardingTest(t)
	defer cleanup()

	phone := "01012345678"
	id := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs(phone).
		WillReturnRows(profileRow(id, phone, workflow.StatusTempIDIssued, "T-1024"))

	mock.ExpectExec("UPDATE fc_profiles").
		WithArgs(sqlmock.AnyArg(), string(workflow.StatusAllowancePending), sqlmock.AnyArg(), phone).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs(phone).
		WillReturnRows(profileRow(id, phone, workflow.StatusAllowancePending, "T-1024"))

	profile, err := service.SubmitAllowanceConsent(phone, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAllowancePending, profile.WorkflowStatus())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitAllowanceConsent_BadDate(t *testing.T) {
	service, _, cleanup := setupOnboardingTest(t)
	defer cleanup()

	_, err := service.SubmitAllowanceConsent("01012345678", "2026/09/01")
	require.Error(t, err)

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestSendFinalLink_RequiresCompletedAppointment(t *testing.T) {
	service, mock, cleanup := setupOnboardingTest(t)
	defer cleanup()

	phone := "01012345678"

	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs(phone).
		WillReturnRows(profileRow(uuid.New(), phone, workflow.StatusDocsApproved, "T-1024"))

	_, err := service.SendFinalLink(phone)
	require.Error(t, err)

	var preconditionErr *PreconditionError
	require.True(t, errors.As(err, &preconditionErr))
	assert.Equal(t, "appointment_incomplete", preconditionErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkCreate_MixedRoster(t *testing.T) {
	service, mock, cleanup := setupOnboardingTest(t)
	defer cleanup()

	existing := "01011112222"
	fresh := "01033334444"

	// Existing profile: counted as skipped
	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs(existing).
		WillReturnRows(profileRow(uuid.New(), existing, workflow.StatusDraft, nil))

	// Fresh number: provisioned
	mock.ExpectQuery("SELECT (.+) FROM fc_profiles").
		WithArgs(fresh).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO fc_profiles").
		WithArgs(sqlmock.AnyArg(), fresh, string(workflow.StatusDraft), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	result := service.BulkCreate([]string{existing, fresh, "not-a-phone"})

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "not-a-phone")
	assert.NoError(t, mock.ExpectationsWereMet())
}

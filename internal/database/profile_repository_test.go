package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyobodev/fc-onboarding-backend/pkg/workflow"
)

var profileTestColumns = []string{
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

func setupProfileRepoTest(t *testing.T) (*ProfileRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewProfileRepository(&PostgresDB{DB: sqlxDB})

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestProfileCreate(t *testing.T) {
	repo, mock, cleanup := setupProfileRepoTest(t)
	defer cleanup()

	t.Run("Success", func(t *testing.T) {
		phone := "01012345678"

		mock.ExpectExec(`INSERT INTO fc_profiles`).
			WithArgs(sqlmock.AnyArg(), phone, string(workflow.StatusDraft), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		profile, err := repo.Create(phone)
		require.NoError(t, err)
		assert.NotNil(t, profile)
		assert.Equal(t, phone, profile.Phone)
		assert.Equal(t, string(workflow.StatusDraft), profile.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Phone", func(t *testing.T) {
		phone := "01012345678"

		mock.ExpectExec(`INSERT INTO fc_profiles`).
			WithArgs(sqlmock.AnyArg(), phone, string(workflow.StatusDraft), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnError(fmt.Errorf("duplicate key value violates unique constraint"))

		profile, err := repo.Create(phone)
		assert.Error(t, err)
		assert.Nil(t, profile)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProfileGetByPhone(t *testing.T) {
	repo, mock, cleanup := setupProfileRepoTest(t)
	defer cleanup()

	t.Run("Success", func(t *testing.T) {
		phone := "01012345678"
		profileID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM fc_profiles WHERE phone`).
			WithArgs(phone).
			WillReturnRows(sqlmock.NewRows(profileTestColumns).AddRow(
				profileID, phone, "김민수", "서울지점", "kim@example.com", "서울시", nil,
				"901010-*******", nil, string(workflow.StatusDocsApproved), "T-1024",
				now, nil,
				nil, nil,
				nil, nil,
				nil, nil,
				nil, nil,
				nil, nil,
				now, now,
			))

		profile, err := repo.GetByPhone(phone)
		require.NoError(t, err)
		require.NotNil(t, profile)
		assert.Equal(t, profileID, profile.ID)
		assert.Equal(t, phone, profile.Phone)
		assert.Equal(t, "김민수", profile.Name.ValueOrZero())
		assert.Equal(t, "T-1024", profile.TempID.ValueOrZero())
		assert.Equal(t, workflow.StatusDocsApproved, profile.WorkflowStatus())
		assert.False(t, profile.AppointmentDateLife.Valid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found Returns Nil Without Error", func(t *testing.T) {
		phone := "01099998888"

		mock.ExpectQuery(`SELECT (.+) FROM fc_profiles WHERE phone`).
			WithArgs(phone).
			WillReturnRows(sqlmock.NewRows(profileTestColumns))

		profile, err := repo.GetByPhone(phone)
		require.NoError(t, err)
		assert.Nil(t, profile)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		phone := "01012345678"

		mock.ExpectQuery(`SELECT (.+) FROM fc_profiles WHERE phone`).
			WithArgs(phone).
			WillReturnError(fmt.Errorf("connection refused"))

		profile, err := repo.GetByPhone(phone)
		assert.Error(t, err)
		assert.Nil(t, profile)
		assert.Contains(t, err.Error(), "failed to get profile by phone")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProfileGetOrCreate(t *testing.T) {
	repo, mock, cleanup := setupProfileRepoTest(t)
	defer cleanup()

	t.Run("Existing Profile", func(t *testing.T) {
		phone := "01012345678"
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM fc_profiles WHERE phone`).
			WithArgs(phone).
			WillReturnRows(sqlmock.NewRows(profileTestColumns).AddRow(
				uuid.New(), phone, nil, nil, nil, nil, nil,
				nil, nil, string(workflow.StatusDraft), nil,
				nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil,
				now, now,
			))

		profile, created, err := repo.GetOrCreate(phone)
		require.NoError(t, err)
		assert.NotNil(t, profile)
		assert.False(t, created)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Provisions Draft When Absent", func(t *testing.T) {
		phone := "01055556666"

		mock.ExpectQuery(`SELECT (.+) FROM fc_profiles WHERE phone`).
			WithArgs(phone).
			WillReturnRows(sqlmock.NewRows(profileTestColumns))
		mock.ExpectExec(`INSERT INTO fc_profiles`).
			WithArgs(sqlmock.AnyArg(), phone, string(workflow.StatusDraft), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		profile, created, err := repo.GetOrCreate(phone)
		require.NoError(t, err)
		require.NotNil(t, profile)
		assert.True(t, created)
		assert.Equal(t, string(workflow.StatusDraft), profile.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateBasicInfo(t *testing.T) {
	repo, mock, cleanup := setupProfileRepoTest(t)
	defer cleanup()

	id := uuid.New()

	t.Run("Partial Update Keeps Stored Identity Fields", func(t *testing.T) {
		// Empty inputs fall back to the stored column so a name-only PUT
		// cannot blank resident_id_masked and drop the applicant a step.
		mock.ExpectExec(`UPDATE fc_profiles\s+SET name = \$1,\s+affiliation = COALESCE\(NULLIF\(\$2, ''\), affiliation\),(?s:.+)resident_id_masked = COALESCE\(NULLIF\(\$6, ''\), resident_id_masked\)`).
			WithArgs("김민수", "", "", "", "", "", "", sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateBasicInfo(id, "김민수", "", "", "", "", "", "")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Profile Not Found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE fc_profiles`).
			WithArgs("김민수", "서울지점", "kim@example.com", "서울시", "", "901010-*******", "new", sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateBasicInfo(id, "김민수", "서울지점", "kim@example.com", "서울시", "", "901010-*******", "new")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "profile not found")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSetTempID(t *testing.T) {
	repo, mock, cleanup := setupProfileRepoTest(t)
	defer cleanup()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE fc_profiles`).
			WithArgs("T-2001", string(workflow.StatusTempIDIssued), sqlmock.AnyArg(), "01012345678").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetTempID("01012345678", "T-2001")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Profile Not Found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE fc_profiles`).
			WithArgs("T-2001", string(workflow.StatusTempIDIssued), sqlmock.AnyArg(), "01000000000").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetTempID("01000000000", "T-2001")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "profile not found")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSetAllowanceConsent(t *testing.T) {
	repo, mock, cleanup := setupProfileRepoTest(t)
	defer cleanup()

	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE fc_profiles`).
		WithArgs(date, string(workflow.StatusAllowancePending), sqlmock.AnyArg(), "01012345678").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetAllowanceConsent("01012345678", date)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAppointmentDate(t *testing.T) {
	repo, mock, cleanup := setupProfileRepoTest(t)
	defer cleanup()

	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Life Track", func(t *testing.T) {
		mock.ExpectExec(`UPDATE fc_profiles\s+SET appointment_date_life =`).
			WithArgs(date, sqlmock.AnyArg(), "01012345678").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetAppointmentDate("01012345678", "life", false, date)
		assert.NoError(t, err)
	})

	t.Run("Nonlife Backup Slot", func(t *testing.T) {
		mock.ExpectExec(`UPDATE fc_profiles\s+SET appointment_date_nonlife_sub =`).
			WithArgs(date, sqlmock.AnyArg(), "01012345678").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetAppointmentDate("01012345678", "nonlife", true, date)
		assert.NoError(t, err)
	})

	t.Run("Invalid Track", func(t *testing.T) {
		err := repo.SetAppointmentDate("01012345678", "marine", false, date)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDueForReminder(t *testing.T) {
	repo, mock, cleanup := setupProfileRepoTest(t)
	defer cleanup()

	now := time.Now()
	windowStart := now.AddDate(0, 0, -1)
	windowEnd := now.AddDate(0, 0, 3)
	dayStart := now.Truncate(24 * time.Hour)

	mock.ExpectQuery(`SELECT (.+) FROM fc_profiles\s+WHERE docs_deadline_at IS NOT NULL`).
		WithArgs(windowStart, windowEnd, sqlmock.AnyArg(), dayStart).
		WillReturnRows(sqlmock.NewRows(profileTestColumns).AddRow(
			uuid.New(), "01012345678", "김민수", "서울지점", "kim@example.com", nil, nil,
			"901010-*******", nil, string(workflow.StatusDocsPending), "T-1024",
			now, nil,
			now.AddDate(0, 0, 1), nil,
			nil, nil, nil, nil, nil, nil, nil, nil,
			now, now,
		))

	profiles, err := repo.ListDueForReminder(windowStart, windowEnd, dayStart)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.True(t, profiles[0].DocsDeadlineAt.Valid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileDelete(t *testing.T) {
	repo, mock, cleanup := setupProfileRepoTest(t)
	defer cleanup()

	id := uuid.New()

	t.Run("Existing Profile", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM fc_profiles`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		deleted, err := repo.Delete(id)
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("Absent Profile Is Not An Error", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM fc_profiles`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		deleted, err := repo.Delete(id)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

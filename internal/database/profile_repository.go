package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kyobodev/fc-onboarding-backend/internal/models"
	"github.com/kyobodev/fc-onboarding-backend/pkg/workflow"
)

// profileColumns is the shared select list for fc_profiles reads.
const profileColumns = `
		id, phone, name, affiliation, email, address, address_detail,
		resident_id_masked, career_type, status, temp_id,
		allowance_date, allowance_reject_reason,
		docs_deadline_at, docs_deadline_last_notified_at,
		appointment_schedule_life, appointment_schedule_nonlife,
		appointment_date_life, appointment_date_life_sub,
		appointment_date_nonlife, appointment_date_nonlife_sub,
		appointment_reject_reason_life, appointment_reject_reason_nonlife,
		created_at, updated_at`

// ProfileRepository handles fc_profiles database operations
type ProfileRepository struct {
	db DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{
		db: db,
	}
}

// Create inserts a new draft profile for a phone number. Used by the login
// auto-provisioning path and admin bulk-create.
func (r *ProfileRepository) Create(phone string) (*models.FCProfile, error) {
	profile := &models.FCProfile{
		ID:        uuid.New(),
		Phone:     phone,
		Status:    string(workflow.StatusDraft),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
		INSERT INTO fc_profiles (id, phone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(query, profile.ID, profile.Phone, profile.Status, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return profile, nil
}

// GetByPhone retrieves a profile by its normalized phone number.
// Returns (nil, nil) when no profile exists so callers can branch into
// auto-provisioning instead of treating absence as a failure.
func (r *ProfileRepository) GetByPhone(phone string) (*models.FCProfile, error) {
	var profile models.FCProfile

	query := `SELECT` + profileColumns + `
		FROM fc_profiles
		WHERE phone = $1
	`

	err := r.db.Get(&profile, query, phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile by phone: %w", err)
	}

	return &profile, nil
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(id uuid.UUID) (*models.FCProfile, error) {
	var profile models.FCProfile

	query := `SELECT` + profileColumns + `
		FROM fc_profiles
		WHERE id = $1
	`

	err := r.db.Get(&profile, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile by ID: %w", err)
	}

	return &profile, nil
}

// GetOrCreate gets an existing profile or provisions a draft one.
// The bool result reports whether a new profile was created.
func (r *ProfileRepository) GetOrCreate(phone string) (*models.FCProfile, bool, error) {
	profile, err := r.GetByPhone(phone)
	if err != nil {
		return nil, false, err
	}

	if profile != nil {
		return profile, false, nil
	}

	profile, err = r.Create(phone)
	if err != nil {
		return nil, false, err
	}

	return profile, true, nil
}

// List returns all profiles ordered by creation time, newest first.
// Step filtering happens in memory through pkg/workflow so the admin and FC
// views share one step definition.
func (r *ProfileRepository) List() ([]models.FCProfile, error) {
	var profiles []models.FCProfile

	query := `SELECT` + profileColumns + `
		FROM fc_profiles
		ORDER BY created_at DESC
	`

	if err := r.db.Select(&profiles, query); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	return profiles, nil
}

// UpdateBasicInfo updates the applicant's identity fields. Empty inputs leave
// the stored column untouched, so a partial PUT never blanks a field the
// applicant already filled in.
func (r *ProfileRepository) UpdateBasicInfo(id uuid.UUID, name, affiliation, email, address, addressDetail, residentIDMasked, careerType string) error {
	query := `
		UPDATE fc_profiles
		SET name = $1,
		    affiliation = COALESCE(NULLIF($2, ''), affiliation),
		    email = COALESCE(NULLIF($3, ''), email),
		    address = COALESCE(NULLIF($4, ''), address),
		    address_detail = COALESCE(NULLIF($5, ''), address_detail),
		    resident_id_masked = COALESCE(NULLIF($6, ''), resident_id_masked),
		    career_type = COALESCE(NULLIF($7, ''), career_type),
		    updated_at = $8
		WHERE id = $9
	`

	result, err := r.db.Exec(query, name, affiliation, email, address, addressDetail, residentIDMasked, careerType, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update basic info: %w", err)
	}

	return requireRow(result, "profile not found")
}

// SetTempID records the admin-issued provisional employee number and moves
// the profile to temp-id-issued.
func (r *ProfileRepository) SetTempID(phone, tempID string) error {
	query := `
		UPDATE fc_profiles
		SET temp_id = $1,
		    status = $2,
		    updated_at = $3
		WHERE phone = $4
	`

	result, err := r.db.Exec(query, tempID, string(workflow.StatusTempIDIssued), time.Now(), phone)
	if err != nil {
		return fmt.Errorf("failed to set temp ID: %w", err)
	}

	return requireRow(result, "profile not found")
}

// SetAllowanceConsent records the applicant's allowance consent date, clears
// any previous rejection reason and moves the profile to allowance-pending
// (admin review of the consent follows).
func (r *ProfileRepository) SetAllowanceConsent(phone string, allowanceDate time.Time) error {
	query := `
		UPDATE fc_profiles
		SET allowance_date = $1,
		    allowance_reject_reason = NULL,
		    status = $2,
		    updated_at = $3
		WHERE phone = $4
	`

	result, err := r.db.Exec(query, allowanceDate, string(workflow.StatusAllowancePending), time.Now(), phone)
	if err != nil {
		return fmt.Errorf("failed to set allowance consent: %w", err)
	}

	return requireRow(result, "profile not found")
}

// SetAllowanceRejected records an admin rejection of the allowance consent
// and returns the profile to allowance-pending so the applicant can retry.
func (r *ProfileRepository) SetAllowanceRejected(phone, reason string) error {
	query := `
		UPDATE fc_profiles
		SET allowance_reject_reason = $1,
		    status = $2,
		    updated_at = $3
		WHERE phone = $4
	`

	result, err := r.db.Exec(query, reason, string(workflow.StatusAllowancePending), time.Now(), phone)
	if err != nil {
		return fmt.Errorf("failed to set allowance rejection: %w", err)
	}

	return requireRow(result, "profile not found")
}

// SetAllowanceApproved confirms the consent and moves the profile to
// allowance-consented, opening the document step.
func (r *ProfileRepository) SetAllowanceApproved(phone string) error {
	query := `
		UPDATE fc_profiles
		SET allowance_reject_reason = NULL,
		    status = $1,
		    updated_at = $2
		WHERE phone = $3
	`

	result, err := r.db.Exec(query, string(workflow.StatusAllowanceConsented), time.Now(), phone)
	if err != nil {
		return fmt.Errorf("failed to approve allowance: %w", err)
	}

	return requireRow(result, "profile not found")
}

// SetStatus updates only the workflow status. Transition services use this
// when the fields that justify the status were written elsewhere in the same
// operation (e.g. document review).
func (r *ProfileRepository) SetStatus(id uuid.UUID, status workflow.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status: %s", status)
	}

	query := `
		UPDATE fc_profiles
		SET status = $1,
		    updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	return requireRow(result, "profile not found")
}

// SetDocsDeadline opens the document step with a submission deadline.
func (r *ProfileRepository) SetDocsDeadline(phone string, deadline time.Time) error {
	query := `
		UPDATE fc_profiles
		SET docs_deadline_at = $1,
		    status = $2,
		    updated_at = $3
		WHERE phone = $4
	`

	result, err := r.db.Exec(query, deadline, string(workflow.StatusDocsRequested), time.Now(), phone)
	if err != nil {
		return fmt.Errorf("failed to set docs deadline: %w", err)
	}

	return requireRow(result, "profile not found")
}

// appointmentDateColumns whitelists the updatable appointment date columns.
// Column names are never taken from request input.
var appointmentDateColumns = map[models.AppointmentTrack]map[bool]string{
	models.TrackLife: {
		false: "appointment_date_life",
		true:  "appointment_date_life_sub",
	},
	models.TrackNonlife: {
		false: "appointment_date_nonlife",
		true:  "appointment_date_nonlife_sub",
	},
}

var appointmentRejectColumns = map[models.AppointmentTrack]string{
	models.TrackLife:    "appointment_reject_reason_life",
	models.TrackNonlife: "appointment_reject_reason_nonlife",
}

var appointmentScheduleColumns = map[models.AppointmentTrack]string{
	models.TrackLife:    "appointment_schedule_life",
	models.TrackNonlife: "appointment_schedule_nonlife",
}

// SetAppointmentDate writes the applicant-supplied appointment date for one
// track (or its backup slot) and clears that track's rejection reason.
func (r *ProfileRepository) SetAppointmentDate(phone string, track models.AppointmentTrack, backup bool, date time.Time) error {
	if !track.IsValid() {
		return fmt.Errorf("invalid appointment track: %s", track)
	}

	dateColumn := appointmentDateColumns[track][backup]
	rejectColumn := appointmentRejectColumns[track]

	query := fmt.Sprintf(`
		UPDATE fc_profiles
		SET %s = $1,
		    %s = NULL,
		    updated_at = $2
		WHERE phone = $3
	`, dateColumn, rejectColumn)

	result, err := r.db.Exec(query, date, time.Now(), phone)
	if err != nil {
		return fmt.Errorf("failed to set appointment date: %w", err)
	}

	return requireRow(result, "profile not found")
}

// SetAppointmentConfirmed records the confirmed appointment schedule for a
// track and moves the profile to appointment-completed.
func (r *ProfileRepository) SetAppointmentConfirmed(phone string, track models.AppointmentTrack, schedule time.Time) error {
	if !track.IsValid() {
		return fmt.Errorf("invalid appointment track: %s", track)
	}

	query := fmt.Sprintf(`
		UPDATE fc_profiles
		SET %s = $1,
		    status = $2,
		    updated_at = $3
		WHERE phone = $4
	`, appointmentScheduleColumns[track])

	result, err := r.db.Exec(query, schedule, string(workflow.StatusAppointmentCompleted), time.Now(), phone)
	if err != nil {
		return fmt.Errorf("failed to confirm appointment: %w", err)
	}

	return requireRow(result, "profile not found")
}

// SetAppointmentRejected records an admin rejection for one track and clears
// that track's requested dates so the applicant can resubmit.
func (r *ProfileRepository) SetAppointmentRejected(phone string, track models.AppointmentTrack, reason string) error {
	if !track.IsValid() {
		return fmt.Errorf("invalid appointment track: %s", track)
	}

	query := fmt.Sprintf(`
		UPDATE fc_profiles
		SET %s = $1,
		    %s = NULL,
		    %s = NULL,
		    updated_at = $2
		WHERE phone = $3
	`, appointmentRejectColumns[track], appointmentDateColumns[track][false], appointmentDateColumns[track][true])

	result, err := r.db.Exec(query, reason, time.Now(), phone)
	if err != nil {
		return fmt.Errorf("failed to reject appointment: %w", err)
	}

	return requireRow(result, "profile not found")
}

// reminderEligibleStatuses are the statuses the deadline sweep considers.
var reminderEligibleStatuses = []string{
	string(workflow.StatusDocsRequested),
	string(workflow.StatusDocsPending),
	string(workflow.StatusDocsSubmitted),
	string(workflow.StatusDocsRejected),
}

// ListDueForReminder returns profiles whose document deadline falls inside
// [windowStart, windowEnd] and that have not been notified since dayStart.
func (r *ProfileRepository) ListDueForReminder(windowStart, windowEnd, dayStart time.Time) ([]models.FCProfile, error) {
	var profiles []models.FCProfile

	query := `SELECT` + profileColumns + `
		FROM fc_profiles
		WHERE docs_deadline_at IS NOT NULL
		  AND docs_deadline_at >= $1
		  AND docs_deadline_at <= $2
		  AND status = ANY($3)
		  AND (docs_deadline_last_notified_at IS NULL OR docs_deadline_last_notified_at < $4)
		ORDER BY docs_deadline_at ASC
	`

	err := r.db.Select(&profiles, query, windowStart, windowEnd, pq.Array(reminderEligibleStatuses), dayStart)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder candidates: %w", err)
	}

	return profiles, nil
}

// StampDeadlineNotified records that the profile was notified on the given
// day, preventing a second notification until the next day starts.
func (r *ProfileRepository) StampDeadlineNotified(id uuid.UUID, day time.Time) error {
	query := `
		UPDATE fc_profiles
		SET docs_deadline_last_notified_at = $1,
		    updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, day, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to stamp deadline notification: %w", err)
	}

	return requireRow(result, "profile not found")
}

// Delete removes the profile row itself. Dependent rows are removed first by
// the account deletion cascade; this is its final step.
func (r *ProfileRepository) Delete(id uuid.UUID) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM fc_profiles WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// requireRow converts a zero-row update into a not-found error.
func requireRow(result sql.Result, notFoundMsg string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s", notFoundMsg)
	}

	return nil
}

package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kyobodev/fc-onboarding-backend/internal/models"
)

// ExamRegistrationRepository handles exam_registrations database operations
type ExamRegistrationRepository struct {
	db DB
}

// NewExamRegistrationRepository creates a new exam registration repository
func NewExamRegistrationRepository(db DB) *ExamRegistrationRepository {
	return &ExamRegistrationRepository{
		db: db,
	}
}

// Create registers an applicant for a licensing exam round.
func (r *ExamRegistrationRepository) Create(profileID uuid.UUID, examRound string, examDate time.Time) (*models.ExamRegistration, error) {
	reg := &models.ExamRegistration{
		ID:        uuid.New(),
		ProfileID: profileID,
		ExamRound: examRound,
		CreatedAt: time.Now(),
	}
	if !examDate.IsZero() {
		reg.ExamDate = models.NewNullTime(examDate)
	}

	query := `
		INSERT INTO exam_registrations (id, profile_id, exam_round, exam_date, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(query, reg.ID, reg.ProfileID, reg.ExamRound, reg.ExamDate, reg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create exam registration: %w", err)
	}

	return reg, nil
}

// ListByProfile returns an applicant's exam registrations.
func (r *ExamRegistrationRepository) ListByProfile(profileID uuid.UUID) ([]models.ExamRegistration, error) {
	var regs []models.ExamRegistration

	query := `
		SELECT id, profile_id, exam_round, exam_date, created_at
		FROM exam_registrations
		WHERE profile_id = $1
		ORDER BY created_at DESC
	`

	if err := r.db.Select(&regs, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to list exam registrations: %w", err)
	}

	return regs, nil
}

// DeleteByProfile removes all exam registrations for an applicant (cascade only).
func (r *ExamRegistrationRepository) DeleteByProfile(profileID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM exam_registrations WHERE profile_id = $1`, profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete exam registrations: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

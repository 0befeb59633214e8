package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kyobodev/fc-onboarding-backend/internal/models"
)

// MessageRepository handles messages database operations
type MessageRepository struct {
	db DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db DB) *MessageRepository {
	return &MessageRepository{
		db: db,
	}
}

// Create inserts a direct message between an applicant and the admin office.
func (r *MessageRepository) Create(profileID uuid.UUID, sender, body string) (*models.Message, error) {
	m := &models.Message{
		ID:        uuid.New(),
		ProfileID: profileID,
		Sender:    sender,
		Body:      body,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO messages (id, profile_id, sender, body, is_read, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
	`

	_, err := r.db.Exec(query, m.ID, m.ProfileID, m.Sender, m.Body, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return m, nil
}

// ListByProfile returns the message thread for an applicant, oldest first.
func (r *MessageRepository) ListByProfile(profileID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message

	query := `
		SELECT id, profile_id, sender, body, is_read, created_at
		FROM messages
		WHERE profile_id = $1
		ORDER BY created_at ASC
	`

	if err := r.db.Select(&messages, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// DeleteByProfile removes all messages for an applicant (cascade only).
func (r *MessageRepository) DeleteByProfile(profileID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM messages WHERE profile_id = $1`, profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

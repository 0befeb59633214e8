package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kyobodev/fc-onboarding-backend/internal/models"
)

// NotificationRepository handles notifications database operations
type NotificationRepository struct {
	db DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db DB) *NotificationRepository {
	return &NotificationRepository{
		db: db,
	}
}

// Create inserts a notification record for an applicant.
func (r *NotificationRepository) Create(profileID uuid.UUID, title, body, kind string) (*models.Notification, error) {
	n := &models.Notification{
		ID:        uuid.New(),
		ProfileID: profileID,
		Title:     title,
		Body:      body,
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO notifications (id, profile_id, title, body, kind, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6)
	`

	_, err := r.db.Exec(query, n.ID, n.ProfileID, n.Title, n.Body, n.Kind, n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return n, nil
}

// ListByProfile returns an applicant's notifications, newest first.
func (r *NotificationRepository) ListByProfile(profileID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification

	query := `
		SELECT id, profile_id, title, body, kind, is_read, created_at
		FROM notifications
		WHERE profile_id = $1
		ORDER BY created_at DESC
	`

	if err := r.db.Select(&notifications, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead flags a notification as read.
func (r *NotificationRepository) MarkRead(id uuid.UUID) error {
	result, err := r.db.Exec(`UPDATE notifications SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return requireRow(result, "notification not found")
}

// DeleteByProfile removes all notifications for an applicant (cascade only).
func (r *NotificationRepository) DeleteByProfile(profileID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM notifications WHERE profile_id = $1`, profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

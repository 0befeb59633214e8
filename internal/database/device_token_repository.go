package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kyobodev/fc-onboarding-backend/internal/models"
)

// DeviceTokenRepository handles device_tokens database operations
type DeviceTokenRepository struct {
	db DB
}

// NewDeviceTokenRepository creates a new device token repository
func NewDeviceTokenRepository(db DB) *DeviceTokenRepository {
	return &DeviceTokenRepository{
		db: db,
	}
}

// Register upserts a device token for an applicant. Re-registering the same
// token just refreshes ownership (tokens migrate between reinstalls).
func (r *DeviceTokenRepository) Register(profileID uuid.UUID, token, platform string) error {
	query := `
		INSERT INTO device_tokens (id, profile_id, token, platform, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token)
		DO UPDATE SET profile_id = EXCLUDED.profile_id, platform = EXCLUDED.platform
	`

	_, err := r.db.Exec(query, uuid.New(), profileID, token, platform, time.Now())
	if err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}

	return nil
}

// ListByProfile returns every registered token for an applicant.
func (r *DeviceTokenRepository) ListByProfile(profileID uuid.UUID) ([]models.DeviceToken, error) {
	var tokens []models.DeviceToken

	query := `
		SELECT id, profile_id, token, platform, created_at
		FROM device_tokens
		WHERE profile_id = $1
		ORDER BY created_at ASC
	`

	if err := r.db.Select(&tokens, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}

	return tokens, nil
}

// Remove deletes a single token (explicit unregister on logout).
func (r *DeviceTokenRepository) Remove(token string) error {
	_, err := r.db.Exec(`DELETE FROM device_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to remove device token: %w", err)
	}
	return nil
}

// DeleteByProfile removes all tokens for an applicant (cascade only).
func (r *DeviceTokenRepository) DeleteByProfile(profileID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM device_tokens WHERE profile_id = $1`, profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete device tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

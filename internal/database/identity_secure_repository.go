package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdentitySecureRepository handles the identity_secure table, which stores
// the encrypted full resident registration number apart from the profile.
type IdentitySecureRepository struct {
	db DB
}

// NewIdentitySecureRepository creates a new identity secure repository
func NewIdentitySecureRepository(db DB) *IdentitySecureRepository {
	return &IdentitySecureRepository{
		db: db,
	}
}

// Upsert stores the encrypted resident ID for a profile.
func (r *IdentitySecureRepository) Upsert(profileID uuid.UUID, cipher string) error {
	query := `
		INSERT INTO identity_secure (profile_id, resident_id_cipher, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile_id)
		DO UPDATE SET resident_id_cipher = EXCLUDED.resident_id_cipher
	`

	_, err := r.db.Exec(query, profileID, cipher, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert identity record: %w", err)
	}

	return nil
}

// DeleteByProfile removes the identity record for an applicant (cascade only).
func (r *IdentitySecureRepository) DeleteByProfile(profileID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM identity_secure WHERE profile_id = $1`, profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete identity record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kyobodev/fc-onboarding-backend/internal/models"
)

// AdminUserRepository handles admin_users database operations
type AdminUserRepository struct {
	db DB
}

// NewAdminUserRepository creates a new admin user repository
func NewAdminUserRepository(db DB) *AdminUserRepository {
	return &AdminUserRepository{
		db: db,
	}
}

// GetByUsername retrieves an admin user by username.
// Returns (nil, nil) when no such user exists.
func (r *AdminUserRepository) GetByUsername(username string) (*models.AdminUser, error) {
	var admin models.AdminUser

	query := `
		SELECT id, username, password_hash, display_name, created_at
		FROM admin_users
		WHERE username = $1
	`

	err := r.db.Get(&admin, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	return &admin, nil
}

// Create inserts an admin user with a pre-hashed password.
func (r *AdminUserRepository) Create(username, passwordHash, displayName string) (*models.AdminUser, error) {
	admin := &models.AdminUser{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		DisplayName:  models.NewNullString(displayName),
		CreatedAt:    time.Now(),
	}

	query := `
		INSERT INTO admin_users (id, username, password_hash, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(query, admin.ID, admin.Username, admin.PasswordHash, admin.DisplayName, admin.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	return admin, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser is an operator of the admin console.
type AdminUser struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose
	DisplayName  NullString `json:"display_name,omitempty" db:"display_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// AuditLog represents an audit log entry for admin and auth events.
type AuditLog struct {
	ID         int64         `json:"id" db:"id"`
	ActorID    uuid.NullUUID `json:"actor_id,omitempty" db:"actor_id"`
	Action     string        `json:"action" db:"action"`
	EntityType NullString    `json:"entity_type,omitempty" db:"entity_type"`
	EntityID   uuid.NullUUID `json:"entity_id,omitempty" db:"entity_id"`
	IPAddress  NullString    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  NullString    `json:"user_agent,omitempty" db:"user_agent"`
	Details    NullString    `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds.
const (
	NotificationKindDeadline    = "docs_deadline"
	NotificationKindDocReview   = "doc_review"
	NotificationKindAppointment = "appointment"
	NotificationKindGeneral     = "general"
)

// Notification is one in-app notice for an applicant.
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProfileID uuid.UUID `json:"profile_id" db:"profile_id"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	Kind      string    `json:"kind" db:"kind"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DeviceToken is one registered push target for an applicant's device.
type DeviceToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProfileID uuid.UUID `json:"profile_id" db:"profile_id"`
	Token     string    `json:"token" db:"token"`
	Platform  string    `json:"platform" db:"platform"` // ios | android
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Message is one direct message between an applicant and the admin office.
type Message struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProfileID uuid.UUID `json:"profile_id" db:"profile_id"`
	Sender    string    `json:"sender" db:"sender"` // fc | admin
	Body      string    `json:"body" db:"body"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ExamRegistration is an applicant's licensing exam signup.
type ExamRegistration struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProfileID uuid.UUID `json:"profile_id" db:"profile_id"`
	ExamRound string    `json:"exam_round" db:"exam_round"`
	ExamDate  NullTime  `json:"exam_date,omitempty" db:"exam_date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IdentitySecure holds the encrypted full resident registration number,
// stored apart from the profile. Only the masked form ever leaves storage.
type IdentitySecure struct {
	ProfileID         uuid.UUID `json:"profile_id" db:"profile_id"`
	ResidentIDCipher  string    `json:"-" db:"resident_id_cipher"` // Never expose
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

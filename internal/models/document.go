package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kyobodev/fc-onboarding-backend/pkg/workflow"
)

// DeletedSentinel is the legacy at-rest marker for a document whose file was
// uploaded and later removed. The row is kept; only the storage path is
// overwritten. New code should go through UploadState instead of comparing
// against this value directly.
const DeletedSentinel = "deleted"

// Known document types. DocType is free text for ad-hoc admin requests, but
// uploads from the app use this catalog.
const (
	DocTypeIDCard        = "id_card"
	DocTypeBankbook      = "bankbook"
	DocTypeCareerCert    = "career_cert"
	DocTypeEducationCert = "education_cert"
	DocTypeLicenseExam   = "license_exam"
)

// FCDocument represents one required or optional file tied to an applicant.
type FCDocument struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	ProfileID    uuid.UUID  `json:"profile_id" db:"profile_id"`
	DocType      string     `json:"doc_type" db:"doc_type"`
	StoragePath  NullString `json:"storage_path,omitempty" db:"storage_path"`
	FileName     NullString `json:"file_name,omitempty" db:"file_name"`
	Status       NullString `json:"status,omitempty" db:"status"`
	ReviewerNote NullString `json:"reviewer_note,omitempty" db:"reviewer_note"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// UploadState translates the legacy NULL / "deleted" column encoding into
// the tagged state the workflow package works with.
func (d *FCDocument) UploadState() workflow.UploadState {
	if !d.StoragePath.Valid || d.StoragePath.String == "" {
		return workflow.NotUploaded()
	}
	if d.StoragePath.String == DeletedSentinel {
		return workflow.Removed()
	}
	return workflow.Uploaded(d.StoragePath.String)
}

// ReviewStatus maps the nullable stored status to the workflow review state.
// A NULL review counts as pending.
func (d *FCDocument) ReviewStatus() workflow.ReviewStatus {
	switch d.Status.ValueOrZero() {
	case string(workflow.ReviewApproved):
		return workflow.ReviewApproved
	case string(workflow.ReviewRejected):
		return workflow.ReviewRejected
	default:
		return workflow.ReviewPending
	}
}

// ToWorkflow projects the document into the step calculator's view.
func (d *FCDocument) ToWorkflow() workflow.Document {
	return workflow.Document{
		DocType: d.DocType,
		Upload:  d.UploadState(),
		Review:  d.ReviewStatus(),
	}
}

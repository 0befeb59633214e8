package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kyobodev/fc-onboarding-backend/internal/models"
	"github.com/kyobodev/fc-onboarding-backend/pkg/workflow"
)

const documentColumns = `
		id, profile_id, doc_type, storage_path, file_name,
		status, reviewer_note, created_at, updated_at`

// DocumentRepository handles fc_documents database operations
type DocumentRepository struct {
	db DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db DB) *DocumentRepository {
	return &DocumentRepository{
		db: db,
	}
}

// Create inserts a newly uploaded document with a pending review status.
func (r *DocumentRepository) Create(profileID uuid.UUID, docType, fileName, storagePath string) (*models.FCDocument, error) {
	doc := &models.FCDocument{
		ID:          uuid.New(),
		ProfileID:   profileID,
		DocType:     docType,
		StoragePath: models.NewNullString(storagePath),
		FileName:    models.NewNullString(fileName),
		Status:      models.NewNullString(string(workflow.ReviewPending)),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	query := `
		INSERT INTO fc_documents (id, profile_id, doc_type, storage_path, file_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(query, doc.ID, doc.ProfileID, doc.DocType, doc.StoragePath, doc.FileName, doc.Status, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return doc, nil
}

// Get retrieves a document by ID. Returns (nil, nil) when absent.
func (r *DocumentRepository) Get(id uuid.UUID) (*models.FCDocument, error) {
	var doc models.FCDocument

	query := `SELECT` + documentColumns + `
		FROM fc_documents
		WHERE id = $1
	`

	err := r.db.Get(&doc, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

// ListByProfile returns every document row for an applicant, including rows
// whose upload was removed. The step calculator decides what counts.
func (r *DocumentRepository) ListByProfile(profileID uuid.UUID) ([]models.FCDocument, error) {
	var docs []models.FCDocument

	query := `SELECT` + documentColumns + `
		FROM fc_documents
		WHERE profile_id = $1
		ORDER BY created_at ASC
	`

	if err := r.db.Select(&docs, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return docs, nil
}

// SetReview records an admin review decision. Approvals clear the reviewer
// note; rejections store it.
func (r *DocumentRepository) SetReview(id uuid.UUID, status workflow.ReviewStatus, note string) error {
	query := `
		UPDATE fc_documents
		SET status = $1,
		    reviewer_note = NULLIF($2, ''),
		    updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.Exec(query, string(status), note, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set document review: %w", err)
	}

	return requireRow(result, "document not found")
}

// MarkRemoved overwrites the storage path with the deleted sentinel. The row
// survives so the admin console can still show that a file existed; the
// sentinel keeps "uploaded then removed" distinguishable from "never
// uploaded".
func (r *DocumentRepository) MarkRemoved(id uuid.UUID) error {
	query := `
		UPDATE fc_documents
		SET storage_path = $1,
		    status = NULL,
		    updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, models.DeletedSentinel, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark document removed: %w", err)
	}

	return requireRow(result, "document not found")
}

// DeleteByProfile removes every document row for an applicant. Only the
// account-deletion cascade calls this.
func (r *DocumentRepository) DeleteByProfile(profileID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM fc_documents WHERE profile_id = $1`, profileID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

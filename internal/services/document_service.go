package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kyobodev/fc-onboarding-backend/internal/database"
	"github.com/kyobodev/fc-onboarding-backend/internal/models"
	"github.com/kyobodev/fc-onboarding-backend/pkg/workflow"
)

// DocumentService implements document upload and review transitions. Every
// mutation recomputes the profile's document status so the stored status
// always matches what the step calculator would derive.
type DocumentService struct {
	profiles  *database.ProfileRepository
	documents *database.DocumentRepository
	logger    *logrus.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(profiles *database.ProfileRepository, documents *database.DocumentRepository, logger *logrus.Logger) *DocumentService {
	return &DocumentService{
		profiles:  profiles,
		documents: documents,
		logger:    logger,
	}
}

// List returns the document rows for a profile.
func (s *DocumentService) List(profileID uuid.UUID) ([]models.FCDocument, error) {
	return s.documents.ListByProfile(profileID)
}

// Get resolves a document, mapping absence to ErrDocumentNotFound.
func (s *DocumentService) Get(docID uuid.UUID) (*models.FCDocument, error) {
	doc, err := s.documents.Get(docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// Upload records a newly stored file and moves the profile's document status
// forward: docs-submitted once everything required is in, docs-pending
// otherwise.
func (s *DocumentService) Upload(profileID uuid.UUID, docType, fileName, storagePath string) (*models.FCDocument, error) {
	if strings.TrimSpace(docType) == "" {
		return nil, NewValidationError("doc_type", "document type cannot be empty")
	}
	if strings.TrimSpace(storagePath) == "" || storagePath == models.DeletedSentinel {
		return nil, NewValidationError("storage_path", "storage path is missing or reserved")
	}

	doc, err := s.documents.Create(profileID, docType, fileName, storagePath)
	if err != nil {
		return nil, err
	}

	if err := s.syncProfileDocStatus(profileID); err != nil {
		return nil, err
	}

	return doc, nil
}

// Approve marks one document approved and clears reviewer concerns. When it
// was the last unapproved document, the profile advances to docs-approved.
func (s *DocumentService) Approve(docID uuid.UUID) (*models.FCDocument, error) {
	doc, err := s.documents.Get(docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	if !doc.UploadState().Present() {
		return nil, &PreconditionError{
			Code:    "no_upload",
			Message: "제출된 파일이 없어 승인할 수 없습니다.",
		}
	}

	if err := s.documents.SetReview(docID, workflow.ReviewApproved, ""); err != nil {
		return nil, err
	}

	if err := s.syncProfileDocStatus(doc.ProfileID); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"document_id": docID,
		"profile_id":  doc.ProfileID,
	}).Info("document approved")

	return s.documents.Get(docID)
}

// Reject marks one document rejected with a reviewer note and moves the
// profile to docs-rejected.
func (s *DocumentService) Reject(docID uuid.UUID, note string) (*models.FCDocument, error) {
	if strings.TrimSpace(note) == "" {
		return nil, NewValidationError("reviewer_note", "rejection requires a reviewer note")
	}

	doc, err := s.documents.Get(docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	if err := s.documents.SetReview(docID, workflow.ReviewRejected, note); err != nil {
		return nil, err
	}

	if err := s.profiles.SetStatus(doc.ProfileID, workflow.StatusDocsRejected); err != nil {
		return nil, fmt.Errorf("failed to move profile to docs-rejected: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"document_id": docID,
		"profile_id":  doc.ProfileID,
	}).Info("document rejected")

	return s.documents.Get(docID)
}

// Remove marks a document's upload as removed (the row survives with the
// deleted sentinel) and drops the profile back to docs-pending.
func (s *DocumentService) Remove(docID uuid.UUID) error {
	doc, err := s.documents.Get(docID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	if err := s.documents.MarkRemoved(docID); err != nil {
		return err
	}

	return s.syncProfileDocStatus(doc.ProfileID)
}

// syncProfileDocStatus recomputes the profile's document status from its
// document rows through the shared workflow predicates, keeping the stored
// status consistent with what the step calculator would derive.
func (s *DocumentService) syncProfileDocStatus(profileID uuid.UUID) error {
	profile, err := s.profiles.GetByID(profileID)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrProfileNotFound
	}

	// Only reconcile while the profile is inside the document step; the
	// allowance step and later steps own their own statuses.
	current := profile.WorkflowStatus()
	if !current.AllowancePassed() || current == workflow.StatusAppointmentCompleted || current == workflow.StatusFinalLinkSent {
		return nil
	}

	docs, err := s.documents.ListByProfile(profileID)
	if err != nil {
		return err
	}

	snapshot := profile.ToWorkflow(docs)

	var next workflow.Status
	switch {
	case workflow.AllDocsApproved(snapshot):
		next = workflow.StatusDocsApproved
	case anyDocRejected(docs):
		next = workflow.StatusDocsRejected
	case workflow.AllDocsSubmitted(snapshot):
		next = workflow.StatusDocsSubmitted
	default:
		next = workflow.StatusDocsPending
	}

	if next == current {
		return nil
	}

	if err := s.profiles.SetStatus(profileID, next); err != nil {
		return fmt.Errorf("failed to sync document status: %w", err)
	}

	return nil
}

func anyDocRejected(docs []models.FCDocument) bool {
	for _, d := range docs {
		if d.UploadState().Present() && d.ReviewStatus() == workflow.ReviewRejected {
			return true
		}
	}
	return false
}

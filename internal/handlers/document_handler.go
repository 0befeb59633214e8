package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kyobodev/fc-onboarding-backend/internal/middleware"
	"github.com/kyobodev/fc-onboarding-backend/internal/services"
	"github.com/kyobodev/fc-onboarding-backend/internal/utils"
)

// DocumentHandler handles the FC applicant's document endpoints.
type DocumentHandler struct {
	onboardingSvc *services.OnboardingService
	documentSvc   *services.DocumentService
	auditService  *services.AuditService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	onboardingSvc *services.OnboardingService,
	documentSvc *services.DocumentService,
	auditService *services.AuditService,
) *DocumentHandler {
	return &DocumentHandler{
		onboardingSvc: onboardingSvc,
		documentSvc:   documentSvc,
		auditService:  auditService,
	}
}

// UploadDocumentRequest records a file the app already pushed to object
// storage: the API stores the reference, not the bytes.
type UploadDocumentRequest struct {
	DocType     string `json:"doc_type" binding:"required"`
	FileName    string `json:"file_name"`
	StoragePath string `json:"storage_path" binding:"required"`
}

// ListDocuments handles GET /api/v1/fc/documents
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	profile, err := h.onboardingSvc.GetByPhone(userCtx.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	docs, err := h.documentSvc.List(profile.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// UploadDocument handles POST /api/v1/fc/documents
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	profile, err := h.onboardingSvc.GetByPhone(userCtx.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	doc, err := h.documentSvc.Upload(profile.ID, req.DocType, req.FileName, req.StoragePath)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	logAuditError("LogWorkflowTransition", h.auditService.LogWorkflowTransition(profile.ID, "fc", "doc_uploaded",
		utils.GetRealIP(c), utils.GetUserAgent(c), map[string]interface{}{
			"doc_type": req.DocType,
		}))

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"document": doc,
	})
}

// RemoveDocument handles DELETE /api/v1/fc/documents/:id. The row survives
// with its upload marked removed, so review history stays visible.
func (h *DocumentHandler) RemoveDocument(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid document ID",
		})
		return
	}

	profile, err := h.onboardingSvc.GetByPhone(userCtx.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// The applicant may only remove their own documents.
	doc, err := h.documentSvc.Get(docID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if doc.ProfileID != profile.ID {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "Document belongs to another profile",
		})
		return
	}

	if err := h.documentSvc.Remove(docID); err != nil {
		respondServiceError(c, err)
		return
	}

	logAuditError("LogWorkflowTransition", h.auditService.LogWorkflowTransition(profile.ID, "fc", "doc_removed",
		utils.GetRealIP(c), utils.GetUserAgent(c), map[string]interface{}{
			"document_id": docID,
		}))

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

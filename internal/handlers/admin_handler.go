package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kyobodev/fc-onboarding-backend/internal/database"
	"github.com/kyobodev/fc-onboarding-backend/internal/middleware"
	"github.com/kyobodev/fc-onboarding-backend/internal/services"
	"github.com/kyobodev/fc-onboarding-backend/internal/utils"
	"github.com/kyobodev/fc-onboarding-backend/pkg/workflow"
)

// AdminHandler handles the admin dashboard operations: roster management,
// per-step listing and the workflow transitions the admin drives.
type AdminHandler struct {
	onboardingSvc  *services.OnboardingService
	documentSvc    *services.DocumentService
	appointmentSvc *services.AppointmentService
	cronSvc        *services.CronService
	profiles       *database.ProfileRepository
	documents      *database.DocumentRepository
	messages       *database.MessageRepository
	auditService   *services.AuditService
	policy         workflow.Policy
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	onboardingSvc *services.OnboardingService,
	documentSvc *services.DocumentService,
	appointmentSvc *services.AppointmentService,
	cronSvc *services.CronService,
	profiles *database.ProfileRepository,
	documents *database.DocumentRepository,
	messages *database.MessageRepository,
	auditService *services.AuditService,
	policy workflow.Policy,
) *AdminHandler {
	return &AdminHandler{
		onboardingSvc:  onboardingSvc,
		documentSvc:    documentSvc,
		appointmentSvc: appointmentSvc,
		cronSvc:        cronSvc,
		profiles:       profiles,
		documents:      documents,
		messages:       messages,
		auditService:   auditService,
		policy:         policy,
	}
}

func (h *AdminHandler) adminActor(c *gin.Context) string {
	if userCtx, ok := middleware.GetUserContext(c); ok {
		return userCtx.Phone
	}
	return "admin"
}

func (h *AdminHandler) logTransition(c *gin.Context, profileID uuid.UUID, action string, details map[string]interface{}) {
	logAuditError("LogWorkflowTransition", h.auditService.LogWorkflowTransition(profileID, h.adminActor(c), action,
		utils.GetRealIP(c), utils.GetUserAgent(c), details))
}

// ListProfiles handles GET /api/v1/admin/profiles. The optional ?filter=
// query selects one step group; the response always carries per-filter counts
// so the dashboard tabs show totals without a second round trip.
func (h *AdminHandler) ListProfiles(c *gin.Context) {
	filterKey := c.DefaultQuery("filter", "all")

	filters := workflow.FiltersFor(workflow.RoleAdmin, h.policy)

	var selected *workflow.Filter
	for i := range filters {
		if filters[i].Key == filterKey {
			selected = &filters[i]
			break
		}
	}
	if selected == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Unknown filter key: " + filterKey,
		})
		return
	}

	profiles, err := h.profiles.List()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	counts := make(map[string]int, len(filters))
	for _, f := range filters {
		counts[f.Key] = 0
	}

	views := make([]profileView, 0, len(profiles))
	for i := range profiles {
		profile := &profiles[i]

		docs, err := h.documents.ListByProfile(profile.ID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		snapshot := profile.ToWorkflow(docs)
		for _, f := range filters {
			if f.Match(snapshot) {
				counts[f.Key]++
			}
		}

		if selected.Match(snapshot) {
			views = append(views, buildProfileView(profile, docs, h.policy))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"filter":   filterKey,
		"counts":   counts,
		"profiles": views,
		"total":    len(profiles),
	})
}

// GetProfile handles GET /api/v1/admin/profiles/:phone
func (h *AdminHandler) GetProfile(c *gin.Context) {
	profile, err := h.onboardingSvc.GetByPhone(c.Param("phone"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	docs, err := h.documents.ListByProfile(profile.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":   profile,
		"documents": docs,
		"progress":  buildStepView(profile, docs, h.policy),
	})
}

// BulkCreateRequest is an admin roster import.
type BulkCreateRequest struct {
	Phones []string `json:"phones" binding:"required"`
}

// BulkCreateProfiles handles POST /api/v1/admin/profiles/bulk
func (h *AdminHandler) BulkCreateProfiles(c *gin.Context) {
	var req BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if len(req.Phones) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Phone list cannot be empty",
		})
		return
	}

	result := h.onboardingSvc.BulkCreate(req.Phones)

	logAuditError("LogBulkImport", h.auditService.LogBulkImport(h.adminActor(c), utils.GetRealIP(c), utils.GetUserAgent(c),
		len(req.Phones), result.Created, result.Skipped))

	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"result": result,
	})
}

// IssueTempIDRequest assigns a provisional employee number.
type IssueTempIDRequest struct {
	TempID string `json:"temp_id" binding:"required"`
}

// IssueTempID handles POST /api/v1/admin/profiles/:phone/temp-id
func (h *AdminHandler) IssueTempID(c *gin.Context) {
	var req IssueTempIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	profile, err := h.onboardingSvc.IssueTempID(c.Param("phone"), req.TempID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.logTransition(c, profile.ID, "temp_id_issued", map[string]interface{}{
		"temp_id": req.TempID,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"profile": profile,
	})
}

// ApproveAllowance handles POST /api/v1/admin/profiles/:phone/allowance/approve
func (h *AdminHandler) ApproveAllowance(c *gin.Context) {
	profile, err := h.onboardingSvc.ApproveAllowance(c.Param("phone"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.logTransition(c, profile.ID, "allowance_approved", nil)

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"profile": profile,
	})
}

// RejectRequest carries an admin rejection reason.
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectAllowance handles POST /api/v1/admin/profiles/:phone/allowance/reject
func (h *AdminHandler) RejectAllowance(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	profile, err := h.onboardingSvc.RejectAllowance(c.Param("phone"), req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.logTransition(c, profile.ID, "allowance_rejected", map[string]interface{}{
		"reason": req.Reason,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"profile": profile,
	})
}

// RequestDocumentsRequest opens the document step with a deadline.
type RequestDocumentsRequest struct {
	Deadline string `json:"docs_deadline_at" binding:"required"` // YYYY-MM-DD
}

// RequestDocuments handles POST /api/v1/admin/profiles/:phone/documents/request
func (h *AdminHandler) RequestDocuments(c *gin.Context) {
	var req RequestDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	profile, err := h.onboardingSvc.RequestDocuments(c.Param("phone"), req.Deadline)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.logTransition(c, profile.ID, "documents_requested", map[string]interface{}{
		"deadline": req.Deadline,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"profile": profile,
	})
}

// ApproveDocument handles POST /api/v1/admin/documents/:id/approve
func (h *AdminHandler) ApproveDocument(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid document ID",
		})
		return
	}

	doc, err := h.documentSvc.Approve(docID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.logTransition(c, doc.ProfileID, "doc_approved", map[string]interface{}{
		"document_id": docID.String(),
		"doc_type":    doc.DocType,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"document": doc,
	})
}

// RejectDocument handles POST /api/v1/admin/documents/:id/reject
func (h *AdminHandler) RejectDocument(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid document ID",
		})
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	doc, err := h.documentSvc.Reject(docID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.logTransition(c, doc.ProfileID, "doc_rejected", map[string]interface{}{
		"document_id": docID.String(),
		"doc_type":    doc.DocType,
		"reason":      req.Reason,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"document": doc,
	})
}

// ConfirmAppointmentRequest carries the confirmed schedule for one track.
type ConfirmAppointmentRequest struct {
	Type         string `json:"type" binding:"required"` // life | nonlife
	ScheduleDate string `json:"schedule_date" binding:"required"`
}

// ConfirmAppointment handles POST /api/v1/admin/profiles/:phone/appointment/confirm
func (h *AdminHandler) ConfirmAppointment(c *gin.Context) {
	var req ConfirmAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	profile, err := h.appointmentSvc.Confirm(c.Param("phone"), req.Type, req.ScheduleDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.logTransition(c, profile.ID, "appointment_confirmed", map[string]interface{}{
		"track":    req.Type,
		"schedule": req.ScheduleDate,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"profile": profile,
	})
}

// RejectAppointmentRequest rejects one track's requested dates.
type RejectAppointmentRequest struct {
	Type   string `json:"type" binding:"required"` // life | nonlife
	Reason string `json:"reason" binding:"required"`
}

// RejectAppointment handles POST /api/v1/admin/profiles/:phone/appointment/reject
func (h *AdminHandler) RejectAppointment(c *gin.Context) {
	var req RejectAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	profile, err := h.appointmentSvc.Reject(c.Param("phone"), req.Type, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.logTransition(c, profile.ID, "appointment_rejected", map[string]interface{}{
		"track":  req.Type,
		"reason": req.Reason,
	})

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"profile": profile,
	})
}

// SendFinalLink handles POST /api/v1/admin/profiles/:phone/final-link
func (h *AdminHandler) SendFinalLink(c *gin.Context) {
	profile, err := h.onboardingSvc.SendFinalLink(c.Param("phone"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.logTransition(c, profile.ID, "final_link_sent", nil)

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"profile": profile,
	})
}

// SendMessage handles POST /api/v1/admin/profiles/:phone/messages
func (h *AdminHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	profile, err := h.onboardingSvc.GetByPhone(c.Param("phone"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	message, err := h.messages.Create(profile.ID, "admin", req.Body)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": message,
	})
}

// ListMessages handles GET /api/v1/admin/profiles/:phone/messages
func (h *AdminHandler) ListMessages(c *gin.Context) {
	profile, err := h.onboardingSvc.GetByPhone(c.Param("phone"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	messages, err := h.messages.ListByProfile(profile.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// TriggerReminderSweep handles POST /api/v1/admin/reminders/sweep. Manual
// trigger for the scheduled deadline reminder pass.
func (h *AdminHandler) TriggerReminderSweep(c *gin.Context) {
	result, err := h.cronSvc.RunReminderSweepNow()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "sweep_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"result": result,
	})
}

// GetJobStatus handles GET /api/v1/admin/jobs
func (h *AdminHandler) GetJobStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.cronSvc.GetJobStatus())
}

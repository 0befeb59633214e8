package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kyobodev/fc-onboarding-backend/internal/database"
	"github.com/kyobodev/fc-onboarding-backend/internal/middleware"
	"github.com/kyobodev/fc-onboarding-backend/internal/services"
	"github.com/kyobodev/fc-onboarding-backend/internal/utils"
	"github.com/kyobodev/fc-onboarding-backend/pkg/workflow"
)

// ProfileHandler handles the FC applicant's own profile and transitions.
type ProfileHandler struct {
	onboardingSvc  *services.OnboardingService
	appointmentSvc *services.AppointmentService
	accountSvc     *services.AccountService
	documents      *database.DocumentRepository
	identity       *database.IdentitySecureRepository
	auditService   *services.AuditService
	encryptor      *utils.Encryptor
	policy         workflow.Policy
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(
	onboardingSvc *services.OnboardingService,
	appointmentSvc *services.AppointmentService,
	accountSvc *services.AccountService,
	documents *database.DocumentRepository,
	identity *database.IdentitySecureRepository,
	auditService *services.AuditService,
	encryptor *utils.Encryptor,
	policy workflow.Policy,
) *ProfileHandler {
	return &ProfileHandler{
		onboardingSvc:  onboardingSvc,
		appointmentSvc: appointmentSvc,
		accountSvc:     accountSvc,
		documents:      documents,
		identity:       identity,
		auditService:   auditService,
		encryptor:      encryptor,
		policy:         policy,
	}
}

// GetProfile handles GET /api/v1/fc/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	profile, err := h.onboardingSvc.GetByPhone(userCtx.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	docs, err := h.documents.ListByProfile(profile.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, buildProfileView(profile, docs, h.policy))
}

// UpdateProfileRequest carries the applicant's step-1 identity fields.
type UpdateProfileRequest struct {
	Name          string `json:"name" binding:"required"`
	Affiliation   string `json:"affiliation"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	AddressDetail string `json:"address_detail"`
	// ResidentID is the full 13-digit number. Only the masked form reaches
	// the profile row; the full value is encrypted into identity_secure.
	ResidentID string `json:"resident_id"`
	CareerType string `json:"career_type"`
}

// UpdateProfile handles PUT /api/v1/fc/profile
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	input := services.BasicInfoInput{
		Name:          req.Name,
		Affiliation:   req.Affiliation,
		Email:         req.Email,
		Address:       req.Address,
		AddressDetail: req.AddressDetail,
		CareerType:    req.CareerType,
	}

	if req.ResidentID != "" {
		masked, err := utils.MaskResidentID(req.ResidentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_resident_id",
				Message: err.Error(),
			})
			return
		}
		input.ResidentIDMasked = masked
	}

	profile, err := h.onboardingSvc.UpdateBasicInfo(userCtx.Phone, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if req.ResidentID != "" && h.encryptor != nil {
		cipher, err := h.encryptor.Encrypt(req.ResidentID)
		if err == nil {
			err = h.identity.Upsert(profile.ID, cipher)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "identity_store_failed",
				Message: "Failed to store identity record",
			})
			return
		}
	}

	docs, err := h.documents.ListByProfile(profile.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"profile": profile,
		"progress": buildStepView(profile, docs, h.policy),
	})
}

// GetStep handles GET /api/v1/fc/step. It returns the calculator output plus
// the FC filter set so the app renders the same step tabs the server groups
// by.
func (h *ProfileHandler) GetStep(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	profile, err := h.onboardingSvc.GetByPhone(userCtx.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	docs, err := h.documents.ListByProfile(profile.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	filters := workflow.FiltersFor(workflow.RoleFC, h.policy)
	filterViews := make([]gin.H, 0, len(filters))
	for _, f := range filters {
		filterViews = append(filterViews, gin.H{"key": f.Key, "label": f.Label})
	}

	c.JSON(http.StatusOK, gin.H{
		"progress": buildStepView(profile, docs, h.policy),
		"filters":  filterViews,
	})
}

// AllowanceConsentRequest carries the consent submission.
type AllowanceConsentRequest struct {
	AllowanceDate string `json:"allowance_date" binding:"required"`
}

// SubmitAllowanceConsent handles POST /api/v1/fc/allowance/consent
func (h *ProfileHandler) SubmitAllowanceConsent(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req AllowanceConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	profile, err := h.onboardingSvc.SubmitAllowanceConsent(userCtx.Phone, req.AllowanceDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	logAuditError("LogWorkflowTransition", h.auditService.LogWorkflowTransition(profile.ID, "fc", "allowance_consent",
		utils.GetRealIP(c), utils.GetUserAgent(c), nil))

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"status":  profile.Status,
		"profile": profile,
	})
}

// AppointmentRequest carries an applicant's requested appointment date.
type AppointmentRequest struct {
	Type      string `json:"type" binding:"required"` // life | nonlife
	DateValue string `json:"date_value" binding:"required"`
	Backup    bool   `json:"backup"`
}

// SubmitAppointment handles POST /api/v1/fc/appointment
func (h *ProfileHandler) SubmitAppointment(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	profile, err := h.appointmentSvc.SubmitDate(userCtx.Phone, req.Type, req.DateValue, req.Backup)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	logAuditError("LogWorkflowTransition", h.auditService.LogWorkflowTransition(profile.ID, "fc", "appointment_date_submitted",
		utils.GetRealIP(c), utils.GetUserAgent(c), map[string]interface{}{
			"track":  req.Type,
			"backup": req.Backup,
			"date":   req.DateValue,
		}))

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"profile": profile,
	})
}

// DeleteAccount handles DELETE /api/v1/fc/account. The cascade is
// best-effort: it reports per-step errors but still returns ok.
func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	result, err := h.accountSvc.Delete(userCtx.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	logAuditError("LogAccountDeletion", h.auditService.LogAccountDeletion(userCtx.Phone, utils.GetRealIP(c), utils.GetUserAgent(c),
		result.Deleted, result.Errors))

	c.JSON(http.StatusOK, result)
}

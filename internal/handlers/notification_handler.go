package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kyobodev/fc-onboarding-backend/internal/database"
	"github.com/kyobodev/fc-onboarding-backend/internal/middleware"
	"github.com/kyobodev/fc-onboarding-backend/internal/services"
)

// NotificationHandler handles the FC applicant's notifications, messages,
// device tokens and exam registrations.
type NotificationHandler struct {
	onboardingSvc *services.OnboardingService
	notifications *database.NotificationRepository
	messages      *database.MessageRepository
	deviceTokens  *database.DeviceTokenRepository
	exams         *database.ExamRegistrationRepository
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(
	onboardingSvc *services.OnboardingService,
	notifications *database.NotificationRepository,
	messages *database.MessageRepository,
	deviceTokens *database.DeviceTokenRepository,
	exams *database.ExamRegistrationRepository,
) *NotificationHandler {
	return &NotificationHandler{
		onboardingSvc: onboardingSvc,
		notifications: notifications,
		messages:      messages,
		deviceTokens:  deviceTokens,
		exams:         exams,
	}
}

func (h *NotificationHandler) resolveProfile(c *gin.Context) (uuid.UUID, bool) {
	userCtx := middleware.MustGetUserContext(c)

	profile, err := h.onboardingSvc.GetByPhone(userCtx.Phone)
	if err != nil {
		respondServiceError(c, err)
		return uuid.Nil, false
	}

	return profile.ID, true
}

// ListNotifications handles GET /api/v1/fc/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	profileID, ok := h.resolveProfile(c)
	if !ok {
		return
	}

	notifications, err := h.notifications.ListByProfile(profileID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkNotificationRead handles PUT /api/v1/fc/notifications/:id/read
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	if _, ok := h.resolveProfile(c); !ok {
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid notification ID",
		})
		return
	}

	if err := h.notifications.MarkRead(notificationID); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "notification_not_found",
			Message: "Notification not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListMessages handles GET /api/v1/fc/messages
func (h *NotificationHandler) ListMessages(c *gin.Context) {
	profileID, ok := h.resolveProfile(c)
	if !ok {
		return
	}

	messages, err := h.messages.ListByProfile(profileID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessageRequest is one applicant-to-admin message.
type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// SendMessage handles POST /api/v1/fc/messages
func (h *NotificationHandler) SendMessage(c *gin.Context) {
	profileID, ok := h.resolveProfile(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	message, err := h.messages.Create(profileID, "fc", req.Body)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"message": message,
	})
}

// RegisterDeviceTokenRequest registers one push target.
type RegisterDeviceTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required"` // ios | android
}

// RegisterDeviceToken handles POST /api/v1/fc/device-token
func (h *NotificationHandler) RegisterDeviceToken(c *gin.Context) {
	profileID, ok := h.resolveProfile(c)
	if !ok {
		return
	}

	var req RegisterDeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	if req.Platform != "ios" && req.Platform != "android" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Platform must be ios or android",
		})
		return
	}

	if err := h.deviceTokens.Register(profileID, req.Token, req.Platform); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RemoveDeviceToken handles DELETE /api/v1/fc/device-token/:token
func (h *NotificationHandler) RemoveDeviceToken(c *gin.Context) {
	if _, ok := h.resolveProfile(c); !ok {
		return
	}

	if err := h.deviceTokens.Remove(c.Param("token")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RegisterExamRequest signs the applicant up for a licensing exam round.
type RegisterExamRequest struct {
	ExamRound string `json:"exam_round" binding:"required"`
	ExamDate  string `json:"exam_date"` // YYYY-MM-DD, optional
}

// ListExamRegistrations handles GET /api/v1/fc/exams
func (h *NotificationHandler) ListExamRegistrations(c *gin.Context) {
	profileID, ok := h.resolveProfile(c)
	if !ok {
		return
	}

	regs, err := h.exams.ListByProfile(profileID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"exam_registrations": regs})
}

// RegisterExam handles POST /api/v1/fc/exams
func (h *NotificationHandler) RegisterExam(c *gin.Context) {
	profileID, ok := h.resolveProfile(c)
	if !ok {
		return
	}

	var req RegisterExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	examDate, err := services.ParseExamDate(req.ExamDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	reg, err := h.exams.Create(profileID, req.ExamRound, examDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"registration": reg,
	})
}

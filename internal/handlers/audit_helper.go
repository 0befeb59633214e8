package handlers

import (
	"log"
	"time"

	"github.com/google/uuid"
)

// logAuditError is a helper to log audit service errors without failing the request
func logAuditError(operation string, err error) {
	if err != nil {
		log.Printf("AUDIT ERROR [%s]: %v", operation, err)
	}
}

// Helper functions to log audit events with error handling

func (h *AuthHandler) safeLogLogin(profileID uuid.UUID, phone, ipAddress, userAgent string, provisioned bool) {
	logAuditError("LogLogin", h.auditService.LogLogin(profileID, phone, ipAddress, userAgent, provisioned))
}

func (h *AuthHandler) safeLogRateLimitViolation(phone, ipAddress, userAgent, limitType string, retryAfter time.Time) {
	logAuditError("LogRateLimitViolation", h.auditService.LogRateLimitViolation(phone, ipAddress, userAgent, limitType, retryAfter))
}

func (h *AdminAuthHandler) safeLogAdminLogin(username, ipAddress, userAgent string, success bool) {
	logAuditError("LogAdminLogin", h.auditService.LogAdminLogin(username, ipAddress, userAgent, success))
}

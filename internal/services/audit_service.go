package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kyobodev/fc-onboarding-backend/internal/database"
	"github.com/kyobodev/fc-onboarding-backend/internal/utils"
)

// AuditService writes security and workflow events to the audit_logs table.
type AuditService struct {
	db database.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{
		db: db,
	}
}

// AuditEvent represents one event to be logged
type AuditEvent struct {
	ProfileID *uuid.UUID             // nil for pre-authentication and admin-only events
	Actor     string                 // "fc", "admin", "system"
	Action    string                 // e.g. "fc_login", "temp_id_issued", "doc_approved"
	IPAddress string                 // Client IP address
	UserAgent string                 // Client user agent
	Details   map[string]interface{} // Additional details stored as JSONB
}

// LogLogin logs an applicant login (or auto-provisioning first login).
func (s *AuditService) LogLogin(profileID uuid.UUID, phone, ipAddress, userAgent string, provisioned bool) error {
	return s.logEvent(AuditEvent{
		ProfileID: &profileID,
		Actor:     "fc",
		Action:    "fc_login",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: map[string]interface{}{
			"phone":       phone,
			"provisioned": provisioned,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogAdminLogin logs an admin login attempt.
func (s *AuditService) LogAdminLogin(username, ipAddress, userAgent string, success bool) error {
	action := "admin_login_failed"
	if success {
		action = "admin_login_success"
	}

	return s.logEvent(AuditEvent{
		Actor:     "admin",
		Action:    action,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: map[string]interface{}{
			"username":    username,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogWorkflowTransition logs an admin-driven or applicant-driven workflow
// change (temp ID issuance, allowance decisions, document review, appointment
// decisions, final link).
func (s *AuditService) LogWorkflowTransition(profileID uuid.UUID, actor, action, ipAddress, userAgent string, details map[string]interface{}) error {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["device_info"] = utils.ParseUserAgent(userAgent)

	return s.logEvent(AuditEvent{
		ProfileID: &profileID,
		Actor:     actor,
		Action:    action,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   details,
	})
}

// LogBulkImport logs an admin roster import. No single profile owns the
// event, so profile_id stays NULL.
func (s *AuditService) LogBulkImport(actor, ipAddress, userAgent string, requested, created, skipped int) error {
	return s.logEvent(AuditEvent{
		Actor:     actor,
		Action:    "bulk_create",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: map[string]interface{}{
			"requested":   requested,
			"created":     created,
			"skipped":     skipped,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogAccountDeletion logs an account deletion cascade outcome.
func (s *AuditService) LogAccountDeletion(phone, ipAddress, userAgent string, deleted bool, stepErrors []string) error {
	return s.logEvent(AuditEvent{
		Actor:     "fc",
		Action:    "account_deleted",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: map[string]interface{}{
			"phone":       phone,
			"deleted":     deleted,
			"step_errors": stepErrors,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogRateLimitViolation logs a rate limit violation event
func (s *AuditService) LogRateLimitViolation(phone, ipAddress, userAgent, limitType string, retryAfter time.Time) error {
	return s.logEvent(AuditEvent{
		Actor:     "fc",
		Action:    "rate_limit_violation",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: map[string]interface{}{
			"phone":       phone,
			"limit_type":  limitType, // "phone" or "ip"
			"retry_after": retryAfter,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// logEvent is the internal method that writes to the audit_logs table
func (s *AuditService) logEvent(event AuditEvent) error {
	detailsJSON, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (profile_id, actor, action, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	_, err = s.db.Exec(
		query,
		event.ProfileID,
		event.Actor,
		event.Action,
		event.IPAddress,
		event.UserAgent,
		detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// GetRecentEvents retrieves recent audit events for a profile
func (s *AuditService) GetRecentEvents(profileID uuid.UUID, limit int) ([]map[string]interface{}, error) {
	query := `
		SELECT actor, action, ip_address, user_agent, details, created_at
		FROM audit_logs
		WHERE profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.Query(query, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}
	defer rows.Close()

	events := []map[string]interface{}{}
	for rows.Next() {
		var actor, action, ipAddress, userAgent string
		var detailsJSON []byte
		var createdAt time.Time

		if err := rows.Scan(&actor, &action, &ipAddress, &userAgent, &detailsJSON, &createdAt); err != nil {
			continue
		}

		var details map[string]interface{}
		_ = json.Unmarshal(detailsJSON, &details)

		events = append(events, map[string]interface{}{
			"actor":      actor,
			"action":     action,
			"ip_address": ipAddress,
			"user_agent": userAgent,
			"details":    details,
			"created_at": createdAt,
		})
	}

	return events, nil
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	query := `
		DELETE FROM audit_logs
		WHERE created_at < $1
	`

	result, err := s.db.Exec(query, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

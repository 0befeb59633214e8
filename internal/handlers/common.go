package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kyobodev/fc-onboarding-backend/internal/models"
	"github.com/kyobodev/fc-onboarding-backend/internal/services"
	"github.com/kyobodev/fc-onboarding-backend/pkg/workflow"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// respondServiceError translates service-layer failures into HTTP responses.
// Precondition failures are not transport errors: they come back 200 with
// ok=false and the business message, so clients surface the message as-is.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Message,
			Code:    validationErr.Field,
		})
		return
	}

	var preconditionErr *services.PreconditionError
	if errors.As(err, &preconditionErr) {
		c.JSON(http.StatusOK, gin.H{
			"ok":      false,
			"code":    preconditionErr.Code,
			"message": preconditionErr.Message,
		})
		return
	}

	if errors.Is(err, services.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "profile_not_found",
			Message: "Profile not found",
		})
		return
	}

	if errors.Is(err, services.ErrDocumentNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "document_not_found",
			Message: "Document not found",
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An unexpected error occurred",
	})
}

// stepView is the calculator output attached to profile responses.
type stepView struct {
	Step        int    `json:"step"`
	StepKey     string `json:"step_key"`
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`
}

// profileView is the common projection of a profile plus its computed step.
type profileView struct {
	Profile  *models.FCProfile `json:"profile"`
	Progress stepView          `json:"progress"`
}

func buildStepView(profile *models.FCProfile, docs []models.FCDocument, policy workflow.Policy) stepView {
	snapshot := profile.ToWorkflow(docs)
	step, key := workflow.Calc(snapshot, policy)
	status := profile.WorkflowStatus()

	return stepView{
		Step:        step,
		StepKey:     string(key),
		Status:      string(status),
		StatusLabel: status.Label(),
	}
}

func buildProfileView(profile *models.FCProfile, docs []models.FCDocument, policy workflow.Policy) profileView {
	return profileView{
		Profile:  profile,
		Progress: buildStepView(profile, docs, policy),
	}
}

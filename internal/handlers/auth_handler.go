package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kyobodev/fc-onboarding-backend/internal/services"
	"github.com/kyobodev/fc-onboarding-backend/internal/utils"
	"github.com/kyobodev/fc-onboarding-backend/pkg/jwt"
)

// AuthHandler handles FC authentication HTTP requests
type AuthHandler struct {
	jwtService       *jwt.Service
	onboardingSvc    *services.OnboardingService
	rateLimitService *services.RateLimitService
	auditService     *services.AuditService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	jwtService *jwt.Service,
	onboardingSvc *services.OnboardingService,
	rateLimitService *services.RateLimitService,
	auditService *services.AuditService,
) *AuthHandler {
	return &AuthHandler{
		jwtService:       jwtService,
		onboardingSvc:    onboardingSvc,
		rateLimitService: rateLimitService,
		auditService:     auditService,
	}
}

// LoginRequest represents the FC login request
type LoginRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// LoginResponse represents the response after a successful login
type LoginResponse struct {
	Message      string      `json:"message"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	IsNewProfile bool        `json:"is_new_profile"`
	Profile      interface{} `json:"profile"`
}

// RefreshRequest represents the token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login handles POST /api/v1/auth/login. An unknown phone number is not an
// error: a draft profile is provisioned so the applicant can start step 1
// immediately.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	if err := h.rateLimitService.CheckLoginRateLimit(req.Phone, clientIP); err != nil {
		if rateLimitErr, ok := err.(*services.RateLimitError); ok {
			h.safeLogRateLimitViolation(req.Phone, clientIP, userAgent, rateLimitErr.Type, rateLimitErr.RetryAfter)

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     rateLimitErr.Message,
				"retry_after": rateLimitErr.RetryAfter,
				"type":        rateLimitErr.Type,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "rate_limit_check_failed",
			Message: "Failed to check rate limit",
		})
		return
	}

	profile, created, err := h.onboardingSvc.Provision(req.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.rateLimitService.RecordLoginAttempt(profile.Phone, clientIP); err != nil {
		c.Error(err)
	}

	accessToken, err := h.jwtService.GenerateAccessToken(profile.ID, profile.Phone, jwt.RoleFC)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate access token",
		})
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(profile.ID, profile.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate refresh token",
		})
		return
	}

	h.safeLogLogin(profile.ID, profile.Phone, clientIP, userAgent, created)

	c.JSON(http.StatusOK, LoginResponse{
		Message:      "Login successful",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		IsNewProfile: created,
		Profile:      profile,
	})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_refresh_token",
			Message: "Refresh token is invalid or expired",
			Code:    "INVALID_REFRESH_TOKEN",
		})
		return
	}

	// Re-resolve the profile: refresh must fail for deleted accounts.
	profile, err := h.onboardingSvc.GetByPhone(claims.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(profile.ID, profile.Phone, jwt.RoleFC)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate access token",
		})
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(profile.ID, profile.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate refresh token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Token refreshed",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

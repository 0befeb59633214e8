package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/kyobodev/fc-onboarding-backend/internal/database"
	"github.com/kyobodev/fc-onboarding-backend/internal/services"
	"github.com/kyobodev/fc-onboarding-backend/internal/utils"
	"github.com/kyobodev/fc-onboarding-backend/pkg/jwt"
)

// AdminAuthHandler handles admin authentication HTTP requests
type AdminAuthHandler struct {
	jwtService   *jwt.Service
	adminUsers   *database.AdminUserRepository
	auditService *services.AuditService
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(
	jwtService *jwt.Service,
	adminUsers *database.AdminUserRepository,
	auditService *services.AuditService,
) *AdminAuthHandler {
	return &AdminAuthHandler{
		jwtService:   jwtService,
		adminUsers:   adminUsers,
		auditService: auditService,
	}
}

// AdminLoginRequest represents the admin login request
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/v1/admin/auth/login
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req AdminLoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	admin, err := h.adminUsers.GetByUsername(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to look up admin user",
		})
		return
	}

	// Same response for unknown user and wrong password.
	if admin == nil || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		h.safeLogAdminLogin(req.Username, clientIP, userAgent, false)

		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid username or password",
			Code:    "INVALID_CREDENTIALS",
		})
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(admin.ID, admin.Username, jwt.RoleAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate access token",
		})
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(admin.ID, admin.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate refresh token",
		})
		return
	}

	h.safeLogAdminLogin(req.Username, clientIP, userAgent, true)

	c.JSON(http.StatusOK, gin.H{
		"message":       "Login successful",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"admin": gin.H{
			"id":           admin.ID,
			"username":     admin.Username,
			"display_name": admin.DisplayName,
		},
	})
}

// Refresh handles POST /api/v1/admin/auth/refresh
func (h *AdminAuthHandler) Refresh(c *gin.Context) {
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

	// Admin refresh tokens carry the username in the phone claim slot.
	admin, err := h.adminUsers.GetByUsername(claims.Phone)
	if err != nil || admin == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_refresh_token",
			Message: "Admin account no longer exists",
		})
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(admin.ID, admin.Username, jwt.RoleAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate access token",
		})
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(admin.ID, admin.Username)
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

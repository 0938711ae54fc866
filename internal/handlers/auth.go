package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lucky-boxes-backend/internal/services"
	"lucky-boxes-backend/internal/storage"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Phone         string `json:"phone" binding:"required"`
		Password      string `json:"password" binding:"required"`
		ReferralPhone string `json:"referralPhone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone and password are required."})
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req.Phone, req.Password, req.ReferralPhone)
	if err != nil {
		if errors.Is(err, storage.ErrPhoneExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "This phone number is already registered."})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, authResponse(result))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Phone    string `json:"phone" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone and password are required."})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Wrong phone or password."})
		case errors.Is(err, storage.ErrUserBlocked):
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is blocked."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error during login."})
		}
		return
	}

	c.JSON(http.StatusOK, authResponse(result))
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current and new passwords are required."})
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect current password."})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully."})
}

func authResponse(result *services.AuthResult) gin.H {
	return gin.H{
		"token": result.Token,
		"user": gin.H{
			"id":        result.User.ID,
			"phone":     result.User.Phone,
			"full_name": result.User.FullName,
			"balance": gin.H{
				"main":  result.User.MainBalance,
				"bonus": result.User.BonusBalance,
				"total": result.User.TotalBalance(),
			},
		},
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lucky-boxes-backend/internal/logger"
	"lucky-boxes-backend/internal/models"
	"lucky-boxes-backend/internal/services"
	"lucky-boxes-backend/internal/storage"
)

type UserHandler struct {
	store         *storage.Store
	walletService *services.WalletService
	redisService  *services.RedisService
}

func NewUserHandler(store *storage.Store, walletService *services.WalletService, redisService *services.RedisService) *UserHandler {
	return &UserHandler{
		store:         store,
		walletService: walletService,
		redisService:  redisService,
	}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID := c.GetInt64("user_id")

	user, err := h.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":        user.ID,
			"phone":     user.Phone,
			"full_name": user.FullName,
		},
		"balance": gin.H{
			"main":  user.MainBalance,
			"bonus": user.BonusBalance,
			"total": user.TotalBalance(),
		},
		"withdrawal_method": user.WithdrawalMethod,
	})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req struct {
		FullName string `json:"fullName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if err := h.store.UpdateFullName(c.Request.Context(), userID, req.FullName); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		logger.Log.Error("Profile update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error updating profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Profile updated successfully",
		"fullName": req.FullName,
	})
}

func (h *UserHandler) SaveWithdrawalMethod(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.WithdrawalMethod
	if err := c.ShouldBindJSON(&req); err != nil || req.AccountName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid withdrawal method"})
		return
	}
	if req.Provider == "" {
		req.Provider = "telebirr"
	}

	if err := h.store.SaveWithdrawalMethod(c.Request.Context(), userID, req); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error while saving withdrawal method"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Withdrawal method saved successfully."})
}

func (h *UserHandler) RequestDepositVerification(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req struct {
		DepositorPhone string  `json:"depositorPhone" binding:"required"`
		Amount         float64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid phone and amount are required."})
		return
	}

	_, err := h.walletService.RequestDeposit(c.Request.Context(), userID, req.DepositorPhone, req.Amount)
	if err != nil {
		h.writeWalletError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification request submitted. Awaiting admin approval."})
}

func (h *UserHandler) RequestWithdrawal(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req struct {
		Amount float64 `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid withdrawal amount."})
		return
	}

	_, err := h.walletService.RequestWithdrawal(c.Request.Context(), userID, req.Amount)
	if err != nil {
		h.writeWalletError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Withdrawal request submitted for admin approval."})
}

func (h *UserHandler) writeWalletError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
	case errors.Is(err, storage.ErrUserBlocked):
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is blocked."})
	case errors.Is(err, storage.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance."})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func (h *UserHandler) TransactionHistory(c *gin.Context) {
	userID := c.GetInt64("user_id")
	since := time.Now().AddDate(0, 0, -30)

	txs, err := h.store.ListUserTransactions(c.Request.Context(), userID, since)
	if err != nil {
		logger.Log.Error("Failed to fetch transaction history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching transaction history."})
		return
	}

	if txs == nil {
		txs = []*models.WalletTransaction{}
	}
	c.JSON(http.StatusOK, txs)
}

func (h *UserHandler) BetHistory(c *gin.Context) {
	userID := c.GetInt64("user_id")

	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 10
	}

	claims, err := h.store.UserBetHistory(c.Request.Context(), userID, limit)
	if err != nil {
		logger.Log.Error("Failed to fetch bet history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching bet history."})
		return
	}

	if claims == nil {
		claims = []*models.Claim{}
	}
	c.JSON(http.StatusOK, claims)
}

func (h *UserHandler) Logout(c *gin.Context) {
	userID := c.GetInt64("user_id")
	sessionID := c.GetString("session_id")

	if h.redisService != nil && sessionID != "" {
		if err := h.redisService.DeleteUserSession(userID, sessionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lucky-boxes-backend/internal/config"
	"lucky-boxes-backend/internal/logger"
	"lucky-boxes-backend/internal/models"
	"lucky-boxes-backend/internal/services"
	"lucky-boxes-backend/internal/storage"
)

type GameHandler struct {
	engine *services.Engine
	cfg    *config.Config
}

func NewGameHandler(engine *services.Engine, cfg *config.Config) *GameHandler {
	return &GameHandler{
		engine: engine,
		cfg:    cfg,
	}
}

func (h *GameHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"latestVersion": h.cfg.AppVersion,
		"updateUrl":     h.cfg.UpdateURL,
	})
}

func (h *GameHandler) PlaceBet(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	outcome, err := h.engine.PlaceBet(c.Request.Context(), userID, &req)
	if err != nil {
		h.writeBetError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Bet placed successfully!",
		"newBalance": outcome.NewBalance,
	})
}

func (h *GameHandler) writeBetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
	case errors.Is(err, storage.ErrUserBlocked):
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is blocked."})
	case errors.Is(err, storage.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient total balance."})
	case errors.Is(err, storage.ErrBoxConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Sorry, at least one selection was just taken."})
	default:
		logger.Log.Error("Bet admission failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to place bet",
			"details": err.Error(),
		})
	}
}

func (h *GameHandler) GetSlots(c *gin.Context) {
	statuses, err := h.engine.SlotStatuses(c.Request.Context())
	if err != nil {
		logger.Log.Error("Failed to build slot statuses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
		return
	}

	c.JSON(http.StatusOK, statuses)
}

func (h *GameHandler) RecentWinners(c *gin.Context) {
	winners, err := h.engine.RecentWinners(c.Request.Context(), 10)
	if err != nil {
		logger.Log.Error("Failed to fetch recent winners", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error fetching winners."})
		return
	}

	if winners == nil {
		winners = []models.RecentWinner{}
	}
	c.JSON(http.StatusOK, winners)
}

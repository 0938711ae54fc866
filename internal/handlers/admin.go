package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lucky-boxes-backend/internal/services"
	"lucky-boxes-backend/internal/storage"
)

// AdminHandler exposes the approval actions behind the admin token. The
// Telegram chat's inline buttons call back into these endpoints.
type AdminHandler struct {
	walletService *services.WalletService
}

func NewAdminHandler(walletService *services.WalletService) *AdminHandler {
	return &AdminHandler{walletService: walletService}
}

func (h *AdminHandler) ApproveDeposit(c *gin.Context) {
	h.run(c, h.walletService.ApproveDeposit, "Deposit verified.")
}

func (h *AdminHandler) RejectDeposit(c *gin.Context) {
	h.run(c, h.walletService.RejectDeposit, "Deposit rejected.")
}

func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	h.run(c, h.walletService.ApproveWithdrawal, "Withdrawal approved.")
}

func (h *AdminHandler) DeclineWithdrawal(c *gin.Context) {
	h.run(c, h.walletService.DeclineWithdrawal, "Withdrawal declined.")
}

func (h *AdminHandler) run(c *gin.Context, action func(ctx context.Context, id string) error, message string) {
	transactionID := c.Param("id")
	if transactionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Transaction id required"})
		return
	}

	err := action(c.Request.Context(), transactionID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": message})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found."})
	case errors.Is(err, services.ErrAlreadyProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": "Request is already processed or invalid."})
	case errors.Is(err, storage.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Action failed: insufficient funds."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error."})
	}
}

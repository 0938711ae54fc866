package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"lucky-boxes-backend/internal/config"
	"lucky-boxes-backend/internal/logger"
	"lucky-boxes-backend/internal/models"
)

// Notifier sends deposit/withdrawal requests to the admin's Telegram chat
// with approve/reject buttons. Delivery is best effort and happens outside
// any transaction; a failed message never rolls back a balance mutation.
type Notifier struct {
	botToken    string
	adminChatID string
	client      *http.Client
}

func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{
		botToken:    cfg.BotToken,
		adminChatID: cfg.AdminTelegramID,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

func (n *Notifier) SendDepositRequest(tx *models.WalletTransaction, user *models.User) {
	text := fmt.Sprintf(
		"--- Deposit Verification Request ---\nRequest ID: %s\nUser Phone: %s\nDepositor Phone: %s\nAmount Claimed: %s",
		tx.ID, user.Phone, tx.DepositorPhone, models.FormatCurrency(tx.Amount))

	n.send(text, [][]inlineButton{{
		{Text: "Verify Deposit", CallbackData: "verify-deposit_" + tx.ID},
		{Text: "Reject Deposit", CallbackData: "reject-deposit_" + tx.ID},
	}})
}

func (n *Notifier) SendWithdrawalRequest(tx *models.WalletTransaction, user *models.User) {
	text := fmt.Sprintf(
		"--- Withdrawal Request ---\nRequest ID: %s\nUser Phone: %s\nBalance: %s\nWithdraw Amount: %s\nMethod: %s\nTo: %s (%s)",
		tx.ID, user.Phone, models.FormatCurrency(user.MainBalance),
		models.FormatCurrency(tx.Amount), user.WithdrawalMethod.Provider,
		user.WithdrawalMethod.AccountName, user.WithdrawalMethod.AccountPhone)

	n.send(text, [][]inlineButton{{
		{Text: "Approve", CallbackData: "approve-withdraw_" + tx.ID},
		{Text: "Decline", CallbackData: "decline-withdraw_" + tx.ID},
	}})
}

func (n *Notifier) send(text string, keyboard [][]inlineButton) {
	if n.botToken == "" || n.adminChatID == "" {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"chat_id": n.adminChatID,
		"text":    text,
		"reply_markup": map[string]interface{}{
			"inline_keyboard": keyboard,
		},
	})
	if err != nil {
		return
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	resp, err := n.client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		logger.Log.Warn("Failed to notify admin", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Log.Warn("Telegram rejected admin notification", zap.Int("status", resp.StatusCode))
	}
}

package models

import "time"

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// WalletTransaction is a deposit or withdrawal request moving through the
// admin approval workflow. Balance mutation happens only on approval.
type WalletTransaction struct {
	ID             string            `json:"id"`
	UserID         int64             `json:"user_id"`
	Type           TransactionType   `json:"type"`
	Amount         float64           `json:"amount"`
	Status         TransactionStatus `json:"status"`
	DepositorPhone string            `json:"depositor_phone,omitempty"`
	Method         string            `json:"method,omitempty"`
	Attempts       int               `json:"attempts"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

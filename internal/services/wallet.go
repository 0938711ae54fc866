package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"lucky-boxes-backend/internal/logger"
	"lucky-boxes-backend/internal/models"
	"lucky-boxes-backend/internal/storage"
)

const (
	// ReferralBonusAmount is credited to the referrer's bonus balance on the
	// referred user's first approved deposit.
	ReferralBonusAmount = 50.0

	// A third rejected deposit verification blocks the account.
	maxDepositAttempts = 3
)

var ErrAlreadyProcessed = errors.New("request already processed")

// WalletService owns the deposit/withdrawal admin-approval workflow. Actual
// payment rails are manual; the service only mutates balances on approval
// and notifies after commit, best effort.
type WalletService struct {
	store       *storage.Store
	notifier    *Notifier
	broadcaster Broadcaster
}

func NewWalletService(store *storage.Store, notifier *Notifier, broadcaster Broadcaster) *WalletService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &WalletService{store: store, notifier: notifier, broadcaster: broadcaster}
}

func (ws *WalletService) RequestDeposit(ctx context.Context, userID int64, depositorPhone string, amount float64) (*models.WalletTransaction, error) {
	if amount <= 0 || depositorPhone == "" {
		return nil, fmt.Errorf("valid phone and amount are required")
	}

	user, err := ws.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, storage.ErrUserBlocked
	}

	tx := &models.WalletTransaction{
		UserID:         userID,
		Type:           models.TransactionTypeDeposit,
		Amount:         amount,
		DepositorPhone: depositorPhone,
	}
	if err := ws.store.CreateWalletTransaction(ctx, tx); err != nil {
		return nil, err
	}

	ws.notifier.SendDepositRequest(tx, user)
	return tx, nil
}

func (ws *WalletService) RequestWithdrawal(ctx context.Context, userID int64, amount float64) (*models.WalletTransaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("invalid withdrawal amount")
	}

	user, err := ws.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, storage.ErrUserBlocked
	}
	if user.WithdrawalMethod.AccountName == "" {
		return nil, fmt.Errorf("withdrawal method not saved")
	}
	// Only the main balance is withdrawable; bonus funds never leave.
	if user.MainBalance < amount {
		return nil, storage.ErrInsufficientFunds
	}

	tx := &models.WalletTransaction{
		UserID: userID,
		Type:   models.TransactionTypeWithdrawal,
		Amount: amount,
		Method: user.WithdrawalMethod.Provider,
	}
	if err := ws.store.CreateWalletTransaction(ctx, tx); err != nil {
		return nil, err
	}

	ws.notifier.SendWithdrawalRequest(tx, user)
	return tx, nil
}

// ApproveDeposit credits the user's main balance and awards the one-time
// referral bonus on the user's first approved deposit.
func (ws *WalletService) ApproveDeposit(ctx context.Context, transactionID string) error {
	var userID int64

	err := ws.store.WithTx(ctx, func(tx pgx.Tx) error {
		wtx, err := ws.store.GetWalletTransactionForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if wtx.Status != models.TransactionStatusPending || wtx.Type != models.TransactionTypeDeposit {
			return ErrAlreadyProcessed
		}
		userID = wtx.UserID

		user, err := ws.store.GetUserForUpdate(ctx, tx, wtx.UserID)
		if err != nil {
			return err
		}

		if err := ws.store.CreditMain(ctx, tx, wtx.UserID, wtx.Amount); err != nil {
			return err
		}

		if user.ReferredBy != nil && !user.ReferralBonusAwarded {
			if err := ws.store.AwardReferralBonus(ctx, tx, *user.ReferredBy, user.ID, ReferralBonusAmount); err != nil {
				return err
			}
			logger.Log.Info("Referral bonus awarded",
				zap.Int64("referrer", *user.ReferredBy),
				zap.Int64("referred", user.ID))
		}

		return ws.store.SetWalletTransactionStatus(ctx, tx, wtx.ID, models.TransactionStatusCompleted, wtx.Attempts)
	})
	if err != nil {
		return err
	}

	ws.pushBalance(ctx, userID)
	return nil
}

// RejectDeposit records a failed verification attempt. The third rejection
// fails the request and blocks the account.
func (ws *WalletService) RejectDeposit(ctx context.Context, transactionID string) error {
	return ws.store.WithTx(ctx, func(tx pgx.Tx) error {
		wtx, err := ws.store.GetWalletTransactionForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if wtx.Status != models.TransactionStatusPending || wtx.Type != models.TransactionTypeDeposit {
			return ErrAlreadyProcessed
		}

		wtx.Attempts++
		status := models.TransactionStatusPending
		if wtx.Attempts >= maxDepositAttempts {
			status = models.TransactionStatusFailed
			if err := ws.store.SetBlocked(ctx, tx, wtx.UserID, true); err != nil {
				return err
			}
			logger.Log.Warn("User blocked after repeated deposit rejections",
				zap.Int64("user_id", wtx.UserID))
		}

		return ws.store.SetWalletTransactionStatus(ctx, tx, wtx.ID, status, wtx.Attempts)
	})
}

func (ws *WalletService) ApproveWithdrawal(ctx context.Context, transactionID string) error {
	var userID int64

	err := ws.store.WithTx(ctx, func(tx pgx.Tx) error {
		wtx, err := ws.store.GetWalletTransactionForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if wtx.Status != models.TransactionStatusPending || wtx.Type != models.TransactionTypeWithdrawal {
			return ErrAlreadyProcessed
		}
		userID = wtx.UserID

		// The balance may have been spent since the request was submitted;
		// re-check under the row lock and leave the request pending on failure.
		if err := ws.store.DebitMain(ctx, tx, wtx.UserID, wtx.Amount); err != nil {
			return err
		}

		return ws.store.SetWalletTransactionStatus(ctx, tx, wtx.ID, models.TransactionStatusCompleted, wtx.Attempts)
	})
	if err != nil {
		return err
	}

	ws.pushBalance(ctx, userID)
	return nil
}

func (ws *WalletService) DeclineWithdrawal(ctx context.Context, transactionID string) error {
	return ws.store.WithTx(ctx, func(tx pgx.Tx) error {
		wtx, err := ws.store.GetWalletTransactionForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if wtx.Status != models.TransactionStatusPending || wtx.Type != models.TransactionTypeWithdrawal {
			return ErrAlreadyProcessed
		}
		return ws.store.SetWalletTransactionStatus(ctx, tx, wtx.ID, models.TransactionStatusFailed, wtx.Attempts)
	})
}

func (ws *WalletService) pushBalance(ctx context.Context, userID int64) {
	user, err := ws.store.GetUser(ctx, userID)
	if err != nil {
		logger.Log.Warn("Failed to read balance for push", zap.Error(err))
		return
	}
	ws.broadcaster.BroadcastBalanceUpdate(userID, user.MainBalance, user.BonusBalance)
}

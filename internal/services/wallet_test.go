package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"lucky-boxes-backend/internal/config"
	"lucky-boxes-backend/internal/models"
	"lucky-boxes-backend/internal/services"
	"lucky-boxes-backend/internal/storage"
)

// An unconfigured notifier never calls out; admin actions are driven directly.
func newTestWallet(store *storage.Store) *services.WalletService {
	notifier := services.NewNotifier(&config.Config{})
	return services.NewWalletService(store, notifier, nil)
}

func transactionStatus(t *testing.T, store *storage.Store, userID int64, txID string) models.TransactionStatus {
	t.Helper()

	txs, err := store.ListUserTransactions(context.Background(), userID, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Failed to list transactions: %v", err)
	}
	for _, tx := range txs {
		if tx.ID == txID {
			return tx.Status
		}
	}
	t.Fatalf("Transaction %s not found", txID)
	return ""
}

func TestDepositApproval(t *testing.T) {
	store := setupTestStore(t)
	wallet := newTestWallet(store)
	ctx := context.Background()

	user := newTestUser(t, store, nil)

	tx, err := wallet.RequestDeposit(ctx, user.ID, "0912000000", 100)
	if err != nil {
		t.Fatalf("Failed to request deposit: %v", err)
	}
	if tx.Status != models.TransactionStatusPending {
		t.Errorf("Expected pending request, got %s", tx.Status)
	}

	if err := wallet.ApproveDeposit(ctx, tx.ID); err != nil {
		t.Fatalf("Failed to approve deposit: %v", err)
	}

	saved, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to reload user: %v", err)
	}
	if saved.MainBalance != 100 {
		t.Errorf("Expected main balance 100 after approval, got %f", saved.MainBalance)
	}
	if status := transactionStatus(t, store, user.ID, tx.ID); status != models.TransactionStatusCompleted {
		t.Errorf("Expected completed transaction, got %s", status)
	}

	// A second approval of the same request must not credit again.
	if err := wallet.ApproveDeposit(ctx, tx.ID); !errors.Is(err, services.ErrAlreadyProcessed) {
		t.Fatalf("Expected ErrAlreadyProcessed, got %v", err)
	}
	saved, _ = store.GetUser(ctx, user.ID)
	if saved.MainBalance != 100 {
		t.Errorf("Double approval credited twice: balance %f", saved.MainBalance)
	}
}

func TestDepositRejectionBlocksAfterThree(t *testing.T) {
	store := setupTestStore(t)
	wallet := newTestWallet(store)
	engine := services.NewEngine(store, nil, nil)
	ctx := context.Background()

	resetSlot(t, store, "slot1")
	user := newTestUser(t, store, nil)
	fundUser(t, store, user.ID, 100)

	tx, err := wallet.RequestDeposit(ctx, user.ID, "0912000000", 500)
	if err != nil {
		t.Fatalf("Failed to request deposit: %v", err)
	}

	for i := 1; i <= 2; i++ {
		if err := wallet.RejectDeposit(ctx, tx.ID); err != nil {
			t.Fatalf("Rejection %d failed: %v", i, err)
		}
		saved, _ := store.GetUser(ctx, user.ID)
		if saved.IsBlocked {
			t.Fatalf("User blocked after only %d rejections", i)
		}
		if status := transactionStatus(t, store, user.ID, tx.ID); status != models.TransactionStatusPending {
			t.Fatalf("Request left pending state after %d rejections: %s", i, status)
		}
	}

	if err := wallet.RejectDeposit(ctx, tx.ID); err != nil {
		t.Fatalf("Third rejection failed: %v", err)
	}

	saved, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to reload user: %v", err)
	}
	if !saved.IsBlocked {
		t.Error("Expected user blocked after third rejection")
	}
	if status := transactionStatus(t, store, user.ID, tx.ID); status != models.TransactionStatusFailed {
		t.Errorf("Expected failed request, got %s", status)
	}

	// Blocked users cannot bet or request deposits, even with a balance.
	_, err = engine.PlaceBet(ctx, user.ID, &models.BetRequest{
		Bets: map[string][]string{"slot1": {"6-6"}},
	})
	if !errors.Is(err, storage.ErrUserBlocked) {
		t.Errorf("Expected ErrUserBlocked on bet, got %v", err)
	}
	if _, err := wallet.RequestDeposit(ctx, user.ID, "0912000000", 100); !errors.Is(err, storage.ErrUserBlocked) {
		t.Errorf("Expected ErrUserBlocked on deposit request, got %v", err)
	}
}

func TestReferralBonusAwardedOnce(t *testing.T) {
	store := setupTestStore(t)
	wallet := newTestWallet(store)
	ctx := context.Background()

	referrer := newTestUser(t, store, nil)
	referred := newTestUser(t, store, &referrer.ID)

	first, err := wallet.RequestDeposit(ctx, referred.ID, "0912000000", 100)
	if err != nil {
		t.Fatalf("Failed to request deposit: %v", err)
	}
	if err := wallet.ApproveDeposit(ctx, first.ID); err != nil {
		t.Fatalf("Failed to approve deposit: %v", err)
	}

	savedReferrer, err := store.GetUser(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("Failed to reload referrer: %v", err)
	}
	if savedReferrer.BonusBalance != services.ReferralBonusAmount {
		t.Errorf("Expected referral bonus %f, got %f",
			services.ReferralBonusAmount, savedReferrer.BonusBalance)
	}

	second, err := wallet.RequestDeposit(ctx, referred.ID, "0912000000", 50)
	if err != nil {
		t.Fatalf("Failed to request second deposit: %v", err)
	}
	if err := wallet.ApproveDeposit(ctx, second.ID); err != nil {
		t.Fatalf("Failed to approve second deposit: %v", err)
	}

	savedReferrer, _ = store.GetUser(ctx, referrer.ID)
	if savedReferrer.BonusBalance != services.ReferralBonusAmount {
		t.Errorf("Referral bonus awarded twice: %f", savedReferrer.BonusBalance)
	}

	savedReferred, _ := store.GetUser(ctx, referred.ID)
	if !savedReferred.ReferralBonusAwarded {
		t.Error("Referred user not marked as bonus-awarded")
	}
}

func TestWithdrawalFlow(t *testing.T) {
	store := setupTestStore(t)
	wallet := newTestWallet(store)
	ctx := context.Background()

	user := newTestUser(t, store, nil)
	fundUser(t, store, user.ID, 200)

	// No saved withdrawal method yet.
	if _, err := wallet.RequestWithdrawal(ctx, user.ID, 50); err == nil {
		t.Fatal("Expected error without a withdrawal method")
	}

	err := store.SaveWithdrawalMethod(ctx, user.ID, models.WithdrawalMethod{
		AccountName:  "Test User",
		AccountPhone: user.Phone,
		Provider:     "telebirr",
	})
	if err != nil {
		t.Fatalf("Failed to save withdrawal method: %v", err)
	}

	if _, err := wallet.RequestWithdrawal(ctx, user.ID, 300); !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	tx, err := wallet.RequestWithdrawal(ctx, user.ID, 150)
	if err != nil {
		t.Fatalf("Failed to request withdrawal: %v", err)
	}
	if err := wallet.ApproveWithdrawal(ctx, tx.ID); err != nil {
		t.Fatalf("Failed to approve withdrawal: %v", err)
	}

	saved, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to reload user: %v", err)
	}
	if saved.MainBalance != 50 {
		t.Errorf("Expected main balance 50 after withdrawal, got %f", saved.MainBalance)
	}

	declined, err := wallet.RequestWithdrawal(ctx, user.ID, 40)
	if err != nil {
		t.Fatalf("Failed to request second withdrawal: %v", err)
	}
	if err := wallet.DeclineWithdrawal(ctx, declined.ID); err != nil {
		t.Fatalf("Failed to decline withdrawal: %v", err)
	}

	saved, _ = store.GetUser(ctx, user.ID)
	if saved.MainBalance != 50 {
		t.Errorf("Declined withdrawal changed balance: %f", saved.MainBalance)
	}
	if status := transactionStatus(t, store, user.ID, declined.ID); status != models.TransactionStatusFailed {
		t.Errorf("Expected failed request after decline, got %s", status)
	}
}

func TestWithdrawalApprovalRechecksBalance(t *testing.T) {
	store := setupTestStore(t)
	wallet := newTestWallet(store)
	engine := services.NewEngine(store, nil, nil)
	ctx := context.Background()

	resetSlot(t, store, "slot1")
	user := newTestUser(t, store, nil)
	fundUser(t, store, user.ID, 100)

	err := store.SaveWithdrawalMethod(ctx, user.ID, models.WithdrawalMethod{
		AccountName:  "Test User",
		AccountPhone: user.Phone,
		Provider:     "cbe",
	})
	if err != nil {
		t.Fatalf("Failed to save withdrawal method: %v", err)
	}

	tx, err := wallet.RequestWithdrawal(ctx, user.ID, 100)
	if err != nil {
		t.Fatalf("Failed to request withdrawal: %v", err)
	}

	// The balance is spent between request and approval.
	if _, err := engine.PlaceBet(ctx, user.ID, &models.BetRequest{
		Bets: map[string][]string{"slot1": {"9-0"}},
	}); err != nil {
		t.Fatalf("Failed to place bet: %v", err)
	}

	if err := wallet.ApproveWithdrawal(ctx, tx.ID); !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	// The request stays pending so the admin can retry after a deposit.
	if status := transactionStatus(t, store, user.ID, tx.ID); status != models.TransactionStatusPending {
		t.Errorf("Expected pending request after failed approval, got %s", status)
	}

	saved, _ := store.GetUser(ctx, user.ID)
	if saved.MainBalance != 80 {
		t.Errorf("Expected balance 80 untouched by failed approval, got %f", saved.MainBalance)
	}
}

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"lucky-boxes-backend/internal/models"
)

const walletTxColumns = `id, user_id, type, amount, status, depositor_phone,
	method, attempts, created_at, updated_at`

func scanWalletTransaction(row pgx.Row) (*models.WalletTransaction, error) {
	var t models.WalletTransaction
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Status,
		&t.DepositorPhone, &t.Method, &t.Attempts, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateWalletTransaction(ctx context.Context, t *models.WalletTransaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO wallet_transactions (id, user_id, type, amount, status, depositor_phone, method)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6)
		RETURNING `+walletTxColumns+`;
	`, t.ID, t.UserID, t.Type, t.Amount, t.DepositorPhone, t.Method)

	saved, err := scanWalletTransaction(row)
	if err != nil {
		return err
	}
	*t = *saved
	return nil
}

// GetWalletTransactionForUpdate locks the request row so two admin actions
// on the same transaction cannot both apply.
func (s *Store) GetWalletTransactionForUpdate(ctx context.Context, tx pgx.Tx, id string) (*models.WalletTransaction, error) {
	return scanWalletTransaction(tx.QueryRow(ctx, `
		SELECT `+walletTxColumns+` FROM wallet_transactions WHERE id = $1 FOR UPDATE;
	`, id))
}

func (s *Store) SetWalletTransactionStatus(ctx context.Context, tx pgx.Tx, id string, status models.TransactionStatus, attempts int) error {
	_, err := tx.Exec(ctx, `
		UPDATE wallet_transactions SET status = $1, attempts = $2, updated_at = NOW()
		WHERE id = $3;
	`, status, attempts, id)
	return err
}

func (s *Store) ListUserTransactions(ctx context.Context, userID int64, since time.Time) ([]*models.WalletTransaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+walletTxColumns+` FROM wallet_transactions
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC;
	`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*models.WalletTransaction
	for rows.Next() {
		var t models.WalletTransaction
		err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Status,
			&t.DepositorPhone, &t.Method, &t.Attempts, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lucky-boxes-backend/internal/models"
)

const userColumns = `id, phone, full_name, password_hash, main_balance, bonus_balance,
	is_blocked, telegram_chat_id, withdrawal_account_name, withdrawal_account_phone,
	withdrawal_provider, referred_by, referral_bonus_awarded, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Phone, &u.FullName, &u.PasswordHash, &u.MainBalance,
		&u.BonusBalance, &u.IsBlocked, &u.TelegramChatID, &u.WithdrawalMethod.AccountName,
		&u.WithdrawalMethod.AccountPhone, &u.WithdrawalMethod.Provider,
		&u.ReferredBy, &u.ReferralBonusAwarded, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, phone, passwordHash string, referredBy *int64) (*models.User, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (phone, password_hash, referred_by) VALUES ($1, $2, $3)
		RETURNING `+userColumns+`;
	`, phone, passwordHash, referredBy)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrPhoneExists
		}
		return nil, err
	}
	return user, nil
}

func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1;`, phone)
	return scanUser(row)
}

func (s *Store) UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2;
	`, passwordHash, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1;`, userID)
	return scanUser(row)
}

// GetUserForUpdate locks the user row for the rest of the transaction.
func (s *Store) GetUserForUpdate(ctx context.Context, tx pgx.Tx, userID int64) (*models.User, error) {
	row := tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE;`, userID)
	return scanUser(row)
}

// ReserveFunds deducts amount from the user's balances, bonus first. The
// check and the deduction act on the row locked by FOR UPDATE, so the
// balance cannot change between them. Returns the post-deduction balances.
func (s *Store) ReserveFunds(ctx context.Context, tx pgx.Tx, userID int64, amount float64) (*models.User, error) {
	user, err := s.GetUserForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}
	if user.TotalBalance() < amount {
		return nil, ErrInsufficientFunds
	}

	fromBonus, fromMain := models.SplitDeduction(user.BonusBalance, amount)
	user.BonusBalance -= fromBonus
	user.MainBalance -= fromMain

	_, err = tx.Exec(ctx, `
		UPDATE users SET bonus_balance = $1, main_balance = $2, updated_at = NOW()
		WHERE id = $3;
	`, user.BonusBalance, user.MainBalance, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve funds: %w", err)
	}

	return user, nil
}

// CreditMain adds winnings or approved deposits to the withdrawable balance.
func (s *Store) CreditMain(ctx context.Context, tx pgx.Tx, userID int64, amount float64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE users SET main_balance = main_balance + $1, updated_at = NOW()
		WHERE id = $2;
	`, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to credit user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DebitMain removes an approved withdrawal from the main balance only;
// bonus funds are never withdrawable.
func (s *Store) DebitMain(ctx context.Context, tx pgx.Tx, userID int64, amount float64) error {
	user, err := s.GetUserForUpdate(ctx, tx, userID)
	if err != nil {
		return err
	}
	if user.MainBalance < amount {
		return ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET main_balance = main_balance - $1, updated_at = NOW()
		WHERE id = $2;
	`, amount, userID)
	return err
}

// AwardReferralBonus credits the referrer's bonus balance and marks the
// referred user so the award happens at most once.
func (s *Store) AwardReferralBonus(ctx context.Context, tx pgx.Tx, referrerID, referredID int64, amount float64) error {
	_, err := tx.Exec(ctx, `
		UPDATE users SET bonus_balance = bonus_balance + $1, updated_at = NOW()
		WHERE id = $2;
	`, amount, referrerID)
	if err != nil {
		return fmt.Errorf("failed to award referral bonus: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET referral_bonus_awarded = TRUE, updated_at = NOW()
		WHERE id = $1;
	`, referredID)
	return err
}

func (s *Store) SetBlocked(ctx context.Context, tx pgx.Tx, userID int64, blocked bool) error {
	_, err := tx.Exec(ctx, `
		UPDATE users SET is_blocked = $1, updated_at = NOW() WHERE id = $2;
	`, blocked, userID)
	return err
}

func (s *Store) UpdateFullName(ctx context.Context, userID int64, fullName string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET full_name = $1, updated_at = NOW() WHERE id = $2;
	`, fullName, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SaveWithdrawalMethod(ctx context.Context, userID int64, method models.WithdrawalMethod) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET withdrawal_account_name = $1, withdrawal_account_phone = $2,
			withdrawal_provider = $3, updated_at = NOW()
		WHERE id = $4;
	`, method.AccountName, method.AccountPhone, method.Provider, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

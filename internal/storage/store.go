package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"lucky-boxes-backend/internal/logger"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUserBlocked       = errors.New("user is blocked")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBoxConflict       = errors.New("box already taken")
	ErrRoundSettled      = errors.New("round already settled")
	ErrPhoneExists       = errors.New("phone already registered")
)

type Store struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := &Store{db: pool}
	if err := s.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() {
	s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			phone VARCHAR(32) UNIQUE NOT NULL,
			full_name VARCHAR(255) NOT NULL DEFAULT '',
			password_hash VARCHAR(255) NOT NULL DEFAULT '',
			main_balance DOUBLE PRECISION NOT NULL DEFAULT 0,
			bonus_balance DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
			telegram_chat_id VARCHAR(64) NOT NULL DEFAULT '',
			withdrawal_account_name VARCHAR(255) NOT NULL DEFAULT '',
			withdrawal_account_phone VARCHAR(32) NOT NULL DEFAULT '',
			withdrawal_provider VARCHAR(32) NOT NULL DEFAULT 'telebirr',
			referred_by BIGINT REFERENCES users(id),
			referral_bonus_awarded BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS rounds (
			id BIGSERIAL PRIMARY KEY,
			slot_id VARCHAR(32) NOT NULL,
			round_number INT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'open',
			winner_id BIGINT REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			settled_at TIMESTAMPTZ,
			UNIQUE (slot_id, round_number)
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS rounds_one_open_per_slot
			ON rounds (slot_id) WHERE status = 'open';`,
		`CREATE TABLE IF NOT EXISTS claims (
			id BIGSERIAL PRIMARY KEY,
			round_id BIGINT NOT NULL REFERENCES rounds(id),
			user_id BIGINT NOT NULL REFERENCES users(id),
			slot_id VARCHAR(32) NOT NULL,
			box_id VARCHAR(8) NOT NULL,
			cost DOUBLE PRECISION NOT NULL,
			is_winner BOOLEAN NOT NULL DEFAULT FALSE,
			payout DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (round_id, box_id)
		);`,
		`CREATE INDEX IF NOT EXISTS claims_user_idx ON claims (user_id);`,
		`CREATE TABLE IF NOT EXISTS wallet_transactions (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			type VARCHAR(16) NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			depositor_phone VARCHAR(32) NOT NULL DEFAULT '',
			method VARCHAR(32) NOT NULL DEFAULT '',
			attempts INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
	}

	for _, table := range tables {
		if _, err := s.db.Exec(ctx, table); err != nil {
			logger.Log.Error("Error creating table", zap.Error(err))
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}

// WithTx runs fn inside a transaction. Any error from fn rolls the whole
// unit back; this is the single transaction boundary for bet admission.
func (s *Store) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

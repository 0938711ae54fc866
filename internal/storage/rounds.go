package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lucky-boxes-backend/internal/models"
)

const roundColumns = `id, slot_id, round_number, status, winner_id, created_at, settled_at`

func scanRound(row pgx.Row) (*models.Round, error) {
	var r models.Round
	err := row.Scan(&r.ID, &r.SlotID, &r.RoundNumber, &r.Status, &r.WinnerID,
		&r.CreatedAt, &r.SettledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

// GetOrCreateOpenRound returns the slot's open round, creating it with the
// next round number when none exists. An advisory lock on the slot id is
// held to the end of the transaction, so lookup-and-create cannot race and
// round numbers never collide. The partial unique index on open rounds
// backs the same invariant at the storage level.
func (s *Store) GetOrCreateOpenRound(ctx context.Context, tx pgx.Tx, slotID string) (*models.Round, error) {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, slotID); err != nil {
		return nil, fmt.Errorf("failed to lock slot %s: %w", slotID, err)
	}

	round, err := scanRound(tx.QueryRow(ctx, `
		SELECT `+roundColumns+` FROM rounds WHERE slot_id = $1 AND status = 'open';
	`, slotID))
	if err == nil {
		return round, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var lastNumber int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(round_number), 0) FROM rounds WHERE slot_id = $1;
	`, slotID).Scan(&lastNumber)
	if err != nil {
		return nil, err
	}

	return scanRound(tx.QueryRow(ctx, `
		INSERT INTO rounds (slot_id, round_number) VALUES ($1, $2)
		RETURNING `+roundColumns+`;
	`, slotID, lastNumber+1))
}

// GetOpenRound is the read-only lookup used by status projections. It never
// creates a round.
func (s *Store) GetOpenRound(ctx context.Context, slotID string) (*models.Round, error) {
	return scanRound(s.db.QueryRow(ctx, `
		SELECT `+roundColumns+` FROM rounds WHERE slot_id = $1 AND status = 'open';
	`, slotID))
}

func (s *Store) GetRound(ctx context.Context, roundID int64) (*models.Round, error) {
	return scanRound(s.db.QueryRow(ctx, `
		SELECT `+roundColumns+` FROM rounds WHERE id = $1;
	`, roundID))
}

// ResetSlot removes every round and claim for a slot. Used by maintenance
// tooling and integration test cleanup, never by the engine.
func (s *Store) ResetSlot(ctx context.Context, slotID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM claims WHERE slot_id = $1;`, slotID); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `DELETE FROM rounds WHERE slot_id = $1;`, slotID)
	return err
}

// SettleRound flips the round open -> settled. The status guard in the
// WHERE clause makes the transition a one-time event: the caller that sees
// one affected row is the only settler.
func (s *Store) SettleRound(ctx context.Context, tx pgx.Tx, roundID, winnerID int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE rounds SET status = 'settled', winner_id = $1, settled_at = NOW()
		WHERE id = $2 AND status = 'open';
	`, winnerID, roundID)
	if err != nil {
		return fmt.Errorf("failed to settle round %d: %w", roundID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoundSettled
	}
	return nil
}

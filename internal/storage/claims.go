package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lucky-boxes-backend/internal/models"
)

// InsertClaims commits a batch of claims. The pre-check gives a cheap error
// path; the unique constraint on (round_id, box_id) is the authoritative
// guard and still maps to ErrBoxConflict when a concurrent committer wins.
func (s *Store) InsertClaims(ctx context.Context, tx pgx.Tx, claims []*models.Claim) error {
	byRound := make(map[int64][]string)
	for _, c := range claims {
		byRound[c.RoundID] = append(byRound[c.RoundID], c.BoxID)
	}

	for roundID, boxes := range byRound {
		var taken bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM claims WHERE round_id = $1 AND box_id = ANY($2)
			);
		`, roundID, boxes).Scan(&taken)
		if err != nil {
			return err
		}
		if taken {
			return ErrBoxConflict
		}
	}

	for _, c := range claims {
		err := tx.QueryRow(ctx, `
			INSERT INTO claims (round_id, user_id, slot_id, box_id, cost)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at;
		`, c.RoundID, c.UserID, c.SlotID, c.BoxID, c.Cost).Scan(&c.ID, &c.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrBoxConflict
			}
			return fmt.Errorf("failed to insert claim: %w", err)
		}
	}

	return nil
}

func (s *Store) CountClaims(ctx context.Context, tx pgx.Tx, roundID int64) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM claims WHERE round_id = $1;`, roundID).Scan(&count)
	return count, err
}

// ListClaims reads the round's committed claim set inside the caller's
// transaction; winner selection draws from exactly this set.
func (s *Store) ListClaims(ctx context.Context, tx pgx.Tx, roundID int64) ([]*models.Claim, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, round_id, user_id, slot_id, box_id, cost, is_winner, payout, created_at
		FROM claims WHERE round_id = $1 ORDER BY id;
	`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*models.Claim
	for rows.Next() {
		var c models.Claim
		err := rows.Scan(&c.ID, &c.RoundID, &c.UserID, &c.SlotID, &c.BoxID,
			&c.Cost, &c.IsWinner, &c.Payout, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		claims = append(claims, &c)
	}
	return claims, rows.Err()
}

func (s *Store) MarkWinningClaim(ctx context.Context, tx pgx.Tx, claimID int64, payout float64) error {
	_, err := tx.Exec(ctx, `
		UPDATE claims SET is_winner = TRUE, payout = $1 WHERE id = $2;
	`, payout, claimID)
	return err
}

// ListClaimedBoxes is the read-only box projection for the slots status view.
func (s *Store) ListClaimedBoxes(ctx context.Context, roundID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT box_id FROM claims WHERE round_id = $1 ORDER BY id;
	`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boxes := make([]string, 0, models.TotalBoxes)
	for rows.Next() {
		var boxID string
		if err := rows.Scan(&boxID); err != nil {
			return nil, err
		}
		boxes = append(boxes, boxID)
	}
	return boxes, rows.Err()
}

func (s *Store) RecentWinners(ctx context.Context, limit int) ([]models.RecentWinner, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.slot_id, r.round_number, c.box_id, u.phone, c.payout, r.settled_at
		FROM claims c
		JOIN rounds r ON r.id = c.round_id
		JOIN users u ON u.id = c.user_id
		WHERE c.is_winner = TRUE
		ORDER BY r.settled_at DESC
		LIMIT $1;
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var winners []models.RecentWinner
	for rows.Next() {
		var w models.RecentWinner
		err := rows.Scan(&w.SlotID, &w.RoundNumber, &w.BoxID, &w.Phone, &w.Payout, &w.SettledAt)
		if err != nil {
			return nil, err
		}
		w.Phone = models.MaskPhone(w.Phone)
		winners = append(winners, w)
	}
	return winners, rows.Err()
}

// UserBetHistory returns the user's claims in settled rounds, newest first.
func (s *Store) UserBetHistory(ctx context.Context, userID int64, limit int) ([]*models.Claim, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.round_id, c.user_id, c.slot_id, c.box_id, c.cost,
			c.is_winner, c.payout, c.created_at
		FROM claims c
		JOIN rounds r ON r.id = c.round_id
		WHERE c.user_id = $1 AND r.status = 'settled'
		ORDER BY r.settled_at DESC, c.id DESC
		LIMIT $2;
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []*models.Claim
	for rows.Next() {
		var c models.Claim
		err := rows.Scan(&c.ID, &c.RoundID, &c.UserID, &c.SlotID, &c.BoxID,
			&c.Cost, &c.IsWinner, &c.Payout, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		claims = append(claims, &c)
	}
	return claims, rows.Err()
}

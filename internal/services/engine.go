package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"lucky-boxes-backend/internal/logger"
	"lucky-boxes-backend/internal/models"
	"lucky-boxes-backend/internal/storage"
)

// Engine admits bets and settles full rounds. Every PlaceBet call is one
// database transaction: reserve funds, commit claims, settle if any touched
// round reached capacity. Any failure rolls the whole request back.
type Engine struct {
	store       *storage.Store
	redis       *RedisService
	broadcaster Broadcaster
}

func NewEngine(store *storage.Store, redis *RedisService, broadcaster Broadcaster) *Engine {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &Engine{
		store:       store,
		redis:       redis,
		broadcaster: broadcaster,
	}
}

type SettlementResult struct {
	SlotID       string  `json:"slot_id"`
	RoundID      int64   `json:"round_id"`
	RoundNumber  int     `json:"round_number"`
	WinnerID     int64   `json:"winner_id"`
	WinningBoxID string  `json:"winning_box_id"`
	Payout       float64 `json:"payout"`
}

type BetOutcome struct {
	NewBalance float64
	Settled    []*SettlementResult

	fills map[string]int
}

func (e *Engine) PlaceBet(ctx context.Context, userID int64, req *models.BetRequest) (*BetOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bet: %w", err)
	}

	// Cheap pre-checks outside the transaction; blocked state is re-read
	// under the row lock during the reservation.
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, storage.ErrUserBlocked
	}

	// Stable slot order keeps advisory lock acquisition deadlock-free when
	// concurrent multi-slot bets overlap.
	slotIDs := make([]string, 0, len(req.Bets))
	for slotID := range req.Bets {
		slotIDs = append(slotIDs, slotID)
	}
	sort.Strings(slotIDs)

	outcome := &BetOutcome{fills: make(map[string]int)}

	err = e.store.WithTx(ctx, func(tx pgx.Tx) error {
		var claims []*models.Claim
		rounds := make([]*models.Round, 0, len(slotIDs))

		for _, slotID := range slotIDs {
			round, err := e.store.GetOrCreateOpenRound(ctx, tx, slotID)
			if err != nil {
				return err
			}
			rounds = append(rounds, round)

			cost := models.SlotTable[slotID].Cost
			for _, boxID := range req.Bets[slotID] {
				claims = append(claims, &models.Claim{
					RoundID: round.ID,
					UserID:  userID,
					SlotID:  slotID,
					BoxID:   boxID,
					Cost:    cost,
				})
			}
		}

		lockedUser, err := e.store.ReserveFunds(ctx, tx, userID, req.TotalCost())
		if err != nil {
			return err
		}
		outcome.NewBalance = lockedUser.TotalBalance()

		if err := e.store.InsertClaims(ctx, tx, claims); err != nil {
			return err
		}

		for _, round := range rounds {
			result, count, err := e.maybeSettle(ctx, tx, round)
			if err != nil {
				return err
			}
			outcome.fills[round.SlotID] = count * 100 / models.TotalBoxes
			if result != nil {
				outcome.Settled = append(outcome.Settled, result)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(userID, outcome)
	return outcome, nil
}

// maybeSettle settles the round when its claim count reaches capacity. The
// advisory slot lock held since round resolution serializes the fill check,
// so the capacity-filling claim is detected by exactly one transaction.
func (e *Engine) maybeSettle(ctx context.Context, tx pgx.Tx, round *models.Round) (*SettlementResult, int, error) {
	count, err := e.store.CountClaims(ctx, tx, round.ID)
	if err != nil {
		return nil, 0, err
	}
	if count < models.TotalBoxes {
		return nil, count, nil
	}

	claims, err := e.store.ListClaims(ctx, tx, round.ID)
	if err != nil {
		return nil, count, err
	}

	idx, err := randomIndex(len(claims))
	if err != nil {
		return nil, count, fmt.Errorf("failed to draw winner: %w", err)
	}
	winning := claims[idx]

	cfg := models.SlotTable[round.SlotID]
	payout := cfg.Payout()

	if err := e.store.SettleRound(ctx, tx, round.ID, winning.UserID); err != nil {
		return nil, count, err
	}
	if err := e.store.MarkWinningClaim(ctx, tx, winning.ID, payout); err != nil {
		return nil, count, err
	}
	if err := e.store.CreditMain(ctx, tx, winning.UserID, payout); err != nil {
		return nil, count, err
	}

	return &SettlementResult{
		SlotID:       round.SlotID,
		RoundID:      round.ID,
		RoundNumber:  round.RoundNumber,
		WinnerID:     winning.UserID,
		WinningBoxID: winning.BoxID,
		Payout:       payout,
	}, count, nil
}

func (e *Engine) publish(userID int64, outcome *BetOutcome) {
	user, err := e.store.GetUser(context.Background(), userID)
	if err == nil {
		e.broadcaster.BroadcastBalanceUpdate(userID, user.MainBalance, user.BonusBalance)
	}

	for slotID, pct := range outcome.fills {
		e.broadcaster.BroadcastSlotFill(slotID, pct)
	}

	for _, result := range outcome.Settled {
		e.broadcaster.BroadcastRoundSettled(result)
		if e.redis != nil {
			e.redis.InvalidateRecentWinners()
		}
		logger.Log.Info("Round settled",
			zap.String("slot", result.SlotID),
			zap.Int("round", result.RoundNumber),
			zap.Int64("winner", result.WinnerID),
			zap.Float64("payout", result.Payout))
	}
}

// SlotStatuses is the read-only fill projection across all slots. It never
// creates rounds; a slot with no open round reports an empty board.
func (e *Engine) SlotStatuses(ctx context.Context) (map[string]models.SlotStatus, error) {
	statuses := make(map[string]models.SlotStatus, len(models.SlotTable))

	for slotID, cfg := range models.SlotTable {
		status := models.SlotStatus{Cost: cfg.Cost, UnavailableBoxes: []string{}}

		round, err := e.store.GetOpenRound(ctx, slotID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		if err == nil {
			boxes, err := e.store.ListClaimedBoxes(ctx, round.ID)
			if err != nil {
				return nil, err
			}
			status.UnavailableBoxes = boxes
			status.Percentage = len(boxes) * 100 / models.TotalBoxes
		}

		statuses[slotID] = status
	}

	return statuses, nil
}

// RecentWinners serves the public winners list through a short-lived Redis
// cache rebuilt from the database.
func (e *Engine) RecentWinners(ctx context.Context, limit int) ([]models.RecentWinner, error) {
	if e.redis != nil {
		if winners, ok := e.redis.GetCachedRecentWinners(); ok {
			return winners, nil
		}
	}

	winners, err := e.store.RecentWinners(ctx, limit)
	if err != nil {
		return nil, err
	}

	if e.redis != nil {
		e.redis.CacheRecentWinners(winners)
	}
	return winners, nil
}

func randomIndex(n int) (int, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(idx.Int64()), nil
}

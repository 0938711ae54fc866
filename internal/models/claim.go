package models

import "time"

// Claim is one occupied box in a round. (RoundID, BoxID) is unique across
// the whole system; the database constraint is the authoritative guard.
type Claim struct {
	ID       int64   `json:"id"`
	RoundID  int64   `json:"round_id"`
	UserID   int64   `json:"user_id"`
	SlotID   string  `json:"slot_id"`
	BoxID    string  `json:"box_id"`
	Cost     float64 `json:"cost"`
	IsWinner bool    `json:"is_winner"`
	Payout   float64 `json:"payout"`

	CreatedAt time.Time `json:"created_at"`
}

// RecentWinner is the public projection of a settled round's winning claim.
type RecentWinner struct {
	SlotID      string    `json:"slot_id"`
	RoundNumber int       `json:"round_number"`
	BoxID       string    `json:"box_id"`
	Phone       string    `json:"phone"`
	Payout      float64   `json:"payout"`
	SettledAt   time.Time `json:"settled_at"`
}

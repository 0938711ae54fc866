package models

import "time"

type RoundStatus string

const (
	RoundStatusOpen    RoundStatus = "open"
	RoundStatusSettled RoundStatus = "settled"
)

// Round is one lifecycle of a slot's box pool. A slot has at most one open
// round at any instant; the open -> settled transition happens exactly once.
type Round struct {
	ID          int64       `json:"id"`
	SlotID      string      `json:"slot_id"`
	RoundNumber int         `json:"round_number"`
	Status      RoundStatus `json:"status"`
	WinnerID    *int64      `json:"winner_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	SettledAt   *time.Time  `json:"settled_at,omitempty"`
}

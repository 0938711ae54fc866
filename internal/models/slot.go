package models

import "fmt"

// TotalBoxes is the fixed number of boxes in every round.
const TotalBoxes = 100

type SlotConfig struct {
	Cost       float64 `json:"cost"`
	Commission float64 `json:"commission"`
}

// SlotTable is the static stake-tier configuration. Immutable at runtime.
var SlotTable = map[string]SlotConfig{
	"slot0.9": {Cost: 10, Commission: 0.11},
	"slot1":   {Cost: 20, Commission: 0.10},
	"slot2":   {Cost: 50, Commission: 0.09},
	"slot3":   {Cost: 75, Commission: 0.08},
	"slot4":   {Cost: 100, Commission: 0.07},
	"slot5":   {Cost: 150, Commission: 0.06},
	"slot6":   {Cost: 500, Commission: 0.05},
	"slot7":   {Cost: 5000, Commission: 0.04},
}

// Payout is the full pool minus the house commission.
func (sc SlotConfig) Payout() float64 {
	return sc.Cost * TotalBoxes * (1 - sc.Commission)
}

// ValidateBoxID accepts the "row-col" box naming used by the client grid,
// one digit each, which yields exactly TotalBoxes distinct ids per round.
func ValidateBoxID(boxID string) error {
	if len(boxID) != 3 || boxID[1] != '-' {
		return fmt.Errorf("invalid box id: %q", boxID)
	}
	if boxID[0] < '0' || boxID[0] > '9' || boxID[2] < '0' || boxID[2] > '9' {
		return fmt.Errorf("invalid box id: %q", boxID)
	}
	return nil
}

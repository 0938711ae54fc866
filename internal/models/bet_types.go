package models

import "fmt"

// BetRequest is a multi-slot, multi-box bet: slot id -> requested box ids.
type BetRequest struct {
	Bets map[string][]string `json:"bets" binding:"required"`
}

func (br *BetRequest) Validate() error {
	if len(br.Bets) == 0 {
		return fmt.Errorf("no bets in request")
	}

	for slotID, boxes := range br.Bets {
		if _, ok := SlotTable[slotID]; !ok {
			return fmt.Errorf("unknown slot: %s", slotID)
		}
		if len(boxes) == 0 {
			return fmt.Errorf("no boxes selected for %s", slotID)
		}
		if len(boxes) > TotalBoxes {
			return fmt.Errorf("too many boxes for %s", slotID)
		}

		seen := make(map[string]bool, len(boxes))
		for _, boxID := range boxes {
			if err := ValidateBoxID(boxID); err != nil {
				return err
			}
			if seen[boxID] {
				return fmt.Errorf("duplicate box %s in %s", boxID, slotID)
			}
			seen[boxID] = true
		}
	}

	return nil
}

// TotalCost sums box cost over every slot in the request.
func (br *BetRequest) TotalCost() float64 {
	var total float64
	for slotID, boxes := range br.Bets {
		total += SlotTable[slotID].Cost * float64(len(boxes))
	}
	return total
}

// SlotStatus is the read-only fill projection of a slot's open round.
type SlotStatus struct {
	Percentage       int      `json:"percentage"`
	UnavailableBoxes []string `json:"unavailableBoxes"`
	Cost             float64  `json:"cost"`
}

package services

// Broadcaster delivers best-effort push events after a transaction commits.
// Implementations must never block the engine; failures are not rolled back.
type Broadcaster interface {
	BroadcastBalanceUpdate(userID int64, mainBalance, bonusBalance float64)
	BroadcastRoundSettled(result *SettlementResult)
	BroadcastSlotFill(slotID string, percentage int)
}

// NopBroadcaster is used in tests and before the websocket hub is attached.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastBalanceUpdate(int64, float64, float64) {}
func (NopBroadcaster) BroadcastRoundSettled(*SettlementResult)       {}
func (NopBroadcaster) BroadcastSlotFill(string, int)                 {}

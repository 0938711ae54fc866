package models

import "time"

type WithdrawalMethod struct {
	AccountName  string `json:"account_name"`
	AccountPhone string `json:"account_phone"`
	Provider     string `json:"provider"`
}

type User struct {
	ID           int64  `json:"id"`
	Phone        string `json:"phone"`
	FullName     string `json:"full_name"`
	PasswordHash string `json:"-"`

	MainBalance  float64 `json:"main_balance"`
	BonusBalance float64 `json:"bonus_balance"`

	IsBlocked      bool   `json:"is_blocked"`
	TelegramChatID string `json:"telegram_chat_id,omitempty"`

	WithdrawalMethod WithdrawalMethod `json:"withdrawal_method"`

	ReferredBy           *int64 `json:"referred_by,omitempty"`
	ReferralBonusAwarded bool   `json:"referral_bonus_awarded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TotalBalance is derived, never stored. Every balance mutation goes through
// exactly the main/bonus components.
func (u *User) TotalBalance() float64 {
	return u.MainBalance + u.BonusBalance
}

// SplitDeduction returns how much of amount comes out of the bonus balance
// and how much out of the main balance. Bonus is always spent first.
func SplitDeduction(bonusBalance, amount float64) (fromBonus, fromMain float64) {
	fromBonus = amount
	if bonusBalance < amount {
		fromBonus = bonusBalance
	}
	return fromBonus, amount - fromBonus
}

package models

import "fmt"

func FormatCurrency(amount float64) string {
	return fmt.Sprintf("%.2f ETB", amount)
}

// MaskPhone hides the middle digits of a phone number for public listings
// such as recent winners.
func MaskPhone(phone string) string {
	if len(phone) < 7 {
		return phone
	}
	return phone[:3] + "****" + phone[len(phone)-3:]
}

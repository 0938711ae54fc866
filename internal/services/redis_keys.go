package services

import "time"

const (
	KeyUserSession   = "user:%d:session:%s"
	KeyRateLimit     = "ratelimit:%d:%s"
	KeyRecentWinners = "winners:recent"

	TTLUserSession   = 24 * time.Hour
	TTLRecentWinners = 30 * time.Second

	DefaultRateLimitBets = 30 // Max 30 bets per minute
)

package services_test

import (
	"testing"
	"time"

	"lucky-boxes-backend/internal/config"
	"lucky-boxes-backend/internal/models"
	"lucky-boxes-backend/internal/services"
)

func TestRedisService(t *testing.T) {
	cfg := &config.Config{
		RedisURL:  "localhost:6379",
		RedisPass: "",
		RedisDB:   0,
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer redisService.Close()

	userID := int64(999999)
	sessionID := "test_session_123"

	session := &models.UserSession{
		UserID:       userID,
		SessionID:    sessionID,
		Phone:        "0911234567",
		CreatedAt:    time.Now(),
		LastAccessed: time.Now(),
	}

	if err := redisService.StoreUserSession(session); err != nil {
		t.Errorf("Failed to store session: %v", err)
	}

	retrieved, err := redisService.GetUserSession(userID, sessionID)
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if retrieved.Phone != session.Phone {
		t.Errorf("Session phone mismatch: expected %s, got %s", session.Phone, retrieved.Phone)
	}

	if err := redisService.DeleteUserSession(userID, sessionID); err != nil {
		t.Errorf("Failed to delete session: %v", err)
	}
	if _, err := redisService.GetUserSession(userID, sessionID); err == nil {
		t.Error("Expected deleted session to be gone")
	}

	redisService.ClearRateLimit(userID, "bet")
	for i := 0; i < 3; i++ {
		allowed, err := redisService.CheckRateLimit(userID, "bet", 3, time.Minute)
		if err != nil {
			t.Fatalf("Failed to check rate limit: %v", err)
		}
		if !allowed {
			t.Errorf("Bet %d should be allowed", i+1)
		}
	}

	allowed, err := redisService.CheckRateLimit(userID, "bet", 3, time.Minute)
	if err != nil {
		t.Fatalf("Failed to check rate limit: %v", err)
	}
	if allowed {
		t.Error("Fourth bet should be rejected")
	}
	redisService.ClearRateLimit(userID, "bet")

	winners := []models.RecentWinner{
		{SlotID: "slot1", RoundNumber: 1, BoxID: "0-0", Phone: "091****567", Payout: 1800},
	}
	redisService.CacheRecentWinners(winners)

	cached, ok := redisService.GetCachedRecentWinners()
	if !ok {
		t.Fatal("Expected cached winners")
	}
	if len(cached) != 1 || cached[0].BoxID != "0-0" {
		t.Errorf("Cached winners mismatch: %+v", cached)
	}

	redisService.InvalidateRecentWinners()
	if _, ok := redisService.GetCachedRecentWinners(); ok {
		t.Error("Expected winners cache to be invalidated")
	}
}

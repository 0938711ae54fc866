package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"lucky-boxes-backend/internal/config"
	"lucky-boxes-backend/internal/handlers"
	"lucky-boxes-backend/internal/services"
)

// setupGameRouter wires the handler behind a stub auth layer. The engine has
// no store, so only requests rejected before any database access are routed.
func setupGameRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{AppVersion: "1.2.3", UpdateURL: "https://example.com/app"}
	handler := handlers.NewGameHandler(services.NewEngine(nil, nil, nil), cfg)

	router := gin.New()
	router.GET("/api/game/version", handler.Version)
	router.POST("/api/game/bet", func(c *gin.Context) {
		c.Set("user_id", int64(42))
		c.Next()
	}, handler.PlaceBet)

	return router
}

func TestVersionEndpoint(t *testing.T) {
	router := setupGameRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/game/version", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["latestVersion"] != "1.2.3" {
		t.Errorf("Expected version 1.2.3, got %s", body["latestVersion"])
	}
	if body["updateUrl"] != "https://example.com/app" {
		t.Errorf("Unexpected update url: %s", body["updateUrl"])
	}
}

func TestPlaceBetRejectsMalformedBody(t *testing.T) {
	router := setupGameRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/game/bet", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", w.Code)
	}
}

func TestPlaceBetRejectsInvalidRequests(t *testing.T) {
	router := setupGameRouter()

	cases := []struct {
		name string
		body string
	}{
		{"no bets", `{"bets":{}}`},
		{"unknown slot", `{"bets":{"slot99":["0-0"]}}`},
		{"empty boxes", `{"bets":{"slot1":[]}}`},
		{"bad box id", `{"bets":{"slot1":["box1"]}}`},
		{"duplicate box", `{"bets":{"slot1":["0-0","0-0"]}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/game/bet", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}

			var body map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body["error"] == "" {
				t.Error("Expected an error message in the response")
			}
		})
	}
}

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"lucky-boxes-backend/internal/config"
	"lucky-boxes-backend/internal/middleware"
	"lucky-boxes-backend/internal/services"
)

func setupAuthRouter(jwtService *services.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/protected", middleware.AuthMiddleware(jwtService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64("user_id")})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := services.NewJWTService(&config.Config{JWTSecret: "test-secret"})
	router := setupAuthRouter(jwtService)

	token, err := jwtService.GenerateToken(42, "session-1")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	cases := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing credentials", "", "", http.StatusUnauthorized},
		{"bad header format", "Token " + token, "", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", "", http.StatusUnauthorized},
		{"valid header", "Bearer " + token, "", http.StatusOK},
		{"valid query token", "", token, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			target := "/protected"
			if tc.query != "" {
				target += "?token=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			router.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Errorf("Expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestAuthMiddlewareRejectsForeignSignature(t *testing.T) {
	issuer := services.NewJWTService(&config.Config{JWTSecret: "issuer-secret"})
	verifier := services.NewJWTService(&config.Config{JWTSecret: "other-secret"})
	router := setupAuthRouter(verifier)

	token, err := issuer.GenerateToken(42, "session-1")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for foreign signature, got %d", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
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

	gin.SetMode(gin.TestMode)

	userID := int64(999998)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	router.Use(middleware.RateLimitMiddleware(redisService))
	router.POST("/api/game/bet", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/api/game/slots", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	betPath := "/api/game/bet"
	redisService.ClearRateLimit(userID, betPath)
	defer redisService.ClearRateLimit(userID, betPath)

	for i := 0; i < services.DefaultRateLimitBets; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, betPath, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Bet %d should be allowed, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, betPath, nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 past the bet limit, got %d", w.Code)
	}

	// Other endpoints are not counted against the bet limit.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/game/slots", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Read endpoint should not be rate limited, got %d", w.Code)
	}
}

func TestAdminMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(adminToken string) *gin.Engine {
		router := gin.New()
		router.POST("/admin", middleware.AdminMiddleware(adminToken), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		return router
	}

	cases := []struct {
		name       string
		configured string
		sent       string
		want       int
	}{
		{"valid token", "admin-token", "admin-token", http.StatusOK},
		{"wrong token", "admin-token", "nope", http.StatusForbidden},
		{"missing token", "admin-token", "", http.StatusForbidden},
		{"unconfigured admin stays closed", "", "", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			if tc.sent != "" {
				req.Header.Set("X-Admin-Token", tc.sent)
			}
			newRouter(tc.configured).ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Errorf("Expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

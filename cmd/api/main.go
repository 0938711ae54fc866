package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"lucky-boxes-backend/internal/config"
	"lucky-boxes-backend/internal/handlers"
	"lucky-boxes-backend/internal/logger"
	"lucky-boxes-backend/internal/middleware"
	"lucky-boxes-backend/internal/services"
	"lucky-boxes-backend/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Log.Sync()

	ctx := context.Background()

	store, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer store.Close()

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg)
	notifier := services.NewNotifier(cfg)

	wsHandler := handlers.NewWebSocketHandler(store)

	engine := services.NewEngine(store, redisService, wsHandler)
	walletService := services.NewWalletService(store, notifier, wsHandler)
	authService := services.NewAuthService(store, redisService, jwtService)

	authHandler := handlers.NewAuthHandler(authService)
	gameHandler := handlers.NewGameHandler(engine, cfg)
	userHandler := handlers.NewUserHandler(store, walletService, redisService)
	adminHandler := handlers.NewAdminHandler(walletService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)
	router.GET("/api/game/version", gameHandler.Version)
	router.GET("/api/game/recent-winners", gameHandler.RecentWinners)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisService))
	{
		protected.GET("/ws", wsHandler.HandleWebSocket)

		game := protected.Group("/game")
		{
			game.POST("/bet", gameHandler.PlaceBet)
			game.GET("/slots", gameHandler.GetSlots)
		}

		user := protected.Group("/user")
		{
			user.GET("/me", userHandler.GetCurrentUser)
			user.POST("/logout", userHandler.Logout)
			user.POST("/profile", userHandler.UpdateProfile)
			user.POST("/change-password", authHandler.ChangePassword)
			user.POST("/withdrawal-method", userHandler.SaveWithdrawalMethod)
			user.POST("/request-deposit-verification", userHandler.RequestDepositVerification)
			user.POST("/request-withdrawal", userHandler.RequestWithdrawal)
			user.GET("/transaction-history", userHandler.TransactionHistory)
			user.GET("/bet-history", userHandler.BetHistory)
		}
	}

	admin := router.Group("/api/admin")
	admin.Use(middleware.AdminMiddleware(cfg.AdminToken))
	{
		admin.POST("/deposits/:id/approve", adminHandler.ApproveDeposit)
		admin.POST("/deposits/:id/reject", adminHandler.RejectDeposit)
		admin.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/decline", adminHandler.DeclineWithdrawal)
	}

	logger.Log.Info("Server starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Failed to start server", zap.Error(err))
	}
}

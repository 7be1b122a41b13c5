package main

import (
	"context"                       // context package is needed for Redis operations
	"log"                           // log package is needed for logging
	"time"                          // Closer interval
	"gam_market/internal/api"       // Custom package for API handlers
	"gam_market/internal/config"    // Custom package for configuration
	"gam_market/internal/middleware" // Custom package for middleware
	"gam_market/internal/notify"    // Notification collaborator
	"gam_market/internal/service"   // Market, ledger, settlement and closer services

	// For loading .env files
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Notification channels: always log, Telegram only when configured
	senders := []notify.Sender{notify.LogSender{}}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID))
	}
	notifier := notify.NewService(senders...)

	// Domain services
	registry := service.NewRegistry(db, nil)                                     // Market registry
	ledger := service.NewLedger(db)                                              // Bet ledger
	settlement := service.NewSettlement(db, notifier, cfg.HouseEdge, nil)        // Settlement engine
	closer := service.NewCloser(db, notifier,                                    // Scheduled closer
		time.Duration(cfg.CloserInterval)*time.Minute, nil)

	// Start the closer sweep off the request path
	closer.Start()
	defer closer.Stop()

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/user", api.RegisterHandler(db, cfg.SignupBonus)) // Registration endpoint
	r.GET("/user", api.LoginHandler(db, cfg.JWTSecret))       // Login endpoint

	// Public market reads
	r.GET("/markets", api.ListMarketsHandler(registry, redisClient))    // Market listing endpoint
	r.GET("/markets/:id", api.GetMarketHandler(registry, redisClient))  // Market detail endpoint

	// Betting routes (protected by JWT)
	betGroup := r.Group("")
	// Protect betting routes with JWT middleware
	betGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	betGroup.POST("/markets/:id/bets", api.PlaceBetHandler(ledger, redisClient)) // Place bet endpoint
	betGroup.GET("/wallet", api.GetWalletHandler(db, ledger))                    // Balance and bets endpoint
	betGroup.GET("/wallet/rewards", api.GetRewardsHandler(db, redisClient))      // Reward history endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	// Protect admin routes with JWT and AdminOnly middleware
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(db))
	adminGroup.POST("/markets", api.CreateMarketHandler(registry, redisClient))                 // Create market endpoint
	adminGroup.POST("/markets/:id/resolve", api.ResolveMarketHandler(settlement, redisClient))  // Resolve market endpoint
	adminGroup.POST("/closer/run", api.RunCloserHandler(closer, redisClient))                   // Manual sweep endpoint
	adminGroup.GET("/closer", api.CloserStatusHandler(closer))                                  // Closer status endpoint
	adminGroup.POST("/grant", api.GrantHandler(db))                                             // Balance grant endpoint
	adminGroup.GET("/rewards", api.ListRewardsHandler(db, redisClient))                         // Reward ledger endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}

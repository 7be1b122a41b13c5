package api

import (
	"context"                     // Context for Redis operations
	"net/http"                    // HTTP status codes
	"strconv"                     // String conversion
	"time"                        // Time durations
	"gam_market/internal/domain"  // Importing domain models
	"gam_market/internal/service" // Bet ledger service
	"gam_market/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// PlaceBetRequest represents a stake on one side of a market
type PlaceBetRequest struct {
	Choice string `json:"choice" binding:"required"` // Yes or No
	Amount int64  `json:"amount" binding:"required"` // Stake in GAM
}

// PlaceBetHandler stakes the authenticated user's GAM on a market
func PlaceBetHandler(ledger *service.Ledger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		marketID, err := strconv.Atoi(c.Param("id")) // Parse market ID from path
		if err != nil || marketID <= 0 {
			// If malformed, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid market id"})
			return
		}
		var req PlaceBetRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Place the bet through the ledger (validate, debit, insert,
		// bump volumes, all in one transaction)
		result, err := ledger.PlaceBet(userID.(uint), uint(marketID), req.Choice, req.Amount)
		if err != nil {
			status, msg := errorStatus(err) // Map domain error to HTTP
			// Internal failures are logged with context; conflicts are
			// the caller's to handle
			if status == http.StatusInternalServerError {
				logrus.WithFields(logrus.Fields{
					"user_id":   userID,      // Bettor
					"market_id": marketID,    // Target market
					"amount":    req.Amount,  // Stake in GAM
					"error":     err.Error(), // Error message
				}).Error("Bet placement failed")
			}
			c.JSON(status, gin.H{"error": msg})
			return
		}
		// Invalidate the market cache so volumes read fresh
		invalidateMarketCache(context.Background(), rdb, uint(marketID))
		// Return updated balance and market snapshot
		c.JSON(http.StatusOK, gin.H{"balance": result.Balance, "market": result.Market})
	}
}

// GetWalletHandler returns the authenticated user's balance and bets
func GetWalletHandler(db *gorm.DB, ledger *service.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, userID).Error; err != nil {
			// If user not found, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		bets, err := ledger.BetsForUser(user.ID) // Fetch the user's bets
		if err != nil {
			// If fetching fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bets"})
			return
		}
		// Return balance and bet list
		c.JSON(http.StatusOK, gin.H{"balance": user.Balance, "bets": bets})
	}
}

// GetRewardsHandler returns the authenticated user's reward ledger entries
func GetRewardsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := context.Background() // Context for Redis operations
		// Cache key for this user's rewards
		cacheKey := "rewards:user:" + strconv.Itoa(int(userID.(uint)))
		var cached []domain.RewardLedgerEntry
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached) // Try to get from cache
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"rewards": cached, "cached": true})
			return
		}
		var rewards []domain.RewardLedgerEntry // Slice to hold entries
		// Fetch the user's reward ledger, newest first
		if err := db.Where("user_id = ?", userID).Order("created_at desc").Find(&rewards).Error; err != nil {
			// If fetching fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rewards"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, rewards, 60*time.Second) // Cache for 60 seconds
		c.JSON(http.StatusOK, gin.H{"rewards": rewards, "cached": false}) // Return reward history
	}
}

package api

import (
	"context"                     // Context for Redis operations
	"net/http"                    // HTTP status codes
	"strconv"                     // String conversion
	"strings"                     // String manipulation
	"time"                        // Time durations
	"gam_market/internal/domain"  // Importing domain models
	"gam_market/internal/service" // Settlement and closer services
	"gam_market/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// ResolveRequest represents an operator's resolution decision
type ResolveRequest struct {
	Result string `json:"result" binding:"required"` // Yes, No, Draw or Cancelled
	Reason string `json:"reason"`                    // Operator-supplied reason
}

// ResolveMarketHandler fixes a market's outcome and disburses its pool (admin only)
func ResolveMarketHandler(settlement *service.Settlement, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorID, exists := c.Get("userID") // Resolving operator from context
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
		var req ResolveRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Settle the market (exactly-once; a repeat returns AlreadyResolved)
		result, err := settlement.Resolve(uint(marketID), req.Result, req.Reason, operatorID.(uint))
		if err != nil {
			status, msg := errorStatus(err) // Map domain error to HTTP
			// Internal failures are logged with context
			if status == http.StatusInternalServerError {
				logrus.WithFields(logrus.Fields{
					"market_id":   marketID,    // Target market
					"result":      req.Result,  // Requested outcome
					"operator_id": operatorID,  // Resolving operator
					"error":       err.Error(), // Error message
				}).Error("Settlement failed")
			}
			c.JSON(status, gin.H{"error": msg})
			return
		}
		// Invalidate market and reward caches after the payout
		invalidateMarketCache(context.Background(), rdb, uint(marketID))
		_ = utils.DeleteCachePattern(context.Background(), rdb, "rewards:*")
		// Return the fixed outcome and how many credits were issued
		c.JSON(http.StatusOK, gin.H{"result": result.Result, "rewarded_count": result.RewardedCount})
	}
}

// RunCloserHandler triggers one closer sweep on demand (admin only)
func RunCloserHandler(closer *service.Closer, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		closed, err := closer.RunOnce() // Same algorithm as the scheduled tick
		if err != nil {
			// If the sweep query fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Sweep failed"})
			return
		}
		// Closed markets invalidate cached listings
		if closed > 0 {
			_ = utils.DeleteCachePattern(context.Background(), rdb, "markets:list:*")
		}
		c.JSON(http.StatusOK, gin.H{"closed_count": closed}) // Return how many markets were closed
	}
}

// CloserStatusHandler reports whether the scheduled sweep is running (admin only)
func CloserStatusHandler(closer *service.Closer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"running": closer.Status()}) // Report scheduler state
	}
}

// GrantRequest represents an operational GAM top-up for a user
type GrantRequest struct {
	UserID uint  `json:"user_id" binding:"required"` // Target user
	Amount int64 `json:"amount" binding:"required,gt=0"` // GAM to credit
}

// GrantHandler credits GAM to a user's balance (admin only)
func GrantHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GrantRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
			// If invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Conditional credit: zero rows means the user does not exist
		res := db.Model(&domain.User{}).
			Where("id = ?", req.UserID).
			Update("balance", gorm.Expr("balance + ?", req.Amount))
		if res.Error != nil {
			// If the update fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Grant failed"})
			return
		}
		if res.RowsAffected == 0 {
			// If no such user, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		// Log the operational credit
		logrus.WithFields(logrus.Fields{
			"user_id": req.UserID, // Credited user
			"amount":  req.Amount, // Credited GAM
		}).Info("Balance granted")
		c.JSON(http.StatusOK, gin.H{"message": "Balance granted"}) // Return success response
	}
}

// ListRewardsHandler returns the reward ledger, with optional filtering by user or market (admin only)
func ListRewardsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		// Build cache key from all query params
		var keyParts []string // Parts of the cache key
		// Append each query parameter to the key parts
		for _, k := range []string{"user_id", "market_id", "page", "page_size"} {
			keyParts = append(keyParts, k+"="+c.DefaultQuery(k, "")) // Append key-value pair
		}
		// Join key parts to form the final cache key
		cacheKey := "rewards:admin:" + strings.Join(keyParts, ":")
		var cached struct {
			Rewards    []domain.RewardLedgerEntry `json:"rewards"`     // List of ledger entries
			Page       int                        `json:"page"`        // Current page
			PageSize   int                        `json:"page_size"`   // Page size
			Total      int64                      `json:"total"`       // Total entries
			TotalPages int                        `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"rewards":     cached.Rewards,    // List of ledger entries
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total entries
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}
		page := 1      // Default page number
		pageSize := 20 // Default page size
		// Check and set page number and size from query params
		if p := c.Query("page"); p != "" {
			// If valid, set page number
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// Check and set page size within limits
		if ps := c.Query("page_size"); ps != "" {
			// If valid, set page size
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size
			}
		}
		offset := (page - 1) * pageSize                   // Calculate offset for pagination
		query := db.Model(&domain.RewardLedgerEntry{})    // Start building the query
		if userID := c.Query("user_id"); userID != "" {
			query = query.Where("user_id = ?", userID) // Filter by user ID
		}
		if marketID := c.Query("market_id"); marketID != "" {
			query = query.Where("market_id = ?", marketID) // Filter by market ID
		}
		var total int64 // Total ledger entry count
		// Get total count of entries matching the filters
		if err := query.Count(&total).Error; err != nil {
			// If error occurs, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count rewards"})
			return
		}
		var rewards []domain.RewardLedgerEntry // Slice to hold entries
		// Fetch paginated entries with filters applied
		if err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&rewards).Error; err != nil {
			// If error occurs, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rewards"})
			return
		}
		// The total number of pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		respData := gin.H{
			"rewards":     rewards,    // List of ledger entries
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total entries
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Indicate response is not from cache
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, 60*time.Second)
		c.JSON(http.StatusOK, respData) // Return the response
	}
}

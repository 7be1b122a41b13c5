package api

import (
	"context"                     // Context for Redis operations
	"net/http"                    // HTTP status codes
	"strconv"                     // String conversion
	"time"                        // Time durations
	"gam_market/internal/domain"  // Importing domain models
	"gam_market/internal/service" // Market registry service
	"gam_market/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// invalidateMarketCache drops the cached detail for one market and every
// cached market listing after a mutation
func invalidateMarketCache(ctx context.Context, rdb *redis.Client, marketID uint) {
	_ = utils.DeleteCache(ctx, rdb, "market:"+strconv.Itoa(int(marketID))) // Invalidate market detail cache
	_ = utils.DeleteCachePattern(ctx, rdb, "markets:list:*")               // Invalidate every cached listing
}

// ListMarketsHandler returns a filtered, paginated page of markets
func ListMarketsHandler(registry *service.Registry, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Context for Redis operations
		// Build cache key from the filter parameters
		cacheKey := "markets:list:status=" + c.DefaultQuery("status", "") +
			":category=" + c.DefaultQuery("category", "") +
			":page=" + c.DefaultQuery("page", "1") +
			":size=" + c.DefaultQuery("page_size", "20")
		var cached struct {
			Markets []domain.Market `json:"markets"` // List of markets
			Total   int64           `json:"total"`   // Total matching markets
		}
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"markets": cached.Markets, // Cached markets
				"total":   cached.Total,   // Total matching markets
				"cached":  true,           // Indicate response is from cache
			})
			return
		}
		filter := service.MarketFilter{
			Status:   c.Query("status"),   // Filter by lifecycle status
			Category: c.Query("category"), // Filter by category tag
		}
		// Parse pagination parameters
		if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
			filter.Page = v // Set page if valid
		}
		if v, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
			filter.PageSize = v // Set page size if valid
		}
		markets, total, err := registry.List(filter)
		if err != nil {
			// If listing fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch markets"})
			return
		}
		resp := gin.H{
			"markets": markets, // List of markets
			"total":   total,   // Total matching markets
			"cached":  false,   // Not from cache
		}
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp) // Return the listing
	}
}

// GetMarketHandler returns one market by ID
func GetMarketHandler(registry *service.Registry, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Parse market ID from path
		if err != nil || id <= 0 {
			// If malformed, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid market id"})
			return
		}
		ctx := context.Background()                  // Context for Redis operations
		cacheKey := "market:" + strconv.Itoa(id)     // Cache key for the market
		var market domain.Market                     // Market struct to hold data
		found, err := utils.GetCache(ctx, rdb, cacheKey, &market) // Try to get from cache
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"market": market, "cached": true})
			return
		}
		// If not in cache, fetch through the registry
		m, err := registry.Get(uint(id))
		if err != nil {
			status, msg := errorStatus(err) // Map domain error to HTTP
			c.JSON(status, gin.H{"error": msg})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, m, 60*time.Second) // Cache the market for 60 seconds
		c.JSON(http.StatusOK, gin.H{"market": m, "cached": false}) // Return market info
	}
}

// CreateMarketRequest represents an operator's market creation request
type CreateMarketRequest struct {
	Title    string    `json:"title" binding:"required"`    // Question text
	Category string    `json:"category"`                    // Category tag
	EndDate  time.Time `json:"end_date" binding:"required"` // Betting deadline
	YesPrice int       `json:"yes_price"`                   // Display odds, 0-100
}

// CreateMarketHandler creates a new active market (admin only)
func CreateMarketHandler(registry *service.Registry, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateMarketRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		market, err := registry.Create(req.Title, req.Category, req.EndDate, req.YesPrice)
		if err != nil {
			status, msg := errorStatus(err) // Map domain error to HTTP
			c.JSON(status, gin.H{"error": msg})
			return
		}
		// New market invalidates cached listings
		_ = utils.DeleteCachePattern(context.Background(), rdb, "markets:list:*")
		c.JSON(http.StatusCreated, gin.H{"market": market}) // Return the new market
	}
}

package service

import (
	"errors" // Sentinel error checks
	"time"   // Deadlines and clocks

	"gam_market/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Registry is the CRUD store for market entities. Reads are side-effect
// free; the only mutation here is market creation by an operator.
type Registry struct {
	db  *gorm.DB         // Database handle
	now func() time.Time // Injected clock (time.Now in production)
}

// NewRegistry creates a Registry. A nil clock defaults to time.Now.
func NewRegistry(db *gorm.DB, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{db: db, now: now}
}

// Create stores a new active market with zero volumes
func (r *Registry) Create(title, category string, endDate time.Time, yesPrice int) (*domain.Market, error) {
	// Reject bad input before touching the database
	if title == "" || endDate.IsZero() || !endDate.After(r.now()) {
		return nil, domain.ErrInvalidInput
	}
	if yesPrice < 0 || yesPrice > 100 {
		return nil, domain.ErrInvalidInput
	}
	market := domain.Market{
		Title:    title,               // Question text
		Category: category,            // Category tag
		EndDate:  endDate,             // Betting deadline
		YesPrice: yesPrice,            // Display odds
		Status:   domain.MarketActive, // New markets accept bets immediately
	}
	if err := r.db.Create(&market).Error; err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"market_id": market.ID,    // New market ID
		"title":     title,        // Question text
		"end_date":  endDate,      // Betting deadline
	}).Info("Market created")
	return &market, nil
}

// Get returns one market by ID
func (r *Registry) Get(id uint) (*domain.Market, error) {
	var market domain.Market
	if err := r.db.First(&market, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMarketNotFound
		}
		return nil, err
	}
	return &market, nil
}

// MarketFilter narrows a List call; zero values mean "no filter"
type MarketFilter struct {
	Status   string // Filter by lifecycle status
	Category string // Filter by category tag
	Page     int    // Page number, 1-based
	PageSize int    // Rows per page
}

// List returns a page of markets plus the total count for pagination
func (r *Registry) List(f MarketFilter) ([]domain.Market, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
	query := r.db.Model(&domain.Market{}) // Start building the query
	if f.Status != "" {
		query = query.Where("status = ?", f.Status) // Filter by status
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category) // Filter by category
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var markets []domain.Market
	offset := (f.Page - 1) * f.PageSize // Calculate offset for pagination
	if err := query.Order("end_date asc").Offset(offset).Limit(f.PageSize).Find(&markets).Error; err != nil {
		return nil, 0, err
	}
	return markets, total, nil
}

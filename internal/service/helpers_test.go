package service

import (
	"sync"
	"testing"
	"time"

	"gam_market/internal/domain"
	"gam_market/internal/notify"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory sqlite database with the full schema. A
// single connection keeps every query on the same memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&domain.User{}, &domain.Market{}, &domain.Bet{}, &domain.RewardLedgerEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// createUser inserts a user with the given balance and returns its ID
func createUser(t *testing.T, db *gorm.DB, username string, balance int64) uint {
	t.Helper()
	user := domain.User{Username: username, Password: "x", Balance: balance}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user.ID
}

// createMarket inserts an active market ending at endDate and returns its ID
func createMarket(t *testing.T, db *gorm.DB, title string, endDate time.Time) uint {
	t.Helper()
	market := domain.Market{
		Title:    title,
		Category: "test",
		EndDate:  endDate,
		YesPrice: 50,
		Status:   domain.MarketActive,
	}
	if err := db.Create(&market).Error; err != nil {
		t.Fatalf("create market %s: %v", title, err)
	}
	return market.ID
}

// loadMarket reloads a market row
func loadMarket(t *testing.T, db *gorm.DB, id uint) domain.Market {
	t.Helper()
	var market domain.Market
	if err := db.First(&market, id).Error; err != nil {
		t.Fatalf("load market %d: %v", id, err)
	}
	return market
}

// loadBalance reloads a user's balance
func loadBalance(t *testing.T, db *gorm.DB, id uint) int64 {
	t.Helper()
	var user domain.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("load user %d: %v", id, err)
	}
	return user.Balance
}

// fakeNotifier records every event for assertion; safe for concurrent use
// because the real dispatch path may call it from multiple goroutines
type fakeNotifier struct {
	mu       sync.Mutex
	closed   []notify.MarketClosedEvent
	won      []notify.BetWonEvent
	lost     []notify.BetLostEvent
	refunded []notify.BetRefundedEvent
}

func (f *fakeNotifier) MarketClosed(e notify.MarketClosedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, e)
}

func (f *fakeNotifier) BetWon(e notify.BetWonEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.won = append(f.won, e)
}

func (f *fakeNotifier) BetLost(e notify.BetLostEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lost = append(f.lost, e)
}

func (f *fakeNotifier) BetRefunded(e notify.BetRefundedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunded = append(f.refunded, e)
}

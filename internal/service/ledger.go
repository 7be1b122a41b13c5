package service

import (
	"errors" // Sentinel error checks

	"gam_market/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Ledger records individual stakes against markets. Every placement is one
// transaction: debit, bet insert and pool increment commit together or not
// at all.
type Ledger struct {
	db *gorm.DB // Database handle
}

// NewLedger creates a Ledger on the given database
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// PlaceBetResult is the snapshot returned after a successful placement
type PlaceBetResult struct {
	Balance int64         `json:"balance"` // User balance after the debit
	Market  domain.Market `json:"market"`  // Market with updated volumes
}

// PlaceBet stakes amount GAM on one side of a market.
//
// Preconditions are checked inside the transaction against current rows:
// the market must be active, the balance sufficient, and the user must not
// already hold a bet on this market. The unique index on (user_id,
// market_id) backstops the duplicate check, and the volume increment is
// conditional on status so a concurrent close or resolve can never race a
// stake into a retired market.
func (l *Ledger) PlaceBet(userID, marketID uint, choice string, amount int64) (*PlaceBetResult, error) {
	// Validation failures never touch the database
	if !domain.ValidChoice(choice) {
		return nil, domain.ErrInvalidChoice
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	var result PlaceBetResult
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var market domain.Market
		// Market must exist
		if err := tx.First(&market, marketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrMarketNotFound
			}
			return err
		}
		// And still accept bets
		if market.Status != domain.MarketActive {
			return domain.ErrMarketClosed
		}
		// One bet per user per market
		var existing domain.Bet
		err := tx.Where("user_id = ? AND market_id = ?", userID, marketID).First(&existing).Error
		if err == nil {
			return domain.ErrDuplicateBet
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		var user domain.User
		// User must exist
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		// And afford the stake
		if user.Balance < amount {
			return domain.ErrInsufficientBalance
		}
		// Conditional debit: the balance guard is re-evaluated by the
		// database so a concurrent debit cannot overdraw the account
		res := tx.Model(&domain.User{}).
			Where("id = ? AND balance >= ?", userID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInsufficientBalance
		}
		bet := domain.Bet{
			UserID:   userID,   // Bettor
			MarketID: marketID, // Target market
			Choice:   choice,   // Yes or No
			Amount:   amount,   // Stake in GAM
		}
		// The unique index closes the race between two concurrent
		// first-bets by the same user
		if err := tx.Create(&bet).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrDuplicateBet
			}
			return err
		}
		volumeCol := "yes_volume" // Column matching the chosen side
		if choice == domain.ChoiceNo {
			volumeCol = "no_volume"
		}
		// Increment pool counters only while the market is still active;
		// zero rows means a close or resolve won the race
		res = tx.Model(&domain.Market{}).
			Where("id = ? AND status = ?", marketID, domain.MarketActive).
			Updates(map[string]any{
				"total_volume": gorm.Expr("total_volume + ?", amount),
				volumeCol:      gorm.Expr(volumeCol+" + ?", amount),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrMarketClosed
		}
		// Reload the rows for the response snapshot
		if err := tx.First(&market, marketID).Error; err != nil {
			return err
		}
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		result.Balance = user.Balance // Balance after the debit
		result.Market = market        // Market with updated volumes
		return nil                    // Commit transaction
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":   userID,   // Bettor
		"market_id": marketID, // Target market
		"choice":    choice,   // Chosen side
		"amount":    amount,   // Stake in GAM
	}).Info("Bet placed")
	return &result, nil
}

// BetsForUser returns all bets placed by one user, newest first
func (l *Ledger) BetsForUser(userID uint) ([]domain.Bet, error) {
	var bets []domain.Bet
	if err := l.db.Where("user_id = ?", userID).Order("created_at desc").Find(&bets).Error; err != nil {
		return nil, err
	}
	return bets, nil
}

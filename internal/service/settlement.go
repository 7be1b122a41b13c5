package service

import (
	"errors" // Sentinel error checks
	"math"   // Floor for the reward pool
	"time"   // Decision timestamps

	"gam_market/internal/domain" // Importing domain models
	"gam_market/internal/notify" // Notification collaborator

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Settlement resolves closed markets exactly once and disburses the pool.
//
// Payout policy: on a Yes/No result the reward pool is
// floor(totalPool * (1 - houseEdge)) split among winners in proportion to
// their stakes with floor division; the remainder lost to rounding is not
// redistributed. On Draw/Cancelled every stake is refunded in full with no
// edge taken. If nobody bet on the winning side the pool is forfeited to
// the house: no credits are issued. Both lossy behaviors are deliberate
// product policy, not accounting bugs.
type Settlement struct {
	db        *gorm.DB        // Database handle
	notifier  notify.Notifier // Post-commit event sink
	houseEdge float64         // Fraction of the pool kept on Yes/No payouts
	now       func() time.Time // Injected clock (time.Now in production)
}

// NewSettlement creates a Settlement engine. A nil clock defaults to time.Now.
func NewSettlement(db *gorm.DB, notifier notify.Notifier, houseEdge float64, now func() time.Time) *Settlement {
	if now == nil {
		now = time.Now
	}
	return &Settlement{db: db, notifier: notifier, houseEdge: houseEdge, now: now}
}

// ResolveResult summarizes a successful settlement
type ResolveResult struct {
	Result        string `json:"result"`         // The fixed outcome
	RewardedCount int    `json:"rewarded_count"` // Ledger entries written
}

// Resolve fixes a market's outcome and pays out its pool.
//
// The whole operation is one transaction; the final conditional
// UPDATE ... WHERE result IS NULL is the exactly-once guard, so if two
// resolves race, the loser's credits and ledger rows roll back with it.
// Notifications go out only after the commit and cannot undo it.
func (s *Settlement) Resolve(marketID uint, result, reason string, operatorID uint) (*ResolveResult, error) {
	// Malformed outcomes never touch the database
	if !domain.ValidResult(result) {
		return nil, domain.ErrInvalidResult
	}
	var (
		rewarded int                        // Ledger entries written
		won      []notify.BetWonEvent       // Queued winner notifications
		lost     []notify.BetLostEvent      // Queued loser notifications
		refunded []notify.BetRefundedEvent  // Queued refund notifications
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Reset queues in case the closure is re-entered
		rewarded, won, lost, refunded = 0, nil, nil, nil
		var market domain.Market
		// Market must exist
		if err := tx.First(&market, marketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrMarketNotFound
			}
			return err
		}
		// Fast path: result is write-once
		if market.Result != nil {
			return domain.ErrAlreadyResolved
		}
		var bets []domain.Bet
		// Load every stake on the market
		if err := tx.Where("market_id = ?", marketID).Order("id").Find(&bets).Error; err != nil {
			return err
		}
		switch result {
		case domain.ResultYes, domain.ResultNo:
			var totalPool, winningPool int64
			for _, bet := range bets {
				totalPool += bet.Amount
				if bet.Choice == result {
					winningPool += bet.Amount
				}
			}
			if winningPool > 0 {
				// House edge comes off the top, then winners split
				// proportionally; floor division both times
				rewardPool := int64(math.Floor(float64(totalPool) * (1 - s.houseEdge)))
				for _, bet := range bets {
					if bet.Choice != result {
						lost = append(lost, notify.BetLostEvent{
							UserID:   bet.UserID,   // Losing user
							MarketID: marketID,     // Resolved market
							Stake:    bet.Amount,   // Forfeited stake
							Reason:   reason,       // Operator's reason
						})
						continue // Losers keep nothing
					}
					reward := bet.Amount * rewardPool / winningPool // Floor division
					if err := creditAndRecord(tx, bet, reward); err != nil {
						return err
					}
					rewarded++
					won = append(won, notify.BetWonEvent{
						UserID:   bet.UserID, // Winning user
						MarketID: marketID,   // Resolved market
						Stake:    bet.Amount, // Original stake
						Reward:   reward,     // Credited payout
					})
				}
			} else {
				// Nobody picked the winning side: the pool is forfeited.
				// Every bettor is notified as a loser; no credits.
				for _, bet := range bets {
					lost = append(lost, notify.BetLostEvent{
						UserID:   bet.UserID, // Losing user
						MarketID: marketID,   // Resolved market
						Stake:    bet.Amount, // Forfeited stake
						Reason:   reason,     // Operator's reason
					})
				}
			}
		case domain.ResultDraw, domain.ResultCancelled:
			// Full refund of the original stake, no edge taken
			for _, bet := range bets {
				if err := creditAndRecord(tx, bet, bet.Amount); err != nil {
					return err
				}
				rewarded++
				refunded = append(refunded, notify.BetRefundedEvent{
					UserID:   bet.UserID, // Refunded user
					MarketID: marketID,   // Resolved market
					Amount:   bet.Amount, // Refunded stake
				})
			}
		}
		decidedAt := s.now() // Resolution timestamp
		// Exactly-once commit guard: only the transaction that flips the
		// null result wins; a racing resolve sees zero rows and rolls
		// back everything above
		res := tx.Model(&domain.Market{}).
			Where("id = ? AND result IS NULL", marketID).
			Updates(map[string]any{
				"status":          domain.MarketResolved,
				"result":          result,
				"decided_by":      operatorID,
				"decided_at":      decidedAt,
				"decision_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadyResolved
		}
		return nil // Commit transaction
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"market_id":   marketID,   // Resolved market
		"result":      result,     // Fixed outcome
		"operator_id": operatorID, // Resolving operator
		"rewarded":    rewarded,   // Ledger entries written
	}).Info("Market resolved")
	// Fire-and-forget, post-commit only; a delivery failure cannot undo
	// the settlement
	for _, e := range won {
		s.notifier.BetWon(e)
	}
	for _, e := range lost {
		s.notifier.BetLost(e)
	}
	for _, e := range refunded {
		s.notifier.BetRefunded(e)
	}
	return &ResolveResult{Result: result, RewardedCount: rewarded}, nil
}

// creditAndRecord credits one user's balance and appends the matching
// reward-ledger row inside the caller's transaction
func creditAndRecord(tx *gorm.DB, bet domain.Bet, amount int64) error {
	res := tx.Model(&domain.User{}).
		Where("id = ?", bet.UserID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	entry := domain.RewardLedgerEntry{
		UserID:       bet.UserID,   // Credited user
		MarketID:     bet.MarketID, // Resolved market
		BetID:        bet.ID,       // Originating bet
		RewardAmount: amount,       // Credited GAM
	}
	return tx.Create(&entry).Error
}

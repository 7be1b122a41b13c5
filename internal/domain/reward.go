package domain

import "time"

// RewardLedgerEntry Model
// Append-only audit of every credit issued by settlement (win payout or
// draw/cancel refund). Exactly one entry per bet per market, never updated.
type RewardLedgerEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`            // Primary key
	UserID       uint      `gorm:"not null;index" json:"user_id"`   // Foreign key to User
	MarketID     uint      `gorm:"not null;index" json:"market_id"` // Foreign key to Market
	BetID        uint      `gorm:"not null" json:"bet_id"`          // Foreign key to Bet
	RewardAmount int64     `gorm:"not null" json:"reward_amount"`   // Credited GAM, >= 0
	CreatedAt    time.Time `json:"created_at"`                      // Timestamp of creation
}

// TableName keeps the table name singular-free and explicit
func (RewardLedgerEntry) TableName() string {
	return "reward_ledger"
}

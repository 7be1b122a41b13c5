package domain

import "time"

// Bet choice values
const (
	ChoiceYes = "Yes" // Stake on the Yes side
	ChoiceNo  = "No"  // Stake on the No side
)

// Bet Model
// A user may hold at most one bet per market; the composite unique index
// closes the race between two concurrent first-bets by the same user.
type Bet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                    // Primary key
	UserID    uint      `gorm:"not null;uniqueIndex:idx_bets_user_market" json:"user_id"`   // Foreign key to User
	MarketID  uint      `gorm:"not null;uniqueIndex:idx_bets_user_market" json:"market_id"` // Foreign key to Market
	Choice    string    `gorm:"not null" json:"choice"`                                  // Yes or No
	Amount    int64     `gorm:"not null" json:"amount"`                                  // Stake in GAM, always > 0
	CreatedAt time.Time `json:"created_at"`                                              // Timestamp of creation
}

// ValidChoice reports whether c is Yes or No
func ValidChoice(c string) bool {
	return c == ChoiceYes || c == ChoiceNo
}

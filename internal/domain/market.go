package domain

import "time"

// Market status values (monotonic: active -> closed -> resolved)
const (
	MarketActive   = "active"   // Accepting bets
	MarketClosed   = "closed"   // Deadline passed, awaiting resolution
	MarketResolved = "resolved" // Outcome fixed, pool disbursed; terminal
)

// Market result values (write-once, null until resolved)
const (
	ResultYes       = "Yes"       // Yes side wins
	ResultNo        = "No"        // No side wins
	ResultDraw      = "Draw"      // Full refund, no winner
	ResultCancelled = "Cancelled" // Full refund, market voided
)

// Market Model
type Market struct {
	ID             uint       `gorm:"primaryKey" json:"id"`                         // Primary key
	Title          string     `gorm:"not null" json:"title"`                        // Yes/No question text
	Category       string     `gorm:"index" json:"category"`                        // Free-form category tag
	EndDate        time.Time  `gorm:"not null" json:"end_date"`                     // Betting deadline
	YesPrice       int        `gorm:"not null;default:50" json:"yes_price"`         // Display odds, 0-100
	TotalVolume    int64      `gorm:"not null;default:0" json:"total_volume"`       // Sum of all stakes (GAM)
	YesVolume      int64      `gorm:"not null;default:0" json:"yes_volume"`         // Sum of Yes stakes
	NoVolume       int64      `gorm:"not null;default:0" json:"no_volume"`          // Sum of No stakes
	Status         string     `gorm:"not null;default:active;index" json:"status"`  // active, closed or resolved
	Result         *string    `json:"result"`                                       // Null until resolved, then write-once
	DecidedBy      *uint      `json:"decided_by,omitempty"`                         // Operator who resolved
	DecidedAt      *time.Time `json:"decided_at,omitempty"`                         // Resolution timestamp
	DecisionReason string     `json:"decision_reason,omitempty"`                    // Operator-supplied reason
	CreatedAt      time.Time  `json:"created_at"`                                   // Timestamp of creation
	UpdatedAt      time.Time  `json:"updated_at"`                                   // Timestamp of last update
}

// ValidResult reports whether r is one of the four accepted outcomes
func ValidResult(r string) bool {
	return r == ResultYes || r == ResultNo || r == ResultDraw || r == ResultCancelled
}

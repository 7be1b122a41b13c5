package domain

// User Model
// Balance holds the user's GAM points. Within the engine it is mutated only
// by the Bet Ledger (debit at placement) and the Settlement Engine (credit at
// resolution); the admin grant endpoint is the sole operational exception.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`              // Primary key
	Username string `gorm:"unique;not null" json:"username"`   // Unique username
	Password string `gorm:"not null" json:"-"`                 // Hashed password
	Role     string `gorm:"default:user" json:"role"`          // Role: user or admin
	Balance  int64  `gorm:"not null;default:0" json:"balance"` // GAM point balance
}

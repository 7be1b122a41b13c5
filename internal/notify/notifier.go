package notify

import (
	"fmt" // Message formatting

	"github.com/sirupsen/logrus" // Logging library
)

// Event payloads produced by the engine after a transaction commits.
type MarketClosedEvent struct {
	MarketID uint   // Market that was closed
	Title    string // Market question text
	BettorID uint   // User holding a bet on the market
}

// BetWonEvent is emitted once per winning bet at settlement
type BetWonEvent struct {
	UserID   uint  // Winning user
	MarketID uint  // Resolved market
	Stake    int64 // Original stake
	Reward   int64 // Credited payout
}

// BetLostEvent is emitted once per losing bet at settlement
type BetLostEvent struct {
	UserID   uint   // Losing user
	MarketID uint   // Resolved market
	Stake    int64  // Forfeited stake
	Reason   string // Operator's decision reason
}

// BetRefundedEvent is emitted once per bet on a Draw/Cancelled market
type BetRefundedEvent struct {
	UserID   uint  // Refunded user
	MarketID uint  // Resolved market
	Amount   int64 // Refunded stake
}

// Notifier is the collaborator the engine calls after commit. Calls are
// fire-and-forget: implementations must never block settlement or surface
// delivery errors back to the caller.
type Notifier interface {
	MarketClosed(e MarketClosedEvent)
	BetWon(e BetWonEvent)
	BetLost(e BetLostEvent)
	BetRefunded(e BetRefundedEvent)
}

// Sender is one delivery channel (log line, Telegram chat, ...)
type Sender interface {
	Send(title, message string) error // Deliver one notification
	Name() string                     // Channel identifier for logging
}

// Service fans events out to all configured senders. Each dispatch runs on
// its own goroutine so a slow channel never holds up the request path; a
// failed sender is logged and the rest still deliver.
type Service struct {
	senders []Sender // Configured delivery channels
}

// NewService creates a Service delivering to the given senders
func NewService(senders ...Sender) *Service {
	return &Service{senders: senders}
}

// MarketClosed notifies one bettor that a market stopped accepting bets
func (s *Service) MarketClosed(e MarketClosedEvent) {
	s.dispatch("Market closed",
		fmt.Sprintf("Market #%d (%s) is closed for betting (user %d)", e.MarketID, e.Title, e.BettorID))
}

// BetWon notifies a winner of their payout
func (s *Service) BetWon(e BetWonEvent) {
	s.dispatch("Bet won",
		fmt.Sprintf("User %d won %d GAM on market #%d (stake %d)", e.UserID, e.Reward, e.MarketID, e.Stake))
}

// BetLost notifies a loser that their stake is gone
func (s *Service) BetLost(e BetLostEvent) {
	s.dispatch("Bet lost",
		fmt.Sprintf("User %d lost %d GAM on market #%d: %s", e.UserID, e.Stake, e.MarketID, e.Reason))
}

// BetRefunded notifies a bettor of a draw/cancel refund
func (s *Service) BetRefunded(e BetRefundedEvent) {
	s.dispatch("Bet refunded",
		fmt.Sprintf("User %d was refunded %d GAM on market #%d", e.UserID, e.Amount, e.MarketID))
}

// dispatch delivers to every sender on its own goroutine. Errors are logged
// and swallowed: notification failure must never roll back a settlement.
func (s *Service) dispatch(title, message string) {
	for _, sender := range s.senders {
		go func(sn Sender) {
			if err := sn.Send(title, message); err != nil {
				logrus.WithFields(logrus.Fields{
					"sender": sn.Name(),   // Failing channel
					"title":  title,       // Notification title
					"error":  err.Error(), // Delivery error
				}).Warn("Notification delivery failed")
			}
		}(sender)
	}
}

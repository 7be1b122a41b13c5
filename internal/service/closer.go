package service

import (
	"sync" // Guarding the running flag
	"time" // Ticker and clock

	"gam_market/internal/domain" // Importing domain models
	"gam_market/internal/notify" // Notification collaborator

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Closer sweeps expired, still-active markets into the closed state on a
// fixed interval. It runs on its own goroutine, never on the request path,
// and each market is an independently committed unit of work: one market
// failing or contending never stalls the rest of the sweep.
type Closer struct {
	db       *gorm.DB        // Database handle
	notifier notify.Notifier // Post-commit event sink
	interval time.Duration   // Sweep interval
	now      func() time.Time // Injected clock (time.Now in production)

	mu      sync.Mutex    // Guards running and stop
	running bool          // Whether the ticker goroutine is live
	stop    chan struct{} // Closed to end the ticker goroutine
}

// NewCloser creates a Closer. A nil clock defaults to time.Now.
func NewCloser(db *gorm.DB, notifier notify.Notifier, interval time.Duration, now func() time.Time) *Closer {
	if now == nil {
		now = time.Now
	}
	return &Closer{db: db, notifier: notifier, interval: interval, now: now}
}

// Start launches the periodic sweep; calling it twice is a no-op
func (c *Closer) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return // Already sweeping
	}
	c.running = true
	c.stop = make(chan struct{})
	go c.loop(c.stop) // Sweep off the request path
	logrus.WithFields(logrus.Fields{
		"interval": c.interval.String(), // Sweep interval
	}).Info("Closer started")
}

// Stop ends the periodic sweep; calling it twice is a no-op
func (c *Closer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return // Not running
	}
	close(c.stop)
	c.running = false
	logrus.Info("Closer stopped")
}

// Status reports whether the periodic sweep is running
func (c *Closer) Status() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// loop ticks until stop is closed
func (c *Closer) loop(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := c.RunOnce(); err != nil {
				// Only the expiry query itself can fail the tick;
				// per-market errors are already swallowed below
				logrus.WithFields(logrus.Fields{
					"error": err.Error(), // Sweep error
				}).Warn("Closer sweep failed")
			}
		case <-stop:
			return
		}
	}
}

// RunOnce performs one sweep and returns how many markets it closed. It is
// also wired to the admin "run now" endpoint, so it must be safe to invoke
// concurrently with the scheduled tick: the conditional status flip makes
// each close idempotent.
func (c *Closer) RunOnce() (int, error) {
	var expired []domain.Market
	// Every active market whose deadline has passed
	if err := c.db.Where("status = ? AND end_date < ?", domain.MarketActive, c.now()).
		Find(&expired).Error; err != nil {
		return 0, err
	}
	closed := 0 // Markets closed this sweep
	for _, market := range expired {
		ok, err := c.closeOne(market.ID)
		if err != nil {
			// Best-effort batch: log and move on, the market stays
			// active and the next tick retries it
			logrus.WithFields(logrus.Fields{
				"market_id": market.ID,   // Failing market
				"error":     err.Error(), // Per-market error
			}).Warn("Failed to close market")
			continue
		}
		if !ok {
			continue // Another actor already moved the market
		}
		closed++
		logrus.WithFields(logrus.Fields{
			"market_id": market.ID,      // Closed market
			"title":     market.Title,   // Question text
			"end_date":  market.EndDate, // Elapsed deadline
		}).Info("Market closed")
		c.notifyBettors(market) // Post-commit, fire-and-forget
	}
	return closed, nil
}

// closeOne attempts the conditional active->closed transition. A single
// UPDATE is its own transaction; zero affected rows means a concurrent
// close or resolve got there first.
func (c *Closer) closeOne(marketID uint) (bool, error) {
	res := c.db.Model(&domain.Market{}).
		Where("id = ? AND status = ?", marketID, domain.MarketActive).
		Update("status", domain.MarketClosed)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// notifyBettors emits one MarketClosed event per bettor on the market
func (c *Closer) notifyBettors(market domain.Market) {
	var bettorIDs []uint
	// New bets cannot arrive once the status flip committed, so this
	// read outside the transition is stable
	if err := c.db.Model(&domain.Bet{}).
		Where("market_id = ?", market.ID).
		Distinct().
		Pluck("user_id", &bettorIDs).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"market_id": market.ID,   // Closed market
			"error":     err.Error(), // Lookup error
		}).Warn("Failed to load bettors for close notification")
		return
	}
	for _, bettorID := range bettorIDs {
		c.notifier.MarketClosed(notify.MarketClosedEvent{
			MarketID: market.ID,    // Closed market
			Title:    market.Title, // Question text
			BettorID: bettorID,     // Bettor to notify
		})
	}
}

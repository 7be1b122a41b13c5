package service

import (
	"errors"
	"testing"
	"time"

	"gam_market/internal/domain"
)

func TestResolveYesPaysWinnersNetOfEdge(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	notifier := &fakeNotifier{}
	settlement := NewSettlement(db, notifier, 0.05, fixedClock(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)))
	operator := createUser(t, db, "operator", 0)
	alice := createUser(t, db, "alice", 1000)
	bob := createUser(t, db, "bob", 1000)
	carol := createUser(t, db, "carol", 1000)
	marketID := createMarket(t, db, "q", time.Now().Add(time.Hour))
	mustBet(t, ledger, alice, marketID, domain.ChoiceYes, 100)
	mustBet(t, ledger, bob, marketID, domain.ChoiceYes, 100)
	mustBet(t, ledger, carol, marketID, domain.ChoiceNo, 200)

	result, err := settlement.Resolve(marketID, domain.ResultYes, "yes it happened", operator)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.Result != domain.ResultYes {
		t.Errorf("result = %s, want Yes", result.Result)
	}
	if result.RewardedCount != 2 {
		t.Errorf("rewarded count = %d, want 2", result.RewardedCount)
	}

	// rewardPool = floor(400 * 0.95) = 380; each winner floor(100/200*380) = 190
	if got := loadBalance(t, db, alice); got != 900+190 {
		t.Errorf("alice balance = %d, want 1090", got)
	}
	if got := loadBalance(t, db, bob); got != 900+190 {
		t.Errorf("bob balance = %d, want 1090", got)
	}
	if got := loadBalance(t, db, carol); got != 800 {
		t.Errorf("carol balance = %d, want 800 (loser keeps nothing)", got)
	}

	var rewardSum int64
	db.Model(&domain.RewardLedgerEntry{}).Where("market_id = ?", marketID).
		Select("COALESCE(SUM(reward_amount), 0)").Scan(&rewardSum)
	if rewardSum != 380 {
		t.Errorf("ledger sum = %d, want 380", rewardSum)
	}

	market := loadMarket(t, db, marketID)
	if market.Status != domain.MarketResolved {
		t.Errorf("status = %s, want resolved", market.Status)
	}
	if market.Result == nil || *market.Result != domain.ResultYes {
		t.Errorf("result = %v, want Yes", market.Result)
	}
	if market.DecidedBy == nil || *market.DecidedBy != operator {
		t.Errorf("decided_by = %v, want %d", market.DecidedBy, operator)
	}
	if market.DecidedAt == nil {
		t.Error("decided_at not set")
	}
	if market.DecisionReason != "yes it happened" {
		t.Errorf("decision_reason = %q", market.DecisionReason)
	}

	if len(notifier.won) != 2 {
		t.Errorf("won events = %d, want 2", len(notifier.won))
	}
	if len(notifier.lost) != 1 {
		t.Errorf("lost events = %d, want 1", len(notifier.lost))
	}
	if len(notifier.refunded) != 0 {
		t.Errorf("refunded events = %d, want 0", len(notifier.refunded))
	}
}

func TestResolveDrawRefundsEveryStake(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	notifier := &fakeNotifier{}
	settlement := NewSettlement(db, notifier, 0.05, nil)
	operator := createUser(t, db, "operator", 0)
	alice := createUser(t, db, "alice", 1000)
	bob := createUser(t, db, "bob", 1000)
	carol := createUser(t, db, "carol", 1000)
	marketID := createMarket(t, db, "q", time.Now().Add(time.Hour))
	mustBet(t, ledger, alice, marketID, domain.ChoiceYes, 100)
	mustBet(t, ledger, bob, marketID, domain.ChoiceYes, 100)
	mustBet(t, ledger, carol, marketID, domain.ChoiceNo, 200)

	result, err := settlement.Resolve(marketID, domain.ResultDraw, "tie", operator)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.RewardedCount != 3 {
		t.Errorf("rewarded count = %d, want 3", result.RewardedCount)
	}

	// Full refund, no edge: everyone back to their starting balance
	for _, id := range []uint{alice, bob, carol} {
		if got := loadBalance(t, db, id); got != 1000 {
			t.Errorf("user %d balance = %d, want 1000", id, got)
		}
	}
	var rewardSum int64
	db.Model(&domain.RewardLedgerEntry{}).Where("market_id = ?", marketID).
		Select("COALESCE(SUM(reward_amount), 0)").Scan(&rewardSum)
	if rewardSum != 400 {
		t.Errorf("ledger sum = %d, want 400 (exact refund)", rewardSum)
	}
	if len(notifier.refunded) != 3 {
		t.Errorf("refunded events = %d, want 3", len(notifier.refunded))
	}
}

func TestResolveCancelledRefundsLikeDraw(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	settlement := NewSettlement(db, &fakeNotifier{}, 0.10, nil)
	operator := createUser(t, db, "operator", 0)
	alice := createUser(t, db, "alice", 500)
	marketID := createMarket(t, db, "q", time.Now().Add(time.Hour))
	mustBet(t, ledger, alice, marketID, domain.ChoiceNo, 300)

	if _, err := settlement.Resolve(marketID, domain.ResultCancelled, "voided", operator); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Edge is never taken on a cancellation
	if got := loadBalance(t, db, alice); got != 500 {
		t.Errorf("balance = %d, want 500", got)
	}
}

func TestResolveIsExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	settlement := NewSettlement(db, &fakeNotifier{}, 0.05, nil)
	operator := createUser(t, db, "operator", 0)
	alice := createUser(t, db, "alice", 1000)
	marketID := createMarket(t, db, "q", time.Now().Add(time.Hour))
	mustBet(t, ledger, alice, marketID, domain.ChoiceYes, 100)

	if _, err := settlement.Resolve(marketID, domain.ResultYes, "first", operator); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	balanceAfter := loadBalance(t, db, alice)
	var entriesAfter int64
	db.Model(&domain.RewardLedgerEntry{}).Count(&entriesAfter)

	// A second resolve, even with a different outcome, must change nothing
	_, err := settlement.Resolve(marketID, domain.ResultNo, "second", operator)
	if !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if got := loadBalance(t, db, alice); got != balanceAfter {
		t.Errorf("balance changed on repeat resolve: %d != %d", got, balanceAfter)
	}
	var entriesNow int64
	db.Model(&domain.RewardLedgerEntry{}).Count(&entriesNow)
	if entriesNow != entriesAfter {
		t.Errorf("ledger grew on repeat resolve: %d != %d", entriesNow, entriesAfter)
	}
	market := loadMarket(t, db, marketID)
	if market.Result == nil || *market.Result != domain.ResultYes {
		t.Errorf("result overwritten: %v", market.Result)
	}
}

func TestResolveWithNoWinningSideForfeitsPool(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	notifier := &fakeNotifier{}
	settlement := NewSettlement(db, notifier, 0.05, nil)
	operator := createUser(t, db, "operator", 0)
	alice := createUser(t, db, "alice", 1000)
	bob := createUser(t, db, "bob", 1000)
	marketID := createMarket(t, db, "q", time.Now().Add(time.Hour))
	mustBet(t, ledger, alice, marketID, domain.ChoiceNo, 100)
	mustBet(t, ledger, bob, marketID, domain.ChoiceNo, 50)

	// Nobody bet Yes; resolving Yes forfeits the pool to the house
	result, err := settlement.Resolve(marketID, domain.ResultYes, "upset", operator)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if result.RewardedCount != 0 {
		t.Errorf("rewarded count = %d, want 0", result.RewardedCount)
	}
	if got := loadBalance(t, db, alice); got != 900 {
		t.Errorf("alice balance = %d, want 900 (no refund)", got)
	}
	var entries int64
	db.Model(&domain.RewardLedgerEntry{}).Count(&entries)
	if entries != 0 {
		t.Errorf("ledger entries = %d, want 0", entries)
	}
	market := loadMarket(t, db, marketID)
	if market.Status != domain.MarketResolved {
		t.Errorf("status = %s, want resolved", market.Status)
	}
	if len(notifier.lost) != 2 {
		t.Errorf("lost events = %d, want 2", len(notifier.lost))
	}
}

func TestResolveRoundingDustIsBoundedByWinnerCount(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	settlement := NewSettlement(db, &fakeNotifier{}, 0.05, nil)
	operator := createUser(t, db, "operator", 0)
	users := make([]uint, 4)
	for i, name := range []string{"a", "b", "c", "d"} {
		users[i] = createUser(t, db, name, 100)
	}
	marketID := createMarket(t, db, "q", time.Now().Add(time.Hour))
	// Three winners staking 1 each, one loser staking 2:
	// totalPool=5, rewardPool=floor(5*0.95)=4, each winner floor(1/3*4)=1
	mustBet(t, ledger, users[0], marketID, domain.ChoiceYes, 1)
	mustBet(t, ledger, users[1], marketID, domain.ChoiceYes, 1)
	mustBet(t, ledger, users[2], marketID, domain.ChoiceYes, 1)
	mustBet(t, ledger, users[3], marketID, domain.ChoiceNo, 2)

	if _, err := settlement.Resolve(marketID, domain.ResultYes, "r", operator); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	var rewardSum int64
	db.Model(&domain.RewardLedgerEntry{}).Where("market_id = ?", marketID).
		Select("COALESCE(SUM(reward_amount), 0)").Scan(&rewardSum)
	rewardPool := int64(4)
	if rewardSum > rewardPool {
		t.Errorf("paid %d, more than the reward pool %d", rewardSum, rewardPool)
	}
	// The dust lost to floor division stays below the winner count
	if dust := rewardPool - rewardSum; dust >= 3 {
		t.Errorf("dust = %d, want < 3", dust)
	}
}

func TestResolveValidation(t *testing.T) {
	db := newTestDB(t)
	settlement := NewSettlement(db, &fakeNotifier{}, 0.05, nil)
	operator := createUser(t, db, "operator", 0)
	marketID := createMarket(t, db, "q", time.Now().Add(time.Hour))

	if _, err := settlement.Resolve(marketID, "Maybe", "r", operator); !errors.Is(err, domain.ErrInvalidResult) {
		t.Errorf("expected ErrInvalidResult, got %v", err)
	}
	market := loadMarket(t, db, marketID)
	if market.Status != domain.MarketActive {
		t.Errorf("status changed on invalid result: %s", market.Status)
	}

	if _, err := settlement.Resolve(999, domain.ResultYes, "r", operator); !errors.Is(err, domain.ErrMarketNotFound) {
		t.Errorf("expected ErrMarketNotFound, got %v", err)
	}
}

func TestResolveDirectlyFromActive(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedger(db)
	settlement := NewSettlement(db, &fakeNotifier{}, 0.05, nil)
	operator := createUser(t, db, "operator", 0)
	alice := createUser(t, db, "alice", 1000)
	marketID := createMarket(t, db, "q", time.Now().Add(time.Hour))
	mustBet(t, ledger, alice, marketID, domain.ChoiceYes, 100)

	// Skipping the closed state is legal: active -> resolved directly
	if _, err := settlement.Resolve(marketID, domain.ResultYes, "early", operator); err != nil {
		t.Fatalf("resolve from active: %v", err)
	}
	// And the resolved market no longer accepts bets
	bob := createUser(t, db, "bob", 1000)
	if _, err := ledger.PlaceBet(bob, marketID, domain.ChoiceYes, 50); !errors.Is(err, domain.ErrMarketClosed) {
		t.Errorf("expected ErrMarketClosed after resolve, got %v", err)
	}
}

// mustBet places a bet or fails the test
func mustBet(t *testing.T, ledger *Ledger, userID, marketID uint, choice string, amount int64) {
	t.Helper()
	if _, err := ledger.PlaceBet(userID, marketID, choice, amount); err != nil {
		t.Fatalf("place bet (user %d, %s %d): %v", userID, choice, amount, err)
	}
}

package service

import (
	"errors"
	"testing"
	"time"

	"gam_market/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRegistryCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	registry := NewRegistry(db, fixedClock(now))

	market, err := registry.Create("Will it rain tomorrow?", "weather", now.Add(24*time.Hour), 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if market.Status != domain.MarketActive {
		t.Errorf("expected status active, got %s", market.Status)
	}
	if market.TotalVolume != 0 || market.YesVolume != 0 || market.NoVolume != 0 {
		t.Errorf("expected zero volumes, got %d/%d/%d", market.TotalVolume, market.YesVolume, market.NoVolume)
	}
	if market.Result != nil {
		t.Errorf("expected nil result, got %v", *market.Result)
	}

	got, err := registry.Get(market.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Will it rain tomorrow?" {
		t.Errorf("unexpected title %q", got.Title)
	}
}

func TestRegistryCreateValidation(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	registry := NewRegistry(db, fixedClock(now))

	cases := []struct {
		name     string
		title    string
		endDate  time.Time
		yesPrice int
	}{
		{"empty title", "", now.Add(time.Hour), 50},
		{"past deadline", "q", now.Add(-time.Hour), 50},
		{"deadline is now", "q", now, 50},
		{"zero deadline", "q", time.Time{}, 50},
		{"price too high", "q", now.Add(time.Hour), 101},
		{"negative price", "q", now.Add(time.Hour), -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := registry.Create(tc.title, "", tc.endDate, tc.yesPrice); !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	var count int64
	db.Model(&domain.Market{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no markets persisted, got %d", count)
	}
}

func TestRegistryGetNotFound(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db, nil)

	if _, err := registry.Get(999); !errors.Is(err, domain.ErrMarketNotFound) {
		t.Errorf("expected ErrMarketNotFound, got %v", err)
	}
}

func TestRegistryListFilters(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	registry := NewRegistry(db, fixedClock(now))

	if _, err := registry.Create("a", "sports", now.Add(time.Hour), 50); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := registry.Create("b", "sports", now.Add(2*time.Hour), 50); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := registry.Create("c", "weather", now.Add(3*time.Hour), 50); err != nil {
		t.Fatalf("create: %v", err)
	}

	markets, total, err := registry.List(MarketFilter{Category: "sports"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(markets) != 2 {
		t.Errorf("expected 2 sports markets, got total=%d len=%d", total, len(markets))
	}

	markets, total, err = registry.List(MarketFilter{Status: domain.MarketActive, Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if len(markets) != 2 {
		t.Errorf("expected page of 2, got %d", len(markets))
	}
	// Ordered by end_date ascending
	if markets[0].Title != "a" || markets[1].Title != "b" {
		t.Errorf("unexpected order: %s, %s", markets[0].Title, markets[1].Title)
	}
}

// Copyright (c) 2025 BVK Chaitanya

package feed

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bvk/lpbot/lpapi"
	"github.com/bvk/lpbot/statechain"
	"github.com/bvk/lpbot/venue"
)

var (
	testETH  = venue.Asset{Chain: "Ethereum", Symbol: "ETH"}
	testUSDC = venue.Asset{Chain: "Ethereum", Symbol: "USDC"}
)

func testSwap(id uint64, side venue.Side, amount int64) statechain.ScheduledSwap {
	return statechain.ScheduledSwap{
		SwapID:     id,
		BaseAsset:  testETH,
		QuoteAsset: testUSDC,
		Side:       side,
		Amount:     venue.NewAmount(decimal.NewFromInt(amount)),
	}
}

func TestDedupSwaps(t *testing.T) {
	seenMap := make(map[uint64]struct{})

	first := &statechain.SwapsUpdate{
		Swaps: []statechain.ScheduledSwap{
			testSwap(1, venue.SideBuy, 500000),
			testSwap(2, venue.SideSell, 250000),
		},
	}
	events := dedupSwaps(seenMap, first)
	if len(events) != 2 {
		t.Fatalf("want 2 events, got %d", len(events))
	}
	if events[0].SwapID != 1 || events[1].SwapID != 2 {
		t.Fatalf("unexpected swap ids: %v", events)
	}

	// Swap 1 is still scheduled and gets resent along with a new swap. Only
	// the new swap must come through.
	second := &statechain.SwapsUpdate{
		Swaps: []statechain.ScheduledSwap{
			testSwap(1, venue.SideBuy, 500000),
			testSwap(3, venue.SideBuy, 100000),
		},
	}
	events = dedupSwaps(seenMap, second)
	if len(events) != 1 {
		t.Fatalf("want 1 event, got %d", len(events))
	}
	if events[0].SwapID != 3 {
		t.Fatalf("want swap id 3, got %d", events[0].SwapID)
	}

	// A full redelivery after reconnect produces nothing.
	if events := dedupSwaps(seenMap, second); len(events) != 0 {
		t.Fatalf("want no events, got %v", events)
	}
}

func testFill(lp string, id venue.OrderID) lpapi.Fill {
	return lpapi.Fill{
		LimitOrder: &lpapi.LimitOrderFill{
			LP:         lp,
			BaseAsset:  testETH,
			QuoteAsset: testUSDC,
			Side:       venue.SideSell,
			ID:         id,
			Sold:       venue.NewAmount(decimal.NewFromInt(500000)),
			Bought:     venue.NewAmount(decimal.NewFromInt(500000)),
		},
	}
}

func TestFilterFills(t *testing.T) {
	update := &lpapi.FillsUpdate{
		Fills: []lpapi.Fill{
			testFill("ourAccount", 4821),
			testFill("someoneElse", 999),
			{RangeOrder: []byte(`{"lp": "ourAccount", "id": "0x1"}`)},
		},
	}

	events := filterFills("ourAccount", update)
	if len(events) != 1 {
		t.Fatalf("want 1 event, got %d", len(events))
	}
	if events[0].OrderID != 4821 {
		t.Fatalf("want order id 4821, got %d", events[0].OrderID)
	}
	if events[0].LP != "ourAccount" {
		t.Fatalf("want our account, got %q", events[0].LP)
	}
}

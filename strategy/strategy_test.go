// Copyright (c) 2025 BVK Chaitanya

package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bvk/lpbot/venue"
)

func TestDecide(t *testing.T) {
	btcUSDC := venue.AssetPair{
		Base:  venue.Asset{Chain: "Bitcoin", Symbol: "BTC"},
		Quote: venue.Asset{Chain: "Ethereum", Symbol: "USDC"},
	}
	ethUSDC := venue.AssetPair{
		Base:  venue.Asset{Chain: "Ethereum", Symbol: "ETH"},
		Quote: venue.Asset{Chain: "Ethereum", Symbol: "USDC"},
	}
	s := New([]venue.AssetPair{btcUSDC})

	tests := []struct {
		name string

		event venue.SwapEvent

		wantTrade bool
		wantSide  venue.Side
	}{
		{
			name: "taker-sell-becomes-buy",
			event: venue.SwapEvent{
				SwapID:     1,
				BaseAsset:  btcUSDC.Base,
				QuoteAsset: btcUSDC.Quote,
				Side:       venue.SideSell,
				Amount:     decimal.NewFromInt(500000),
			},
			wantTrade: true,
			wantSide:  venue.SideBuy,
		},
		{
			name: "taker-buy-becomes-sell",
			event: venue.SwapEvent{
				SwapID:     2,
				BaseAsset:  btcUSDC.Base,
				QuoteAsset: btcUSDC.Quote,
				Side:       venue.SideBuy,
				Amount:     decimal.NewFromInt(123),
			},
			wantTrade: true,
			wantSide:  venue.SideSell,
		},
		{
			name: "unconfigured-instrument",
			event: venue.SwapEvent{
				SwapID:     3,
				BaseAsset:  ethUSDC.Base,
				QuoteAsset: ethUSDC.Quote,
				Side:       venue.SideSell,
				Amount:     decimal.NewFromInt(500000),
			},
			wantTrade: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			decision := s.Decide(&test.event)
			if !test.wantTrade {
				if decision != nil {
					t.Fatalf("want no decision, got %+v", decision)
				}
				return
			}
			if decision == nil {
				t.Fatalf("want a decision, got nil")
			}
			if decision.Side != test.wantSide {
				t.Fatalf("want side %q, got %q", test.wantSide, decision.Side)
			}
			if !decision.Amount.Equal(test.event.Amount) {
				t.Fatalf("want amount %s, got %s", test.event.Amount, decision.Amount)
			}
			if decision.Tick != nil {
				t.Fatalf("want nil tick, got %d", *decision.Tick)
			}
		})
	}
}

func TestDecideDeterminism(t *testing.T) {
	pair := venue.AssetPair{
		Base:  venue.Asset{Chain: "Bitcoin", Symbol: "BTC"},
		Quote: venue.Asset{Chain: "Ethereum", Symbol: "USDC"},
	}
	s := New([]venue.AssetPair{pair})
	event := venue.SwapEvent{
		SwapID:     1,
		BaseAsset:  pair.Base,
		QuoteAsset: pair.Quote,
		Side:       venue.SideSell,
		Amount:     decimal.NewFromInt(500000),
	}

	first := s.Decide(&event)
	second := s.Decide(&event)
	if first.Side != second.Side || !first.Amount.Equal(second.Amount) {
		t.Fatalf("want identical decisions, got %+v and %+v", first, second)
	}
}

// Copyright (c) 2025 BVK Chaitanya

// Package strategy maps observed swap intents to trade decisions. The policy
// is deliberately minimal: provide liquidity against taker flow by taking the
// opposite side at the venue's prevailing price. There is no independent
// price model.
package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/bvk/lpbot/venue"
)

// Decision describes the resting order to place against one swap intent. A
// nil Tick means the order rests at the venue's current pool price.
type Decision struct {
	Pair venue.AssetPair

	Side venue.Side

	// Amount to offer, passed through unchanged from the swap intent.
	Amount decimal.Decimal

	Tick *int32
}

// Strategy is a pure decision function over a fixed set of configured
// instruments. It holds no mutable state and performs no I/O.
type Strategy struct {
	pairMap map[venue.AssetPair]struct{}
}

func New(pairs []venue.AssetPair) *Strategy {
	pairMap := make(map[venue.AssetPair]struct{})
	for _, pair := range pairs {
		pairMap[pair] = struct{}{}
	}
	return &Strategy{pairMap: pairMap}
}

// Decide returns the trade decision for one swap event. A nil decision means
// no trade: the event's instrument is not configured.
func (s *Strategy) Decide(event *venue.SwapEvent) *Decision {
	pair := event.Pair()
	if _, ok := s.pairMap[pair]; !ok {
		return nil
	}
	return &Decision{
		Pair:   pair,
		Side:   event.Side.Opposite(),
		Amount: event.Amount,
		Tick:   nil, // rest at the venue's current price
	}
}

// Copyright (c) 2025 BVK Chaitanya

// Package feed turns raw venue notification streams into validated,
// deduplicated event channels for the trading engine. Each feed runs one
// producer goroutine; consumers drain a bounded channel, so a stalled
// consumer backpressures the producer instead of growing memory.
package feed

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/bvk/lpbot/statechain"
	"github.com/bvk/lpbot/venue"
	"github.com/bvk/lpbot/wsrpc"
)

// SwapFeed emits one SwapEvent per unique scheduled swap observed on a pool.
//
// The venue resends every still-scheduled swap on each update (and may also
// redeliver after a reconnect), so events are deduplicated on the swap id.
// Duplicates are dropped silently.
type SwapFeed struct {
	lifeCtx    context.Context
	lifeCancel context.CancelCauseFunc

	wg sync.WaitGroup

	sub  *wsrpc.Subscription
	pair venue.AssetPair

	eventCh chan venue.SwapEvent

	mu      sync.Mutex
	seenMap map[uint64]struct{}
}

// NewSwapFeed subscribes to the scheduled-swaps stream for the given pool and
// starts the producer.
func NewSwapFeed(ctx context.Context, chain *statechain.Client, pair venue.AssetPair) (*SwapFeed, error) {
	sub, err := chain.SubscribeScheduledSwaps(ctx, pair)
	if err != nil {
		return nil, err
	}

	lifeCtx, lifeCancel := context.WithCancelCause(context.Background())
	f := &SwapFeed{
		lifeCtx:    lifeCtx,
		lifeCancel: lifeCancel,
		sub:        sub,
		pair:       pair,
		eventCh:    make(chan venue.SwapEvent, 100),
		seenMap:    make(map[uint64]struct{}),
	}
	f.wg.Add(1)
	go f.goForwardSwaps()
	return f, nil
}

func (f *SwapFeed) Close() error {
	f.lifeCancel(os.ErrClosed)
	f.sub.Close()
	f.wg.Wait()
	return nil
}

// Events returns the deduplicated swap event channel.
func (f *SwapFeed) Events() <-chan venue.SwapEvent {
	return f.eventCh
}

// NumSeen returns the number of unique swaps observed so far.
func (f *SwapFeed) NumSeen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seenMap)
}

func (f *SwapFeed) goForwardSwaps() {
	defer f.wg.Done()

	recv, err := f.sub.Receiver()
	if err != nil {
		slog.Error("could not open swap feed receiver", "pair", f.pair, "err", err)
		return
	}
	defer recv.Close()

	for f.lifeCtx.Err() == nil {
		msg, err := recv.Receive()
		if err != nil {
			return
		}
		update, err := statechain.ParseSwapsUpdate(msg)
		if err != nil {
			slog.Error("could not parse scheduled swaps update (ignored)", "pair", f.pair, "err", err)
			continue
		}

		f.mu.Lock()
		events := dedupSwaps(f.seenMap, update)
		f.mu.Unlock()

		for _, event := range events {
			select {
			case <-f.lifeCtx.Done():
				return
			case f.eventCh <- event:
			}
		}
	}
}

// dedupSwaps picks the not-yet-seen swaps out of an update and marks them
// seen. The input seen-set is modified.
func dedupSwaps(seenMap map[uint64]struct{}, update *statechain.SwapsUpdate) []venue.SwapEvent {
	var events []venue.SwapEvent
	for i := range update.Swaps {
		swap := &update.Swaps[i]
		if _, ok := seenMap[swap.SwapID]; ok {
			continue
		}
		seenMap[swap.SwapID] = struct{}{}
		events = append(events, venue.SwapEvent{
			SwapID:     swap.SwapID,
			BaseAsset:  swap.BaseAsset,
			QuoteAsset: swap.QuoteAsset,
			Side:       swap.Side,
			Amount:     swap.Amount.Decimal,
		})
	}
	return events
}

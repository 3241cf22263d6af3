// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bvk/lpbot/strategy"
	"github.com/bvk/lpbot/venue"
)

// Supervisor is the single consumer of all event streams. It serializes swap
// and fill events into the order manager, which preserves the single-writer
// property of the order book without per-operation locking.
type Supervisor struct {
	strategy Decider

	manager *Manager

	swapChs []<-chan venue.SwapEvent
	fillCh  <-chan venue.FillEvent
}

// Decider maps one swap event to a trade decision. Implemented by the
// strategy package.
type Decider interface {
	Decide(event *venue.SwapEvent) *strategy.Decision
}

func NewSupervisor(d Decider, m *Manager, swapChs []<-chan venue.SwapEvent, fillCh <-chan venue.FillEvent) *Supervisor {
	return &Supervisor{
		strategy: d,
		manager:  m,
		swapChs:  swapChs,
		fillCh:   fillCh,
	}
}

// Run resets venue state and processes events until the context is canceled
// or every input stream is closed. Per-event failures are logged and do not
// interrupt processing of subsequent events.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.manager.Reset(ctx); err != nil {
		return fmt.Errorf("could not reset venue orders: %w", err)
	}

	// Merge all swap feeds into one bounded channel. Per-feed arrival order
	// is preserved; there is no ordering between feeds.
	var wg sync.WaitGroup
	defer wg.Wait()

	mctx, mcancel := context.WithCancel(ctx)
	defer mcancel()

	swapCh := make(chan venue.SwapEvent, 100)
	for _, ch := range s.swapChs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-mctx.Done():
					return
				case event, ok := <-ch:
					if !ok {
						return
					}
					select {
					case <-mctx.Done():
						return
					case swapCh <- event:
					}
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)

		case event := <-swapCh:
			if err := s.onSwap(ctx, &event); err != nil {
				slog.Error("could not process swap event (ignored)", "swap", event.SwapID, "err", err)
			}

		case event, ok := <-s.fillCh:
			if !ok {
				return fmt.Errorf("fill event stream is closed")
			}
			if err := s.manager.OnFill(&event); err != nil {
				slog.Error("could not process fill event (ignored)", "order", event.OrderID, "err", err)
			}
		}
	}
}

func (s *Supervisor) onSwap(ctx context.Context, event *venue.SwapEvent) error {
	decision := s.strategy.Decide(event)
	if decision == nil {
		slog.Info("no trade for swap on unconfigured instrument", "swap", event.SwapID, "pair", event.Pair())
		return nil
	}
	slog.Info("trade decision", "swap", event.SwapID, "pair", decision.Pair, "side", decision.Side, "amount", decision.Amount)
	return s.manager.OnDecision(ctx, decision)
}

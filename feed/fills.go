// Copyright (c) 2025 BVK Chaitanya

package feed

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/bvk/lpbot/lpapi"
	"github.com/bvk/lpbot/venue"
	"github.com/bvk/lpbot/wsrpc"
)

// FillFeed emits one FillEvent per execution of our own resting limit
// orders. The venue's fills stream is venue-wide, so fills belonging to other
// LP accounts are dropped silently. Range order fills are also dropped; this
// service only places limit orders.
type FillFeed struct {
	lifeCtx    context.Context
	lifeCancel context.CancelCauseFunc

	wg sync.WaitGroup

	sub     *wsrpc.Subscription
	account string

	eventCh chan venue.FillEvent
}

// NewFillFeed subscribes to the venue-wide order fills stream and starts the
// producer.
func NewFillFeed(ctx context.Context, lp *lpapi.Client) (*FillFeed, error) {
	sub, err := lp.SubscribeOrderFills(ctx)
	if err != nil {
		return nil, err
	}

	lifeCtx, lifeCancel := context.WithCancelCause(context.Background())
	f := &FillFeed{
		lifeCtx:    lifeCtx,
		lifeCancel: lifeCancel,
		sub:        sub,
		account:    lp.Account(),
		eventCh:    make(chan venue.FillEvent, 100),
	}
	f.wg.Add(1)
	go f.goForwardFills()
	return f, nil
}

func (f *FillFeed) Close() error {
	f.lifeCancel(os.ErrClosed)
	f.sub.Close()
	f.wg.Wait()
	return nil
}

// Events returns the channel of fills on our own orders.
func (f *FillFeed) Events() <-chan venue.FillEvent {
	return f.eventCh
}

func (f *FillFeed) goForwardFills() {
	defer f.wg.Done()

	recv, err := f.sub.Receiver()
	if err != nil {
		slog.Error("could not open fill feed receiver", "err", err)
		return
	}
	defer recv.Close()

	for f.lifeCtx.Err() == nil {
		msg, err := recv.Receive()
		if err != nil {
			return
		}
		update, err := lpapi.ParseFillsUpdate(msg)
		if err != nil {
			slog.Error("could not parse order fills update (ignored)", "err", err)
			continue
		}

		for _, event := range filterFills(f.account, update) {
			select {
			case <-f.lifeCtx.Done():
				return
			case f.eventCh <- event:
			}
		}
	}
}

// filterFills picks the limit order fills belonging to the given account out
// of an update.
func filterFills(account string, update *lpapi.FillsUpdate) []venue.FillEvent {
	var events []venue.FillEvent
	for i := range update.Fills {
		fill := update.Fills[i].LimitOrder
		if fill == nil || fill.LP != account {
			continue
		}
		events = append(events, venue.FillEvent{
			LP:         fill.LP,
			OrderID:    fill.ID,
			BaseAsset:  fill.BaseAsset,
			QuoteAsset: fill.QuoteAsset,
			Side:       fill.Side,
			Sold:       fill.Sold.Decimal,
			Bought:     fill.Bought.Decimal,
		})
	}
	return events
}

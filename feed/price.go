// Copyright (c) 2025 BVK Chaitanya

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

// PriceWatcher follows a pool's price stream for observability. Updates are
// logged and the latest value is kept for status reporting; the trading logic
// itself never consumes these updates because orders are placed at the
// venue's current price.
type PriceWatcher struct {
	lifeCtx    context.Context
	lifeCancel context.CancelCauseFunc

	wg sync.WaitGroup

	sub  *wsrpc.Subscription
	pair venue.AssetPair

	mu   sync.Mutex
	last *statechain.PoolPriceUpdate
}

// NewPriceWatcher subscribes to the pool-price stream for the given pool and
// starts the watcher.
func NewPriceWatcher(ctx context.Context, chain *statechain.Client, pair venue.AssetPair) (*PriceWatcher, error) {
	sub, err := chain.SubscribePoolPrice(ctx, pair)
	if err != nil {
		return nil, err
	}

	lifeCtx, lifeCancel := context.WithCancelCause(context.Background())
	w := &PriceWatcher{
		lifeCtx:    lifeCtx,
		lifeCancel: lifeCancel,
		sub:        sub,
		pair:       pair,
	}
	w.wg.Add(1)
	go w.goWatchPrice()
	return w, nil
}

func (w *PriceWatcher) Close() error {
	w.lifeCancel(os.ErrClosed)
	w.sub.Close()
	w.wg.Wait()
	return nil
}

// LastPrice returns the most recently observed pool price, which can be nil
// before the first update arrives.
func (w *PriceWatcher) LastPrice() *statechain.PoolPriceUpdate {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *PriceWatcher) goWatchPrice() {
	defer w.wg.Done()

	recv, err := w.sub.Receiver()
	if err != nil {
		slog.Error("could not open pool price receiver", "pair", w.pair, "err", err)
		return
	}
	defer recv.Close()

	for w.lifeCtx.Err() == nil {
		msg, err := recv.Receive()
		if err != nil {
			return
		}
		update, err := statechain.ParsePoolPriceUpdate(msg)
		if err != nil {
			slog.Error("could not parse pool price update (ignored)", "pair", w.pair, "err", err)
			continue
		}

		w.mu.Lock()
		w.last = update
		w.mu.Unlock()

		slog.Info("pool price update", "pair", w.pair, "price", update.Price, "tick", update.Tick)
	}
}

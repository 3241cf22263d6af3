// Copyright (c) 2025 BVK Chaitanya

// Package replenish tops up venue inventory in response to liquidity
// shortfall notifications. Each replenishment obtains a fresh deposit
// address, performs an external chain transfer to it and awaits the on-chain
// credit. This is the one place in the pipeline where genuine cross-chain
// latency is incurred, so deposits are rate limited per asset: a shortfall
// arriving while a prior deposit for the same asset is still settling is
// skipped with a log message.
package replenish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/visvasity/topic"
	"golang.org/x/time/rate"

	"github.com/bvk/lpbot/ctxutil"
	"github.com/bvk/lpbot/engine"
	"github.com/bvk/lpbot/venue"
)

// DepositAPI is the venue-side surface needed for replenishment. Implemented
// by the lp api client.
type DepositAPI interface {
	LiquidityDeposit(ctx context.Context, asset venue.Asset) (string, error)
	FreeBalances(ctx context.Context) (map[venue.Asset]venue.Amount, error)
}

// Transferor performs the external chain transfer to a venue deposit
// address. A nil transferor means transfers happen out of band (e.g., by an
// operator watching the logs).
type Transferor interface {
	Transfer(ctx context.Context, asset venue.Asset, address string, amount decimal.Decimal) error
}

type Options struct {
	// DepositInterval is the minimum gap between deposit attempts for one
	// asset.
	DepositInterval time.Duration

	// CreditTimeout bounds how long we wait for a deposit to be credited.
	CreditTimeout time.Duration

	// BalancePollInterval is the free-balance polling interval while awaiting
	// a credit.
	BalancePollInterval time.Duration
}

func (v *Options) setDefaults() {
	if v.DepositInterval == 0 {
		v.DepositInterval = 10 * time.Minute
	}
	if v.CreditTimeout == 0 {
		v.CreditTimeout = 30 * time.Minute
	}
	if v.BalancePollInterval == 0 {
		v.BalancePollInterval = 30 * time.Second
	}
}

func (v *Options) Check() error {
	if v.DepositInterval < 0 || v.CreditTimeout < 0 || v.BalancePollInterval < 0 {
		return fmt.Errorf("replenish intervals cannot be negative")
	}
	return nil
}

type Replenisher struct {
	lifeCtx    context.Context
	lifeCancel context.CancelCauseFunc

	wg sync.WaitGroup

	opts Options

	api        DepositAPI
	transferor Transferor

	recv *topic.Receiver[engine.Shortfall]

	mu         sync.Mutex
	limiterMap map[venue.Asset]*rate.Limiter
}

// New starts a replenisher consuming the given shortfall stream. The
// receiver is owned (and closed) by the replenisher.
func New(api DepositAPI, transferor Transferor, recv *topic.Receiver[engine.Shortfall], opts *Options) (*Replenisher, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	lifeCtx, lifeCancel := context.WithCancelCause(context.Background())
	r := &Replenisher{
		lifeCtx:    lifeCtx,
		lifeCancel: lifeCancel,
		opts:       *opts,
		api:        api,
		transferor: transferor,
		recv:       recv,
		limiterMap: make(map[venue.Asset]*rate.Limiter),
	}
	r.wg.Add(1)
	go r.goWatchShortfalls()
	return r, nil
}

func (r *Replenisher) Close() error {
	r.lifeCancel(os.ErrClosed)
	r.recv.Close()
	r.wg.Wait()
	return nil
}

func (r *Replenisher) limiter(asset venue.Asset) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiterMap[asset]
	if !ok {
		l = rate.NewLimiter(rate.Every(r.opts.DepositInterval), 1)
		r.limiterMap[asset] = l
	}
	return l
}

func (r *Replenisher) goWatchShortfalls() {
	defer r.wg.Done()

	for r.lifeCtx.Err() == nil {
		shortfall, err := r.recv.Receive()
		if err != nil {
			return
		}
		if err := r.handleShortfall(r.lifeCtx, &shortfall); err != nil {
			slog.Error("could not replenish liquidity (ignored)", "asset", shortfall.Asset, "err", err)
		}
	}
}

func (r *Replenisher) handleShortfall(ctx context.Context, shortfall *engine.Shortfall) error {
	if !r.limiter(shortfall.Asset).Allow() {
		slog.Info("deposit skipped, a prior deposit for the asset is still settling", "asset", shortfall.Asset)
		return nil
	}

	baseline, err := r.freeBalance(ctx, shortfall.Asset)
	if err != nil {
		return err
	}

	address, err := r.api.LiquidityDeposit(ctx, shortfall.Asset)
	if err != nil {
		return err
	}
	slog.Info("obtained liquidity deposit address", "asset", shortfall.Asset, "address", address, "amount", shortfall.Amount)

	if r.transferor == nil {
		slog.Warn("no transferor is configured; deposit needs an out of band transfer", "asset", shortfall.Asset, "address", address)
		return nil
	}
	if err := r.transferor.Transfer(ctx, shortfall.Asset, address, shortfall.Amount); err != nil {
		return fmt.Errorf("could not transfer to deposit address: %w", err)
	}

	return r.awaitCredit(ctx, shortfall.Asset, baseline)
}

func (r *Replenisher) freeBalance(ctx context.Context, asset venue.Asset) (decimal.Decimal, error) {
	balanceMap, err := r.api.FreeBalances(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return balanceMap[asset].Decimal, nil
}

// awaitCredit polls the account's free balance till it rises above the
// baseline captured before the transfer.
func (r *Replenisher) awaitCredit(ctx context.Context, asset venue.Asset, baseline decimal.Decimal) error {
	wctx, wcancel := context.WithTimeout(ctx, r.opts.CreditTimeout)
	defer wcancel()

	for wctx.Err() == nil {
		balance, err := r.freeBalance(wctx, asset)
		if err == nil && balance.GreaterThan(baseline) {
			slog.Info("liquidity deposit credited", "asset", asset, "balance", balance)
			return nil
		}
		if err != nil {
			slog.Warn("could not poll free balances (may retry)", "asset", asset, "err", err)
		}
		ctxutil.Sleep(wctx, r.opts.BalancePollInterval)
	}
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return fmt.Errorf("deposit for %s was not credited in %s", asset, r.opts.CreditTimeout)
}

// Copyright (c) 2025 BVK Chaitanya

// Package engine contains the market-making pipeline: a single-writer order
// manager that owns the resting order book, and a supervisor that fans swap
// and fill events into it.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/visvasity/topic"

	"github.com/bvk/lpbot/book"
	"github.com/bvk/lpbot/idgen"
	"github.com/bvk/lpbot/strategy"
	"github.com/bvk/lpbot/venue"
)

// OrderPlacer is the venue-side surface the manager needs. Implemented by
// the lp api client and by fakes in tests.
type OrderPlacer interface {
	SetLimitOrder(ctx context.Context, pair venue.AssetPair, side venue.Side, id venue.OrderID, tick *int32, sellAmount venue.Amount) error
	CancelAllOrders(ctx context.Context) error
}

// Shortfall reports that an order submission failed, most likely for lack of
// inventory. It carries the failed decision's parameters; Asset is the asset
// the order would have sold, which is the inventory that ran short.
type Shortfall struct {
	Asset venue.Asset

	Pair venue.AssetPair
	Side venue.Side

	Amount decimal.Decimal
}

// sellAsset returns the asset an order on the given side of a pair sells.
func sellAsset(pair venue.AssetPair, side venue.Side) venue.Asset {
	if side == venue.SideSell {
		return pair.Base
	}
	return pair.Quote
}

// Manager is the single owner of the order book. All mutations -- decisions
// and fills -- must come from one goroutine (the supervisor); the internal
// mutex exists only so status snapshots can be read from http handlers.
type Manager struct {
	placer OrderPlacer

	idgen *idgen.Generator

	shortfallTopic *topic.Topic[Shortfall]

	mu   sync.Mutex
	book *book.Book
}

func NewManager(placer OrderPlacer, g *idgen.Generator) *Manager {
	return &Manager{
		placer:         placer,
		idgen:          g,
		shortfallTopic: topic.New[Shortfall](),
		book:           book.New(),
	}
}

// Close releases resources and destroys the manager instance.
func (m *Manager) Close() error {
	m.shortfallTopic.Close()
	return nil
}

// Reset cancels every resting order of our account on the venue, so that an
// empty order book matches venue state at startup. Failure here is fatal to
// startup.
func (m *Manager) Reset(ctx context.Context) error {
	if err := m.placer.CancelAllOrders(ctx); err != nil {
		return err
	}
	slog.Info("canceled all pre-existing venue orders")
	return nil
}

// Shortfalls returns a receiver for liquidity shortfall notifications.
func (m *Manager) Shortfalls() (*topic.Receiver[Shortfall], error) {
	return topic.Subscribe(m.shortfallTopic, 0, false /* includeRecent */)
}

// OnDecision places (or coalesces) one trade decision. A submission failure
// is not an error to the pipeline: it emits a shortfall notification and the
// book is left unchanged.
func (m *Manager) OnDecision(ctx context.Context, d *strategy.Decision) error {
	m.mu.Lock()
	existing := m.book.FindOpen(d.Pair, d.Side, d.Amount)
	m.mu.Unlock()

	if existing != nil {
		slog.Info("coalesced decision into resting order", "pair", d.Pair, "side", d.Side, "amount", d.Amount, "order", existing.OrderID)
		return nil
	}

	id := venue.OrderID(m.idgen.NextID())
	if err := m.placer.SetLimitOrder(ctx, d.Pair, d.Side, id, d.Tick, venue.NewAmount(d.Amount)); err != nil {
		// The id was never accepted by the venue; return it to the generator.
		m.idgen.RevertID()

		shortfall := Shortfall{
			Asset:  sellAsset(d.Pair, d.Side),
			Pair:   d.Pair,
			Side:   d.Side,
			Amount: d.Amount,
		}
		slog.Warn("could not submit limit order (liquidity shortfall)", "pair", d.Pair, "side", d.Side, "amount", d.Amount, "err", err)
		m.shortfallTopic.Send(shortfall)
		return nil
	}

	order := &book.Order{
		OrderID:    id,
		Status:     book.StatusAccepted,
		Kind:       book.KindLimit,
		Pair:       d.Pair,
		Side:       d.Side,
		Amount:     d.Amount,
		Tick:       d.Tick,
		CreateTime: time.Now(),
	}

	m.mu.Lock()
	err := m.book.Add(order)
	m.mu.Unlock()
	if err != nil {
		return err
	}

	slog.Info("submitted limit order", "order", id, "pair", d.Pair, "side", d.Side, "amount", d.Amount)
	return nil
}

// OnFill transitions the referenced order to filled. Fills for unknown
// orders (placed before a restart, or racing ahead of submission bookkeeping)
// and repeated fills are logged and ignored.
func (m *Manager) OnFill(event *venue.FillEvent) error {
	m.mu.Lock()
	changed, err := m.book.MarkFilled(event.OrderID, time.Now())
	m.mu.Unlock()

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("fill references an unknown order (ignored)", "order", event.OrderID, "pair", venue.AssetPair{Base: event.BaseAsset, Quote: event.QuoteAsset})
			return nil
		}
		return err
	}
	if !changed {
		slog.Info("repeated fill for a finished order (ignored)", "order", event.OrderID)
		return nil
	}

	slog.Info("order filled", "order", event.OrderID, "side", event.Side, "sold", event.Sold, "bought", event.Bought)
	return nil
}

// Orders returns a snapshot copy of the order book.
func (m *Manager) Orders() []*book.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.Orders()
}

// NumOpen returns the number of resting (accepted) orders.
func (m *Manager) NumOpen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.NumOpen()
}

// Copyright (c) 2025 BVK Chaitanya

package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bvk/lpbot/book"
	"github.com/bvk/lpbot/idgen"
	"github.com/bvk/lpbot/strategy"
	"github.com/bvk/lpbot/venue"
)

var testPair = venue.AssetPair{
	Base:  venue.Asset{Chain: "Bitcoin", Symbol: "BTC"},
	Quote: venue.Asset{Chain: "Ethereum", Symbol: "USDC"},
}

type placedOrder struct {
	pair   venue.AssetPair
	side   venue.Side
	id     venue.OrderID
	amount venue.Amount
}

type fakePlacer struct {
	failSubmit bool

	placed     []placedOrder
	numCancels int
}

func (f *fakePlacer) SetLimitOrder(ctx context.Context, pair venue.AssetPair, side venue.Side, id venue.OrderID, tick *int32, sellAmount venue.Amount) error {
	if f.failSubmit {
		return fmt.Errorf("insufficient balance")
	}
	f.placed = append(f.placed, placedOrder{pair: pair, side: side, id: id, amount: sellAmount})
	return nil
}

func (f *fakePlacer) CancelAllOrders(ctx context.Context) error {
	f.numCancels++
	return nil
}

func newTestManager(placer OrderPlacer) *Manager {
	return NewManager(placer, idgen.New("engine test seed", 0))
}

func TestCoalescing(t *testing.T) {
	ctx := context.Background()

	placer := &fakePlacer{}
	m := newTestManager(placer)
	defer m.Close()

	first := &strategy.Decision{Pair: testPair, Side: venue.SideBuy, Amount: decimal.NewFromInt(500000)}
	if err := m.OnDecision(ctx, first); err != nil {
		t.Fatal(err)
	}
	if len(placer.placed) != 1 {
		t.Fatalf("want 1 submission, got %d", len(placer.placed))
	}

	// A second decision for the same pair and side with a smaller amount must
	// reuse the resting order.
	second := &strategy.Decision{Pair: testPair, Side: venue.SideBuy, Amount: decimal.NewFromInt(100000)}
	if err := m.OnDecision(ctx, second); err != nil {
		t.Fatal(err)
	}
	if len(placer.placed) != 1 {
		t.Fatalf("want 1 submission after coalescing, got %d", len(placer.placed))
	}
	if n := len(m.Orders()); n != 1 {
		t.Fatalf("want 1 order in the book, got %d", n)
	}

	// A larger amount cannot coalesce and submits a new order.
	third := &strategy.Decision{Pair: testPair, Side: venue.SideBuy, Amount: decimal.NewFromInt(900000)}
	if err := m.OnDecision(ctx, third); err != nil {
		t.Fatal(err)
	}
	if len(placer.placed) != 2 {
		t.Fatalf("want 2 submissions, got %d", len(placer.placed))
	}
}

func TestShortfall(t *testing.T) {
	ctx := context.Background()

	placer := &fakePlacer{failSubmit: true}
	m := newTestManager(placer)
	defer m.Close()

	recv, err := m.Shortfalls()
	if err != nil {
		t.Fatal(err)
	}
	defer recv.Close()

	d := &strategy.Decision{Pair: testPair, Side: venue.SideBuy, Amount: decimal.NewFromInt(500000)}
	if err := m.OnDecision(ctx, d); err != nil {
		t.Fatal(err)
	}

	shortfall, err := recv.Receive()
	if err != nil {
		t.Fatal(err)
	}
	if shortfall.Side != venue.SideBuy || !shortfall.Amount.Equal(d.Amount) {
		t.Fatalf("shortfall must carry the decision parameters, got %+v", shortfall)
	}
	// A buy order sells the quote asset, so that is the short inventory.
	if shortfall.Asset != testPair.Quote {
		t.Fatalf("want shortfall asset %v, got %v", testPair.Quote, shortfall.Asset)
	}
	if n := len(m.Orders()); n != 0 {
		t.Fatalf("book must gain no entry on a failed submission, got %d orders", n)
	}

	// The failed submission's id goes back to the generator, so the next
	// successful order picks it up.
	placer.failSubmit = false
	if err := m.OnDecision(ctx, d); err != nil {
		t.Fatal(err)
	}
	wanted := idgen.New("engine test seed", 0).NextID()
	if got := placer.placed[0].id; got != venue.OrderID(wanted) {
		t.Fatalf("want reverted order id %d, got %d", wanted, got)
	}
}

func TestFillTransition(t *testing.T) {
	ctx := context.Background()

	placer := &fakePlacer{}
	m := newTestManager(placer)
	defer m.Close()

	d := &strategy.Decision{Pair: testPair, Side: venue.SideBuy, Amount: decimal.NewFromInt(500000)}
	if err := m.OnDecision(ctx, d); err != nil {
		t.Fatal(err)
	}
	id := placer.placed[0].id

	fill := venue.FillEvent{
		LP:         "ourAccount",
		OrderID:    id,
		BaseAsset:  testPair.Base,
		QuoteAsset: testPair.Quote,
		Side:       venue.SideBuy,
		Sold:       decimal.NewFromInt(500000),
		Bought:     decimal.NewFromInt(500000),
	}
	if err := m.OnFill(&fill); err != nil {
		t.Fatal(err)
	}

	orders := m.Orders()
	if len(orders) != 1 || orders[0].Status != book.StatusFilled {
		t.Fatalf("want a single filled order, got %+v", orders)
	}
	finishTime := orders[0].FinishTime

	// A repeated fill must not re-trigger the transition.
	time.Sleep(time.Millisecond)
	if err := m.OnFill(&fill); err != nil {
		t.Fatal(err)
	}
	orders = m.Orders()
	if !orders[0].FinishTime.Equal(finishTime) {
		t.Fatalf("repeated fill must not change the order")
	}

	// A fill for an unknown order is ignored.
	unknown := fill
	unknown.OrderID = 999999
	if err := m.OnFill(&unknown); err != nil {
		t.Fatal(err)
	}
}

func TestSupervisor(t *testing.T) {
	placer := &fakePlacer{}
	m := newTestManager(placer)
	defer m.Close()

	swapCh := make(chan venue.SwapEvent, 10)
	fillCh := make(chan venue.FillEvent, 10)
	s := NewSupervisor(strategy.New([]venue.AssetPair{testPair}), m, []<-chan venue.SwapEvent{swapCh}, fillCh)

	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan error, 1)
	go func() {
		doneCh <- s.Run(ctx)
	}()

	swapCh <- venue.SwapEvent{
		SwapID:     1,
		BaseAsset:  testPair.Base,
		QuoteAsset: testPair.Quote,
		Side:       venue.SideSell,
		Amount:     decimal.NewFromInt(500000),
	}

	waitFor(t, func() bool { return m.NumOpen() == 1 })
	if placer.numCancels != 1 {
		t.Fatalf("want the startup cancel-all reset, got %d cancels", placer.numCancels)
	}
	if got := placer.placed[0].side; got != venue.SideBuy {
		t.Fatalf("want a buy order against a taker sell, got %q", got)
	}

	fillCh <- venue.FillEvent{
		LP:         "ourAccount",
		OrderID:    placer.placed[0].id,
		BaseAsset:  testPair.Base,
		QuoteAsset: testPair.Quote,
		Side:       venue.SideBuy,
		Sold:       decimal.NewFromInt(500000),
		Bought:     decimal.NewFromInt(500000),
	}
	waitFor(t, func() bool { return m.NumOpen() == 0 })

	orders := m.Orders()
	if len(orders) != 1 || orders[0].Status != book.StatusFilled {
		t.Fatalf("want a single filled order, got %+v", orders)
	}

	cancel()
	if err := <-doneCh; err == nil {
		t.Fatalf("want a cancellation cause, got nil")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition was not reached in time")
}

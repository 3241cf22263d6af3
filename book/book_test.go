// Copyright (c) 2025 BVK Chaitanya

package book

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bvk/lpbot/venue"
)

var btcUsdc = venue.AssetPair{
	Base:  venue.Asset{Chain: "Bitcoin", Symbol: "BTC"},
	Quote: venue.Asset{Chain: "Ethereum", Symbol: "USDC"},
}

func TestAdd(t *testing.T) {
	b := New()
	order := &Order{
		OrderID: 1,
		Status:  StatusAccepted,
		Kind:    KindLimit,
		Pair:    btcUsdc,
		Side:    venue.SideBuy,
		Amount:  decimal.NewFromInt(500000),
	}
	if err := b.Add(order); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(order); err == nil || !errors.Is(err, os.ErrExist) {
		t.Fatalf("wanted ErrExist, got %v", err)
	}
	if err := b.Add(&Order{OrderID: 2, Status: StatusFilled}); err == nil {
		t.Fatalf("wanted non-nil error for non-accepted order")
	}
	if b.Len() != 1 {
		t.Fatalf("wanted 1 order, got %d", b.Len())
	}
}

func TestFindOpen(t *testing.T) {
	b := New()
	order := &Order{
		OrderID: 1,
		Status:  StatusAccepted,
		Kind:    KindLimit,
		Pair:    btcUsdc,
		Side:    venue.SideBuy,
		Amount:  decimal.NewFromInt(500000),
	}
	if err := b.Add(order); err != nil {
		t.Fatal(err)
	}

	if v := b.FindOpen(btcUsdc, venue.SideBuy, decimal.NewFromInt(100000)); v == nil || v.OrderID != 1 {
		t.Fatalf("wanted order 1, got %v", v)
	}
	// Larger amounts cannot coalesce.
	if v := b.FindOpen(btcUsdc, venue.SideBuy, decimal.NewFromInt(600000)); v != nil {
		t.Fatalf("wanted nil, got %v", v)
	}
	// Other side cannot coalesce.
	if v := b.FindOpen(btcUsdc, venue.SideSell, decimal.NewFromInt(100000)); v != nil {
		t.Fatalf("wanted nil, got %v", v)
	}

	// Filled orders cannot coalesce.
	if _, err := b.MarkFilled(1, time.Now()); err != nil {
		t.Fatal(err)
	}
	if v := b.FindOpen(btcUsdc, venue.SideBuy, decimal.NewFromInt(100000)); v != nil {
		t.Fatalf("wanted nil, got %v", v)
	}
}

func TestMarkFilledOnce(t *testing.T) {
	b := New()
	order := &Order{
		OrderID: 4821,
		Status:  StatusAccepted,
		Kind:    KindLimit,
		Pair:    btcUsdc,
		Side:    venue.SideBuy,
		Amount:  decimal.NewFromInt(500000),
	}
	if err := b.Add(order); err != nil {
		t.Fatal(err)
	}

	changed, err := b.MarkFilled(4821, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatalf("wanted a state change")
	}
	if order.Status != StatusFilled {
		t.Fatalf("wanted %s, got %s", StatusFilled, order.Status)
	}

	// A second fill for the same order must not re-trigger the transition.
	changed, err = b.MarkFilled(4821, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Fatalf("wanted no state change")
	}

	if _, err := b.MarkFilled(9999, time.Now()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("wanted ErrNotExist, got %v", err)
	}
}

func TestMarkCanceled(t *testing.T) {
	b := New()
	if err := b.Add(&Order{OrderID: 7, Status: StatusAccepted, Kind: KindLimit, Pair: btcUsdc, Side: venue.SideSell, Amount: decimal.NewFromInt(10)}); err != nil {
		t.Fatal(err)
	}
	if changed, err := b.MarkCanceled(7, time.Now()); err != nil || !changed {
		t.Fatalf("wanted a state change, got %v %v", changed, err)
	}
	// Canceled is terminal.
	if changed, _ := b.MarkFilled(7, time.Now()); changed {
		t.Fatalf("wanted no state change after cancel")
	}
	if b.NumOpen() != 0 {
		t.Fatalf("wanted 0 open orders, got %d", b.NumOpen())
	}
}

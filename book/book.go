// Copyright (c) 2025 BVK Chaitanya

// Package book holds the in-memory resting order book. The book is plain data
// with no synchronization of its own; it must only be mutated by its single
// owner (the engine's order manager).
package book

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bvk/lpbot/venue"
)

type Status string

const (
	StatusAccepted Status = "ACCEPTED"
	StatusFilled   Status = "FILLED"
	StatusCanceled Status = "CANCELED"
)

// IsFinal returns true for terminal statuses. Terminal orders never change
// again; they are retained for the life of the process.
func IsFinal(s Status) bool {
	return s == StatusFilled || s == StatusCanceled
}

type Kind string

const (
	KindLimit Kind = "LIMIT"
	KindRange Kind = "RANGE"
)

// Order is a resting order submitted by this service. Orders are created on
// successful submission and mutated only through the Book methods.
type Order struct {
	OrderID venue.OrderID

	Status Status
	Kind   Kind

	Pair venue.AssetPair
	Side venue.Side

	// Amount of the base asset backing this order, in smallest units.
	Amount decimal.Decimal

	// Tick is the discretized limit price. Nil means the order was placed at
	// the venue's prevailing pool price.
	Tick *int32

	CreateTime time.Time
	FinishTime time.Time
}

// Book maps order ids to orders. Keys are unique by construction because
// order ids come from a monotonic generator.
type Book struct {
	orderMap map[venue.OrderID]*Order
}

func New() *Book {
	return &Book{
		orderMap: make(map[venue.OrderID]*Order),
	}
}

func (b *Book) Len() int {
	return len(b.orderMap)
}

func (b *Book) Get(id venue.OrderID) (*Order, bool) {
	v, ok := b.orderMap[id]
	return v, ok
}

func (b *Book) Add(order *Order) error {
	if _, ok := b.orderMap[order.OrderID]; ok {
		return fmt.Errorf("order %s already exists: %w", order.OrderID, os.ErrExist)
	}
	if order.Status != StatusAccepted {
		return fmt.Errorf("new order %s must be %s: %w", order.OrderID, StatusAccepted, os.ErrInvalid)
	}
	b.orderMap[order.OrderID] = order
	return nil
}

// FindOpen returns an ACCEPTED limit order for the given pair and side whose
// amount is at least the given amount, or nil. Used for coalescing decisions
// into existing resting liquidity.
func (b *Book) FindOpen(pair venue.AssetPair, side venue.Side, amount decimal.Decimal) *Order {
	for _, order := range b.orderMap {
		if order.Status != StatusAccepted || order.Kind != KindLimit {
			continue
		}
		if order.Pair == pair && order.Side == side && order.Amount.GreaterThanOrEqual(amount) {
			return order
		}
	}
	return nil
}

// MarkFilled transitions an order ACCEPTED -> FILLED. The transition is a
// one-way, one-time edge: a repeated fill for the same order returns false
// with no state change. Unknown ids return os.ErrNotExist.
func (b *Book) MarkFilled(id venue.OrderID, at time.Time) (bool, error) {
	order, ok := b.orderMap[id]
	if !ok {
		return false, os.ErrNotExist
	}
	if IsFinal(order.Status) {
		return false, nil
	}
	order.Status = StatusFilled
	order.FinishTime = at
	return true, nil
}

// MarkCanceled transitions an order ACCEPTED -> CANCELED.
func (b *Book) MarkCanceled(id venue.OrderID, at time.Time) (bool, error) {
	order, ok := b.orderMap[id]
	if !ok {
		return false, os.ErrNotExist
	}
	if IsFinal(order.Status) {
		return false, nil
	}
	order.Status = StatusCanceled
	order.FinishTime = at
	return true, nil
}

// Orders returns a snapshot copy of all orders.
func (b *Book) Orders() []*Order {
	var orders []*Order
	for _, order := range b.orderMap {
		clone := *order
		orders = append(orders, &clone)
	}
	return orders
}

func (b *Book) NumOpen() int {
	n := 0
	for _, order := range b.orderMap {
		if order.Status == StatusAccepted {
			n++
		}
	}
	return n
}

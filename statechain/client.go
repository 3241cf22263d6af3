// Copyright (c) 2025 BVK Chaitanya

// Package statechain provides a typed interface to the chain node's cf_*
// rpc methods. Notification payloads are validated strictly at this boundary;
// malformed payloads never reach the trading logic.
package statechain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bvk/lpbot/venue"
	"github.com/bvk/lpbot/wsrpc"
)

type Client struct {
	rpc *wsrpc.Client
}

func New(rpc *wsrpc.Client) *Client {
	return &Client{rpc: rpc}
}

// ScheduledSwap describes one upcoming swap scheduled on the chain.
type ScheduledSwap struct {
	SwapID        uint64 `json:"swap_id"`
	SwapRequestID uint64 `json:"swap_request_id"`

	BaseAsset  venue.Asset `json:"base_asset"`
	QuoteAsset venue.Asset `json:"quote_asset"`

	Side   venue.Side   `json:"side"`
	Amount venue.Amount `json:"amount"`

	ExecuteAt       uint64 `json:"execute_at"`
	RemainingChunks uint32 `json:"remaining_chunks"`
	ChunkInterval   uint32 `json:"chunk_interval"`
}

func (v *ScheduledSwap) Check() error {
	if v.SwapID == 0 {
		return fmt.Errorf("swap id cannot be zero")
	}
	if err := v.BaseAsset.Check(); err != nil {
		return fmt.Errorf("invalid base asset: %w", err)
	}
	if err := v.QuoteAsset.Check(); err != nil {
		return fmt.Errorf("invalid quote asset: %w", err)
	}
	if err := v.Side.Check(); err != nil {
		return fmt.Errorf("invalid side: %w", err)
	}
	if v.Amount.Sign() <= 0 {
		return fmt.Errorf("swap amount must be positive")
	}
	return nil
}

// SwapsUpdate is the payload of one scheduled-swaps notification. It carries
// the full set of currently scheduled swaps, so the same swap is typically
// repeated across consecutive updates.
type SwapsUpdate struct {
	BlockHash   string          `json:"block_hash"`
	BlockNumber uint64          `json:"block_number"`
	Swaps       []ScheduledSwap `json:"swaps"`
}

func (v *SwapsUpdate) Check() error {
	for i := range v.Swaps {
		if err := v.Swaps[i].Check(); err != nil {
			return fmt.Errorf("invalid swap at index %d: %w", i, err)
		}
	}
	return nil
}

// ParseSwapsUpdate decodes and validates one scheduled-swaps notification
// payload.
func ParseSwapsUpdate(msg json.RawMessage) (*SwapsUpdate, error) {
	update := new(SwapsUpdate)
	if err := json.Unmarshal(msg, update); err != nil {
		return nil, fmt.Errorf("could not unmarshal scheduled swaps payload: %w", err)
	}
	if err := update.Check(); err != nil {
		return nil, err
	}
	return update, nil
}

// SubscribeScheduledSwaps opens the scheduled-swaps stream for one pool.
func (c *Client) SubscribeScheduledSwaps(ctx context.Context, pair venue.AssetPair) (*wsrpc.Subscription, error) {
	params := []any{pair.Base, pair.Quote}
	return c.rpc.Subscribe(ctx, "cf_subscribe_scheduled_swaps", params, "cf_unsubscribe_scheduled_swaps")
}

// PoolPriceUpdate is the payload of one pool-price notification.
type PoolPriceUpdate struct {
	Price     venue.Amount `json:"price"`
	SqrtPrice venue.Amount `json:"sqrt_price"`
	Tick      int32        `json:"tick"`
}

func (v *PoolPriceUpdate) Check() error {
	if v.Price.Sign() < 0 {
		return fmt.Errorf("pool price cannot be negative")
	}
	return nil
}

// ParsePoolPriceUpdate decodes and validates one pool-price notification
// payload.
func ParsePoolPriceUpdate(msg json.RawMessage) (*PoolPriceUpdate, error) {
	update := new(PoolPriceUpdate)
	if err := json.Unmarshal(msg, update); err != nil {
		return nil, fmt.Errorf("could not unmarshal pool price payload: %w", err)
	}
	if err := update.Check(); err != nil {
		return nil, err
	}
	return update, nil
}

// SubscribePoolPrice opens the pool-price stream for one pool.
func (c *Client) SubscribePoolPrice(ctx context.Context, pair venue.AssetPair) (*wsrpc.Subscription, error) {
	params := []any{pair.Base, pair.Quote}
	return c.rpc.Subscribe(ctx, "cf_subscribe_pool_price", params, "cf_unsubscribe_pool_price")
}

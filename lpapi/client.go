// Copyright (c) 2025 BVK Chaitanya

// Package lpapi provides a typed interface to the venue's lp_* rpc methods
// used by liquidity provider accounts.
package lpapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bvk/lpbot/venue"
	"github.com/bvk/lpbot/wsrpc"
)

type Client struct {
	rpc *wsrpc.Client

	// account is our own LP account id. Fill notifications carry fills from
	// every LP on the venue and are filtered against this value.
	account string
}

func New(rpc *wsrpc.Client, account string) *Client {
	return &Client{rpc: rpc, account: account}
}

func (c *Client) Account() string {
	return c.account
}

// SetLimitOrder creates or updates a resting limit order. The venue treats
// the (pair, side, id) triple as the order key, so reusing an id with a larger
// sell amount replaces the resting amount. A nil tick places the order at the
// venue's current pool price.
func (c *Client) SetLimitOrder(ctx context.Context, pair venue.AssetPair, side venue.Side, id venue.OrderID, tick *int32, sellAmount venue.Amount) error {
	params := []any{pair.Base, pair.Quote, side, id, tick, sellAmount}
	if _, err := c.rpc.Call(ctx, "lp_set_limit_order", params); err != nil {
		return fmt.Errorf("could not set limit order %s: %w", id, err)
	}
	return nil
}

// CancelAllOrders cancels every resting order owned by our account, across
// all pools.
func (c *Client) CancelAllOrders(ctx context.Context) error {
	if _, err := c.rpc.Call(ctx, "lp_cancel_all_orders", nil); err != nil {
		return fmt.Errorf("could not cancel all orders: %w", err)
	}
	return nil
}

// LiquidityDeposit requests a deposit address for the given asset and returns
// it. Funds sent to the address are credited to our account's free balance
// after chain confirmation.
func (c *Client) LiquidityDeposit(ctx context.Context, asset venue.Asset) (string, error) {
	// Wait till the request is in a block, so the returned address is usable.
	params := []any{asset, "InBlock"}
	result, err := c.rpc.Call(ctx, "lp_liquidity_deposit", params)
	if err != nil {
		return "", fmt.Errorf("could not request liquidity deposit for %s: %w", asset, err)
	}

	// The response is either the bare deposit address or the address wrapped
	// in transaction details, depending on the node version.
	var addr string
	if err := json.Unmarshal(result, &addr); err == nil {
		return addr, nil
	}
	var wrapped struct {
		TxDetails struct {
			Response string `json:"response"`
		} `json:"tx_details"`
	}
	if err := json.Unmarshal(result, &wrapped); err != nil || wrapped.TxDetails.Response == "" {
		return "", fmt.Errorf("could not decode liquidity deposit response %s", result)
	}
	return wrapped.TxDetails.Response, nil
}

// FreeBalances returns the free (unallocated) balance for every asset in our
// account.
func (c *Client) FreeBalances(ctx context.Context) (map[venue.Asset]venue.Amount, error) {
	result, err := c.rpc.Call(ctx, "lp_free_balances", nil)
	if err != nil {
		return nil, fmt.Errorf("could not fetch free balances: %w", err)
	}

	var chainMap map[string]map[string]venue.Amount
	if err := json.Unmarshal(result, &chainMap); err != nil {
		return nil, fmt.Errorf("could not unmarshal free balances: %w", err)
	}
	balanceMap := make(map[venue.Asset]venue.Amount)
	for chain, assetMap := range chainMap {
		for symbol, amount := range assetMap {
			balanceMap[venue.Asset{Chain: chain, Symbol: symbol}] = amount
		}
	}
	return balanceMap, nil
}

// SubscribeOrderFills opens the venue-wide order fills stream. Payloads
// include fills belonging to every LP; callers filter with [ParseFillsUpdate]
// and the account id.
func (c *Client) SubscribeOrderFills(ctx context.Context) (*wsrpc.Subscription, error) {
	return c.rpc.Subscribe(ctx, "lp_subscribe_order_fills", nil, "lp_unsubscribe_order_fills")
}

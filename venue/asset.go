// Copyright (c) 2025 BVK Chaitanya

// Package venue defines the data types shared between the swap venue's RPC
// clients and the market-making engine.
package venue

import (
	"fmt"
	"strings"
)

// Asset identifies an on-chain asset on the venue, for example,
// {"chain":"Bitcoin","asset":"BTC"}.
type Asset struct {
	Chain  string `json:"chain"`
	Symbol string `json:"asset"`
}

func (a Asset) String() string {
	return a.Chain + "." + a.Symbol
}

func (a Asset) IsZero() bool {
	return a.Chain == "" && a.Symbol == ""
}

func (a Asset) Check() error {
	if a.Chain == "" || a.Symbol == "" {
		return fmt.Errorf("asset %q must have both chain and symbol", a)
	}
	return nil
}

// ParseAsset parses a "Chain.SYMBOL" string, e.g., "Bitcoin.BTC".
func ParseAsset(s string) (Asset, error) {
	chain, symbol, ok := strings.Cut(s, ".")
	if !ok {
		return Asset{}, fmt.Errorf("asset %q must be in Chain.SYMBOL format", s)
	}
	a := Asset{Chain: chain, Symbol: symbol}
	if err := a.Check(); err != nil {
		return Asset{}, err
	}
	return a, nil
}

// Side indicates the direction of a swap or an order with respect to the base
// asset of the trading pair.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func (s Side) Check() error {
	if s != SideBuy && s != SideSell {
		return fmt.Errorf("side %q must be %q or %q", s, SideBuy, SideSell)
	}
	return nil
}

// Opposite returns the counter side, which is the side this service takes
// when providing liquidity against taker flow.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// AssetPair identifies a trading pair (pool) on the venue.
type AssetPair struct {
	Base  Asset `json:"base_asset"`
	Quote Asset `json:"quote_asset"`
}

func (p AssetPair) String() string {
	return p.Base.String() + "-" + p.Quote.String()
}

func (p AssetPair) Check() error {
	if err := p.Base.Check(); err != nil {
		return err
	}
	if err := p.Quote.Check(); err != nil {
		return err
	}
	if p.Base == p.Quote {
		return fmt.Errorf("pair %q base and quote cannot be the same asset", p)
	}
	return nil
}

// ParsePair parses a "Chain.SYMBOL-Chain.SYMBOL" string, e.g.,
// "Bitcoin.BTC-Ethereum.USDC".
func ParsePair(s string) (AssetPair, error) {
	base, quote, ok := strings.Cut(s, "-")
	if !ok {
		return AssetPair{}, fmt.Errorf("pair %q must be in BASE-QUOTE format", s)
	}
	b, err := ParseAsset(base)
	if err != nil {
		return AssetPair{}, err
	}
	q, err := ParseAsset(quote)
	if err != nil {
		return AssetPair{}, err
	}
	return AssetPair{Base: b, Quote: q}, nil
}

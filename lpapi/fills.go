// Copyright (c) 2025 BVK Chaitanya

package lpapi

import (
	"encoding/json"
	"fmt"

	"github.com/bvk/lpbot/venue"
)

// LimitOrderFill describes a (partial or full) execution of a resting limit
// order. Sold and Bought are denominated in the order's sell and buy assets
// respectively.
type LimitOrderFill struct {
	LP string `json:"lp"`

	BaseAsset  venue.Asset `json:"base_asset"`
	QuoteAsset venue.Asset `json:"quote_asset"`

	Side venue.Side    `json:"side"`
	ID   venue.OrderID `json:"id"`
	Tick int32         `json:"tick"`

	Sold   venue.Amount `json:"sold"`
	Bought venue.Amount `json:"bought"`
}

func (v *LimitOrderFill) Check() error {
	if v.LP == "" {
		return fmt.Errorf("fill lp account cannot be empty")
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
	if v.Sold.Sign() < 0 || v.Bought.Sign() < 0 {
		return fmt.Errorf("fill amounts cannot be negative")
	}
	return nil
}

func (v *LimitOrderFill) Pair() venue.AssetPair {
	return venue.AssetPair{Base: v.BaseAsset, Quote: v.QuoteAsset}
}

// Fill is one entry of a fills notification. Exactly one of the fields is
// set. Range order fills are reported by the venue, but carry no meaning for
// a limit-order strategy and are ignored downstream.
type Fill struct {
	LimitOrder *LimitOrderFill `json:"limit_order"`
	RangeOrder json.RawMessage `json:"range_order"`
}

// FillsUpdate is the payload of one order-fills notification. Fills from all
// LP accounts on the venue are included.
type FillsUpdate struct {
	BlockHash   string `json:"block_hash"`
	BlockNumber uint64 `json:"block_number"`

	Fills []Fill `json:"fills"`
}

func (v *FillsUpdate) Check() error {
	for i := range v.Fills {
		fill := &v.Fills[i]
		if fill.LimitOrder == nil && fill.RangeOrder == nil {
			return fmt.Errorf("fill at index %d has no order data", i)
		}
		if fill.LimitOrder != nil {
			if err := fill.LimitOrder.Check(); err != nil {
				return fmt.Errorf("invalid limit order fill at index %d: %w", i, err)
			}
		}
	}
	return nil
}

// ParseFillsUpdate decodes and validates one order-fills notification
// payload.
func ParseFillsUpdate(msg json.RawMessage) (*FillsUpdate, error) {
	update := new(FillsUpdate)
	if err := json.Unmarshal(msg, update); err != nil {
		return nil, fmt.Errorf("could not unmarshal order fills payload: %w", err)
	}
	if err := update.Check(); err != nil {
		return nil, err
	}
	return update, nil
}

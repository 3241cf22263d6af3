// Copyright (c) 2025 BVK Chaitanya

package venue

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SwapEvent is a normalized pending swap intent observed on the venue. SwapID
// is unique for the lifetime of the venue and is the deduplication key.
type SwapEvent struct {
	SwapID uint64

	BaseAsset  Asset
	QuoteAsset Asset

	// Side of the swap from the taker's point of view with respect to the
	// base asset.
	Side Side

	// Amount of the asset being sold by the taker, in smallest units.
	Amount decimal.Decimal
}

func (v *SwapEvent) Check() error {
	if v.SwapID == 0 {
		return fmt.Errorf("swap id cannot be zero")
	}
	if err := v.BaseAsset.Check(); err != nil {
		return err
	}
	if err := v.QuoteAsset.Check(); err != nil {
		return err
	}
	if err := v.Side.Check(); err != nil {
		return err
	}
	if !v.Amount.IsPositive() {
		return fmt.Errorf("swap %d amount %s must be positive", v.SwapID, v.Amount)
	}
	return nil
}

func (v *SwapEvent) Pair() AssetPair {
	return AssetPair{Base: v.BaseAsset, Quote: v.QuoteAsset}
}

// FillEvent is a notification that one of this service's resting limit orders
// was matched (partially or fully) against incoming flow.
type FillEvent struct {
	// LP is the account that owns the filled order.
	LP string

	OrderID OrderID

	BaseAsset  Asset
	QuoteAsset Asset

	Side Side

	// Sold and Bought are the amounts exchanged by this fill, in smallest
	// units of the respective assets.
	Sold   decimal.Decimal
	Bought decimal.Decimal
}

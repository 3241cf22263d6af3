// Copyright (c) 2025 BVK Chaitanya

package venue

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount holds an asset amount in the asset's smallest unit. The venue
// serializes amounts either as JSON numbers or as 0x-prefixed hex strings, so
// we accept both on the way in and emit hex on the way out.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.IsInteger() || a.IsNegative() {
		return nil, fmt.Errorf("amount %s must be a non-negative integer", a)
	}
	return json.Marshal("0x" + a.BigInt().Text(16))
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case string:
		if hex, ok := strings.CutPrefix(x, "0x"); ok {
			i, ok := new(big.Int).SetString(hex, 16)
			if !ok {
				return fmt.Errorf("amount %q is not a valid hex quantity", x)
			}
			a.Decimal = decimal.NewFromBigInt(i, 0)
			return nil
		}
		d, err := decimal.NewFromString(x)
		if err != nil {
			return fmt.Errorf("amount %q is not a valid decimal: %w", x, err)
		}
		a.Decimal = d
	case float64:
		a.Decimal = decimal.NewFromFloat(x)
	default:
		return fmt.Errorf("amount must be a number or a hex string (got %T)", v)
	}
	return nil
}

// OrderID is an LP-chosen resting order identifier. The venue serializes
// order ids either as JSON numbers or as 0x-prefixed hex strings.
type OrderID uint64

func (v OrderID) String() string {
	return fmt.Sprintf("%d", uint64(v))
}

func (v OrderID) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint64(v))
}

func (v *OrderID) UnmarshalJSON(data []byte) error {
	var x any
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	switch id := x.(type) {
	case string:
		hex, ok := strings.CutPrefix(id, "0x")
		if !ok {
			return fmt.Errorf("order id %q is not a hex quantity", id)
		}
		i, ok := new(big.Int).SetString(hex, 16)
		if !ok || !i.IsUint64() {
			return fmt.Errorf("order id %q is not a valid uint64 quantity", id)
		}
		*v = OrderID(i.Uint64())
	case float64:
		if id < 0 || id != float64(uint64(id)) {
			return fmt.Errorf("order id %v is not a valid uint64", id)
		}
		*v = OrderID(uint64(id))
	default:
		return fmt.Errorf("order id must be a number or a hex string (got %T)", x)
	}
	return nil
}

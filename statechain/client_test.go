// Copyright (c) 2025 BVK Chaitanya

package statechain

import (
	"encoding/json"
	"testing"
)

func TestParseSwapsUpdate(t *testing.T) {
	payload := `{
	  "block_hash": "0xdeadbeef",
	  "block_number": 12345,
	  "swaps": [
	    {
	      "swap_id": 1,
	      "swap_request_id": 10,
	      "base_asset": {"chain": "Ethereum", "asset": "ETH"},
	      "quote_asset": {"chain": "Ethereum", "asset": "USDC"},
	      "side": "buy",
	      "amount": "0x7a120",
	      "execute_at": 12350,
	      "remaining_chunks": 0,
	      "chunk_interval": 0
	    }
	  ]
	}`

	update, err := ParseSwapsUpdate(json.RawMessage(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(update.Swaps) != 1 {
		t.Fatalf("want 1 swap, got %d", len(update.Swaps))
	}
	swap := update.Swaps[0]
	if swap.SwapID != 1 {
		t.Fatalf("want swap id 1, got %d", swap.SwapID)
	}
	if swap.BaseAsset.Symbol != "ETH" || swap.QuoteAsset.Symbol != "USDC" {
		t.Fatalf("unexpected assets: %v %v", swap.BaseAsset, swap.QuoteAsset)
	}
	if want := "500000"; swap.Amount.String() != want {
		t.Fatalf("want amount %s, got %s", want, swap.Amount)
	}
}

func TestParseSwapsUpdateInvalid(t *testing.T) {
	payloads := []string{
		`not json`,
		`{"swaps": [{"swap_id": 0, "base_asset": {"chain": "Ethereum", "asset": "ETH"}, "quote_asset": {"chain": "Ethereum", "asset": "USDC"}, "side": "buy", "amount": "0x1"}]}`,
		`{"swaps": [{"swap_id": 2, "base_asset": {"chain": "Ethereum", "asset": "ETH"}, "quote_asset": {"chain": "Ethereum", "asset": "USDC"}, "side": "sideways", "amount": "0x1"}]}`,
		`{"swaps": [{"swap_id": 3, "base_asset": {"chain": "Ethereum", "asset": "ETH"}, "quote_asset": {"chain": "Ethereum", "asset": "USDC"}, "side": "sell", "amount": "0x0"}]}`,
		`{"swaps": [{"swap_id": 4, "base_asset": {"chain": "", "asset": ""}, "quote_asset": {"chain": "Ethereum", "asset": "USDC"}, "side": "sell", "amount": "0x1"}]}`,
	}
	for i, payload := range payloads {
		if _, err := ParseSwapsUpdate(json.RawMessage(payload)); err == nil {
			t.Fatalf("payload %d: want an error, got nil", i)
		}
	}
}

func TestParsePoolPriceUpdate(t *testing.T) {
	payload := `{"price": "0x10000000000000000", "sqrt_price": "0x1000000000000000000000000", "tick": 0}`
	update, err := ParsePoolPriceUpdate(json.RawMessage(payload))
	if err != nil {
		t.Fatal(err)
	}
	if update.Tick != 0 {
		t.Fatalf("want tick 0, got %d", update.Tick)
	}
	if update.Price.Sign() <= 0 {
		t.Fatalf("want a positive price, got %s", update.Price)
	}
}

// Copyright (c) 2025 BVK Chaitanya

package lpapi

import (
	"encoding/json"
	"testing"
)

func TestParseFillsUpdate(t *testing.T) {
	payload := `{
	  "block_hash": "0xabc",
	  "block_number": 777,
	  "fills": [
	    {
	      "limit_order": {
	        "lp": "cFLPAccount111",
	        "base_asset": {"chain": "Ethereum", "asset": "ETH"},
	        "quote_asset": {"chain": "Ethereum", "asset": "USDC"},
	        "side": "sell",
	        "id": "0x12d5",
	        "tick": 0,
	        "sold": "0x7a120",
	        "bought": "0x7a120"
	      }
	    },
	    {
	      "range_order": {"lp": "cFLPAccount222", "id": "0x1"}
	    }
	  ]
	}`

	update, err := ParseFillsUpdate(json.RawMessage(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(update.Fills) != 2 {
		t.Fatalf("want 2 fills, got %d", len(update.Fills))
	}

	fill := update.Fills[0].LimitOrder
	if fill == nil {
		t.Fatalf("want a limit order fill, got %+v", update.Fills[0])
	}
	if fill.LP != "cFLPAccount111" {
		t.Fatalf("want lp cFLPAccount111, got %q", fill.LP)
	}
	if fill.ID != 4821 {
		t.Fatalf("want order id 4821, got %d", fill.ID)
	}
	if want := "500000"; fill.Sold.String() != want {
		t.Fatalf("want sold %s, got %s", want, fill.Sold)
	}

	if update.Fills[1].LimitOrder != nil {
		t.Fatalf("want a range order fill, got %+v", update.Fills[1])
	}
}

func TestParseFillsUpdateInvalid(t *testing.T) {
	payloads := []string{
		`not json`,
		`{"fills": [{}]}`,
		`{"fills": [{"limit_order": {"lp": "", "base_asset": {"chain": "Ethereum", "asset": "ETH"}, "quote_asset": {"chain": "Ethereum", "asset": "USDC"}, "side": "sell", "id": 1}}]}`,
		`{"fills": [{"limit_order": {"lp": "cFLP", "base_asset": {"chain": "Ethereum", "asset": "ETH"}, "quote_asset": {"chain": "Ethereum", "asset": "USDC"}, "side": "diagonal", "id": 1}}]}`,
	}
	for i, payload := range payloads {
		if _, err := ParseFillsUpdate(json.RawMessage(payload)); err == nil {
			t.Fatalf("payload %d: want an error, got nil", i)
		}
	}
}

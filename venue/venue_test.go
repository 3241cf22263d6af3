// Copyright (c) 2025 BVK Chaitanya

package venue

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePair(t *testing.T) {
	p, err := ParsePair("Bitcoin.BTC-Ethereum.USDC")
	if err != nil {
		t.Fatal(err)
	}
	if p.Base.Chain != "Bitcoin" || p.Base.Symbol != "BTC" {
		t.Fatalf("wanted Bitcoin.BTC, got %v", p.Base)
	}
	if p.Quote.Chain != "Ethereum" || p.Quote.Symbol != "USDC" {
		t.Fatalf("wanted Ethereum.USDC, got %v", p.Quote)
	}

	for _, bad := range []string{"", "BTC", "Bitcoin.BTC", "Bitcoin.BTC-Bitcoin.BTC", "BTC-USDC"} {
		if _, err := ParsePair(bad); err == nil {
			t.Fatalf("wanted non-nil error for %q", bad)
		}
	}
}

func TestAmountJSON(t *testing.T) {
	var a Amount
	if err := json.Unmarshal([]byte(`"0x7a120"`), &a); err != nil {
		t.Fatal(err)
	}
	if !a.Equal(decimal.NewFromInt(500000)) {
		t.Fatalf("wanted 500000, got %s", a)
	}

	if err := json.Unmarshal([]byte(`500000`), &a); err != nil {
		t.Fatal(err)
	}
	if x := a.String(); x != "500000" {
		t.Fatalf("wanted 500000, got %s", x)
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"0x7a120"` {
		t.Fatalf(`wanted "0x7a120", got %s`, data)
	}

	if err := json.Unmarshal([]byte(`"0xzz"`), &a); err == nil {
		t.Fatal("wanted non-nil error for invalid hex")
	}
	if err := json.Unmarshal([]byte(`{"x":1}`), &a); err == nil {
		t.Fatal("wanted non-nil error for object")
	}
}

func TestOrderIDJSON(t *testing.T) {
	var id OrderID
	if err := json.Unmarshal([]byte(`4821`), &id); err != nil {
		t.Fatal(err)
	}
	if id != 4821 {
		t.Fatalf("wanted 4821, got %v", id)
	}
	if err := json.Unmarshal([]byte(`"0x12d5"`), &id); err != nil {
		t.Fatal(err)
	}
	if id != 4821 {
		t.Fatalf("wanted 4821, got %v", id)
	}
	if err := json.Unmarshal([]byte(`"4821"`), &id); err == nil {
		t.Fatal("wanted non-nil error for non-hex string")
	}
}

func TestSideOpposite(t *testing.T) {
	if SideBuy.Opposite() != SideSell {
		t.Fatalf("wanted sell, got %v", SideBuy.Opposite())
	}
	if SideSell.Opposite() != SideBuy {
		t.Fatalf("wanted buy, got %v", SideSell.Opposite())
	}
}

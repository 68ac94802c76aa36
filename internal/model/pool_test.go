package model

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func testPool() PoolSnapshot {
	return PoolSnapshot{
		Token0:   Token{ChainID: 56, Address: common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"), Decimals: 18, Symbol: "USDT"},
		Token1:   Token{ChainID: 56, Address: common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"), Decimals: 18, Symbol: "WBNB"},
		Reserve0: big.NewRat(600, 1),
		Reserve1: big.NewRat(1, 1),
	}
}

func TestPoolLookup(t *testing.T) {
	p := testPool()
	cases := []struct {
		selector string
		want     string
		ok       bool
	}{
		{"token0", "USDT", true},
		{"1", "WBNB", true},
		{"usdt", "USDT", true},
		{"0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c", "WBNB", true},
		{"0x0000000000000000000000000000000000000001", "", false},
		{"ETH", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		tok, ok := p.Lookup(tc.selector)
		if ok != tc.ok || (ok && tok.Symbol != tc.want) {
			t.Fatalf("Lookup(%q) = %s, %v", tc.selector, tok, ok)
		}
	}
}

func TestPoolSides(t *testing.T) {
	p := testPool()
	if p.Side(p.Token1) != 1 || p.Side(Token{}) != -1 {
		t.Fatalf("unexpected sides")
	}
	out, ok := p.Opposite(p.Token0)
	if !ok || !out.Equal(p.Token1) {
		t.Fatalf("opposite of token0 = %s", out)
	}
	r, ok := p.ReserveOf(p.Token1)
	if !ok || r.Cmp(big.NewRat(1, 1)) != 0 {
		t.Fatalf("reserve of token1 = %v", r)
	}
	if _, ok := p.ReserveOf(Token{ChainID: 56}); ok {
		t.Fatalf("expected unknown token")
	}
	// same address on another chain is a different token
	other := p.Token0
	other.ChainID = 1
	if p.Side(other) != -1 {
		t.Fatalf("chain id ignored")
	}
}

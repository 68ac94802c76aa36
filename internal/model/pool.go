package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Snapshot sources.
const (
	SourceRPC      = "rpc"
	SourcePostgres = "postgres"
	SourceStatic   = "static"
)

// PoolSnapshot is the state of a two-token pool at a point in time.
// Reserves are exact amounts in token units.
type PoolSnapshot struct {
	Pair        common.Address
	Token0      Token
	Token1      Token
	Reserve0    *big.Rat
	Reserve1    *big.Rat
	BlockNumber uint64
	Timestamp   time.Time
	Source      string
}

// Side returns 0 or 1 for a pool token, or -1 when the token is not in the pool.
func (p PoolSnapshot) Side(token Token) int {
	switch {
	case token.Equal(p.Token0):
		return 0
	case token.Equal(p.Token1):
		return 1
	default:
		return -1
	}
}

// Opposite returns the other pool token.
func (p PoolSnapshot) Opposite(token Token) (Token, bool) {
	switch p.Side(token) {
	case 0:
		return p.Token1, true
	case 1:
		return p.Token0, true
	default:
		return Token{}, false
	}
}

// ReserveOf returns the reserve held for token.
func (p PoolSnapshot) ReserveOf(token Token) (*big.Rat, bool) {
	switch p.Side(token) {
	case 0:
		return p.Reserve0, p.Reserve0 != nil
	case 1:
		return p.Reserve1, p.Reserve1 != nil
	default:
		return nil, false
	}
}

// Lookup resolves a selector ("token0", "token1", a symbol or an address)
// against the pool tokens.
func (p PoolSnapshot) Lookup(selector string) (Token, bool) {
	switch selector {
	case "token0", "0":
		return p.Token0, true
	case "token1", "1":
		return p.Token1, true
	}
	if p.Token0.Matches(selector) {
		return p.Token0, true
	}
	if p.Token1.Matches(selector) {
		return p.Token1, true
	}
	return Token{}, false
}

package model

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Token identifies an ERC20 token on a chain.
type Token struct {
	ChainID  uint64         `json:"chain_id"`
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol"`
}

// Equal reports whether both tokens refer to the same contract on the same chain.
func (t Token) Equal(other Token) bool {
	return t.ChainID == other.ChainID && t.Address == other.Address
}

// Matches reports whether selector names this token by symbol or address.
func (t Token) Matches(selector string) bool {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return false
	}
	if common.IsHexAddress(selector) {
		return common.HexToAddress(selector) == t.Address
	}
	return strings.EqualFold(selector, t.Symbol)
}

func (t Token) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address.Hex()
}

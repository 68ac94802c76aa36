package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pairScope/internal/model"
)

// ContractCaller performs eth_call requests. *chain.Client implements it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reserves is the raw result of a pair getReserves call.
type Reserves struct {
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
}

// TokenMetaCache caches on-chain token metadata by address.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.Token
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[common.Address]model.Token)}
}

func (c *TokenMetaCache) Get(address common.Address) (model.Token, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *TokenMetaCache) Set(address common.Address, meta model.Token) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// FetchPairTokens reads token0 and token1 of a V2 pair.
func FetchPairTokens(ctx context.Context, caller ContractCaller, pair common.Address) (common.Address, common.Address, error) {
	pairABI, err := V2PairABI()
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("parse pair abi: %w", err)
	}

	values, err := callPairMethod(ctx, caller, pair, pairABI, "token0", nil)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token0, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callPairMethod(ctx, caller, pair, pairABI, "token1", nil)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	token1, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("token1: %w", err)
	}
	return token0, token1, nil
}

// FetchReserves reads the pair reserves at block, or at the latest block when nil.
func FetchReserves(ctx context.Context, caller ContractCaller, pair common.Address, block *big.Int) (Reserves, error) {
	pairABI, err := V2PairABI()
	if err != nil {
		return Reserves{}, fmt.Errorf("parse pair abi: %w", err)
	}
	values, err := callPairMethod(ctx, caller, pair, pairABI, "getReserves", block)
	if err != nil {
		return Reserves{}, err
	}
	if len(values) < 3 {
		return Reserves{}, fmt.Errorf("getReserves: expected 3 values, got %d", len(values))
	}
	r0, err := asBigInt(values[0])
	if err != nil {
		return Reserves{}, fmt.Errorf("reserve0: %w", err)
	}
	r1, err := asBigInt(values[1])
	if err != nil {
		return Reserves{}, fmt.Errorf("reserve1: %w", err)
	}
	ts, err := asBigInt(values[2])
	if err != nil {
		return Reserves{}, fmt.Errorf("block timestamp: %w", err)
	}
	return Reserves{Reserve0: r0, Reserve1: r1, BlockTimestampLast: uint32(ts.Uint64())}, nil
}

func callPairMethod(ctx context.Context, caller ContractCaller, pair common.Address, pairABI abi.ABI, method string, block *big.Int) ([]interface{}, error) {
	data, err := pairABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &pair, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := pairABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// FetchTokenMeta loads decimals and symbol via ERC20 calls. Tokens returning
// the symbol as bytes32 are supported.
func FetchTokenMeta(ctx context.Context, caller ContractCaller, chainID uint64, token common.Address, logger *zap.Logger) (model.Token, error) {
	meta := model.Token{ChainID: chainID, Address: token}
	if caller == nil {
		return meta, fmt.Errorf("contract caller is nil")
	}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := caller.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		return values, nil
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := call("symbol", stringABI); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := call("symbol", bytes32ABI); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else if logger != nil {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

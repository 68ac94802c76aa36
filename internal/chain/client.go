package chain

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client wraps go-ethereum RPC with throttling and retries.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	limiter *rate.Limiter
	retry   retryPolicy

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// Option configures a Client.
type Option func(*Client)

// WithRateLimit caps outgoing requests per second. Zero or less disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetry sets how often a failed call is retried and the first backoff delay.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.retry.maxRetries = maxRetries
		c.retry.baseDelay = baseDelay
	}
}

// WithLogger logs retried calls.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.retry.logger = logger
	}
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string, opts ...Option) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return NewClientFromRPC(rpcClient, opts...), nil
}

// NewClientFromRPC wraps an existing RPC client.
func NewClientFromRPC(rpcClient *rpc.Client, opts ...Option) *Client {
	c := &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		retry: retryPolicy{
			maxRetries: 3,
			baseDelay:  200 * time.Millisecond,
			logger:     zap.NewNop(),
		},
		tsCache: make(map[uint64]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// GetChainID returns the chain ID.
func (c *Client) GetChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.do(ctx, "eth_chainId", func(ctx context.Context) error {
		var err error
		id, err = c.ethClient.ChainID(ctx)
		return err
	})
	return id, err
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	var number uint64
	err := c.do(ctx, "eth_blockNumber", func(ctx context.Context) error {
		var err error
		number, err = c.ethClient.BlockNumber(ctx)
		return err
	})
	return number, err
}

// HeaderByNumber returns the block header by number.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var header *types.Header
	err := c.do(ctx, "eth_getBlockByNumber", func(ctx context.Context) error {
		var err error
		header, err = c.ethClient.HeaderByNumber(ctx, number)
		return err
	})
	return header, err
}

// BlockTimestamp returns the block timestamp, using an in-memory cache.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, err
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[number] = ts
	c.mu.Unlock()

	return ts, nil
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	err := c.do(ctx, "eth_call", func(ctx context.Context) error {
		var err error
		out, err = c.ethClient.CallContract(ctx, msg, blockNumber)
		return err
	})
	return out, err
}

func (c *Client) do(ctx context.Context, op string, fn func(context.Context) error) error {
	return c.retry.run(ctx, op, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		return fn(ctx)
	})
}

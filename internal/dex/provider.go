package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"pairScope/internal/model"
)

// ErrPairMismatch is returned when the pair contract does not hold the
// configured tokens in the configured order.
var ErrPairMismatch = errors.New("pair tokens do not match configuration")

const (
	snapshotKey         = "snapshot"
	defaultFetchTimeout = 30 * time.Second
)

// ChainReader is the subset of *chain.Client used by ChainProvider.
type ChainReader interface {
	ContractCaller
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// ProviderConfig describes the pair served by a ChainProvider.
type ProviderConfig struct {
	Pair         common.Address
	Token0       model.Token
	Token1       model.Token
	CacheTTL     time.Duration
	FetchTimeout time.Duration
}

// ChainProvider reads pool snapshots from a Uniswap V2 pair contract.
type ChainProvider struct {
	client ChainReader
	cfg    ProviderConfig
	logger *zap.Logger

	cache  *cache.Cache
	group  singleflight.Group
	tokens *TokenMetaCache

	mu       sync.Mutex
	verified bool
}

func NewChainProvider(client ChainReader, cfg ProviderConfig, logger *zap.Logger) *ChainProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	return &ChainProvider{
		client: client,
		cfg:    cfg,
		logger: logger,
		cache:  cache.New(cfg.CacheTTL, 10*time.Minute),
		tokens: NewTokenMetaCache(),
	}
}

// Snapshot returns the cached snapshot or reads a fresh one. Concurrent
// callers share a single read, which is bounded by FetchTimeout and survives
// the cancellation of whichever caller started it.
func (p *ChainProvider) Snapshot(ctx context.Context) (*model.PoolSnapshot, error) {
	if cached, ok := p.cache.Get(snapshotKey); ok {
		snap := cached.(model.PoolSnapshot)
		return &snap, nil
	}
	ch := p.group.DoChan(snapshotKey, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.FetchTimeout)
		defer cancel()
		snap, err := p.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		p.cache.SetDefault(snapshotKey, snap)
		return snap, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		snap := res.Val.(model.PoolSnapshot)
		return &snap, nil
	}
}

// Invalidate drops the cached snapshot.
func (p *ChainProvider) Invalidate() {
	p.cache.Delete(snapshotKey)
}

func (p *ChainProvider) fetch(ctx context.Context) (model.PoolSnapshot, error) {
	if err := p.verify(ctx); err != nil {
		return model.PoolSnapshot{}, err
	}

	block, err := p.client.LatestBlockNumber(ctx)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("latest block: %w", err)
	}
	reserves, err := FetchReserves(ctx, p.client, p.cfg.Pair, new(big.Int).SetUint64(block))
	if err != nil {
		return model.PoolSnapshot{}, err
	}

	ts := time.Now().UTC()
	if sec, err := p.client.BlockTimestamp(ctx, block); err == nil {
		ts = time.Unix(int64(sec), 0).UTC()
	} else {
		p.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", block))
	}

	snap := model.PoolSnapshot{
		Pair:        p.cfg.Pair,
		Token0:      p.cfg.Token0,
		Token1:      p.cfg.Token1,
		Reserve0:    model.FromRaw(reserves.Reserve0, p.cfg.Token0.Decimals),
		Reserve1:    model.FromRaw(reserves.Reserve1, p.cfg.Token1.Decimals),
		BlockNumber: block,
		Timestamp:   ts,
		Source:      model.SourceRPC,
	}
	p.logger.Debug("pool snapshot",
		zap.String("pair", p.cfg.Pair.Hex()),
		zap.Uint64("block_number", block),
		zap.String("reserve0", reserves.Reserve0.String()),
		zap.String("reserve1", reserves.Reserve1.String()),
	)
	return snap, nil
}

// verify checks the pair tokens once. Metadata mismatches are logged, the
// configured values stay authoritative.
func (p *ChainProvider) verify(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.verified {
		return nil
	}

	token0, token1, err := FetchPairTokens(ctx, p.client, p.cfg.Pair)
	if err != nil {
		return err
	}
	if token0 != p.cfg.Token0.Address || token1 != p.cfg.Token1.Address {
		return fmt.Errorf("%w: pair has %s/%s, configured %s/%s", ErrPairMismatch,
			token0.Hex(), token1.Hex(), p.cfg.Token0.Address.Hex(), p.cfg.Token1.Address.Hex())
	}

	for _, tok := range []model.Token{p.cfg.Token0, p.cfg.Token1} {
		p.checkToken(ctx, tok)
	}
	p.verified = true
	return nil
}

func (p *ChainProvider) checkToken(ctx context.Context, configured model.Token) {
	onchain, ok := p.tokens.Get(configured.Address)
	if !ok {
		var err error
		onchain, err = FetchTokenMeta(ctx, p.client, configured.ChainID, configured.Address, p.logger)
		if err != nil {
			p.logger.Warn("token metadata fetch failed", zap.String("token", configured.Address.Hex()), zap.Error(err))
			return
		}
		p.tokens.Set(configured.Address, onchain)
	}
	if onchain.Decimals != configured.Decimals {
		p.logger.Warn("token decimals differ from configuration",
			zap.String("token", configured.Address.Hex()),
			zap.Uint8("configured", configured.Decimals),
			zap.Uint8("onchain", onchain.Decimals),
		)
	}
	if onchain.Symbol != "" && !strings.EqualFold(onchain.Symbol, configured.Symbol) {
		p.logger.Warn("token symbol differs from configuration",
			zap.String("token", configured.Address.Hex()),
			zap.String("configured", configured.Symbol),
			zap.String("onchain", onchain.Symbol),
		)
	}
}

// Token returns the on-chain metadata seen for address, if it was fetched.
func (p *ChainProvider) Token(address common.Address) (model.Token, bool) {
	return p.tokens.Get(address)
}

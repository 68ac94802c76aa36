package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairScope/internal/model"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads pair snapshots and window metrics written by the indexer.
type Store struct {
	pool *pgxpool.Pool
	q    querier
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, q: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// RawReserves is the latest reserves row for a pair, in raw units.
type RawReserves struct {
	BlockNumber uint64
	BlockTime   time.Time
	Reserve0    *big.Int
	Reserve1    *big.Int
}

// LatestReserves returns the most recent pair_snapshots row. found is false
// when the pair has no rows yet.
func (s *Store) LatestReserves(ctx context.Context, chainID uint64, pair common.Address) (RawReserves, bool, error) {
	var (
		block    int64
		ts       time.Time
		r0s, r1s string
		out      RawReserves
	)
	row := s.q.QueryRow(ctx, `
		SELECT block_number, block_ts, reserve0::text, reserve1::text
		FROM pair_snapshots
		WHERE chain_id = $1 AND lower(pair_address) = $2
		ORDER BY block_number DESC
		LIMIT 1
	`, int64(chainID), addressKey(pair))
	if err := row.Scan(&block, &ts, &r0s, &r1s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return out, false, nil
		}
		return out, false, fmt.Errorf("latest reserves: %w", err)
	}

	r0, err := parseRaw(r0s)
	if err != nil {
		return out, false, fmt.Errorf("reserve0: %w", err)
	}
	r1, err := parseRaw(r1s)
	if err != nil {
		return out, false, fmt.Errorf("reserve1: %w", err)
	}
	out = RawReserves{BlockNumber: uint64(block), BlockTime: ts.UTC(), Reserve0: r0, Reserve1: r1}
	return out, true, nil
}

// WindowStats sums pool_window_metrics for windows inside [since, until),
// using the finest window size stored for the pair.
func (s *Store) WindowStats(ctx context.Context, pair common.Address, token0, token1 model.Token, since, until time.Time) (model.WindowStats, error) {
	var (
		swaps                    int64
		vol0, vol1, fee0s, fee1s string
	)
	row := s.q.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(swap_count), 0)::bigint,
			COALESCE(SUM(volume0::numeric), 0)::text,
			COALESCE(SUM(volume1::numeric), 0)::text,
			COALESCE(SUM(fee0::numeric), 0)::text,
			COALESCE(SUM(fee1::numeric), 0)::text
		FROM pool_window_metrics
		WHERE chain_id = $1
			AND lower(pool_address) = $2
			AND window_start_ts >= $3
			AND window_end_ts <= $4
			AND window_size_seconds = (
				SELECT MIN(window_size_seconds) FROM pool_window_metrics
				WHERE chain_id = $1 AND lower(pool_address) = $2
			)
	`, int64(token0.ChainID), addressKey(pair), since.UTC(), until.UTC())
	if err := row.Scan(&swaps, &vol0, &vol1, &fee0s, &fee1s); err != nil {
		return model.WindowStats{}, fmt.Errorf("window stats: %w", err)
	}

	stats := model.WindowStats{Since: since.UTC(), Until: until.UTC(), SwapCount: uint64(swaps)}
	values := []struct {
		text     string
		decimals uint8
		dst      **big.Rat
	}{
		{vol0, token0.Decimals, &stats.Volume0},
		{vol1, token1.Decimals, &stats.Volume1},
		{fee0s, token0.Decimals, &stats.Fee0},
		{fee1s, token1.Decimals, &stats.Fee1},
	}
	for _, v := range values {
		raw, err := parseRaw(v.text)
		if err != nil {
			return model.WindowStats{}, err
		}
		*v.dst = model.FromRaw(raw, v.decimals)
	}
	return stats, nil
}

// Provider serves the latest stored reserves of pair as pool snapshots.
func (s *Store) Provider(pair common.Address, token0, token1 model.Token) *PairProvider {
	return &PairProvider{store: s, pair: pair, token0: token0, token1: token1}
}

// PairProvider adapts Store to the calculator's pool provider.
type PairProvider struct {
	store  *Store
	pair   common.Address
	token0 model.Token
	token1 model.Token
}

// Snapshot returns nil, nil until the pair has a stored row.
func (p *PairProvider) Snapshot(ctx context.Context) (*model.PoolSnapshot, error) {
	raw, found, err := p.store.LatestReserves(ctx, p.token0.ChainID, p.pair)
	if err != nil {
		return nil, fmt.Errorf("load pair snapshot: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &model.PoolSnapshot{
		Pair:        p.pair,
		Token0:      p.token0,
		Token1:      p.token1,
		Reserve0:    model.FromRaw(raw.Reserve0, p.token0.Decimals),
		Reserve1:    model.FromRaw(raw.Reserve1, p.token1.Decimals),
		BlockNumber: raw.BlockNumber,
		Timestamp:   raw.BlockTime,
		Source:      model.SourcePostgres,
	}, nil
}

func addressKey(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// parseRaw parses a numeric column rendered as text. Fractional digits are
// dropped since raw amounts are integral.
func parseRaw(text string) (*big.Int, error) {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '.'); i >= 0 {
		text = text[:i]
	}
	if text == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric %q", text)
	}
	return v, nil
}

// Package overview builds the pair header: exchange rates, reserves and
// recent volume and fees.
package overview

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pairScope/internal/calc"
	"pairScope/internal/model"
)

// feeRate is the LP fee charged on volume.
var feeRate = big.NewRat(3, 1000)

// Overview summarizes a pair at one snapshot. Token0Rate is the price of
// one token0 in token1 and Token1Rate the inverse; both are nil when a
// reserve is empty.
type Overview struct {
	Pair        common.Address
	Token0      model.Token
	Token1      model.Token
	Reserve0    *big.Rat
	Reserve1    *big.Rat
	Token0Rate  *big.Rat
	Token1Rate  *big.Rat
	BlockNumber uint64
	Timestamp   time.Time
	Source      string
	Window      *Window
}

// Window is volume and fee activity over a recent period. FeesEstimated is
// set when fees were derived from volume.
type Window struct {
	Since         time.Time
	Until         time.Time
	SwapCount     uint64
	Volume0       *big.Rat
	Volume1       *big.Rat
	Fees0         *big.Rat
	Fees1         *big.Rat
	FeesEstimated bool
}

// Build assembles an overview. stats may be nil.
func Build(snap model.PoolSnapshot, stats *model.WindowStats) Overview {
	out := Overview{
		Pair:        snap.Pair,
		Token0:      snap.Token0,
		Token1:      snap.Token1,
		Reserve0:    ratOrZero(snap.Reserve0),
		Reserve1:    ratOrZero(snap.Reserve1),
		BlockNumber: snap.BlockNumber,
		Timestamp:   snap.Timestamp,
		Source:      snap.Source,
	}
	if out.Reserve0.Sign() > 0 && out.Reserve1.Sign() > 0 {
		out.Token0Rate = new(big.Rat).Quo(out.Reserve1, out.Reserve0)
		out.Token1Rate = new(big.Rat).Quo(out.Reserve0, out.Reserve1)
	}
	if stats != nil {
		out.Window = buildWindow(*stats)
	}
	return out
}

func buildWindow(stats model.WindowStats) *Window {
	w := &Window{
		Since:     stats.Since,
		Until:     stats.Until,
		SwapCount: stats.SwapCount,
		Volume0:   ratOrZero(stats.Volume0),
		Volume1:   ratOrZero(stats.Volume1),
		Fees0:     ratOrZero(stats.Fee0),
		Fees1:     ratOrZero(stats.Fee1),
	}
	hasVolume := w.Volume0.Sign() > 0 || w.Volume1.Sign() > 0
	hasFees := w.Fees0.Sign() > 0 || w.Fees1.Sign() > 0
	if hasVolume && !hasFees {
		w.Fees0 = EstimateFees(w.Volume0)
		w.Fees1 = EstimateFees(w.Volume1)
		w.FeesEstimated = true
	}
	return w
}

// EstimateFees returns the LP fees earned on volume.
func EstimateFees(volume *big.Rat) *big.Rat {
	return new(big.Rat).Mul(ratOrZero(volume), feeRate)
}

func ratOrZero(r *big.Rat) *big.Rat {
	if r == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(r)
}

// StatsSource loads summed window metrics. *postgres.Store implements it.
type StatsSource interface {
	WindowStats(ctx context.Context, pair common.Address, token0, token1 model.Token, since, until time.Time) (model.WindowStats, error)
}

// Service builds overviews from live providers.
type Service struct {
	pools  calc.PoolProvider
	stats  StatsSource
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewService returns a Service. stats may be nil when no metrics store is configured.
func NewService(pools calc.PoolProvider, stats StatsSource, window time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Service{pools: pools, stats: stats, window: window, logger: logger, now: time.Now}
}

// Overview returns the current overview, or calc.ErrNotReady while the pool
// is loading. Stats failures only drop the window section.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	snap, err := s.pools.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, calc.ErrNotReady
	}

	var stats *model.WindowStats
	if s.stats != nil {
		until := s.now().UTC()
		ws, err := s.stats.WindowStats(ctx, snap.Pair, snap.Token0, snap.Token1, until.Add(-s.window), until)
		if err != nil {
			s.logger.Warn("window stats failed", zap.Error(err), zap.String("pair", snap.Pair.Hex()))
		} else {
			stats = &ws
		}
	}

	out := Build(*snap, stats)
	return &out, nil
}

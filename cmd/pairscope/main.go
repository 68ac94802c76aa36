package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pairScope/internal/calc"
	"pairScope/internal/chain"
	"pairScope/internal/config"
	"pairScope/internal/dex"
	"pairScope/internal/model"
	"pairScope/internal/overview"
	"pairScope/internal/storage/postgres"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pairscope",
		Short:        "DEX pair price impact calculator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	calcCmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate the price impact of one trade",
		RunE:  runCalc,
	}
	addPoolFlags(calcCmd)
	calcCmd.Flags().String("input", "token0", "input token (symbol, address, token0 or token1)")
	calcCmd.Flags().String("amount", "", "input amount in token units")
	calcCmd.Flags().String("max-impact", "1", "maximum acceptable price impact in percent")
	calcCmd.Flags().Bool("json", false, "print the result as JSON")
	root.AddCommand(calcCmd)

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Calculate trade requests from a JSONL file against one snapshot",
		RunE:  runBatch,
	}
	addPoolFlags(batchCmd)
	batchCmd.Flags().String("in", "", "input trade requests JSONL")
	batchCmd.Flags().String("out", "-", "output calculation records JSONL, - for stdout")
	batchCmd.Flags().Int("batch-size", 100, "records per write")
	root.AddCommand(batchCmd)

	pairCmd := &cobra.Command{
		Use:   "pair",
		Short: "Show the pair overview",
		RunE:  runPair,
	}
	addPoolFlags(pairCmd)
	pairCmd.Flags().Duration("stats-window", 24*time.Hour, "volume and fee window")
	pairCmd.Flags().Bool("json", false, "print the overview as JSON")
	root.AddCommand(pairCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE:  runServe,
	}
	addPoolFlags(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Duration("stats-window", 24*time.Hour, "volume and fee window")
	serveCmd.Flags().StringSlice("cors-origin", nil, "allowed CORS origins (comma-separated), all when empty")
	root.AddCommand(serveCmd)

	return root
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", model.SourceRPC, "pool data source (rpc, postgres, static)")
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("pair", "", "pair contract address")
	cmd.Flags().Uint64("chain-id", 56, "chain id")
	cmd.Flags().String("token0", "", "token0 as SYMBOL:ADDRESS:DECIMALS")
	cmd.Flags().String("token1", "", "token1 as SYMBOL:ADDRESS:DECIMALS")
	cmd.Flags().String("reserve0", "", "token0 reserve in token units (source static)")
	cmd.Flags().String("reserve1", "", "token1 reserve in token units (source static)")
	cmd.Flags().Int("max-retries", 3, "maximum retry attempts per RPC call")
	cmd.Flags().Duration("retry-backoff", 200*time.Millisecond, "initial retry backoff")
	cmd.Flags().Float64("rpc-rate", 10, "RPC requests per second, 0 disables throttling")
	cmd.Flags().Duration("cache-ttl", 15*time.Second, "pool snapshot cache TTL")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// pool bundles the data sources chosen by configuration.
type pool struct {
	provider calc.PoolProvider
	stats    overview.StatsSource
	closers  []func()
}

func (p *pool) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

func openPool(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pool, error) {
	p := &pool{}

	var store *postgres.Store
	if cfg.PGDSN != "" {
		var err error
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		p.closers = append(p.closers, store.Close)
		p.stats = store
	}

	switch cfg.Source {
	case model.SourceRPC:
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL,
			chain.WithRateLimit(cfg.RPCRate, 1),
			chain.WithRetry(cfg.MaxRetries, cfg.RetryBackoff),
			chain.WithLogger(logger.Named("chain")),
		)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		p.closers = append(p.closers, chainClient.Close)

		chainID, err := chainClient.GetChainID(ctx)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("chain id: %w", err)
		}
		if chainID.Uint64() != cfg.ChainID {
			p.Close()
			return nil, fmt.Errorf("rpc chain id %s does not match configured %d", chainID, cfg.ChainID)
		}

		p.provider = dex.NewChainProvider(chainClient, dex.ProviderConfig{
			Pair:     cfg.Pair,
			Token0:   cfg.Token0,
			Token1:   cfg.Token1,
			CacheTTL: cfg.CacheTTL,
		}, logger.Named("dex"))
	case model.SourcePostgres:
		p.provider = store.Provider(cfg.Pair, cfg.Token0, cfg.Token1)
	case model.SourceStatic:
		snap, err := staticSnapshot(cfg)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.provider = calc.NewStaticProvider(snap)
	default:
		p.Close()
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}

	logger.Info("pool source ready",
		zap.String("source", cfg.Source),
		zap.String("pair", cfg.Pair.Hex()),
		zap.String("token0", cfg.Token0.String()),
		zap.String("token1", cfg.Token1.String()),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)
	return p, nil
}

func staticSnapshot(cfg config.Config) (*model.PoolSnapshot, error) {
	r0, err := parseReserve(cfg.Reserve0)
	if err != nil {
		return nil, fmt.Errorf("reserve0: %w", err)
	}
	r1, err := parseReserve(cfg.Reserve1)
	if err != nil {
		return nil, fmt.Errorf("reserve1: %w", err)
	}
	return &model.PoolSnapshot{
		Pair:      cfg.Pair,
		Token0:    cfg.Token0,
		Token1:    cfg.Token1,
		Reserve0:  r0,
		Reserve1:  r1,
		Timestamp: time.Now().UTC(),
		Source:    model.SourceStatic,
	}, nil
}

func parseReserve(s string) (*big.Rat, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative reserve %s", s)
	}
	return d.Rat(), nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pairScope/internal/model"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Source       string
	RPCURL       string
	PGDSN        string
	Pair         common.Address
	ChainID      uint64
	Token0       model.Token
	Token1       model.Token
	Reserve0     string
	Reserve1     string
	MaxRetries   int
	RetryBackoff time.Duration
	RPCRate      float64
	CacheTTL     time.Duration
	StatsWindow  time.Duration
	Addr         string
	CORSOrigins  []string
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PAIRSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("source", model.SourceRPC)
	v.SetDefault("chain-id", uint64(56))
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 200*time.Millisecond)
	v.SetDefault("rpc-rate", 10.0)
	v.SetDefault("cache-ttl", 15*time.Second)
	v.SetDefault("stats-window", 24*time.Hour)
	v.SetDefault("addr", ":8080")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Source:       strings.ToLower(strings.TrimSpace(v.GetString("source"))),
		RPCURL:       v.GetString("rpc"),
		PGDSN:        v.GetString("pg-dsn"),
		ChainID:      v.GetUint64("chain-id"),
		Reserve0:     v.GetString("reserve0"),
		Reserve1:     v.GetString("reserve1"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		RPCRate:      v.GetFloat64("rpc-rate"),
		CacheTTL:     v.GetDuration("cache-ttl"),
		StatsWindow:  v.GetDuration("stats-window"),
		Addr:         v.GetString("addr"),
		CORSOrigins:  getStringSlice(v, "cors-origin"),
		LogLevel:     v.GetString("log-level"),
	}

	if pair := strings.TrimSpace(v.GetString("pair")); pair != "" {
		if !common.IsHexAddress(pair) {
			return Config{}, fmt.Errorf("invalid pair address %q", pair)
		}
		cfg.Pair = common.HexToAddress(pair)
	}

	var err error
	if cfg.Token0, err = ParseToken(v.GetString("token0"), cfg.ChainID); err != nil {
		return Config{}, fmt.Errorf("token0: %w", err)
	}
	if cfg.Token1, err = ParseToken(v.GetString("token1"), cfg.ChainID); err != nil {
		return Config{}, fmt.Errorf("token1: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected source has what it needs.
func (c Config) Validate() error {
	if c.Token0.Equal(c.Token1) {
		return errors.New("token0 and token1 must differ")
	}
	switch c.Source {
	case model.SourceRPC:
		if c.RPCURL == "" {
			return errors.New("rpc is required for source rpc")
		}
		if c.Pair == (common.Address{}) {
			return errors.New("pair is required for source rpc")
		}
	case model.SourcePostgres:
		if c.PGDSN == "" {
			return errors.New("pg-dsn is required for source postgres")
		}
		if c.Pair == (common.Address{}) {
			return errors.New("pair is required for source postgres")
		}
	case model.SourceStatic:
		if c.Reserve0 == "" || c.Reserve1 == "" {
			return errors.New("reserve0 and reserve1 are required for source static")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	return nil
}

// ParseToken parses SYMBOL:ADDRESS:DECIMALS.
func ParseToken(value string, chainID uint64) (model.Token, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return model.Token{}, fmt.Errorf("expected SYMBOL:ADDRESS:DECIMALS, got %q", value)
	}
	symbol := strings.TrimSpace(parts[0])
	if symbol == "" {
		return model.Token{}, errors.New("empty symbol")
	}
	address := strings.TrimSpace(parts[1])
	if !common.IsHexAddress(address) {
		return model.Token{}, fmt.Errorf("invalid address %q", address)
	}
	decimals, err := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 8)
	if err != nil {
		return model.Token{}, fmt.Errorf("invalid decimals %q: %w", parts[2], err)
	}
	return model.Token{
		ChainID:  chainID,
		Address:  common.HexToAddress(address),
		Decimals: uint8(decimals),
		Symbol:   symbol,
	}, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

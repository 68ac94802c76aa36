package postgres

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"pairScope/internal/model"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.values[i].(int64)
		case *string:
			*p = r.values[i].(string)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

type fakeQuerier struct {
	row  fakeRow
	args []any
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.args = args
	return q.row
}

var (
	pair   = common.HexToAddress("0x16b9a82891338f9bA80E2D6970FddA79D1eb0daE")
	token0 = model.Token{ChainID: 56, Address: common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"), Decimals: 18, Symbol: "USDT"}
	token1 = model.Token{ChainID: 56, Address: common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"), Decimals: 6, Symbol: "WBNB"}
)

func TestPairProviderSnapshot(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	q := &fakeQuerier{row: fakeRow{values: []any{int64(36000000), ts, "600000000000000000000000", "1000000000.000"}}}
	store := &Store{q: q}

	snap, err := store.Provider(pair, token0, token1).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Reserve0.Cmp(big.NewRat(600000, 1)) != 0 || snap.Reserve1.Cmp(big.NewRat(1000, 1)) != 0 {
		t.Fatalf("reserves = %s / %s", snap.Reserve0.FloatString(6), snap.Reserve1.FloatString(6))
	}
	if snap.BlockNumber != 36000000 || !snap.Timestamp.Equal(ts) || snap.Source != model.SourcePostgres {
		t.Fatalf("snapshot = %+v", snap)
	}
	if q.args[1] != "0x16b9a82891338f9ba80e2d6970fdda79d1eb0dae" {
		t.Fatalf("pair key = %v", q.args[1])
	}
}

func TestPairProviderNotReady(t *testing.T) {
	store := &Store{q: &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}}
	snap, err := store.Provider(pair, token0, token1).Snapshot(context.Background())
	if err != nil || snap != nil {
		t.Fatalf("snapshot = %v, err = %v", snap, err)
	}
}

func TestPairProviderError(t *testing.T) {
	store := &Store{q: &fakeQuerier{row: fakeRow{err: errors.New("connection refused")}}}
	if _, err := store.Provider(pair, token0, token1).Snapshot(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWindowStats(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{values: []any{int64(42), "5000000000000000000000", "8000000", "15000000000000000000", "24000"}}}
	store := &Store{q: q}
	until := time.Now()
	stats, err := store.WindowStats(context.Background(), pair, token0, token1, until.Add(-24*time.Hour), until)
	if err != nil {
		t.Fatalf("window stats: %v", err)
	}
	if stats.SwapCount != 42 {
		t.Fatalf("swap count = %d", stats.SwapCount)
	}
	if stats.Volume0.Cmp(big.NewRat(5000, 1)) != 0 || stats.Volume1.Cmp(big.NewRat(8, 1)) != 0 {
		t.Fatalf("volumes = %s / %s", stats.Volume0.FloatString(6), stats.Volume1.FloatString(6))
	}
	if stats.Fee0.Cmp(big.NewRat(15, 1)) != 0 || stats.Fee1.Cmp(big.NewRat(24, 1000)) != 0 {
		t.Fatalf("fees = %s / %s", stats.Fee0.FloatString(6), stats.Fee1.FloatString(6))
	}
}

func TestWindowStatsWrapsScanError(t *testing.T) {
	cause := errors.New("connection reset")
	store := &Store{q: &fakeQuerier{row: fakeRow{err: cause}}}
	until := time.Now()
	_, err := store.WindowStats(context.Background(), pair, token0, token1, until.Add(-time.Hour), until)
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v, want wrapped %v", err, cause)
	}
	if !strings.HasPrefix(err.Error(), "window stats: ") {
		t.Fatalf("err = %q, want window stats context", err)
	}
}

func TestParseRaw(t *testing.T) {
	cases := map[string]string{"": "0", "12": "12", "12.000": "12", " 7 ": "7"}
	for in, want := range cases {
		got, err := parseRaw(in)
		if err != nil || got.String() != want {
			t.Fatalf("parseRaw(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := parseRaw("abc"); err == nil {
		t.Fatalf("expected error")
	}
}

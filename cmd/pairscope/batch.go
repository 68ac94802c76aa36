package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairScope/internal/calc"
	"pairScope/internal/model"
	"pairScope/internal/present"
	"pairScope/internal/storage"
)

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	inPath, _ := cmd.Flags().GetString("in")
	outPath, _ := cmd.Flags().GetString("out")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	if inPath == "" {
		return fmt.Errorf("--in is required")
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	snap, err := calc.NewCalculator(pool.provider).Pool(ctx)
	if err != nil {
		return fmt.Errorf("load pool: %w", err)
	}

	inputFile, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	var store storage.Storage
	if outPath == "" || outPath == "-" {
		store = storage.NewJsonlWriter(cmd.OutOrStdout())
	} else {
		store = storage.NewJsonlStorage(outPath)
	}

	scanner := bufio.NewScanner(inputFile)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var (
		records  []model.CalculationRecord
		lines    int
		accepted int
		rejected int
		failed   int
	)
	flush := func() error {
		if len(records) == 0 {
			return nil
		}
		if err := store.PutCalculations(records); err != nil {
			return err
		}
		records = records[:0]
		return nil
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lines++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req model.TradeRequest
		var result *model.Calculation
		if err = json.Unmarshal([]byte(line), &req); err != nil {
			logger.Warn("decode request failed", zap.Int("line", lines), zap.Error(err))
			err = &calc.ValidationError{Kind: calc.ErrInvalidAmount, Message: "invalid input"}
		} else {
			result, err = calc.Compute(req, *snap)
		}

		switch {
		case err != nil:
			failed++
		case result.Remediation.Accepted:
			accepted++
		default:
			rejected++
		}

		records = append(records, present.Record(req, result, err, time.Now()))
		if len(records) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	logger.Info("batch complete",
		zap.Int("lines", lines),
		zap.Int("accepted", accepted),
		zap.Int("rejected", rejected),
		zap.Int("failed", failed),
		zap.Uint64("block", snap.BlockNumber),
		zap.String("source", snap.Source),
	)
	return nil
}

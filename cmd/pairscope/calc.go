package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairScope/internal/calc"
	"pairScope/internal/model"
	"pairScope/internal/present"
)

func runCalc(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	req := model.TradeRequest{}
	req.InputToken, _ = cmd.Flags().GetString("input")
	req.Amount, _ = cmd.Flags().GetString("amount")
	req.MaxImpact, _ = cmd.Flags().GetString("max-impact")
	asJSON, _ := cmd.Flags().GetBool("json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	calculator := calc.NewCalculator(pool.provider, calc.WithLogger(logger.Named("calc")))
	result, err := calculator.Calculate(ctx, req)
	if err != nil {
		note := present.Notify(err)
		var verr *calc.ValidationError
		if !errors.As(err, &verr) {
			logger.Error("calculation failed", zap.String("kind", note.Kind), zap.Error(err))
		}
		return errors.New(note.Message)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(present.NewCalculationView(result))
	}
	_, err = fmt.Fprint(out, present.Render(result))
	return err
}

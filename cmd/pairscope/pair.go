package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pairScope/internal/overview"
	"pairScope/internal/present"
)

func runPair(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	asJSON, _ := cmd.Flags().GetBool("json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := overview.NewService(pool.provider, pool.stats, cfg.StatsWindow, logger.Named("overview"))
	ov, err := svc.Overview(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", present.Notify(err).Message, err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(present.NewOverviewView(ov))
	}
	_, err = fmt.Fprint(out, present.RenderOverview(ov))
	return err
}

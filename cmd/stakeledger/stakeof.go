package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stakeLedger/internal/config"
	"stakeLedger/internal/storage/postgres"
)

func newStakeOfCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stake-of",
		Short: "Show a participant's most recent stake",
		RunE:  runStakeOf,
	}
	cmd.Flags().String("participant", "", "participant address")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runStakeOf(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	participant, err := parseAddressFlag(cmd, "participant")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	stake, ok, err := store.Latest(ctx, participant)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("0")
		return nil
	}

	logger.Info("stake found",
		zap.String("participant", stake.Participant.Hex()),
		zap.String("pool", stake.Pool.Hex()),
		zap.String("lp_amount", stake.LPAmount.String()),
		zap.Bool("claimed", stake.Claimed),
	)
	fmt.Println(stake.LPAmount.String())
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stakeLedger/internal/chain"
	"stakeLedger/internal/config"
	"stakeLedger/internal/dex"
	"stakeLedger/internal/pair"
)

func newPairInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair-info",
		Short: "Show a pair's tokens, metadata, and live reserves",
		RunE:  runPairInfo,
	}
	cmd.Flags().String("token-a", "", "first pair token address")
	cmd.Flags().String("token-b", "", "second pair token address")
	cmd.Flags().Bool("registry", false, "look the pair up in the on-chain factory registry")
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runPairInfo(cmd *cobra.Command, _ []string) error {
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

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	tokenA, err := parseAddressFlag(cmd, "token-a")
	if err != nil {
		return err
	}
	tokenB, err := parseAddressFlag(cmd, "token-b")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	pairClient := dex.NewPairClient(chainClient, logger)
	factory := common.HexToAddress(cfg.Factory)

	var resolver pair.Resolver
	if useRegistry, _ := cmd.Flags().GetBool("registry"); useRegistry {
		resolver = pair.NewRegistryResolver(pairClient, factory)
	} else {
		resolver = pair.NewDeterministicResolver(factory, common.HexToHash(cfg.InitCodeHash))
	}

	pool, err := resolver.Resolve(ctx, tokenA, tokenB)
	if err != nil {
		return err
	}

	cache := dex.NewTokenMetaCache()
	meta, err := pairClient.FetchPairMeta(ctx, pool, cache)
	if err != nil {
		return err
	}

	logger.Info("pair metadata fetched",
		zap.String("pool", pool.Hex()),
		zap.String("token0", meta.Token0),
		zap.String("token1", meta.Token1),
	)

	fmt.Printf("pool:     %s\n", pool.Hex())
	printTokenLine(cache, "token0", meta.Token0, meta.Reserve0)
	printTokenLine(cache, "token1", meta.Token1, meta.Reserve1)
	return nil
}

func printTokenLine(cache *dex.TokenMetaCache, label, token, reserve string) {
	symbol := "?"
	if meta, ok := cache.Get(common.HexToAddress(token)); ok && meta.Symbol != "" {
		symbol = meta.Symbol
	}
	if reserve == "" {
		reserve = "?"
	}
	fmt.Printf("%s:   %s (%s) reserve=%s\n", label, token, symbol, reserve)
}

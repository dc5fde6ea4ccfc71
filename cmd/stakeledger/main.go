package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stakeLedger/internal/amm"
	"stakeLedger/internal/chain"
	"stakeLedger/internal/config"
	"stakeLedger/internal/dex"
	"stakeLedger/internal/pair"
)

func main() {
	root := &cobra.Command{
		Use:          "stakeledger",
		Short:        "LP staking ledger tooling",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the canonical pool for a token pair",
		RunE:  runResolve,
	}
	resolveCmd.Flags().String("token-a", "", "first pair token address")
	resolveCmd.Flags().String("token-b", "", "second pair token address")
	resolveCmd.Flags().Bool("registry", false, "look the pair up in the on-chain factory registry")
	resolveCmd.Flags().String("rpc", "", "RPC URL (required with --registry)")
	resolveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(resolveCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a constant-product swap against live reserves",
		RunE:  runQuote,
	}
	quoteCmd.Flags().String("token-in", "", "input token address")
	quoteCmd.Flags().String("token-out", "", "output token address")
	quoteCmd.Flags().String("amount-in", "0", "input amount in base units")
	quoteCmd.Flags().String("rpc", "", "RPC URL")
	quoteCmd.Flags().Int("max-retries", 3, "maximum retry attempts for chain reads")
	quoteCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(quoteCmd)

	root.AddCommand(newPairInfoCmd())
	root.AddCommand(newSignPermitCmd())
	root.AddCommand(newCreateStakeCmd())
	root.AddCommand(newClaimCmd())
	root.AddCommand(newStakeOfCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runResolve(cmd *cobra.Command, _ []string) error {
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

	useRegistry, _ := cmd.Flags().GetBool("registry")
	factory := common.HexToAddress(cfg.Factory)

	var resolver pair.Resolver
	if useRegistry {
		if cfg.RPCURL == "" {
			return fmt.Errorf("rpc url is required with --registry")
		}
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()
		resolver = pair.NewRegistryResolver(dex.NewPairClient(chainClient, logger), factory)
	} else {
		resolver = pair.NewDeterministicResolver(factory, common.HexToHash(cfg.InitCodeHash))
	}

	pool, err := resolver.Resolve(ctx, tokenA, tokenB)
	if err != nil {
		return err
	}

	logger.Info("pair resolved",
		zap.String("token_a", tokenA.Hex()),
		zap.String("token_b", tokenB.Hex()),
		zap.String("pool", pool.Hex()),
		zap.Bool("registry", useRegistry),
	)
	fmt.Println(pool.Hex())
	return nil
}

func runQuote(cmd *cobra.Command, _ []string) error {
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

	tokenIn, err := parseAddressFlag(cmd, "token-in")
	if err != nil {
		return err
	}
	tokenOut, err := parseAddressFlag(cmd, "token-out")
	if err != nil {
		return err
	}

	amountInRaw, _ := cmd.Flags().GetString("amount-in")
	amountIn, ok := new(big.Int).SetString(amountInRaw, 10)
	if !ok || amountIn.Sign() < 0 {
		return fmt.Errorf("invalid amount-in %q", amountInRaw)
	}

	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	retryBackoff, _ := cmd.Flags().GetDuration("retry-backoff")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	pairClient := dex.NewPairClient(chainClient, logger)
	resolver := pair.NewDeterministicResolver(common.HexToAddress(cfg.Factory), common.HexToHash(cfg.InitCodeHash))
	pricer := amm.NewPricer(resolver, pairClient, cfg.FeeNumerator, cfg.FeeDenominator)

	var amountOut *big.Int
	err = chain.WithRetry(ctx, maxRetries, retryBackoff, func(ctx context.Context) error {
		var err error
		amountOut, err = pricer.Quote(ctx, tokenIn, tokenOut, amountIn)
		if err != nil {
			logger.Warn("quote failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return err
	}

	logger.Info("swap quoted",
		zap.String("token_in", tokenIn.Hex()),
		zap.String("token_out", tokenOut.Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", amountOut.String()),
	)
	fmt.Println(amountOut.String())
	return nil
}

func parseAddressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	raw, _ := cmd.Flags().GetString(name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s must be a hex address, got %q", name, raw)
	}
	return common.HexToAddress(raw), nil
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

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stakeLedger/internal/chain"
	"stakeLedger/internal/config"
	"stakeLedger/internal/dex"
	"stakeLedger/internal/permit"
)

func newSignPermitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign-permit",
		Short: "Sign an LP permit authorization for the ledger",
		RunE:  runSignPermit,
	}
	cmd.Flags().String("key", "", "hex-encoded private key of the LP owner")
	cmd.Flags().String("pool", "", "pair contract address")
	cmd.Flags().String("spender", "", "ledger custody address (defaults to configured custody)")
	cmd.Flags().String("value", "0", "LP amount to authorize in base units")
	cmd.Flags().String("nonce", "", "owner nonce (fetched from chain when --rpc is set)")
	cmd.Flags().Duration("valid-for", time.Hour, "deadline offset from now")
	cmd.Flags().String("rpc", "", "RPC URL for nonce lookup")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runSignPermit(cmd *cobra.Command, _ []string) error {
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

	keyHex, _ := cmd.Flags().GetString("key")
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return fmt.Errorf("load private key: %w", err)
	}
	owner := crypto.PubkeyToAddress(key.PublicKey)

	pool, err := parseAddressFlag(cmd, "pool")
	if err != nil {
		return err
	}

	spenderRaw, _ := cmd.Flags().GetString("spender")
	if spenderRaw == "" {
		spenderRaw = cfg.Custody
	}
	if !common.IsHexAddress(spenderRaw) {
		return fmt.Errorf("spender must be a hex address, got %q", spenderRaw)
	}
	spender := common.HexToAddress(spenderRaw)

	valueRaw, _ := cmd.Flags().GetString("value")
	value, ok := new(big.Int).SetString(valueRaw, 10)
	if !ok || value.Sign() <= 0 {
		return fmt.Errorf("invalid value %q", valueRaw)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nonce, err := permitNonce(ctx, cmd, cfg, logger, pool, owner)
	if err != nil {
		return err
	}

	validFor, _ := cmd.Flags().GetDuration("valid-for")
	deadline := big.NewInt(time.Now().Add(validFor).Unix())

	auth, err := permit.Sign(key, big.NewInt(cfg.ChainID), pool, spender, value, nonce, deadline)
	if err != nil {
		return err
	}

	logger.Info("permit signed",
		zap.String("owner", owner.Hex()),
		zap.String("pool", pool.Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("value", value.String()),
		zap.String("nonce", nonce.String()),
		zap.String("deadline", deadline.String()),
	)

	fmt.Printf("owner:    %s\n", owner.Hex())
	fmt.Printf("deadline: %s\n", deadline.String())
	fmt.Printf("v:        %d\n", auth.V)
	fmt.Printf("r:        0x%s\n", hex.EncodeToString(auth.R[:]))
	fmt.Printf("s:        0x%s\n", hex.EncodeToString(auth.S[:]))
	return nil
}

func permitNonce(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger *zap.Logger, pool, owner common.Address) (*big.Int, error) {
	nonceRaw, _ := cmd.Flags().GetString("nonce")
	if nonceRaw != "" {
		nonce, ok := new(big.Int).SetString(nonceRaw, 10)
		if !ok || nonce.Sign() < 0 {
			return nil, fmt.Errorf("invalid nonce %q", nonceRaw)
		}
		return nonce, nil
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("either --nonce or --rpc is required")
	}
	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	return dex.NewPairClient(chainClient, logger).Nonce(ctx, pool, owner)
}

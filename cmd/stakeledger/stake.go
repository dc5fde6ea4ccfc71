package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"stakeLedger/internal/amm"
	"stakeLedger/internal/chain"
	"stakeLedger/internal/config"
	"stakeLedger/internal/dex"
	"stakeLedger/internal/ledger"
	"stakeLedger/internal/model"
	"stakeLedger/internal/pair"
	"stakeLedger/internal/permit"
	"stakeLedger/internal/storage"
	"stakeLedger/internal/storage/postgres"
)

func newCreateStakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-stake",
		Short: "Open a stake on a pair via native value or a signed permit",
		RunE:  runCreateStake,
	}
	cmd.Flags().String("key", "", "hex-encoded operator private key")
	cmd.Flags().String("token-a", "", "first pair token address")
	cmd.Flags().String("token-b", "", "second pair token address")
	cmd.Flags().String("participant", "", "participant address (defaults to the operator)")
	cmd.Flags().String("native-value", "", "native deposit amount in base units")
	cmd.Flags().String("permit-owner", "", "permit owner address")
	cmd.Flags().String("permit-value", "", "permitted LP amount in base units")
	cmd.Flags().String("permit-deadline", "", "permit deadline as a unix timestamp")
	cmd.Flags().Uint8("permit-v", 0, "permit signature v")
	cmd.Flags().String("permit-r", "", "permit signature r (hex)")
	cmd.Flags().String("permit-s", "", "permit signature s (hex)")
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("reward-token", "", "reward token contract address")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func newClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim a stake's reward, optionally returning the LP position",
		RunE:  runClaim,
	}
	cmd.Flags().String("key", "", "hex-encoded operator private key")
	cmd.Flags().String("token-a", "", "first pair token address")
	cmd.Flags().String("token-b", "", "second pair token address")
	cmd.Flags().String("participant", "", "participant address (defaults to the operator)")
	cmd.Flags().Bool("reward-only", false, "mint the reward but keep the LP position in custody")
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("reward-token", "", "reward token contract address")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runCreateStake(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newEngineEnv(ctx, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	tokenA, err := parseAddressFlag(cmd, "token-a")
	if err != nil {
		return err
	}
	tokenB, err := parseAddressFlag(cmd, "token-b")
	if err != nil {
		return err
	}

	participant := env.operator
	if raw, _ := cmd.Flags().GetString("participant"); raw != "" {
		if !common.IsHexAddress(raw) {
			return fmt.Errorf("participant must be a hex address, got %q", raw)
		}
		participant = common.HexToAddress(raw)
	}

	dep, err := depositFromFlags(cmd, &participant, env.operator)
	if err != nil {
		return err
	}

	stake, err := env.engine.CreateStake(ctx, participant, tokenA, tokenB, dep)
	if err != nil {
		return err
	}

	fmt.Printf("pool:      %s\n", stake.Pool.Hex())
	fmt.Printf("lp_amount: %s\n", stake.LPAmount.String())
	return nil
}

func runClaim(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newEngineEnv(ctx, cmd)
	if err != nil {
		return err
	}
	defer env.close()

	tokenA, err := parseAddressFlag(cmd, "token-a")
	if err != nil {
		return err
	}
	tokenB, err := parseAddressFlag(cmd, "token-b")
	if err != nil {
		return err
	}

	participant := env.operator
	if raw, _ := cmd.Flags().GetString("participant"); raw != "" {
		if !common.IsHexAddress(raw) {
			return fmt.Errorf("participant must be a hex address, got %q", raw)
		}
		participant = common.HexToAddress(raw)
	}

	rewardOnly, _ := cmd.Flags().GetBool("reward-only")

	var stake *model.Stake
	if rewardOnly {
		stake, err = env.engine.ClaimReward(ctx, participant, tokenA, tokenB)
	} else {
		stake, err = env.engine.ClaimStakeAndReward(ctx, participant, tokenA, tokenB)
	}
	if err != nil {
		return err
	}

	fmt.Printf("pool:      %s\n", stake.Pool.Hex())
	fmt.Printf("lp_amount: %s\n", stake.LPAmount.String())
	fmt.Printf("claimed:   %v\n", stake.Claimed)
	return nil
}

// depositFromFlags builds the tagged deposit for create-stake. The permit
// flags select the permit path; --native-value selects the native path.
func depositFromFlags(cmd *cobra.Command, participant *common.Address, custody common.Address) (ledger.Deposit, error) {
	ownerRaw, _ := cmd.Flags().GetString("permit-owner")
	if ownerRaw != "" {
		if !common.IsHexAddress(ownerRaw) {
			return ledger.Deposit{}, fmt.Errorf("permit-owner must be a hex address, got %q", ownerRaw)
		}
		owner := common.HexToAddress(ownerRaw)
		*participant = owner

		valueRaw, _ := cmd.Flags().GetString("permit-value")
		value, ok := new(big.Int).SetString(valueRaw, 10)
		if !ok || value.Sign() <= 0 {
			return ledger.Deposit{}, fmt.Errorf("invalid permit-value %q", valueRaw)
		}
		deadlineRaw, _ := cmd.Flags().GetString("permit-deadline")
		deadline, ok := new(big.Int).SetString(deadlineRaw, 10)
		if !ok || deadline.Sign() <= 0 {
			return ledger.Deposit{}, fmt.Errorf("invalid permit-deadline %q", deadlineRaw)
		}
		sigV, _ := cmd.Flags().GetUint8("permit-v")
		rRaw, _ := cmd.Flags().GetString("permit-r")
		sRaw, _ := cmd.Flags().GetString("permit-s")

		auth := model.PermitAuthorization{
			Owner:    owner,
			Spender:  custody,
			Value:    value,
			Deadline: deadline,
			V:        sigV,
			R:        [32]byte(common.HexToHash(rRaw)),
			S:        [32]byte(common.HexToHash(sRaw)),
		}
		return ledger.PermitDeposit(auth), nil
	}

	nativeRaw, _ := cmd.Flags().GetString("native-value")
	if nativeRaw == "" {
		return ledger.Deposit{}, fmt.Errorf("either --native-value or the permit flags are required")
	}
	amount, ok := new(big.Int).SetString(nativeRaw, 10)
	if !ok || amount.Sign() <= 0 {
		return ledger.Deposit{}, fmt.Errorf("invalid native-value %q", nativeRaw)
	}
	return ledger.NativeDeposit(amount), nil
}

// engineEnv holds a fully wired staking engine and its open handles.
type engineEnv struct {
	engine   *ledger.Engine
	operator common.Address
	chain    *chain.Client
	store    *postgres.Store
}

func (e *engineEnv) close() {
	if e.store != nil {
		e.store.Close()
	}
	if e.chain != nil {
		e.chain.Close()
	}
}

func newEngineEnv(ctx context.Context, cmd *cobra.Command) (*engineEnv, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if cfg.RewardToken == "" || !common.IsHexAddress(cfg.RewardToken) {
		return nil, fmt.Errorf("reward-token must be a hex address, got %q", cfg.RewardToken)
	}

	keyHex, _ := cmd.Flags().GetString("key")
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	transactor, err := dex.NewTransactor(ctx, chainClient, key, logger)
	if err != nil {
		chainClient.Close()
		return nil, err
	}
	custody := transactor.From()
	if cfg.Custody != "" && common.HexToAddress(cfg.Custody) != custody {
		chainClient.Close()
		return nil, fmt.Errorf("configured custody %s does not match the operator key %s", cfg.Custody, custody.Hex())
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		chainClient.Close()
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		chainClient.Close()
		return nil, err
	}

	reads := dex.NewPairClient(chainClient, logger)
	pools := dex.NewPairBackend(reads, transactor)
	assets := dex.NewTokenBackend(reads, transactor, common.HexToAddress(cfg.WrappedNative))
	rewards := dex.NewRewardToken(common.HexToAddress(cfg.RewardToken), transactor)

	resolver := pair.NewDeterministicResolver(common.HexToAddress(cfg.Factory), common.HexToHash(cfg.InitCodeHash))
	pricer := amm.NewPricer(resolver, reads, cfg.FeeNumerator, cfg.FeeDenominator)
	verifier := permit.NewVerifier(transactor.ChainID(), reads)

	engine := ledger.NewEngine(
		ledger.Config{
			Custody:       custody,
			WrappedNative: common.HexToAddress(cfg.WrappedNative),
			Policy:        ledger.RewardPolicy{Numerator: cfg.RewardNum, Denominator: cfg.RewardDen},
		},
		resolver, pricer, verifier, pools, assets, rewards, store, logger,
	)
	engine.SetAuditSink(storage.NewJsonlSink(cfg.AuditLog))

	return &engineEnv{engine: engine, operator: custody, chain: chainClient, store: store}, nil
}

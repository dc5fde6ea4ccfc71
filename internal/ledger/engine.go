// Package ledger implements the stateful staking core: per-participant,
// per-pair stake records with an exactly-once claim flag, fed by two deposit
// paths (native-value swap and permit pull) and drained by two claim paths.
package ledger

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"stakeLedger/internal/amm"
	"stakeLedger/internal/model"
	"stakeLedger/internal/pair"
	"stakeLedger/internal/permit"
	"stakeLedger/internal/storage"
)

// PoolBackend is the execution surface of a V2 pair contract. The read
// methods double as the pricer's ReserveView and the verifier's NonceView.
type PoolBackend interface {
	Tokens(ctx context.Context, pool common.Address) (common.Address, common.Address, error)
	Reserves(ctx context.Context, pool common.Address) (*big.Int, *big.Int, error)
	Swap(ctx context.Context, pool common.Address, amount0Out, amount1Out *big.Int, to common.Address) error
	MintLiquidity(ctx context.Context, pool common.Address, to common.Address) (*big.Int, error)
	Nonce(ctx context.Context, pool, owner common.Address) (*big.Int, error)
	// SubmitPermit forwards the authorization to the pair, consuming the
	// owner's nonce. The asset rejects replays from then on.
	SubmitPermit(ctx context.Context, pool common.Address, auth model.PermitAuthorization) error
}

// AssetBackend moves fungible balances between accounts the ledger operates
// on. Transfers from an owner other than the custody account are gated by a
// verified permit before the engine requests them.
type AssetBackend interface {
	Balance(ctx context.Context, asset, account common.Address) (*big.Int, error)
	Transfer(ctx context.Context, asset, from, to common.Address, amount *big.Int) error
	WrapNative(ctx context.Context, account common.Address, amount *big.Int) error
	UnwrapNative(ctx context.Context, account common.Address, amount *big.Int) error
}

// RewardMinter issues the reward asset. Minting is restricted to this
// ledger's authority and is irreversible.
type RewardMinter interface {
	Mint(ctx context.Context, to common.Address, amount *big.Int) error
}

// Config carries the engine's deployment parameters.
type Config struct {
	// Custody is the account holding pooled LP units on participants' behalf.
	Custody common.Address
	// WrappedNative is the asset native deposits are wrapped into.
	WrappedNative common.Address
	// Policy maps staked LP amounts to reward payouts.
	Policy RewardPolicy
}

// Engine owns the stake table. All mutations go through CreateStake and the
// two claim entry points; no other module writes stakes.
type Engine struct {
	cfg      Config
	resolver pair.Resolver
	pricer   *amm.Pricer
	verifier *permit.Verifier
	pools    PoolBackend
	assets   AssetBackend
	rewards  RewardMinter
	store    storage.StakeStore
	audit    storage.AuditSink
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine wires the staking core to its collaborators.
func NewEngine(
	cfg Config,
	resolver pair.Resolver,
	pricer *amm.Pricer,
	verifier *permit.Verifier,
	pools PoolBackend,
	assets AssetBackend,
	rewards RewardMinter,
	store storage.StakeStore,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		resolver: resolver,
		pricer:   pricer,
		verifier: verifier,
		pools:    pools,
		assets:   assets,
		rewards:  rewards,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// SetAuditSink attaches an append-only event sink for deposits and claims.
func (e *Engine) SetAuditSink(sink storage.AuditSink) {
	e.audit = sink
}

// SetClock overrides the engine clock, primarily for deterministic testing.
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// CreateStake opens a stake for the caller on the (assetA, assetB) pair via
// the deposit's declared path. A pair with an unclaimed stake rejects the
// deposit; the stake record is written only after every external effect
// succeeded.
func (e *Engine) CreateStake(ctx context.Context, caller, assetA, assetB common.Address, dep Deposit) (*model.Stake, error) {
	pool, err := e.resolver.Resolve(ctx, assetA, assetB)
	if err != nil {
		return nil, err
	}

	current, ok, err := e.store.Current(ctx, caller, pool)
	if err != nil {
		return nil, fmt.Errorf("read stake: %w", err)
	}
	if ok && current.Open() {
		return nil, ErrDuplicateStake
	}

	var lpAmount *big.Int
	switch {
	case dep.permit != nil:
		lpAmount, err = e.depositWithPermit(ctx, pool, dep.permit)
	case dep.native != nil && dep.native.Sign() > 0:
		lpAmount, err = e.depositNative(ctx, pool, dep.native)
	default:
		return nil, ErrZeroDeposit
	}
	if err != nil {
		return nil, err
	}

	stake := &model.Stake{
		Participant: caller,
		Pool:        pool,
		LPAmount:    lpAmount,
		CreatedAt:   e.now(),
	}
	if err := e.store.Append(ctx, stake); err != nil {
		return nil, fmt.Errorf("record stake: %w", err)
	}

	e.recordEvent(model.EventStakeCreated, stake, nil)
	e.logger.Info("stake created",
		zap.String("participant", caller.Hex()),
		zap.String("pool", pool.Hex()),
		zap.String("lp_amount", lpAmount.String()),
	)
	return stake.Clone(), nil
}

// ClaimStakeAndReward mints the reward, returns the custodied LP units, and
// marks the stake claimed. All three effects apply together or not at all.
func (e *Engine) ClaimStakeAndReward(ctx context.Context, caller, assetA, assetB common.Address) (*model.Stake, error) {
	return e.claim(ctx, caller, assetA, assetB, true)
}

// ClaimReward mints the reward and marks the stake claimed; the LP units
// stay in custody. Retained positions are held, not burned, pending a
// disposition policy.
func (e *Engine) ClaimReward(ctx context.Context, caller, assetA, assetB common.Address) (*model.Stake, error) {
	return e.claim(ctx, caller, assetA, assetB, false)
}

// StakeOf returns the LP amount of the participant's most recent stake, or
// zero when none exists. A non-zero amount does not imply the stake is
// still open; check the record's claimed flag for that.
func (e *Engine) StakeOf(ctx context.Context, participant common.Address) (*big.Int, error) {
	stake, ok, err := e.store.Latest(ctx, participant)
	if err != nil {
		return nil, fmt.Errorf("read stake: %w", err)
	}
	if !ok || stake.LPAmount == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(stake.LPAmount), nil
}

func (e *Engine) claim(ctx context.Context, caller, assetA, assetB common.Address, withStake bool) (*model.Stake, error) {
	pool, err := e.resolver.Resolve(ctx, assetA, assetB)
	if err != nil {
		return nil, err
	}

	stake, ok, err := e.store.Current(ctx, caller, pool)
	if err != nil {
		return nil, fmt.Errorf("read stake: %w", err)
	}
	if !ok || stake.LPAmount == nil || stake.LPAmount.Sign() <= 0 {
		return nil, ErrNoStake
	}
	if stake.Claimed {
		return nil, ErrAlreadyClaimed
	}

	reward := e.cfg.Policy.RewardFor(stake.LPAmount)
	flow := newSaga(e.logger)

	if withStake {
		// Never pay out more than this stake's own recorded amount, even if
		// the pooled custody balance would cover it.
		balance, err := e.assets.Balance(ctx, pool, e.cfg.Custody)
		if err != nil {
			return nil, fmt.Errorf("read custody balance: %w", err)
		}
		if balance.Cmp(stake.LPAmount) < 0 {
			return nil, fmt.Errorf("custody balance %s below stake %s: %w", balance, stake.LPAmount, ErrTransferFailed)
		}

		amount := new(big.Int).Set(stake.LPAmount)
		err = flow.run(ctx,
			func(ctx context.Context) error {
				return e.assets.Transfer(ctx, pool, e.cfg.Custody, caller, amount)
			},
			func(ctx context.Context) error {
				return e.assets.Transfer(ctx, pool, caller, e.cfg.Custody, amount)
			},
		)
		if err != nil {
			return nil, fmt.Errorf("return stake: %v: %w", err, ErrTransferFailed)
		}
	}

	claimedAt := e.now()
	stake.Claimed = true
	stake.ClaimedAt = &claimedAt
	err = flow.run(ctx,
		func(ctx context.Context) error {
			return e.store.Update(ctx, stake)
		},
		func(ctx context.Context) error {
			reverted := stake.Clone()
			reverted.Claimed = false
			reverted.ClaimedAt = nil
			return e.store.Update(ctx, reverted)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("record claim: %w", err)
	}

	// The mint is irreversible, so it runs strictly last; every earlier
	// step, the claim record included, can still be compensated. A failed
	// mint can therefore never leave a minted reward behind a retryable
	// open stake.
	if reward.Sign() > 0 {
		if err := e.rewards.Mint(ctx, caller, reward); err != nil {
			flow.rollback(ctx)
			return nil, fmt.Errorf("mint reward: %v: %w", err, ErrInsufficientReward)
		}
	}

	kind := model.EventClaimedReward
	if withStake {
		kind = model.EventClaimedFull
	}
	e.recordEvent(kind, stake, reward)
	e.logger.Info("stake claimed",
		zap.String("participant", caller.Hex()),
		zap.String("pool", pool.Hex()),
		zap.String("lp_amount", stake.LPAmount.String()),
		zap.String("reward", reward.String()),
		zap.Bool("stake_returned", withStake),
	)
	return stake.Clone(), nil
}

func (e *Engine) depositWithPermit(ctx context.Context, pool common.Address, auth *model.PermitAuthorization) (*big.Int, error) {
	if auth.Spender != e.cfg.Custody {
		return nil, ErrPermitNotForLedger
	}
	if err := e.verifier.Verify(ctx, pool, *auth); err != nil {
		return nil, err
	}
	if err := e.pools.SubmitPermit(ctx, pool, *auth); err != nil {
		return nil, fmt.Errorf("submit permit: %w", err)
	}
	if err := e.assets.Transfer(ctx, pool, auth.Owner, e.cfg.Custody, auth.Value); err != nil {
		return nil, fmt.Errorf("pull position: %v: %w", err, ErrTransferFailed)
	}
	return new(big.Int).Set(auth.Value), nil
}

func (e *Engine) depositNative(ctx context.Context, pool common.Address, amount *big.Int) (*big.Int, error) {
	token0, token1, err := e.pools.Tokens(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("read pair tokens: %w", err)
	}

	base := e.cfg.WrappedNative
	var counter common.Address
	switch base {
	case token0:
		counter = token1
	case token1:
		counter = token0
	default:
		return nil, ErrNativeAssetMissing
	}

	// Half the deposit is swapped for the counter asset, the other half is
	// paired with the swap output for the liquidity mint.
	swapLeg := new(big.Int).Rsh(amount, 1)
	holdLeg := new(big.Int).Sub(amount, swapLeg)
	if swapLeg.Sign() == 0 {
		return nil, ErrZeroDeposit
	}

	reserve0, reserve1, err := e.pools.Reserves(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("read reserves: %w", err)
	}
	reserveIn, reserveOut := reserve0, reserve1
	if base == token1 {
		reserveIn, reserveOut = reserve1, reserve0
	}

	counterOut, err := e.pricer.AmountOut(swapLeg, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}
	if counterOut.Sign() == 0 {
		return nil, fmt.Errorf("deposit too small to swap: %w", ErrZeroDeposit)
	}

	amount0Out, amount1Out := big.NewInt(0), new(big.Int).Set(counterOut)
	if base == token1 {
		amount0Out, amount1Out = amount1Out, amount0Out
	}

	custody := e.cfg.Custody
	flow := newSaga(e.logger)

	err = flow.run(ctx,
		func(ctx context.Context) error { return e.assets.WrapNative(ctx, custody, amount) },
		func(ctx context.Context) error { return e.assets.UnwrapNative(ctx, custody, amount) },
	)
	if err != nil {
		return nil, fmt.Errorf("wrap native: %v: %w", err, ErrTransferFailed)
	}

	err = flow.run(ctx,
		func(ctx context.Context) error { return e.assets.Transfer(ctx, base, custody, pool, swapLeg) },
		func(ctx context.Context) error { return e.assets.Transfer(ctx, base, pool, custody, swapLeg) },
	)
	if err != nil {
		return nil, fmt.Errorf("fund swap: %v: %w", err, ErrTransferFailed)
	}

	// The swap is the pool-side commit point; it cannot be compensated.
	if err := flow.run(ctx, func(ctx context.Context) error {
		return e.pools.Swap(ctx, pool, amount0Out, amount1Out, custody)
	}, nil); err != nil {
		return nil, fmt.Errorf("execute swap: %w", err)
	}

	if err := e.assets.Transfer(ctx, counter, custody, pool, counterOut); err != nil {
		return nil, fmt.Errorf("supply counter leg: %v: %w", err, ErrTransferFailed)
	}
	if err := e.assets.Transfer(ctx, base, custody, pool, holdLeg); err != nil {
		return nil, fmt.Errorf("supply native leg: %v: %w", err, ErrTransferFailed)
	}

	lpAmount, err := e.pools.MintLiquidity(ctx, pool, custody)
	if err != nil {
		return nil, fmt.Errorf("mint liquidity: %w", err)
	}
	if lpAmount == nil || lpAmount.Sign() <= 0 {
		return nil, fmt.Errorf("pool minted no liquidity: %w", ErrTransferFailed)
	}
	return new(big.Int).Set(lpAmount), nil
}

func (e *Engine) recordEvent(kind string, stake *model.Stake, reward *big.Int) {
	if e.audit == nil {
		return
	}
	event := model.StakeEvent{
		Kind:        kind,
		Participant: stake.Participant.Hex(),
		Pool:        stake.Pool.Hex(),
		LPAmount:    stake.LPAmount.String(),
		OccurredAt:  e.now().UTC().Format(time.RFC3339Nano),
	}
	if reward != nil {
		event.RewardAmount = reward.String()
	}
	if err := e.audit.PutEventBatch([]model.StakeEvent{event}); err != nil {
		e.logger.Warn("audit write failed", zap.Error(err), zap.String("kind", kind))
	}
}

package amm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"stakeLedger/internal/pair"
)

var (
	// ErrIlliquidPool indicates one of the pool reserves is zero.
	ErrIlliquidPool = errors.New("amm: pool has no liquidity")
	// ErrNegativeAmount indicates a negative input quantity.
	ErrNegativeAmount = errors.New("amm: negative input amount")
)

// Fee defaults matching the 0.3% constant-product design fee.
const (
	DefaultFeeNumerator   = 997
	DefaultFeeDenominator = 1000
)

// ReserveView reads the current reserves of a pool, in token0/token1 order.
type ReserveView interface {
	Reserves(ctx context.Context, pool common.Address) (*big.Int, *big.Int, error)
}

// Pricer computes constant-product swap quotes against live reserves.
// Quotes are never cached: reserves are concurrently mutable by other actors.
type Pricer struct {
	resolver pair.Resolver
	reserves ReserveView
	feeNum   *big.Int
	feeDen   *big.Int
}

// NewPricer builds a pricer with the given fee ratio; a non-positive ratio
// falls back to the 997/1000 default.
func NewPricer(resolver pair.Resolver, reserves ReserveView, feeNumerator, feeDenominator int64) *Pricer {
	if feeNumerator <= 0 || feeDenominator <= 0 || feeNumerator > feeDenominator {
		feeNumerator = DefaultFeeNumerator
		feeDenominator = DefaultFeeDenominator
	}
	return &Pricer{
		resolver: resolver,
		reserves: reserves,
		feeNum:   big.NewInt(feeNumerator),
		feeDen:   big.NewInt(feeDenominator),
	}
}

// AmountOut applies the fee-adjusted constant-product formula with floor
// division. Rounding loss always favors the pool.
func (p *Pricer) AmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if amountIn.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrIlliquidPool
	}

	amountInWithFee := new(big.Int).Mul(amountIn, p.feeNum)
	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, p.feeDen)
	denominator.Add(denominator, amountInWithFee)

	return numerator.Quo(numerator, denominator), nil
}

// Quote resolves the pool for (assetIn, assetOut), orders its reserves to
// match the swap direction, and prices amountIn against them.
func (p *Pricer) Quote(ctx context.Context, assetIn, assetOut common.Address, amountIn *big.Int) (*big.Int, error) {
	pool, err := p.resolver.Resolve(ctx, assetIn, assetOut)
	if err != nil {
		return nil, err
	}

	reserveIn, reserveOut, err := p.PoolReserves(ctx, pool, assetIn, assetOut)
	if err != nil {
		return nil, err
	}
	return p.AmountOut(amountIn, reserveIn, reserveOut)
}

// PoolReserves returns the pool reserves ordered as (reserveIn, reserveOut)
// for the given swap direction.
func (p *Pricer) PoolReserves(ctx context.Context, pool common.Address, assetIn, assetOut common.Address) (*big.Int, *big.Int, error) {
	token0, _, err := pair.SortTokens(assetIn, assetOut)
	if err != nil {
		return nil, nil, err
	}

	reserve0, reserve1, err := p.reserves.Reserves(ctx, pool)
	if err != nil {
		return nil, nil, fmt.Errorf("read reserves: %w", err)
	}
	if assetIn == token0 {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}

package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"stakeLedger/internal/model"
)

// PairBackend adds the pair write operations to the read client, forming the
// execution surface the staking engine drives against live pools.
type PairBackend struct {
	*PairClient
	tx *Transactor
}

// NewPairBackend combines pair reads with operator-signed writes.
func NewPairBackend(reads *PairClient, tx *Transactor) *PairBackend {
	return &PairBackend{PairClient: reads, tx: tx}
}

// SubmitPermit forwards the authorization to the pair contract, consuming
// the owner's nonce and approving the spender.
func (b *PairBackend) SubmitPermit(ctx context.Context, pool common.Address, auth model.PermitAuthorization) error {
	pairABI, err := V2PairABI()
	if err != nil {
		return fmt.Errorf("parse pair abi: %w", err)
	}
	data, err := pairABI.Pack("permit", auth.Owner, auth.Spender, auth.Value, auth.Deadline, auth.V, auth.R, auth.S)
	if err != nil {
		return fmt.Errorf("pack permit: %w", err)
	}
	return b.tx.Send(ctx, pool, nil, data)
}

// Swap executes the pair swap; input funds must already sit on the pair.
func (b *PairBackend) Swap(ctx context.Context, pool common.Address, amount0Out, amount1Out *big.Int, to common.Address) error {
	pairABI, err := V2PairABI()
	if err != nil {
		return fmt.Errorf("parse pair abi: %w", err)
	}
	data, err := pairABI.Pack("swap", amount0Out, amount1Out, to, []byte{})
	if err != nil {
		return fmt.Errorf("pack swap: %w", err)
	}
	return b.tx.Send(ctx, pool, nil, data)
}

// MintLiquidity mints LP units against the pair's unaccounted balances. The
// minted amount is read back as the recipient's balance delta, since the
// contract return value is not observable from a transaction.
func (b *PairBackend) MintLiquidity(ctx context.Context, pool common.Address, to common.Address) (*big.Int, error) {
	before, err := b.lpBalance(ctx, pool, to)
	if err != nil {
		return nil, err
	}

	pairABI, err := V2PairABI()
	if err != nil {
		return nil, fmt.Errorf("parse pair abi: %w", err)
	}
	data, err := pairABI.Pack("mint", to)
	if err != nil {
		return nil, fmt.Errorf("pack mint: %w", err)
	}
	if err := b.tx.Send(ctx, pool, nil, data); err != nil {
		return nil, err
	}

	after, err := b.lpBalance(ctx, pool, to)
	if err != nil {
		return nil, err
	}
	minted := new(big.Int).Sub(after, before)
	if minted.Sign() <= 0 {
		return nil, fmt.Errorf("pair %s minted no liquidity", pool.Hex())
	}
	return minted, nil
}

func (b *PairBackend) lpBalance(ctx context.Context, pool, owner common.Address) (*big.Int, error) {
	pairABI, err := V2PairABI()
	if err != nil {
		return nil, fmt.Errorf("parse pair abi: %w", err)
	}
	values, err := b.call(ctx, pool, pairABI, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// TokenBackend moves ERC20 balances with the operator key acting as the
// custody account. Transfers from other owners use transferFrom and rely on
// a permit approval submitted beforehand.
type TokenBackend struct {
	reads         *PairClient
	tx            *Transactor
	wrappedNative common.Address
}

// NewTokenBackend builds the asset surface over the given wrapped-native token.
func NewTokenBackend(reads *PairClient, tx *Transactor, wrappedNative common.Address) *TokenBackend {
	return &TokenBackend{reads: reads, tx: tx, wrappedNative: wrappedNative}
}

// Balance returns the account's token balance.
func (b *TokenBackend) Balance(ctx context.Context, asset, account common.Address) (*big.Int, error) {
	erc, err := ERC20WriteABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := b.reads.call(ctx, asset, erc, "balanceOf", account)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// Transfer moves tokens between accounts the operator can act for.
func (b *TokenBackend) Transfer(ctx context.Context, asset, from, to common.Address, amount *big.Int) error {
	erc, err := ERC20WriteABI()
	if err != nil {
		return fmt.Errorf("parse erc20 abi: %w", err)
	}

	var data []byte
	if from == b.tx.From() {
		data, err = erc.Pack("transfer", to, amount)
	} else {
		data, err = erc.Pack("transferFrom", from, to, amount)
	}
	if err != nil {
		return fmt.Errorf("pack transfer: %w", err)
	}
	return b.tx.Send(ctx, asset, nil, data)
}

// WrapNative deposits native value into the wrapped-native token. Only the
// operator account holds native funds, so any other account is an error.
func (b *TokenBackend) WrapNative(ctx context.Context, account common.Address, amount *big.Int) error {
	if account != b.tx.From() {
		return fmt.Errorf("wrap for %s: native funds sit on the operator account", account.Hex())
	}
	weth, err := WETHABI()
	if err != nil {
		return fmt.Errorf("parse weth abi: %w", err)
	}
	data, err := weth.Pack("deposit")
	if err != nil {
		return fmt.Errorf("pack deposit: %w", err)
	}
	return b.tx.Send(ctx, b.wrappedNative, amount, data)
}

// UnwrapNative withdraws wrapped tokens back to native value.
func (b *TokenBackend) UnwrapNative(ctx context.Context, account common.Address, amount *big.Int) error {
	if account != b.tx.From() {
		return fmt.Errorf("unwrap for %s: native funds sit on the operator account", account.Hex())
	}
	weth, err := WETHABI()
	if err != nil {
		return fmt.Errorf("parse weth abi: %w", err)
	}
	data, err := weth.Pack("withdraw", amount)
	if err != nil {
		return fmt.Errorf("pack withdraw: %w", err)
	}
	return b.tx.Send(ctx, b.wrappedNative, nil, data)
}

// RewardToken mints the reward asset through its owner-restricted mint; the
// operator key must be the token's minting authority.
type RewardToken struct {
	token common.Address
	tx    *Transactor
}

// NewRewardToken builds a minter for the given reward token contract.
func NewRewardToken(token common.Address, tx *Transactor) *RewardToken {
	return &RewardToken{token: token, tx: tx}
}

// Mint issues reward tokens to the recipient.
func (r *RewardToken) Mint(ctx context.Context, to common.Address, amount *big.Int) error {
	erc, err := ERC20WriteABI()
	if err != nil {
		return fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := erc.Pack("mint", to, amount)
	if err != nil {
		return fmt.Errorf("pack mint: %w", err)
	}
	return r.tx.Send(ctx, r.token, nil, data)
}

package ledger

import "errors"

var (
	// ErrZeroDeposit indicates a deposit with no native value and no permit.
	ErrZeroDeposit = errors.New("staking: deposit carries no value")
	// ErrDuplicateStake indicates the caller already holds an open stake for the pair.
	ErrDuplicateStake = errors.New("staking: open stake already exists for pair")
	// ErrNoStake indicates a claim without an open stake for the pair.
	ErrNoStake = errors.New("staking: no stake for pair")
	// ErrAlreadyClaimed indicates the stake's reward was already paid out.
	ErrAlreadyClaimed = errors.New("staking: stake already claimed")
	// ErrInsufficientReward indicates the reward issuer refused the mint.
	ErrInsufficientReward = errors.New("staking: reward mint failed")
	// ErrTransferFailed indicates a custody movement could not be applied.
	ErrTransferFailed = errors.New("staking: custody transfer failed")
	// ErrNativeAssetMissing indicates the pair has no wrapped-native leg to swap into.
	ErrNativeAssetMissing = errors.New("staking: pair does not include the wrapped native asset")
	// ErrPermitNotForLedger indicates the permit's spender is not this ledger's custody account.
	ErrPermitNotForLedger = errors.New("staking: permit spender is not the ledger custody account")
)

package ledger

import (
	"math/big"

	"stakeLedger/internal/model"
)

// Deposit is the tagged input variant for CreateStake. The caller states the
// path explicitly; the engine never infers it from sentinel zero values.
type Deposit struct {
	native *big.Int
	permit *model.PermitAuthorization
}

// NativeDeposit stakes attached native value through the swap path.
func NativeDeposit(amount *big.Int) Deposit {
	if amount == nil {
		return Deposit{}
	}
	return Deposit{native: new(big.Int).Set(amount)}
}

// PermitDeposit stakes an existing liquidity position authorized off chain.
func PermitDeposit(auth model.PermitAuthorization) Deposit {
	return Deposit{permit: &auth}
}

package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PermitAuthorization is a single-use, off-chain-signed approval that lets
// the spender pull `Value` liquidity-pool units from `Owner`. It is never
// persisted; replay protection comes from the pool's nonce increment.
type PermitAuthorization struct {
	Owner    common.Address
	Spender  common.Address
	Value    *big.Int
	Deadline *big.Int
	V        uint8
	R        [32]byte
	S        [32]byte
}

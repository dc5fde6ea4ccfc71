package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Stake records a participant's custodied liquidity-pool position for one
// pair and its claim status. Claimed stakes are never deleted; a new stake
// for the same pair is a fresh record.
type Stake struct {
	Participant common.Address
	Pool        common.Address
	LPAmount    *big.Int
	Claimed     bool
	CreatedAt   time.Time
	ClaimedAt   *time.Time
}

// Open reports whether the stake is live: positive LP amount and not yet claimed.
func (s *Stake) Open() bool {
	if s == nil || s.LPAmount == nil {
		return false
	}
	return s.LPAmount.Sign() > 0 && !s.Claimed
}

// Clone returns a deep copy so store implementations can hand out records
// without aliasing the ledger's own state.
func (s *Stake) Clone() *Stake {
	if s == nil {
		return nil
	}
	clone := *s
	if s.LPAmount != nil {
		clone.LPAmount = new(big.Int).Set(s.LPAmount)
	}
	if s.ClaimedAt != nil {
		ts := *s.ClaimedAt
		clone.ClaimedAt = &ts
	}
	return &clone
}

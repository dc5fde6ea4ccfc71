package ledger

import "math/big"

// RewardPolicy maps a staked LP amount to a one-time reward payout in the
// reward asset. The ratio is deployment configuration, not a protocol
// constant; the engine never hardcodes a rate.
type RewardPolicy struct {
	Numerator   int64
	Denominator int64
}

// DefaultRewardPolicy pays one reward unit per ten staked LP units.
func DefaultRewardPolicy() RewardPolicy {
	return RewardPolicy{Numerator: 1, Denominator: 10}
}

// RewardFor computes the payout with floor division. A malformed policy or
// nil amount yields zero rather than an error.
func (p RewardPolicy) RewardFor(lpAmount *big.Int) *big.Int {
	if lpAmount == nil || lpAmount.Sign() <= 0 || p.Numerator <= 0 || p.Denominator <= 0 {
		return big.NewInt(0)
	}
	reward := new(big.Int).Mul(lpAmount, big.NewInt(p.Numerator))
	return reward.Quo(reward, big.NewInt(p.Denominator))
}

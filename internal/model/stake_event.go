package model

// StakeEvent is the normalized representation of a ledger mutation for the
// append-only audit log. Amounts are string-encoded to survive JSON round
// trips without precision loss.
type StakeEvent struct {
	Kind         string `json:"kind"`
	Participant  string `json:"participant"`
	Pool         string `json:"pool"`
	LPAmount     string `json:"lp_amount"`
	RewardAmount string `json:"reward_amount,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}

// Event kinds written by the ledger engine.
const (
	EventStakeCreated  = "stake_created"
	EventClaimedFull   = "claimed_full"
	EventClaimedReward = "claimed_reward"
)

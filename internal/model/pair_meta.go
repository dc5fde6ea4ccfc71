package model

// PairMeta captures immutable V2 pair metadata with optional live reserves.
type PairMeta struct {
	Token0   string `json:"token0"`
	Token1   string `json:"token1"`
	Reserve0 string `json:"reserve0,omitempty"`
	Reserve1 string `json:"reserve1,omitempty"`
}

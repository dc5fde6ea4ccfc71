package pair

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrPairNotFound indicates no canonical pool exists for the pair.
	ErrPairNotFound = errors.New("pair: no canonical pool for token pair")
	// ErrIdenticalTokens indicates both sides of the pair are the same token.
	ErrIdenticalTokens = errors.New("pair: identical tokens")
	// ErrZeroToken indicates one side of the pair is the zero address.
	ErrZeroToken = errors.New("pair: zero address token")
)

// Uniswap V2 mainnet defaults, overridable through configuration.
const (
	DefaultFactory      = "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"
	DefaultInitCodeHash = "0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbe8f0a221686a110e04"
)

// Resolver locates the canonical pool contract for a token pair.
// Implementations must be order-independent.
type Resolver interface {
	Resolve(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)
}

// SortTokens returns the pair tokens in canonical (token0, token1) order.
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address, error) {
	if tokenA == tokenB {
		return common.Address{}, common.Address{}, ErrIdenticalTokens
	}
	if tokenA == (common.Address{}) || tokenB == (common.Address{}) {
		return common.Address{}, common.Address{}, ErrZeroToken
	}
	if tokenA.Cmp(tokenB) < 0 {
		return tokenA, tokenB, nil
	}
	return tokenB, tokenA, nil
}

// DeterministicResolver derives the pool address from the factory and the
// pair init code hash, the same way the factory's CREATE2 deployment does.
// Pure computation, no chain access.
type DeterministicResolver struct {
	factory      common.Address
	initCodeHash common.Hash
}

// NewDeterministicResolver builds a resolver for the given factory deployment.
func NewDeterministicResolver(factory common.Address, initCodeHash common.Hash) *DeterministicResolver {
	return &DeterministicResolver{factory: factory, initCodeHash: initCodeHash}
}

// NewDefaultResolver returns a resolver for the Uniswap V2 mainnet factory.
func NewDefaultResolver() *DeterministicResolver {
	return NewDeterministicResolver(
		common.HexToAddress(DefaultFactory),
		common.HexToHash(DefaultInitCodeHash),
	)
}

// Resolve computes the CREATE2 pool address for the sorted token pair.
func (r *DeterministicResolver) Resolve(_ context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	token0, token1, err := SortTokens(tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}

	salt := crypto.Keccak256(token0.Bytes(), token1.Bytes())
	digest := crypto.Keccak256(
		[]byte{0xff},
		r.factory.Bytes(),
		salt,
		r.initCodeHash.Bytes(),
	)
	return common.BytesToAddress(digest[12:]), nil
}

// RegistryClient is the chain read surface the registry resolver needs.
type RegistryClient interface {
	GetPair(ctx context.Context, factory, tokenA, tokenB common.Address) (common.Address, error)
}

// RegistryResolver queries the factory registry on chain. Unlike the
// deterministic resolver it only reports pools that actually exist.
type RegistryResolver struct {
	client  RegistryClient
	factory common.Address
}

// NewRegistryResolver builds a resolver backed by a live factory registry.
func NewRegistryResolver(client RegistryClient, factory common.Address) *RegistryResolver {
	return &RegistryResolver{client: client, factory: factory}
}

// Resolve looks the pair up in the registry; a zero address means no pool.
func (r *RegistryResolver) Resolve(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	token0, token1, err := SortTokens(tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	pool, err := r.client.GetPair(ctx, r.factory, token0, token1)
	if err != nil {
		return common.Address{}, fmt.Errorf("registry lookup: %w", err)
	}
	if pool == (common.Address{}) {
		return common.Address{}, ErrPairNotFound
	}
	return pool, nil
}

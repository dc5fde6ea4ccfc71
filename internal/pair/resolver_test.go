package pair

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	testWETH = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	testDAI  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

func TestSortTokens(t *testing.T) {
	token0, token1, err := SortTokens(testWETH, testDAI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token0 != testDAI || token1 != testWETH {
		t.Fatalf("wrong order: %s %s", token0.Hex(), token1.Hex())
	}

	swapped0, swapped1, err := SortTokens(testDAI, testWETH)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if swapped0 != token0 || swapped1 != token1 {
		t.Fatalf("ordering is not input-order independent")
	}
}

func TestSortTokensRejectsDegenerate(t *testing.T) {
	if _, _, err := SortTokens(testWETH, testWETH); !errors.Is(err, ErrIdenticalTokens) {
		t.Fatalf("expected ErrIdenticalTokens, got %v", err)
	}
	if _, _, err := SortTokens(testWETH, common.Address{}); !errors.Is(err, ErrZeroToken) {
		t.Fatalf("expected ErrZeroToken, got %v", err)
	}
}

func TestDeterministicResolveKnownPair(t *testing.T) {
	resolver := NewDefaultResolver()

	got, err := resolver.Resolve(context.Background(), testWETH, testDAI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := common.HexToAddress("0xA478c2975Ab1Ea89e8196811F51A7B7Ade33eB11")
	if got != want {
		t.Fatalf("pool mismatch: got %s want %s", got.Hex(), want.Hex())
	}
}

func TestDeterministicResolveOrderIndependent(t *testing.T) {
	resolver := NewDefaultResolver()

	forward, err := resolver.Resolve(context.Background(), testWETH, testDAI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reverse, err := resolver.Resolve(context.Background(), testDAI, testWETH)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if forward != reverse {
		t.Fatalf("resolve is order dependent: %s != %s", forward.Hex(), reverse.Hex())
	}
}

type stubRegistry struct {
	pool common.Address
	err  error
}

func (s stubRegistry) GetPair(context.Context, common.Address, common.Address, common.Address) (common.Address, error) {
	return s.pool, s.err
}

func TestRegistryResolveMissingPair(t *testing.T) {
	resolver := NewRegistryResolver(stubRegistry{}, common.HexToAddress(DefaultFactory))

	if _, err := resolver.Resolve(context.Background(), testWETH, testDAI); !errors.Is(err, ErrPairNotFound) {
		t.Fatalf("expected ErrPairNotFound, got %v", err)
	}
}

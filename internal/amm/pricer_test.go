package amm

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"stakeLedger/internal/pair"
)

type fixedReserves struct {
	reserve0 *big.Int
	reserve1 *big.Int
}

func (f fixedReserves) Reserves(context.Context, common.Address) (*big.Int, *big.Int, error) {
	return f.reserve0, f.reserve1, nil
}

func newTestPricer(reserve0, reserve1 int64) *Pricer {
	view := fixedReserves{reserve0: big.NewInt(reserve0), reserve1: big.NewInt(reserve1)}
	return NewPricer(pair.NewDefaultResolver(), view, 0, 0)
}

func TestAmountOutGoldenValues(t *testing.T) {
	pricer := newTestPricer(0, 0)

	cases := []struct {
		name       string
		amountIn   int64
		reserveIn  int64
		reserveOut int64
		want       int64
	}{
		// 100*997*10000 / (10000*1000 + 100*997) = 99.7... -> floor 99
		{"small swap", 100, 10000, 10000, 99},
		{"asymmetric reserves", 1000, 5000, 10000, 1662},
		{"single unit", 1, 1000, 1000, 0},
	}

	for _, tc := range cases {
		got, err := pricer.AmountOut(big.NewInt(tc.amountIn), big.NewInt(tc.reserveIn), big.NewInt(tc.reserveOut))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got.Int64() != tc.want {
			t.Fatalf("%s: got %d want %d", tc.name, got.Int64(), tc.want)
		}
	}
}

func TestAmountOutZeroInput(t *testing.T) {
	pricer := newTestPricer(0, 0)

	got, err := pricer.AmountOut(big.NewInt(0), big.NewInt(1000), big.NewInt(1000))
	if err != nil {
		t.Fatalf("zero input must not error: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("zero input must quote zero, got %s", got)
	}
}

func TestAmountOutIlliquid(t *testing.T) {
	pricer := newTestPricer(0, 0)

	if _, err := pricer.AmountOut(big.NewInt(10), big.NewInt(0), big.NewInt(1000)); !errors.Is(err, ErrIlliquidPool) {
		t.Fatalf("expected ErrIlliquidPool for empty reserveIn, got %v", err)
	}
	if _, err := pricer.AmountOut(big.NewInt(10), big.NewInt(1000), big.NewInt(0)); !errors.Is(err, ErrIlliquidPool) {
		t.Fatalf("expected ErrIlliquidPool for empty reserveOut, got %v", err)
	}
}

func TestAmountOutMonotonic(t *testing.T) {
	pricer := newTestPricer(0, 0)

	reserveIn := big.NewInt(1_000_000)
	reserveOut := big.NewInt(2_000_000)

	prev := big.NewInt(-1)
	for _, amountIn := range []int64{1, 10, 100, 1000, 10_000, 100_000, 1_000_000} {
		out, err := pricer.AmountOut(big.NewInt(amountIn), reserveIn, reserveOut)
		if err != nil {
			t.Fatalf("unexpected error at %d: %v", amountIn, err)
		}
		if out.Cmp(prev) < 0 {
			t.Fatalf("quote not monotonic at %d: %s < %s", amountIn, out, prev)
		}
		if out.Cmp(reserveOut) >= 0 {
			t.Fatalf("quote must stay below reserveOut, got %s", out)
		}
		prev = out
	}
}

func TestQuoteOrdersReservesByDirection(t *testing.T) {
	weth := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	dai := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	// DAI sorts below WETH, so reserve0 belongs to DAI.
	pricer := newTestPricer(4_000_000, 1_000)

	daiOut, err := pricer.Quote(context.Background(), weth, dai, big.NewInt(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wethOut, err := pricer.Quote(context.Background(), dai, weth, big.NewInt(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Selling scarce WETH for plentiful DAI must pay far more units than
	// the reverse direction.
	if daiOut.Cmp(wethOut) <= 0 {
		t.Fatalf("direction ordering broken: daiOut=%s wethOut=%s", daiOut, wethOut)
	}
}

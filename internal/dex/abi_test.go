package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestV2PairABIPacksReads(t *testing.T) {
	pairABI, err := V2PairABI()
	if err != nil {
		t.Fatalf("parse pair abi: %v", err)
	}

	for _, method := range []string{"token0", "token1", "getReserves", "totalSupply"} {
		if _, err := pairABI.Pack(method); err != nil {
			t.Fatalf("pack %s: %v", method, err)
		}
	}

	owner := common.HexToAddress("0x0000000000000000000000000000000000000A11")
	if _, err := pairABI.Pack("nonces", owner); err != nil {
		t.Fatalf("pack nonces: %v", err)
	}
	if _, err := pairABI.Pack("balanceOf", owner); err != nil {
		t.Fatalf("pack balanceOf: %v", err)
	}
}

func TestV2PairABIPacksWrites(t *testing.T) {
	pairABI, err := V2PairABI()
	if err != nil {
		t.Fatalf("parse pair abi: %v", err)
	}

	owner := common.HexToAddress("0x0000000000000000000000000000000000000A11")
	spender := common.HexToAddress("0x0000000000000000000000000000000000000B0B")
	var word [32]byte

	if _, err := pairABI.Pack("permit", owner, spender, big.NewInt(500), big.NewInt(1_700_003_600), uint8(27), word, word); err != nil {
		t.Fatalf("pack permit: %v", err)
	}
	if _, err := pairABI.Pack("swap", big.NewInt(0), big.NewInt(99), owner, []byte{}); err != nil {
		t.Fatalf("pack swap: %v", err)
	}
	if _, err := pairABI.Pack("mint", owner); err != nil {
		t.Fatalf("pack mint: %v", err)
	}

	erc, err := ERC20WriteABI()
	if err != nil {
		t.Fatalf("parse erc20 write abi: %v", err)
	}
	if _, err := erc.Pack("transfer", spender, big.NewInt(500)); err != nil {
		t.Fatalf("pack transfer: %v", err)
	}
	if _, err := erc.Pack("transferFrom", owner, spender, big.NewInt(500)); err != nil {
		t.Fatalf("pack transferFrom: %v", err)
	}
	if _, err := erc.Pack("mint", owner, big.NewInt(500)); err != nil {
		t.Fatalf("pack mint: %v", err)
	}

	weth, err := WETHABI()
	if err != nil {
		t.Fatalf("parse weth abi: %v", err)
	}
	if _, err := weth.Pack("deposit"); err != nil {
		t.Fatalf("pack deposit: %v", err)
	}
	if _, err := weth.Pack("withdraw", big.NewInt(500)); err != nil {
		t.Fatalf("pack withdraw: %v", err)
	}
}

func TestV2FactoryABIPacksGetPair(t *testing.T) {
	factoryABI, err := V2FactoryABI()
	if err != nil {
		t.Fatalf("parse factory abi: %v", err)
	}

	tokenA := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	tokenB := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	if _, err := factoryABI.Pack("getPair", tokenA, tokenB); err != nil {
		t.Fatalf("pack getPair: %v", err)
	}
}

func TestBytes32ToString(t *testing.T) {
	var raw [32]byte
	copy(raw[:], "MKR")

	got, ok := bytes32ToString(raw)
	if !ok || got != "MKR" {
		t.Fatalf("bytes32 decode failed: %q %v", got, ok)
	}

	if _, ok := bytes32ToString(42); ok {
		t.Fatalf("unexpected decode of non-bytes value")
	}
}

func TestAsBigInt(t *testing.T) {
	got, err := asBigInt(uint64(7))
	if err != nil || got.Int64() != 7 {
		t.Fatalf("uint64 conversion failed: %v %v", got, err)
	}

	src := big.NewInt(42)
	got, err = asBigInt(src)
	if err != nil {
		t.Fatalf("big.Int conversion failed: %v", err)
	}
	got.SetInt64(0)
	if src.Int64() != 42 {
		t.Fatalf("conversion must copy, source mutated to %s", src)
	}

	if _, err := asBigInt("42"); err == nil {
		t.Fatalf("expected error for string input")
	}
}

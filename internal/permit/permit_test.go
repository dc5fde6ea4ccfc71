package permit

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type nonceMap struct {
	nonces map[common.Address]*big.Int
}

func newNonceMap() *nonceMap {
	return &nonceMap{nonces: make(map[common.Address]*big.Int)}
}

func (n *nonceMap) Nonce(_ context.Context, _ common.Address, owner common.Address) (*big.Int, error) {
	if nonce, ok := n.nonces[owner]; ok {
		return new(big.Int).Set(nonce), nil
	}
	return big.NewInt(0), nil
}

func (n *nonceMap) bump(owner common.Address) {
	current, _ := n.Nonce(context.Background(), common.Address{}, owner)
	n.nonces[owner] = current.Add(current, big.NewInt(1))
}

var testPool = common.HexToAddress("0xA478c2975Ab1Ea89e8196811F51A7B7Ade33eB11")

func fixedClock() time.Time {
	return time.Unix(1_700_000_000, 0)
}

func TestVerifyRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	chainID := big.NewInt(1)
	nonces := newNonceMap()
	verifier := NewVerifier(chainID, nonces)
	verifier.SetClock(fixedClock)

	spender := common.HexToAddress("0x0000000000000000000000000000000000001234")
	deadline := big.NewInt(fixedClock().Unix() + 1)

	auth, err := Sign(key, chainID, testPool, spender, big.NewInt(500), big.NewInt(0), deadline)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if err := verifier.Verify(context.Background(), testPool, auth); err != nil {
		t.Fatalf("valid permit rejected: %v", err)
	}
}

func TestVerifyReplayAfterNonceIncrement(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	chainID := big.NewInt(1)
	nonces := newNonceMap()
	verifier := NewVerifier(chainID, nonces)
	verifier.SetClock(fixedClock)

	owner := crypto.PubkeyToAddress(key.PublicKey)
	spender := common.HexToAddress("0x0000000000000000000000000000000000001234")
	deadline := big.NewInt(fixedClock().Unix() + 3600)

	auth, err := Sign(key, chainID, testPool, spender, big.NewInt(500), big.NewInt(0), deadline)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := verifier.Verify(context.Background(), testPool, auth); err != nil {
		t.Fatalf("first use rejected: %v", err)
	}

	// The asset consumed the nonce; resubmitting the same signature is stale.
	nonces.bump(owner)
	if err := verifier.Verify(context.Background(), testPool, auth); !errors.Is(err, ErrNonceMismatch) {
		t.Fatalf("expected ErrNonceMismatch on replay, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	chainID := big.NewInt(1)
	verifier := NewVerifier(chainID, newNonceMap())
	verifier.SetClock(fixedClock)

	spender := common.HexToAddress("0x0000000000000000000000000000000000001234")
	deadline := big.NewInt(fixedClock().Unix() - 1)

	auth, err := Sign(key, chainID, testPool, spender, big.NewInt(500), big.NewInt(0), deadline)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := verifier.Verify(context.Background(), testPool, auth); !errors.Is(err, ErrExpiredPermit) {
		t.Fatalf("expected ErrExpiredPermit, got %v", err)
	}
}

func TestVerifyWrongSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	otherKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	chainID := big.NewInt(1)
	verifier := NewVerifier(chainID, newNonceMap())
	verifier.SetClock(fixedClock)

	spender := common.HexToAddress("0x0000000000000000000000000000000000001234")
	deadline := big.NewInt(fixedClock().Unix() + 3600)

	auth, err := Sign(otherKey, chainID, testPool, spender, big.NewInt(500), big.NewInt(0), deadline)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	// Claim the signature belongs to a different owner.
	auth.Owner = crypto.PubkeyToAddress(key.PublicKey)

	if err := verifier.Verify(context.Background(), testPool, auth); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifyZeroValue(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	chainID := big.NewInt(1)
	verifier := NewVerifier(chainID, newNonceMap())
	verifier.SetClock(fixedClock)

	spender := common.HexToAddress("0x0000000000000000000000000000000000001234")
	deadline := big.NewInt(fixedClock().Unix() + 3600)

	auth, err := Sign(key, chainID, testPool, spender, big.NewInt(500), big.NewInt(0), deadline)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	auth.Value = big.NewInt(0)
	if err := verifier.Verify(context.Background(), testPool, auth); !errors.Is(err, ErrZeroValue) {
		t.Fatalf("expected ErrZeroValue for zero amount, got %v", err)
	}

	auth.Value = nil
	if err := verifier.Verify(context.Background(), testPool, auth); !errors.Is(err, ErrZeroValue) {
		t.Fatalf("expected ErrZeroValue for nil amount, got %v", err)
	}
}

func TestVerifyMalformedRecoveryID(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	chainID := big.NewInt(1)
	verifier := NewVerifier(chainID, newNonceMap())
	verifier.SetClock(fixedClock)

	spender := common.HexToAddress("0x0000000000000000000000000000000000001234")
	deadline := big.NewInt(fixedClock().Unix() + 3600)

	auth, err := Sign(key, chainID, testPool, spender, big.NewInt(500), big.NewInt(0), deadline)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	auth.V = 42

	if err := verifier.Verify(context.Background(), testPool, auth); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for bad v, got %v", err)
	}
}

func TestDomainSeparatorStable(t *testing.T) {
	one := DomainSeparator(big.NewInt(1), testPool)
	same := DomainSeparator(big.NewInt(1), testPool)
	other := DomainSeparator(big.NewInt(56), testPool)

	if one != same {
		t.Fatalf("domain separator must be deterministic")
	}
	if one == other {
		t.Fatalf("domain separator must bind the chain id")
	}
}

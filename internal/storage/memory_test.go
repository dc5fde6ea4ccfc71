package storage

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"stakeLedger/internal/model"
)

var (
	testParticipant = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testPoolA       = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testPoolB       = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func newStake(pool common.Address, lp int64) *model.Stake {
	return &model.Stake{
		Participant: testParticipant,
		Pool:        pool,
		LPAmount:    big.NewInt(lp),
		CreatedAt:   time.Unix(1_700_000_000, 0),
	}
}

func TestMemoryStoreCurrentEmpty(t *testing.T) {
	store := NewMemoryStore()

	_, ok, err := store.Current(context.Background(), testParticipant, testPoolA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no stake before any append")
	}
}

func TestMemoryStoreAppendAndCurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, newStake(testPoolA, 500)); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, ok, err := store.Current(ctx, testParticipant, testPoolA)
	if err != nil || !ok {
		t.Fatalf("current: ok=%v err=%v", ok, err)
	}
	if got.LPAmount.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected lp 500, got %s", got.LPAmount)
	}
}

func TestMemoryStoreUpdateRewritesNewest(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, newStake(testPoolA, 500)); err != nil {
		t.Fatalf("append: %v", err)
	}

	claimed := newStake(testPoolA, 500)
	claimed.Claimed = true
	claimedAt := time.Unix(1_700_000_100, 0)
	claimed.ClaimedAt = &claimedAt
	if err := store.Update(ctx, claimed); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _, err := store.Current(ctx, testParticipant, testPoolA)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if !got.Claimed || got.ClaimedAt == nil {
		t.Fatal("expected the claimed record back")
	}
}

func TestMemoryStoreUpdateWithoutAppend(t *testing.T) {
	store := NewMemoryStore()

	if err := store.Update(context.Background(), newStake(testPoolA, 1)); err == nil {
		t.Fatal("expected update of a missing key to fail")
	}
}

func TestMemoryStoreHistorySurvivesRestake(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := newStake(testPoolA, 500)
	first.Claimed = true
	if err := store.Append(ctx, first); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := store.Append(ctx, newStake(testPoolA, 900)); err != nil {
		t.Fatalf("append second: %v", err)
	}

	got, _, err := store.Current(ctx, testParticipant, testPoolA)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if got.Claimed || got.LPAmount.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("expected the fresh 900 stake, got claimed=%v lp=%s", got.Claimed, got.LPAmount)
	}
}

func TestMemoryStoreLatestAcrossPools(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, newStake(testPoolA, 500)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, newStake(testPoolB, 900)); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, ok, err := store.Latest(ctx, testParticipant)
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if got.Pool != testPoolB || got.LPAmount.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("expected the pool B stake, got pool=%s lp=%s", got.Pool.Hex(), got.LPAmount)
	}
}

func TestMemoryStoreClonesOnReturn(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Append(ctx, newStake(testPoolA, 500)); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, _, err := store.Current(ctx, testParticipant, testPoolA)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	got.LPAmount.SetInt64(0)
	got.Claimed = true

	again, _, err := store.Current(ctx, testParticipant, testPoolA)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if again.Claimed || again.LPAmount.Cmp(big.NewInt(500)) != 0 {
		t.Fatal("mutating a returned stake must not affect the store")
	}
}

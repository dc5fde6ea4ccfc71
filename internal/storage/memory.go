package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"stakeLedger/internal/model"
)

type stakeKey struct {
	participant common.Address
	pool        common.Address
}

// MemoryStore is the in-process stake table. It keeps full per-key history
// so claimed stakes remain readable after a new stake is opened.
type MemoryStore struct {
	mu      sync.RWMutex
	history map[stakeKey][]*model.Stake
	order   map[common.Address][]stakeKey
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		history: make(map[stakeKey][]*model.Stake),
		order:   make(map[common.Address][]stakeKey),
	}
}

func (s *MemoryStore) Current(_ context.Context, participant, pool common.Address) (*model.Stake, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.history[stakeKey{participant: participant, pool: pool}]
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[len(records)-1].Clone(), true, nil
}

func (s *MemoryStore) Append(_ context.Context, stake *model.Stake) error {
	if stake == nil {
		return fmt.Errorf("nil stake")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := stakeKey{participant: stake.Participant, pool: stake.Pool}
	s.history[key] = append(s.history[key], stake.Clone())
	s.order[stake.Participant] = append(s.order[stake.Participant], key)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, stake *model.Stake) error {
	if stake == nil {
		return fmt.Errorf("nil stake")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := stakeKey{participant: stake.Participant, pool: stake.Pool}
	records := s.history[key]
	if len(records) == 0 {
		return fmt.Errorf("no stake for %s/%s", stake.Participant.Hex(), stake.Pool.Hex())
	}
	records[len(records)-1] = stake.Clone()
	return nil
}

func (s *MemoryStore) Latest(_ context.Context, participant common.Address) (*model.Stake, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.order[participant]
	if len(keys) == 0 {
		return nil, false, nil
	}
	key := keys[len(keys)-1]
	records := s.history[key]
	return records[len(records)-1].Clone(), true, nil
}

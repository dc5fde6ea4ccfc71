package storage

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"stakeLedger/internal/model"
)

// StakeStore is the ledger's exclusive view of the stake table. Claimed
// records are retained as history; Current and Latest always return the
// newest record for their key.
type StakeStore interface {
	// Current returns the newest stake for (participant, pool).
	Current(ctx context.Context, participant, pool common.Address) (*model.Stake, bool, error)
	// Append records a freshly created stake as a new entity.
	Append(ctx context.Context, stake *model.Stake) error
	// Update rewrites the newest stake for the record's (participant, pool).
	Update(ctx context.Context, stake *model.Stake) error
	// Latest returns the participant's most recent stake across all pools.
	Latest(ctx context.Context, participant common.Address) (*model.Stake, bool, error)
}

// AuditSink receives ledger mutation events for the append-only audit trail.
type AuditSink interface {
	PutEventBatch(events []model.StakeEvent) error
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stakeLedger/internal/model"
)

// Store provides Postgres persistence for the stake table. Every stake is a
// distinct row; re-staking a pair after a claim inserts a new row, so the
// claimed history is preserved for audit queries.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the stakes table when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS stakes (
			id BIGSERIAL PRIMARY KEY,
			participant TEXT NOT NULL,
			pool_address TEXT NOT NULL,
			lp_amount NUMERIC NOT NULL,
			claimed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			claimed_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS stakes_participant_pool_idx
			ON stakes (participant, pool_address, id DESC);
	`)
	if err != nil {
		return fmt.Errorf("migrate stakes: %w", err)
	}
	return nil
}

// Current returns the newest stake for (participant, pool).
func (s *Store) Current(ctx context.Context, participant, pool common.Address) (*model.Stake, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT participant, pool_address, lp_amount::text, claimed, created_at, claimed_at
		FROM stakes
		WHERE participant = $1 AND pool_address = $2
		ORDER BY id DESC
		LIMIT 1
	`, participant.Hex(), pool.Hex())
	return scanStake(row)
}

// Append inserts a freshly created stake as a new row.
func (s *Store) Append(ctx context.Context, stake *model.Stake) error {
	if stake == nil || stake.LPAmount == nil {
		return fmt.Errorf("nil stake")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO stakes (participant, pool_address, lp_amount, claimed, created_at, claimed_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
	`,
		stake.Participant.Hex(),
		stake.Pool.Hex(),
		stake.LPAmount.String(),
		stake.Claimed,
		stake.CreatedAt,
		stake.ClaimedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stake: %w", err)
	}
	return nil
}

// Update rewrites the newest row for the record's (participant, pool).
func (s *Store) Update(ctx context.Context, stake *model.Stake) error {
	if stake == nil || stake.LPAmount == nil {
		return fmt.Errorf("nil stake")
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE stakes SET lp_amount = $3::numeric, claimed = $4, claimed_at = $5
		WHERE id = (
			SELECT id FROM stakes
			WHERE participant = $1 AND pool_address = $2
			ORDER BY id DESC
			LIMIT 1
		)
	`,
		stake.Participant.Hex(),
		stake.Pool.Hex(),
		stake.LPAmount.String(),
		stake.Claimed,
		stake.ClaimedAt,
	)
	if err != nil {
		return fmt.Errorf("update stake: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no stake for %s/%s", stake.Participant.Hex(), stake.Pool.Hex())
	}
	return nil
}

// Latest returns the participant's most recent stake across all pools.
func (s *Store) Latest(ctx context.Context, participant common.Address) (*model.Stake, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT participant, pool_address, lp_amount::text, claimed, created_at, claimed_at
		FROM stakes
		WHERE participant = $1
		ORDER BY id DESC
		LIMIT 1
	`, participant.Hex())
	return scanStake(row)
}

func scanStake(row pgx.Row) (*model.Stake, bool, error) {
	var (
		participant string
		poolAddress string
		lpAmount    string
		claimed     bool
		createdAt   time.Time
		claimedAt   *time.Time
	)
	if err := row.Scan(&participant, &poolAddress, &lpAmount, &claimed, &createdAt, &claimedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("scan stake: %w", err)
	}

	amount, ok := new(big.Int).SetString(lpAmount, 10)
	if !ok {
		return nil, false, fmt.Errorf("parse lp amount %q", lpAmount)
	}

	return &model.Stake{
		Participant: common.HexToAddress(participant),
		Pool:        common.HexToAddress(poolAddress),
		LPAmount:    amount,
		Claimed:     claimed,
		CreatedAt:   createdAt,
		ClaimedAt:   claimedAt,
	}, true, nil
}

package ledger

import (
	"context"

	"go.uber.org/zap"
)

// saga applies multi-step external effects with explicit compensation. When
// a step fails, previously registered undo actions run in reverse order so
// the operation leaves no residual state. Undo failures are logged, not
// propagated: the original failure is the one the caller must see.
type saga struct {
	logger *zap.Logger
	undo   []func(context.Context) error
}

func newSaga(logger *zap.Logger) *saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &saga{logger: logger}
}

// run executes do; on failure it rolls back everything applied so far. A nil
// undo marks an irreversible step, which callers must order last.
func (s *saga) run(ctx context.Context, do func(context.Context) error, undo func(context.Context) error) error {
	if err := do(ctx); err != nil {
		s.rollback(ctx)
		return err
	}
	if undo != nil {
		s.undo = append(s.undo, undo)
	}
	return nil
}

func (s *saga) rollback(ctx context.Context) {
	for i := len(s.undo) - 1; i >= 0; i-- {
		if err := s.undo[i](ctx); err != nil {
			s.logger.Warn("compensation failed", zap.Error(err))
		}
	}
	s.undo = nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caregraph/caregraph/internal/store"
	"go.uber.org/zap"
)

// ErrCascadeDeadline marks a cascade plan that exceeded its execution
// deadline. Nothing was applied; the operation is safe to retry.
var ErrCascadeDeadline = errors.New("cascade deadline exceeded, retry")

// A cascade plan is an ordered list of single-entity mutations computed from
// reads before anything is written. Plans execute inside one atomic store
// scope keyed by the aggregate root, so concurrent cascades on the same root
// serialize and a failed plan leaves no partial state behind.
type cascadePlan struct {
	steps []planStep
}

type planStep struct {
	kind string
	id   string
	op   string
	// deleteSide steps tolerate an already-missing target: the cascade is
	// cleaning up, so NotFound means the step is satisfied.
	deleteSide bool
	apply      func(ctx context.Context, tx store.Store) error
}

func (p *cascadePlan) add(kind, id, op string, apply func(ctx context.Context, tx store.Store) error) {
	p.steps = append(p.steps, planStep{kind: kind, id: id, op: op, apply: apply})
}

func (p *cascadePlan) addDeleteSide(kind, id, op string, apply func(ctx context.Context, tx store.Store) error) {
	p.steps = append(p.steps, planStep{kind: kind, id: id, op: op, deleteSide: true, apply: apply})
}

// executor runs cascade plans for the coordinator services.
type executor struct {
	store   store.Store
	timeout time.Duration
	logger  *zap.Logger
}

func newExecutor(st store.Store, timeout time.Duration, logger *zap.Logger) *executor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &executor{store: st, timeout: timeout, logger: logger}
}

// run builds the plan inside the atomic scope (so the reads it plans from
// cannot race with another cascade on the same root) and applies its steps in
// order. A hard step failure aborts and rolls back the whole plan.
// Delete-side steps whose target is already gone are skipped and collected;
// if any were skipped, the returned *PartialCascadeError describes them as a
// warning alongside the successful result.
func (e *executor) run(ctx context.Context, rootKey string, build func(tx store.Store) (*cascadePlan, error)) (*PartialCascadeError, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var skipped []StepFailure
	err := e.store.Atomic(ctx, rootKey, func(tx store.Store) error {
		plan, err := build(tx)
		if err != nil {
			return err
		}
		for _, s := range plan.steps {
			if err := s.apply(ctx, tx); err != nil {
				if s.deleteSide && errors.Is(err, store.ErrNotFound) {
					e.logger.Warn("cascade step target already gone",
						zap.String("root", rootKey),
						zap.String("kind", s.kind),
						zap.String("id", s.id),
						zap.String("op", s.op),
					)
					skipped = append(skipped, StepFailure{Kind: s.kind, ID: s.id, Op: s.op, Err: err})
					continue
				}
				return fmt.Errorf("cascade step %s %s %s: %w", s.op, s.kind, s.id, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: root %s", ErrCascadeDeadline, rootKey)
		}
		return nil, err
	}
	if len(skipped) > 0 {
		return &PartialCascadeError{Failures: skipped}, nil
	}
	return nil, nil
}

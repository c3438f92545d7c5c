package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caregraph/caregraph/internal/store"
	"github.com/caregraph/caregraph/pkg/model"
)

func newTestExecutor(st store.Store, timeout time.Duration) *executor {
	return newExecutor(st, timeout, testLogger())
}

func testUserPlanStep(p *cascadePlan, id string) {
	p.add("user", id, "create", func(ctx context.Context, tx store.Store) error {
		return tx.PutUser(ctx, newTestUser(id, model.RolePatient))
	})
}

func TestExecutorRun_AppliesStepsInOrder(t *testing.T) {
	st := store.NewMemory()
	exec := newTestExecutor(st, 5*time.Second)

	warn, err := exec.run(context.Background(), "test:1", func(tx store.Store) (*cascadePlan, error) {
		plan := &cascadePlan{}
		testUserPlanStep(plan, "u-a")
		testUserPlanStep(plan, "u-b")
		return plan, nil
	})
	require.NoError(t, err)
	assert.Nil(t, warn)

	for _, id := range []string{"u-a", "u-b"} {
		_, err := st.GetUser(context.Background(), id)
		require.NoError(t, err)
	}
}

func TestExecutorRun_BuildErrorAbortsWithoutWrites(t *testing.T) {
	st := store.NewMemory()
	exec := newTestExecutor(st, 5*time.Second)

	boom := errors.New("build failed")
	_, err := exec.run(context.Background(), "test:1", func(tx store.Store) (*cascadePlan, error) {
		// Writes through the tx view must roll back when build fails.
		require.NoError(t, tx.PutUser(context.Background(), newTestUser("u-ghost", model.RolePatient)))
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.GetUser(context.Background(), "u-ghost")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestExecutorRun_HardStepFailureRollsBackPriorSteps(t *testing.T) {
	st := store.NewMemory()
	exec := newTestExecutor(st, 5*time.Second)

	boom := errors.New("step failed")
	_, err := exec.run(context.Background(), "test:1", func(tx store.Store) (*cascadePlan, error) {
		plan := &cascadePlan{}
		testUserPlanStep(plan, "u-first")
		plan.add("user", "u-second", "create", func(ctx context.Context, tx store.Store) error {
			return boom
		})
		return plan, nil
	})
	require.ErrorIs(t, err, boom)

	// The step that succeeded before the failure is rolled back too.
	_, err = st.GetUser(context.Background(), "u-first")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestExecutorRun_DeleteSideNotFoundIsCollectedNotFatal(t *testing.T) {
	st := store.NewMemory()
	exec := newTestExecutor(st, 5*time.Second)

	warn, err := exec.run(context.Background(), "test:1", func(tx store.Store) (*cascadePlan, error) {
		plan := &cascadePlan{}
		plan.addDeleteSide("address", "gone-1", "delete", func(ctx context.Context, tx store.Store) error {
			return tx.DeleteAddress(ctx, "gone-1")
		})
		testUserPlanStep(plan, "u-after")
		plan.addDeleteSide("doctor", "gone-2", "pull-appointment", func(ctx context.Context, tx store.Store) error {
			return store.ErrNotFound
		})
		return plan, nil
	})
	require.NoError(t, err)
	require.NotNil(t, warn)
	require.Len(t, warn.Failures, 2)
	assert.Equal(t, "address", warn.Failures[0].Kind)
	assert.Equal(t, "gone-1", warn.Failures[0].ID)
	assert.Equal(t, "doctor", warn.Failures[1].Kind)

	// Steps after the skipped ones still applied.
	_, err = st.GetUser(context.Background(), "u-after")
	require.NoError(t, err)
}

func TestExecutorRun_DeleteSideHardErrorIsFatal(t *testing.T) {
	st := store.NewMemory()
	exec := newTestExecutor(st, 5*time.Second)

	boom := errors.New("disk on fire")
	_, err := exec.run(context.Background(), "test:1", func(tx store.Store) (*cascadePlan, error) {
		plan := &cascadePlan{}
		plan.addDeleteSide("patient", "p-1", "pull-appointment", func(ctx context.Context, tx store.Store) error {
			return boom
		})
		return plan, nil
	})
	require.ErrorIs(t, err, boom)
}

func TestExecutorRun_DeadlineSurfacesAsCascadeDeadline(t *testing.T) {
	st := store.NewMemory()
	exec := newTestExecutor(st, time.Nanosecond)

	// The nanosecond budget is exhausted before the atomic scope even starts.
	_, err := exec.run(context.Background(), "test:1", func(tx store.Store) (*cascadePlan, error) {
		return &cascadePlan{}, nil
	})
	require.ErrorIs(t, err, ErrCascadeDeadline)
}

func TestExecutorRun_PartialErrorFormats(t *testing.T) {
	err := &PartialCascadeError{Failures: []StepFailure{
		{Kind: "address", ID: "a-1", Op: "delete", Err: store.ErrNotFound},
	}}
	assert.Contains(t, err.Error(), "cascade partially applied")
	assert.Contains(t, err.Error(), "delete address a-1")
}

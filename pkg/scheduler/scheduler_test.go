package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	calls int
	err   error
}

func (f *fakeReconciler) ReconcileAll(context.Context) (int, error) {
	f.calls++
	return 3, f.err
}

func TestAddStatsReconcile(t *testing.T) {
	s := New()
	defer s.Stop()
	r := &fakeReconciler{}

	require.NoError(t, s.AddStatsReconcile("0 3 * * *", r))
	assert.Len(t, s.cron.Entries(), 1)

	require.NoError(t, s.AddStatsReconcile("", r))
	assert.Len(t, s.cron.Entries(), 1)

	assert.Error(t, s.AddStatsReconcile("not a cron spec", r))
}

func TestRunStatsReconcile(t *testing.T) {
	r := &fakeReconciler{}
	RunStatsReconcile(context.Background(), r)
	assert.Equal(t, 1, r.calls)

	r.err = errors.New("db down")
	RunStatsReconcile(context.Background(), r)
	assert.Equal(t, 2, r.calls)
}

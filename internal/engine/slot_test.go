package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runningManager starts a Manager's dispatcher goroutine on a background
// context and returns a cancel func to stop it at the end of the test.
func runningManager(t *testing.T, opts ...Option) (*Manager, func()) {
	t.Helper()
	m := New(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	// Give the dispatcher a moment to flip m.running before the test
	// issues its first submit.
	time.Sleep(time.Millisecond)
	return m, func() {
		cancel()
		<-done
	}
}

func TestInstall_EmptySlot(t *testing.T) {
	m, stop := runningManager(t)
	defer stop()

	u := newFakeUnit("a.service")
	j, err := m.Install(u, JobStart, JobFlags{})
	require.NoError(t, err)
	assert.Equal(t, JobStart, j.Type())
	assert.True(t, j.Installed())
}

func TestInstall_RedundantFinishesImmediately(t *testing.T) {
	m, stop := runningManager(t)
	defer stop()

	u := newFakeUnit("a.service")
	u.state = StateActive

	j, err := m.Install(u, JobStart, JobFlags{})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	got := m.Get(j.ID())
	assert.Nil(t, got, "redundant job should already be uninstalled")
}

func TestInstall_MergeStartAndReload(t *testing.T) {
	m, stop := runningManager(t)
	defer stop()

	u := newFakeUnit("a.service")
	u.state = StateActivating // neither inactive nor deactivating, so
	// collapse resolves the merged reload-or-start to reload rather than
	// unwinding it back to a plain start.

	first, err := m.Install(u, JobStart, JobFlags{})
	require.NoError(t, err)

	second, err := m.Install(u, JobReload, JobFlags{})
	require.NoError(t, err)

	assert.Equal(t, first.ID(), second.ID(), "reload should merge into the existing start job")
	assert.Equal(t, JobReload, second.Type())
}

func TestInstall_StopConflictsWithStart(t *testing.T) {
	m, stop := runningManager(t)
	defer stop()

	u := newFakeUnit("a.service")

	started, err := m.Install(u, JobStart, JobFlags{})
	require.NoError(t, err)

	stopped, err := m.Install(u, JobStop, JobFlags{})
	require.NoError(t, err)

	assert.NotEqual(t, started.ID(), stopped.ID())
	assert.Equal(t, JobStop, stopped.Type())
	assert.Equal(t, ResultCanceled, started.Result())
}

func TestInstall_IrreversibleCannotBeCanceled(t *testing.T) {
	m, stop := runningManager(t)
	defer stop()

	u := newFakeUnit("a.service")

	_, err := m.Install(u, JobStart, JobFlags{Irreversible: true})
	require.NoError(t, err)

	_, err = m.Install(u, JobStop, JobFlags{})
	assert.ErrorIs(t, err, ErrIrreversible)
}

func TestInstall_InvalidJobTypeRejected(t *testing.T) {
	m, stop := runningManager(t)
	defer stop()

	u := newFakeUnit("a.service")
	_, err := m.Install(u, JobReloadOrStart+100, JobFlags{})
	assert.ErrorIs(t, err, ErrInvalidJobType)
}

func TestInstall_NopSlotIsIndependentOfRegularSlot(t *testing.T) {
	m, stop := runningManager(t)
	defer stop()

	u := newFakeUnit("a.service")

	regular, err := m.Install(u, JobStart, JobFlags{})
	require.NoError(t, err)

	u.state = StateInactive
	nop, err := m.Install(u, JobTryRestart, JobFlags{})
	require.NoError(t, err)

	assert.NotEqual(t, regular.ID(), nop.ID())
}

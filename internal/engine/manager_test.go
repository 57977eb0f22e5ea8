package engine

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCancel_NonRecursiveSkipsPropagation(t *testing.T) {
	m, stop := runningManager(t)
	defer stop()

	f := newFakeUnit("f.service")
	g := newFakeUnit("g.service")
	f.requiredBy = []Unit{g}

	fJob, err := m.Install(f, JobStart, JobFlags{})
	requireNoErr(t, err)
	gJob, err := m.Install(g, JobStart, JobFlags{})
	requireNoErr(t, err)

	requireNoErr(t, m.Cancel(fJob.ID(), false))

	got := m.Get(gJob.ID())
	if got == nil {
		t.Fatalf("g's job should not have been touched by a non-recursive cancel")
	}
	if got.Result() != ResultNone {
		t.Fatalf("expected g's job untouched, got result %v", got.Result())
	}
}

func TestCancel_UnknownJobIsNoop(t *testing.T) {
	m, stop := runningManager(t)
	defer stop()

	if err := m.Cancel(999, true); err != nil {
		t.Fatalf("canceling an unknown id should be a silent no-op, got %v", err)
	}
}

func TestStats_TracksInstalledRunningFailed(t *testing.T) {
	m, stop := runningManager(t)
	defer stop()

	u := newFakeUnit("u.service")
	j, err := m.Install(u, JobStart, JobFlags{})
	requireNoErr(t, err)
	requireNoErr(t, m.RunQueueTick())

	s := m.Stats()
	if s.Installed == 0 {
		t.Fatal("expected installed counter to have advanced")
	}
	if s.Running != 1 {
		t.Fatalf("expected 1 running job, got %d", s.Running)
	}

	requireNoErr(t, m.Finish(j.ID(), ResultFailed, true, false))
	s = m.Stats()
	if s.Failed != 1 {
		t.Fatalf("expected 1 failed job, got %d", s.Failed)
	}
}

func requireNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mergeDomain = []JobType{JobStart, JobVerifyActive, JobStop, JobReload, JobRestart}

func TestMergeTypes_Commutative(t *testing.T) {
	for _, a := range mergeDomain {
		for _, b := range mergeDomain {
			ab, okAB := mergeTypes(a, b)
			ba, okBA := mergeTypes(b, a)
			require.Equal(t, okAB, okBA, "merge(%v,%v) and merge(%v,%v) disagree on ok", a, b, b, a)
			if okAB {
				assert.Equal(t, ab, ba, "merge(%v,%v) != merge(%v,%v)", a, b, b, a)
			}
		}
	}
}

func TestMergeTypes_ReflexiveIdentity(t *testing.T) {
	for _, a := range mergeDomain {
		got, ok := mergeTypes(a, a)
		require.True(t, ok)
		assert.Equal(t, a, got)
	}
}

func TestMergeTypes_StopConflictsWithEverythingElse(t *testing.T) {
	for _, a := range mergeDomain {
		if a == JobStop {
			continue
		}
		_, ok := mergeTypes(JobStop, a)
		assert.False(t, ok, "stop should conflict with %v", a)
		assert.True(t, conflicts(JobStop, a))
	}
	_, ok := mergeTypes(JobStop, JobStop)
	assert.True(t, ok)
	assert.False(t, conflicts(JobStop, JobStop))
}

func TestMergeTypes_StartAndReloadProduceReloadOrStart(t *testing.T) {
	got, ok := mergeTypes(JobStart, JobReload)
	require.True(t, ok)
	assert.Equal(t, JobReloadOrStart, got)
}

func TestMergeTypes_RestartAbsorbsEverythingButStop(t *testing.T) {
	for _, a := range []JobType{JobStart, JobVerifyActive, JobReload, JobRestart} {
		got, ok := mergeTypes(JobRestart, a)
		require.True(t, ok)
		assert.Equal(t, JobRestart, got)
	}
}

func TestMergeTypes_OutsideDomainRejected(t *testing.T) {
	_, ok := mergeTypes(JobReloadOrStart, JobStart)
	assert.False(t, ok)
	_, ok = mergeTypes(JobNop, JobStart)
	assert.False(t, ok)
}

func TestCollapse_TryRestart(t *testing.T) {
	assert.Equal(t, JobNop, collapse(JobTryRestart, StateInactive))
	assert.Equal(t, JobNop, collapse(JobTryRestart, StateDeactivating))
	assert.Equal(t, JobRestart, collapse(JobTryRestart, StateActive))
	assert.Equal(t, JobRestart, collapse(JobTryRestart, StateActivating))
}

func TestCollapse_ReloadOrStart(t *testing.T) {
	assert.Equal(t, JobStart, collapse(JobReloadOrStart, StateInactive))
	assert.Equal(t, JobReload, collapse(JobReloadOrStart, StateActive))
}

func TestCollapse_TryReload(t *testing.T) {
	for _, s := range []ActiveState{StateInactive, StateActive, StateFailed} {
		assert.Equal(t, JobReload, collapse(JobTryReload, s))
	}
}

func TestCollapse_PrimitivesPassThrough(t *testing.T) {
	for _, a := range mergeDomain {
		assert.Equal(t, a, collapse(a, StateActive))
	}
}

func TestIsSuperset(t *testing.T) {
	assert.True(t, isSuperset(JobStart, JobVerifyActive))
	assert.True(t, isSuperset(JobReload, JobVerifyActive))
	assert.True(t, isSuperset(JobRestart, JobStart))
	assert.True(t, isSuperset(JobRestart, JobVerifyActive))
	assert.True(t, isSuperset(JobRestart, JobReload))
	assert.False(t, isSuperset(JobStart, JobReload))
	assert.False(t, isSuperset(JobStop, JobStart))
}

func TestIsRedundant(t *testing.T) {
	assert.True(t, isRedundant(JobStart, StateActive))
	assert.True(t, isRedundant(JobStart, StateReloading))
	assert.False(t, isRedundant(JobStart, StateInactive))
	assert.True(t, isRedundant(JobStop, StateInactive))
	assert.True(t, isRedundant(JobStop, StateFailed))
	assert.False(t, isRedundant(JobStop, StateActive))
	assert.False(t, isRedundant(JobReload, StateActive))
	assert.True(t, isRedundant(JobRestart, StateActivating))
	assert.False(t, isRedundant(JobRestart, StateActive))
}

func TestCanLateMerge(t *testing.T) {
	assert.False(t, canLateMerge(JobReload))
	assert.True(t, canLateMerge(JobStart))
	assert.True(t, canLateMerge(JobRestart))
}

func TestJobType_RoundTrip(t *testing.T) {
	types := append(append([]JobType{}, mergeDomain...), JobReloadOrStart, JobTryRestart, JobTryReload, JobNop)
	for _, ty := range types {
		got, ok := ParseJobType(ty.String())
		require.True(t, ok)
		assert.Equal(t, ty, got)
	}
}

func TestJobResult_RoundTrip(t *testing.T) {
	results := []JobResult{ResultDone, ResultCanceled, ResultTimeout, ResultFailed,
		ResultDependency, ResultSkipped, ResultInvalid, ResultAssert, ResultUnsupported}
	for _, r := range results {
		got, ok := ParseJobResult(r.String())
		require.True(t, ok)
		assert.Equal(t, r, got)
	}
}

func TestJobState_RoundTrip(t *testing.T) {
	for _, s := range []JobState{JobWaiting, JobRunning} {
		got, ok := ParseJobState(s.String())
		require.True(t, ok)
		assert.Equal(t, s, got)
	}
}

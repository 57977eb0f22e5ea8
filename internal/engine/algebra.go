package engine

// The job-type algebra: pure functions over JobType, free of any unit
// state except where collapse requires it.
// No locks, no I/O — this file is the correctness backbone and is tested
// exhaustively in algebra_test.go.

// incompatible marks a cell of the merge table as conflicting.
const incompatible JobType = -1

// mergeTable is the 5x5 merge table, indexed by
// [mergeIndex(a)][mergeIndex(b)]. Rows/cols: start, verify-active, stop,
// reload, restart.
var mergeTable = [5][5]JobType{
	/*              start            verify-active    stop            reload           restart */
	/* start   */ {JobStart, JobStart, incompatible, JobReloadOrStart, JobRestart},
	/* verify  */ {JobStart, JobVerifyActive, incompatible, JobReload, JobRestart},
	/* stop    */ {incompatible, incompatible, JobStop, incompatible, incompatible},
	/* reload  */ {JobReloadOrStart, JobReload, incompatible, JobReload, JobRestart},
	/* restart */ {JobRestart, JobRestart, incompatible, JobRestart, JobRestart},
}

func mergeIndex(t JobType) (int, bool) {
	switch t {
	case JobStart:
		return 0, true
	case JobVerifyActive:
		return 1, true
	case JobStop:
		return 2, true
	case JobReload:
		return 3, true
	case JobRestart:
		return 4, true
	default:
		return 0, false
	}
}

// mergeTypes combines two job-type intents on the same unit. Commutative
// on the merge-domain types. Returns ok=false if
// either type is outside the merge domain or the two types conflict.
func mergeTypes(a, b JobType) (JobType, bool) {
	if a == b {
		return a, true
	}
	ia, ok := mergeIndex(a)
	if !ok {
		return 0, false
	}
	ib, ok := mergeIndex(b)
	if !ok {
		return 0, false
	}
	merged := mergeTable[ia][ib]
	if merged == incompatible {
		return 0, false
	}
	return merged, true
}

// collapse resolves a compound type into a primitive given the unit's
// current activation state.
func collapse(t JobType, state ActiveState) JobType {
	switch t {
	case JobTryRestart:
		if state.IsInactiveOrDeactivating() {
			return JobNop
		}
		return JobRestart
	case JobReloadOrStart:
		if state.IsInactiveOrDeactivating() {
			return JobStart
		}
		return JobReload
	case JobTryReload:
		// try-reload has no declared unit-state special case in the
		// merge table beyond reload itself; it collapses straight to
		// reload, mirroring systemd's JOB_TRY_RELOAD handling.
		return JobReload
	default:
		return t
	}
}

// mergeAndCollapse is the composed operation: merge the two intents, then
// collapse the result against live state. install (slot.go) performs the
// same merge and collapse steps inline rather than calling this.
func mergeAndCollapse(a, b JobType, state ActiveState) (JobType, bool) {
	a = collapse(a, state)
	b = collapse(b, state)
	merged, ok := mergeTypes(a, b)
	if !ok {
		return 0, false
	}
	return collapse(merged, state), true
}

// conflicts reports whether merging a and b is incompatible.
func conflicts(a, b JobType) bool {
	ia, ok := mergeIndex(a)
	if !ok {
		return false
	}
	ib, ok := mergeIndex(b)
	if !ok {
		return false
	}
	return mergeTable[ia][ib] == incompatible
}

// isSuperset reports whether super is a superset of sub: used to decide
// whether a late-arriving job is already entailed by one in progress.
func isSuperset(super, sub JobType) bool {
	if super == sub {
		return true
	}
	switch super {
	case JobStart:
		return sub == JobVerifyActive
	case JobReload:
		return sub == JobVerifyActive
	case JobRestart:
		return sub == JobStart || sub == JobVerifyActive || sub == JobReload
	default:
		return false
	}
}

// isRedundant reports whether a job's desired effect already holds given
// the unit's current activation state.
func isRedundant(t JobType, state ActiveState) bool {
	switch t {
	case JobStart:
		return state == StateActive || state == StateReloading
	case JobVerifyActive:
		return state == StateActive || state == StateReloading
	case JobReload:
		return false
	case JobStop:
		return state == StateInactive || state == StateFailed
	case JobRestart:
		return state == StateActivating
	default:
		return false
	}
}

// canLateMerge reports whether a new job may merge into an already-running
// one: allowed for any type except reload.
func canLateMerge(newType JobType) bool {
	return newType != JobReload
}

package engine

// Job types, states, results and modes, and their string-table mappings.
// Kept as small hand-written enums rather than generated stringers: the
// tables are tiny and the round-trip law (ParseX(X.String()) == X) is
// cheap to verify directly.

import "fmt"

// JobType is one of the primitive or compound operations the engine can
// drive a unit through.
type JobType int

const (
	JobStart JobType = iota
	JobVerifyActive
	JobStop
	JobReload
	JobRestart
	JobReloadOrStart
	JobTryRestart
	JobTryReload
	JobNop
)

var jobTypeNames = map[JobType]string{
	JobStart:         "start",
	JobVerifyActive:  "verify-active",
	JobStop:          "stop",
	JobReload:        "reload",
	JobRestart:       "restart",
	JobReloadOrStart: "reload-or-start",
	JobTryRestart:    "try-restart",
	JobTryReload:     "try-reload",
	JobNop:           "nop",
}

func (t JobType) String() string {
	if s, ok := jobTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("JobType(%d)", int(t))
}

// ParseJobType looks up a JobType by its wire name.
func ParseJobType(s string) (JobType, bool) {
	for t, name := range jobTypeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// IsMergeDomain reports whether t is one of the four primitive types the
// merge table (algebra.go) is defined over, plus restart which extends it.
func (t JobType) IsMergeDomain() bool {
	switch t {
	case JobStart, JobVerifyActive, JobStop, JobReload, JobRestart:
		return true
	default:
		return false
	}
}

// IsCompound reports whether t must be collapsed against unit state before
// it can run.
func (t JobType) IsCompound() bool {
	switch t {
	case JobReloadOrStart, JobTryRestart, JobTryReload:
		return true
	default:
		return false
	}
}

// IsPositive reports whether t is one of the "positive" types the
// runnability predicate treats specially (start, verify-active, reload).
func (t JobType) IsPositive() bool {
	switch t {
	case JobStart, JobVerifyActive, JobReload:
		return true
	default:
		return false
	}
}

// SlotKind selects which of a unit's two job slots a type occupies.
type SlotKind int

const (
	SlotRegular SlotKind = iota
	SlotNop
)

func (t JobType) Slot() SlotKind {
	if t == JobNop {
		return SlotNop
	}
	return SlotRegular
}

// JobState is waiting (installed, not dispatched) or running (primitive
// invoked, awaiting completion signal).
type JobState int

const (
	JobWaiting JobState = iota
	JobRunning
)

func (s JobState) String() string {
	switch s {
	case JobWaiting:
		return "waiting"
	case JobRunning:
		return "running"
	default:
		return fmt.Sprintf("JobState(%d)", int(s))
	}
}

// ParseJobState is the inverse of JobState.String.
func ParseJobState(s string) (JobState, bool) {
	switch s {
	case "waiting":
		return JobWaiting, true
	case "running":
		return JobRunning, true
	}
	return 0, false
}

// JobResult is the terminal classification of a finished job.
type JobResult int

const (
	ResultNone JobResult = iota
	ResultDone
	ResultCanceled
	ResultTimeout
	ResultFailed
	ResultDependency
	ResultSkipped
	ResultInvalid
	ResultAssert
	ResultUnsupported
)

var jobResultNames = map[JobResult]string{
	ResultNone:        "",
	ResultDone:        "done",
	ResultCanceled:    "canceled",
	ResultTimeout:     "timeout",
	ResultFailed:      "failed",
	ResultDependency:  "dependency",
	ResultSkipped:     "skipped",
	ResultInvalid:     "invalid",
	ResultAssert:      "assert",
	ResultUnsupported: "unsupported",
}

func (r JobResult) String() string {
	if s, ok := jobResultNames[r]; ok {
		return s
	}
	return fmt.Sprintf("JobResult(%d)", int(r))
}

// ParseJobResult is the inverse of JobResult.String.
func ParseJobResult(s string) (JobResult, bool) {
	for r, name := range jobResultNames {
		if name == s {
			return r, true
		}
	}
	return 0, false
}

// JobMode is the client-facing install mode; the engine does not interpret
// these itself (that's the external transaction builder's job) but carries
// the string table for the IPC layer's benefit.
type JobMode int

const (
	ModeFail JobMode = iota
	ModeReplace
	ModeReplaceIrreversibly
	ModeIsolate
	ModeFlush
	ModeIgnoreDependencies
	ModeIgnoreRequirements
)

var jobModeNames = map[JobMode]string{
	ModeFail:                "fail",
	ModeReplace:             "replace",
	ModeReplaceIrreversibly: "replace-irreversibly",
	ModeIsolate:             "isolate",
	ModeFlush:               "flush",
	ModeIgnoreDependencies:  "ignore-dependencies",
	ModeIgnoreRequirements:  "ignore-requirements",
}

func (m JobMode) String() string {
	if s, ok := jobModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("JobMode(%d)", int(m))
}

// ParseJobMode is the inverse of JobMode.String.
func ParseJobMode(s string) (JobMode, bool) {
	for m, name := range jobModeNames {
		if name == s {
			return m, true
		}
	}
	return 0, false
}

// ActiveState is the unit activation state the engine reads to collapse
// compound job types and to decide redundancy.
type ActiveState int

const (
	StateInactive ActiveState = iota
	StateActivating
	StateActive
	StateReloading
	StateDeactivating
	StateFailed
)

func (s ActiveState) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateReloading:
		return "reloading"
	case StateDeactivating:
		return "deactivating"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("ActiveState(%d)", int(s))
	}
}

// IsInactiveOrDeactivating is the predicate the compound-type collapse step
// relies on.
func (s ActiveState) IsInactiveOrDeactivating() bool {
	return s == StateInactive || s == StateDeactivating
}

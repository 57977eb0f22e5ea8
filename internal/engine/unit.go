package engine

import "time"

// Unit is the vtable the engine consumes. It does
// not implement how a service forks a process or a mount attaches — that
// is the embedder's job; the engine only ever calls through this
// interface. Unit kinds are supplied by the embedder at compile time, not
// loaded as plugins: the engine never ships a unit kind of its own.
type Unit interface {
	// Name is the unit's identity, used in log lines and object paths.
	Name() string

	// Start, Stop, Reload invoke the corresponding primitive operation and
	// return nil once it has been invoked. A nil error with the job still
	// unfinished means it started asynchronously and Finish is called
	// later; a non-nil error is one of the sentinel errors in errors.go
	// (ErrAlready, ErrBadR, ...) or any other error, and classifies into
	// one of the job result codes.
	Start() error
	Stop() error
	Reload() error

	// ActiveState reports the unit's current activation state, consulted
	// for collapse, redundancy, and the synthesized verify-active result.
	ActiveState() ActiveState

	// Edge sets used by the runnability predicate and propagation. The
	// engine only ever walks the edge declared on the unit it is
	// currently looking at, so After/Before and RequiredBy/BoundBy pairs
	// must be declared symmetrically by the embedder: if B.After()
	// includes A, A.Before() must include B, or A finishing will never
	// unblock B.
	After() []Unit
	Before() []Unit
	RequiredBy() []Unit
	RequiredByOverridable() []Unit
	BoundBy() []Unit
	ConflictedBy() []Unit

	// JobTimeout is the unit-declared per-job deadline; zero or negative
	// falls back to the manager's default job timeout, and the timer is
	// disabled only when that default is not positive either.
	JobTimeout() time.Duration

	// JobTimeoutAction and JobTimeoutRebootArg describe what the manager
	// should do when a job against this unit times out.
	JobTimeoutAction() string
	JobTimeoutRebootArg() string

	// StatusMessage returns a human-readable template for (jobType,
	// result), or ok=false to fall back to the engine's generic
	// templates.
	StatusMessage(t JobType, r JobResult) (msg string, ok bool)
}

// FailureNotifiable is an optional extension a Unit may implement to be
// told when one of its jobs ends in a result that should trigger its
// on-failure behavior. Modeled as an
// optional interface, the same way the surrounding system lets a unit
// kind export an optional custom kill signal: checked with a type
// assertion, only invoked if present.
type FailureNotifiable interface {
	StartOnFailure()
}

// Deadliner is an optional extension giving a unit-specific deadline
// independent of any installed job's timer.
type Deadliner interface {
	GetDeadline() (time.Time, bool)
}

package engine

import "errors"

// Primitive return codes are kept as named sentinel errors rather than
// raw integers: the distinctions between them are load-bearing behavior,
// not an implementation artifact.
var (
	// ErrAlready means the primitive's goal already holds; maps to
	// result "done" with the already flag set.
	ErrAlready = errors.New("job: already in desired state")

	// ErrBadR means the unit cannot (yet) do this; maps to "skipped".
	ErrBadR = errors.New("job: cannot currently perform operation")

	// ErrNoExec means the requested operation is malformed for this
	// unit; maps to "invalid".
	ErrNoExec = errors.New("job: invalid operation for unit")

	// ErrAssertFailed means a unit-declared assertion failed; maps to
	// "assert".
	ErrAssertFailed = errors.New("job: assertion failed")

	// ErrUnsupported means the unit kind does not support the
	// operation; maps to "unsupported".
	ErrUnsupported = errors.New("job: operation unsupported")

	// ErrAgain means the primitive wants to be retried later; the job
	// goes back to waiting and stays installed until a peer's completion
	// (or another Install/Coldplug) puts it on the run queue again.
	ErrAgain = errors.New("job: try again later")
)

// Caller-rejection errors.
var (
	ErrInvalidJobType = errors.New("job: invalid job type")
	ErrIrreversible   = errors.New("job: incumbent job is irreversible")
	ErrSlotOccupied   = errors.New("job: slot already occupied")
	ErrUnknownJob     = errors.New("job: no such installed job")
	ErrManagerStopped = errors.New("job: manager is not running")
)

// dispatchOutcome is what run_and_invalidate does next after invoking a
// unit primitive.
type dispatchOutcome int

const (
	// outcomeAsync means the primitive returned nil: it is running in
	// the background and will call Finish later. The job stays running.
	outcomeAsync dispatchOutcome = iota
	// outcomeRetry means the primitive asked to be retried (ErrAgain).
	// The job goes back to waiting; it is not re-added to the run queue.
	outcomeRetry
	// outcomeTerminal means the primitive completed synchronously; the
	// accompanying JobResult is final.
	outcomeTerminal
)

// classifyPrimitiveError maps the error returned by a Unit primitive to
// a dispatch outcome.
func classifyPrimitiveError(err error) (outcome dispatchOutcome, result JobResult, already bool) {
	switch {
	case err == nil:
		return outcomeAsync, ResultNone, false
	case errors.Is(err, ErrAlready):
		return outcomeTerminal, ResultDone, true
	case errors.Is(err, ErrBadR):
		return outcomeTerminal, ResultSkipped, false
	case errors.Is(err, ErrNoExec):
		return outcomeTerminal, ResultInvalid, false
	case errors.Is(err, ErrAssertFailed):
		return outcomeTerminal, ResultAssert, false
	case errors.Is(err, ErrUnsupported):
		return outcomeTerminal, ResultUnsupported, false
	case errors.Is(err, ErrAgain):
		return outcomeRetry, ResultNone, false
	default:
		return outcomeTerminal, ResultFailed, false
	}
}

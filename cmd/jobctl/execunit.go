package main

import (
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/coreunit/jobengine/internal/engine"
)

// execUnit is the only unit kind jobctl ships: a thin process wrapper, so
// `jobctl install` has something real to drive without pulling in any of
// the specific unit-kind state machines the engine deliberately leaves out
// of scope. jobctl keeps it in its per-session unit registry by name, and
// its job lifecycle is driven by the exit of the wrapped command.
type execUnit struct {
	name string
	args []string

	manager *engine.Manager

	mu      sync.Mutex
	state   engine.ActiveState
	current *exec.Cmd
	jobID   uint32
}

func newExecUnit(m *engine.Manager, name string, args []string) *execUnit {
	return &execUnit{name: name, args: args, manager: m, state: engine.StateInactive}
}

// setJobID records which job the wrapped command's exit should resolve.
// It is called after Manager.Install returns, by which time the
// dispatcher's run-queue drain may already have invoked Start. The exit
// goroutine reads the id only once the command has exited, and calls
// Finish only if the id is non-zero by then.
func (u *execUnit) setJobID(id uint32) {
	u.mu.Lock()
	u.jobID = id
	u.mu.Unlock()
}

func (u *execUnit) Name() string { return u.name }

func (u *execUnit) setState(s engine.ActiveState) {
	u.mu.Lock()
	u.state = s
	u.mu.Unlock()
}

func (u *execUnit) ActiveState() engine.ActiveState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Start launches the wrapped command and returns nil, the asynchronous
// outcome: the job stays running until the background goroutine below
// calls Manager.Finish.
func (u *execUnit) Start() error {
	if len(u.args) == 0 {
		return engine.ErrNoExec
	}
	cmd := exec.Command(u.args[0], u.args[1:]...)
	cmd.Env = append(os.Environ(), "JOB_INVOCATION_ID="+xid.New().String())

	u.mu.Lock()
	u.current = cmd
	u.state = engine.StateActivating
	u.mu.Unlock()

	if err := cmd.Start(); err != nil {
		u.setState(engine.StateFailed)
		return err
	}
	u.setState(engine.StateActive)

	go func() {
		err := cmd.Wait()
		result := engine.ResultDone
		if err != nil {
			result = engine.ResultFailed
			u.setState(engine.StateFailed)
		} else {
			u.setState(engine.StateInactive)
		}
		u.mu.Lock()
		job := u.jobID
		u.mu.Unlock()
		if job != 0 {
			u.manager.Finish(job, result, true, false)
		}
	}()

	return nil
}

func (u *execUnit) Stop() error {
	u.mu.Lock()
	cmd := u.current
	u.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		u.setState(engine.StateInactive)
		return engine.ErrAlready
	}
	if err := cmd.Process.Kill(); err != nil {
		return err
	}
	return nil
}

func (u *execUnit) Reload() error {
	return engine.ErrUnsupported
}

func (u *execUnit) After() []engine.Unit                { return nil }
func (u *execUnit) Before() []engine.Unit               { return nil }
func (u *execUnit) RequiredBy() []engine.Unit           { return nil }
func (u *execUnit) RequiredByOverridable() []engine.Unit { return nil }
func (u *execUnit) BoundBy() []engine.Unit              { return nil }
func (u *execUnit) ConflictedBy() []engine.Unit         { return nil }

func (u *execUnit) JobTimeout() time.Duration   { return 0 }
func (u *execUnit) JobTimeoutAction() string    { return "" }
func (u *execUnit) JobTimeoutRebootArg() string { return "" }

func (u *execUnit) StatusMessage(t engine.JobType, r engine.JobResult) (string, bool) {
	return "", false
}

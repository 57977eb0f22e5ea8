package engine

import "time"

// fakeUnit is a minimal, fully in-memory Unit used across the package's
// tests. Every primitive's behavior is controlled by a field so a test can
// drive both the synchronous and asynchronous dispatch paths.
type fakeUnit struct {
	name string

	state ActiveState

	startErr, stopErr, reloadErr error

	after, before                                []Unit
	requiredBy, requiredByOverridable, boundBy, conflictedBy []Unit

	jobTimeout       time.Duration
	jobTimeoutAction string
	jobTimeoutReboot string

	onFailureCalled int

	statusMsgs map[string]string
}

func newFakeUnit(name string) *fakeUnit {
	return &fakeUnit{name: name, state: StateInactive}
}

func (u *fakeUnit) Name() string { return u.name }

func (u *fakeUnit) Start() error  { return u.startErr }
func (u *fakeUnit) Stop() error   { return u.stopErr }
func (u *fakeUnit) Reload() error { return u.reloadErr }

func (u *fakeUnit) ActiveState() ActiveState { return u.state }

func (u *fakeUnit) After() []Unit                  { return u.after }
func (u *fakeUnit) Before() []Unit                 { return u.before }
func (u *fakeUnit) RequiredBy() []Unit             { return u.requiredBy }
func (u *fakeUnit) RequiredByOverridable() []Unit  { return u.requiredByOverridable }
func (u *fakeUnit) BoundBy() []Unit                { return u.boundBy }
func (u *fakeUnit) ConflictedBy() []Unit           { return u.conflictedBy }

func (u *fakeUnit) JobTimeout() time.Duration    { return u.jobTimeout }
func (u *fakeUnit) JobTimeoutAction() string     { return u.jobTimeoutAction }
func (u *fakeUnit) JobTimeoutRebootArg() string  { return u.jobTimeoutReboot }

func (u *fakeUnit) StatusMessage(t JobType, r JobResult) (string, bool) {
	if u.statusMsgs == nil {
		return "", false
	}
	msg, ok := u.statusMsgs[t.String()+"/"+r.String()]
	return msg, ok
}

func (u *fakeUnit) StartOnFailure() { u.onFailureCalled++ }

// recordingNotifier captures every event the manager pushes, for
// assertions about the notification surface.
type recordingNotifier struct {
	newEvents     []uint32
	changedEvents []uint32
	removed       []uint32
	results       map[uint32]JobResult
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{results: make(map[uint32]JobResult)}
}

func (n *recordingNotifier) JobNew(id uint32, unitName, objectPath string) {
	n.newEvents = append(n.newEvents, id)
}

func (n *recordingNotifier) JobChanged(id uint32, unitName, objectPath string) {
	n.changedEvents = append(n.changedEvents, id)
}

func (n *recordingNotifier) JobRemoved(id uint32, unitName, objectPath string, result JobResult) {
	n.removed = append(n.removed, id)
	n.results[id] = result
}

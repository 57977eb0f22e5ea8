package engine

// Manager is the job engine kernel. It owns the id->job index, the
// per-unit slots, the run queue, and the dbus notification queue. There
// is deliberately no global singleton: every test, and every embedder,
// can construct as many independent Managers as it likes.
//
// All state-mutating work happens on a single goroutine (the "dispatcher"
// started by Run). External callers — unit async completions, timers,
// the CLI — reach the engine only through its exported methods (Install,
// Cancel, Finish, Get, GetTimeout, ...), each of which marshals onto
// that goroutine the same way ManagerLazy
// funnels concurrent callers through its single pending-action consumer.

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Notifier is the subscription-bus boundary: the engine pushes queued
// new/changed/removed events; an external adapter fans them out. Kept
// minimal and dependency-free so internal/notifybus (and tests) can both
// satisfy it trivially.
type Notifier interface {
	JobNew(id uint32, unitName, objectPath string)
	JobChanged(id uint32, unitName, objectPath string)
	JobRemoved(id uint32, unitName, objectPath string, result JobResult)
}

// HistoryRecorder is the optional audit-trail boundary (internal/history).
type HistoryRecorder interface {
	Record(id uint32, unitName string, typ JobType, result JobResult, begin, end time.Time)
}

// MetricsRecorder is the optional observability boundary (internal/metrics).
type MetricsRecorder interface {
	SetCounts(installed, running, failed uint64, runQueueDepth int)
	ObserveDuration(typ JobType, d time.Duration)
}

// noopNotifier / noopHistory / noopMetrics let a Manager run with no
// wired adapters, same as a systemd manager can run headless in tests.
type noopNotifier struct{}

func (noopNotifier) JobNew(uint32, string, string)                {}
func (noopNotifier) JobChanged(uint32, string, string)            {}
func (noopNotifier) JobRemoved(uint32, string, string, JobResult) {}

type noopHistory struct{}

func (noopHistory) Record(uint32, string, JobType, JobResult, time.Time, time.Time) {}

type noopMetrics struct{}

func (noopMetrics) SetCounts(uint64, uint64, uint64, int) {}
func (noopMetrics) ObserveDuration(JobType, time.Duration) {}

type unitSlots struct {
	regular *Job
	nop     *Job
}

func (s *unitSlots) get(kind SlotKind) *Job {
	if kind == SlotNop {
		return s.nop
	}
	return s.regular
}

func (s *unitSlots) set(kind SlotKind, j *Job) {
	if kind == SlotNop {
		s.nop = j
	} else {
		s.regular = j
	}
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithNotifier wires the subscription bus.
func WithNotifier(n Notifier) Option { return func(m *Manager) { m.notifier = n } }

// WithHistory wires the audit-trail recorder.
func WithHistory(h HistoryRecorder) Option { return func(m *Manager) { m.history = h } }

// WithMetrics wires the observability recorder.
func WithMetrics(r MetricsRecorder) Option { return func(m *Manager) { m.metricsRec = r } }

// WithLogger overrides the manager's logger (default: a disabled logger,
// so logging is off until explicitly configured).
func WithLogger(l zerolog.Logger) Option { return func(m *Manager) { m.log = l } }

// WithDefaultJobTimeout sets the timeout used for units whose JobTimeout()
// returns zero.
func WithDefaultJobTimeout(d time.Duration) Option {
	return func(m *Manager) { m.defaultJobTimeout = d }
}

// TimeoutActionFunc executes a unit's declared job_timeout_action after a
// timeout has already finished the job.
type TimeoutActionFunc func(unit Unit, action, rebootArg string)

// WithTimeoutAction wires the job_timeout_action executor. The manager
// only ever signals it; running "reboot" or "poweroff" is external.
func WithTimeoutAction(fn TimeoutActionFunc) Option {
	return func(m *Manager) { m.timeoutActionHook = fn }
}

// Manager is the job engine. Construct with New, drive with Run.
type Manager struct {
	log zerolog.Logger

	jobs   map[uint32]*Job
	nextID uint32

	slots map[Unit]*unitSlots

	runQueue     []*Job
	dbusJobQueue []*Job

	nInstalled uint64
	nRunning   uint64
	nFailed    uint64

	nReloading int32 // notifications suppressed while > 0
	pending    map[uint32]*Job // pending_finished_jobs

	notifier   Notifier
	history    HistoryRecorder
	metricsRec MetricsRecorder

	defaultJobTimeout time.Duration
	timeoutActionHook TimeoutActionFunc

	cmd  chan func()
	quit chan struct{}
	wg   sync.WaitGroup

	running int32
}

// New constructs an unstarted Manager. Call Run to start its dispatcher
// goroutine.
func New(opts ...Option) *Manager {
	m := &Manager{
		log:     zerolog.Nop(),
		jobs:    make(map[uint32]*Job),
		slots:   make(map[Unit]*unitSlots),
		pending: make(map[uint32]*Job),
		cmd:     make(chan func(), 64),
		quit:    make(chan struct{}),
	}
	m.notifier = noopNotifier{}
	m.history = noopHistory{}
	m.metricsRec = noopMetrics{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run starts the dispatcher goroutine and blocks until ctx is canceled.
// Exactly one goroutine should call Run for a given Manager.
func (m *Manager) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&m.running, 0, 1) {
		return fmt.Errorf("job: manager already running")
	}
	defer atomic.StoreInt32(&m.running, 0)
	defer close(m.quit)

	for {
		select {
		case <-ctx.Done():
			m.wg.Wait()
			return ctx.Err()
		case fn := <-m.cmd:
			fn()
			m.drainRunQueue()
			m.flushNotifications()
		}
	}
}

// submit marshals fn onto the dispatcher goroutine and waits for it to
// complete. Used by every externally-callable entry point. Must never be
// called from within a closure already running on the dispatcher
// goroutine (that would deadlock); internal helpers call the unexported
// primitives directly instead.
func (m *Manager) submit(fn func()) error {
	if atomic.LoadInt32(&m.running) == 0 {
		return ErrManagerStopped
	}
	done := make(chan struct{})
	select {
	case m.cmd <- func() { fn(); close(done) }:
	case <-m.quit:
		return ErrManagerStopped
	}
	select {
	case <-done:
		return nil
	case <-m.quit:
		return ErrManagerStopped
	}
}

// Get returns the job with the given id, or nil if uninstalled/unknown.
// Safe to call concurrently; uses the re-entrance-safety lookup pattern
// rather than holding a reference across calls.
func (m *Manager) Get(id uint32) *Job {
	var out *Job
	m.submit(func() { out = m.jobs[id] })
	return out
}

// List returns every currently installed job, in no particular order. For
// operator tooling, not consulted by the engine
// itself.
func (m *Manager) List() []*Job {
	var out []*Job
	m.submit(func() {
		out = make([]*Job, 0, len(m.jobs))
		for _, j := range m.jobs {
			out = append(out, j)
		}
	})
	return out
}

// GetTimeout returns the minimum of the job's own timer deadline and the
// unit's vtable-supplied deadline.
func (m *Manager) GetTimeout(id uint32) (time.Time, bool) {
	var deadline time.Time
	var ok bool
	m.submit(func() {
		j := m.jobs[id]
		if j == nil {
			return
		}
		if j.timer != nil {
			deadline = j.timer.deadline
			ok = true
		}
		if dl, has := unitDeadline(j.unit); has {
			if !ok || dl.Before(deadline) {
				deadline = dl
				ok = true
			}
		}
	})
	return deadline, ok
}

func unitDeadline(u Unit) (time.Time, bool) {
	if d, ok := u.(Deadliner); ok {
		return d.GetDeadline()
	}
	return time.Time{}, false
}

// Install reconciles a new (unit, type, flags) request against the
// unit's current slot occupant. Returns the job that now
// occupies the slot — which may be a pre-existing merged job, not the
// freshly requested one.
func (m *Manager) Install(unit Unit, typ JobType, flags JobFlags) (*Job, error) {
	if !typ.IsMergeDomain() && !typ.IsCompound() && typ != JobNop {
		return nil, ErrInvalidJobType
	}
	var result *Job
	var err error
	submitErr := m.submit(func() {
		result, err = m.install(unit, typ, flags)
		// A job finished redundantly is already uninstalled
		// by the time install returns; only a job still occupying its
		// slot can be queued for dispatch.
		if err == nil && result.Installed() {
			m.addToRunQueue(result)
		}
	})
	if submitErr != nil {
		return nil, submitErr
	}
	return result, err
}

// Cancel finishes the job with result ResultCanceled. recursive controls
// whether dependency propagation runs.
func (m *Manager) Cancel(id uint32, recursive bool) error {
	return m.submit(func() {
		j := m.jobs[id]
		if j == nil {
			return
		}
		m.finishAndInvalidate(j, ResultCanceled, recursive, false)
	})
}

// Finish is the completion entry point unit code (and timers) call when
// a running job's primitive operation reaches a terminal state.
func (m *Manager) Finish(id uint32, result JobResult, recursive bool, already bool) error {
	return m.submit(func() {
		j := m.jobs[id]
		if j == nil {
			return
		}
		m.finishAndInvalidate(j, result, recursive, already)
	})
}

// RunQueueTick dispatches one round of the run queue. Exposed for
// embedders that want to drive dispatch explicitly (e.g. tests) instead
// of relying on the automatic post-command drain Run performs.
func (m *Manager) RunQueueTick() error {
	return m.submit(func() { m.drainRunQueue() })
}

// Coldplug puts every installed job that is not running on the run queue
// once the new manager instance is ready to resume dispatch. Timers and
// the running count of deserialized jobs are already restored by
// Deserialize.
func (m *Manager) Coldplug() error {
	return m.submit(func() {
		for _, j := range m.jobs {
			if j.state == JobRunning {
				// already counted at deserialize time
				continue
			}
			m.addToRunQueue(j)
		}
	})
}

// BeginReload marks the manager as reloading: client-remove notifications
// are suppressed; a finishing job reconstructed by Deserialize is parked
// in pending_finished_jobs, and any other finishing job is dropped.
func (m *Manager) BeginReload() {
	m.submit(func() { atomic.AddInt32(&m.nReloading, 1) })
}

// EndReload ends a reload, flushing any jobs parked during it.
func (m *Manager) EndReload() {
	m.submit(func() {
		if atomic.AddInt32(&m.nReloading, -1) <= 0 {
			for id, j := range m.pending {
				m.notifier.JobRemoved(id, j.unit.Name(), j.ObjectPath(), j.result)
				delete(m.pending, id)
			}
		}
	})
}

// Serialize writes every installed job as a key=value stream.
func (m *Manager) Serialize(w io.Writer) error {
	var err error
	m.submit(func() { err = m.serializeLocked(w) })
	return err
}

// Deserialize reads a key=value stream, installing any job whose slot is
// free and marking jobs reloaded=true.
func (m *Manager) Deserialize(r io.Reader, resolve func(unitName string) Unit) error {
	var err error
	m.submit(func() { err = m.deserializeLocked(r, resolve) })
	return err
}

// Stats is a snapshot of the manager-level counters.
type Stats struct {
	Installed     uint64
	Running       uint64
	Failed        uint64
	RunQueueDepth int
}

func (m *Manager) Stats() Stats {
	var s Stats
	m.submit(func() {
		s = Stats{
			Installed:     m.nInstalled,
			Running:       m.nRunning,
			Failed:        m.nFailed,
			RunQueueDepth: len(m.runQueue),
		}
	})
	return s
}

func (m *Manager) slotsFor(unit Unit) *unitSlots {
	s, ok := m.slots[unit]
	if !ok {
		s = &unitSlots{}
		m.slots[unit] = s
	}
	return s
}

func (m *Manager) allocID() uint32 {
	m.nextID++
	return m.nextID
}

func (m *Manager) flushNotifications() {
	if atomic.LoadInt32(&m.nReloading) > 0 {
		m.dbusJobQueue = m.dbusJobQueue[:0]
		return
	}
	for _, j := range m.dbusJobQueue {
		if !j.sentNewSig && j.installed {
			m.notifier.JobNew(j.id, j.unit.Name(), j.ObjectPath())
			j.sentNewSig = true
		} else {
			m.notifier.JobChanged(j.id, j.unit.Name(), j.ObjectPath())
		}
	}
	m.dbusJobQueue = m.dbusJobQueue[:0]
	m.metricsRec.SetCounts(m.nInstalled, m.nRunning, m.nFailed, len(m.runQueue))
}

func (m *Manager) queueNotify(j *Job) {
	m.dbusJobQueue = append(m.dbusJobQueue, j)
}

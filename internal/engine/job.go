package engine

import (
	"strconv"
	"time"
)

// JobFlags are the boolean modifiers a client can attach to an install
// request.
type JobFlags struct {
	// Override: client explicitly asked for this and wants it to prevail
	// over non-override peers.
	Override bool
	// Irreversible: refuses to be canceled by a conflicting later job.
	Irreversible bool
	// IgnoreOrder: bypass the before/after runnability predicate.
	IgnoreOrder bool
	// Reloaded: reconstructed from serialization during live-reload.
	Reloaded bool
}

// merge ORs two flag sets together, the way every merge site combines a
// new install request's flags with an existing job's.
func (f JobFlags) merge(other JobFlags) JobFlags {
	return JobFlags{
		Override:     f.Override || other.Override,
		Irreversible: f.Irreversible || other.Irreversible,
		IgnoreOrder:  f.IgnoreOrder || other.IgnoreOrder,
		Reloaded:     f.Reloaded || other.Reloaded,
	}
}

// DependencyLink records that a subject job's success logically depends
// on an object job. The engine stores
// these lists but does not evaluate them for scheduling — that is the
// external transaction builder's responsibility.
type DependencyLink struct {
	Object    *Job
	Matters   bool
	Conflicts bool
}

// Job is a pending or running piece of work against exactly one unit.
type Job struct {
	id   uint32
	unit Unit

	typ   JobType
	state JobState
	flags JobFlags

	result JobResult
	// already suppresses status messages for redundant operations
	// finished without really doing anything.
	already bool

	installed  bool
	inRunQueue bool
	sentNewSig bool

	beginAt time.Time // monotonic start-of-install time, for timeouts
	timer   *jobTimer

	subscribers map[string]struct{} // client ids interested in this job

	dependencies []DependencyLink // subject == this job

	// set by the manager once installed; cleared on uninstall. Used by
	// the re-entrance-safety pattern: callers capture id,
	// release this pointer, and re-look-up in the manager's id index.
}

// ID is the job's manager-wide, stable-for-lifetime identifier.
func (j *Job) ID() uint32 { return j.id }

// Unit is the unit this job operates on.
func (j *Job) Unit() Unit { return j.unit }

// Type is the job's current type (may change across merges/collapses/
// restart-patching).
func (j *Job) Type() JobType { return j.typ }

// State is waiting or running.
func (j *Job) State() JobState { return j.state }

// Flags returns a copy of the job's flags.
func (j *Job) Flags() JobFlags { return j.flags }

// Result is the terminal classification, valid once the job has finished;
// ResultNone beforehand.
func (j *Job) Result() JobResult { return j.result }

// Already reports whether the job finished redundantly.
func (j *Job) Already() bool { return j.already }

// Installed reports whether the job currently occupies its unit's slot.
func (j *Job) Installed() bool { return j.installed }

// InRunQueue reports whether the job's in_run_queue bit is set.
func (j *Job) InRunQueue() bool { return j.inRunQueue }

// ObjectPath is the IPC-compatible address of the job.
func (j *Job) ObjectPath() string {
	return jobObjectPath(j.id)
}

// Subscribers returns the set of client ids subscribed to this job's
// notifications, for serialization and for the notification bus.
func (j *Job) Subscribers() []string {
	out := make([]string, 0, len(j.subscribers))
	for c := range j.subscribers {
		out = append(out, c)
	}
	return out
}

// Subscribe adds a client id to the job's subscriber set.
func (j *Job) Subscribe(clientID string) {
	if j.subscribers == nil {
		j.subscribers = make(map[string]struct{})
	}
	j.subscribers[clientID] = struct{}{}
}

func jobObjectPath(id uint32) string {
	return "/org/freedesktop/systemd1/job/" + strconv.FormatUint(uint64(id), 10)
}

func newJob(id uint32, unit Unit, typ JobType, flags JobFlags) *Job {
	return &Job{
		id:      id,
		unit:    unit,
		typ:     typ,
		state:   JobWaiting,
		flags:   flags,
		result:  ResultNone,
		subscribers: make(map[string]struct{}),
	}
}

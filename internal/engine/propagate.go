package engine

// finishAndInvalidate is the propagation kernel. Only ever
// called from the dispatcher goroutine.

import (
	"fmt"
	"sync/atomic"
	"time"
)

func (m *Manager) finishAndInvalidate(j *Job, result JobResult, recursive bool, already bool) {
	j.result = result
	j.already = already
	end := time.Now()

	if !already {
		m.printStatus(j, result)
	}

	// Restart patching: the only branch where a "finished" job keeps
	// living — a restart's stop phase completing successfully patches
	// the same job into a start instead of uninstalling it.
	if result == ResultDone && j.typ == JobRestart {
		j.typ = JobStart
		j.state = JobWaiting
		if m.nRunning > 0 {
			m.nRunning--
		}
		j.result = ResultNone
		j.already = false
		m.queueNotify(j)
		m.addToRunQueue(j)
		m.unblockNeighbors(j.unit)
		return
	}

	if result == ResultFailed || result == ResultInvalid || result == ResultTimeout {
		m.nFailed++
	}

	m.history.Record(j.id, j.unit.Name(), j.typ, result, j.beginAt, end)
	if !j.beginAt.IsZero() {
		m.metricsRec.ObserveDuration(j.typ, end.Sub(j.beginAt))
	}

	unit := j.unit
	wasReloaded := j.flags.Reloaded
	id := j.id
	m.uninstall(j)

	if atomic.LoadInt32(&m.nReloading) > 0 {
		if wasReloaded {
			m.pending[id] = j
		}
		// else: client-remove signal suppressed during live-reload,
		// job simply dropped.
	} else {
		m.notifier.JobRemoved(id, unit.Name(), j.ObjectPath(), result)
	}

	if recursive && result != ResultDone {
		switch j.typ {
		case JobStart, JobVerifyActive:
			m.failDependents(unit.RequiredBy(), false)
			m.failDependents(unit.BoundBy(), false)
			m.failDependents(unit.RequiredByOverridable(), true)
		case JobStop:
			// A stop finishing with any result other than done fails
			// the start/verify-active jobs of units that conflict
			// with this one; a stop finishing done fails nothing.
			m.failDependents(unit.ConflictedBy(), false)
		}
	}

	if result == ResultTimeout || result == ResultDependency {
		if fn, ok := unit.(FailureNotifiable); ok {
			fn.StartOnFailure()
		}
	}

	m.unblockNeighbors(unit)
}

// failDependents fails every peer unit's start/verify-active job with
// result "dependency".
func (m *Manager) failDependents(units []Unit, skipOverride bool) {
	for _, u := range units {
		s, ok := m.slots[u]
		if !ok {
			continue
		}
		job := s.regular
		if job == nil {
			continue
		}
		if job.typ != JobStart && job.typ != JobVerifyActive {
			continue
		}
		if skipOverride && job.flags.Override {
			continue
		}
		m.finishAndInvalidate(job, ResultDependency, true, false)
	}
}

// unblockNeighbors re-adds every peer unit's installed job to the run
// queue: the only mechanism by which a job's runnability is re-evaluated
// after a peer completes.
func (m *Manager) unblockNeighbors(u Unit) {
	for _, peers := range [][]Unit{u.After(), u.Before()} {
		for _, peer := range peers {
			s, ok := m.slots[peer]
			if !ok {
				continue
			}
			if s.regular != nil && s.regular.state == JobWaiting {
				m.addToRunQueue(s.regular)
			}
			if s.nop != nil && s.nop.state == JobWaiting {
				m.addToRunQueue(s.nop)
			}
		}
	}
}

func (m *Manager) printStatus(j *Job, result JobResult) {
	tmpl, ok := j.unit.StatusMessage(j.typ, result)
	if !ok {
		tmpl = genericStatusMessage(j.typ, result)
	}
	ev := m.log.Info()
	switch result {
	case ResultFailed, ResultInvalid, ResultTimeout, ResultDependency, ResultAssert, ResultUnsupported:
		ev = m.log.Error()
	}
	ev.Str("unit", j.unit.Name()).
		Str("job_type", j.typ.String()).
		Str("result", result.String()).
		Msg(fmt.Sprintf(tmpl, j.unit.Name()))
}

// genericStatusMessage is the fallback template used when a Unit doesn't
// supply one of its own.
func genericStatusMessage(t JobType, r JobResult) string {
	switch r {
	case ResultDone:
		switch t {
		case JobStart:
			return "Started %s."
		case JobStop, JobRestart:
			return "Stopped %s."
		case JobReload:
			return "Reloaded %s."
		default:
			return "Finished %s."
		}
	case ResultTimeout:
		switch t {
		case JobStart:
			return "Timed out starting %s."
		case JobStop, JobRestart:
			return "Timed out stopping %s."
		default:
			return "Timed out waiting for %s."
		}
	case ResultFailed:
		switch t {
		case JobStart:
			return "Failed to start %s."
		case JobReload:
			return "Reload failed for %s."
		default:
			return "Failed for %s."
		}
	case ResultDependency:
		return "Dependency failed for %s."
	case ResultCanceled:
		return "Canceled %s."
	case ResultSkipped:
		return "Skipped %s, cannot (yet) perform operation."
	case ResultInvalid:
		return "Invalid operation for %s."
	case ResultAssert:
		return "Assertion failed for %s."
	case ResultUnsupported:
		return "Operation unsupported for %s."
	default:
		return "Job for %s finished: " + r.String()
	}
}

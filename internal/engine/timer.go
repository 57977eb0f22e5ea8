package engine

import "time"

// jobTimer holds the per-job timeout state.
type jobTimer struct {
	deadline time.Time
	t        *time.Timer
}

// startTimer records begin_usec and, if the unit declares (or the
// manager defaults to) a positive job timeout, arms a one-shot timer
//.
func startTimer(m *Manager, j *Job) {
	j.beginAt = time.Now()
	armTimer(m, j, j.beginAt)
}

// armTimer arms the timer relative to a given begin time, used both by
// startTimer (begin = now) and by deserialization (begin = preserved
// begin_usec).
func armTimer(m *Manager, j *Job, begin time.Time) {
	timeout := j.unit.JobTimeout()
	if timeout <= 0 {
		timeout = m.defaultJobTimeout
	}
	if timeout <= 0 {
		return
	}
	deadline := begin.Add(timeout)
	remaining := time.Until(deadline)
	if remaining < 0 {
		remaining = 0
	}
	id := j.id
	jt := &jobTimer{deadline: deadline}
	jt.t = time.AfterFunc(remaining, func() { m.onTimeout(id) })
	j.timer = jt
}

// stopTimer cancels and clears a job's timer: a job carries a timer
// source iff it is installed and the unit declared (or the manager
// defaults to) a positive job timeout.
func stopTimer(j *Job) {
	if j.timer != nil {
		j.timer.t.Stop()
		j.timer = nil
	}
}

// onTimeout fires on its own goroutine (time.AfterFunc); it marshals
// onto the dispatcher goroutine via Finish's submit path, then — outside
// the dispatcher, since running the timeout action is an external
// boundary call — asks the manager to execute the unit-declared timeout
// action.
func (m *Manager) onTimeout(id uint32) {
	var unit Unit
	var action, rebootArg string
	var fired bool
	m.submit(func() {
		j := m.jobs[id]
		if j == nil {
			return
		}
		unit = j.unit
		action = unit.JobTimeoutAction()
		rebootArg = unit.JobTimeoutRebootArg()
		fired = true
		m.finishAndInvalidate(j, ResultTimeout, true, false)
	})
	if fired && action != "" && m.timeoutActionHook != nil {
		m.timeoutActionHook(unit, action, rebootArg)
	}
}

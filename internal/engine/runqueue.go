package engine

// Run queue and runnability. Only ever touched from the
// dispatcher goroutine.

func (m *Manager) jobExistsOn(unit Unit) bool {
	s, ok := m.slots[unit]
	if !ok {
		return false
	}
	return s.regular != nil || s.nop != nil
}

func (m *Manager) hasStopOrRestartOn(unit Unit) bool {
	s, ok := m.slots[unit]
	if !ok {
		return false
	}
	return s.regular != nil && (s.regular.typ == JobStop || s.regular.typ == JobRestart)
}

// isRunnable reports whether j's before/after peers allow it to dispatch now.
func (m *Manager) isRunnable(j *Job) bool {
	if j.flags.IgnoreOrder {
		return true
	}
	if j.typ == JobNop {
		return true
	}
	if j.typ.IsPositive() {
		for _, u := range j.unit.After() {
			if m.jobExistsOn(u) {
				return false
			}
		}
	}
	for _, u := range j.unit.Before() {
		if m.hasStopOrRestartOn(u) {
			return false
		}
	}
	return true
}

// addToRunQueue asserts j is installed, sets its in_run_queue bit, and
// prepends it to the run queue.
func (m *Manager) addToRunQueue(j *Job) {
	if !j.installed {
		panic("job: addToRunQueue called on an uninstalled job")
	}
	if j.inRunQueue {
		return
	}
	j.inRunQueue = true
	m.runQueue = append([]*Job{j}, m.runQueue...)
}

// drainRunQueue dispatches the run queue to a fixed point: every job
// present when a tick begins is run once, and any job that propagation
// re-queues during that same pass (restart-patching, neighbor unblocking)
// is processed before the pass ends. Each finish either uninstalls a job
// or restart-patches it into a fresh start — both are finite — so this
// loop always terminates.
func (m *Manager) drainRunQueue() {
	for len(m.runQueue) > 0 {
		j := m.runQueue[0]
		m.runQueue = m.runQueue[1:]
		j.inRunQueue = false
		m.runAndInvalidate(j)
	}
}

// callPrimitive invokes the unit primitive corresponding to j's type and
// returns its classified error.
func (m *Manager) callPrimitive(j *Job) error {
	switch j.typ {
	case JobStart:
		return j.unit.Start()
	case JobStop, JobRestart:
		// restart is patched to start once the stop primitive's
		// completion is observed (see finishAndInvalidate).
		return j.unit.Stop()
	case JobReload:
		return j.unit.Reload()
	case JobVerifyActive:
		switch j.unit.ActiveState() {
		case StateActive, StateReloading:
			return ErrAlready
		case StateActivating:
			return ErrAgain
		default:
			return ErrBadR
		}
	case JobNop:
		return ErrAlready
	default:
		return ErrNoExec
	}
}

// runAndInvalidate calls the unit primitive for j and applies its result.
func (m *Manager) runAndInvalidate(j *Job) {
	if j.state != JobWaiting {
		return
	}
	if !m.isRunnable(j) {
		return
	}

	j.state = JobRunning
	m.nRunning++
	m.queueNotify(j)

	id := j.id // capture id before invoking the primitive
	err := m.callPrimitive(j)

	j2 := m.jobs[id] // re-lookup: the primitive may have destroyed j
	if j2 == nil {
		return
	}

	outcome, result, already := classifyPrimitiveError(err)
	switch outcome {
	case outcomeAsync:
		// Stays running; a later Finish call completes it.
	case outcomeRetry:
		j2.state = JobWaiting
		if m.nRunning > 0 {
			m.nRunning--
		}
		m.queueNotify(j2)
	case outcomeTerminal:
		m.finishAndInvalidate(j2, result, true, already)
	}
}

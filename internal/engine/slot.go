package engine

// install reconciles a new (unit, type, flags) request against the unit's
// current slot occupant: merge, then collapse against live state. Must
// only be called from the dispatcher goroutine (i.e. from within a
// closure submitted via Manager.submit, or recursively from within
// install itself).
func (m *Manager) install(unit Unit, typ JobType, flags JobFlags) (*Job, error) {
	state := unit.ActiveState()
	typ = collapse(typ, state)
	slotKind := typ.Slot()
	slots := m.slotsFor(unit)
	uj := slots.get(slotKind)

	if uj == nil {
		id := m.allocID()
		j := newJob(id, unit, typ, flags)
		m.installJob(j, slots, slotKind)

		if isRedundant(typ, state) {
			// Finish immediately; finishAndInvalidate sets the
			// "already" suppression on the status message.
			m.finishAndInvalidate(j, ResultDone, true, true)
		}
		return j, nil
	}

	if conflicts(uj.typ, typ) {
		if uj.flags.Irreversible {
			return nil, ErrIrreversible
		}
		m.finishAndInvalidate(uj, ResultCanceled, false, false)
		// Slot is now empty; recurse exactly once more.
		return m.install(unit, typ, flags)
	}

	mergedType, ok := mergeTypes(uj.typ, typ)
	if !ok {
		return nil, ErrInvalidJobType
	}
	mergedType = collapse(mergedType, state)

	lateMergeOK := uj.state == JobWaiting ||
		(uj.state == JobRunning && isSuperset(uj.typ, typ) && canLateMerge(typ))

	uj.typ = mergedType
	uj.flags = uj.flags.merge(flags)

	if uj.state == JobRunning && !lateMergeOK {
		uj.state = JobWaiting
		if m.nRunning > 0 {
			m.nRunning--
		}
	}
	m.queueNotify(uj)
	return uj, nil
}

// installJob places a freshly-created job into its unit's empty slot.
func (m *Manager) installJob(j *Job, slots *unitSlots, kind SlotKind) {
	slots.set(kind, j)
	j.installed = true
	m.jobs[j.id] = j
	m.nInstalled++
	m.queueNotify(j)
	startTimer(m, j)
}

// uninstall removes a job from its slot and the id index once it reaches
// a terminal state.
func (m *Manager) uninstall(j *Job) {
	slots := m.slotsFor(j.unit)
	if slots.get(j.typ.Slot()) == j {
		slots.set(j.typ.Slot(), nil)
	}
	if j.state == JobRunning && m.nRunning > 0 {
		m.nRunning--
	}
	delete(m.jobs, j.id)
	j.installed = false
	j.inRunQueue = false
	stopTimer(j)
}

package engine

// Serialization for live-reload: a key=value stream, one
// blank-line-terminated block per installed job. Deserialization
// tolerates unknown keys (log and continue) and marks every
// reconstructed job reloaded=true.

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func parseYesNo(s string) bool { return s == "yes" || s == "true" || s == "1" }

func (m *Manager) serializeLocked(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, j := range m.jobs {
		fmt.Fprintf(bw, "unit=%s\n", j.unit.Name())
		fmt.Fprintf(bw, "job-id=%d\n", j.id)
		fmt.Fprintf(bw, "job-type=%s\n", j.typ.String())
		fmt.Fprintf(bw, "job-state=%s\n", j.state.String())
		fmt.Fprintf(bw, "job-override=%s\n", yesNo(j.flags.Override))
		fmt.Fprintf(bw, "job-irreversible=%s\n", yesNo(j.flags.Irreversible))
		fmt.Fprintf(bw, "job-sent-dbus-new-signal=%s\n", yesNo(j.sentNewSig))
		fmt.Fprintf(bw, "job-ignore-order=%s\n", yesNo(j.flags.IgnoreOrder))
		if !j.beginAt.IsZero() {
			fmt.Fprintf(bw, "job-begin=%d\n", j.beginAt.UnixMicro())
		}
		for _, c := range j.Subscribers() {
			fmt.Fprintf(bw, "subscribed=%s\n", c)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

type deserializedRecord struct {
	unitName     string
	id           uint32
	typ          JobType
	state        JobState
	override     bool
	irreversible bool
	sentNewSig   bool
	ignoreOrder  bool
	beginAt      time.Time
	subscribed   []string
}

func (m *Manager) deserializeLocked(r io.Reader, resolve func(unitName string) Unit) error {
	scanner := bufio.NewScanner(r)
	rec := &deserializedRecord{}
	haveAny := false

	flush := func() {
		if !haveAny {
			return
		}
		m.installDeserialized(rec, resolve)
		*rec = deserializedRecord{}
		haveAny = false
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		haveAny = true
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			m.log.Warn().Str("line", line).Msg("job: skipping malformed serialized line")
			continue
		}
		switch key {
		case "unit":
			rec.unitName = value
		case "job-id":
			id, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				m.log.Warn().Err(err).Msg("job: invalid job-id in serialized stream")
				continue
			}
			rec.id = uint32(id)
		case "job-type":
			t, ok := ParseJobType(value)
			if !ok {
				m.log.Warn().Str("value", value).Msg("job: unknown job-type in serialized stream")
				continue
			}
			rec.typ = t
		case "job-state":
			s, ok := ParseJobState(value)
			if !ok {
				m.log.Warn().Str("value", value).Msg("job: unknown job-state in serialized stream")
				continue
			}
			rec.state = s
		case "job-override":
			rec.override = parseYesNo(value)
		case "job-irreversible":
			rec.irreversible = parseYesNo(value)
		case "job-sent-dbus-new-signal":
			rec.sentNewSig = parseYesNo(value)
		case "job-ignore-order":
			rec.ignoreOrder = parseYesNo(value)
		case "job-begin":
			usec, err := strconv.ParseInt(value, 10, 64)
			if err == nil {
				rec.beginAt = time.UnixMicro(usec)
			}
		case "subscribed":
			rec.subscribed = append(rec.subscribed, value)
		default:
			// Unknown keys are tolerated: log and continue.
			m.log.Debug().Str("key", key).Msg("job: ignoring unknown serialized key")
		}
	}
	flush()
	return scanner.Err()
}

func (m *Manager) installDeserialized(rec *deserializedRecord, resolve func(string) Unit) {
	if rec.unitName == "" {
		return
	}
	unit := resolve(rec.unitName)
	if unit == nil {
		m.log.Warn().Str("unit", rec.unitName).Msg("job: cannot deserialize job for unknown unit")
		return
	}

	slots := m.slotsFor(unit)
	kind := rec.typ.Slot()
	if slots.get(kind) != nil {
		m.log.Warn().Str("unit", rec.unitName).Msg("job: slot already occupied, dropping deserialized job")
		return
	}

	flags := JobFlags{
		Override:     rec.override,
		Irreversible: rec.irreversible,
		IgnoreOrder:  rec.ignoreOrder,
		Reloaded:     true,
	}
	j := newJob(rec.id, unit, rec.typ, flags)
	j.state = rec.state
	j.sentNewSig = rec.sentNewSig
	j.beginAt = rec.beginAt
	for _, c := range rec.subscribed {
		j.Subscribe(c)
	}

	slots.set(kind, j)
	j.installed = true
	m.jobs[j.id] = j
	m.nInstalled++
	if rec.id >= m.nextID {
		m.nextID = rec.id
	}
	if rec.state == JobRunning {
		m.nRunning++
	}
	if !rec.beginAt.IsZero() {
		armTimer(m, j, rec.beginAt)
	}
}

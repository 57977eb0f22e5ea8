// Package notifybus implements the subscription bus: the engine-facing
// boundary (engine.Notifier) that fans new/changed/removed job events out
// to external subscribers. It provides two adapters: ChanSink for
// in-process fan-out (what jobctl uses directly) and DBusSink,
// which additionally emits the events as D-Bus signals for IPC-compatible
// observers.
package notifybus

import (
	"github.com/google/uuid"

	"github.com/coreunit/jobengine/internal/engine"
)

// EventKind distinguishes the three notification shapes the engine emits.
type EventKind int

const (
	EventNew EventKind = iota
	EventChanged
	EventRemoved
)

// Event is one notification fanned out to subscribers.
type Event struct {
	Kind       EventKind
	ID         uint32
	UnitName   string
	ObjectPath string
	Result     engine.JobResult // only meaningful for EventRemoved
}

// NewClientID mints a subscriber id for external callers.
func NewClientID() string {
	return uuid.NewString()
}

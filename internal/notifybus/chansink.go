package notifybus

import (
	"sync"

	"github.com/coreunit/jobengine/internal/engine"
)

// ChanSink fans engine notifications out to per-subscriber buffered
// channels. It implements engine.Notifier directly, so it can be wired
// into engine.WithNotifier with no adapter in between.
type ChanSink struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

var _ engine.Notifier = (*ChanSink)(nil)

// NewChanSink returns an empty ChanSink.
func NewChanSink() *ChanSink {
	return &ChanSink{subs: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber and returns its event channel and an
// unsubscribe func. The channel is buffered so a slow subscriber cannot
// block the dispatcher goroutine; events are dropped, not queued
// unboundedly, once the buffer fills.
func (s *ChanSink) Subscribe(buffer int) (clientID string, events <-chan Event, unsubscribe func()) {
	clientID = NewClientID()
	ch := make(chan Event, buffer)

	s.mu.Lock()
	s.subs[clientID] = ch
	s.mu.Unlock()

	return clientID, ch, func() { s.remove(clientID) }
}

func (s *ChanSink) remove(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[clientID]; ok {
		delete(s.subs, clientID)
		close(ch)
	}
}

func (s *ChanSink) broadcast(e Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// JobNew implements engine.Notifier.
func (s *ChanSink) JobNew(id uint32, unitName, objectPath string) {
	s.broadcast(Event{Kind: EventNew, ID: id, UnitName: unitName, ObjectPath: objectPath})
}

// JobChanged implements engine.Notifier.
func (s *ChanSink) JobChanged(id uint32, unitName, objectPath string) {
	s.broadcast(Event{Kind: EventChanged, ID: id, UnitName: unitName, ObjectPath: objectPath})
}

// JobRemoved implements engine.Notifier.
func (s *ChanSink) JobRemoved(id uint32, unitName, objectPath string, result engine.JobResult) {
	s.broadcast(Event{Kind: EventRemoved, ID: id, UnitName: unitName, ObjectPath: objectPath, Result: result})
}

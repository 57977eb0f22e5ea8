package notifybus

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/coreunit/jobengine/internal/engine"
)

const jobInterface = "org.coreunit.JobEngine1.Job"

// DBusSink adapts engine notifications onto a D-Bus connection:
// JobNew/JobChanged/JobRemoved signals are emitted from each job's path
// /org/freedesktop/systemd1/job/<id> on a private bus name. No object is
// exported at that path; the sink serves no methods or properties.
// The connection itself is lazily dialed and guarded by an RWMutex:
// callers never block each other to read an already-open connection, only
// the first dial (or a reconnect after Close) takes the write lock.
type DBusSink struct {
	busName string
	dialer  func() (*dbus.Conn, error)

	mu   sync.RWMutex
	conn *dbus.Conn
}

// NewDBusSink returns a sink that lazily dials using dialer (typically
// dbus.ConnectSessionBus or dbus.ConnectSystemBus) and claims busName the
// first time a connection is established.
func NewDBusSink(busName string, dialer func() (*dbus.Conn, error)) *DBusSink {
	return &DBusSink{busName: busName, dialer: dialer}
}

var _ engine.Notifier = (*DBusSink)(nil)

func (s *DBusSink) connection() (*dbus.Conn, error) {
	s.mu.RLock()
	if c := s.conn; c != nil {
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.conn; c != nil {
		return c, nil
	}

	conn, err := s.dialer()
	if err != nil {
		return nil, fmt.Errorf("notifybus: could not dial bus: %w", err)
	}
	reply, err := conn.RequestName(s.busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("notifybus: could not claim %s: %w", s.busName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("notifybus: bus name %s already owned", s.busName)
	}

	s.conn = conn
	return conn, nil
}

// reset drops the cached connection so the next call re-dials, after a
// stale-connection error.
func (s *DBusSink) reset(stale *dbus.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == stale {
		s.conn.Close()
		s.conn = nil
	}
}

func (s *DBusSink) emit(objectPath string, signalName string, args ...interface{}) {
	conn, err := s.connection()
	if err != nil {
		return
	}
	err = conn.Emit(dbus.ObjectPath(objectPath), jobInterface+"."+signalName, args...)
	if err != nil && !conn.Connected() {
		s.reset(conn)
	}
}

// JobNew implements engine.Notifier.
func (s *DBusSink) JobNew(id uint32, unitName, objectPath string) {
	s.emit(objectPath, "JobNew", id, unitName, dbus.ObjectPath(objectPath))
}

// JobChanged implements engine.Notifier.
func (s *DBusSink) JobChanged(id uint32, unitName, objectPath string) {
	s.emit(objectPath, "JobChanged", id, unitName, dbus.ObjectPath(objectPath))
}

// JobRemoved implements engine.Notifier.
func (s *DBusSink) JobRemoved(id uint32, unitName, objectPath string, result engine.JobResult) {
	s.emit(objectPath, "JobRemoved", id, unitName, dbus.ObjectPath(objectPath), result.String())
}

// Close releases the underlying connection, if one was established.
func (s *DBusSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

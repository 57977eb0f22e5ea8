// Package history is the bbolt-backed audit trail of terminal job results.
// It uses the same key/value local store pattern throughout: lazy
// per-call connections, bucket-path addressing, CreateBucketIfNotExists
// nesting. It is deliberately separate from the engine's live-reload
// serializer:
// this store only ever grows forward with finished jobs and is meant to be
// read after the fact, never replayed back into a live Manager.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/coreunit/jobengine/internal/engine"
)

const (
	openRWPerms = 0o600
	openROPerms = 0o400
)

var bucketPath = [][]byte{[]byte("history")}

// Record is one terminal job outcome as stored on disk.
type Record struct {
	ID     uint32          `json:"id"`
	Unit   string          `json:"unit"`
	Type   engine.JobType  `json:"type"`
	Result engine.JobResult `json:"result"`
	Begin  time.Time       `json:"begin"`
	End    time.Time       `json:"end"`
}

// Store is a bbolt-backed history.Record sink, implementing
// engine.HistoryRecorder.
type Store struct {
	path string
}

var _ engine.HistoryRecorder = (*Store)(nil)

// NewStore returns a Store rooted at path. The file is created lazily on
// the first write; a connection is opened per call rather than held open.
func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) openRW() (*bolt.DB, error) {
	return bolt.Open(s.path, openRWPerms, nil)
}

func (s *Store) openRO() (*bolt.DB, error) {
	return bolt.Open(s.path, openROPerms, &bolt.Options{ReadOnly: true})
}

// key orders records by completion time first so a bucket cursor walk
// yields them oldest-first, and disambiguates same-nanosecond finishes by
// job id.
func key(end time.Time, id uint32) []byte {
	return []byte(fmt.Sprintf("%020d-%010d", end.UnixNano(), id))
}

// Record implements engine.HistoryRecorder. It is called by the manager's
// dispatcher goroutine on every terminal job outcome.
func (s *Store) Record(id uint32, unitName string, typ engine.JobType, result engine.JobResult, begin, end time.Time) {
	rec := Record{ID: id, Unit: unitName, Type: typ, Result: result, Begin: begin, End: end}
	v, err := json.Marshal(rec)
	if err != nil {
		return
	}

	conn, err := s.openRW()
	if err != nil {
		return
	}
	defer conn.Close()

	conn.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketPath[0])
		if err != nil {
			return err
		}
		return b.Put(key(end, id), v)
	})
}

// List returns every record with End after since, oldest first.
func (s *Store) List(since time.Time) ([]Record, error) {
	conn, err := s.openRO()
	if err != nil {
		return nil, fmt.Errorf("could not open history db: %w", err)
	}
	defer conn.Close()

	var out []Record
	err = conn.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPath[0])
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			if rec.End.After(since) {
				out = append(out, rec)
			}
		}
		return nil
	})
	return out, err
}

// Prune deletes every record older than retention, for an operator (or a
// periodic caller) to bound the store's growth.
func (s *Store) Prune(retention time.Duration) error {
	cutoff := time.Now().Add(-retention)

	conn, err := s.openRW()
	if err != nil {
		return fmt.Errorf("could not open history db: %w", err)
	}
	defer conn.Close()

	return conn.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPath[0])
		if b == nil {
			return nil
		}
		var stale [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			if rec.End.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

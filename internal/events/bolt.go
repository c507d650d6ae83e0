// bolt.go - Persistent event log backed by bbolt.
//
// One bucket, monotonically increasing sequence keys, JSON-encoded envelopes.
// Replay walks the bucket in key order, which is exactly emission order.

package events

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketEvents = []byte("events")

// BoltLog is a Sink writing every record to a bbolt database.
type BoltLog struct {
	db *bbolt.DB
}

// OpenBoltLog opens (or creates) the event log at path.
func OpenBoltLog(path string) (*BoltLog, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvents)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize event bucket: %w", err)
	}
	return &BoltLog{db: db}, nil
}

// Close closes the underlying database.
func (l *BoltLog) Close() error {
	return l.db.Close()
}

// Append writes one record under the next sequence number.
func (l *BoltLog) Append(e Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		return b.Put(key[:], raw)
	})
}

// Replay invokes fn for every stored record in append order.
func (l *BoltLog) Replay(fn func(Event) error) error {
	return l.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEvents).ForEach(func(_, v []byte) error {
			var e Event
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			return fn(e)
		})
	})
}

// Len returns the number of stored records.
func (l *BoltLog) Len() (int, error) {
	var n int
	err := l.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEvents).Stats().KeyN
		return nil
	})
	return n, err
}

// Ping verifies the log is open and the bucket is reachable. Health probe.
func (l *BoltLog) Ping() error {
	return l.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketEvents) == nil {
			return fmt.Errorf("event bucket missing")
		}
		return nil
	})
}

// Package history persists completed runs in a bbolt database so
// operators can review past verification results.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/agentops/pdpguard/pkg/dispatch"
	"github.com/agentops/pdpguard/pkg/spec"
	"github.com/agentops/pdpguard/pkg/verify"
)

const runsBucket = "runs"

// DefaultMaxRuns bounds how many runs are retained before pruning.
const DefaultMaxRuns = 500

// Record is one persisted run.
type Record struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	StartedAt time.Time          `json:"startedAt"`
	Verdicts  []verify.Verdict   `json:"verdicts"`
	Summary   verify.Summary     `json:"summary"`
	Trigger   spec.Trigger       `json:"trigger"`
	Outcomes  []dispatch.Outcome `json:"outcomes,omitempty"`
}

// Store is a bbolt-backed run log.
type Store struct {
	db      *bolt.DB
	maxRuns int
	mu      sync.Mutex
}

// Open creates or opens the run store at path. maxRuns <= 0 uses
// DefaultMaxRuns.
func Open(path string, maxRuns int) (*Store, error) {
	if maxRuns <= 0 {
		maxRuns = DefaultMaxRuns
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(runsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init run store: %w", err)
	}

	return &Store{db: db, maxRuns: maxRuns}, nil
}

// NewID returns a fresh run identifier.
func NewID() string {
	return uuid.NewString()
}

// Save persists a record, assigning an ID and start time if unset, and
// prunes the oldest runs past the retention limit.
func (s *Store) Save(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = NewID()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}
		// Time-prefixed keys keep the bucket in chronological order.
		key := rec.StartedAt.UTC().Format(time.RFC3339Nano) + "/" + rec.ID
		if err := b.Put([]byte(key), data); err != nil {
			return err
		}
		return pruneOldest(b, s.maxRuns)
	})
}

// pruneOldest deletes runs beyond limit, oldest first.
func pruneOldest(b *bolt.Bucket, limit int) error {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	if len(keys) <= limit {
		return nil
	}
	for _, k := range keys[:len(keys)-limit] {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]Record, error) {
	var out []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal run %s: %w", string(k), err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the run with the given ID.
func (s *Store) Get(id string) (*Record, error) {
	var found *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()
		suffix := []byte("/" + id)
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if !bytes.HasSuffix(k, suffix) {
				continue
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal run %s: %w", string(k), err)
			}
			found = &rec
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return found, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

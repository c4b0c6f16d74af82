// Package storage persists classification history for the wine classifier.
// It uses BoltDB as the underlying storage engine; each record holds the raw
// observation, the derived model input and the verdict.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wine-classifier/internal/common"
	"wine-classifier/internal/features"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Record is one classification.
type Record struct {
	ID         string                  `json:"id"`
	Timestamp  time.Time               `json:"timestamp"`
	Input      features.RawObservation `json:"input"`
	ModelInput features.ModelInput     `json:"model_input"`
	Prediction int                     `json:"prediction"`
	Category   string                  `json:"category"`
}

// Store provides persistent storage for classification records using BoltDB.
// Keys are "<unix-nano>_<id>" with a fixed-width timestamp, so cursor order is
// chronological.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the history database under dataPath.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	dbPath := filepath.Join(dataPath, common.HistoryFileName)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(common.HistoryBucket)); err != nil {
			return fmt.Errorf("create %s bucket: %w", common.HistoryBucket, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Save stores rec, assigning an ID and timestamp when they are empty. It
// returns the stored record.
func (s *Store) Save(rec Record) (Record, error) {
	if s.db == nil {
		return Record{}, ErrClosed
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(common.HistoryBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		return b.Put(recordKey(rec.Timestamp, rec.ID), data)
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		return []Record{}, nil
	}

	records := make([]Record, 0, limit)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(common.HistoryBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

// InRange returns records with start <= Timestamp <= end, oldest first.
func (s *Store) InRange(start, end time.Time) ([]Record, error) {
	if s.db == nil {
		return nil, ErrClosed
	}

	var records []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(common.HistoryBucket)).Cursor()

		startKey := timePrefix(start)
		endKey := timePrefix(end.Add(time.Nanosecond))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) < 0; k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(common.HistoryBucket)).Stats().KeyN
		return nil
	})
	return n, err
}

func timePrefix(ts time.Time) []byte {
	return []byte(fmt.Sprintf("%019d", ts.UnixNano()))
}

func recordKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%019d_%s", ts.UnixNano(), id))
}

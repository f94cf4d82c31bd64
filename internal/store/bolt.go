//go:build bolt

package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"path/filepath"
	"time"

	"github.com/inovacc/buildsweep/internal/application"
	"github.com/inovacc/buildsweep/internal/model"
	"go.etcd.io/bbolt"
)

const (
	boltBucketRuns      = "sweep_runs"      // key: run ID (big-endian uint64) -> Run JSON
	boltBucketDecisions = "sweep_decisions" // key: run ID + decision ID (big-endian) -> DecisionRecord JSON
)

type Bolt struct {
	storage *bbolt.DB
}

// NewBolt creates a new Bolt database at the specified path.
// This is primarily exposed for testing purposes.
func NewBolt(path string) (*Bolt, error) {
	instance, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	if err := instance.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(boltBucketRuns)); err != nil {
			return err
		}

		if _, err := tx.CreateBucketIfNotExists([]byte(boltBucketDecisions)); err != nil {
			return err
		}

		return nil
	}); err != nil {
		_ = instance.Close()

		return nil, err
	}

	return &Bolt{storage: instance}, nil
}

func initDB() (Store, error) {
	dir, err := application.GetApplicationDirectory()
	if err != nil {
		return nil, err
	}

	return NewBolt(filepath.Join(dir, application.AppName+".bolt"))
}

// Close closes the database.
func (b *Bolt) Close() error {
	return b.storage.Close()
}

func (b *Bolt) Ping() error {
	return b.storage.View(func(tx *bbolt.Tx) error {
		return nil
	})
}

func runKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)

	return key
}

func decisionKey(runID, seq uint64) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[:8], runID)
	binary.BigEndian.PutUint64(key[8:], seq)

	return key
}

// SaveRun persists a finished run and its decisions in one transaction.
// The generated run ID is written back into run.ID.
func (b *Bolt) SaveRun(run *model.Run, decisions []model.DecisionRecord) error {
	if run == nil {
		return errors.New("run is required")
	}

	return b.storage.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(boltBucketRuns))

		id, err := runs.NextSequence()
		if err != nil {
			return err
		}

		run.ID = int64(id)

		data, err := json.Marshal(run)
		if err != nil {
			return err
		}

		if err := runs.Put(runKey(id), data); err != nil {
			return err
		}

		records := tx.Bucket([]byte(boltBucketDecisions))

		for i := range decisions {
			d := decisions[i]
			d.ID = int64(i + 1)
			d.RunID = run.ID

			data, err := json.Marshal(&d)
			if err != nil {
				return err
			}

			if err := records.Put(decisionKey(id, uint64(i+1)), data); err != nil {
				return err
			}
		}

		return nil
	})
}

// RecentRuns returns the most recent runs, newest first.
func (b *Bolt) RecentRuns(limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 10
	}

	var runs []model.Run

	err := b.storage.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(boltBucketRuns)).Cursor()

		for k, v := c.Last(); k != nil && len(runs) < limit; k, v = c.Prev() {
			var r model.Run

			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}

			runs = append(runs, r)
		}

		return nil
	})

	return runs, err
}

// DecisionsForRun returns all decisions recorded for a run.
func (b *Bolt) DecisionsForRun(runID int64) ([]model.DecisionRecord, error) {
	var decisions []model.DecisionRecord

	prefix := runKey(uint64(runID))

	err := b.storage.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(boltBucketDecisions)).Cursor()

		for k, v := c.Seek(prefix); k != nil && len(k) == 16 && string(k[:8]) == string(prefix); k, v = c.Next() {
			var d model.DecisionRecord

			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}

			decisions = append(decisions, d)
		}

		return nil
	})

	return decisions, err
}

// Package store records sweep runs so past decisions can be audited with
// the history command.
//
// The package defines the [Store] interface which abstracts all database
// operations. The default backend is SQLite; building with the `bolt` tag
// swaps in an embedded BoltDB backend instead.
//
// Use [GetDB] to obtain the singleton store instance.
package store

import (
	"sync"

	"github.com/inovacc/buildsweep/internal/model"
)

// Store defines the database operations used by the app.
type Store interface {
	Ping() error
	Close() error

	// SaveRun persists a finished run and its decisions atomically,
	// assigning run.ID.
	SaveRun(run *model.Run, decisions []model.DecisionRecord) error
	RecentRuns(limit int) ([]model.Run, error)
	DecisionsForRun(runID int64) ([]model.DecisionRecord, error)
}

var (
	once sync.Once
	db   Store
)

// GetDB returns the initialized database store.
func GetDB() Store {
	once.Do(lazyInit)

	return db
}

func lazyInit() {
	instance, err := initDB()
	if err != nil {
		panic(err)
	}

	_ = instance.Ping()
	db = instance
}

//go:build !bolt

package store

import (
	"path/filepath"

	"github.com/inovacc/buildsweep/internal/application"
	"github.com/inovacc/buildsweep/internal/store/sqlite"
)

func initDB() (Store, error) {
	dir, err := application.GetApplicationDirectory()
	if err != nil {
		return nil, err
	}

	return sqlite.New(filepath.Join(dir, application.AppName+".db"))
}

// Package sqlite registers the SQLite database driver (mattn/go-sqlite3, cgo).
//
//	import _ "github.com/ncobase/jobqueue/data/sqlite"
//
// Sources may be a file path, "file:jobs.db?_journal_mode=WAL" or
// "file::memory:?cache=shared". The pool defaults to one open connection.
package sqlite

import (
	"github.com/ncobase/jobqueue/data"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

func init() {
	data.RegisterDatabaseDriver(&data.SQLDriver{
		DriverName:  "sqlite",
		SQLName:     "sqlite3",
		DefaultIdle: 2,
		DefaultOpen: 1,
	})
}

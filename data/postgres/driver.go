// Package postgres registers the PostgreSQL database driver, using pgx
// through its database/sql adapter.
//
//	import _ "github.com/ncobase/jobqueue/data/postgres"
package postgres

import (
	"github.com/ncobase/jobqueue/data"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

func init() {
	data.RegisterDatabaseDriver(&data.SQLDriver{
		DriverName:  "postgres",
		SQLName:     "pgx",
		DefaultIdle: 5,
		DefaultOpen: 20,
	})
}

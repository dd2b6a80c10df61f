// Package mysql registers the MySQL database driver.
//
//	import _ "github.com/ncobase/jobqueue/data/mysql"
//
// Sources must include parseTime=true so DATETIME columns scan into time.Time.
package mysql

import (
	"github.com/ncobase/jobqueue/data"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

func init() {
	data.RegisterDatabaseDriver(&data.SQLDriver{
		DriverName:  "mysql",
		SQLName:     "mysql",
		DefaultIdle: 5,
		DefaultOpen: 20,
	})
}

// Package all registers every bundled driver.
//
//	import _ "github.com/ncobase/jobqueue/data/all"
package all

import (
	_ "github.com/ncobase/jobqueue/data/kafka"
	_ "github.com/ncobase/jobqueue/data/mongodb"
	_ "github.com/ncobase/jobqueue/data/mysql"
	_ "github.com/ncobase/jobqueue/data/postgres"
	_ "github.com/ncobase/jobqueue/data/rabbitmq"
	_ "github.com/ncobase/jobqueue/data/redis"
	_ "github.com/ncobase/jobqueue/data/sqlite"
)

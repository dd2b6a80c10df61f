package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ncobase/jobqueue/data/config"
)

// OpenSQL opens a database/sql handle for node using the named sql driver,
// applies pool settings and verifies it with a ping. Zero pool settings fall
// back to defaultIdle and defaultOpen.
func OpenSQL(ctx context.Context, sqlDriver string, node *config.DBNode, defaultIdle, defaultOpen int) (*sql.DB, error) {
	if node == nil || node.Source == "" {
		return nil, fmt.Errorf("%s: connection source is empty", sqlDriver)
	}

	db, err := sql.Open(sqlDriver, node.Source)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open connection: %w", sqlDriver, err)
	}

	idle, open := node.MaxIdleConn, node.MaxOpenConn
	if idle <= 0 {
		idle = defaultIdle
	}
	if open <= 0 {
		open = defaultOpen
	}
	db.SetMaxIdleConns(idle)
	db.SetMaxOpenConns(open)
	if node.ConnMaxLifeTime > 0 {
		db.SetConnMaxLifetime(node.ConnMaxLifeTime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", sqlDriver, err)
	}
	return db, nil
}

// SQLDriver implements DatabaseDriver for database/sql backends
type SQLDriver struct {
	// DriverName is the identifier used in configuration files
	DriverName string
	// SQLName is the name registered with database/sql
	SQLName     string
	DefaultIdle int
	DefaultOpen int
}

func (d *SQLDriver) Name() string {
	return d.DriverName
}

// Connect expects a *config.DBNode and returns a *sql.DB
func (d *SQLDriver) Connect(ctx context.Context, cfg any) (any, error) {
	node, ok := cfg.(*config.DBNode)
	if !ok {
		return nil, fmt.Errorf("%s: invalid configuration type, expected *config.DBNode", d.DriverName)
	}
	return OpenSQL(ctx, d.SQLName, node, d.DefaultIdle, d.DefaultOpen)
}

func (d *SQLDriver) Close(conn any) error {
	db, ok := conn.(*sql.DB)
	if !ok {
		return fmt.Errorf("%s: invalid connection type, expected *sql.DB", d.DriverName)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("%s: failed to close connection: %w", d.DriverName, err)
	}
	return nil
}

func (d *SQLDriver) Ping(ctx context.Context, conn any) error {
	db, ok := conn.(*sql.DB)
	if !ok {
		return fmt.Errorf("%s: invalid connection type, expected *sql.DB", d.DriverName)
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: ping failed: %w", d.DriverName, err)
	}
	return nil
}

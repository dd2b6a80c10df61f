// Package data holds the backend driver registry and the connections opened
// from configuration.
//
// Drivers register themselves from init, following database/sql:
//
//	import _ "github.com/ncobase/jobqueue/data/all"
package data

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// DatabaseDriver opens stores that can persist jobs (relational or document).
type DatabaseDriver interface {
	// Name returns the identifier used in configuration files
	Name() string
	// Connect opens and verifies a connection
	Connect(ctx context.Context, cfg any) (any, error)
	// Close releases the connection
	Close(conn any) error
	// Ping checks the connection is alive
	Ping(ctx context.Context, conn any) error
}

// MessageDriver opens connections to event transports (pub/sub, brokers, logs).
type MessageDriver interface {
	Name() string
	Connect(ctx context.Context, cfg any) (any, error)
	Close(conn any) error
}

var (
	databaseDrivers   = make(map[string]DatabaseDriver)
	databaseDriversMu sync.RWMutex

	messageDrivers   = make(map[string]MessageDriver)
	messageDriversMu sync.RWMutex
)

// RegisterDatabaseDriver makes a database driver available by name. It panics
// on nil, unnamed or duplicate drivers.
func RegisterDatabaseDriver(driver DatabaseDriver) {
	databaseDriversMu.Lock()
	defer databaseDriversMu.Unlock()

	if driver == nil {
		panic("data: RegisterDatabaseDriver driver is nil")
	}
	name := driver.Name()
	if name == "" {
		panic("data: RegisterDatabaseDriver driver name is empty")
	}
	if _, exists := databaseDrivers[name]; exists {
		panic(fmt.Sprintf("data: RegisterDatabaseDriver called twice for driver %s", name))
	}
	databaseDrivers[name] = driver
}

// GetDatabaseDriver returns the registered database driver
func GetDatabaseDriver(name string) (DatabaseDriver, error) {
	databaseDriversMu.RLock()
	defer databaseDriversMu.RUnlock()

	driver, ok := databaseDrivers[name]
	if !ok {
		return nil, fmt.Errorf("data: database driver %q not registered (forgotten import?)", name)
	}
	return driver, nil
}

// RegisterMessageDriver makes a message driver available by name. It panics
// on nil, unnamed or duplicate drivers.
func RegisterMessageDriver(driver MessageDriver) {
	messageDriversMu.Lock()
	defer messageDriversMu.Unlock()

	if driver == nil {
		panic("data: RegisterMessageDriver driver is nil")
	}
	name := driver.Name()
	if name == "" {
		panic("data: RegisterMessageDriver driver name is empty")
	}
	if _, exists := messageDrivers[name]; exists {
		panic(fmt.Sprintf("data: RegisterMessageDriver called twice for driver %s", name))
	}
	messageDrivers[name] = driver
}

// GetMessageDriver returns the registered message driver
func GetMessageDriver(name string) (MessageDriver, error) {
	messageDriversMu.RLock()
	defer messageDriversMu.RUnlock()

	driver, ok := messageDrivers[name]
	if !ok {
		return nil, fmt.Errorf("data: message driver %q not registered (forgotten import?)", name)
	}
	return driver, nil
}

// ListDrivers returns the sorted names of all registered drivers
func ListDrivers() (databases, messages []string) {
	databaseDriversMu.RLock()
	for name := range databaseDrivers {
		databases = append(databases, name)
	}
	databaseDriversMu.RUnlock()

	messageDriversMu.RLock()
	for name := range messageDrivers {
		messages = append(messages, name)
	}
	messageDriversMu.RUnlock()

	sort.Strings(databases)
	sort.Strings(messages)
	return databases, messages
}

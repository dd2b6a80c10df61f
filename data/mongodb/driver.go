// Package mongodb registers the MongoDB database driver.
//
//	import _ "github.com/ncobase/jobqueue/data/mongodb"
//
// Connect takes a *config.MongoDB and returns the configured *mongo.Database.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ncobase/jobqueue/data"
	"github.com/ncobase/jobqueue/data/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultDatabase = "jobqueue"

type driver struct{}

func (d *driver) Name() string {
	return "mongodb"
}

func (d *driver) Connect(ctx context.Context, cfg any) (any, error) {
	mongoCfg, ok := cfg.(*config.MongoDB)
	if !ok {
		return nil, fmt.Errorf("mongodb: invalid configuration type, expected *config.MongoDB")
	}
	if mongoCfg.URI == "" {
		return nil, errors.New("mongodb: URI is empty")
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(mongoCfg.URI).
		SetConnectTimeout(10*time.Second).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}))
	if err != nil {
		return nil, fmt.Errorf("mongodb: failed to connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: failed to ping: %w", err)
	}

	name := mongoCfg.Database
	if name == "" {
		name = defaultDatabase
	}
	return client.Database(name), nil
}

func (d *driver) Close(conn any) error {
	db, ok := conn.(*mongo.Database)
	if !ok {
		return fmt.Errorf("mongodb: invalid connection type, expected *mongo.Database")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Client().Disconnect(ctx); err != nil {
		return fmt.Errorf("mongodb: failed to disconnect: %w", err)
	}
	return nil
}

func (d *driver) Ping(ctx context.Context, conn any) error {
	db, ok := conn.(*mongo.Database)
	if !ok {
		return fmt.Errorf("mongodb: invalid connection type, expected *mongo.Database")
	}
	if err := db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb: ping failed: %w", err)
	}
	return nil
}

func init() {
	data.RegisterDatabaseDriver(&driver{})
}

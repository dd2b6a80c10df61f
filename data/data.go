package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ncobase/jobqueue/data/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Data holds the connections opened from configuration. Every field is
// optional; only configured backends are connected.
type Data struct {
	DB       *sql.DB
	DBDriver string
	Mongo    *mongo.Database
	Redis    *redis.Client
	Kafka    *kafka.Writer
	RabbitMQ *amqp.Connection

	closers []func() error
}

// New connects every configured backend. The returned cleanup closes them in
// reverse order.
func New(ctx context.Context, cfg *config.Config) (*Data, func(), error) {
	d := &Data{}
	if cfg == nil {
		return d, func() {}, nil
	}

	if err := d.openDatabase(ctx, cfg); err != nil {
		d.Close()
		return nil, nil, err
	}
	if err := d.openMessaging(ctx, cfg); err != nil {
		d.Close()
		return nil, nil, err
	}

	return d, func() { _ = d.Close() }, nil
}

func (d *Data) openDatabase(ctx context.Context, cfg *config.Config) error {
	if cfg.Database != nil && cfg.Database.Master != nil && cfg.Database.Master.Driver != "" {
		node := cfg.Database.Master
		conn, err := connectDatabase(ctx, node.Driver, node)
		if err != nil {
			return err
		}
		db, ok := conn.(*sql.DB)
		if !ok {
			return fmt.Errorf("data: driver %s did not return *sql.DB", node.Driver)
		}
		d.DB, d.DBDriver = db, node.Driver
		d.addCloser(node.Driver, conn)
	}

	if cfg.MongoDB != nil && cfg.MongoDB.URI != "" {
		conn, err := connectDatabase(ctx, "mongodb", cfg.MongoDB)
		if err != nil {
			return err
		}
		db, ok := conn.(*mongo.Database)
		if !ok {
			return errors.New("data: mongodb driver did not return *mongo.Database")
		}
		d.Mongo = db
		d.addCloser("mongodb", conn)
	}
	return nil
}

func (d *Data) openMessaging(ctx context.Context, cfg *config.Config) error {
	if cfg.Redis != nil && cfg.Redis.Addr != "" {
		conn, err := connectMessage(ctx, "redis", cfg.Redis)
		if err != nil {
			return err
		}
		d.Redis = conn.(*redis.Client)
		d.addMessageCloser("redis", conn)
	}

	if cfg.Kafka != nil && len(cfg.Kafka.Brokers) > 0 {
		conn, err := connectMessage(ctx, "kafka", cfg.Kafka)
		if err != nil {
			return err
		}
		d.Kafka = conn.(*kafka.Writer)
		d.addMessageCloser("kafka", conn)
	}

	if cfg.RabbitMQ != nil && cfg.RabbitMQ.URL != "" {
		conn, err := connectMessage(ctx, "rabbitmq", cfg.RabbitMQ)
		if err != nil {
			return err
		}
		d.RabbitMQ = conn.(*amqp.Connection)
		d.addMessageCloser("rabbitmq", conn)
	}
	return nil
}

func connectDatabase(ctx context.Context, name string, cfg any) (any, error) {
	driver, err := GetDatabaseDriver(name)
	if err != nil {
		return nil, err
	}
	conn, err := driver.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("data: connect %s: %w", name, err)
	}
	return conn, nil
}

func connectMessage(ctx context.Context, name string, cfg any) (any, error) {
	driver, err := GetMessageDriver(name)
	if err != nil {
		return nil, err
	}
	conn, err := driver.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("data: connect %s: %w", name, err)
	}
	return conn, nil
}

func (d *Data) addCloser(name string, conn any) {
	d.closers = append(d.closers, func() error {
		driver, err := GetDatabaseDriver(name)
		if err != nil {
			return err
		}
		return driver.Close(conn)
	})
}

func (d *Data) addMessageCloser(name string, conn any) {
	d.closers = append(d.closers, func() error {
		driver, err := GetMessageDriver(name)
		if err != nil {
			return err
		}
		return driver.Close(conn)
	})
}

// Ping checks the relational database, if one is open
func (d *Data) Ping(ctx context.Context) error {
	if d.DB == nil {
		return nil
	}
	driver, err := GetDatabaseDriver(d.DBDriver)
	if err != nil {
		return err
	}
	return driver.Ping(ctx, d.DB)
}

// Close closes all connections in reverse order of opening
func (d *Data) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

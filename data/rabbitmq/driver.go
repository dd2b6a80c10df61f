// Package rabbitmq registers the RabbitMQ message driver.
//
//	import _ "github.com/ncobase/jobqueue/data/rabbitmq"
//
// The URL may be a full amqp(s):// URL or a bare host:port, in which case the
// username, password and vhost settings are applied.
package rabbitmq

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ncobase/jobqueue/data"
	"github.com/ncobase/jobqueue/data/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

type driver struct{}

func (d *driver) Name() string {
	return "rabbitmq"
}

func (d *driver) Connect(_ context.Context, cfg any) (any, error) {
	rmqCfg, ok := cfg.(*config.RabbitMQ)
	if !ok {
		return nil, fmt.Errorf("rabbitmq: invalid configuration type, expected *config.RabbitMQ")
	}
	if rmqCfg.URL == "" {
		return nil, fmt.Errorf("rabbitmq: URL is empty")
	}

	amqpCfg := amqp.Config{Heartbeat: rmqCfg.HeartbeatInterval}
	if amqpCfg.Heartbeat <= 0 {
		amqpCfg.Heartbeat = 10 * time.Second
	}
	conn, err := amqp.DialConfig(BuildURL(rmqCfg), amqpCfg)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: failed to connect: %w", err)
	}
	return conn, nil
}

func (d *driver) Close(conn any) error {
	c, ok := conn.(*amqp.Connection)
	if !ok {
		return fmt.Errorf("rabbitmq: invalid connection type, expected *amqp.Connection")
	}
	if c.IsClosed() {
		return nil
	}
	return c.Close()
}

// BuildURL returns the dial URL for cfg
func BuildURL(cfg *config.RabbitMQ) string {
	if strings.HasPrefix(cfg.URL, "amqp://") || strings.HasPrefix(cfg.URL, "amqps://") {
		return cfg.URL
	}

	u := url.URL{Scheme: "amqp", Host: cfg.URL, Path: "/"}
	if cfg.Username != "" || cfg.Password != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	if cfg.Vhost != "" {
		u.Path = "/" + strings.TrimPrefix(cfg.Vhost, "/")
	}
	return u.String()
}

func init() {
	data.RegisterMessageDriver(&driver{})
}

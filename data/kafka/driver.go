// Package kafka registers the Kafka message driver. Connect returns a
// *kafka.Writer bound to the configured brokers; the topic is chosen per
// message.
//
//	import _ "github.com/ncobase/jobqueue/data/kafka"
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ncobase/jobqueue/data"
	"github.com/ncobase/jobqueue/data/config"
	"github.com/segmentio/kafka-go"
)

type driver struct{}

func (d *driver) Name() string {
	return "kafka"
}

func (d *driver) Connect(ctx context.Context, cfg any) (any, error) {
	kafkaCfg, ok := cfg.(*config.Kafka)
	if !ok {
		return nil, fmt.Errorf("kafka: invalid configuration type, expected *config.Kafka")
	}
	if len(kafkaCfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}

	// Dial one broker so misconfiguration surfaces at startup.
	conn, err := kafka.DialContext(ctx, "tcp", kafkaCfg.Brokers[0])
	if err != nil {
		return nil, fmt.Errorf("kafka: failed to connect to broker: %w", err)
	}
	_ = conn.Close()

	writeTimeout := kafkaCfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	transport := &kafka.Transport{ClientID: kafkaCfg.ClientID}
	return &kafka.Writer{
		Addr:                   kafka.TCP(kafkaCfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           writeTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Transport:              transport,
	}, nil
}

func (d *driver) Close(conn any) error {
	w, ok := conn.(*kafka.Writer)
	if !ok {
		return fmt.Errorf("kafka: invalid connection type, expected *kafka.Writer")
	}
	return w.Close()
}

func init() {
	data.RegisterMessageDriver(&driver{})
}

package config

import (
	"time"

	"github.com/spf13/viper"
)

// Event sinks selectable with notifier.sinks
const (
	SinkRedis    = "redis"
	SinkKafka    = "kafka"
	SinkRabbitMQ = "rabbitmq"
)

// Notifier config struct
type Notifier struct {
	// Stream enables the in-process event bus behind GET /jobs/events
	Stream      bool  `json:"stream" yaml:"stream"`
	MaxInFlight int32 `json:"max_in_flight" yaml:"max_in_flight" validate:"gte=1"`
	// Sinks lists the external transports events are published to
	Sinks      []string      `json:"sinks" yaml:"sinks" validate:"dive,oneof=redis kafka rabbitmq"`
	BufferSize int           `json:"buffer_size" yaml:"buffer_size" validate:"gte=1"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`
	Redis      *RedisSink    `json:"redis" yaml:"redis"`
	Kafka      *KafkaSink    `json:"kafka" yaml:"kafka"`
	RabbitMQ   *RabbitMQSink `json:"rabbitmq" yaml:"rabbitmq"`
	Breaker    *Breaker      `json:"breaker" yaml:"breaker"`
}

// RedisSink config struct
type RedisSink struct {
	Channel string `json:"channel" yaml:"channel"`
}

// KafkaSink config struct
type KafkaSink struct {
	Topic string `json:"topic" yaml:"topic"`
}

// RabbitMQSink config struct
type RabbitMQSink struct {
	Exchange   string `json:"exchange" yaml:"exchange"`
	RoutingKey string `json:"routing_key" yaml:"routing_key"`
}

// Breaker config struct
type Breaker struct {
	ConsecutiveFailures uint32        `json:"consecutive_failures" yaml:"consecutive_failures" validate:"gte=1"`
	OpenTimeout         time.Duration `json:"open_timeout" yaml:"open_timeout" validate:"gt=0"`
}

// HasSink reports whether name is among the configured sinks
func (n *Notifier) HasSink(name string) bool {
	for _, s := range n.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

func getNotifierConfig(v *viper.Viper) *Notifier {
	return &Notifier{
		Stream:      getBoolOrDefault(v, "notifier.stream", true),
		MaxInFlight: int32(getIntOrDefault(v, "notifier.max_in_flight", 64)),
		Sinks:       v.GetStringSlice("notifier.sinks"),
		BufferSize:  getIntOrDefault(v, "notifier.buffer_size", 1024),
		Timeout:     getDurationOrDefault(v, "notifier.timeout", 5*time.Second),
		Redis: &RedisSink{
			Channel: getStringOrDefault(v, "notifier.redis.channel", "jobqueue:events"),
		},
		Kafka: &KafkaSink{
			Topic: getStringOrDefault(v, "notifier.kafka.topic", "jobqueue.events"),
		},
		RabbitMQ: &RabbitMQSink{
			Exchange:   getStringOrDefault(v, "notifier.rabbitmq.exchange", "jobqueue.events"),
			RoutingKey: getStringOrDefault(v, "notifier.rabbitmq.routing_key", "jobs"),
		},
		Breaker: &Breaker{
			ConsecutiveFailures: getUint32OrDefault(v, "notifier.breaker.consecutive_failures", 5),
			OpenTimeout:         getDurationOrDefault(v, "notifier.breaker.open_timeout", 30*time.Second),
		},
	}
}

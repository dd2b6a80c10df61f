package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config data config struct
type Config struct {
	*Database `yaml:"database" json:"database"`
	*Redis    `yaml:"redis" json:"redis"`
	*MongoDB  `yaml:"mongodb" json:"mongodb"`
	*RabbitMQ `yaml:"rabbitmq" json:"rabbitmq"`
	*Kafka    `yaml:"kafka" json:"kafka"`
}

// Database database config struct
type Database struct {
	Master  *DBNode `json:"master" yaml:"master"`
	Migrate bool    `json:"migrate" yaml:"migrate"`
}

// DBNode represents a single database node configuration
type DBNode struct {
	Driver          string        `json:"driver" yaml:"driver"`
	Source          string        `json:"source" yaml:"source"`
	MaxIdleConn     int           `json:"max_idle_conn" yaml:"max_idle_conn"`
	MaxOpenConn     int           `json:"max_open_conn" yaml:"max_open_conn"`
	ConnMaxLifeTime time.Duration `json:"conn_max_life_time" yaml:"conn_max_life_time"`
}

// Redis redis config struct
type Redis struct {
	Addr         string        `json:"addr" yaml:"addr"`
	Username     string        `json:"username" yaml:"username"`
	Password     string        `json:"password" yaml:"password"`
	Db           int           `json:"db" yaml:"db"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
}

// MongoDB mongodb config struct
type MongoDB struct {
	URI      string `json:"uri" yaml:"uri"`
	Database string `json:"database" yaml:"database"`
}

// RabbitMQ rabbitmq config struct
type RabbitMQ struct {
	URL               string        `json:"url" yaml:"url"`
	Username          string        `json:"username" yaml:"username"`
	Password          string        `json:"password" yaml:"password"`
	Vhost             string        `json:"vhost" yaml:"vhost"`
	HeartbeatInterval time.Duration `json:"heartbeat_interval" yaml:"heartbeat_interval"`
}

// Kafka kafka config struct
type Kafka struct {
	Brokers      []string      `json:"brokers" yaml:"brokers"`
	ClientID     string        `json:"client_id" yaml:"client_id"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

// GetConfig returns data config
func GetConfig(v *viper.Viper) *Config {
	return &Config{
		Database: getDatabaseConfig(v),
		Redis:    getRedisConfig(v),
		MongoDB:  getMongoDBConfig(v),
		RabbitMQ: getRabbitMQConfig(v),
		Kafka:    getKafkaConfig(v),
	}
}

func getDatabaseConfig(v *viper.Viper) *Database {
	return &Database{
		Master: &DBNode{
			Driver:          v.GetString("data.database.master.driver"),
			Source:          v.GetString("data.database.master.source"),
			MaxIdleConn:     v.GetInt("data.database.master.max_idle_conn"),
			MaxOpenConn:     v.GetInt("data.database.master.max_open_conn"),
			ConnMaxLifeTime: v.GetDuration("data.database.master.max_life_time"),
		},
		Migrate: v.GetBool("data.database.migrate"),
	}
}

func getRedisConfig(v *viper.Viper) *Redis {
	return &Redis{
		Addr:         v.GetString("data.redis.addr"),
		Username:     v.GetString("data.redis.username"),
		Password:     v.GetString("data.redis.password"),
		Db:           v.GetInt("data.redis.db"),
		ReadTimeout:  v.GetDuration("data.redis.read_timeout"),
		WriteTimeout: v.GetDuration("data.redis.write_timeout"),
		DialTimeout:  v.GetDuration("data.redis.dial_timeout"),
	}
}

func getMongoDBConfig(v *viper.Viper) *MongoDB {
	return &MongoDB{
		URI:      v.GetString("data.mongodb.uri"),
		Database: v.GetString("data.mongodb.database"),
	}
}

func getRabbitMQConfig(v *viper.Viper) *RabbitMQ {
	return &RabbitMQ{
		URL:               v.GetString("data.rabbitmq.url"),
		Username:          v.GetString("data.rabbitmq.username"),
		Password:          v.GetString("data.rabbitmq.password"),
		Vhost:             v.GetString("data.rabbitmq.vhost"),
		HeartbeatInterval: v.GetDuration("data.rabbitmq.heartbeat_interval"),
	}
}

func getKafkaConfig(v *viper.Viper) *Kafka {
	return &Kafka{
		Brokers:      v.GetStringSlice("data.kafka.brokers"),
		ClientID:     v.GetString("data.kafka.client_id"),
		WriteTimeout: v.GetDuration("data.kafka.write_timeout"),
	}
}

package rabbitmq

import (
	"testing"

	"github.com/ncobase/jobqueue/data/config"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		cfg  config.RabbitMQ
		want string
	}{
		{config.RabbitMQ{URL: "amqp://guest:guest@mq:5672/"}, "amqp://guest:guest@mq:5672/"},
		{config.RabbitMQ{URL: "mq:5672"}, "amqp://mq:5672/"},
		{config.RabbitMQ{URL: "mq:5672", Username: "u", Password: "p", Vhost: "jobs"}, "amqp://u:p@mq:5672/jobs"},
		{config.RabbitMQ{URL: "mq:5672", Vhost: "/jobs"}, "amqp://mq:5672/jobs"},
	}
	for _, tt := range tests {
		if got := BuildURL(&tt.cfg); got != tt.want {
			t.Errorf("BuildURL(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

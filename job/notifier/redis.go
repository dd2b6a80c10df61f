package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/ncobase/jobqueue/job/structs"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the pub/sub channel events are published on
const DefaultRedisChannel = "jobqueue:events"

// Redis publishes events on a Redis pub/sub channel
type Redis struct {
	client  redis.UniversalClient
	channel string
}

// NewRedis creates a Redis notifier. An empty channel uses DefaultRedisChannel.
func NewRedis(client redis.UniversalClient, channel string) (*Redis, error) {
	if client == nil {
		return nil, errors.New("notifier: nil redis client")
	}
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &Redis{client: client, channel: channel}, nil
}

func (r *Redis) Notify(ctx context.Context, event *structs.Event) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", event.Type, err)
	}
	return nil
}

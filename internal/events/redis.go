package events

import (
	"context"
	"encoding/json"
	"fmt"

	platformredis "projecthub/internal/platform/redis"
)

// RedisPublisher broadcasts events over redis pub/sub so external consumers
// (indexers, dashboards) can subscribe per topic. Channel name is the topic
// prefixed with a namespace.
type RedisPublisher struct {
	client *platformredis.Client
}

func NewRedisPublisher(client *platformredis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Emit(ctx context.Context, event Event) error {
	event = stamp(event)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	channel := "projecthub:" + string(event.Topic)
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

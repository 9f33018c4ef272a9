package watcher

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/example/arenapix/internal/services"
)

// RedisSubscriber subscribes to the participation update channel published by
// the payment service.
type RedisSubscriber struct {
	rdb *redis.Client
}

func NewRedisSubscriber(rdb *redis.Client) *RedisSubscriber {
	return &RedisSubscriber{rdb: rdb}
}

// Subscribe opens a pub/sub subscription for one participation.
func (s *RedisSubscriber) Subscribe(ctx context.Context, participationID string) (Subscription, error) {
	pubsub := s.rdb.Subscribe(ctx, services.UpdateChannel(participationID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{
		pubsub:  pubsub,
		updates: make(chan services.ParticipationUpdate),
	}
	go sub.run(ctx)
	return sub, nil
}

type redisSubscription struct {
	pubsub  *redis.PubSub
	updates chan services.ParticipationUpdate
}

func (s *redisSubscription) run(ctx context.Context) {
	defer close(s.updates)
	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var update services.ParticipationUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				continue
			}
			select {
			case s.updates <- update:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *redisSubscription) Updates() <-chan services.ParticipationUpdate {
	return s.updates
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}

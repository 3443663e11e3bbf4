package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis publishes over Redis pub/sub channels; one channel per topic.
type Redis struct {
	client *redis.Client
}

// DialRedis connects to addr (host:port) and verifies the connection.
func DialRedis(ctx context.Context, addr string, timeout time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: timeout,
		PoolSize:    64,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return &Redis{client: client}, nil
}

// Name implements Transport.
func (r *Redis) Name() string { return "redis" }

// Publish implements Publisher.
func (r *Redis) Publish(ctx context.Context, topic string, data []byte) error {
	return r.client.Publish(ctx, topic, data).Err()
}

// Subscribe implements Subscriber.
func (r *Redis) Subscribe(ctx context.Context, topic string) (<-chan Delivery, error) {
	ps := r.client.Subscribe(ctx, topic)

	// Wait for the subscription confirmation so no publish is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	out := make(chan Delivery, DeliveryBuffer)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				d := Delivery{Topic: m.Channel, Data: []byte(m.Payload), ReceivedAt: time.Now()}
				select {
				case out <- d:
				default:
				}
			}
		}
	}()

	return out, nil
}

// Close implements Transport.
func (r *Redis) Close() error {
	return r.client.Close()
}

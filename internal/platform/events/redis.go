package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// DefaultStreamMaxLen caps the alert stream; older entries are trimmed
// approximately.
const DefaultStreamMaxLen = 10000

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisStream appends alerts to a Redis stream with XADD.
type RedisStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisStream(client *redis.Client, stream string) *RedisStream {
	return &RedisStream{client: client, stream: stream, maxLen: DefaultStreamMaxLen}
}

func (s *RedisStream) Publish(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	values := map[string]interface{}{
		"id":       alert.ID.String(),
		"type":     alert.Type,
		"priority": alert.Priority,
		"data":     string(payload),
		"ts":       strconv.FormatInt(alert.CreatedAt.Unix(), 10),
	}
	if alert.MotherID != nil {
		values["mother_id"] = alert.MotherID.String()
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

// Recent returns up to count alerts from the stream, newest first.
func (s *RedisStream) Recent(ctx context.Context, count int64) ([]Alert, error) {
	msgs, err := s.client.XRevRangeN(ctx, s.stream, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange %s: %w", s.stream, err)
	}
	alerts := make([]Alert, 0, len(msgs))
	for _, m := range msgs {
		raw, ok := m.Values["data"].(string)
		if !ok {
			continue
		}
		var a Alert
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

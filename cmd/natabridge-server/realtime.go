package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/natabridge/natabridge/internal/domain/nataband"
	"github.com/natabridge/natabridge/internal/platform/auth"
	"github.com/natabridge/natabridge/internal/config"
	"github.com/natabridge/natabridge/internal/platform/events"
	"github.com/natabridge/natabridge/internal/platform/mqtt"
	"github.com/natabridge/natabridge/internal/platform/websocket"
)

type motherLinker interface {
	IsLinked(ctx context.Context, motherID, userID uuid.UUID) (bool, error)
}

// topicAuthorizer lets staff and CHWs hold any topic. A mother may only
// follow the per-mother topic of a record linked to her account.
func topicAuthorizer(linker motherLinker, logger zerolog.Logger) websocket.Authorizer {
	return func(ctx context.Context, topic string) bool {
		p, ok := auth.PrincipalFromContext(ctx)
		if !ok {
			return false
		}
		if auth.HasRole(p.Role, auth.RoleStaff, auth.RoleCHW) {
			return true
		}
		motherID, ok := websocket.IsMotherTopic(topic)
		if !ok || p.Role != auth.RoleMother {
			return false
		}
		linked, err := linker.IsLinked(ctx, motherID, p.UserID)
		if err != nil {
			logger.Warn().Err(err).Str("topic", topic).Msg("topic authorization failed")
			return false
		}
		return linked
	}
}

// initialTopics subscribes staff and CHWs to the global alert feed on
// connect. Mothers start with no topics.
func initialTopics(ctx context.Context) []string {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok || p.Role == auth.RoleMother {
		return nil
	}
	return []string{websocket.TopicAll}
}

// attachRedis adds the Redis alert stream to the fanout when configured.
// The returned close function is never nil.
func attachRedis(ctx context.Context, cfg *config.Config, fanout *events.Fanout, logger zerolog.Logger) func() {
	if cfg.RedisURL == "" {
		return func() {}
	}
	client, err := events.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, alerts will not be streamed")
		return func() {}
	}
	fanout.Add(events.NewRedisStream(client, cfg.AlertStream))
	logger.Info().Str("stream", cfg.AlertStream).Msg("publishing alerts to redis")
	return func() { _ = client.Close() }
}

// startDeviceIngest subscribes to NataBand telemetry when a broker is
// configured. The returned close function is never nil.
func startDeviceIngest(ctx context.Context, cfg *config.Config, ingestor *nataband.Ingestor, logger zerolog.Logger) func() {
	if cfg.MQTTBroker == "" {
		return func() {}
	}
	client, err := mqtt.Dial(mqtt.Config{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Str("broker", cfg.MQTTBroker).Msg("mqtt unavailable, device ingest disabled")
		return func() {}
	}
	if err := client.Subscribe(ctx, cfg.MQTTTopic, ingestor.Handle); err != nil {
		logger.Warn().Err(err).Str("topic", cfg.MQTTTopic).Msg("mqtt subscribe failed")
		client.Close()
		return func() {}
	}
	logger.Info().Str("topic", cfg.MQTTTopic).Msg("device ingest started")
	return client.Close
}

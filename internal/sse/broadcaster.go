package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/grupobacar/helpdesk/internal/metrics"
)

// defaultRedisChannel is the shared Pub/Sub channel used to fan events
// out across service instances.
const defaultRedisChannel = "helpdesk:notifications:events"

// envelope is the message shape stored in Redis Pub/Sub. It wraps the
// room-targeted event so every instance can replay it into its local hub.
type envelope struct {
	Room   string          `json:"room"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
	SentAt time.Time       `json:"sent_at"`
}

// Broadcaster is the delivery-channel handle injected into the
// notification service. With a redis client it publishes through Pub/Sub
// so all instances fan out; without one it degrades to the local hub.
type Broadcaster struct {
	hub     *Hub
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewBroadcaster(hub *Hub, client *redis.Client, logger *zap.Logger) *Broadcaster {
	b := &Broadcaster{
		hub:     hub,
		client:  client,
		channel: defaultRedisChannel,
		logger:  logger,
	}
	if client != nil {
		go b.runSubscriber()
	}
	return b
}

// Hub exposes the local hub for the HTTP endpoint to subscribe sessions.
func (b *Broadcaster) Hub() *Hub {
	return b.hub
}

// Push delivers an event to every connected session in the room.
// Fire-and-forget: no acknowledgment, no retry, no queue of missed
// events. An error here is a DeliveryError for the caller to log.
func (b *Broadcaster) Push(room, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	metrics.IncrementChannelEventsPublished(event)

	if b.client == nil {
		b.hub.Publish(room, Event{Name: event, Data: data})
		return nil
	}

	env := envelope{
		Room:   room,
		Event:  event,
		Data:   data,
		SentAt: time.Now().UTC(),
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := b.client.Publish(ctx, b.channel, body).Err(); err != nil {
		// Degrade to the local hub so single-instance deployments keep
		// delivering while redis is down.
		b.hub.Publish(room, Event{Name: event, Data: data})
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// runSubscriber listens on the shared Redis channel and forwards events
// into the local hub, so sessions on any instance receive notifications
// regardless of where they were produced.
func (b *Broadcaster) runSubscriber() {
	ctx := context.Background()

	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		b.logger.Error("Failed to subscribe to redis channel",
			zap.String("channel", b.channel),
			zap.Error(err),
		)
		return
	}

	for msg := range pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			b.logger.Error("Failed to decode redis envelope", zap.Error(err))
			continue
		}
		if env.Room == "" || env.Event == "" {
			continue
		}
		b.hub.Publish(env.Room, Event{Name: env.Event, Data: env.Data})
	}
}

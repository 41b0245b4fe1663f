package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"tripledoble/internal/events"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ChangeChannel is the Redis pub/sub channel carrying reservation change
// notifications between processes.
const ChangeChannel = "tripledoble:reservations:changed"

// ChangeNotifier fans reservation events out through Redis so every process
// holding an availability snapshot learns about writes made elsewhere.
type ChangeNotifier struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewChangeNotifier(client *redis.Client, logger zerolog.Logger) *ChangeNotifier {
	return &ChangeNotifier{
		client: client,
		logger: logger.With().Str("component", "change_notifier").Logger(),
	}
}

// PublishChange sends a reservation event to the change channel.
func (n *ChangeNotifier) PublishChange(ctx context.Context, payload events.ReservationEventPayload) error {
	if n.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal change payload: %w", err)
	}
	if err := n.client.Publish(ctx, ChangeChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Listen blocks delivering change payloads to handler until ctx is done.
// Malformed messages are logged and skipped.
func (n *ChangeNotifier) Listen(ctx context.Context, handler func(events.ReservationEventPayload)) error {
	if n.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	sub := n.client.Subscribe(ctx, ChangeChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var payload events.ReservationEventPayload
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				n.logger.Warn().Err(err).Msg("skipping malformed change notification")
				continue
			}
			handler(payload)
		}
	}
}

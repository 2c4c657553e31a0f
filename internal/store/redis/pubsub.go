package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event is the envelope delivered to websocket clients for every gap and
// session mutation.
type Event struct {
	Type      string     `json:"type"`
	SessionID *uuid.UUID `json:"session_id,omitempty"`
	GapID     *uuid.UUID `json:"gap_id,omitempty"`
	Data      any        `json:"data,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Channels lists where ev is delivered: the session channel when the event
// belongs to a session, then the owner's user channel.
func (ev Event) Channels(owner uuid.UUID) []string {
	channels := make([]string, 0, 2)
	if ev.SessionID != nil && *ev.SessionID != uuid.Nil {
		channels = append(channels, SessionChannel(*ev.SessionID))
	}
	if owner != uuid.Nil {
		channels = append(channels, UserChannel(owner))
	}
	return channels
}

// PubSub fans gap and session events out to websocket subscribers.
type PubSub struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &PubSub{client: client}, nil
}

// Client exposes the underlying connection so the stats cache can share it.
func (ps *PubSub) Client() *redis.Client {
	return ps.client
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

func (ps *PubSub) Ping(ctx context.Context) error {
	if err := ps.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Ping: %w", err)
	}
	return nil
}

func (ps *PubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ps.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Publish: %w", err)
	}
	return nil
}

// PublishEvent encodes ev once and publishes it on every channel it belongs
// to. A failed channel does not stop delivery to the others.
func (ps *PubSub) PublishEvent(ctx context.Context, owner uuid.UUID, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis.PubSub.PublishEvent: marshal %s: %w", ev.Type, err)
	}

	var errs []error
	for _, ch := range ev.Channels(owner) {
		if err := ps.Publish(ctx, ch, payload); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch, err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe returns a channel of payloads published on channel. The output
// closes when ctx is done or the subscription drops; call cleanup to release it.
func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, 64)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}

// SessionChannel returns the Redis channel name for events of one audit session.
func SessionChannel(sessionID uuid.UUID) string {
	return "session:" + sessionID.String()
}

// UserChannel returns the Redis channel name for events concerning a user's gaps and sessions.
func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}

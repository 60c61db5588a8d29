package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Logger is the logging subset used by the relay.
type Logger interface {
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any) {}

// relayEnvelope is the Pub/Sub message body.
type relayEnvelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// Relay mirrors broadcaster events between processes over Redis Pub/Sub, so
// a websocket client sees changes made through any instance. Each instance
// publishes its own events and rebroadcasts everyone else's.
type Relay struct {
	client  redis.UniversalClient
	channel string
	origin  string
	b       *Broadcaster
	logger  Logger

	mu      sync.Mutex
	running bool
}

// NewRelay creates a relay publishing b's events on channel.
func NewRelay(client redis.UniversalClient, channel string, b *Broadcaster, logger Logger) *Relay {
	if channel == "" {
		channel = "recall:events"
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Relay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		b:       b,
		logger:  logger,
	}
}

// Origin identifies this instance in relayed messages.
func (r *Relay) Origin() string {
	return r.origin
}

// Run relays until ctx is cancelled or the broadcaster closes. It returns an
// error only when the Redis subscription cannot be established.
func (r *Relay) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("relay is already running")
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	local := r.b.Subscribe(256)
	defer r.b.Unsubscribe(local)

	pubsub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = pubsub.Close() }()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	remote := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-local:
			if !ok {
				return nil
			}
			if ev.Origin != "" {
				continue
			}
			if err := r.publish(ctx, ev); err != nil {
				r.logger.Warn("event relay publish failed", "type", ev.Type, "error", err)
			}
		case msg, ok := <-remote:
			if !ok {
				return nil
			}
			r.receive(msg.Payload)
		}
	}
}

func (r *Relay) publish(ctx context.Context, ev Event) error {
	data, err := r.encode(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

func (r *Relay) encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(relayEnvelope{Origin: r.origin, Event: ev})
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// receive rebroadcasts a remote message locally. Our own echoes and
// undecodable payloads are dropped.
func (r *Relay) receive(payload string) bool {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.logger.Warn("event relay dropped malformed message", "error", err)
		return false
	}
	if env.Origin == "" || env.Origin == r.origin || env.Event.ContainerTag == "" {
		return false
	}
	ev := env.Event
	ev.Origin = env.Origin
	r.b.Broadcast(ev)
	return true
}

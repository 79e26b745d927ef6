package notifier

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Bridge mirrors hub events across instances through a Redis Pub/Sub
// channel. Clients have no session affinity, so the instance that
// commits a transition is usually not the one streaming events to a
// given browser; the bridge makes every instance's hub see every
// transition. When Redis is unavailable the service still works with
// single-instance fan-out only.
type Bridge struct {
	hub     *Hub
	rdb     *redis.Client
	channel string
	origin  string
	out     chan Event
}

// outBuffer bounds the events queued toward Redis while the broker is
// slow. Overflow is dropped; remote subscribers recover through the
// same version-gap resync as local ones.
const outBuffer = 256

// wireEvent is the serialized form exchanged over Redis. Origin keeps
// an instance from re-delivering its own events to its local hub.
type wireEvent struct {
	Origin string `json:"origin"`
	Event
}

// NewBridge wraps the hub with Redis mirroring. origin must be unique
// per instance (main derives it from hostname and pid).
func NewBridge(hub *Hub, rdb *redis.Client, channel, origin string) *Bridge {
	return &Bridge{hub: hub, rdb: rdb, channel: channel, origin: origin, out: make(chan Event, outBuffer)}
}

// Publish delivers locally, then queues the event for the Redis
// mirror. It never touches the network itself, so a slow or down
// Redis cannot delay the committing request; the forward loop started
// by Run drains the queue.
func (b *Bridge) Publish(ev Event) {
	b.hub.Publish(ev)
	select {
	case b.out <- ev:
	default:
		log.Printf("notifier: outbound bridge buffer full, dropping event for stand %s", ev.StandID)
	}
}

// forward drains the outbound queue into Redis until the context is
// cancelled.
func (b *Bridge) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.out:
			payload, err := json.Marshal(wireEvent{Origin: b.origin, Event: ev})
			if err != nil {
				log.Printf("notifier: marshal event failed: %v", err)
				continue
			}
			if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
				log.Printf("notifier: redis publish failed: %v", err)
			}
		}
	}
}

// Run starts the outbound forward loop, then subscribes to the Redis
// channel and forwards foreign events into the local hub until the
// context is cancelled. go-redis reconnects the subscription on its
// own; a closed message channel means the client was closed and the
// loop exits.
func (b *Bridge) Run(ctx context.Context) {
	go b.forward(ctx)

	sub := b.rdb.Subscribe(ctx, b.channel)
	defer func() { _ = sub.Close() }()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var we wireEvent
			if err := json.Unmarshal([]byte(msg.Payload), &we); err != nil {
				log.Printf("notifier: drop malformed bridge payload: %v", err)
				continue
			}
			if we.Origin == b.origin {
				continue
			}
			b.hub.Publish(we.Event)
		}
	}
}

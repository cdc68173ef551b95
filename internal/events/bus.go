// Package events carries scheduler events to the WebSocket layer, through a
// Redis channel when one is configured and in-process otherwise.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/playmatatu/eightball/internal/lobby"
	"github.com/redis/go-redis/v9"
)

const outboxSize = 1024

// Envelope is the wire form of a lobby event.
type Envelope struct {
	Kind   string          `json:"type"`
	Scope  lobby.Scope     `json:"scope"`
	Target string          `json:"target,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Frame is what a client receives: the envelope without routing.
func (e Envelope) Frame() ([]byte, error) {
	return json.Marshal(struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data,omitempty"`
	}{e.Kind, e.Data})
}

// Sink receives decoded envelopes. Deliver must not block.
type Sink interface {
	Deliver(env Envelope)
}

// Encode turns an event into its envelope.
func Encode(ev lobby.Event) (Envelope, error) {
	env := Envelope{Kind: ev.Kind, Scope: ev.Audience.Scope, Target: ev.Audience.Target}
	if ev.Payload != nil {
		data, err := json.Marshal(ev.Payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode %s payload: %w", ev.Kind, err)
		}
		env.Data = data
	}
	return env, nil
}

// Decode parses an envelope read from the channel.
func Decode(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Kind == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// Bus implements lobby.Notifier.
type Bus struct {
	rdb     *redis.Client
	channel string
	sink    Sink
	outbox  chan []byte
}

// NewBus creates a bus. With a nil client events go straight to sink.
func NewBus(rdb *redis.Client, channel string, sink Sink) *Bus {
	return &Bus{
		rdb:     rdb,
		channel: channel,
		sink:    sink,
		outbox:  make(chan []byte, outboxSize),
	}
}

// Publish hands an event off without blocking.
func (b *Bus) Publish(ev lobby.Event) {
	env, err := Encode(ev)
	if err != nil {
		log.Printf("[EVENTS] %v", err)
		return
	}

	if b.rdb == nil {
		b.sink.Deliver(env)
		return
	}

	raw, err := json.Marshal(env)
	if err != nil {
		log.Printf("[EVENTS] encode envelope %s: %v", env.Kind, err)
		return
	}
	select {
	case b.outbox <- raw:
	default:
		log.Printf("[EVENTS] outbox full, dropping %s", env.Kind)
	}
}

// Run publishes the outbox to Redis and relays the channel to the sink until
// ctx is done. It returns immediately when no Redis client is set.
func (b *Bus) Run(ctx context.Context) {
	if b.rdb == nil {
		log.Println("[EVENTS] Redis not configured; delivering events in-process")
		return
	}

	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()
	ch := pubsub.Channel()

	go b.publishLoop(ctx)
	log.Printf("[EVENTS] relaying %s", b.channel)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			env, err := Decode([]byte(msg.Payload))
			if err != nil {
				log.Printf("[EVENTS] invalid event payload: %v", err)
				continue
			}
			b.sink.Deliver(env)
		}
	}
}

func (b *Bus) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-b.outbox:
			if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
				log.Printf("[EVENTS] publish to %s failed: %v", b.channel, err)
			}
		}
	}
}

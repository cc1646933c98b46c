// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

// Package events provides the in-process event bus. Deletion outcomes and
// execution-pass summaries are published as JSON messages over Watermill's
// GoChannel pub/sub so subscribers (logging, future webhooks) stay decoupled
// from the executor.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
)

// Publisher is the producer-side surface. The executor and scheduler depend
// on this interface, not on the concrete bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// Bus wraps a GoChannel pub/sub. Messages are JSON-encoded and carry a UUID
// for traceability. Close is safe to call more than once.
type Bus struct {
	pubsub *gochannel.GoChannel

	mu     sync.RWMutex
	closed bool
}

// NewBus creates an in-process event bus. bufferSize bounds each
// subscriber's channel; publishes never block on slow subscribers because
// messages are not persisted.
func NewBus(bufferSize int64, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: bufferSize,
	}, logger)
	return &Bus{pubsub: pubsub}
}

// Publish JSON-encodes the event and sends it on the topic. Publishing on a
// closed bus is an error.
func (b *Bus) Publish(_ context.Context, topic string, event any) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("event bus is closed")
	}
	b.mu.RUnlock()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for topic %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish to topic %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns the raw message stream for a topic. Subscribers must ack
// every message.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the pub/sub down and releases all subscriber channels.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

// Decode unmarshals a message payload into the given event type.
func Decode[T any](msg *message.Message) (*T, error) {
	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return &event, nil
}

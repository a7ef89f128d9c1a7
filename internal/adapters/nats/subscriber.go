package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nereamendi/stormwatch/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

func (s *Subscriber) SubscribeWarnings(ctx context.Context, handler func(ctx context.Context, warning *domain.Warning) error) error {
	sub, err := s.js.Subscribe("storm.warnings.>", func(msg *nats.Msg) {
		var w domain.Warning
		if err := json.Unmarshal(msg.Data, &w); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &w); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("warning-notifier"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) SubscribeAdvisoryUpdates(ctx context.Context, handler func(ctx context.Context, advisory *domain.Advisory) error) error {
	sub, err := s.js.Subscribe("storm.advisories.>", func(msg *nats.Msg) {
		var adv domain.Advisory
		if err := json.Unmarshal(msg.Data, &adv); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &adv); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("advisory-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}

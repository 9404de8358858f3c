// Package messaging defines the broker interfaces used by the gateway's
// event ingestion, independent of the concrete broker.
package messaging

import (
	"context"
	"time"
)

// Message is a message received from or sent to a broker.
type Message struct {
	Subject string
	Data    []byte

	// Reply is set for request/reply style messages.
	Reply string

	// Metadata carries message headers.
	Metadata map[string]string

	Timestamp time.Time
}

// MessageHandler processes a received message. A returned error is logged
// by the client; core subscriptions do not redeliver.
type MessageHandler func(ctx context.Context, msg *Message) error

// Subscription is an active subscription.
type Subscription interface {
	Unsubscribe() error
	Subject() string
	IsValid() bool
}

// Publisher publishes messages to subjects.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	PublishMsg(ctx context.Context, msg *Message) error
	Close() error
}

// Subscriber subscribes to subjects.
type Subscriber interface {
	// Subscribe delivers every message to this subscriber (fan-out).
	Subscribe(subject string, handler MessageHandler) (Subscription, error)

	// QueueSubscribe load-balances messages across the queue group.
	QueueSubscribe(subject, queue string, handler MessageHandler) (Subscription, error)

	Close() error
}

// Client combines Publisher and Subscriber.
type Client interface {
	Publisher
	Subscriber

	// Drain closes the connection after in-flight messages complete.
	Drain() error

	IsConnected() bool
}

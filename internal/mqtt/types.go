// Package mqtt wraps the paho autopaho connection manager behind a small
// publish/subscribe interface with automatic re-subscription.
package mqtt

import (
	"context"
)

// MessageHandler processes one received message.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is a broker connection.
type Client interface {
	// Start connects in the background; it does not wait for the connection.
	Start(ctx context.Context) error

	Disconnect(ctx context.Context)

	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe registers handler for a topic filter. Subscriptions survive
	// reconnects. Handlers run sequentially in arrival order.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error

	AwaitConnection(ctx context.Context) error
}

package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Messenger is the outbound text-message capability the waitlist
// engine depends on. The transport's session management lives on the
// other side of the broker; sending is publish-and-forget with a
// delivery id for correlation.
type Messenger interface {
	Send(ctx context.Context, to, text string) (string, error)
}

// OutboundMessage is the payload published for the messaging gateway.
type OutboundMessage struct {
	ID   string `json:"id"`
	To   string `json:"to"`
	Text string `json:"text"`
}

// Package chat defines the transport contract between the marketplace core
// and a chat platform binding.
package chat

import (
	"context"
	"time"
)

// Adapter is the interface a platform binding must satisfy. It owns
// connection management, long polling and message delivery.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages from the platform.
	// The channel is closed when the context is cancelled or the adapter
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// AckCallback acknowledges an inline-button press, optionally with a
	// short toast text.
	AckCallback(ctx context.Context, callbackID, text string) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundMessage is one event received from the chat platform. Exactly one
// of Text, PhotoID or Callback carries the payload.
type InboundMessage struct {
	ActorID    int64     // externally issued numeric handle
	ChatID     int64     // where replies go
	Username   string    // platform handle, may be empty
	FullName   string    // display name
	Text       string    // message text or photo caption
	PhotoID    string    // opaque attachment reference, set for image messages
	Callback   string    // inline-action payload, e.g. "buy_42"
	CallbackID string    // platform id for acknowledging the callback
	Timestamp  time.Time // when the message was sent
}

// IsPhoto reports whether the message carries an image attachment.
func (m InboundMessage) IsPhoto() bool { return m.PhotoID != "" }

// OutboundMessage is a message to deliver to the platform.
type OutboundMessage struct {
	ChatID        int64
	Text          string        // message text, or caption when PhotoID is set
	PhotoID       string        // send as photo by attachment reference
	Choices       [][]string    // reply-keyboard rows of button labels
	RemoveChoices bool          // clear any reply keyboard
	Action        *InlineAction // single inline trigger button
}

// InlineAction is an inline button bound to an opaque payload.
type InlineAction struct {
	Label string
	Data  string
}

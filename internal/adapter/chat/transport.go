// Package chat provides an abstraction for messaging-platform transports.
// The relay never implements a platform protocol itself; it reacts to
// transport events and calls the operations declared here.
package chat

import "context"

// EventSink receives transport lifecycle and message events. Implementations
// must return quickly; long work is enqueued, not done inline.
type EventSink interface {
	// PairingReady reports the out-of-band pairing payload (e.g. the string
	// a QR code is rendered from).
	PairingReady(payload string)

	// ConnectionReady reports that the messaging account is linked.
	ConnectionReady()

	// Disconnected reports that the transport dropped for good.
	Disconnected()

	// MessageReceived reports one inbound message.
	MessageReceived(senderID, text string, isGroup bool)
}

// Transport is one session's connection to a messaging platform.
type Transport interface {
	// Initialize starts the connection attempt. It blocks until the
	// transport shuts down or ctx is cancelled; callers run it in a
	// goroutine. Events are delivered to the sink bound at construction.
	Initialize(ctx context.Context) error

	// Send delivers text to the recipient.
	Send(ctx context.Context, recipientID, text string) error

	// Close releases the transport. Safe to call more than once.
	Close() error
}

// Factory constructs the transport for a new session. The registry owns at
// most one transport per session id.
type Factory func(sessionID string, sink EventSink) Transport

package chat

import (
	"context"
	"sync"
)

// MockTransport is an in-memory Transport for tests and for running the
// relay without a bridge process. Tests drive events through the Emit
// methods and inspect outbound messages through Sent.
type MockTransport struct {
	sessionID string
	sink      EventSink

	mu     sync.Mutex
	sent   []SentMessage
	closed bool
	done   chan struct{}
}

// SentMessage records one outbound send.
type SentMessage struct {
	RecipientID string
	Text        string
}

// Ensure MockTransport implements Transport.
var _ Transport = (*MockTransport)(nil)

// NewMockTransport creates a mock transport bound to the sink.
func NewMockTransport(sessionID string, sink EventSink) *MockTransport {
	return &MockTransport{
		sessionID: sessionID,
		sink:      sink,
		done:      make(chan struct{}),
	}
}

// MockFactory is a Factory producing MockTransports. The most recently
// created transport per session is retrievable via Get.
type MockFactory struct {
	mu         sync.Mutex
	transports map[string]*MockTransport
}

// NewMockFactory creates a MockFactory.
func NewMockFactory() *MockFactory {
	return &MockFactory{transports: make(map[string]*MockTransport)}
}

// New implements Factory.
func (f *MockFactory) New(sessionID string, sink EventSink) Transport {
	t := NewMockTransport(sessionID, sink)
	f.mu.Lock()
	f.transports[sessionID] = t
	f.mu.Unlock()
	return t
}

// Get returns the transport created for the session, if any.
func (f *MockFactory) Get(sessionID string) (*MockTransport, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.transports[sessionID]
	return t, ok
}

// Initialize blocks until Close or ctx cancellation.
func (t *MockTransport) Initialize(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return nil
	}
}

// Send records the outbound message.
func (t *MockTransport) Send(_ context.Context, recipientID, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, SentMessage{RecipientID: recipientID, Text: text})
	return nil
}

// Close releases the transport.
func (t *MockTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.done)
	}
	return nil
}

// Closed reports whether Close was called.
func (t *MockTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Sent returns a copy of all recorded sends.
func (t *MockTransport) Sent() []SentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SentMessage, len(t.sent))
	copy(out, t.sent)
	return out
}

// EmitPairing delivers a pairingReady event to the sink.
func (t *MockTransport) EmitPairing(payload string) { t.sink.PairingReady(payload) }

// EmitReady delivers a connectionReady event to the sink.
func (t *MockTransport) EmitReady() { t.sink.ConnectionReady() }

// EmitDisconnected delivers a disconnected event to the sink.
func (t *MockTransport) EmitDisconnected() { t.sink.Disconnected() }

// EmitMessage delivers an inbound message event to the sink.
func (t *MockTransport) EmitMessage(senderID, text string, isGroup bool) {
	t.sink.MessageReceived(senderID, text, isGroup)
}

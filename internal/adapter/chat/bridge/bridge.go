// Package bridge implements the chat transport against an external
// browser-automation bridge over WebSocket. The bridge process owns the
// messaging-platform protocol and pairing UI; this adapter only exchanges
// event and send frames with it.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xenolt/chatrelay/internal/adapter/chat"
	"github.com/xenolt/chatrelay/internal/domain"
)

// Frame types from bridge to relay.
const (
	TypePairing      = "pairing"
	TypeReady        = "ready"
	TypeDisconnected = "disconnected"
	TypeMessage      = "message"
)

// Frame types from relay to bridge.
const (
	TypeSend = "send"
)

// Frame is one WebSocket message in either direction.
type Frame struct {
	Type        string `json:"type"`
	Ts          int64  `json:"ts"`
	SessionID   string `json:"session_id,omitempty"`
	Payload     string `json:"payload,omitempty"`
	SenderID    string `json:"sender_id,omitempty"`
	RecipientID string `json:"recipient_id,omitempty"`
	Text        string `json:"text,omitempty"`
	IsGroup     bool   `json:"is_group,omitempty"`
}

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	readTimeout  = 90 * time.Second
)

// Transport speaks the bridge frame protocol for one session.
type Transport struct {
	baseURL   string
	sessionID string
	sink      chat.EventSink
	logger    *zap.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn

	closeOnce sync.Once
	done      chan struct{}
}

// Ensure Transport implements chat.Transport.
var _ chat.Transport = (*Transport)(nil)

// NewFactory returns a chat.Factory dialing the bridge at baseURL.
func NewFactory(baseURL string, logger *zap.Logger) chat.Factory {
	return func(sessionID string, sink chat.EventSink) chat.Transport {
		return &Transport{
			baseURL:   baseURL,
			sessionID: sessionID,
			sink:      sink,
			logger:    logger.With(zap.String("session_id", sessionID)),
			done:      make(chan struct{}),
		}
	}
}

// Initialize dials the bridge and pumps events to the sink until the
// connection drops, Close is called, or ctx is cancelled. A read failure is
// reported to the sink as a disconnect.
func (t *Transport) Initialize(ctx context.Context) error {
	endpoint, err := url.JoinPath(t.baseURL, "ws", t.sessionID)
	if err != nil {
		return &domain.TransportError{Op: "initialize", Err: err}
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		t.sink.Disconnected()
		return &domain.TransportError{Op: "initialize", Err: err}
	}

	t.writeMu.Lock()
	t.conn = conn
	t.writeMu.Unlock()

	go t.pingLoop()
	go func() {
		select {
		case <-ctx.Done():
			_ = t.Close()
		case <-t.done:
		}
	}()

	t.readPump(conn)
	return nil
}

// readPump decodes frames and dispatches them to the sink.
func (t *Transport) readPump(conn *websocket.Conn) {
	defer func() {
		_ = t.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.logger.Warn("bridge read failed", zap.Error(err))
			}
			t.sink.Disconnected()
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			t.logger.Warn("dropping malformed bridge frame", zap.Error(err))
			continue
		}

		switch frame.Type {
		case TypePairing:
			t.sink.PairingReady(frame.Payload)
		case TypeReady:
			t.sink.ConnectionReady()
		case TypeDisconnected:
			t.sink.Disconnected()
			return
		case TypeMessage:
			t.sink.MessageReceived(frame.SenderID, frame.Text, frame.IsGroup)
		default:
			t.logger.Warn("unknown bridge frame type", zap.String("type", frame.Type))
		}
	}
}

func (t *Transport) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.writeMu.Lock()
			conn := t.conn
			if conn != nil {
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					t.writeMu.Unlock()
					_ = t.Close()
					return
				}
			}
			t.writeMu.Unlock()
		}
	}
}

// Send writes a send frame for the recipient.
func (t *Transport) Send(ctx context.Context, recipientID, text string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.conn == nil {
		return &domain.TransportError{Op: "send", Err: fmt.Errorf("not connected")}
	}
	if err := ctx.Err(); err != nil {
		return &domain.TransportError{Op: "send", Err: err}
	}

	frame := Frame{
		Type:        TypeSend,
		Ts:          time.Now().UnixMilli(),
		SessionID:   t.sessionID,
		RecipientID: recipientID,
		Text:        text,
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := t.conn.WriteJSON(frame); err != nil {
		return &domain.TransportError{Op: "send", Err: err}
	}
	return nil
}

// Close tears down the connection. Safe to call more than once.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.writeMu.Lock()
		if t.conn != nil {
			_ = t.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = t.conn.Close()
		}
		t.writeMu.Unlock()
	})
	return nil
}

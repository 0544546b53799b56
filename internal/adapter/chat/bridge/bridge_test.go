package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingSink collects sink callbacks for assertions.
type recordingSink struct {
	mu           sync.Mutex
	pairing      []string
	ready        int
	disconnected int
	messages     []receivedMessage
}

type receivedMessage struct {
	senderID string
	text     string
	isGroup  bool
}

func (s *recordingSink) PairingReady(payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairing = append(s.pairing, payload)
}

func (s *recordingSink) ConnectionReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready++
}

func (s *recordingSink) Disconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnected++
}

func (s *recordingSink) MessageReceived(senderID, text string, isGroup bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, receivedMessage{senderID: senderID, text: text, isGroup: isGroup})
}

func (s *recordingSink) snapshot() (pairing []string, ready, disconnected int, messages []receivedMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pairing...), s.ready, s.disconnected, append([]receivedMessage(nil), s.messages...)
}

type bridgeServer struct {
	*httptest.Server
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns []*websocket.Conn
	sent  []Frame
}

func newBridgeServer(t *testing.T) *bridgeServer {
	t.Helper()
	bs := &bridgeServer{}
	bs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/ws/") {
			http.NotFound(w, r)
			return
		}
		conn, err := bs.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		bs.mu.Lock()
		bs.conns = append(bs.conns, conn)
		bs.mu.Unlock()

		for {
			var frame Frame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			bs.mu.Lock()
			bs.sent = append(bs.sent, frame)
			bs.mu.Unlock()
		}
	}))
	t.Cleanup(bs.Close)
	return bs
}

func (bs *bridgeServer) wsURL() string {
	return "ws" + strings.TrimPrefix(bs.URL, "http")
}

func (bs *bridgeServer) conn(t *testing.T) *websocket.Conn {
	t.Helper()
	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		bs.mu.Lock()
		defer bs.mu.Unlock()
		if len(bs.conns) > 0 {
			conn = bs.conns[0]
			return true
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	return conn
}

func (bs *bridgeServer) push(t *testing.T, frame Frame) {
	t.Helper()
	conn := bs.conn(t)
	data, err := json.Marshal(frame)
	require.NoError(t, err)
	bs.mu.Lock()
	defer bs.mu.Unlock()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func (bs *bridgeServer) received() []Frame {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return append([]Frame(nil), bs.sent...)
}

func TestBridgeDispatchesEvents(t *testing.T) {
	server := newBridgeServer(t)
	sink := &recordingSink{}

	factory := NewFactory(server.wsURL(), zap.NewNop())
	tr := factory("s1", sink)
	t.Cleanup(func() { _ = tr.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tr.Initialize(ctx) }()

	server.push(t, Frame{Type: TypePairing, Payload: "pairing-payload"})
	server.push(t, Frame{Type: TypeReady})
	server.push(t, Frame{Type: TypeMessage, SenderID: "u1", Text: "hi", IsGroup: false})

	require.Eventually(t, func() bool {
		pairing, ready, _, messages := sink.snapshot()
		return len(pairing) == 1 && ready == 1 && len(messages) == 1
	}, 2*time.Second, 10*time.Millisecond)

	pairing, _, _, messages := sink.snapshot()
	require.Equal(t, "pairing-payload", pairing[0])
	require.Equal(t, receivedMessage{senderID: "u1", text: "hi"}, messages[0])
}

func TestBridgeSendWritesFrame(t *testing.T) {
	server := newBridgeServer(t)
	sink := &recordingSink{}

	factory := NewFactory(server.wsURL(), zap.NewNop())
	tr := factory("s1", sink)
	t.Cleanup(func() { _ = tr.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tr.Initialize(ctx) }()

	server.conn(t) // wait for the dial

	require.NoError(t, tr.Send(context.Background(), "u1", "hello"))

	require.Eventually(t, func() bool { return len(server.received()) == 1 }, 2*time.Second, 10*time.Millisecond)
	frame := server.received()[0]
	require.Equal(t, TypeSend, frame.Type)
	require.Equal(t, "s1", frame.SessionID)
	require.Equal(t, "u1", frame.RecipientID)
	require.Equal(t, "hello", frame.Text)
}

func TestBridgeDisconnectFrameReportsDisconnect(t *testing.T) {
	server := newBridgeServer(t)
	sink := &recordingSink{}

	factory := NewFactory(server.wsURL(), zap.NewNop())
	tr := factory("s1", sink)
	t.Cleanup(func() { _ = tr.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tr.Initialize(ctx) }()

	server.push(t, Frame{Type: TypeDisconnected})

	require.Eventually(t, func() bool {
		_, _, disconnected, _ := sink.snapshot()
		return disconnected == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBridgeDialFailureReportsDisconnect(t *testing.T) {
	sink := &recordingSink{}
	factory := NewFactory("ws://127.0.0.1:1", zap.NewNop())
	tr := factory("s1", sink)

	err := tr.Initialize(context.Background())
	require.Error(t, err)

	_, _, disconnected, _ := sink.snapshot()
	require.Equal(t, 1, disconnected)
}

func TestBridgeSendBeforeConnectFails(t *testing.T) {
	sink := &recordingSink{}
	factory := NewFactory("ws://127.0.0.1:1", zap.NewNop())
	tr := factory("s1", sink)

	require.Error(t, tr.Send(context.Background(), "u1", "hello"))
}

package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentscout/backend/internal/shared/id"
)

const testCookie = "session"

// cookieIdentifier treats the session cookie value as the user id.
func cookieIdentifier(r *http.Request) (string, bool) {
	c, err := r.Cookie(testCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func startServer(t *testing.T, reg *Registry) string {
	t.Helper()
	srv := httptest.NewServer(NewUpgradeRouter("/websocket", reg, http.NotFoundHandler(), nil))
	t.Cleanup(func() {
		reg.Close()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/websocket"
}

// dial connects as userID ("" for anonymous) and consumes the welcome frame.
func dial(t *testing.T, url, userID string) (*websocket.Conn, id.ConnectionID) {
	t.Helper()
	header := http.Header{}
	if userID != "" {
		header.Set("Cookie", testCookie+"="+userID)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	welcome := readMessage(t, conn)
	require.Equal(t, TypeConnectionEstablished, welcome.MessageType)
	connID, _ := welcome.Data["connectionId"].(string)
	require.NotEmpty(t, connID)
	return conn, id.ConnectionID(connID)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// expectSilence fails if a frame arrives within the window. The connection
// is unusable for reads afterwards.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, data, err := conn.ReadMessage()
	assert.Error(t, err, "unexpected frame: %s", data)
}

func waitForCount(t *testing.T, reg *Registry, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return reg.Count() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastReachesOnlyTargetUsers(t *testing.T) {
	reg := New(WithIdentifier(cookieIdentifier))
	url := startServer(t, reg)

	tab1, _ := dial(t, url, "u1")
	tab2, _ := dial(t, url, "u1")
	other, _ := dial(t, url, "u2")
	anon, _ := dial(t, url, "")
	waitForCount(t, reg, 4)

	msg := Message{MessageType: "job-1.messageChunk", Data: map[string]any{"chunk": "hi"}}
	delivered := reg.BroadcastToUsers(context.Background(), []string{"u1"}, msg)
	assert.Equal(t, 2, delivered)

	for _, conn := range []*websocket.Conn{tab1, tab2} {
		got := readMessage(t, conn)
		assert.Equal(t, "job-1.messageChunk", got.MessageType)
		assert.Equal(t, "hi", got.Data["chunk"])
	}
	expectSilence(t, other)
	expectSilence(t, anon)
}

func TestBroadcastWithoutRecipients(t *testing.T) {
	reg := New(WithIdentifier(cookieIdentifier))
	url := startServer(t, reg)
	conn, _ := dial(t, url, "u1")
	waitForCount(t, reg, 1)

	msg := Message{MessageType: "noop"}
	assert.Equal(t, 0, reg.BroadcastToUsers(context.Background(), nil, msg))
	assert.Equal(t, 0, reg.BroadcastToUsers(context.Background(), []string{}, msg))
	assert.Equal(t, 0, reg.BroadcastToUsers(context.Background(), []string{"nobody"}, msg))
	assert.Equal(t, 0, reg.BroadcastToUsers(context.Background(), []string{""}, msg))

	expectSilence(t, conn)
}

func TestBroadcastPreservesOrder(t *testing.T) {
	reg := New(WithIdentifier(cookieIdentifier))
	url := startServer(t, reg)
	conn, _ := dial(t, url, "u1")
	waitForCount(t, reg, 1)

	types := []string{"j.messageStarted", "j.messageChunk", "j.messageChunk", "j.messageComplete"}
	for i, typ := range types {
		reg.BroadcastToUsers(context.Background(), []string{"u1"}, Message{
			MessageType: typ,
			Data:        map[string]any{"seq": i},
		})
	}

	for i, typ := range types {
		got := readMessage(t, conn)
		assert.Equal(t, typ, got.MessageType)
		assert.EqualValues(t, i, got.Data["seq"])
	}
}

func TestClosedConnectionIsRemoved(t *testing.T) {
	reg := New(WithIdentifier(cookieIdentifier))
	url := startServer(t, reg)

	conn, connID := dial(t, url, "u1")
	waitForCount(t, reg, 1)
	require.Len(t, reg.ConnectionInfo("u1"), 1)

	require.NoError(t, conn.Close())
	waitForCount(t, reg, 0)

	assert.Empty(t, reg.ConnectionInfo("u1"))
	assert.Empty(t, reg.ActiveConnections("u1"))
	assert.Equal(t, 0, reg.BroadcastToUsers(context.Background(), []string{"u1"}, Message{MessageType: "late"}))
	assert.ErrorIs(t, reg.Tag(connID, "u1"), ErrConnectionNotFound)
}

func TestTag(t *testing.T) {
	reg := New(WithIdentifier(cookieIdentifier))
	url := startServer(t, reg)

	conn, connID := dial(t, url, "")
	waitForCount(t, reg, 1)
	assert.Empty(t, reg.ConnectionInfo("u1"))

	require.NoError(t, reg.Tag(connID, "u1"))
	assert.NoError(t, reg.Tag(connID, "u1"), "same user again is a no-op")
	assert.ErrorIs(t, reg.Tag(connID, "u2"), ErrAlreadyTagged)
	assert.ErrorIs(t, reg.Tag(connID, ""), ErrEmptyUserID)
	assert.ErrorIs(t, reg.Tag(id.NewConnectionID(), "u1"), ErrConnectionNotFound)

	assert.Equal(t, 1, reg.BroadcastToUsers(context.Background(), []string{"u1"}, Message{MessageType: "after.tag"}))
	assert.Equal(t, "after.tag", readMessage(t, conn).MessageType)
}

func TestConnectionInfo(t *testing.T) {
	reg := New(WithIdentifier(cookieIdentifier))
	url := startServer(t, reg)

	before := time.Now()
	conn, connID := dial(t, url, "u1")
	waitForCount(t, reg, 1)

	infos := reg.ConnectionInfo("u1")
	require.Len(t, infos, 1)
	info := infos[0]
	assert.Equal(t, connID, info.ID)
	assert.Equal(t, "u1", info.UserID)
	assert.False(t, info.ConnectedAt.Before(before.Add(-time.Second)))

	// Inbound frames refresh the activity timestamp.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"messageType":"ping"}`)))
	require.Eventually(t, func() bool {
		infos := reg.ConnectionInfo("u1")
		return len(infos) == 1 && infos[0].LastActivity.After(info.LastActivity)
	}, 2*time.Second, 10*time.Millisecond)

	active := reg.ActiveConnections("u1")
	require.Len(t, active, 1)
	assert.Equal(t, connID, active[0].ID())
	assert.True(t, active[0].Open())
}

func TestSlowConsumerDoesNotBlockBroadcast(t *testing.T) {
	reg := New(
		WithIdentifier(cookieIdentifier),
		WithSettings(Settings{SendBuffer: 1, WriteTimeout: 10 * time.Second}),
	)
	url := startServer(t, reg)
	// The peer never reads, so the write pump stalls once the socket
	// buffers fill up.
	dial(t, url, "u1")
	waitForCount(t, reg, 1)

	blob := strings.Repeat("x", 8<<20)
	start := time.Now()
	delivered := 1
	for i := 0; i < 8 && delivered > 0; i++ {
		delivered = reg.BroadcastToUsers(context.Background(), []string{"u1"}, Message{
			MessageType: "j.messageChunk",
			Data:        map[string]any{"blob": blob},
		})
	}
	elapsed := time.Since(start)

	assert.Zero(t, delivered, "the stalled connection should have been dropped")
	assert.Less(t, elapsed, 900*time.Millisecond)
	assert.Empty(t, reg.ActiveConnections("u1"))
	waitForCount(t, reg, 0)
}

func TestRegistryCloseDisconnectsClients(t *testing.T) {
	reg := New(WithIdentifier(cookieIdentifier))
	url := startServer(t, reg)
	conn, _ := dial(t, url, "u1")
	waitForCount(t, reg, 1)

	reg.Close()
	waitForCount(t, reg, 0)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// Handshakes after Close are not registered.
	_, _, err = websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		assert.Equal(t, 0, reg.Count())
	}
}

// memBus is an in-process Bus shared by several registries.
type memBus struct {
	mu   sync.Mutex
	subs []chan Envelope
}

func (b *memBus) Publish(_ context.Context, env Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		ch <- env
	}
	return nil
}

func (b *memBus) Subscribe(ctx context.Context, handler func(Envelope)) error {
	ch := make(chan Envelope, 64)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-ch:
			handler(env)
		}
	}
}

func (b *memBus) Close() error { return nil }

func (b *memBus) subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func TestBusFanOutAcrossRegistries(t *testing.T) {
	bus := &memBus{}
	regA := New(WithIdentifier(cookieIdentifier), WithBus(bus))
	regB := New(WithIdentifier(cookieIdentifier), WithBus(bus))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go regA.Run(ctx)
	go regB.Run(ctx)
	require.Eventually(t, func() bool { return bus.subscribers() == 2 }, time.Second, 5*time.Millisecond)

	urlA := startServer(t, regA)
	conn, _ := dial(t, urlA, "u1")
	waitForCount(t, regA, 1)

	// regB has no local sockets for u1; delivery happens through regA.
	assert.Equal(t, 0, regB.BroadcastToUsers(context.Background(), []string{"u1"}, Message{MessageType: "from.b"}))
	assert.Equal(t, "from.b", readMessage(t, conn).MessageType)

	// regA ignores the echo of its own publish.
	assert.Equal(t, 1, regA.BroadcastToUsers(context.Background(), []string{"u1"}, Message{MessageType: "from.a"}))
	assert.Equal(t, "from.a", readMessage(t, conn).MessageType)
	expectSilence(t, conn)
}

func TestRunWithoutBusReturnsOnCancel(t *testing.T) {
	reg := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

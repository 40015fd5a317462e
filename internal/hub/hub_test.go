package hub_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/daxtonb/jtac-bridge/internal/hub"
	"github.com/daxtonb/jtac-bridge/internal/metrics"
)

// testHub builds a Hub served over an httptest server and returns a
// websocket dial function for it, along with teardown.
func testHub(t *testing.T, opts ...hub.Option) (*hub.Hub, func() *websocket.Conn, func()) {
	t.Helper()

	m := metrics.New(prometheus.NewRegistry())
	h := hub.New("", zerolog.Nop(), m, 1024, opts...)

	srv := httptest.NewServer(h.Handler())
	dial := func() *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		return conn
	}

	return h, dial, srv.Close
}

func TestSubscribeThenBroadcastS4(t *testing.T) {
	h, dial, teardown := testHub(t)
	defer teardown()

	conn := dial()
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("SUBSCRIBE\x00UNITS")))
	time.Sleep(100 * time.Millisecond)

	h.Broadcast("UNITS", "X")

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "X", string(data))
}

func TestUnsubscribedTopicNotDeliveredS5(t *testing.T) {
	h, dial, teardown := testHub(t)
	defer teardown()

	conn := dial()
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("SUBSCRIBE\x00TOPIC1")))
	time.Sleep(100 * time.Millisecond)

	h.Broadcast("TOPIC2", "should not arrive")

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	require.Error(t, err) // expect a read timeout; no frame was delivered
}

func TestClientDisconnectCleansUpS6(t *testing.T) {
	h, dial, teardown := testHub(t)
	defer teardown()

	conn := dial()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, h.ClientCount())

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return h.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClientToHostCustomMessageS7(t *testing.T) {
	var (
		mu        sync.Mutex
		gotTopic  string
		gotBody   string
		callCount int
	)

	h, dial, teardown := testHub(t, hub.WithMessageCallback(func(clientID uint32, topic, body string) {
		mu.Lock()
		defer mu.Unlock()
		gotTopic = topic
		gotBody = body
		callCount++
	}))
	defer teardown()
	_ = h

	conn := dial()
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("SOME_TOPIC\x00Hello, host!")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return callCount == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "SOME_TOPIC", gotTopic)
	require.Equal(t, "Hello, host!", gotBody)
	require.Equal(t, 1, callCount)
}

func TestClientIDsMonotonicallyIncreasing(t *testing.T) {
	var (
		mu  sync.Mutex
		ids []uint32
	)

	_, dial, teardown := testHub(t, hub.WithMessageCallback(func(clientID uint32, topic, body string) {
		mu.Lock()
		defer mu.Unlock()
		ids = append(ids, clientID)
	}))
	defer teardown()

	for i := 0; i < 3; i++ {
		conn := dial()
		defer conn.Close()
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("PING\x00hi")))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ids) == 3
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(ids); i++ {
		require.Greater(t, ids[i], ids[i-1])
	}
}

func TestRunBindsAndShutsDownOnContextCancel(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := hub.New("127.0.0.1:0", zerolog.Nop(), m, 16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not shut down after context cancellation")
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ptanalysis/internal/infrastructure"
	"ptanalysis/internal/shared/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newHub(t *testing.T) *Hub {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewHub(nil, logger)
	h.Start()
	t.Cleanup(h.Stop)
	return h
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestServeSendsConnectionMessage(t *testing.T) {
	hub := newHub(t)
	conn := newFakeConn()
	client := Serve(hub, conn, Options{TraceID: "trace-1"}, nil)

	require.Eventually(t, func() bool { return len(conn.texts()) == 1 }, time.Second, 5*time.Millisecond)
	msg := decode(t, conn.texts()[0])
	assert.Equal(t, TypeConnection, msg["type"])
	data := msg["data"].(map[string]any)
	assert.Equal(t, "connected", data["status"])
	assert.Equal(t, client.ID(), data["client_id"])
	assert.Equal(t, 1, hub.ClientCount())
}

func TestBroadcastDataUpdate(t *testing.T) {
	hub := newHub(t)
	conns := []*fakeConn{newFakeConn(), newFakeConn()}
	for _, c := range conns {
		Serve(hub, c, Options{}, nil)
	}
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	ctx := infrastructure.WithTraceID(context.Background(), "watch-42")
	hub.BroadcastDataUpdate(ctx, DataUpdate{
		Reason:  "file_changed",
		Sources: []string{"usage"},
		Pages:   []string{"frequency"},
	})

	for _, c := range conns {
		require.Eventually(t, func() bool { return len(c.texts()) == 2 }, time.Second, 5*time.Millisecond)
		msg := decode(t, c.texts()[1])
		assert.Equal(t, TypeDataUpdate, msg["type"])
		assert.Equal(t, "watch-42", msg["trace_id"])
		data := msg["data"].(map[string]any)
		assert.Equal(t, []any{"frequency"}, data["pages"])
		assert.Equal(t, "file_changed", data["reason"])
	}

	stats := hub.Stats()
	assert.EqualValues(t, 2, stats.TotalConnections)
	assert.EqualValues(t, 2, stats.MessagesSent)
}

func TestPeerDisconnectUnregisters(t *testing.T) {
	hub := newHub(t)
	conn := newFakeConn()
	Serve(hub, conn, Options{}, nil)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSlowClientIsDisconnected(t *testing.T) {
	hub := newHub(t)
	client := NewClient(hub, newFakeConn(), Options{}, nil)
	hub.Register(client)
	require.Eventually(t, func() bool { return len(client.send) == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i < sendBuffer+1; i++ {
		hub.Broadcast(context.Background(), TypeDataUpdate, i)
	}

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	n := 0
	for range client.send {
		n++
	}
	assert.Equal(t, sendBuffer, n)
}

func TestStopClosesClientsAndIsIdempotent(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(nil, logger)
	hub.Start()

	conn := newFakeConn()
	Serve(hub, conn, Options{}, nil)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Stop()
	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())
	assert.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)

	late := NewClient(hub, newFakeConn(), Options{}, nil)
	hub.Register(late)
	_, open := <-late.send
	assert.False(t, open)

	hub.Broadcast(context.Background(), TypeDataUpdate, nil)
}

func TestStopBeforeStart(t *testing.T) {
	hub := NewHub(nil, nil)
	hub.Stop()
	hub.Start()
	assert.Equal(t, 0, hub.ClientCount())
}

func TestNewClientKeepaliveDefaults(t *testing.T) {
	c := NewClient(NewHub(nil, nil), newFakeConn(), Options{PingPeriod: time.Minute, PongWait: 30 * time.Second}, nil)
	assert.Equal(t, 30*time.Second, c.opts.PongWait)
	assert.Equal(t, 27*time.Second, c.opts.PingPeriod)
	assert.Equal(t, "127.0.0.1:50000", c.remoteAddr)
	assert.NotEmpty(t, c.ID())
}

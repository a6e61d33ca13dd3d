package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveWS upgrades one connection, registers it and hands it to the test.
func serveWS(t *testing.T, r *Registry, cfg WSConfig) (*websocket.Conn, <-chan *WSConn) {
	t.Helper()
	got := make(chan *WSConn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		c := NewWSConn(ws, cfg)
		r.Connect(c, nil)
		got <- c
		c.ReadLoop()
		r.Disconnect(c)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, got
}

func TestWSConn_DeliversBroadcast(t *testing.T) {
	r := NewRegistry()
	client, got := serveWS(t, r, DefaultWSConfig())
	<-got

	assert.Equal(t, 1, r.Broadcast(context.Background(), []byte(`{"type":"new_articles","count":2}`)))

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"new_articles","count":2}`, string(msg))
}

func TestWSConn_ClientGoneIsDisconnected(t *testing.T) {
	r := NewRegistry()
	client, got := serveWS(t, r, DefaultWSConfig())
	conn := <-got
	require.Equal(t, 1, r.Count())

	_ = client.Close()

	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not shut down after client left")
	}
	assert.Eventually(t, func() bool { return r.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, conn.Send(context.Background(), []byte("late")), ErrConnClosed)
}

func TestWSConn_SlowConsumer(t *testing.T) {
	r := NewRegistry()
	cfg := DefaultWSConfig()
	cfg.SendBuffer = 1
	_, got := serveWS(t, r, cfg)
	conn := <-got

	// Fill the buffer faster than the writer can possibly drain it.
	var slow bool
	for i := 0; i < 10000 && !slow; i++ {
		slow = conn.Send(context.Background(), []byte(strings.Repeat("x", 1<<10))) == ErrSlowConsumer
	}
	assert.True(t, slow)
}

func TestWSConn_IDUnique(t *testing.T) {
	r := NewRegistry()
	_, got1 := serveWS(t, r, DefaultWSConfig())
	_, got2 := serveWS(t, r, DefaultWSConfig())
	assert.NotEqual(t, (<-got1).ID(), (<-got2).ID())
}

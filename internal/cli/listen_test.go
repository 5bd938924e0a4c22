package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lydakis/sitectl/internal/config"
	"github.com/lydakis/sitectl/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestParseListenArgs(t *testing.T) {
	parsed, err := parseListenArgs([]string{"wss://example.com/events", "tool.created", "--emit", `subscribe={"room":"tools"}`, "--emit=ping"})
	require.NoError(t, err)
	assert.Equal(t, "wss://example.com/events", parsed.url)
	assert.Equal(t, []string{"tool.created"}, parsed.events)
	require.Len(t, parsed.emits, 2)
	assert.Equal(t, "subscribe", parsed.emits[0].Event)
	assert.JSONEq(t, `{"room":"tools"}`, string(parsed.emits[0].Data))
	assert.Equal(t, "ping", parsed.emits[1].Event)
	assert.Empty(t, parsed.emits[1].Data)

	parsed, err = parseListenArgs([]string{"tool.created", "tool.deleted"})
	require.NoError(t, err)
	assert.Empty(t, parsed.url)
	assert.Equal(t, []string{"tool.created", "tool.deleted"}, parsed.events)
}

func TestParseListenArgsRejectsBadInput(t *testing.T) {
	for _, args := range [][]string{
		{"--emit"},
		{"--emit", "=x"},
		{"--emit", "subscribe={not json"},
		{"-x"},
	} {
		_, err := parseListenArgs(args)
		assert.Error(t, err, "args %q", args)
	}
}

func TestRunListenRequiresURL(t *testing.T) {
	var out, errOut bytes.Buffer
	code := runListen(context.Background(), config.Default(), zap.NewNop(), []string{"tool.created"}, &out, &errOut)
	assert.Equal(t, ExitUsageErr, code)
	assert.Contains(t, errOut.String(), "no event channel url")
}

func TestRunListenRejectsNonWebsocketURL(t *testing.T) {
	var out, errOut bytes.Buffer
	code := runListen(context.Background(), config.Default(), zap.NewNop(), []string{"https://example.com/events"}, &out, &errOut)
	assert.Equal(t, ExitUsageErr, code)
	assert.Contains(t, errOut.String(), "must use ws or wss")
}

func TestRunListenPrintsRequestedEvents(t *testing.T) {
	subscribed := make(chan realtime.Envelope, 1)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close() //nolint:errcheck

		var env realtime.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		subscribed <- env
		_ = conn.WriteJSON(realtime.Envelope{Event: "ignored", Data: json.RawMessage(`1`)})
		_ = conn.WriteJSON(realtime.Envelope{Event: "tool.created", Data: json.RawMessage(`{"id":7}`)})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Realtime.URL = "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &syncBuffer{}
	var errOut bytes.Buffer
	done := make(chan int, 1)
	go func() {
		done <- runListen(ctx, cfg, zap.NewNop(), []string{"tool.created", "--emit", `subscribe={"room":"tools"}`}, out, &errOut)
	}()

	select {
	case env := <-subscribed:
		assert.Equal(t, "subscribe", env.Event)
		assert.JSONEq(t, `{"room":"tools"}`, string(env.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the subscribe message")
	}

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "tool.created")
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, ExitOK, code)
	case <-time.After(2 * time.Second):
		t.Fatal("listen did not stop after cancellation")
	}
	assert.Equal(t, `{"event":"tool.created","data":{"id":7}}`+"\n", out.String())
}

func TestRunListenExitsWhenReconnectsAreExhausted(t *testing.T) {
	cfg := config.Default()
	cfg.Realtime.ReconnectDelay = "1ms"
	cfg.Realtime.MaxReconnectAttempts = 1

	var out, errOut bytes.Buffer
	code := runListen(context.Background(), cfg, zap.NewNop(), []string{"ws://127.0.0.1:1/events"}, &out, &errOut)
	assert.Equal(t, ExitRemoteErr, code)
	assert.Contains(t, errOut.String(), "lost connection")
}

func TestHandshakeHeaderDropsRequestOnlyHeaders(t *testing.T) {
	h := handshakeHeader(map[string]string{
		"Authorization":    "Bearer t",
		"content-type":     "application/json",
		"X-Requested-With": "XMLHttpRequest",
	})
	assert.Equal(t, "Bearer t", h.Get("Authorization"))
	assert.Empty(t, h.Get("Content-Type"))
	assert.Empty(t, h.Get("X-Requested-With"))
}

package events

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(quietLogger())
	hub.Start()
	defer hub.Stop()

	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(Event{Type: TypeSyncCompleted, Data: map[string]int{"tasks": 2}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, TypeSyncCompleted, got.Type)
	assert.False(t, got.Timestamp.IsZero())

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubChecksOrigin(t *testing.T) {
	hub := NewHub(quietLogger(), "http://localhost:5173")
	hub.Start()
	defer hub.Stop()

	srv := httptest.NewServer(hub)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	t.Run("foreign origin is refused", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("allowed origin connects", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://localhost:5173"}})
		require.NoError(t, err)
		conn.Close()
	})
}

func TestPublishDoesNotBlock(t *testing.T) {
	// loop not started: the queue fills and further events are dropped
	hub := NewHub(quietLogger())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(Event{Type: TypeReminderSent})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.Publish(Event{Type: TypeLocationSaved})

	ev, ok := rec.Next(time.Second)
	require.True(t, ok)
	assert.Equal(t, TypeLocationSaved, ev.Type)
	assert.Len(t, rec.Events(), 1)

	_, ok = rec.Next(10 * time.Millisecond)
	assert.False(t, ok)
}

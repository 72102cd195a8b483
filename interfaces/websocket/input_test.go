package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domaincfg "canvas-engine/domain/config"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/engine/session"
	"canvas-engine/infrastructure/persistence/memory"
)

func startSessionHub(t *testing.T) (*session.Session, *httptest.Server) {
	t.Helper()

	backend := memory.NewStore()
	sess := session.New(valueobjects.NewDocumentID(), backend, backend, domaincfg.DefaultDomainConfig(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	hub := NewHub(zap.NewNop())
	go hub.Run()
	t.Cleanup(hub.Stop)

	handler := NewInputHandler(sess, hub, zap.NewNop())
	server := NewServer(hub, nil, handler.Handle, zap.NewNop())
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	return sess, ts
}

func sendInput(t *testing.T, conn *gws.Conn, msg InputMessage) {
	t.Helper()

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	frame, err := json.Marshal(map[string]json.RawMessage{
		"type": json.RawMessage(`"INPUT"`),
		"data": data,
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(gws.TextMessage, frame))
}

func TestDoubleClickInputCreatesNodeAndBroadcastsFrame(t *testing.T) {
	sess, ts := startSessionHub(t)
	conn := dial(t, ts)
	readFrame(t, conn)

	sendInput(t, conn, InputMessage{Action: "double_click", X: 200, Y: 150})

	frame := readFrame(t, conn)
	require.Equal(t, "FRAME", frameType(t, frame))

	var state struct {
		Zoom       float64                    `json:"Zoom"`
		NodeBounds map[string]json.RawMessage `json:"NodeBounds"`
	}
	require.NoError(t, json.Unmarshal(frame["data"], &state))
	assert.Equal(t, 1.0, state.Zoom)
	assert.Len(t, state.NodeBounds, 1)

	err := sess.Do(context.Background(), func(s *session.Session) error {
		assert.Equal(t, 1, s.Store().NodeCount())
		return nil
	})
	require.NoError(t, err)
}

func TestScrollInputPansViewport(t *testing.T) {
	sess, ts := startSessionHub(t)
	conn := dial(t, ts)
	readFrame(t, conn)

	sendInput(t, conn, InputMessage{Action: "scroll", DX: 30, DY: -10})

	frame := readFrame(t, conn)
	require.Equal(t, "FRAME", frameType(t, frame))

	var state struct {
		Offset valueobjects.Point `json:"Offset"`
	}
	require.NoError(t, json.Unmarshal(frame["data"], &state))
	assert.Equal(t, 30.0, state.Offset.X)
	assert.Equal(t, -10.0, state.Offset.Y)

	err := sess.Do(context.Background(), func(s *session.Session) error {
		assert.Equal(t, 30.0, s.Viewport().Offset().X)
		return nil
	})
	require.NoError(t, err)
}

func TestUnknownInputActionIsDropped(t *testing.T) {
	sess, ts := startSessionHub(t)
	conn := dial(t, ts)
	readFrame(t, conn)

	sendInput(t, conn, InputMessage{Action: "teleport"})

	// No frame follows a rejected input; the next read times out.
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	err = sess.Do(context.Background(), func(s *session.Session) error {
		assert.Zero(t, s.Store().NodeCount())
		return nil
	})
	require.NoError(t, err)
}

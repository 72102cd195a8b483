package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/domain/events"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(zap.NewNop())
	go hub.Run()
	t.Cleanup(hub.Stop)

	server := NewServer(hub, nil, nil, zap.NewNop())
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	return hub, ts
}

func dial(t *testing.T, ts *httptest.Server) *gws.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *gws.Conn) map[string]json.RawMessage {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func frameType(t *testing.T, frame map[string]json.RawMessage) string {
	t.Helper()

	var typ string
	require.NoError(t, json.Unmarshal(frame["type"], &typ))
	return typ
}

func TestConnectionEstablished(t *testing.T) {
	hub, ts := startHub(t)
	conn := dial(t, ts)

	frame := readFrame(t, conn)
	assert.Equal(t, "CONNECTION_ESTABLISHED", frameType(t, frame))

	require.Eventually(t, func() bool {
		return hub.GetConnectionCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub, ts := startHub(t)

	first := dial(t, ts)
	second := dial(t, ts)
	readFrame(t, first)
	readFrame(t, second)

	require.Eventually(t, func() bool {
		return hub.GetConnectionCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast("NODE_CREATED", map[string]string{"id": "abc"}))

	for _, conn := range []*gws.Conn{first, second} {
		frame := readFrame(t, conn)
		assert.Equal(t, "NODE_CREATED", frameType(t, frame))
	}
}

func TestBroadcasterForwardsDomainEvents(t *testing.T) {
	hub, ts := startHub(t)
	conn := dial(t, ts)
	readFrame(t, conn)

	require.Eventually(t, func() bool {
		return hub.GetConnectionCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	broadcaster := NewBroadcaster(hub, zap.NewNop())

	nodeID := valueobjects.NewNodeID()
	broadcaster.Handle(events.NewNodeMoved(nodeID,
		valueobjects.Point{X: 0, Y: 0},
		valueobjects.Point{X: 10, Y: 20}))

	frame := readFrame(t, conn)
	assert.Equal(t, "NODE_MOVED", frameType(t, frame))

	var data struct {
		NodeID      string             `json:"node_id"`
		NewPosition valueobjects.Point `json:"new_position"`
	}
	require.NoError(t, json.Unmarshal(frame["data"], &data))
	assert.Equal(t, nodeID.String(), data.NodeID)
	assert.Equal(t, 10.0, data.NewPosition.X)
}

func TestFrameTypeMapping(t *testing.T) {
	cases := map[string]EventType{
		"node.created":      EventNodeCreated,
		"node.moved":        EventNodeMoved,
		"node.deleted":      EventNodeDeleted,
		"edge.created":      EventEdgeCreated,
		"edge.deleted":      EventEdgeDeleted,
		"outline.reordered": EventOutlineReordered,
	}
	for eventType, want := range cases {
		got, ok := frameTypeFor(eventType)
		require.True(t, ok, eventType)
		assert.Equal(t, want, got)
	}

	_, ok := frameTypeFor("something.else")
	assert.False(t, ok)
}

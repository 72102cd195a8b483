package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domaincfg "canvas-engine/domain/config"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/engine/session"
	"canvas-engine/infrastructure/config"
	"canvas-engine/infrastructure/persistence/memory"
	"canvas-engine/interfaces/http/rest/handlers"
)

func newTestServer(t *testing.T) *httptest.Server {
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

	cfg := &config.Config{EnableMetrics: false, EnableCORS: false}
	router := NewRouter(sess, cfg, domaincfg.DefaultDomainConfig(), zap.NewNop(), nil)

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, method, url string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func createNode(t *testing.T, srv *httptest.Server, kind string, x, y float64) handlers.NodeDTO {
	t.Helper()

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/nodes", map[string]interface{}{
		"kind": kind,
		"x":    x,
		"y":    y,
	})
	require.Equal(t, http.StatusCreated, status)

	var dto handlers.NodeDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	return dto
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestCreateAndGetNode(t *testing.T) {
	srv := newTestServer(t)

	created := createNode(t, srv, "note", 100, 50)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "note", created.Kind)

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/v1/nodes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, status)

	var got handlers.NodeDTO
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 100.0, got.X)
	assert.Equal(t, 50.0, got.Y)
}

func TestCreateNodeRejectsUnknownKind(t *testing.T) {
	srv := newTestServer(t)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/nodes", map[string]interface{}{
		"kind": "sticker",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION", env.Error.Code)
}

func TestUpdateNodeClampsSize(t *testing.T) {
	srv := newTestServer(t)
	created := createNode(t, srv, "note", 0, 0)

	status, env := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/nodes/"+created.ID, map[string]interface{}{
		"x":      250.0,
		"width":  10.0,
		"height": 10.0,
	})
	require.Equal(t, http.StatusOK, status)

	var got handlers.NodeDTO
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 250.0, got.X)
	assert.Equal(t, 120.0, got.Width)
	assert.Equal(t, 60.0, got.Height)
}

func TestGetUnknownNode(t *testing.T) {
	srv := newTestServer(t)

	status, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/nodes/"+valueobjects.NewNodeID().String(), nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/nodes/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreateEdgeAndCascadeDelete(t *testing.T) {
	srv := newTestServer(t)
	a := createNode(t, srv, "note", 0, 0)
	b := createNode(t, srv, "note", 500, 0)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/edges", map[string]interface{}{
		"sourceId":   a.ID,
		"targetId":   b.ID,
		"sourceSide": "right",
		"targetSide": "left",
	})
	require.Equal(t, http.StatusCreated, status)

	var edge handlers.EdgeDTO
	require.NoError(t, json.Unmarshal(env.Data, &edge))
	assert.Equal(t, a.ID, edge.SourceID)
	assert.Equal(t, b.ID, edge.TargetID)

	status, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/nodes/"+a.ID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, env = doJSON(t, http.MethodGet, srv.URL+"/api/v1/edges", nil)
	require.Equal(t, http.StatusOK, status)

	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Zero(t, list.Count)

	// The other endpoint survives
	status, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/nodes/"+b.ID, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCreateEdgeRejectsSelfLoop(t *testing.T) {
	srv := newTestServer(t)
	a := createNode(t, srv, "note", 0, 0)

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/edges", map[string]interface{}{
		"sourceId":   a.ID,
		"targetId":   a.ID,
		"sourceSide": "right",
		"targetSide": "left",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteNodePromotesChildren(t *testing.T) {
	srv := newTestServer(t)
	parent := createNode(t, srv, "title", 0, 0)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/api/v1/nodes", map[string]interface{}{
		"kind":     "note",
		"x":        0.0,
		"y":        300.0,
		"parentId": parent.ID,
	})
	require.Equal(t, http.StatusCreated, status)

	var child handlers.NodeDTO
	require.NoError(t, json.Unmarshal(env.Data, &child))
	require.NotNil(t, child.ParentID)

	status, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/nodes/"+parent.ID, nil)
	require.Equal(t, http.StatusNoContent, status)

	// The child survives as a root node
	status, env = doJSON(t, http.MethodGet, srv.URL+"/api/v1/nodes/"+child.ID, nil)
	require.Equal(t, http.StatusOK, status)

	var got handlers.NodeDTO
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Nil(t, got.ParentID)
}

func TestOutlineReorder(t *testing.T) {
	srv := newTestServer(t)
	a := createNode(t, srv, "note", 0, 0)
	b := createNode(t, srv, "note", 0, 100)
	c := createNode(t, srv, "note", 0, 200)

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/document/outline/reorder", map[string]int{
		"from": 0,
		"to":   2,
	})
	require.Equal(t, http.StatusOK, status)

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/v1/document/outline", nil)
	require.Equal(t, http.StatusOK, status)

	var outline struct {
		Rows []handlers.OutlineRowDTO `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &outline))
	require.Len(t, outline.Rows, 3)
	assert.Equal(t, b.ID, outline.Rows[0].ID)
	assert.Equal(t, c.ID, outline.Rows[1].ID)
	assert.Equal(t, a.ID, outline.Rows[2].ID)
}

func TestReorderOutOfRange(t *testing.T) {
	srv := newTestServer(t)
	createNode(t, srv, "note", 0, 0)

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/document/outline/reorder", map[string]int{
		"from": 0,
		"to":   5,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetDocumentSnapshot(t *testing.T) {
	srv := newTestServer(t)
	createNode(t, srv, "note", 0, 0)
	createNode(t, srv, "chat", 400, 0)

	status, env := doJSON(t, http.MethodGet, srv.URL+"/api/v1/document", nil)
	require.Equal(t, http.StatusOK, status)

	var snapshot struct {
		DocumentID string `json:"documentId"`
		NodeCount  int    `json:"nodeCount"`
		EdgeCount  int    `json:"edgeCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	assert.NotEmpty(t, snapshot.DocumentID)
	assert.Equal(t, 2, snapshot.NodeCount)
	assert.Zero(t, snapshot.EdgeCount)
}

func TestGetFrame(t *testing.T) {
	srv := newTestServer(t)
	created := createNode(t, srv, "note", 100, 100)

	status, env := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/document/frame?cx=400&cy=300", srv.URL), nil)
	require.Equal(t, http.StatusOK, status)

	var frame struct {
		Zoom       float64                    `json:"Zoom"`
		NodeBounds map[string]json.RawMessage `json:"NodeBounds"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &frame))
	assert.Equal(t, 1.0, frame.Zoom)
	assert.Contains(t, frame.NodeBounds, created.ID)
}

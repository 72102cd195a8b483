package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore records every call it receives
type fakeStore struct {
	mu          sync.Mutex
	nodeWrites  []*entities.Node
	edgeWrites  []*entities.Edge
	nodeDeletes []valueobjects.NodeID
	edgeDeletes []valueobjects.EdgeID
	failWrites  bool
	attempts    int
}

func (f *fakeStore) WriteNode(_ context.Context, node *entities.Node) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failWrites {
		return errors.New("disk full")
	}
	f.nodeWrites = append(f.nodeWrites, node)
	return nil
}

func (f *fakeStore) WriteEdge(_ context.Context, edge *entities.Edge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("disk full")
	}
	f.edgeWrites = append(f.edgeWrites, edge)
	return nil
}

func (f *fakeStore) DeleteNode(_ context.Context, id valueobjects.NodeID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodeDeletes = append(f.nodeDeletes, id)
	return nil
}

func (f *fakeStore) DeleteEdge(_ context.Context, id valueobjects.EdgeID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edgeDeletes = append(f.edgeDeletes, id)
	return nil
}

func (f *fakeStore) nodeWriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.nodeWrites)
}

func (f *fakeStore) lastNodeWrite() *entities.Node {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.nodeWrites) == 0 {
		return nil
	}
	return f.nodeWrites[len(f.nodeWrites)-1]
}

func testConfig() *config.DomainConfig {
	cfg := config.DefaultDomainConfig()
	cfg.DebounceDelay = 20 * time.Millisecond
	return cfg
}

func testNode(t *testing.T, cfg *config.DomainConfig) *entities.Node {
	t.Helper()
	node, err := entities.NewNode(valueobjects.NewDocumentID(), valueobjects.KindNote, valueobjects.NewPoint(0, 0), cfg)
	require.NoError(t, err)
	return node
}

func TestScheduler_CoalescesBurstIntoSingleWrite(t *testing.T) {
	cfg := testConfig()
	store := &fakeStore{}
	sched := NewScheduler(store, cfg, zap.NewNop())

	node := testNode(t, cfg)
	for i := 0; i < 10; i++ {
		node.MoveTo(valueobjects.NewPoint(float64(i*10), 0))
		sched.ScheduleNodeWrite(node, false)
	}

	require.Eventually(t, func() bool {
		return store.nodeWriteCount() == 1
	}, time.Second, 5*time.Millisecond, "expected exactly one coalesced write")

	// Nothing else fires afterwards
	time.Sleep(3 * cfg.DebounceDelay)
	assert.Equal(t, 1, store.nodeWriteCount())

	// The persisted state is the final (10th) one
	written := store.lastNodeWrite()
	require.NotNil(t, written)
	assert.Equal(t, valueobjects.NewPoint(90, 0), written.Position())
}

func TestScheduler_SnapshotUnaffectedByLaterMutation(t *testing.T) {
	cfg := testConfig()
	store := &fakeStore{}
	sched := NewScheduler(store, cfg, zap.NewNop())

	node := testNode(t, cfg)
	node.MoveTo(valueobjects.NewPoint(50, 50))
	sched.ScheduleNodeWrite(node, true)

	// Mutating after the write must not change what was persisted
	node.MoveTo(valueobjects.NewPoint(999, 999))

	require.Equal(t, 1, store.nodeWriteCount())
	assert.Equal(t, valueobjects.NewPoint(50, 50), store.lastNodeWrite().Position())
}

func TestScheduler_ImmediateBypassesDelay(t *testing.T) {
	cfg := testConfig()
	store := &fakeStore{}
	sched := NewScheduler(store, cfg, zap.NewNop())

	node := testNode(t, cfg)
	sched.ScheduleNodeWrite(node, false)
	require.Equal(t, 1, sched.PendingWrites())

	// Immediate write supersedes the pending one and lands synchronously
	sched.ScheduleNodeWrite(node, true)
	assert.Equal(t, 1, store.nodeWriteCount())
	assert.Equal(t, 0, sched.PendingWrites())

	time.Sleep(3 * cfg.DebounceDelay)
	assert.Equal(t, 1, store.nodeWriteCount(), "cancelled pending write must not fire")
}

func TestScheduler_DeleteCancelsPendingWrite(t *testing.T) {
	cfg := testConfig()
	store := &fakeStore{}
	sched := NewScheduler(store, cfg, zap.NewNop())

	node := testNode(t, cfg)
	sched.ScheduleNodeWrite(node, false)
	sched.DeleteNode(node.ID())

	assert.Equal(t, []valueobjects.NodeID{node.ID()}, func() []valueobjects.NodeID {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.nodeDeletes
	}())

	time.Sleep(3 * cfg.DebounceDelay)
	assert.Equal(t, 0, store.nodeWriteCount(), "write scheduled before delete must not fire")
}

func TestScheduler_FlushDrainsPending(t *testing.T) {
	cfg := testConfig()
	cfg.DebounceDelay = time.Hour // never fires on its own
	store := &fakeStore{}
	sched := NewScheduler(store, cfg, zap.NewNop())

	nodeA := testNode(t, cfg)
	nodeB := testNode(t, cfg)
	sched.ScheduleNodeWrite(nodeA, false)
	sched.ScheduleNodeWrite(nodeB, false)
	require.Equal(t, 2, sched.PendingWrites())

	sched.Flush()
	assert.Equal(t, 2, store.nodeWriteCount())
	assert.Equal(t, 0, sched.PendingWrites())
}

func TestScheduler_WriteFailureIsLoggedNotFatal(t *testing.T) {
	cfg := testConfig()
	store := &fakeStore{failWrites: true}
	sched := NewScheduler(store, cfg, zap.NewNop())

	node := testNode(t, cfg)
	sched.ScheduleNodeWrite(node, true)

	// No rollback, no panic; a later write succeeds once storage recovers
	store.mu.Lock()
	store.failWrites = false
	store.mu.Unlock()

	sched.ScheduleNodeWrite(node, true)
	assert.Equal(t, 1, store.nodeWriteCount())
}

func TestScheduler_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	cfg := testConfig()
	store := &fakeStore{failWrites: true}
	sched := NewScheduler(store, cfg, zap.NewNop())

	node := testNode(t, cfg)
	for i := 0; i < 5; i++ {
		sched.ScheduleNodeWrite(node, true)
	}

	attempts := func() int {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.attempts
	}
	require.Equal(t, 5, attempts())

	// Circuit is open now; further writes are dropped before the store
	sched.ScheduleNodeWrite(node, true)
	sched.ScheduleNodeWrite(node, true)
	assert.Equal(t, 5, attempts())
}

func TestScheduler_EdgeWrites(t *testing.T) {
	cfg := testConfig()
	store := &fakeStore{}
	sched := NewScheduler(store, cfg, zap.NewNop())

	doc := valueobjects.NewDocumentID()
	a, err := entities.NewNode(doc, valueobjects.KindChat, valueobjects.NewPoint(0, 0), cfg)
	require.NoError(t, err)
	b, err := entities.NewNode(doc, valueobjects.KindChat, valueobjects.NewPoint(100, 0), cfg)
	require.NoError(t, err)

	edge, err := entities.NewEdge(doc, a.ID(), b.ID(), valueobjects.SideRight, valueobjects.SideLeft)
	require.NoError(t, err)

	sched.ScheduleEdgeWrite(edge, true)
	store.mu.Lock()
	require.Len(t, store.edgeWrites, 1)
	store.mu.Unlock()

	sched.DeleteEdge(edge.ID())
	store.mu.Lock()
	assert.Equal(t, []valueobjects.EdgeID{edge.ID()}, store.edgeDeletes)
	store.mu.Unlock()
}

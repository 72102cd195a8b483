package outline

import (
	"testing"
	"time"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/domain/events"
	"canvas-engine/engine/graph"
	pkgerrors "canvas-engine/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testDoc = valueobjects.NewDocumentID()

func makeNode(t *testing.T, title string, parentID *valueobjects.NodeID, createdAt time.Time, order *float64) *entities.Node {
	t.Helper()
	payload := valueobjects.Payload{
		Kind: valueobjects.KindNote,
		Note: &valueobjects.NotePayload{Title: title},
	}
	node, err := entities.ReconstructNode(
		valueobjects.NewNodeID(),
		testDoc,
		parentID,
		valueobjects.NewPoint(0, 0),
		valueobjects.NewSize(320, 200),
		false,
		payload,
		"",
		order,
		createdAt,
		createdAt,
	)
	require.NoError(t, err)
	return node
}

func toMap(nodes ...*entities.Node) map[valueobjects.NodeID]*entities.Node {
	m := make(map[valueobjects.NodeID]*entities.Node, len(nodes))
	for _, n := range nodes {
		m[n.ID()] = n
	}
	return m
}

func rootTitles(f *Forest) []string {
	var out []string
	for _, r := range f.Roots {
		out = append(out, r.Node.Payload().Note.Title)
	}
	return out
}

func orderPtr(v float64) *float64 { return &v }

func TestBuild_CreationOrderFallback(t *testing.T) {
	base := time.Now()
	a := makeNode(t, "A", nil, base, nil)
	b := makeNode(t, "B", nil, base.Add(time.Second), nil)
	c := makeNode(t, "C", nil, base.Add(2*time.Second), nil)

	forest := Build(toMap(c, a, b))
	assert.Equal(t, []string{"A", "B", "C"}, rootTitles(forest))
}

func TestBuild_OrderedSortsBeforeUnordered(t *testing.T) {
	base := time.Now()
	// unordered node is the oldest, but ordered nodes still come first
	unordered := makeNode(t, "unordered", nil, base, nil)
	second := makeNode(t, "second", nil, base.Add(time.Second), orderPtr(2))
	first := makeNode(t, "first", nil, base.Add(2*time.Second), orderPtr(1))

	forest := Build(toMap(unordered, second, first))
	assert.Equal(t, []string{"first", "second", "unordered"}, rootTitles(forest))
}

func TestBuild_NestingAndCompleteness(t *testing.T) {
	base := time.Now()
	root := makeNode(t, "root", nil, base, nil)
	rootID := root.ID()
	child1 := makeNode(t, "child1", &rootID, base.Add(time.Second), nil)
	child2 := makeNode(t, "child2", &rootID, base.Add(2*time.Second), nil)
	child1ID := child1.ID()
	grandchild := makeNode(t, "grandchild", &child1ID, base.Add(3*time.Second), nil)
	other := makeNode(t, "other", nil, base.Add(4*time.Second), nil)

	nodes := toMap(root, child1, child2, grandchild, other)
	forest := Build(nodes)

	// Every node appears exactly once across the forest
	require.Equal(t, len(nodes), forest.Len())
	seen := make(map[string]int)
	for _, row := range forest.Flatten() {
		seen[row.Node.ID().String()]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "node %s appears %d times", id, count)
	}

	require.Len(t, forest.Roots, 2)
	assert.Equal(t, "root", forest.Roots[0].Node.Payload().Note.Title)
	require.Len(t, forest.Roots[0].Children, 2)
	assert.Equal(t, 0, forest.Roots[0].Level)
	assert.Equal(t, 1, forest.Roots[0].Children[0].Level)
	require.Len(t, forest.Roots[0].Children[0].Children, 1)
	assert.Equal(t, 2, forest.Roots[0].Children[0].Children[0].Level)
}

func TestBuild_DanglingParentBecomesRoot(t *testing.T) {
	missing := valueobjects.NewNodeID()
	orphan := makeNode(t, "orphan", &missing, time.Now(), nil)

	forest := Build(toMap(orphan))
	require.Len(t, forest.Roots, 1)
	assert.Equal(t, "orphan", forest.Roots[0].Node.Payload().Note.Title)
	assert.Equal(t, 0, forest.Roots[0].Level)
}

func TestBuild_RebuildIsIdempotent(t *testing.T) {
	base := time.Now()
	nodes := toMap(
		makeNode(t, "A", nil, base, orderPtr(3)),
		makeNode(t, "B", nil, base.Add(time.Second), nil),
		makeNode(t, "C", nil, base.Add(2*time.Second), orderPtr(1)),
		makeNode(t, "D", nil, base.Add(3*time.Second), nil),
	)

	first := rootTitles(Build(nodes))
	second := rootTitles(Build(nodes))
	assert.Equal(t, first, second)
}

func newStoreWith(t *testing.T, nodes ...*entities.Node) *graph.Store {
	t.Helper()
	s := graph.NewStore(testDoc, graph.NopWriter{}, events.NewPublisher(zap.NewNop()), config.DefaultDomainConfig(), zap.NewNop())
	s.Load(nodes, nil)
	return s
}

func TestReorder_MoveFirstToLast(t *testing.T) {
	base := time.Now()
	a := makeNode(t, "A", nil, base, nil)
	b := makeNode(t, "B", nil, base.Add(time.Second), nil)
	c := makeNode(t, "C", nil, base.Add(2*time.Second), nil)
	store := newStoreWith(t, a, b, c)

	// Created A, B, C with no display-order values: outline lists them A, B, C
	require.Equal(t, []string{"A", "B", "C"}, rootTitles(Build(store.Nodes())))

	// Dragging A to index 2 (after C) yields B, C, A on rebuild
	require.NoError(t, Reorder(store, 0, 2))
	assert.Equal(t, []string{"B", "C", "A"}, rootTitles(Build(store.Nodes())))

	// And again on a second rebuild without intervening mutation
	assert.Equal(t, []string{"B", "C", "A"}, rootTitles(Build(store.Nodes())))
}

func TestReorder_SelfDropIsNoOp(t *testing.T) {
	base := time.Now()
	a := makeNode(t, "A", nil, base, nil)
	b := makeNode(t, "B", nil, base.Add(time.Second), nil)
	store := newStoreWith(t, a, b)

	require.NoError(t, Reorder(store, 1, 1))
	assert.Equal(t, []string{"A", "B"}, rootTitles(Build(store.Nodes())))

	// Self-drop assigns no display-order values
	_, hasOrder := a.DisplayOrder()
	assert.False(t, hasOrder)
}

func TestReorder_OutOfRange(t *testing.T) {
	store := newStoreWith(t, makeNode(t, "A", nil, time.Now(), nil))

	err := Reorder(store, 0, 5)
	assert.True(t, pkgerrors.IsValidation(err))

	err = Reorder(store, -1, 0)
	assert.True(t, pkgerrors.IsValidation(err))
}

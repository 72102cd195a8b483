package persist

import (
	"context"
	"sync"
	"time"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/entities"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/pkg/observability"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Scheduler coalesces bursty mutations into infrequent writes against the
// external store. Every entity id has at most one pending delayed write;
// scheduling a new write for the same id deterministically supersedes the
// prior one (last-write-wins), so no write queue grows unbounded.
//
// The in-memory graph store stays authoritative for the session: a failed
// write is logged, never rolled back, and the next mutation's scheduled
// write is the de facto retry. Writes go through a circuit breaker so a
// dead backend is not hammered on every mutation; while the circuit is
// open writes are dropped, and the first mutation after it half-opens
// probes the store again.
type Scheduler struct {
	store        DocumentStore
	logger       *zap.Logger
	breaker      *gobreaker.CircuitBreaker
	delay        time.Duration
	writeTimeout time.Duration

	mu      sync.Mutex
	seq     uint64
	pending map[string]*pendingWrite
}

type pendingWrite struct {
	seq    uint64
	timer  *time.Timer
	entity string
	write  func(ctx context.Context) error
}

// NewScheduler creates a persistence scheduler over the given store
func NewScheduler(store DocumentStore, cfg *config.DomainConfig, logger *zap.Logger) *Scheduler {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "document-store",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("store circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Scheduler{
		store:        store,
		logger:       logger,
		breaker:      breaker,
		delay:        cfg.DebounceDelay,
		writeTimeout: cfg.WriteTimeout,
		pending:      make(map[string]*pendingWrite),
	}
}

// ScheduleNodeWrite schedules a debounced write of the node's current state.
// The node is snapshotted at scheduling time so the write is unaffected by
// later mutation. With immediate set, the delay is bypassed and the write
// happens synchronously, used for mutation boundaries that must be durable
// right away, such as the final value after a drag or resize.
func (s *Scheduler) ScheduleNodeWrite(node *entities.Node, immediate bool) {
	snapshot := node.Clone()
	s.schedule(nodeKey(node.ID()), "node", immediate, func(ctx context.Context) error {
		return s.store.WriteNode(ctx, snapshot)
	})
}

// ScheduleEdgeWrite schedules a debounced write of the edge's current state
func (s *Scheduler) ScheduleEdgeWrite(edge *entities.Edge, immediate bool) {
	snapshot := edge.Clone()
	s.schedule(edgeKey(edge.ID()), "edge", immediate, func(ctx context.Context) error {
		return s.store.WriteEdge(ctx, snapshot)
	})
}

// DeleteNode cancels any pending write for the node and deletes it from the
// store synchronously. The storage layer cascades edge removal.
func (s *Scheduler) DeleteNode(id valueobjects.NodeID) {
	s.cancel(nodeKey(id))
	s.run("node", func(ctx context.Context) error {
		return s.store.DeleteNode(ctx, id)
	})
}

// DeleteEdge cancels any pending write for the edge and deletes it
// synchronously
func (s *Scheduler) DeleteEdge(id valueobjects.EdgeID) {
	s.cancel(edgeKey(id))
	s.run("edge", func(ctx context.Context) error {
		return s.store.DeleteEdge(ctx, id)
	})
}

// Flush writes out every pending entity immediately. Called on shutdown and
// explicit save.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	drained := make([]*pendingWrite, 0, len(s.pending))
	for key, pw := range s.pending {
		pw.timer.Stop()
		drained = append(drained, pw)
		delete(s.pending, key)
	}
	s.mu.Unlock()

	for _, pw := range drained {
		s.run(pw.entity, pw.write)
	}
}

// PendingWrites returns the number of entities with a delayed write queued
func (s *Scheduler) PendingWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Scheduler) schedule(key, entity string, immediate bool, write func(ctx context.Context) error) {
	if immediate {
		s.cancel(key)
		s.run(entity, write)
		return
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if prev, ok := s.pending[key]; ok {
		prev.timer.Stop()
		observability.CanvasWritesCoalescedTotal.Inc()
	}
	pw := &pendingWrite{seq: seq, entity: entity, write: write}
	pw.timer = time.AfterFunc(s.delay, func() {
		if s.take(key, seq) {
			s.run(entity, write)
		}
	})
	s.pending[key] = pw
	s.mu.Unlock()
}

// take claims a fired write if it is still the current one for its key.
// A timer that lost the race to Stop finds a newer seq here and gives up,
// which is what makes rescheduling supersede rather than queue alongside.
func (s *Scheduler) take(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.pending[key]
	if !ok || cur.seq != seq {
		return false
	}
	delete(s.pending, key)
	return true
}

func (s *Scheduler) cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.pending[key]; ok {
		prev.timer.Stop()
		delete(s.pending, key)
	}
}

func (s *Scheduler) run(entity string, write func(ctx context.Context) error) {
	start := time.Now()
	_, err := s.breaker.Execute(func() (interface{}, error) {
		ctx, cancelFn := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancelFn()
		return nil, write(ctx)
	})
	observability.CanvasWriteDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		observability.CanvasWritesTotal.WithLabelValues(entity, "error").Inc()
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			s.logger.Warn("persistence write dropped, store circuit open",
				zap.String("entity", entity))
			return
		}
		s.logger.Error("persistence write failed",
			zap.String("entity", entity),
			zap.Error(err),
		)
		return
	}
	observability.CanvasWritesTotal.WithLabelValues(entity, "ok").Inc()
}

func nodeKey(id valueobjects.NodeID) string { return "node:" + id.String() }
func edgeKey(id valueobjects.EdgeID) string { return "edge:" + id.String() }

// Package session ties one open document's engine components together and
// serializes every mutation through a single goroutine, the equivalent of
// a UI thread. Hosts never touch the store or controller directly; they
// submit closures with Do.
package session

import (
	"context"

	"go.uber.org/zap"

	"canvas-engine/domain/config"
	"canvas-engine/domain/core/valueobjects"
	"canvas-engine/domain/events"
	"canvas-engine/engine/graph"
	"canvas-engine/engine/interaction"
	"canvas-engine/engine/persist"
	"canvas-engine/engine/viewport"
	"canvas-engine/engine/wiring"
)

// Session owns the live state of one open document.
type Session struct {
	documentID valueobjects.DocumentID
	cfg        *config.DomainConfig
	logger     *zap.Logger

	store      *graph.Store
	scheduler  *persist.Scheduler
	viewport   *viewport.Viewport
	machine    *wiring.Machine
	controller *interaction.Controller
	publisher  *events.Publisher
	loader     persist.DocumentLoader

	tasks  chan task
	closed chan struct{}
}

type task struct {
	fn    func(*Session) error
	reply chan error
}

// New assembles a session over the given persistence collaborators. Run
// must be called before Do.
func New(documentID valueobjects.DocumentID, docStore persist.DocumentStore, loader persist.DocumentLoader, cfg *config.DomainConfig, logger *zap.Logger) *Session {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	publisher := events.NewPublisher(logger)
	scheduler := persist.NewScheduler(docStore, cfg, logger)
	store := graph.NewStore(documentID, scheduler, publisher, cfg, logger)
	vp := viewport.New(cfg)
	machine := wiring.NewMachine()
	controller := interaction.NewController(store, vp, machine, cfg, logger)

	return &Session{
		documentID: documentID,
		cfg:        cfg,
		logger:     logger,
		store:      store,
		scheduler:  scheduler,
		viewport:   vp,
		machine:    machine,
		controller: controller,
		publisher:  publisher,
		loader:     loader,
		tasks:      make(chan task, 64),
		closed:     make(chan struct{}),
	}
}

// DocumentID returns the open document's identifier.
func (s *Session) DocumentID() valueobjects.DocumentID {
	return s.documentID
}

// Subscribe registers a handler for the document's domain events. Must be
// called before Run starts delivering tasks.
func (s *Session) Subscribe(h events.Handler) {
	s.publisher.Subscribe(h)
}

// Run processes submitted tasks until the context is cancelled, then
// flushes pending writes. It must be the only goroutine that touches the
// session's components.
func (s *Session) Run(ctx context.Context) {
	defer close(s.closed)
	defer s.scheduler.Flush()

	s.logger.Info("session started", zap.String("document_id", s.documentID.String()))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopping", zap.String("document_id", s.documentID.String()))
			return
		case t := <-s.tasks:
			t.reply <- t.fn(s)
		}
	}
}

// Do runs fn on the session goroutine and waits for its result. The
// closure receives the session and may use Store, Viewport, Controller,
// and the other accessors freely; they are only valid inside it.
func (s *Session) Do(ctx context.Context, fn func(*Session) error) error {
	t := task{fn: fn, reply: make(chan error, 1)}
	select {
	case s.tasks <- t:
	case <-s.closed:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-t.reply:
		return err
	case <-s.closed:
		// The task may have been enqueued a moment before shutdown; if the
		// loop already ran it, prefer its result over a spurious cancel.
		select {
		case err := <-t.reply:
			return err
		default:
		}
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load replaces the in-memory document with the stored one. Like every
// other mutation it runs on the session goroutine.
func (s *Session) Load(ctx context.Context) error {
	return s.Do(ctx, func(s *Session) error {
		nodes, edges, err := s.loader.LoadDocument(ctx, s.documentID)
		if err != nil {
			return err
		}
		s.store.Load(nodes, edges)
		s.logger.Info("document loaded",
			zap.String("document_id", s.documentID.String()),
			zap.Int("nodes", len(nodes)),
			zap.Int("edges", len(edges)))
		return nil
	})
}

// ApplyTunables replaces the domain tunables in place on the session
// goroutine. The store, viewport, controller, and scheduler all share
// the same config value, so clamps, hit radii, and debounce delays pick
// up the new numbers on their next use.
func (s *Session) ApplyTunables(ctx context.Context, updated *config.DomainConfig) error {
	if updated == nil {
		return nil
	}
	return s.Do(ctx, func(s *Session) error {
		*s.cfg = *updated
		s.logger.Info("domain tunables applied",
			zap.Float64("max_zoom", s.cfg.MaxZoom),
			zap.Duration("debounce_delay", s.cfg.DebounceDelay))
		return nil
	})
}

// Store returns the graph store. Only valid inside a Do closure.
func (s *Session) Store() *graph.Store {
	return s.store
}

// Viewport returns the viewport transform. Only valid inside a Do closure.
func (s *Session) Viewport() *viewport.Viewport {
	return s.viewport
}

// Controller returns the interaction controller. Only valid inside a Do
// closure.
func (s *Session) Controller() *interaction.Controller {
	return s.controller
}

// Scheduler returns the persistence scheduler. Only valid inside a Do
// closure.
func (s *Session) Scheduler() *persist.Scheduler {
	return s.scheduler
}

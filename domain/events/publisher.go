package events

import "go.uber.org/zap"

// Handler receives a domain event. Handlers run synchronously on the
// session loop and must not block; anything slow belongs on its own
// goroutine behind a channel.
type Handler func(DomainEvent)

// Publisher fans domain events out to registered handlers in
// subscription order
type Publisher struct {
	handlers []Handler
	logger   *zap.Logger
}

// NewPublisher creates an event publisher
func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger}
}

// Subscribe registers a handler. Subscription happens during wiring,
// before the session loop starts, so no locking is needed.
func (p *Publisher) Subscribe(h Handler) {
	p.handlers = append(p.handlers, h)
}

// Publish delivers an event to every handler
func (p *Publisher) Publish(event DomainEvent) {
	p.logger.Debug("domain event",
		zap.String("type", event.GetEventType()),
		zap.String("aggregate", event.GetAggregateID()),
	)
	for _, h := range p.handlers {
		h(event)
	}
}

package audit

import (
	"context"
	"log/slog"

	"zkid/internal/platform/metrics"
	id "zkid/pkg/domain"
	"zkid/pkg/requestcontext"
)

const defaultBufferSize = 256

// Publisher appends events to the store and queues them for the sink.
type Publisher struct {
	store   Store
	sink    Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
	inbox   chan Event
}

type Option func(*Publisher)

// WithSink enables broker fan-out. Run must be started for events to flow.
func WithSink(sink Sink, bufferSize int) Option {
	return func(p *Publisher) {
		if bufferSize <= 0 {
			bufferSize = defaultBufferSize
		}
		p.sink = sink
		p.inbox = make(chan Event, bufferSize)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records event. Store failures are logged; a full sink buffer drops
// the broker copy (the stored row remains).
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	event = enrich(ctx, event)

	if err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to append audit event",
			"action", event.Action,
			"error", err,
			"request_id", event.RequestID,
		)
	}

	if p.inbox == nil {
		return
	}
	select {
	case p.inbox <- event:
	default:
		p.metrics.IncrementAuditSinkFailure()
		p.logger.WarnContext(ctx, "audit sink buffer full, dropping broker copy",
			"action", event.Action,
			"request_id", event.RequestID,
		)
	}
}

// Run drains queued events into the sink until ctx is cancelled, then
// flushes what is left and closes the sink.
func (p *Publisher) Run(ctx context.Context) error {
	if p.inbox == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			p.flush()
			return p.sink.Close()
		case event := <-p.inbox:
			p.publish(ctx, event)
		}
	}
}

func (p *Publisher) flush() {
	for {
		select {
		case event := <-p.inbox:
			p.publish(context.Background(), event)
		default:
			return
		}
	}
}

func (p *Publisher) publish(ctx context.Context, event Event) {
	if err := p.sink.Publish(ctx, event); err != nil {
		p.metrics.IncrementAuditSinkFailure()
		p.logger.WarnContext(ctx, "failed to publish audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

func enrich(ctx context.Context, event Event) Event {
	if event.ID == (id.EventID{}) {
		event.ID = id.NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx).UTC()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Device == "" {
		if ua := requestcontext.UserAgent(ctx); ua != "" {
			event.Device = DeviceLabel(ua)
		}
	}
	return event
}

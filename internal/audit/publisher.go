package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher hands events to the audit worker without blocking domain logic.
// Events are dropped with a warning if the inbox is full; auditing must not
// stall token issuance.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Emit enqueues an event, stamping the timestamp if the caller left it zero.
func (p *Publisher) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit inbox full, dropping event",
			"type", event.Type,
			"subject", event.Subject,
		)
	}
}

// Inbox exposes the event channel for the worker to drain.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Drain appends any events still buffered. Called during shutdown after the
// worker has stopped.
func (p *Publisher) Drain(ctx context.Context, store Store) {
	for {
		select {
		case event := <-p.inbox:
			if err := store.Append(ctx, event); err != nil {
				p.logger.Error("drain audit event", "error", err)
			}
		default:
			return
		}
	}
}

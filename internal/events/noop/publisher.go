package noop

import (
	"context"

	portsevents "github.com/nxtech/credits_ledger_app/internal/core/ports/events"
)

// Publisher discards all events. Used when no broker is configured.
type Publisher struct{}

func NewPublisher() *Publisher {
	return &Publisher{}
}

var _ portsevents.Publisher = (*Publisher)(nil)

func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

package events

import "context"

// Publisher is the post-commit event sink contract. The engine calls Publish
// exactly once per successful mutation, only after the enclosing transaction
// is confirmed durable. Delivery is fire-and-forget from the engine's point
// of view; the sink's mechanism (broker, log, queue) is the collaborator's
// concern.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

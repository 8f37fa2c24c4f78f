package clients

import "context"

// EventPublisher emits sync outcomes to an external stream. Publishing is an
// audit supplement: failures are logged, never fatal to the sync itself.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

package queue

import "context"

// Job handles messages of one type.
type Job interface {
	Name() string
	Type() string
	// Handle receives the payload as json.RawMessage; use ParsePayload to decode.
	Handle(ctx context.Context, payload interface{}) error
}

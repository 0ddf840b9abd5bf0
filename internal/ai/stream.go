package ai

import "context"

// StreamProvider is an optional interface for providers that can deliver the
// reply as incremental content deltas. The returned channels are closed when
// the stream ends; a value on the error channel terminates the stream.
type StreamProvider interface {
	StreamChat(ctx context.Context, messages []Message) (<-chan string, <-chan error)
}

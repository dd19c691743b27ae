package provider

import (
	"context"
	"iter"
)

// Transport streams a model reply for a conversation.
//
// Stream returns a finite, non-restartable sequence of content deltas. A
// failure is delivered as the final element with a non-nil error; deltas
// yielded before it remain valid. Each call opens a new upstream request.
type Transport interface {
	// Name returns the transport identifier ("native" or "generic").
	Name() string

	// Stream issues req and yields content deltas as they arrive.
	Stream(ctx context.Context, req *Request) iter.Seq2[string, error]
}

package native

import (
	"context"
	"iter"
	"time"

	"github.com/rhuss/plauder/pkg/api"
	"github.com/rhuss/plauder/pkg/debug"
	"github.com/rhuss/plauder/pkg/observability"
	"github.com/rhuss/plauder/pkg/provider"
)

// Client streams replies through a Vendor. It implements
// provider.Transport.
type Client struct {
	vendor Vendor
}

var _ provider.Transport = (*Client)(nil)

// NewClient creates a Client over vendor.
func NewClient(vendor Vendor) *Client {
	return &Client{vendor: vendor}
}

// Name returns the transport identifier.
func (c *Client) Name() string { return provider.TransportNative }

// Vendor returns the underlying vendor capability.
func (c *Client) Vendor() Vendor { return c.vendor }

// Stream opens a vendor session seeded with the turns before the pending
// user run, then sends that run and yields the reply deltas.
func (c *Client) Stream(ctx context.Context, req *provider.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		prior, pending, ok := provider.PendingTurn(req.History)
		if !ok {
			yield("", api.ErrNothingToReply)
			return
		}

		start := time.Now()
		sess, err := c.vendor.CreateSession(ctx, SessionConfig{
			Model:       req.Model,
			Instruction: req.Instruction,
			Temperature: req.Temperature,
			History:     prior,
		})
		observability.ObserveRequest(provider.TransportNative, req.Model, start, err)
		if err != nil {
			yield("", api.NewModelError("failed to create vendor session: "+err.Error()))
			return
		}

		debug.Log("providers", "vendor session created",
			"model", req.Model,
			"history", len(prior),
		)

		observability.StreamsActive.Inc()
		defer observability.StreamsActive.Dec()

		for delta, err := range sess.StreamSend(ctx, pending) {
			if err != nil {
				yield("", api.NewModelError(err.Error()))
				return
			}
			if delta == "" {
				continue
			}
			observability.StreamDeltasTotal.WithLabelValues(provider.TransportNative).Inc()
			if !yield(delta, nil) {
				return
			}
		}
	}
}

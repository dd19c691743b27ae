package session

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"

	"github.com/rhuss/plauder/pkg/api"
	"github.com/rhuss/plauder/pkg/translate"
)

// ErrUninitialized is returned by Gateway calls made before Initialize.
var ErrUninitialized = errors.New("session not initialized")

// Gateway holds the current Session of a conversation. The zero value is
// Uninitialized and ready to use.
type Gateway struct {
	opts    Options
	current atomic.Pointer[Session]
}

// NewGateway creates an Uninitialized Gateway that builds sessions with
// opts.
func NewGateway(opts Options) *Gateway {
	return &Gateway{opts: opts}
}

// Initialize builds a new Session from cfg and replaces the current one.
// On error the previous Session, if any, stays in place.
func (g *Gateway) Initialize(ctx context.Context, cfg api.ChatConfig) error {
	s, err := New(ctx, cfg, g.opts)
	if err != nil {
		return err
	}
	g.current.Store(s)
	return nil
}

// Current returns the active Session, or nil when Uninitialized.
func (g *Gateway) Current() *Session {
	return g.current.Load()
}

// Ready reports whether Initialize has succeeded at least once.
func (g *Gateway) Ready() bool {
	return g.current.Load() != nil
}

// Stream streams a reply through the current Session.
func (g *Gateway) Stream(ctx context.Context, history []api.Message) iter.Seq2[string, error] {
	s := g.current.Load()
	if s == nil {
		return func(yield func(string, error) bool) {
			yield("", ErrUninitialized)
		}
	}
	return s.Stream(ctx, history)
}

// Reply aggregates and splits a reply through the current Session.
func (g *Gateway) Reply(ctx context.Context, history []api.Message) ([]api.Message, error) {
	s := g.current.Load()
	if s == nil {
		return nil, ErrUninitialized
	}
	return s.Reply(ctx, history)
}

// Translate translates through the current Session. Without one it
// returns translate.Unavailable.
func (g *Gateway) Translate(ctx context.Context, text, targetCode string) string {
	s := g.current.Load()
	if s == nil {
		return translate.Unavailable
	}
	return s.Translate(ctx, text, targetCode)
}

// Package session holds the per-conversation state of the gateway client:
// the compiled system instruction, the selected transport and the
// credentials used for streaming and translation.
//
// A Session is an immutable snapshot. Reconfiguring means building a new
// Session; Gateway wraps that in an Uninitialized/Ready state holder with
// atomic full replacement.
package session

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/rhuss/plauder/pkg/api"
	"github.com/rhuss/plauder/pkg/debug"
	"github.com/rhuss/plauder/pkg/prompt"
	"github.com/rhuss/plauder/pkg/provider"
	"github.com/rhuss/plauder/pkg/provider/native"
	"github.com/rhuss/plauder/pkg/provider/openaicompat"
	"github.com/rhuss/plauder/pkg/translate"
)

// VendorFactory creates the vendor capability for a native session.
// baseURL is empty when the vendor default endpoint should be used.
type VendorFactory func(ctx context.Context, credential, baseURL string) (native.Vendor, error)

// GenAIVendor is the VendorFactory backed by the GenAI SDK.
func GenAIVendor(ctx context.Context, credential, baseURL string) (native.Vendor, error) {
	return native.NewGenAI(ctx, credential, baseURL)
}

// Options carries the collaborators of a Session.
type Options struct {
	// NewVendor creates the native vendor capability. When nil the
	// generic transport is always selected.
	NewVendor VendorFactory

	// FallbackBaseURL is a generic endpoint translation falls back to
	// when the vendor path fails. Ignored for generic sessions.
	FallbackBaseURL string

	// HTTPTimeout bounds non-streaming generic calls. Zero uses the
	// client default.
	HTTPTimeout time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Session is one initialized conversation context. It is safe for
// concurrent use: nothing in it changes after New returns.
type Session struct {
	transport   provider.Transport
	translator  *translate.Translator
	instruction string
	model       string
	temperature float64
	baseURL     string
	credential  string
	now         func() time.Time
}

// New compiles the system instruction for cfg and selects the transport.
// A base URL on the vendor domain (or none at all) selects the native
// transport when opts provides a vendor factory; everything else goes
// through the generic Chat Completions client.
func New(ctx context.Context, cfg api.ChatConfig, opts Options) (*Session, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Session{
		instruction: prompt.Build(cfg, now()),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		baseURL:     strings.TrimSpace(cfg.BaseURL),
		credential:  cfg.Credential(),
		now:         now,
	}

	if opts.NewVendor != nil && native.IsVendorURL(s.baseURL) {
		vendor, err := opts.NewVendor(ctx, s.credential, s.baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create vendor session capability: %w", err)
		}
		s.transport = native.NewClient(vendor)

		var fallback translate.Completer
		if opts.FallbackBaseURL != "" {
			fallback = openaicompat.NewClient(opts.FallbackBaseURL, s.credential, opts.HTTPTimeout)
		}
		s.translator = translate.New(vendor, fallback, s.model)
	} else {
		if s.baseURL == "" {
			return nil, api.NewInvalidRequestError("base_url", "base_url is required for the generic transport")
		}
		client := openaicompat.NewClient(s.baseURL, s.credential, opts.HTTPTimeout)
		s.transport = client
		s.translator = translate.New(nil, client, s.model)
	}

	s.transport = provider.Chain(provider.Logging(nil), provider.Recovery())(s.transport)

	slog.Info("session initialized",
		"transport", s.transport.Name(),
		"model", s.model,
		"base_url", s.baseURL,
	)
	debug.Log("session", "instruction compiled", "length", len(s.instruction))
	return s, nil
}

// Transport returns the name of the selected transport.
func (s *Session) Transport() string { return s.transport.Name() }

// Instruction returns the compiled system instruction.
func (s *Session) Instruction() string { return s.instruction }

// Model returns the active model name.
func (s *Session) Model() string { return s.model }

// Temperature returns the active sampling temperature.
func (s *Session) Temperature() float64 { return s.temperature }

// BaseURL returns the configured base URL.
func (s *Session) BaseURL() string { return s.baseURL }

// Stream streams the reply to the trailing user turn of history. When the
// trailing run of user messages has no content the sequence yields
// api.ErrNothingToReply without touching the network.
func (s *Session) Stream(ctx context.Context, history []api.Message) iter.Seq2[string, error] {
	if _, _, ok := provider.PendingTurn(history); !ok {
		return func(yield func(string, error) bool) {
			yield("", api.ErrNothingToReply)
		}
	}
	return s.transport.Stream(ctx, &provider.Request{
		Model:       s.model,
		Instruction: s.instruction,
		Temperature: s.temperature,
		History:     history,
	})
}

// Reply streams the reply, aggregates it and splits it into model
// messages. If the stream aborts, the messages built from the deltas
// received so far are returned together with the error.
func (s *Session) Reply(ctx context.Context, history []api.Message) ([]api.Message, error) {
	var sb strings.Builder
	var streamErr error
	for delta, err := range s.Stream(ctx, history) {
		if err != nil {
			streamErr = err
			break
		}
		sb.WriteString(delta)
	}

	now := s.now()
	parts := prompt.Split(sb.String())
	msgs := make([]api.Message, 0, len(parts))
	for _, p := range parts {
		msgs = append(msgs, api.NewMessage(api.RoleModel, p, now))
	}
	debug.Log("session", "reply aggregated", "chars", sb.Len(), "messages", len(msgs), "error", streamErr)
	return msgs, streamErr
}

// Translate translates text into the language identified by targetCode.
// It never fails; see translate.Failed and translate.Unavailable.
func (s *Session) Translate(ctx context.Context, text, targetCode string) string {
	return s.translator.Translate(ctx, text, targetCode)
}

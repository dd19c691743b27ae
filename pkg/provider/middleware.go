package provider

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/rhuss/plauder/pkg/api"
)

// Middleware wraps a Transport to add cross-cutting behavior.
// Middleware is applied in order: the first middleware in the chain is
// the outermost wrapper.
type Middleware func(Transport) Transport

// Chain composes multiple middleware into a single middleware.
// Chain(a, b, c) produces a(b(c(transport))).
func Chain(middlewares ...Middleware) Middleware {
	return func(next Transport) Transport {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// StreamFunc adapts a function to a Transport with the given name.
type StreamFunc struct {
	TransportName string
	Func          func(ctx context.Context, req *Request) iter.Seq2[string, error]
}

// Name returns the transport identifier.
func (f StreamFunc) Name() string { return f.TransportName }

// Stream calls f.Func.
func (f StreamFunc) Stream(ctx context.Context, req *Request) iter.Seq2[string, error] {
	return f.Func(ctx, req)
}

// Logging returns middleware that emits one structured log entry per
// stream once it ends: completed, failed, or abandoned by the consumer.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Transport) Transport {
		return StreamFunc{TransportName: next.Name(), Func: func(ctx context.Context, req *Request) iter.Seq2[string, error] {
			return func(yield func(string, error) bool) {
				start := time.Now()
				deltas := 0
				var streamErr error
				abandoned := false

				for delta, err := range next.Stream(ctx, req) {
					if err != nil {
						streamErr = err
					} else {
						deltas++
					}
					if !yield(delta, err) {
						abandoned = err == nil
						break
					}
				}

				attrs := []slog.Attr{
					slog.String("transport", next.Name()),
					slog.String("model", req.Model),
					slog.Int("deltas", deltas),
					slog.Duration("duration", time.Since(start)),
				}
				switch {
				case streamErr != nil:
					attrs = append(attrs, slog.String("error", streamErr.Error()))
					logger.LogAttrs(ctx, slog.LevelError, "stream failed", attrs...)
				case abandoned:
					logger.LogAttrs(ctx, slog.LevelInfo, "stream abandoned", attrs...)
				default:
					logger.LogAttrs(ctx, slog.LevelInfo, "stream completed", attrs...)
				}
			}
		}}
	}
}

// Recovery returns middleware that catches panics raised while a stream
// is produced and delivers them as a final server error element. Panics
// from the consumer's loop body are not intercepted.
func Recovery() Middleware {
	return func(next Transport) Transport {
		return StreamFunc{TransportName: next.Name(), Func: func(ctx context.Context, req *Request) iter.Seq2[string, error] {
			return func(yield func(string, error) bool) {
				inYield, stopped := false, false
				defer func() {
					if r := recover(); r != nil {
						if inYield || stopped {
							panic(r)
						}
						yield("", api.NewServerError(fmt.Sprintf("internal error in %s transport: %v", next.Name(), r)))
					}
				}()
				for delta, err := range next.Stream(ctx, req) {
					inYield = true
					ok := yield(delta, err)
					inYield = false
					if !ok {
						stopped = true
						return
					}
				}
			}
		}}
	}
}

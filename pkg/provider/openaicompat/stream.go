package openaicompat

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/rhuss/plauder/pkg/api"
	"github.com/rhuss/plauder/pkg/debug"
	"github.com/rhuss/plauder/pkg/observability"
)

// readChunkSize bounds a single read from the response body.
const readChunkSize = 4096

// doneSentinel is the payload of the frame that ends a stream.
const doneSentinel = "[DONE]"

// DeltaReader pulls content deltas out of a Chat Completions SSE body.
//
// SSE format expected:
//
//	data: {"id":"...","choices":[{"delta":{"content":"Hi"}}]}\n
//	\n
//	data: [DONE]\n
//
// Each call to Next performs at most one read of the underlying body per
// loop iteration and only when no complete line is buffered. A trailing
// fragment without a newline is discarded at end of stream.
type DeltaReader struct {
	src     io.Reader
	chunk   []byte
	pending string
	err     error
}

// NewDeltaReader wraps body with an incremental UTF-8 decoder. Decoder
// state survives across reads, so a character split between two reads
// decodes once both halves have arrived.
func NewDeltaReader(body io.Reader) *DeltaReader {
	return &DeltaReader{
		src:   transform.NewReader(body, unicode.UTF8.NewDecoder()),
		chunk: make([]byte, readChunkSize),
	}
}

// Next returns the next non-empty content delta. It returns io.EOF once
// the body is exhausted, or an APIError if reading fails.
func (d *DeltaReader) Next() (string, error) {
	for {
		for {
			i := strings.IndexByte(d.pending, '\n')
			if i < 0 {
				break
			}
			line := d.pending[:i]
			d.pending = d.pending[i+1:]
			if delta, ok := parseLine(line); ok {
				return delta, nil
			}
		}

		if d.err != nil {
			if d.pending != "" {
				debug.Log("streaming", "discarding unterminated trailing fragment",
					"bytes", len(d.pending),
				)
				d.pending = ""
			}
			return "", d.err
		}

		n, err := d.src.Read(d.chunk)
		if n > 0 {
			d.pending += string(d.chunk[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.err = io.EOF
			} else {
				d.err = api.NewServerError("SSE stream read error: " + err.Error())
			}
		}
	}
}

// parseLine extracts the content delta carried by one SSE line. ok is
// false for blank lines, comments, the [DONE] frame, malformed JSON and
// frames without content.
func parseLine(line string) (string, bool) {
	payload := strings.TrimSpace(line)
	payload = strings.TrimPrefix(payload, "data:")
	payload = strings.TrimSpace(payload)

	if payload == "" || payload == doneSentinel || strings.HasPrefix(payload, ":") {
		return "", false
	}

	var chunk ChatCompletionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		observability.MalformedFramesTotal.Inc()
		slog.Warn("skipping malformed SSE chunk",
			"error", err.Error(),
			"data", debug.Truncate(payload, 200),
		)
		return "", false
	}

	if len(chunk.Choices) == 0 {
		return "", false
	}
	content := chunk.Choices[0].Delta.Content
	if content == nil || *content == "" {
		return "", false
	}
	return *content, true
}

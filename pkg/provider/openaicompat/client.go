package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/plauder/pkg/api"
	"github.com/rhuss/plauder/pkg/debug"
	"github.com/rhuss/plauder/pkg/observability"
	"github.com/rhuss/plauder/pkg/provider"
)

// Client performs HTTP requests against an OpenAI-compatible Chat
// Completions backend. It implements provider.Transport.
type Client struct {
	httpClient *http.Client
	baseURL    string
	credential string
}

var _ provider.Transport = (*Client)(nil)

// NewClient creates a new Client for an OpenAI-compatible backend. The
// timeout applies to non-streaming calls only.
func NewClient(baseURL, credential string, timeout time.Duration) *Client {
	// Normalize: remove trailing slash from base URL.
	baseURL = strings.TrimRight(baseURL, "/")

	if timeout == 0 {
		timeout = 120 * time.Second
	}

	if credential != "" && !IsHeaderSafe(credential) {
		slog.Warn("credential contains non-ASCII characters, requests are sent without Authorization header",
			"base_url", baseURL,
		)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    baseURL,
		credential: credential,
	}
}

// Name returns the transport identifier.
func (c *Client) Name() string { return provider.TransportGeneric }

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Stream performs streaming inference against the Chat Completions
// endpoint. The request is sent when iteration starts; breaking out of the
// loop closes the response body.
//
// The HTTP client timeout is not applied for streaming requests because a
// stream can legitimately last longer than any fixed timeout. Lifecycle
// control relies on context cancellation instead.
func (c *Client) Stream(ctx context.Context, req *provider.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		chatReq := ChatCompletionRequest{
			Model:       req.Model,
			Messages:    ToChatMessages(req.Instruction, req.History),
			Temperature: req.Temperature,
			Stream:      true,
		}

		start := time.Now()
		httpResp, err := c.send(ctx, chatReq, &http.Client{Transport: c.httpClient.Transport})
		observability.ObserveRequest(provider.TransportGeneric, req.Model, start, err)
		if err != nil {
			yield("", err)
			return
		}
		defer httpResp.Body.Close()

		observability.StreamsActive.Inc()
		defer observability.StreamsActive.Dec()

		deltas := NewDeltaReader(httpResp.Body)
		for {
			delta, err := deltas.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				// Context cancellation surfaces as a read error; report the cause.
				if ctx.Err() != nil {
					err = ctx.Err()
				}
				yield("", err)
				return
			}
			observability.StreamDeltasTotal.WithLabelValues(provider.TransportGeneric).Inc()
			if !yield(delta, nil) {
				debug.Log("streaming", "consumer stopped iteration, closing stream")
				return
			}
		}
	}
}

// Complete performs one non-streaming call and returns the trimmed content
// of the first choice.
func (c *Client) Complete(ctx context.Context, model string, messages []ChatMessage, temperature float64) (string, error) {
	chatReq := ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	}

	start := time.Now()
	httpResp, err := c.send(ctx, chatReq, c.httpClient)
	observability.ObserveRequest(provider.TransportGeneric, model, start, err)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	var chatResp ChatCompletionResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chatResp); err != nil {
		return "", api.NewServerError(fmt.Sprintf("failed to parse backend response: %s", err.Error()))
	}
	if len(chatResp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// send posts chatReq and returns the response when its status is 2xx.
func (c *Client) send(ctx context.Context, chatReq ChatCompletionRequest, hc *http.Client) (*http.Response, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := c.baseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if chatReq.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	setAuthorization(httpReq.Header, c.credential)

	debug.Log("providers", "request",
		"method", http.MethodPost,
		"url", url,
		"model", chatReq.Model,
		"messages", len(chatReq.Messages),
		"stream", chatReq.Stream,
	)
	debug.Raw("providers", string(body))

	httpResp, err := hc.Do(httpReq)
	if err != nil {
		return nil, MapNetworkError(err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, MapHTTPError(httpResp)
	}
	return httpResp, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// ToChatMessages prepends the system instruction and maps conversation
// roles onto Chat Completions roles.
func ToChatMessages(instruction string, history []api.Message) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(history)+1)
	if instruction != "" {
		msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: instruction})
	}
	for _, m := range history {
		role := RoleUser
		if m.Role == api.RoleModel {
			role = RoleAssistant
		}
		msgs = append(msgs, ChatMessage{Role: role, Content: m.Content})
	}
	return msgs
}

// Command mock-backend runs a deterministic Chat Completions server for
// local demos and end-to-end tests of plauder. Replies honour the output
// format directive found in the system message: the number of segments
// lies within the requested bounds, each segment respects the character
// limit, and segments are joined by the message break sentinel.
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 9090)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rhuss/plauder/pkg/prompt"
	"github.com/rhuss/plauder/pkg/provider/openaicompat"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	srv := &http.Server{Addr: ":" + port, Handler: newMux()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}

// --- Handler ---

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req openaicompat.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	model := req.Model
	if model == "" {
		model = "mock-model"
	}

	text := respond(req.Messages)
	slog.Info("mock reply", "model", model, "stream", req.Stream, "chars", len(text))

	if req.Stream {
		handleStreaming(w, model, text)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(openaicompat.ChatCompletionResponse{
		ID:     "chatcmpl-mock-text",
		Object: "chat.completion",
		Model:  model,
		Choices: []openaicompat.ChatChoice{{
			Index:        0,
			Message:      openaicompat.ChatMessage{Role: openaicompat.RoleAssistant, Content: text},
			FinishReason: "stop",
		}},
	})
}

// --- Reply generation ---

var (
	rangePattern    = regexp.MustCompile(`between (\d+) and (\d+) messages`)
	exactPattern    = regexp.MustCompile(`exactly (\d+) messages`)
	maxCharsPattern = regexp.MustCompile(`at most (\d+) characters`)
	targetPattern   = regexp.MustCompile(`^Translate the following text into ([^.\n]+)\.`)
)

// cannedSegments are cycled through to build replies.
var cannedSegments = []string{
	"Oh, hi!",
	"I was just thinking about you.",
	"How has your day been so far?",
	"Tell me everything.",
	"I made tea, want some?",
}

// respond builds the deterministic reply to a conversation.
func respond(messages []openaicompat.ChatMessage) string {
	last := lastUserMessage(messages)

	// Translation requests carry no system message.
	if m := targetPattern.FindStringSubmatch(last); m != nil && systemMessage(messages) == "" {
		text := last
		if i := strings.LastIndex(last, "\nText:\n"); i >= 0 {
			text = last[i+len("\nText:\n"):]
		}
		return fmt.Sprintf("[%s] %s", m[1], strings.TrimSpace(text))
	}

	lo, hi, maxChars := formatBounds(systemMessage(messages))
	n := lo
	if hi > lo {
		n += len([]rune(last)) % (hi - lo + 1)
	}

	segments := make([]string, 0, n)
	segments = append(segments, clip(fmt.Sprintf("You said: %s", last), maxChars))
	for i := 1; i < n; i++ {
		segments = append(segments, clip(cannedSegments[(i-1)%len(cannedSegments)], maxChars))
	}
	return strings.Join(segments, prompt.MessageBreak)
}

// formatBounds extracts the segment count bounds and character limit from
// a system instruction. Missing values default to a single segment of
// unlimited length.
func formatBounds(system string) (lo, hi, maxChars int) {
	lo, hi = 1, 1
	if m := rangePattern.FindStringSubmatch(system); m != nil {
		lo, _ = strconv.Atoi(m[1])
		hi, _ = strconv.Atoi(m[2])
	} else if m := exactPattern.FindStringSubmatch(system); m != nil {
		lo, _ = strconv.Atoi(m[1])
		hi = lo
	}
	if m := maxCharsPattern.FindStringSubmatch(system); m != nil {
		maxChars, _ = strconv.Atoi(m[1])
	}
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi, maxChars
}

// clip cuts s to at most n runes. n <= 0 means no limit.
func clip(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

// --- Streaming ---

// streamChunkRunes is the size of each streamed content delta. It is
// small enough that the sentinel regularly straddles deltas.
const streamChunkRunes = 4

func handleStreaming(w http.ResponseWriter, model, text string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send role chunk.
	writeSSEChunk(w, model, nil, "", true)
	flusher.Flush()

	runes := []rune(text)
	for i := 0; i < len(runes); i += streamChunkRunes {
		token := string(runes[i:min(i+streamChunkRunes, len(runes))])
		writeSSEChunk(w, model, &token, "", false)
		flusher.Flush()
	}

	writeSSEChunk(w, model, nil, "stop", false)
	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeSSEChunk(w http.ResponseWriter, model string, content *string, finishReason string, isRole bool) {
	choice := openaicompat.ChatChunkChoice{
		Delta: openaicompat.ChatChunkDelta{Content: content},
	}
	if isRole {
		choice.Delta.Role = openaicompat.RoleAssistant
	}
	if finishReason != "" {
		choice.FinishReason = &finishReason
	}

	data, _ := json.Marshal(openaicompat.ChatCompletionChunk{
		ID:      "chatcmpl-mock-stream",
		Object:  "chat.completion.chunk",
		Model:   model,
		Choices: []openaicompat.ChatChunkChoice{choice},
	})
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// --- Models endpoint ---

func handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "mock-model", "object": "model", "owned_by": "plauder-mock"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- Helpers ---

func lastUserMessage(messages []openaicompat.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == openaicompat.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func systemMessage(messages []openaicompat.ChatMessage) string {
	for _, msg := range messages {
		if msg.Role == openaicompat.RoleSystem {
			return msg.Content
		}
	}
	return ""
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rhuss/plauder/pkg/session"
)

// backend answers streaming requests with a two-message reply and
// non-streaming requests with a fixed translation.
func backend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Stream bool `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if !req.Stream {
			fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"translated"}}]}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, d := range []string{"Morning!", "---MSG_BR", "EAK---", "Coffee?"} {
			chunk, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{{"delta": map[string]string{"content": d}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	for _, k := range []string{"PLAUDER_CONFIG", "PLAUDER_BASE_URL", "PLAUDER_MODEL", "PLAUDER_API_KEY", "PLAUDER_LANGUAGE", "PLAUDER_TEMPERATURE", "PLAUDER_METRICS_ADDR"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "plauder.yaml")
	content := fmt.Sprintf(`chat:
  ai_persona: "A sleepy barista."
  user_name: Mika
  model: mock-model
  base_url: %s
  api_key: sk-test
  language: en
translation:
  target_language: ja
`, baseURL)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	fixed := time.Date(2025, 1, 1, 6, 30, 0, 0, time.UTC)
	root := newRootCmd(session.Options{Now: func() time.Time { return fixed }})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestChat_StreamsSegments(t *testing.T) {
	cfg := writeConfig(t, backend(t).URL)

	out, err := execute(t, "hello\n/quit\n", "chat", "--config", cfg)
	if err != nil {
		t.Fatalf("chat error = %v\n%s", err, out)
	}
	for _, want := range []string{"Mika>", "ai> Morning!\n", "ai> Coffee?\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "MSG_BR") {
		t.Errorf("sentinel leaked into output:\n%s", out)
	}
}

func TestChat_NoStreamAndTranslate(t *testing.T) {
	cfg := writeConfig(t, backend(t).URL)

	out, err := execute(t, "hello\n", "chat", "--config", cfg, "--no-stream", "--translate")
	if err != nil {
		t.Fatalf("chat error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "ai> Morning!") || !strings.Contains(out, "ai> Coffee?") {
		t.Errorf("reply not rendered:\n%s", out)
	}
	if strings.Count(out, "translated") != 2 {
		t.Errorf("want one translation per message:\n%s", out)
	}
}

func TestChat_Commands(t *testing.T) {
	cfg := writeConfig(t, backend(t).URL)

	out, err := execute(t, "/help\n/translate\nhi\n/translate\n/reset\n/translate\n/quit\n", "chat", "--config", cfg)
	if err != nil {
		t.Fatalf("chat error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "/reset") {
		t.Errorf("help not shown:\n%s", out)
	}
	if strings.Count(out, "Nothing to translate yet.") != 2 {
		t.Errorf("want two empty-history hints:\n%s", out)
	}
	if strings.Count(out, "translated") != 2 {
		t.Errorf("want the last reply translated once:\n%s", out)
	}
	if !strings.Contains(out, "Conversation cleared.") {
		t.Errorf("reset not confirmed:\n%s", out)
	}
}

func TestChat_BackendErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	cfg := writeConfig(t, srv.URL)

	out, err := execute(t, "hello\n", "chat", "--config", cfg)
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	if !strings.Contains(out, "model overloaded") {
		t.Errorf("backend error not shown:\n%s", out)
	}
}

func TestPromptCmd(t *testing.T) {
	cfg := writeConfig(t, "http://unused")

	out, err := execute(t, "", "prompt", "--config", cfg)
	if err != nil {
		t.Fatalf("prompt error = %v", err)
	}
	for _, want := range []string{"A sleepy barista.", "Mika", "---MSG_BREAK---"} {
		if !strings.Contains(out, want) {
			t.Errorf("instruction missing %q:\n%s", want, out)
		}
	}
}

func TestTranslateCmd(t *testing.T) {
	cfg := writeConfig(t, backend(t).URL)

	out, err := execute(t, "", "translate", "--config", cfg, "--to", "ko", "good", "morning")
	if err != nil {
		t.Fatalf("translate error = %v", err)
	}
	if strings.TrimSpace(out) != "translated" {
		t.Errorf("output = %q, want %q", out, "translated")
	}
}

func TestConfigErrorFailsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plauder.yaml")
	if err := os.WriteFile(path, []byte("chat:\n  max_chars: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "", "prompt", "--config", path); err == nil || !strings.Contains(err.Error(), "chat.max_chars") {
		t.Fatalf("error = %v, want validation error", err)
	}
}

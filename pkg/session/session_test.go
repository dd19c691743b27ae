package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rhuss/plauder/pkg/api"
	"github.com/rhuss/plauder/pkg/provider"
	"github.com/rhuss/plauder/pkg/provider/native"
	"github.com/rhuss/plauder/pkg/translate"
)

var fixedNow = time.Date(2025, 1, 1, 6, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// sseServer streams each delta as one chat-completions chunk and counts
// requests.
func sseServer(t *testing.T, deltas ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, d := range deltas {
			chunk, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": d}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

type fakeVendor struct {
	deltas    []string
	streamErr error
	generated string

	credential string
	baseURL    string
	configs    []native.SessionConfig
}

func (f *fakeVendor) factory(ctx context.Context, credential, baseURL string) (native.Vendor, error) {
	f.credential = credential
	f.baseURL = baseURL
	return f, nil
}

func (f *fakeVendor) CreateSession(ctx context.Context, cfg native.SessionConfig) (native.Session, error) {
	f.configs = append(f.configs, cfg)
	return f, nil
}

func (f *fakeVendor) Generate(ctx context.Context, model, prompt string) (string, error) {
	return f.generated, nil
}

func (f *fakeVendor) StreamSend(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, d := range f.deltas {
			if !yield(d, nil) {
				return
			}
		}
		if f.streamErr != nil {
			yield("", f.streamErr)
		}
	}
}

func userTurn(content string) []api.Message {
	return []api.Message{api.NewMessage(api.RoleUser, content, fixedNow)}
}

func baseConfig(baseURL string) api.ChatConfig {
	return api.ChatConfig{
		AIPersona:   "A cheerful barista.",
		UserName:    "Mika",
		Model:       "test-model",
		BaseURL:     baseURL,
		APIKey:      "  sk-test \n",
		Temperature: 0.7,
		Language:    api.LanguageEnglish,
		MinMessages: 1,
		MaxMessages: 3,
		MaxChars:    80,
	}
}

func TestNew_SelectsGeneric(t *testing.T) {
	srv, _ := sseServer(t)
	vendor := &fakeVendor{}

	s, err := New(context.Background(), baseConfig(srv.URL), Options{NewVendor: vendor.factory, Now: fixedClock})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Transport() != provider.TransportGeneric {
		t.Errorf("Transport() = %q, want %q", s.Transport(), provider.TransportGeneric)
	}
	if vendor.configs != nil || vendor.credential != "" {
		t.Error("vendor factory used for a non-vendor base URL")
	}
	if s.Model() != "test-model" || s.Temperature() != 0.7 || s.BaseURL() != srv.URL {
		t.Errorf("snapshot = (%q, %v, %q)", s.Model(), s.Temperature(), s.BaseURL())
	}
	if !strings.Contains(s.Instruction(), "A cheerful barista.") {
		t.Error("instruction does not contain the persona")
	}
}

func TestNew_SelectsNative(t *testing.T) {
	for _, baseURL := range []string{"", "https://generativelanguage.googleapis.com", "https://generativelanguage.googleapis.com/v1beta"} {
		t.Run(baseURL, func(t *testing.T) {
			vendor := &fakeVendor{}
			s, err := New(context.Background(), baseConfig(baseURL), Options{NewVendor: vendor.factory, Now: fixedClock})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if s.Transport() != provider.TransportNative {
				t.Errorf("Transport() = %q, want %q", s.Transport(), provider.TransportNative)
			}
			if vendor.credential != "sk-test" {
				t.Errorf("factory credential = %q, want trimmed %q", vendor.credential, "sk-test")
			}
			if vendor.baseURL != baseURL {
				t.Errorf("factory baseURL = %q, want %q", vendor.baseURL, baseURL)
			}
		})
	}
}

func TestNew_VendorURLWithoutFactoryUsesGeneric(t *testing.T) {
	s, err := New(context.Background(), baseConfig("https://generativelanguage.googleapis.com"), Options{Now: fixedClock})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Transport() != provider.TransportGeneric {
		t.Errorf("Transport() = %q, want %q", s.Transport(), provider.TransportGeneric)
	}
}

func TestNew_GenericRequiresBaseURL(t *testing.T) {
	_, err := New(context.Background(), baseConfig(""), Options{Now: fixedClock})

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Param != "base_url" {
		t.Fatalf("New() error = %v, want invalid_request on base_url", err)
	}
}

func TestNew_VendorFactoryError(t *testing.T) {
	boom := errors.New("no key")
	_, err := New(context.Background(), baseConfig(""), Options{
		NewVendor: func(context.Context, string, string) (native.Vendor, error) { return nil, boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("New() error = %v, want wrapped %v", err, boom)
	}
}

func TestSession_StreamGeneric(t *testing.T) {
	srv, _ := sseServer(t, "Hel", "lo", "!")
	s, err := New(context.Background(), baseConfig(srv.URL), Options{Now: fixedClock})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var got []string
	for delta, err := range s.Stream(context.Background(), userTurn("hi")) {
		if err != nil {
			t.Fatalf("stream error = %v", err)
		}
		got = append(got, delta)
	}
	if diff := cmp.Diff([]string{"Hel", "lo", "!"}, got); diff != "" {
		t.Errorf("deltas mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_StreamNothingToReply(t *testing.T) {
	srv, hits := sseServer(t, "unused")
	s, err := New(context.Background(), baseConfig(srv.URL), Options{Now: fixedClock})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	histories := map[string][]api.Message{
		"empty":         nil,
		"ends on model": {api.NewMessage(api.RoleUser, "hi", fixedNow), api.NewMessage(api.RoleModel, "hey", fixedNow)},
		"blank user":    userTurn("   "),
	}
	for name, history := range histories {
		t.Run(name, func(t *testing.T) {
			var errs []error
			for _, err := range s.Stream(context.Background(), history) {
				errs = append(errs, err)
			}
			if len(errs) != 1 || !errors.Is(errs[0], api.ErrNothingToReply) {
				t.Errorf("errors = %v, want [ErrNothingToReply]", errs)
			}
		})
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times, want 0", hits.Load())
	}
}

func TestSession_ReplySplits(t *testing.T) {
	srv, _ := sseServer(t, "Hi there", "---MSG_", "BREAK---", "How are you?")
	s, err := New(context.Background(), baseConfig(srv.URL), Options{Now: fixedClock})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	msgs, err := s.Reply(context.Background(), userTurn("hello"))
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	var contents []string
	for _, m := range msgs {
		if m.Role != api.RoleModel {
			t.Errorf("role = %q, want %q", m.Role, api.RoleModel)
		}
		if !api.ValidateMessageID(m.ID) {
			t.Errorf("invalid message ID %q", m.ID)
		}
		if !m.Timestamp.Equal(fixedNow) {
			t.Errorf("timestamp = %v, want %v", m.Timestamp, fixedNow)
		}
		contents = append(contents, m.Content)
	}
	if diff := cmp.Diff([]string{"Hi there", "How are you?"}, contents); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_ReplyNativeKeepsPartial(t *testing.T) {
	boom := errors.New("stream reset")
	vendor := &fakeVendor{deltas: []string{"first", "---MSG_BREAK---sec"}, streamErr: boom}
	s, err := New(context.Background(), baseConfig(""), Options{NewVendor: vendor.factory, Now: fixedClock})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	msgs, err := s.Reply(context.Background(), userTurn("hello"))
	if err == nil {
		t.Fatal("Reply() error = nil, want stream error")
	}
	var contents []string
	for _, m := range msgs {
		contents = append(contents, m.Content)
	}
	if diff := cmp.Diff([]string{"first", "sec"}, contents); diff != "" {
		t.Errorf("partial messages mismatch (-want +got):\n%s", diff)
	}
	if len(vendor.configs) != 1 || vendor.configs[0].Instruction != s.Instruction() {
		t.Error("vendor session not created with the compiled instruction")
	}
}

func TestSession_TranslateNative(t *testing.T) {
	vendor := &fakeVendor{generated: " Good morning "}
	s, err := New(context.Background(), baseConfig(""), Options{NewVendor: vendor.factory, Now: fixedClock})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := s.Translate(context.Background(), "おはよう", "en"); got != "Good morning" {
		t.Errorf("Translate() = %q, want %q", got, "Good morning")
	}
}

func TestSession_TranslateGenericUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"down"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s, err := New(context.Background(), baseConfig(srv.URL), Options{Now: fixedClock})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := s.Translate(context.Background(), "你好", "en"); got != translate.Unavailable {
		t.Errorf("Translate() = %q, want %q", got, translate.Unavailable)
	}
}

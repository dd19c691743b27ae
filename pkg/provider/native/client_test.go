package native

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rhuss/plauder/pkg/api"
	"github.com/rhuss/plauder/pkg/provider"
)

// fakeVendor records session configs and replays canned deltas.
type fakeVendor struct {
	deltas    []string
	streamErr error
	createErr error

	configs []SessionConfig
	sent    []string
}

func (f *fakeVendor) CreateSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.configs = append(f.configs, cfg)
	return f, nil
}

func (f *fakeVendor) Generate(ctx context.Context, model, prompt string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeVendor) StreamSend(ctx context.Context, text string) iter.Seq2[string, error] {
	f.sent = append(f.sent, text)
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

func collect(c *Client, req *provider.Request) ([]string, error) {
	var out []string
	for d, err := range c.Stream(context.Background(), req) {
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
	return out, nil
}

func TestClient_Stream(t *testing.T) {
	fv := &fakeVendor{deltas: []string{"Hel", "", "lo"}}
	c := NewClient(fv)

	req := &provider.Request{
		Model:       "gemini-test",
		Instruction: "be kind",
		Temperature: 0.8,
		History: []api.Message{
			{Role: api.RoleUser, Content: "hi"},
			{Role: api.RoleModel, Content: "hey"},
			{Role: api.RoleUser, Content: "one"},
			{Role: api.RoleUser, Content: "two"},
		},
	}

	got, err := collect(c, req)
	if err != nil {
		t.Fatalf("Stream error: %v", err)
	}
	if diff := cmp.Diff([]string{"Hel", "lo"}, got); diff != "" {
		t.Errorf("deltas mismatch (-want +got):\n%s", diff)
	}

	if len(fv.configs) != 1 {
		t.Fatalf("sessions created = %d, want 1", len(fv.configs))
	}
	cfg := fv.configs[0]
	if cfg.Model != "gemini-test" || cfg.Instruction != "be kind" || cfg.Temperature != 0.8 {
		t.Errorf("session config = %+v", cfg)
	}
	if len(cfg.History) != 2 {
		t.Errorf("session history = %d messages, want 2", len(cfg.History))
	}
	if diff := cmp.Diff([]string{"one\ntwo"}, fv.sent); diff != "" {
		t.Errorf("sent text mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_StreamNothingToReply(t *testing.T) {
	fv := &fakeVendor{}
	_, err := collect(NewClient(fv), &provider.Request{
		History: []api.Message{{Role: api.RoleModel, Content: "hey"}},
	})
	if !errors.Is(err, api.ErrNothingToReply) {
		t.Fatalf("error = %v, want ErrNothingToReply", err)
	}
	if len(fv.configs) != 0 {
		t.Error("vendor session created despite failed precondition")
	}
}

func TestClient_StreamErrorKeepsPartialDeltas(t *testing.T) {
	fv := &fakeVendor{deltas: []string{"par"}, streamErr: errors.New("quota exceeded")}
	got, err := collect(NewClient(fv), &provider.Request{
		History: []api.Message{{Role: api.RoleUser, Content: "hi"}},
	})

	if diff := cmp.Diff([]string{"par"}, got); diff != "" {
		t.Errorf("deltas mismatch (-want +got):\n%s", diff)
	}
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeModelError {
		t.Fatalf("error = %v, want model_error APIError", err)
	}
}

func TestClient_StreamCreateSessionError(t *testing.T) {
	fv := &fakeVendor{createErr: errors.New("invalid key")}
	_, err := collect(NewClient(fv), &provider.Request{
		History: []api.Message{{Role: api.RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error from failed session creation")
	}
}

func TestClient_StreamBreak(t *testing.T) {
	fv := &fakeVendor{deltas: []string{"a", "b", "c"}}
	var got []string
	for d, err := range NewClient(fv).Stream(context.Background(), &provider.Request{
		History: []api.Message{{Role: api.RoleUser, Content: "hi"}},
	}) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, d)
		if len(got) == 2 {
			break
		}
	}
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("deltas mismatch (-want +got):\n%s", diff)
	}
}

func TestIsVendorURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"", true},
		{"https://generativelanguage.googleapis.com", true},
		{"https://generativelanguage.googleapis.com/v1beta/", true},
		{"generativelanguage.googleapis.com", true},
		{"https://GenerativeLanguage.googleapis.com", true},
		{"https://eu.generativelanguage.googleapis.com", true},
		{"https://api.openai.com", false},
		{"http://localhost:9090", false},
		{"https://generativelanguage.googleapis.com.evil.example", false},
		{"https://proxy.example/generativelanguage.googleapis.com", false},
	}
	for _, tt := range tests {
		if got := IsVendorURL(tt.url); got != tt.want {
			t.Errorf("IsVendorURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestNewGenAI_RequiresKey(t *testing.T) {
	if _, err := NewGenAI(context.Background(), "", ""); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

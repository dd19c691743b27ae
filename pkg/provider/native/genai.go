package native

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"github.com/rhuss/plauder/pkg/api"
)

// GenAI is a Vendor backed by the Google GenAI SDK.
type GenAI struct {
	client *genai.Client
}

var _ Vendor = (*GenAI)(nil)

// NewGenAI creates a GenAI vendor. baseURL overrides the SDK default
// endpoint when set.
func NewGenAI(ctx context.Context, apiKey, baseURL string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAI{client: client}, nil
}

// CreateSession opens a GenAI chat with the system instruction,
// temperature and history of cfg.
func (g *GenAI) CreateSession(ctx context.Context, cfg SessionConfig) (Session, error) {
	history := make([]*genai.Content, 0, len(cfg.History))
	for _, m := range cfg.History {
		var role genai.Role = genai.RoleUser
		if m.Role == api.RoleModel {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(m.Content, role))
	}

	chat, err := g.client.Chats.Create(ctx, cfg.Model, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(cfg.Instruction, genai.RoleUser),
		Temperature:       genai.Ptr(float32(cfg.Temperature)),
	}, history)
	if err != nil {
		return nil, fmt.Errorf("GenAI chat create failed: %w", err)
	}
	return &genaiSession{chat: chat}, nil
}

// Generate issues one GenerateContent call and returns the text output.
func (g *GenAI) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}

type genaiSession struct {
	chat *genai.Chat
}

func (s *genaiSession) StreamSend(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range s.chat.SendMessageStream(ctx, genai.Part{Text: text}) {
			if err != nil {
				yield("", err)
				return
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}

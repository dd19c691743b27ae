package api

import (
	"strings"
	"time"
)

// InjectionPosition selects the zone of the compiled system instruction a
// world entry is placed in.
type InjectionPosition string

const (
	PositionFront  InjectionPosition = "front"
	PositionMiddle InjectionPosition = "middle"
	PositionBack   InjectionPosition = "back"
)

// Normalize maps an absent or unknown position to PositionMiddle.
func (p InjectionPosition) Normalize() InjectionPosition {
	switch p {
	case PositionFront, PositionBack:
		return p
	default:
		return PositionMiddle
	}
}

// WorldEntry is a single piece of categorized world knowledge. Entries are
// owned by the caller's store and treated as immutable here.
type WorldEntry struct {
	ID       string            `json:"id" yaml:"id"`
	Title    string            `json:"title" yaml:"title"`
	Content  string            `json:"content" yaml:"content"`
	Category string            `json:"category,omitempty" yaml:"category"`
	Position InjectionPosition `json:"injection_position,omitempty" yaml:"position"`
}

// Language codes with a dedicated language directive.
const (
	LanguageChinese  = "zh"
	LanguageJapanese = "ja"
	LanguageEnglish  = "en"
	LanguageKorean   = "ko"
)

// ChatConfig holds everything needed to compile a system instruction and
// to open a transport for one conversation.
type ChatConfig struct {
	AIPersona   string       `json:"ai_persona" yaml:"ai_persona"`
	UserPersona string       `json:"user_persona" yaml:"user_persona"`
	UserName    string       `json:"user_name" yaml:"user_name"`
	World       []WorldEntry `json:"world,omitempty" yaml:"world"`

	Model       string  `json:"model" yaml:"model"`
	BaseURL     string  `json:"base_url" yaml:"base_url"`
	APIKey      string  `json:"-" yaml:"api_key"`
	APIKeyFile  string  `json:"-" yaml:"api_key_file"`
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// Language is the response language code (zh, ja, en, ko). Anything
	// else compiles to the zh directive.
	Language string `json:"language" yaml:"language"`

	TimeAware    bool   `json:"time_aware" yaml:"time_aware"`
	AITimezone   string `json:"ai_timezone" yaml:"ai_timezone"`
	UserTimezone string `json:"user_timezone" yaml:"user_timezone"`

	MinMessages int `json:"min_messages" yaml:"min_messages"`
	MaxMessages int `json:"max_messages" yaml:"max_messages"`
	MaxChars    int `json:"max_chars" yaml:"max_chars"`
}

// Credential returns the API key in its canonical, whitespace-trimmed form.
func (c ChatConfig) Credential() string {
	return strings.TrimSpace(c.APIKey)
}

// Role identifies the author of a Message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one discrete chat message. Messages are produced by the
// gateway and owned by the caller.
type Message struct {
	ID                string    `json:"id"`
	Role              Role      `json:"role"`
	Content           string    `json:"content"`
	Timestamp         time.Time `json:"timestamp"`
	TranslatedContent string    `json:"translated_content,omitempty"`
	ShowTranslation   bool      `json:"show_translation,omitempty"`
}

// NewMessage creates a message with a fresh ID stamped at now.
func NewMessage(role Role, content string, now time.Time) Message {
	return Message{
		ID:        NewMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
}

// DisplayContent returns the translation when it is present and currently
// shown, and the original content otherwise.
func (m Message) DisplayContent() string {
	if m.ShowTranslation && m.TranslatedContent != "" {
		return m.TranslatedContent
	}
	return m.Content
}

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rhuss/plauder/pkg/api"
)

// Validate checks the configuration for valid values. All problems are
// reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error
	chat := c.Chat

	if chat.MinMessages < 1 {
		errs = append(errs, fmt.Errorf("chat.min_messages must be >= 1, got %d", chat.MinMessages))
	}
	if chat.MaxMessages < chat.MinMessages {
		errs = append(errs, fmt.Errorf("chat.max_messages must be >= chat.min_messages (%d), got %d", chat.MinMessages, chat.MaxMessages))
	}
	if chat.MaxChars <= 0 {
		errs = append(errs, fmt.Errorf("chat.max_chars must be > 0, got %d", chat.MaxChars))
	}
	if chat.Temperature < 0 || chat.Temperature > 2 {
		errs = append(errs, fmt.Errorf("chat.temperature must be within [0, 2], got %v", chat.Temperature))
	}

	if !knownLanguage(chat.Language) {
		errs = append(errs, fmt.Errorf("chat.language must be one of zh, ja, en, ko, got %q", chat.Language))
	}
	if !knownLanguage(c.Translation.TargetLanguage) {
		errs = append(errs, fmt.Errorf("translation.target_language must be one of zh, ja, en, ko, got %q", c.Translation.TargetLanguage))
	}

	for field, tz := range map[string]string{
		"chat.ai_timezone":   chat.AITimezone,
		"chat.user_timezone": chat.UserTimezone,
	} {
		if tz == "" {
			continue
		}
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, fmt.Errorf("%s: unknown timezone %q", field, tz))
		}
	}

	for i, e := range chat.World {
		switch e.Position {
		case api.PositionFront, api.PositionMiddle, api.PositionBack, "":
			// valid
		default:
			errs = append(errs, fmt.Errorf("chat.world[%d].position must be \"front\", \"middle\" or \"back\", got %q", i, e.Position))
		}
	}

	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Addr == "" {
		errs = append(errs, fmt.Errorf("observability.metrics.addr is required when metrics are enabled"))
	}

	return errors.Join(errs...)
}

func knownLanguage(code string) bool {
	switch code {
	case api.LanguageChinese, api.LanguageJapanese, api.LanguageEnglish, api.LanguageKorean, "":
		return true
	}
	return false
}

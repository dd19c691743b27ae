// Package translate provides one-shot message translation with a
// vendor-then-generic fallback. Translate never fails: it returns either
// the translation or one of two fixed sentinel strings.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rhuss/plauder/pkg/debug"
	"github.com/rhuss/plauder/pkg/observability"
	"github.com/rhuss/plauder/pkg/prompt"
	"github.com/rhuss/plauder/pkg/provider/openaicompat"
)

// Sentinel results.
const (
	// Failed is returned when a translation call fails or yields nothing.
	Failed = "translation failed"

	// Unavailable is returned when the generic endpoint cannot be reached
	// or answers with a non-success status.
	Unavailable = "translation service unavailable"
)

// Temperature is the sampling temperature of generic translation calls.
const Temperature = 0.3

// Path labels for metrics.
const (
	pathVendor  = "vendor"
	pathGeneric = "generic"
)

// Generator is a non-streaming vendor generation call. native.Vendor
// satisfies it.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Completer is a non-streaming chat-completions call. *openaicompat.Client
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, model string, messages []openaicompat.ChatMessage, temperature float64) (string, error)
}

// Translator translates single messages. Either path may be nil. It holds
// no mutable state and is safe for concurrent use.
type Translator struct {
	vendor  Generator
	generic Completer
	model   string
}

// New creates a Translator. When both paths are set the vendor is tried
// first and the generic endpoint serves as fallback.
func New(vendor Generator, generic Completer, model string) *Translator {
	return &Translator{vendor: vendor, generic: generic, model: model}
}

// Translate returns text translated into the language identified by
// targetCode, or one of the sentinels Failed and Unavailable.
func (t *Translator) Translate(ctx context.Context, text, targetCode string) string {
	instruction := Instruction(text, targetCode)

	if t.vendor != nil {
		out, err := t.vendor.Generate(ctx, t.model, instruction)
		if err == nil {
			return t.finish(pathVendor, out)
		}
		slog.Warn("vendor translation failed", "model", t.model, "error", err)
		observability.TranslationsTotal.WithLabelValues(pathVendor, "error").Inc()
		if t.generic == nil {
			return Failed
		}
		debug.Log("translate", "falling back to generic endpoint")
	}

	if t.generic == nil {
		return Unavailable
	}

	out, err := t.generic.Complete(ctx, t.model, []openaicompat.ChatMessage{
		{Role: openaicompat.RoleUser, Content: instruction},
	}, Temperature)
	if err != nil {
		slog.Warn("generic translation failed", "model", t.model, "error", err)
		observability.TranslationsTotal.WithLabelValues(pathGeneric, "error").Inc()
		return Unavailable
	}
	return t.finish(pathGeneric, out)
}

func (t *Translator) finish(path, out string) string {
	out = strings.TrimSpace(out)
	if out == "" {
		observability.TranslationsTotal.WithLabelValues(path, "empty").Inc()
		return Failed
	}
	observability.TranslationsTotal.WithLabelValues(path, "ok").Inc()
	return out
}

// Instruction builds the translation prompt for text.
func Instruction(text, targetCode string) string {
	lang := prompt.LanguageName(targetCode)
	return fmt.Sprintf(`Translate the following text into %[1]s.

Requirements:
1. Write natural, idiomatic %[1]s the way a native speaker would say it. Do not translate word for word.
2. Words written in the same script can mean different things in different languages (Japanese 手紙 is "letter", not the Chinese "toilet paper"; 勉強 is "study", not "reluctant"). Decide each word's meaning from its source language and context, never from its surface form.
3. Keep the original tone, mood and level of formality, including emoji and interjections.
4. Output only the translation. No explanations, notes, quotation marks or romanization.

Text:
%[2]s`, lang, text)
}

package provider

import (
	"strings"

	"github.com/rhuss/plauder/pkg/api"
)

// Transport names.
const (
	TransportNative  = "native"
	TransportGeneric = "generic"
)

// Request is what a transport needs to produce one reply.
type Request struct {
	Model       string
	Instruction string
	Temperature float64

	// History is the conversation in order, ending with the pending user
	// turn the reply answers.
	History []api.Message
}

// PendingTurn splits history into the messages before the trailing run of
// user messages and the text of that run, joined by newlines. ok is false
// when the run holds no non-empty content.
func PendingTurn(history []api.Message) (prior []api.Message, pending string, ok bool) {
	start := len(history)
	for start > 0 && history[start-1].Role == api.RoleUser {
		start--
	}

	var parts []string
	for _, m := range history[start:] {
		if c := strings.TrimSpace(m.Content); c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return nil, "", false
	}
	return history[:start], strings.Join(parts, "\n"), true
}

package native

import (
	"context"
	"iter"
	"net/url"
	"strings"

	"github.com/rhuss/plauder/pkg/api"
)

// VendorDomain is the host of the vendor-hosted generative language API.
const VendorDomain = "generativelanguage.googleapis.com"

// SessionConfig configures one vendor chat session.
type SessionConfig struct {
	Model       string
	Instruction string
	Temperature float64

	// History seeds the session with earlier turns.
	History []api.Message
}

// Vendor is the opaque vendor capability a NativeClient drives.
// Implementations must be safe for concurrent use.
type Vendor interface {
	// CreateSession opens a chat session.
	CreateSession(ctx context.Context, cfg SessionConfig) (Session, error)

	// Generate issues one non-streaming generation call for prompt.
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Session is a vendor chat session handle.
type Session interface {
	// StreamSend sends text and yields reply deltas. The sequence is
	// finite and terminates normally at the end of the reply.
	StreamSend(ctx context.Context, text string) iter.Seq2[string, error]
}

// IsVendorURL reports whether baseURL targets the vendor-hosted domain.
// An empty base URL means the vendor default endpoint.
func IsVendorURL(baseURL string) bool {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return true
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == VendorDomain || strings.HasSuffix(host, "."+VendorDomain)
}

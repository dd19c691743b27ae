// Package native is the vendor-native transport. It adapts an injected
// [Vendor] capability (create a chat session, stream a message, generate
// once) to provider.Transport, and ships a [GenAI] Vendor backed by the
// google.golang.org/genai SDK.
//
// [IsVendorURL] decides whether a configured base URL points at the
// vendor-hosted domain, which is how a session chooses this transport.
package native

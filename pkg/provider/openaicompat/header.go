package openaicompat

import "net/http"

// IsHeaderSafe reports whether every byte of s is 7-bit ASCII.
func IsHeaderSafe(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

// setAuthorization attaches a bearer credential when it is non-empty and
// header safe. Unsafe credentials are left off rather than encoded.
func setAuthorization(h http.Header, credential string) {
	if credential == "" || !IsHeaderSafe(credential) {
		return
	}
	h.Set("Authorization", "Bearer "+credential)
}

package prompt

import "strings"

// MessageBreak is the sentinel the model places between reply segments.
const MessageBreak = "---MSG_BREAK---"

// Split turns an aggregated reply into ordered messages. Segments are
// trimmed and empty ones dropped. A non-empty reply always yields at
// least one message.
func Split(text string) []string {
	var out []string
	for _, seg := range strings.Split(text, MessageBreak) {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		if whole := strings.TrimSpace(text); whole != "" {
			out = append(out, whole)
		}
	}
	return out
}

// Package openaicompat is the generic transport: an OpenAI-compatible Chat
// Completions client used whenever the configured endpoint is not the
// vendor-hosted domain.
//
// Streaming responses are parsed by [DeltaReader], which decodes UTF-8
// incrementally and keeps partial lines across reads, so frames and
// multi-byte characters split at arbitrary chunk boundaries parse the same
// as unsplit input. Malformed frames are logged and skipped.
package openaicompat

// Package api defines the data model shared by the plauder gateway client.
//
// The package performs no I/O. It holds the configuration a caller compiles
// into a system instruction ([ChatConfig], [WorldEntry]), the conversation
// unit the caller owns and stores ([Message]), ID generation, and the
// structured error type returned by transports ([APIError]).
//
// Core types:
//   - [ChatConfig]: persona, world knowledge, transport and output-shape settings
//   - [WorldEntry]: one categorized world-knowledge entry with an injection position
//   - [Message]: one discrete chat message produced by splitting a model reply
//   - [APIError]: structured error with type, code and message
package api

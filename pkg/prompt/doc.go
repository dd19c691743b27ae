// Package prompt compiles a [api.ChatConfig] into the system instruction
// held for a session's lifetime, and splits aggregated model replies back
// into discrete messages.
//
// The compiled instruction has four sections in fixed order: persona,
// interlocutor context (with an optional temporal block), world and
// background knowledge, and language and format rules. The format rules
// ask the model to delimit reply segments with [MessageBreak], which
// [Split] consumes.
package prompt

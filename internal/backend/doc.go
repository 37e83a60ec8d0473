// Package backend sends review prompts to a completion service.
//
// Two variants implement the [Backend] interface and are resolved once at
// startup by [New]: Direct posts each prompt to an OpenAI-compatible chat
// completions endpoint; MCP routes prompts through a Model Context Protocol
// server that exposes a "review" tool and may apply its own policy (fan-out,
// rate limiting, caching) behind that capability.
//
// Backends do not retry. They classify failures as [TransientError] (worth
// retrying: HTTP 429, 5xx, network faults) or [FatalError] (bad credentials,
// unknown model, malformed request) and leave retry policy to the
// dispatcher.
package backend

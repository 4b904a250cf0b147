// Package llm is the webagent LLM Capability (spec.md §4.4/§6.2): one
// structured-output operation, generate(schema, messages, temperature),
// always invoked by the core with temperature 0 to maximize determinism.
// Two concrete providers ship, selectable by config: Anthropic (primary)
// and OpenAI (secondary), both implementing the capability over
// tool-forcing — a single synthetic tool whose input schema is the
// requested schema, with the reply parsed out of the accumulated tool-call
// input.
package llm

import (
	"context"
	"encoding/json"
)

// Message is one turn of the conversation submitted to the LLM Capability,
// matching spec.md §3's {role, content} conversation-message shape.
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// GenerateRequest is the single operation's input. SchemaName becomes the
// name of the synthetic tool the provider forces the model to call;
// Schema is the JSON Schema object (without "type":"object" necessarily
// pre-wrapped — providers wrap/convert as their SDK requires).
type GenerateRequest struct {
	Messages    []Message
	SchemaName  string
	Schema      json.RawMessage
	Temperature float64
}

// GenerateResponse carries the validated structured reply as raw JSON. The
// caller (Planner, Action Loop, Task Validator) each unmarshal it into their
// own typed struct, since the schema differs per call site.
type GenerateResponse struct {
	Object json.RawMessage
}

// Capability is what internal/webagent consumes. Implementations must
// surface schema-validation and transport failures as the typed errors in
// errors.go so the Action Loop's self-correction logic (spec.md §4.6 step 5)
// can distinguish a malformed reply from a hard transport failure.
type Capability interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

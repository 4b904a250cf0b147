package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicDefaultMaxTokens = 4096

// AnthropicProvider implements the LLM Capability over the official
// anthropic-sdk-go client, grounded on the teacher's AnthropicProvider
// (internal/agent/ai/api_anthropic.go) — same client construction and
// message-building shape, generalized from a streaming chat provider to a
// single structured-output call forced through one synthetic tool.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider constructs a provider bound to model (e.g.
// "claude-sonnet-4-5"). Model selection lives in config, never hardcoded
// here.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *AnthropicProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var schema map[string]any
	if err := json.Unmarshal(req.Schema, &schema); err != nil {
		return nil, &JSONParseError{Raw: string(req.Schema), Err: err}
	}

	toolParam := anthropic.ToolParam{
		Name:        req.SchemaName,
		Description: anthropic.String("Submit the structured reply conforming to the required schema."),
		InputSchema: anthropic.ToolInputSchemaParam{Properties: schema["properties"]},
	}
	if required, ok := schema["required"].([]any); ok {
		reqStrings := make([]string, 0, len(required))
		for _, r := range required {
			if s, ok := r.(string); ok {
				reqStrings = append(reqStrings, s)
			}
		}
		toolParam.InputSchema.Required = reqStrings
	}

	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   anthropicDefaultMaxTokens,
		Temperature: anthropic.Float(req.Temperature),
		System:      system,
		Messages:    messages,
		Tools:       []anthropic.ToolUnionParam{{OfTool: &toolParam}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.SchemaName},
		},
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, &APICallError{Provider: "anthropic", Message: err.Error(), Err: err}
	}

	for _, block := range msg.Content {
		if tu, ok := block.AsAny().(anthropic.ToolUseBlock); ok && tu.Name == req.SchemaName {
			return &GenerateResponse{Object: json.RawMessage(tu.Input)}, nil
		}
	}

	return nil, &TypeValidationError{SchemaName: req.SchemaName, Message: fmt.Sprintf("no tool_use block named %q in reply", req.SchemaName)}
}

var _ Capability = (*AnthropicProvider)(nil)

package llm

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider implements the LLM Capability over openai-go, grounded on
// the teacher's OpenAIProvider (internal/agent/ai/api_openai.go) — same
// client construction and message-building shape, generalized from a
// streaming chat provider to a single structured-output call forced through
// one synthetic tool. Shipped as the secondary provider for cost/provider
// redundancy, mirroring the teacher's multi-provider design.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider constructs a provider bound to model (e.g. "gpt-4.1").
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var schema map[string]any
	if err := json.Unmarshal(req.Schema, &schema); err != nil {
		return nil, &JSONParseError{Raw: string(req.Schema), Err: err}
	}

	tool := openai.ChatCompletionToolParam{
		Function: shared.FunctionDefinitionParam{
			Name:        req.SchemaName,
			Description: openai.String("Submit the structured reply conforming to the required schema."),
			Parameters:  shared.FunctionParameters(schema),
			Strict:      openai.Bool(true),
		},
	}

	var messages []openai.ChatCompletionMessageParamUnion
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
		Tools:       []openai.ChatCompletionToolParam{tool},
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Type:     "function",
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: req.SchemaName},
			},
		},
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &APICallError{Provider: "openai", Message: err.Error(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &TypeValidationError{SchemaName: req.SchemaName, Message: "empty choices in reply"}
	}

	calls := resp.Choices[0].Message.ToolCalls
	for _, tc := range calls {
		if tc.Function.Name == req.SchemaName {
			return &GenerateResponse{Object: json.RawMessage(tc.Function.Arguments)}, nil
		}
	}

	return nil, &TypeValidationError{SchemaName: req.SchemaName, Message: "no matching tool call in reply"}
}

var _ Capability = (*OpenAIProvider)(nil)

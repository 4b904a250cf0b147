package webagent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nebolabs/webagent/internal/llm"
)

const taskValidatorSystemPrompt = `You are the completion-validation stage of a web browsing agent. You are given
the original task and the agent's claimed final answer. Decide whether the
answer genuinely and sufficiently satisfies the task. Be strict: a vague or
partial answer is not valid. If invalid, explain specifically what is
missing or wrong so the agent can continue working.`

// ValidateTask re-prompts the LLM to judge whether answer satisfies task
// (spec.md §4.8), always at temperature 0.
func ValidateTask(ctx context.Context, capability llm.Capability, task, answer string) (*TaskValidation, error) {
	req := llm.GenerateRequest{
		SchemaName:  "submit_validation",
		Schema:      taskValidationSchema,
		Temperature: 0,
		Messages: []llm.Message{
			{Role: "system", Content: taskValidatorSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Task: %s\n\nFinal answer: %s", task, answer)},
		},
	}

	resp, err := capability.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("validate task: %w", err)
	}

	var v TaskValidation
	if err := json.Unmarshal(resp.Object, &v); err != nil {
		return nil, fmt.Errorf("decode task validation: %w", err)
	}
	return &v, nil
}

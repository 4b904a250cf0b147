package webagent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nebolabs/webagent/internal/llm"
)

const plannerSystemPrompt = `You are the planning stage of a web browsing agent. Given a task, produce:
- explanation: the task restated in your own words, expanding any relative dates ("tomorrow", "next Friday") to absolute dates using today's date
- plan: a numbered, high-level, UI-agnostic plan for accomplishing the task
- url: a starting URL — a bare top-level domain if the task names a specific site, otherwise a DuckDuckGo search URL of the form https://duckduckgo.com/?q=<query>`

// PlanTask converts a task string into a Plan (spec.md §4.5). Failure at this
// stage is fatal for the run; there is no retry here — the caller surfaces
// the underlying LLM error.
func PlanTask(ctx context.Context, capability llm.Capability, task string, now time.Time) (*Plan, error) {
	req := llm.GenerateRequest{
		SchemaName:  "submit_plan",
		Schema:      planSchema,
		Temperature: 0,
		Messages: []llm.Message{
			{Role: "system", Content: fmt.Sprintf("%s\n\nToday's date: %s", plannerSystemPrompt, now.Format("2006-01-02"))},
			{Role: "user", Content: task},
		},
	}

	resp, err := capability.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("plan task: %w", err)
	}

	var plan Plan
	if err := json.Unmarshal(resp.Object, &plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if plan.Explanation == "" || plan.Plan == "" || plan.URL == "" {
		return nil, fmt.Errorf("plan missing required field: %+v", plan)
	}
	return &plan, nil
}

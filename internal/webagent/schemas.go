package webagent

import "encoding/json"

// planSchema is the Planner's forced-tool schema (spec.md §4.5: three
// non-empty strings), written as an inline JSON literal following the
// teacher's Tool.Schema() convention (agent/tools/*.go).
var planSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"explanation": {
			"type": "string",
			"description": "The task restated in the agent's own words, with relative dates expanded to absolute dates"
		},
		"plan": {
			"type": "string",
			"description": "A numbered, high-level, UI-agnostic plan for accomplishing the task"
		},
		"url": {
			"type": "string",
			"description": "A bare top-level domain or a search URL (default https://duckduckgo.com/?q=...) to start from"
		}
	},
	"required": ["explanation", "plan", "url"]
}`)

// responseSchema is the Action Loop's per-iteration forced-tool schema
// (spec.md §3's Action object).
var responseSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"currentStep": {"type": "string", "description": "What the agent is doing right now, in one sentence"},
		"observation": {"type": "string", "description": "What the agent observes on the current page"},
		"extractedData": {"type": "string", "description": "Any data extracted from the page relevant to the task so far"},
		"thought": {"type": "string", "description": "The agent's reasoning about what to do next"},
		"action": {
			"type": "object",
			"properties": {
				"action": {
					"type": "string",
					"enum": ["select", "fill", "click", "hover", "check", "uncheck", "wait", "goto", "back", "forward", "done"]
				},
				"ref": {"type": "string", "description": "Element ref of the form s<section>e<seq>, required for element-targeted actions"},
				"value": {"type": "string", "description": "Action value: text for fill, option for select, URL for goto, seconds for wait, final answer for done"}
			},
			"required": ["action"]
		}
	},
	"required": ["currentStep", "observation", "thought", "action"]
}`)

// taskValidationSchema is the Task Validator's forced-tool schema
// (spec.md §4.8).
var taskValidationSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"isValid": {"type": "boolean", "description": "Whether finalAnswer genuinely satisfies the task"},
		"feedback": {"type": "string", "description": "If not valid, what is missing or wrong"}
	},
	"required": ["isValid"]
}`)

package webagent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nebolabs/webagent/internal/events"
	"github.com/nebolabs/webagent/internal/llm"
)

// fakeBrowser is a minimal in-memory Browser Capability: each GetText call
// returns the next of a fixed snapshot sequence (repeating the last), Goto
// sets the URL, and PerformAction switches to a fixed Wikipedia title/URL,
// enough to drive the Action Loop through a full plan -> click -> done run
// without a live browser.
type fakeBrowser struct {
	title, url string
	snapshots  []string
	step       int
	actions    []string
}

func (b *fakeBrowser) Start(context.Context) error    { return nil }
func (b *fakeBrowser) Shutdown(context.Context) error { return nil }

func (b *fakeBrowser) Goto(_ context.Context, url string) error {
	b.url = url
	return nil
}
func (b *fakeBrowser) GoBack(context.Context) error    { return nil }
func (b *fakeBrowser) GoForward(context.Context) error { return nil }

func (b *fakeBrowser) GetURL(context.Context) (string, error)   { return b.url, nil }
func (b *fakeBrowser) GetTitle(context.Context) (string, error) { return b.title, nil }

func (b *fakeBrowser) GetText(context.Context) (string, error) {
	snap := b.snapshots[b.step]
	if b.step < len(b.snapshots)-1 {
		b.step++
	}
	return snap, nil
}

func (b *fakeBrowser) PerformAction(_ context.Context, ref, action, value string) error {
	b.actions = append(b.actions, action+":"+ref+":"+value)
	b.title = "Wikipedia"
	b.url = "https://en.wikipedia.org/wiki/Alan_Turing"
	return nil
}

func (b *fakeBrowser) WaitForLoadState(context.Context, string, time.Duration) error { return nil }

// fakeLLM replays canned structured replies keyed by schema name; replies
// for "submit_response" are consumed in order, one per Action Loop
// iteration.
type fakeLLM struct {
	plan        json.RawMessage
	responses   []json.RawMessage
	respIdx     int
	validations []json.RawMessage
	validIdx    int
}

func (f *fakeLLM) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	switch req.SchemaName {
	case "submit_plan":
		return &llm.GenerateResponse{Object: f.plan}, nil
	case "submit_validation":
		obj := f.validations[f.validIdx]
		if f.validIdx < len(f.validations)-1 {
			f.validIdx++
		}
		return &llm.GenerateResponse{Object: obj}, nil
	default:
		obj := f.responses[f.respIdx]
		f.respIdx++
		return &llm.GenerateResponse{Object: obj}, nil
	}
}

func TestLoopRunTrivialSearchScenario(t *testing.T) {
	browser := &fakeBrowser{
		snapshots: []string{
			`- link "Alan Turing - Wikipedia" [ref=s1e1]`,
			`- heading "Alan Turing"`,
		},
	}
	llmCap := &fakeLLM{
		plan: mustJSON(t, Plan{
			Explanation: "Find the Wikipedia page for Alan Turing",
			Plan:        "1. Search DuckDuckGo for Alan Turing Wikipedia\n2. Click the result\n3. Report the URL",
			URL:         "https://duckduckgo.com/?q=Alan+Turing+Wikipedia",
		}),
		responses: []json.RawMessage{
			mustJSON(t, Response{
				CurrentStep: "Clicking the Wikipedia result", Observation: "See a link to Alan Turing's page",
				ExtractedData: "none yet", Thought: "This link matches the task",
				Action: Action{Action: ActionClick, Ref: "s1e1"},
			}),
			mustJSON(t, Response{
				CurrentStep: "Reporting the URL", Observation: "On the Wikipedia page",
				ExtractedData: "https://en.wikipedia.org/wiki/Alan_Turing", Thought: "Task is complete",
				Action: Action{Action: ActionDone, Value: "https://en.wikipedia.org/wiki/Alan_Turing"},
			}),
		},
		validations: []json.RawMessage{mustJSON(t, TaskValidation{IsValid: true})},
	}

	var seen []events.Type
	bus := events.NewBus(nil)
	defer bus.Close()
	bus.OnAll(func(_ context.Context, env events.Envelope) error {
		seen = append(seen, env.Type)
		return nil
	})

	loop := NewLoop(browser, llmCap, bus, LoopConfig{})
	answer, err := loop.Run(context.Background(), "Find the Wikipedia page for Alan Turing")

	require.NoError(t, err)
	require.Equal(t, "https://en.wikipedia.org/wiki/Alan_Turing", answer)
	require.Equal(t, []string{"click:s1e1:"}, browser.actions)
	require.Contains(t, seen, events.TaskComplete)
	require.Contains(t, seen, events.PageNavigation)
}

func TestLoopResumesOnInvalidTaskValidation(t *testing.T) {
	browser := &fakeBrowser{snapshots: []string{`- text: "static page"`}}
	llmCap := &fakeLLM{
		plan: mustJSON(t, Plan{Explanation: "e", Plan: "p", URL: "https://example.com"}),
		responses: []json.RawMessage{
			mustJSON(t, Response{CurrentStep: "a", Observation: "b", ExtractedData: "c", Thought: "d",
				Action: Action{Action: ActionDone, Value: "Booked"}}),
			mustJSON(t, Response{CurrentStep: "a2", Observation: "b2", ExtractedData: "c2", Thought: "d2",
				Action: Action{Action: ActionDone, Value: "Booked, confirmation XYZ"}}),
		},
		validations: []json.RawMessage{
			mustJSON(t, TaskValidation{IsValid: false, Feedback: "Missing confirmation number"}),
			mustJSON(t, TaskValidation{IsValid: true}),
		},
	}

	bus := events.NewBus(nil)
	defer bus.Close()

	loop := NewLoop(browser, llmCap, bus, LoopConfig{})
	answer, err := loop.Run(context.Background(), "Book a flight")

	require.NoError(t, err)
	require.Equal(t, "Booked, confirmation XYZ", answer)
	require.Equal(t, 1, loop.validationAttempts)
}

func TestLoopExhaustsTaskValidationAttempts(t *testing.T) {
	browser := &fakeBrowser{snapshots: []string{`- text: "static page"`}}
	always := mustJSON(t, TaskValidation{IsValid: false, Feedback: "still missing something"})
	llmCap := &fakeLLM{
		plan: mustJSON(t, Plan{Explanation: "e", Plan: "p", URL: "https://example.com"}),
		responses: []json.RawMessage{
			mustJSON(t, Response{CurrentStep: "a", Observation: "b", ExtractedData: "c", Thought: "d",
				Action: Action{Action: ActionDone, Value: "x"}}),
			mustJSON(t, Response{CurrentStep: "a", Observation: "b", ExtractedData: "c", Thought: "d",
				Action: Action{Action: ActionDone, Value: "x"}}),
			mustJSON(t, Response{CurrentStep: "a", Observation: "b", ExtractedData: "c", Thought: "d",
				Action: Action{Action: ActionDone, Value: "x"}}),
		},
		validations: []json.RawMessage{always, always, always},
	}

	bus := events.NewBus(nil)
	defer bus.Close()

	loop := NewLoop(browser, llmCap, bus, LoopConfig{MaxTaskValidationAttempts: 3})
	_, err := loop.Run(context.Background(), "Book a flight")

	require.Error(t, err)
	var exhausted *TaskValidationExhaustedError
	require.ErrorAs(t, err, &exhausted)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

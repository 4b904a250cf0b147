package webagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nebolabs/webagent/internal/aria"
	"github.com/nebolabs/webagent/internal/browser"
	"github.com/nebolabs/webagent/internal/events"
	"github.com/nebolabs/webagent/internal/llm"
)

const loopSystemPrompt = `You are a web browsing agent. You are given a compressed accessibility-tree
snapshot of the current page and must decide the single next action to make
progress on the task. Always report currentStep, observation, extractedData
(any relevant data seen so far), and thought, then choose exactly one action.
Only use refs (s<n>e<n>) that appear in the most recent snapshot. Only "goto"
a URL you have already observed in a prior snapshot or that the plan names;
never invent a URL.`

// LoopConfig bounds the Action Loop's retry budgets and iteration count.
type LoopConfig struct {
	MaxIterations             int
	MaxSchemaRepairAttempts   int
	MaxTaskValidationAttempts int
	FilteredPrefixes          []string
	NetworkIdleTimeout        time.Duration
}

// Loop is the Action Loop (spec.md §4.6): conversation state plus the two
// capabilities and the event bus it drives.
type Loop struct {
	Browser browser.Capability
	LLM     llm.Capability
	Bus     *events.Bus
	Cfg     LoopConfig

	messages           []Message
	currentPage        PageState
	lastEmittedPage    PageState
	validationAttempts int
}

// NewLoop constructs a Loop with the given capabilities, applying default
// budgets for any zero LoopConfig field.
func NewLoop(b browser.Capability, l llm.Capability, bus *events.Bus, cfg LoopConfig) *Loop {
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = 50
	}
	if cfg.MaxSchemaRepairAttempts == 0 {
		cfg.MaxSchemaRepairAttempts = 2
	}
	if cfg.MaxTaskValidationAttempts == 0 {
		cfg.MaxTaskValidationAttempts = 3
	}
	if cfg.NetworkIdleTimeout == 0 {
		cfg.NetworkIdleTimeout = 10 * time.Second
	}
	return &Loop{Browser: b, LLM: l, Bus: bus, Cfg: cfg, messages: []Message{{Role: "system", Content: loopSystemPrompt}}}
}

// Run executes task to completion: plan, navigate, then iterate the Action
// Loop until `done` is validated, an attempt budget is exhausted, or ctx is
// cancelled. Per spec.md §7's execute contract: nil error and empty string
// on cancellation, the final answer on success, a typed error carrying the
// last validator feedback on exhaustion.
func (l *Loop) Run(ctx context.Context, task string) (string, error) {
	plan, err := PlanTask(ctx, l.LLM, task, time.Now())
	if err != nil {
		if ctx.Err() != nil {
			return "", nil
		}
		return "", err
	}

	l.Bus.Emit(events.TaskStart, events.TaskStartData{
		Task: task, Explanation: plan.Explanation, Plan: plan.Plan, URL: plan.URL,
	})

	if err := l.Browser.Goto(ctx, plan.URL); err != nil {
		if ctx.Err() != nil {
			return "", nil
		}
		return "", fmt.Errorf("navigate to plan url: %w", err)
	}
	l.refreshPage(ctx)

	for iter := 0; iter < l.Cfg.MaxIterations; iter++ {
		if ctx.Err() != nil {
			return "", nil
		}

		answer, done, err := l.iterate(ctx, task)
		if err != nil {
			if ctx.Err() != nil {
				return "", nil
			}
			return "", err
		}
		if done {
			return answer, nil
		}
	}

	return "", fmt.Errorf("action loop exceeded %d iterations without completion", l.Cfg.MaxIterations)
}

// iterate runs one pass of spec.md §4.6's numbered steps. Returns
// (answer, true, nil) when the run is complete.
func (l *Loop) iterate(ctx context.Context, task string) (string, bool, error) {
	// Step 1: snapshot + compress.
	raw, err := l.Browser.GetText(ctx)
	if err != nil {
		return "", false, fmt.Errorf("get page text: %w", err)
	}
	compressed := aria.Compress(raw, l.Cfg.FilteredPrefixes)
	l.Bus.Emit(events.DebugCompression, events.DebugCompressionData{
		OriginalSize:       len(raw),
		CompressedSize:     len(compressed),
		CompressionPercent: compressionPercent(len(raw), len(compressed)),
	})

	// Step 2: title/url read, batched.
	l.refreshPage(ctx)

	// Step 3: clip prior snapshots.
	l.clipSnapshots()

	// Step 4: append new user message.
	l.messages = append(l.messages, Message{
		Role: "user",
		Content: fmt.Sprintf("Title: %s\nURL: %s\n```\n%s\n```\nDecide the single next action. Respond with currentStep, observation, extractedData, thought, and exactly one action.",
			l.currentPage.Title, l.currentPage.URL, compressed),
	})

	l.Bus.Emit(events.DebugMessages, events.DebugMessagesData{Messages: renderedContents(l.messages)})

	// Step 5: call the LLM, validating with schema-repair retries.
	resp, err := l.generateValidated(ctx)
	if err != nil {
		return "", false, err
	}

	// Step 6: perception events.
	l.Bus.Emit(events.AgentCurrentStep, events.AgentCurrentStepData{CurrentStep: resp.CurrentStep})
	l.Bus.Emit(events.AgentObservation, events.AgentObservationData{Observation: resp.Observation})
	l.Bus.Emit(events.AgentExtractedData, events.AgentExtractedDataData{ExtractedData: resp.ExtractedData})
	l.Bus.Emit(events.AgentThought, events.AgentThoughtData{Thought: resp.Thought})
	l.Bus.Emit(events.ActionExecution, events.ActionExecutionData{
		Action: resp.Action.Action, Ref: resp.Action.Ref, Value: resp.Action.Value,
	})

	// Step 7/8: dispatch, append assistant reply, emit result.
	return l.dispatch(ctx, task, *resp)
}

// generateValidated calls the LLM and retries through the Response
// Validator up to Cfg.MaxSchemaRepairAttempts extra times (spec.md §4.6
// step 5). An auto-corrected response does not consume a retry.
func (l *Loop) generateValidated(ctx context.Context) (*Response, error) {
	var lastErrs []string

	for attempt := 0; attempt <= l.Cfg.MaxSchemaRepairAttempts; attempt++ {
		resp, raw, err := l.generateOnce(ctx)
		if err != nil {
			var tve *llm.TypeValidationError
			if !errors.As(err, &tve) {
				return nil, err
			}
			lastErrs = []string{err.Error()}
			if attempt == l.Cfg.MaxSchemaRepairAttempts {
				break
			}
			l.messages = append(l.messages, Message{Role: "user", Content: "Your last reply was invalid: " + err.Error() + ". Please correct it and respond again."})
			continue
		}

		result := ValidateResponse(*resp)
		if result.IsValid {
			final := resp
			if result.CorrectedResponse != nil {
				final = result.CorrectedResponse
			}
			l.messages = append(l.messages, Message{Role: "assistant", Content: raw})
			return final, nil
		}

		lastErrs = result.Errors
		if attempt == l.Cfg.MaxSchemaRepairAttempts {
			break
		}

		l.messages = append(l.messages, Message{Role: "assistant", Content: raw})
		l.messages = append(l.messages, Message{
			Role:    "user",
			Content: "Your last reply was invalid: " + strings.Join(result.Errors, "; ") + ". Please correct it and respond again.",
		})
	}

	return nil, &ValidationExhaustedError{Errors: lastErrs}
}

func (l *Loop) generateOnce(ctx context.Context) (*Response, string, error) {
	resp, err := l.LLM.Generate(ctx, llm.GenerateRequest{
		SchemaName:  "submit_response",
		Schema:      responseSchema,
		Temperature: 0,
		Messages:    toLLMMessages(l.messages),
	})
	if err != nil {
		return nil, "", fmt.Errorf("generate next action: %w", err)
	}

	var r Response
	if err := json.Unmarshal(resp.Object, &r); err != nil {
		return nil, "", &llm.JSONParseError{Raw: string(resp.Object), Err: err}
	}
	return &r, string(resp.Object), nil
}

// dispatch executes resp.Action (spec.md §4.6 step 7/8). Exceptions never
// propagate out of the loop: they are folded into action:result and an
// assistant message so the model can recover next iteration.
func (l *Loop) dispatch(ctx context.Context, task string, resp Response) (string, bool, error) {
	action := resp.Action

	execErr := l.execute(ctx, action)

	l.messages = append(l.messages, Message{Role: "assistant", Content: fmt.Sprintf("Executed %s: %s", action.Action, describeOutcome(execErr))})

	if execErr != nil {
		l.Bus.Emit(events.ActionResult, events.ActionResultData{Success: false, Error: execErr.Error()})
		return "", false, nil
	}
	l.Bus.Emit(events.ActionResult, events.ActionResultData{Success: true})

	if action.Action != ActionDone {
		return "", false, nil
	}

	return l.handleDone(ctx, task, action.Value)
}

// handleDone runs the Task Validator on a claimed final answer and decides
// whether the run completes or resumes (spec.md §4.6 step 7's `done` case).
func (l *Loop) handleDone(ctx context.Context, task, finalAnswer string) (string, bool, error) {
	validation, err := ValidateTask(ctx, l.LLM, task, finalAnswer)
	if err != nil {
		return "", false, err
	}

	l.Bus.Emit(events.TaskValidation, events.TaskValidationData{
		IsValid: validation.IsValid, Feedback: validation.Feedback, FinalAnswer: finalAnswer,
	})

	if validation.IsValid {
		l.Bus.Emit(events.TaskComplete, events.TaskCompleteData{FinalAnswer: finalAnswer})
		return finalAnswer, true, nil
	}

	l.validationAttempts++
	if l.validationAttempts >= l.Cfg.MaxTaskValidationAttempts {
		return "", false, &TaskValidationExhaustedError{Feedback: validation.Feedback}
	}

	l.messages = append(l.messages, Message{
		Role:    "user",
		Content: fmt.Sprintf("Task not completed successfully. %s Please continue working on the task.", validation.Feedback),
	})
	return "", false, nil
}

func (l *Loop) execute(ctx context.Context, action Action) error {
	switch action.Action {
	case ActionWait:
		seconds, err := strconv.Atoi(strings.TrimSpace(action.Value))
		if err != nil {
			seconds = 1
		}
		l.Bus.Emit(events.SystemWaiting, events.SystemWaitingData{Seconds: seconds})
		select {
		case <-time.After(time.Duration(seconds) * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil

	case ActionGoto:
		if err := l.Browser.Goto(ctx, action.Value); err != nil {
			return err
		}
		l.waitNetworkIdle(ctx)
		l.refreshPage(ctx)
		return nil

	case ActionBack:
		if err := l.Browser.GoBack(ctx); err != nil {
			return err
		}
		l.waitNetworkIdle(ctx)
		l.refreshPage(ctx)
		return nil

	case ActionForward:
		if err := l.Browser.GoForward(ctx); err != nil {
			return err
		}
		l.waitNetworkIdle(ctx)
		l.refreshPage(ctx)
		return nil

	case ActionDone:
		return nil

	default:
		if !elementTargeted[action.Action] {
			return &browser.UnsupportedActionError{Action: action.Action}
		}
		if err := l.Browser.PerformAction(ctx, action.Ref, action.Action, action.Value); err != nil {
			return err
		}
		if action.Action == ActionClick || action.Action == ActionSelect {
			l.refreshPage(ctx)
		}
		return nil
	}
}

// waitNetworkIdle blocks briefly for the page to settle after a navigation.
// Per spec.md §7, a load-state timeout is non-fatal: it is logged via
// system:network_timeout and the loop continues with whatever state the
// page is in.
func (l *Loop) waitNetworkIdle(ctx context.Context) {
	l.Bus.Emit(events.SystemNetworkWaiting, events.SystemNetworkWaitingData{})
	err := l.Browser.WaitForLoadState(ctx, "networkidle", l.Cfg.NetworkIdleTimeout)
	if err == nil {
		return
	}
	var timeoutErr *browser.TimeoutError
	if errors.As(err, &timeoutErr) {
		l.Bus.Emit(events.SystemNetworkTimeout, events.SystemNetworkTimeoutData{})
	}
}

// refreshPage reads title/url concurrently (spec.md §5's "pairwise
// independent reads... batched via a concurrent-wait combinator") and
// records a page:navigation event exactly once per observed change.
func (l *Loop) refreshPage(ctx context.Context) {
	var title, url string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := l.Browser.GetTitle(gctx)
		title = t
		return err
	})
	g.Go(func() error {
		u, err := l.Browser.GetURL(gctx)
		url = u
		return err
	})
	if err := g.Wait(); err != nil {
		return
	}

	l.currentPage = PageState{Title: title, URL: url}

	if title == l.lastEmittedPage.Title && url == l.lastEmittedPage.URL {
		return
	}

	l.lastEmittedPage = l.currentPage
	l.Bus.Emit(events.PageNavigation, events.PageNavigationData{Title: title, URL: url})
}

var fencedSnapshot = regexp.MustCompile("(?s)```\\n.*?\\n```")

// clipSnapshots replaces the fenced snapshot body of every existing user
// message with a placeholder, bounding the conversation to O(1) unclipped
// snapshots (spec.md §4.6 step 3 / §8's "conversation bound" property).
func (l *Loop) clipSnapshots() {
	for i, m := range l.messages {
		if m.Role != "user" {
			continue
		}
		if fencedSnapshot.MatchString(m.Content) {
			l.messages[i].Content = fencedSnapshot.ReplaceAllString(m.Content, "[snapshot clipped for length]")
		}
	}
}

// toLLMMessages converts the loop's conversation history into the LLM
// Capability's own Message type, since webagent.Message and llm.Message are
// distinct named types despite sharing a shape.
func toLLMMessages(messages []Message) []llm.Message {
	out := make([]llm.Message, len(messages))
	for i, m := range messages {
		out[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func describeOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	return "Failed to execute action: " + err.Error()
}

func compressionPercent(original, compressed int) float64 {
	if original == 0 {
		return 0
	}
	return (1 - float64(compressed)/float64(original)) * 100
}

func renderedContents(messages []Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Role + ": " + m.Content
	}
	return out
}

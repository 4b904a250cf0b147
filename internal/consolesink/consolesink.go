// Package consolesink is the default log sink named out-of-core by
// spec.md §1 ("log sinks... sinks subscribe"): a structured slog.Logger
// subscriber over every event type, grounded on the teacher's
// cdpAuditLogger (internal/browser/audit.go) — same
// slog.Default().With("component", ...) construction, same
// attrs-then-level-pick shape, generalized from CDP command auditing to
// agent run events.
package consolesink

import (
	"context"
	"log/slog"

	"github.com/nebolabs/webagent/internal/events"
)

// Sink renders every emitted event as one structured slog line.
type Sink struct {
	logger *slog.Logger
}

// New constructs a Sink. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger.With("component", "webagent")}
}

// Attach subscribes s to every event type on bus, in registration order
// alongside any other sink (e.g. the run-history store). Returns the
// subscriptions so the caller can unsubscribe when the run ends.
func (s *Sink) Attach(bus *events.Bus) []events.Subscription {
	return bus.OnAll(func(_ context.Context, env events.Envelope) error {
		s.log(env)
		return nil
	})
}

func (s *Sink) log(env events.Envelope) {
	attrs := []any{"type", string(env.Type), "ts", env.Timestamp}

	switch d := env.Data.(type) {
	case events.TaskStartData:
		attrs = append(attrs, "task", d.Task, "url", d.URL)
	case events.TaskCompleteData:
		attrs = append(attrs, "answer", d.FinalAnswer)
	case events.TaskValidationData:
		attrs = append(attrs, "isValid", d.IsValid, "feedback", d.Feedback)
	case events.PageNavigationData:
		attrs = append(attrs, "title", d.Title, "url", d.URL)
	case events.AgentCurrentStepData:
		attrs = append(attrs, "currentStep", d.CurrentStep)
	case events.AgentObservationData:
		attrs = append(attrs, "observation", d.Observation)
	case events.AgentThoughtData:
		attrs = append(attrs, "thought", d.Thought)
	case events.AgentExtractedDataData:
		attrs = append(attrs, "extractedData", d.ExtractedData)
	case events.ActionExecutionData:
		attrs = append(attrs, "action", d.Action, "ref", d.Ref, "value", d.Value)
	case events.ActionResultData:
		attrs = append(attrs, "success", d.Success, "error", d.Error)
	case events.SystemWaitingData:
		attrs = append(attrs, "seconds", d.Seconds)
	case events.DebugCompressionData:
		attrs = append(attrs, "originalSize", d.OriginalSize, "compressedSize", d.CompressedSize, "compressionPercent", d.CompressionPercent)
	case events.DebugMessagesData:
		attrs = append(attrs, "messageCount", len(d.Messages))
	}

	switch env.Type {
	case events.ActionResult:
		if data, ok := env.Data.(events.ActionResultData); ok && !data.Success {
			s.logger.Warn("action_failed", attrs...)
			return
		}
	case events.SystemNetworkTimeout:
		s.logger.Warn("network_timeout", attrs...)
		return
	case events.TaskValidation:
		if data, ok := env.Data.(events.TaskValidationData); ok && !data.IsValid {
			s.logger.Warn("task_validation_rejected", attrs...)
			return
		}
	case events.DebugCompression, events.DebugMessages:
		s.logger.Debug("agent_debug", attrs...)
		return
	}

	s.logger.Info(string(env.Type), attrs...)
}

package llm

import (
	"errors"
	"strings"
)

// APICallError wraps a transport/HTTP-layer failure from a provider (rate
// limit, auth, timeout, 5xx). It is never something the Action Loop can
// self-correct by re-prompting — spec.md §6.2/§7 treat it as a hard failure
// for the run.
type APICallError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *APICallError) Error() string {
	return "llm api call failed (" + e.Provider + "): " + e.Message
}

func (e *APICallError) Unwrap() error { return e.Err }

// TypeValidationError means the provider's reply did not conform to the
// requested schema. The Action Loop's Response Validator (spec.md §4.7)
// treats this the same as any other validation failure: feedback appended,
// retry up to the bound.
type TypeValidationError struct {
	SchemaName string
	Message    string
}

func (e *TypeValidationError) Error() string {
	return "reply did not match schema " + e.SchemaName + ": " + e.Message
}

// JSONParseError means the provider returned text that was not valid JSON
// at all (e.g. the model emitted prose instead of calling the forced tool).
type JSONParseError struct {
	Raw string
	Err error
}

func (e *JSONParseError) Error() string {
	return "could not parse provider reply as JSON: " + e.Err.Error()
}

func (e *JSONParseError) Unwrap() error { return e.Err }

// IsContextOverflow reports whether err indicates the conversation exceeded
// the model's context window — the Action Loop has no recovery path for
// this short of the conversation-clipping it already does unconditionally
// (spec.md §4.6 step 3), so this is surfaced for logging/diagnosis only.
func IsContextOverflow(err error) bool {
	var ace *APICallError
	if errors.As(err, &ace) {
		return containsAny(ace.Message, "context_length_exceeded", "maximum context length", "too long")
	}
	return false
}

// IsRateLimitOrAuth reports whether err is a rate-limit or authentication
// failure, the two APICallError categories worth distinguishing for
// operator-facing diagnostics.
func IsRateLimitOrAuth(err error) bool {
	var ace *APICallError
	if errors.As(err, &ace) {
		if ace.StatusCode == 401 || ace.StatusCode == 403 || ace.StatusCode == 429 {
			return true
		}
		return containsAny(ace.Message, "rate_limit", "rate limit", "authentication", "invalid api key", "unauthorized")
	}
	return false
}

// ClassifyErrorReason buckets err into "billing", "rate_limit", "auth",
// "timeout", or "other", mirroring the teacher's ai.ClassifyErrorReason
// taxonomy, adapted from streaming-chat profile cooldowns to this module's
// plain error-logging use (cmd/webagent's doctor subcommand).
func ClassifyErrorReason(err error) string {
	if err == nil {
		return "other"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "billing", "quota", "payment", "insufficient", "spending limit"):
		return "billing"
	case containsAny(msg, "rate limit", "rate_limit", "429", "throttle"):
		return "rate_limit"
	case containsAny(msg, "authentication", "unauthorized", "401", "403", "invalid api key"):
		return "auth"
	case containsAny(msg, "timeout", "timed out", "deadline exceeded", "context canceled"):
		return "timeout"
	default:
		return "other"
	}
}

func containsAny(haystack string, needles ...string) bool {
	h := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(h, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

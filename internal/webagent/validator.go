package webagent

import (
	"regexp"
	"strconv"
	"strings"
)

var refPattern = regexp.MustCompile(`s\d+e\d+`)
var strictRefPattern = regexp.MustCompile(`^s\d+e\d+$`)

// ValidationResult is the Response Validator's output (spec.md §4.7).
type ValidationResult struct {
	IsValid           bool
	Errors            []string
	CorrectedResponse *Response
}

// ValidateResponse checks r's shape and cross-field requirements. A ref
// embedded in a longer string (e.g. "[ref=s1e42]") is auto-corrected rather
// than rejected; auto-corrected results bypass the retry budget.
func ValidateResponse(r Response) ValidationResult {
	var errs []string
	corrected := r

	if strings.TrimSpace(r.CurrentStep) == "" {
		errs = append(errs, "currentStep must be a non-empty string")
	}
	if strings.TrimSpace(r.Observation) == "" {
		errs = append(errs, "observation must be a non-empty string")
	}
	if strings.TrimSpace(r.Thought) == "" {
		errs = append(errs, "thought must be a non-empty string")
	}
	// Per SPEC_FULL.md §9 decision 2, extractedData is required-and-non-empty
	// (the stricter of the two behaviors spec.md §9 flags as inconsistent).
	if strings.TrimSpace(r.ExtractedData) == "" {
		errs = append(errs, "extractedData must be a non-empty string")
	}

	if !validActions[r.Action.Action] {
		errs = append(errs, "action.action must be one of the known action types, got: "+r.Action.Action)
		return ValidationResult{IsValid: false, Errors: errs}
	}

	switch r.Action.Action {
	case ActionClick, ActionHover, ActionCheck, ActionUncheck, ActionSelect, ActionFill:
		ref := r.Action.Ref
		if !strictRefPattern.MatchString(ref) {
			if m := refPattern.FindString(ref); m != "" {
				corrected.Action.Ref = m
			} else {
				errs = append(errs, "missing required ref field for "+r.Action.Action+" action")
			}
		}
	}

	switch r.Action.Action {
	case ActionFill, ActionSelect, ActionGoto:
		if strings.TrimSpace(r.Action.Value) == "" {
			errs = append(errs, r.Action.Action+" requires a non-empty value")
		}
	case ActionWait:
		if _, err := strconv.Atoi(strings.TrimSpace(r.Action.Value)); err != nil {
			errs = append(errs, "wait requires a numeric value, got: "+r.Action.Value)
		}
	case ActionDone:
		if strings.TrimSpace(r.Action.Value) == "" {
			errs = append(errs, "done requires a non-empty value")
		}
	case ActionBack, ActionForward:
		if r.Action.Ref != "" || r.Action.Value != "" {
			errs = append(errs, r.Action.Action+" must not carry a ref or value")
		}
	}

	if len(errs) == 0 {
		if corrected.Action.Ref != r.Action.Ref {
			return ValidationResult{IsValid: true, CorrectedResponse: &corrected}
		}
		return ValidationResult{IsValid: true}
	}

	return ValidationResult{IsValid: false, Errors: errs}
}

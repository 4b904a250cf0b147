package webagent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validResponse(action Action) Response {
	return Response{
		CurrentStep:   "step",
		Observation:   "obs",
		ExtractedData: "data",
		Thought:       "thought",
		Action:        action,
	}
}

func TestValidateResponseAcceptsWellFormedClick(t *testing.T) {
	result := ValidateResponse(validResponse(Action{Action: ActionClick, Ref: "s1e5"}))
	require.True(t, result.IsValid)
	require.Empty(t, result.Errors)
	require.Nil(t, result.CorrectedResponse)
}

func TestValidateResponseAutoCorrectsEmbeddedRef(t *testing.T) {
	result := ValidateResponse(validResponse(Action{Action: ActionClick, Ref: "[ref=s1e5]"}))
	require.True(t, result.IsValid)
	require.NotNil(t, result.CorrectedResponse)
	require.Equal(t, "s1e5", result.CorrectedResponse.Action.Ref)
}

func TestValidateResponseRejectsMissingRef(t *testing.T) {
	result := ValidateResponse(validResponse(Action{Action: ActionFill, Value: "x"}))
	require.False(t, result.IsValid)
	require.Contains(t, result.Errors[0], "ref")
}

func TestValidateResponseRejectsEmptyValueForFill(t *testing.T) {
	result := ValidateResponse(validResponse(Action{Action: ActionFill, Ref: "s1e1"}))
	require.False(t, result.IsValid)
}

func TestValidateResponseRejectsNonNumericWait(t *testing.T) {
	result := ValidateResponse(validResponse(Action{Action: ActionWait, Value: "soon"}))
	require.False(t, result.IsValid)
}

func TestValidateResponseAcceptsIntegerWait(t *testing.T) {
	result := ValidateResponse(validResponse(Action{Action: ActionWait, Value: "2"}))
	require.True(t, result.IsValid)
}

func TestValidateResponseRejectsEmptyDone(t *testing.T) {
	result := ValidateResponse(validResponse(Action{Action: ActionDone}))
	require.False(t, result.IsValid)
}

func TestValidateResponseRejectsRefOrValueOnBack(t *testing.T) {
	result := ValidateResponse(validResponse(Action{Action: ActionBack, Ref: "s1e1"}))
	require.False(t, result.IsValid)
}

func TestValidateResponseAcceptsBareBack(t *testing.T) {
	result := ValidateResponse(validResponse(Action{Action: ActionBack}))
	require.True(t, result.IsValid)
}

func TestValidateResponseRejectsUnknownAction(t *testing.T) {
	result := ValidateResponse(validResponse(Action{Action: "teleport"}))
	require.False(t, result.IsValid)
}

func TestValidateResponseRejectsEmptyRequiredStrings(t *testing.T) {
	r := validResponse(Action{Action: ActionBack})
	r.Thought = ""
	result := ValidateResponse(r)
	require.False(t, result.IsValid)
	require.Contains(t, result.Errors, "thought must be a non-empty string")
}

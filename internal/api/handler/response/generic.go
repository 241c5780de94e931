package response

import (
	"engine/internal/flow"
	"engine/internal/schema"
)

type APIError struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// FailureResponse is the wire shape of a classified execution failure.
type FailureResponse struct {
	Kind    flow.FailureKind    `json:"kind"`
	Message string              `json:"message"`
	Fields  []schema.FieldError `json:"fields,omitempty"`
	Payload map[string]any      `json:"payload,omitempty"`
}

func FromFailure(f *flow.Failure) FailureResponse {
	return FailureResponse{
		Kind:    f.Kind,
		Message: f.Message,
		Fields:  f.Fields,
		Payload: f.Payload,
	}
}

type ExecuteResponse struct {
	Result map[string]any `json:"result"`
}

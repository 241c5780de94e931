package request

import "engine/internal/flow"

type ExecuteNodeRequest struct {
	Properties     map[string]any `json:"properties"`
	InputVariables []string       `json:"inputVariables"`
	Context        map[string]any `json:"context"`
}

type RunRequest struct {
	Steps   []flow.Step    `json:"steps" validate:"required,min=1,dive"`
	Context map[string]any `json:"context"`
}

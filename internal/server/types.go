package server

import (
	"encoding/json"
	"fmt"

	"github.com/fyrsmithlabs/guardd/internal/guardrail"
	"github.com/fyrsmithlabs/guardd/internal/orchestrator"
)

// Content accepts either a single string or an array of strings in JSON.
// Whether the caller sent a single string is remembered so the transform
// response can mirror the envelope shape: single string in, single
// string out.
type Content struct {
	Items  []string
	Single bool
}

// UnmarshalJSON decodes "..." or ["...", ...].
func (c *Content) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Items = []string{s}
		c.Single = true
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("content must be a string or an array of strings")
	}
	c.Items = items
	c.Single = false
	return nil
}

// CheckRequest is the body for POST /api/v1/validate and /api/v1/transform.
type CheckRequest struct {
	Content    Content                        `json:"content"`
	Guardrails []string                       `json:"guardrails"`
	Options    map[string]guardrail.Overrides `json:"options,omitempty"`
}

// ValidateResponse is the body for POST /api/v1/validate. Details keys
// are content_0, content_1, ... aligned with the request batch order.
type ValidateResponse struct {
	IsValid          bool                                   `json:"is_valid"`
	FailedGuardrails []string                               `json:"failed_guardrails"`
	Details          map[string]*orchestrator.ItemValidation `json:"details"`
}

// TransformDetail wraps one guardrail's detail record for one item.
type TransformDetail struct {
	Details any `json:"details"`
}

// TransformResponse is the body for POST /api/v1/transform. Exactly one
// of TransformedContent and TransformedContents is set, matching the
// request's envelope shape.
type TransformResponse struct {
	TransformedContent  *string                               `json:"transformed_content,omitempty"`
	TransformedContents []string                              `json:"transformed_contents,omitempty"`
	Applied             []string                              `json:"applied_transformations"`
	Details             map[string]map[string]TransformDetail `json:"details"`
}

// ListResponse is the body for GET /api/v1/guardrails.
type ListResponse struct {
	Guardrails []guardrail.Metadata `json:"guardrails"`
}

// HealthResponse is the body for GET /health. Each guardrail reports
// whether its underlying model (if any) is loaded.
type HealthResponse struct {
	Status     string          `json:"status"`
	Guardrails map[string]bool `json:"guardrails"`
}

// itemKey names one content item in response details.
func itemKey(i int) string {
	return fmt.Sprintf("content_%d", i)
}

// Package topic implements the topic guardrail. It validates content
// against a list of denied topics using the zero-shot classifier
// collaborator. The check is validate-only: transformation is not a
// meaningful operation for topic control and fails with the capability
// error rather than silently passing content through.
package topic

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/guardd/internal/classify"
	"github.com/fyrsmithlabs/guardd/internal/guardrail"
)

// ID is the stable identifier of the topic guardrail.
const ID = "topics"

// Classifier is the zero-shot classifier contract consumed by the check.
type Classifier interface {
	// Detect returns only topics scoring at or above threshold whose
	// label matches the queried topic exactly.
	Detect(ctx context.Context, text string, topics []string, threshold float64) ([]classify.Result, error)

	// Ready reports whether the classifier's model is loaded.
	Ready(ctx context.Context) bool
}

// Options configures the topic guardrail.
type Options struct {
	// DeniedTopics is the non-empty list of topic labels to block.
	DeniedTopics []string `json:"denied_topics" koanf:"denied_topics"`

	// Threshold is the minimum relevance score in [0,1] for a topic to
	// count as detected.
	Threshold float64 `json:"threshold" koanf:"threshold"`
}

// DefaultOptions returns the default topic options.
func DefaultOptions() Options {
	return Options{
		DeniedTopics: []string{"Violence", "Hate Speech", "Drugs", "Sexual Content"},
		Threshold:    0.5,
	}
}

// Validate checks the merged options.
func (o Options) Validate() error {
	if len(o.DeniedTopics) == 0 {
		return &guardrail.OptionsError{ID: ID, Field: "denied_topics", Reason: "list cannot be empty"}
	}
	if o.Threshold < 0 || o.Threshold > 1 {
		return &guardrail.OptionsError{
			ID:     ID,
			Field:  "threshold",
			Reason: fmt.Sprintf("must be between 0 and 1, got %v", o.Threshold),
		}
	}
	return nil
}

func optionsSchema() guardrail.Schema {
	return guardrail.Schema{
		"denied_topics": {
			Type:        "array",
			Description: "Topic labels to block. Must not be empty.",
			Required:    true,
			Default:     DefaultOptions().DeniedTopics,
			Items:       &guardrail.Field{Type: "string"},
		},
		"threshold": {
			Type:        "number",
			Description: "Minimum relevance score for a topic to count as detected.",
			Default:     DefaultOptions().Threshold,
			Minimum:     guardrail.Float(0),
			Maximum:     guardrail.Float(1),
		},
	}
}

// Guardrail blocks content related to denied topics.
type Guardrail struct {
	guardrail.Base
	defaults   Options
	classifier Classifier
}

// New creates the topic guardrail.
func New(classifier Classifier, defaults Options) (*Guardrail, error) {
	if classifier == nil {
		return nil, fmt.Errorf("topic: classifier is required")
	}
	if err := defaults.Validate(); err != nil {
		return nil, err
	}

	return &Guardrail{
		Base: guardrail.NewBase(
			ID,
			"Topic Control",
			"Detects and blocks content related to denied topics",
			guardrail.CapabilityValidate,
		),
		defaults:   defaults,
		classifier: classifier,
	}, nil
}

// Defaults returns the default options record.
func (g *Guardrail) Defaults() any { return g.defaults }

// Schema returns the static options schema descriptor.
func (g *Guardrail) Schema() guardrail.Schema { return optionsSchema() }

// Ready reports whether the classifier is loaded.
func (g *Guardrail) Ready(ctx context.Context) bool { return g.classifier.Ready(ctx) }

// Validate fails when any denied topic scores at or above the threshold.
func (g *Guardrail) Validate(ctx context.Context, content string, overrides guardrail.Overrides) (*guardrail.ValidationResult, error) {
	opts := g.defaults
	if err := guardrail.Merge(ID, overrides, &opts); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	detected, err := g.classifier.Detect(ctx, content, opts.DeniedTopics, opts.Threshold)
	if err != nil {
		return nil, &guardrail.CollaboratorError{ID: ID, Err: err}
	}

	violations := make([]string, 0, len(detected))
	for _, d := range detected {
		violations = append(violations, fmt.Sprintf("Content related to denied topic '%s'", d.Topic))
	}

	return guardrail.NewValidationResult(violations), nil
}

// Transform always fails: the topic guardrail does not declare the
// transform capability.
func (g *Guardrail) Transform(ctx context.Context, content string, overrides guardrail.Overrides) (*guardrail.TransformationResult, error) {
	return nil, g.Unsupported(guardrail.CapabilityTransform)
}

var (
	_ guardrail.Guardrail     = (*Guardrail)(nil)
	_ guardrail.HealthChecker = (*Guardrail)(nil)
)

// Package pii implements the PII guardrail. Detections come from two
// independent sources: the statistical engine (model source) and the
// request's custom regexes (pattern source). The engine rewrites the
// text first; pattern detection then runs against that already-rewritten
// text, so the two sources never share an offset space.
package pii

import (
	"context"
	"fmt"
	"regexp"

	"github.com/fyrsmithlabs/guardd/internal/guardrail"
)

// ID is the stable identifier of the PII guardrail.
const ID = "pii"

// replacement replaces pattern-source detections. The model source
// applies its own token before the pattern pass runs.
const replacement = "[PII]"

// Analyzer is the statistical PII engine contract consumed by the check.
type Analyzer interface {
	// Process returns the anonymized text and the detected entities with
	// offsets into the original text.
	Process(ctx context.Context, text string, entityTypes []string) (string, []guardrail.Entity, error)

	// Ready reports whether the engine's model is loaded.
	Ready(ctx context.Context) bool
}

// Guardrail detects and rewrites personally identifiable information.
type Guardrail struct {
	guardrail.Base
	defaults Options
	analyzer Analyzer
}

// New creates the PII guardrail. The defaults are validated once here and
// never mutated by request overrides.
func New(analyzer Analyzer, defaults Options) (*Guardrail, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("pii: analyzer is required")
	}
	if err := defaults.Validate(); err != nil {
		return nil, err
	}

	return &Guardrail{
		Base: guardrail.NewBase(
			ID,
			"PII Detection",
			"Detects and handles personally identifiable information",
			guardrail.CapabilityValidate,
			guardrail.CapabilityTransform,
		),
		defaults: defaults,
		analyzer: analyzer,
	}, nil
}

// Defaults returns the default options record.
func (g *Guardrail) Defaults() any { return g.defaults }

// Schema returns the static options schema descriptor.
func (g *Guardrail) Schema() guardrail.Schema { return optionsSchema() }

// Ready reports whether the PII engine is loaded.
func (g *Guardrail) Ready(ctx context.Context) bool { return g.analyzer.Ready(ctx) }

// merged merges request overrides over a copy of the defaults and
// re-validates. An invalid merge fails the call; it never silently falls
// back to the defaults.
func (g *Guardrail) merged(overrides guardrail.Overrides) (Options, error) {
	opts := g.defaults
	if err := guardrail.Merge(ID, overrides, &opts); err != nil {
		return Options{}, err
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate reports a violation per detected entity, model detections
// first, then pattern detections against the original content.
func (g *Guardrail) Validate(ctx context.Context, content string, overrides guardrail.Overrides) (*guardrail.ValidationResult, error) {
	opts, err := g.merged(overrides)
	if err != nil {
		return nil, err
	}

	_, modelEntities, err := g.analyzer.Process(ctx, content, opts.engineTypes())
	if err != nil {
		return nil, &guardrail.CollaboratorError{ID: ID, Err: err}
	}

	patternEntities := matchPatterns(content, opts.CustomRegexes)

	all := append(modelEntities, patternEntities...)
	violations := make([]string, 0, len(all))
	for _, e := range all {
		violations = append(violations, fmt.Sprintf("Found %s PII: %s", e.Label, e.Text))
	}

	return guardrail.NewValidationResult(violations), nil
}

// Details is the transformation detail record for the PII guardrail.
type Details struct {
	// Entities lists model-source entities (offsets into the original
	// text) followed by pattern-source entities (offsets into the
	// post-anonymization text). The two lists do not share an offset
	// space.
	Entities []guardrail.Entity `json:"entities"`

	// AppliedOptions is the effective merged options record.
	AppliedOptions Options `json:"applied_options"`
}

// Transform anonymizes model detections first, then applies pattern
// replacements right-to-left over the anonymized text. Overlapping
// pattern spans are applied as-is in descending start order; they are not
// deduplicated.
func (g *Guardrail) Transform(ctx context.Context, content string, overrides guardrail.Overrides) (*guardrail.TransformationResult, error) {
	opts, err := g.merged(overrides)
	if err != nil {
		return nil, err
	}

	processed, modelEntities, err := g.analyzer.Process(ctx, content, opts.engineTypes())
	if err != nil {
		return nil, &guardrail.CollaboratorError{ID: ID, Err: err}
	}

	patternEntities := matchPatterns(processed, opts.CustomRegexes)
	processed = guardrail.ReplaceSpans(processed, patternEntities, replacement)

	return &guardrail.TransformationResult{
		Content: processed,
		Details: Details{
			Entities:       append(modelEntities, patternEntities...),
			AppliedOptions: opts,
		},
	}, nil
}

// matchPatterns runs the custom regexes over text. Patterns were compiled
// once already during option validation, so a failure here cannot happen
// for a merged record that passed Validate.
func matchPatterns(text string, regexes []CustomRegex) []guardrail.Entity {
	var entities []guardrail.Entity
	for _, cr := range regexes {
		re, err := regexp.Compile(cr.Pattern)
		if err != nil {
			continue
		}
		for _, m := range re.FindAllStringIndex(text, -1) {
			entities = append(entities, guardrail.Entity{
				Text:  text[m[0]:m[1]],
				Label: "CUSTOM_" + cr.Label,
				Start: m[0],
				End:   m[1],
			})
		}
	}
	return entities
}

var (
	_ guardrail.Guardrail     = (*Guardrail)(nil)
	_ guardrail.HealthChecker = (*Guardrail)(nil)
)

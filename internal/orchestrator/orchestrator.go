// Package orchestrator runs batches of content through ordered lists of
// guardrails. Validation fans out across content items; transformation is
// a left fold per item, where each check's output feeds the next check's
// input.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/guardd/internal/guardrail"
)

// defaultParallelism bounds concurrent item processing within a batch.
const defaultParallelism = 4

// Orchestrator coordinates guardrail execution over a registry.
type Orchestrator struct {
	registry    *guardrail.Registry
	logger      *zap.Logger
	metrics     *Metrics
	parallelism int
}

// New creates an orchestrator over the given registry.
func New(registry *guardrail.Registry, logger *zap.Logger) (*Orchestrator, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		registry:    registry,
		logger:      logger,
		metrics:     NewMetrics(logger),
		parallelism: defaultParallelism,
	}, nil
}

// Request is a batch of content items to run through an ordered list of
// guardrails, with optional per-guardrail option overrides.
type Request struct {
	Contents   []string
	Guardrails []string
	Options    map[string]guardrail.Overrides
}

// overridesFor returns the request's override slice for one guardrail.
func (r *Request) overridesFor(id string) guardrail.Overrides {
	if r.Options == nil {
		return nil
	}
	return r.Options[id]
}

// ItemValidation holds one content item's validation outcome.
type ItemValidation struct {
	// Passed is true iff every guardrail passed for this item.
	Passed bool `json:"passed"`

	// Violations concatenates all guardrails' violations in execution order.
	Violations []string `json:"violations"`

	// Guardrails maps guardrail id to its result for this item.
	Guardrails map[string]*guardrail.ValidationResult `json:"guardrail_details"`
}

// ValidationOutcome aggregates a batch validation.
type ValidationOutcome struct {
	// Valid is the AND of all items' validity.
	Valid bool

	// FailedGuardrails lists each failing guardrail once, in request
	// order, even when it fails across multiple items.
	FailedGuardrails []string

	// Items holds per-item results, index-aligned with the request contents.
	Items []*ItemValidation
}

// Validate runs every requested guardrail against every content item.
// All identifiers are resolved up front: an unknown one fails the whole
// request before any check executes. Items are independent and processed
// in parallel; the result is identical to sequential execution.
func (o *Orchestrator) Validate(ctx context.Context, req *Request) (*ValidationOutcome, error) {
	resolved, err := o.registry.Resolve(req.Guardrails)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	o.logger.Debug("validating batch",
		zap.String("run_id", runID),
		zap.Int("items", len(req.Contents)),
		zap.Strings("guardrails", req.Guardrails),
	)

	items := make([]*ItemValidation, len(req.Contents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for i, content := range req.Contents {
		g.Go(func() error {
			item := &ItemValidation{
				Passed:     true,
				Violations: []string{},
				Guardrails: make(map[string]*guardrail.ValidationResult, len(resolved)),
			}

			for _, gr := range resolved {
				result, err := gr.Validate(gctx, content, req.overridesFor(gr.ID()))
				if err != nil {
					o.metrics.RecordCheck(gctx, gr.ID(), "validate", "error")
					return err
				}

				item.Guardrails[gr.ID()] = result
				item.Violations = append(item.Violations, result.Violations...)
				if !result.Passed {
					item.Passed = false
				}

				o.metrics.RecordCheck(gctx, gr.ID(), "validate", "ok")
				o.metrics.RecordDetections(gctx, gr.ID(), len(result.Violations))
			}

			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outcome := &ValidationOutcome{
		Valid:            true,
		FailedGuardrails: []string{},
		Items:            items,
	}

	failed := make(map[string]bool)
	for _, item := range items {
		if !item.Passed {
			outcome.Valid = false
		}
		for id, result := range item.Guardrails {
			if !result.Passed {
				failed[id] = true
			}
		}
	}
	for _, id := range req.Guardrails {
		if failed[id] {
			failed[id] = false
			outcome.FailedGuardrails = append(outcome.FailedGuardrails, id)
		}
	}

	return outcome, nil
}

// TransformOutcome aggregates a batch transformation.
type TransformOutcome struct {
	// Contents holds the fully transformed items, index-aligned with the
	// request contents.
	Contents []string

	// Applied lists the identifiers of guardrails actually applied, each
	// at most once, in request order.
	Applied []string

	// Details maps, per item, guardrail id to that check's detail record.
	Details []map[string]any
}

// Transform runs each content item through the guardrails as a left
// fold: check i's output content is check i+1's input. Items are
// independent and processed in parallel.
func (o *Orchestrator) Transform(ctx context.Context, req *Request) (*TransformOutcome, error) {
	resolved, err := o.registry.Resolve(req.Guardrails)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	o.logger.Debug("transforming batch",
		zap.String("run_id", runID),
		zap.Int("items", len(req.Contents)),
		zap.Strings("guardrails", req.Guardrails),
	)

	outcome := &TransformOutcome{
		Contents: make([]string, len(req.Contents)),
		Applied:  dedupe(req.Guardrails),
		Details:  make([]map[string]any, len(req.Contents)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for i, content := range req.Contents {
		g.Go(func() error {
			current := content
			details := make(map[string]any, len(resolved))

			for _, gr := range resolved {
				result, err := gr.Transform(gctx, current, req.overridesFor(gr.ID()))
				if err != nil {
					o.metrics.RecordCheck(gctx, gr.ID(), "transform", "error")
					return err
				}

				current = result.Content
				details[gr.ID()] = result.Details
				o.metrics.RecordCheck(gctx, gr.ID(), "transform", "ok")
			}

			outcome.Contents[i] = current
			outcome.Details[i] = details
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return outcome, nil
}

// Health reports, per registered guardrail, whether its underlying model
// collaborator is loaded. Guardrails without one report true.
func (o *Orchestrator) Health(ctx context.Context) map[string]bool {
	status := make(map[string]bool)
	for _, gr := range o.registry.All() {
		if hc, ok := gr.(guardrail.HealthChecker); ok {
			status[gr.ID()] = hc.Ready(ctx)
			continue
		}
		status[gr.ID()] = true
	}
	return status
}

// Registry exposes the registry for metadata listing.
func (o *Orchestrator) Registry() *guardrail.Registry { return o.registry }

// dedupe keeps the first occurrence of each identifier, preserving order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

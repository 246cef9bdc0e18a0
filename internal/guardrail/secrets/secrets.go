// Package secrets implements the secrets guardrail: regex-based
// detection and redaction of credentials (API keys, tokens, private
// keys). It is a single-source check with no model collaborator, so
// unlike the PII check there is no cross-source offset problem; findings
// from all rules share the original text's offset space and overlapping
// spans are merged before replacement.
package secrets

import (
	"context"
	"fmt"
	"sort"

	"github.com/fyrsmithlabs/guardd/internal/guardrail"
)

// ID is the stable identifier of the secrets guardrail.
const ID = "secrets"

// Finding is a detected secret. The matched value is deliberately not
// included, to avoid leaking the secret through reports and logs.
type Finding struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
}

// Guardrail detects and redacts secrets.
type Guardrail struct {
	guardrail.Base
	defaults Options

	// compiledDefaults caches the compiled default rule set so requests
	// without overrides skip recompilation.
	compiledDefaults *compiled
}

// New creates the secrets guardrail.
func New(defaults Options) (*Guardrail, error) {
	c, err := defaults.compile()
	if err != nil {
		return nil, err
	}

	return &Guardrail{
		Base: guardrail.NewBase(
			ID,
			"Secret Detection",
			"Detects and redacts credentials such as API keys, tokens, and private keys",
			guardrail.CapabilityValidate,
			guardrail.CapabilityTransform,
		),
		defaults:         defaults,
		compiledDefaults: c,
	}, nil
}

// Defaults returns the default options record.
func (g *Guardrail) Defaults() any { return g.defaults }

// Schema returns the static options schema descriptor.
func (g *Guardrail) Schema() guardrail.Schema { return optionsSchema() }

func (g *Guardrail) merged(overrides guardrail.Overrides) (Options, *compiled, error) {
	if len(overrides) == 0 {
		return g.defaults, g.compiledDefaults, nil
	}

	opts := g.defaults
	if err := guardrail.Merge(ID, overrides, &opts); err != nil {
		return Options{}, nil, err
	}
	c, err := opts.compile()
	if err != nil {
		return Options{}, nil, err
	}
	return opts, c, nil
}

// scan runs every rule over content. Findings are reported in rule order,
// then match order within a rule.
func (c *compiled) scan(content string) []Finding {
	var findings []Finding
	for _, rule := range c.rules {
		if len(rule.keywords) > 0 && !c.hasKeyword(rule, content) {
			continue
		}

		for _, m := range rule.pattern.FindAllStringIndex(content, -1) {
			if c.isAllowed(content[m[0]:m[1]]) {
				continue
			}
			findings = append(findings, Finding{
				RuleID:      rule.ID,
				Description: rule.Description,
				Start:       m[0],
				End:         m[1],
			})
		}
	}
	return findings
}

func (c *compiled) hasKeyword(rule *compiledRule, content string) bool {
	for _, kw := range rule.keywords {
		if kw.MatchString(content) {
			return true
		}
	}
	return false
}

func (c *compiled) isAllowed(match string) bool {
	for _, pattern := range c.allowList {
		if pattern.MatchString(match) {
			return true
		}
	}
	return false
}

// redact merges overlapping or adjacent findings and replaces each merged
// span right-to-left, so earlier spans keep their offsets.
func redact(content string, findings []Finding, redaction string) string {
	if len(findings) == 0 {
		return content
	}

	spans := make([]guardrail.Entity, len(findings))
	for i, f := range findings {
		spans[i] = guardrail.Entity{Start: f.Start, End: f.End}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}

	return guardrail.ReplaceSpans(content, merged, redaction)
}

// Validate reports one violation per finding, naming the rule rather than
// the matched value.
func (g *Guardrail) Validate(ctx context.Context, content string, overrides guardrail.Overrides) (*guardrail.ValidationResult, error) {
	_, c, err := g.merged(overrides)
	if err != nil {
		return nil, err
	}

	findings := c.scan(content)
	violations := make([]string, 0, len(findings))
	for _, f := range findings {
		violations = append(violations, fmt.Sprintf("Found secret: %s", f.Description))
	}

	return guardrail.NewValidationResult(violations), nil
}

// Details is the transformation detail record for the secrets guardrail.
type Details struct {
	Findings       []Finding `json:"findings"`
	AppliedOptions Options   `json:"applied_options"`
}

// Transform redacts every finding.
func (g *Guardrail) Transform(ctx context.Context, content string, overrides guardrail.Overrides) (*guardrail.TransformationResult, error) {
	opts, c, err := g.merged(overrides)
	if err != nil {
		return nil, err
	}

	findings := c.scan(content)
	if findings == nil {
		findings = []Finding{}
	}

	return &guardrail.TransformationResult{
		Content: redact(content, findings, c.redaction),
		Details: Details{
			Findings:       findings,
			AppliedOptions: opts,
		},
	}, nil
}

var _ guardrail.Guardrail = (*Guardrail)(nil)

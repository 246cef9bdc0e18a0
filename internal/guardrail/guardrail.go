package guardrail

import "context"

// Capability is a declared ability of a guardrail.
type Capability string

const (
	// CapabilityValidate indicates the guardrail can report pass/fail.
	CapabilityValidate Capability = "validate"

	// CapabilityTransform indicates the guardrail can rewrite content.
	CapabilityTransform Capability = "transform"
)

// Guardrail is a named unit offering validation and/or transformation of
// text content. The capability set is fixed at construction; calling an
// operation whose capability is not declared returns a CapabilityError.
type Guardrail interface {
	// ID returns the stable, unique identifier.
	ID() string

	// Name returns the display name.
	Name() string

	// Description explains what the guardrail does.
	Description() string

	// Capabilities returns the declared capability set.
	Capabilities() []Capability

	// Supports reports whether the capability is declared.
	Supports(c Capability) bool

	// Defaults returns the default options record. Used by Registry.List
	// as the schema fallback when Schema returns nil.
	Defaults() any

	// Schema returns the options schema descriptor, or nil if the
	// guardrail does not provide one.
	Schema() Schema

	// Validate checks content against the merged options and reports
	// violations. Overrides are merged into a copy of the defaults and
	// re-validated; a malformed override fails the call.
	Validate(ctx context.Context, content string, overrides Overrides) (*ValidationResult, error)

	// Transform rewrites content according to the merged options.
	Transform(ctx context.Context, content string, overrides Overrides) (*TransformationResult, error)
}

// HealthChecker is implemented by guardrails backed by an external model
// collaborator. Guardrails without one are always considered ready.
type HealthChecker interface {
	Ready(ctx context.Context) bool
}

// Base provides identity and capability plumbing shared by guardrail
// implementations. Embed it and implement the two operations.
type Base struct {
	id          string
	name        string
	description string
	caps        map[Capability]bool
}

// NewBase creates the shared identity for a guardrail.
func NewBase(id, name, description string, caps ...Capability) Base {
	m := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		m[c] = true
	}
	return Base{id: id, name: name, description: description, caps: m}
}

// ID returns the stable identifier.
func (b *Base) ID() string { return b.id }

// Name returns the display name.
func (b *Base) Name() string { return b.name }

// Description returns the description.
func (b *Base) Description() string { return b.description }

// Supports reports whether the capability is declared.
func (b *Base) Supports(c Capability) bool { return b.caps[c] }

// Capabilities returns the declared capabilities in a stable order.
func (b *Base) Capabilities() []Capability {
	caps := make([]Capability, 0, len(b.caps))
	for _, c := range []Capability{CapabilityValidate, CapabilityTransform} {
		if b.caps[c] {
			caps = append(caps, c)
		}
	}
	return caps
}

// Unsupported returns the error for an undeclared capability.
func (b *Base) Unsupported(c Capability) error {
	return &CapabilityError{ID: b.id, Capability: c}
}

package guardrail

// Schema describes a guardrail's configurable fields for API consumers.
// Every check supplies a static descriptor alongside its defaults; the
// registry falls back to exposing the raw defaults when a check does not.
type Schema map[string]Field

// Field describes one configurable option.
type Field struct {
	// Type is the JSON type of the field (string, number, boolean, array, object).
	Type string `json:"type"`

	// Description explains the field for API consumers.
	Description string `json:"description"`

	// Required marks fields that must be present in the merged record.
	Required bool `json:"required,omitempty"`

	// Default is the value used when the field is not overridden.
	Default any `json:"default,omitempty"`

	// Example is a sample value, set when no default applies.
	Example any `json:"example,omitempty"`

	// Enum restricts string fields to a fixed set of values.
	Enum []string `json:"enum,omitempty"`

	// Minimum and Maximum bound numeric fields.
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// Items describes array element shape.
	Items *Field `json:"items,omitempty"`
}

// Float returns a pointer to v, for Minimum/Maximum literals.
func Float(v float64) *float64 { return &v }

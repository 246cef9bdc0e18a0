package pii

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/fyrsmithlabs/guardd/internal/guardrail"
)

// entityTypes maps the option-facing category names to the engine's
// entity type identifiers.
var entityTypes = map[string]string{
	"person":       "PERSON",
	"email":        "EMAIL_ADDRESS",
	"phone_number": "PHONE_NUMBER",
	"credit_card":  "CREDIT_CARD",
	"ssn":          "US_SSN",
	"ip_address":   "IP_ADDRESS",
	"location":     "LOCATION",
	"date_time":    "DATE_TIME",
	"url":          "URL",
	"iban":         "IBAN_CODE",
}

// EntityTypeNames returns the known category names, sorted.
func EntityTypeNames() []string {
	names := make([]string, 0, len(entityTypes))
	for name := range entityTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CustomRegex is a user-supplied detection pattern with its label.
type CustomRegex struct {
	Pattern string `json:"pattern" koanf:"pattern"`
	Label   string `json:"label" koanf:"label"`
}

// Options configures the PII guardrail.
type Options struct {
	// EntityTypes restricts model detection to the named categories.
	// Empty means no model-side restriction.
	EntityTypes []string `json:"entity_types" koanf:"entity_types"`

	// CustomRegexes adds pattern-based detections on top of the model.
	CustomRegexes []CustomRegex `json:"custom_regexes" koanf:"custom_regexes"`
}

// DefaultOptions returns the default PII options.
func DefaultOptions() Options {
	return Options{
		EntityTypes:   []string{},
		CustomRegexes: []CustomRegex{},
	}
}

// Validate checks the merged options. Each entity type must be a known
// category and each custom regex must compile and carry both a pattern
// and a label.
func (o Options) Validate() error {
	for _, et := range o.EntityTypes {
		if _, ok := entityTypes[et]; !ok {
			return &guardrail.OptionsError{
				ID:     ID,
				Field:  "entity_types",
				Reason: fmt.Sprintf("unknown entity type %q", et),
			}
		}
	}

	for _, cr := range o.CustomRegexes {
		if cr.Pattern == "" || cr.Label == "" {
			return &guardrail.OptionsError{
				ID:     ID,
				Field:  "custom_regexes",
				Reason: "each custom regex must have both pattern and label",
			}
		}
		if _, err := regexp.Compile(cr.Pattern); err != nil {
			return &guardrail.OptionsError{
				ID:     ID,
				Field:  "custom_regexes",
				Reason: fmt.Sprintf("invalid pattern %q: %v", cr.Pattern, err),
			}
		}
	}
	return nil
}

// engineTypes maps the selected categories to engine identifiers.
func (o Options) engineTypes() []string {
	types := make([]string, 0, len(o.EntityTypes))
	for _, et := range o.EntityTypes {
		types = append(types, entityTypes[et])
	}
	return types
}

// optionsSchema describes the PII options for the registry listing.
func optionsSchema() guardrail.Schema {
	return guardrail.Schema{
		"entity_types": {
			Type:        "array",
			Description: "PII categories to detect. Empty detects nothing model-side.",
			Default:     []string{},
			Items: &guardrail.Field{
				Type: "string",
				Enum: EntityTypeNames(),
			},
		},
		"custom_regexes": {
			Type:        "array",
			Description: "Additional regex detections. Each item needs a pattern and a label.",
			Default:     []CustomRegex{},
			Example:     []CustomRegex{{Pattern: `\b[A-Z]{2}\d{6}\b`, Label: "employee_id"}},
			Items: &guardrail.Field{
				Type: "object",
			},
		},
	}
}

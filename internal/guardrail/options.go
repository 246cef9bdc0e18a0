package guardrail

import (
	"github.com/go-viper/mapstructure/v2"
)

// Overrides is a partial, request-scoped options record. Named fields
// override the guardrail's defaults; unspecified fields keep their
// default values. Unknown fields are rejected at the boundary rather
// than silently ignored.
type Overrides map[string]any

// Merge decodes overrides into dst, which must be a pointer to a copy of
// the guardrail's default options. Fields absent from the overrides keep
// the values already present in dst. The caller re-validates the merged
// record afterwards.
func Merge(id string, overrides Overrides, dst any) error {
	if len(overrides) == 0 {
		return nil
	}

	// ZeroFields rebuilds overridden slices and maps from scratch. dst is
	// a shallow copy of the guardrail's defaults, so merging into its
	// existing backing arrays would write through to the stored defaults.
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      dst,
		TagName:     "json",
		ErrorUnused: true,
		ZeroFields:  true,
	})
	if err != nil {
		return &OptionsError{ID: id, Reason: err.Error()}
	}

	if err := dec.Decode(map[string]any(overrides)); err != nil {
		return &OptionsError{ID: id, Reason: err.Error()}
	}
	return nil
}

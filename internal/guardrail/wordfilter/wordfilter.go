// Package wordfilter implements the word filter guardrail: pure pattern
// matching against a configured word list, with no external model
// collaborator. All words are combined into a single alternation pattern
// and replaced in one pass; the reported match list comes from a second
// scan of the original (untransformed) content.
package wordfilter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/guardd/internal/guardrail"
)

// ID is the stable identifier of the word filter guardrail.
const ID = "word"

// Options configures the word filter guardrail.
type Options struct {
	// WordList is the list of words to filter out.
	WordList []string `json:"word_list" koanf:"word_list"`

	// CaseSensitive controls whether matching respects case.
	CaseSensitive bool `json:"case_sensitive" koanf:"case_sensitive"`

	// WholeWordsOnly wraps each word in word-boundary anchors.
	WholeWordsOnly bool `json:"whole_words_only" koanf:"whole_words_only"`

	// Replacement is the text substituted for each match.
	Replacement string `json:"replacement" koanf:"replacement"`
}

// DefaultOptions returns the default word filter options.
func DefaultOptions() Options {
	return Options{
		WordList:       []string{},
		CaseSensitive:  false,
		WholeWordsOnly: true,
		Replacement:    "[FILTERED]",
	}
}

// Validate checks the merged options.
func (o Options) Validate() error {
	for _, w := range o.WordList {
		if w == "" {
			return &guardrail.OptionsError{ID: ID, Field: "word_list", Reason: "words cannot be empty"}
		}
	}
	if o.Replacement == "" {
		return &guardrail.OptionsError{ID: ID, Field: "replacement", Reason: "replacement cannot be empty"}
	}
	return nil
}

// compile builds the single alternation pattern for the word list, or nil
// when the list is empty. An empty alternation would match at every
// position, so the empty list is handled as a no-op by the callers.
func (o Options) compile() (*regexp.Regexp, error) {
	if len(o.WordList) == 0 {
		return nil, nil
	}

	parts := make([]string, 0, len(o.WordList))
	for _, w := range o.WordList {
		p := regexp.QuoteMeta(w)
		if o.WholeWordsOnly {
			p = `\b` + p + `\b`
		}
		parts = append(parts, p)
	}

	pattern := strings.Join(parts, "|")
	if !o.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

func optionsSchema() guardrail.Schema {
	return guardrail.Schema{
		"word_list": {
			Type:        "array",
			Description: "Words to filter out.",
			Default:     []string{},
			Example:     []string{"confidential", "internal"},
			Items:       &guardrail.Field{Type: "string"},
		},
		"case_sensitive": {
			Type:        "boolean",
			Description: "Whether word matching is case sensitive.",
			Default:     false,
		},
		"whole_words_only": {
			Type:        "boolean",
			Description: "Match whole words only, not substrings.",
			Default:     true,
		},
		"replacement": {
			Type:        "string",
			Description: "Text to replace filtered words with.",
			Default:     "[FILTERED]",
		},
	}
}

// Guardrail filters content against a word list.
type Guardrail struct {
	guardrail.Base
	defaults Options
}

// New creates the word filter guardrail.
func New(defaults Options) (*Guardrail, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}

	return &Guardrail{
		Base: guardrail.NewBase(
			ID,
			"Word Filter",
			"Filters and transforms content based on a list of words",
			guardrail.CapabilityValidate,
			guardrail.CapabilityTransform,
		),
		defaults: defaults,
	}, nil
}

// Defaults returns the default options record.
func (g *Guardrail) Defaults() any { return g.defaults }

// Schema returns the static options schema descriptor.
func (g *Guardrail) Schema() guardrail.Schema { return optionsSchema() }

func (g *Guardrail) merged(overrides guardrail.Overrides) (Options, *regexp.Regexp, error) {
	opts := g.defaults
	if err := guardrail.Merge(ID, overrides, &opts); err != nil {
		return Options{}, nil, err
	}
	if err := opts.Validate(); err != nil {
		return Options{}, nil, err
	}

	re, err := opts.compile()
	if err != nil {
		return Options{}, nil, &guardrail.OptionsError{ID: ID, Field: "word_list", Reason: err.Error()}
	}
	return opts, re, nil
}

// Validate reports a violation per matched word.
func (g *Guardrail) Validate(ctx context.Context, content string, overrides guardrail.Overrides) (*guardrail.ValidationResult, error) {
	_, re, err := g.merged(overrides)
	if err != nil {
		return nil, err
	}

	violations := []string{}
	if re != nil {
		for _, m := range re.FindAllString(content, -1) {
			violations = append(violations, fmt.Sprintf("Found filtered word: %s", m))
		}
	}

	return guardrail.NewValidationResult(violations), nil
}

// Details is the transformation detail record for the word filter.
type Details struct {
	// FilteredWords lists the literal words matched in the original
	// content, in match order.
	FilteredWords []string `json:"filtered_words"`

	// AppliedOptions is the effective merged options record.
	AppliedOptions Options `json:"applied_options"`
}

// Transform replaces every match in one pass. The reported word list is
// collected by re-scanning the original content; the first pass's output
// is needed only for the returned content.
func (g *Guardrail) Transform(ctx context.Context, content string, overrides guardrail.Overrides) (*guardrail.TransformationResult, error) {
	opts, re, err := g.merged(overrides)
	if err != nil {
		return nil, err
	}

	transformed := content
	filtered := []string{}
	if re != nil {
		transformed = re.ReplaceAllLiteralString(content, opts.Replacement)
		filtered = append(filtered, re.FindAllString(content, -1)...)
	}

	return &guardrail.TransformationResult{
		Content: transformed,
		Details: Details{
			FilteredWords:  filtered,
			AppliedOptions: opts,
		},
	}, nil
}

var _ guardrail.Guardrail = (*Guardrail)(nil)

package secrets

import (
	"fmt"
	"regexp"

	"github.com/fyrsmithlabs/guardd/internal/guardrail"
)

// Rule defines one secret detection rule.
type Rule struct {
	// ID is the unique identifier for this rule.
	ID string `json:"id" koanf:"id"`

	// Description explains what this rule detects.
	Description string `json:"description" koanf:"description"`

	// Pattern is the regex pattern to match secrets.
	Pattern string `json:"pattern" koanf:"pattern"`

	// Keywords are optional keywords that must be present for the rule to apply.
	Keywords []string `json:"keywords,omitempty" koanf:"keywords"`
}

// Options configures the secrets guardrail.
type Options struct {
	// Rules defines the detection rules.
	Rules []Rule `json:"rules" koanf:"rules"`

	// Redaction is the replacement for detected secrets.
	Redaction string `json:"redaction" koanf:"redaction"`

	// AllowList contains patterns whose matches are never treated as secrets.
	AllowList []string `json:"allow_list" koanf:"allow_list"`
}

// DefaultOptions returns the default rule set and redaction token.
func DefaultOptions() Options {
	return Options{
		Rules:     DefaultRules(),
		Redaction: "[SECRET]",
		AllowList: []string{},
	}
}

// DefaultRules returns the built-in secret detection rules, based on
// common credential formats.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "aws-access-key-id",
			Description: "AWS Access Key ID",
			Pattern:     `(?i)(A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|ASIA)[A-Z0-9]{16}`,
			Keywords:    []string{"akia", "asia", "aws"},
		},
		{
			ID:          "github-token",
			Description: "GitHub Personal Access Token",
			Pattern:     `gh[posu]_[A-Za-z0-9]{36}`,
		},
		{
			ID:          "gitlab-token",
			Description: "GitLab Personal Access Token",
			Pattern:     `glpat-[A-Za-z0-9\-]{20,}`,
		},
		{
			ID:          "private-key",
			Description: "Private Key",
			Pattern:     `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY(?:[- ]BLOCK)?-----`,
		},
		{
			ID:          "generic-api-key",
			Description: "Generic API Key",
			Pattern:     `(?i)(?:api[_-]?key|apikey)\s*[:=]\s*['"]?([A-Za-z0-9_\-]{16,64})['"]?`,
			Keywords:    []string{"api", "key"},
		},
		{
			ID:          "generic-secret",
			Description: "Generic Secret",
			Pattern:     `(?i)(?:secret|password|passwd|pwd)\s*[:=]\s*['"]?([^\s'"]{8,})['"]?`,
			Keywords:    []string{"secret", "password"},
		},
		{
			ID:          "bearer-token",
			Description: "Bearer Token",
			Pattern:     `(?i)bearer\s+[A-Za-z0-9\-._~+/]{20,}=*`,
			Keywords:    []string{"bearer"},
		},
	}
}

// Validate checks the merged options without compiling them.
func (o Options) Validate() error {
	_, err := o.compile()
	return err
}

// compiledRule pairs a rule with its compiled patterns.
type compiledRule struct {
	Rule
	pattern  *regexp.Regexp
	keywords []*regexp.Regexp
}

type compiled struct {
	rules     []*compiledRule
	allowList []*regexp.Regexp
	redaction string
}

// compile validates and compiles every rule, keyword, and allow-list
// pattern. Any failure is reported as an invalid-options error naming the
// offending rule.
func (o Options) compile() (*compiled, error) {
	if o.Redaction == "" {
		return nil, &guardrail.OptionsError{ID: ID, Field: "redaction", Reason: "redaction cannot be empty"}
	}

	c := &compiled{
		rules:     make([]*compiledRule, 0, len(o.Rules)),
		redaction: o.Redaction,
	}

	for i, rule := range o.Rules {
		if rule.ID == "" {
			return nil, &guardrail.OptionsError{
				ID:     ID,
				Field:  "rules",
				Reason: fmt.Sprintf("rule %d: id is required", i),
			}
		}
		if rule.Pattern == "" {
			return nil, &guardrail.OptionsError{
				ID:     ID,
				Field:  "rules",
				Reason: fmt.Sprintf("rule %s: pattern is required", rule.ID),
			}
		}

		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, &guardrail.OptionsError{
				ID:     ID,
				Field:  "rules",
				Reason: fmt.Sprintf("rule %s: invalid pattern: %v", rule.ID, err),
			}
		}

		cr := &compiledRule{Rule: rule, pattern: pattern}
		for _, kw := range rule.Keywords {
			kwPattern, err := regexp.Compile("(?i)" + regexp.QuoteMeta(kw))
			if err != nil {
				return nil, &guardrail.OptionsError{
					ID:     ID,
					Field:  "rules",
					Reason: fmt.Sprintf("rule %s: invalid keyword %q: %v", rule.ID, kw, err),
				}
			}
			cr.keywords = append(cr.keywords, kwPattern)
		}
		c.rules = append(c.rules, cr)
	}

	for i, pattern := range o.AllowList {
		compiledAllow, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &guardrail.OptionsError{
				ID:     ID,
				Field:  "allow_list",
				Reason: fmt.Sprintf("pattern %d: %v", i, err),
			}
		}
		c.allowList = append(c.allowList, compiledAllow)
	}

	return c, nil
}

func optionsSchema() guardrail.Schema {
	return guardrail.Schema{
		"rules": {
			Type:        "array",
			Description: "Secret detection rules. Each needs an id and a pattern; keywords gate the rule cheaply.",
			Default:     DefaultRules(),
			Items:       &guardrail.Field{Type: "object"},
		},
		"redaction": {
			Type:        "string",
			Description: "Replacement for detected secrets.",
			Default:     "[SECRET]",
		},
		"allow_list": {
			Type:        "array",
			Description: "Regex patterns whose matches are never treated as secrets.",
			Default:     []string{},
			Items:       &guardrail.Field{Type: "string"},
		},
	}
}

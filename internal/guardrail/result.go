package guardrail

// ValidationResult reports the outcome of a validation call. It is
// immutable once produced: Passed is true iff Violations is empty, and
// violations appear in detection order (model detections before pattern
// detections for checks with both sources).
type ValidationResult struct {
	Passed     bool     `json:"passed"`
	Violations []string `json:"violations"`
}

// NewValidationResult builds a result from the collected violations.
func NewValidationResult(violations []string) *ValidationResult {
	if violations == nil {
		violations = []string{}
	}
	return &ValidationResult{
		Passed:     len(violations) == 0,
		Violations: violations,
	}
}

// TransformationResult reports the outcome of a transformation call.
// Details is a check-specific record carrying at minimum the entities
// acted upon and the effective options used.
type TransformationResult struct {
	Content string `json:"transformed_content"`
	Details any    `json:"details"`
}

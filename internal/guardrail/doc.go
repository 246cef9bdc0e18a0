// Package guardrail defines the core types for content-safety checks:
// the Guardrail interface with capability gating, immutable validation
// and transformation results, typed option merging, options schema
// descriptors, the check registry, and the error taxonomy shared by the
// orchestration and transport layers.
//
// A guardrail is constructed once at startup, registered into a Registry,
// and never mutated afterwards. Request-scoped option overrides are merged
// against a copy of the check's defaults and re-validated per call; the
// stored defaults are never touched.
package guardrail

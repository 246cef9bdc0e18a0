package guardrail

import (
	"errors"
	"fmt"
)

// Error kinds. The transport layer maps these to response codes: the
// first three are caller mistakes (400-class), ErrCollaborator is a
// server-side condition (500-class).
var (
	// ErrUnknownGuardrail indicates a requested identifier is not registered.
	ErrUnknownGuardrail = errors.New("unknown guardrail")

	// ErrUnsupportedCapability indicates an operation was requested on a
	// guardrail that does not declare the required capability.
	ErrUnsupportedCapability = errors.New("unsupported capability")

	// ErrInvalidOptions indicates the merged options failed validation.
	ErrInvalidOptions = errors.New("invalid options")

	// ErrCollaborator indicates an external model collaborator failed.
	ErrCollaborator = errors.New("collaborator failure")
)

// CapabilityError identifies the guardrail and the missing capability.
type CapabilityError struct {
	ID         string
	Capability Capability
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("guardrail %s does not support %s", e.ID, e.Capability)
}

// Is makes the error match ErrUnsupportedCapability.
func (e *CapabilityError) Is(target error) bool {
	return target == ErrUnsupportedCapability
}

// OptionsError surfaces an invalid merged configuration with the
// offending field where known.
type OptionsError struct {
	ID     string
	Field  string
	Reason string
}

func (e *OptionsError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("guardrail %s: invalid options: %s: %s", e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("guardrail %s: invalid options: %s", e.ID, e.Reason)
}

// Is makes the error match ErrInvalidOptions.
func (e *OptionsError) Is(target error) bool {
	return target == ErrInvalidOptions
}

// CollaboratorError wraps a failure from an external model collaborator.
// It is fatal for the current check and must not be masked as an empty
// detection list.
type CollaboratorError struct {
	ID  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("guardrail %s: collaborator failure: %v", e.ID, e.Err)
}

// Is makes the error match ErrCollaborator.
func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaborator
}

// Unwrap exposes the underlying collaborator error.
func (e *CollaboratorError) Unwrap() error { return e.Err }

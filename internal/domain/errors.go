package domain

import "errors"

// Domain errors represent error conditions in the synthctl domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrUnreachable is returned when the controller cannot be reached,
	// either at connect time or when a read/write times out mid-session.
	ErrUnreachable = errors.New("synthctl: controller unreachable")

	// ErrIllegalTransition is returned when a session command is not valid
	// from the current phase. It is rejected locally; no controller I/O occurs.
	ErrIllegalTransition = errors.New("synthctl: illegal session transition")

	// ErrSessionTerminal is returned when a command is issued against a
	// session that has reached Completed, Faulted, or Aborted.
	ErrSessionTerminal = errors.New("synthctl: session is terminal")

	// ErrNotValidated is returned when a frame is requested for a
	// configuration that never passed validation.
	ErrNotValidated = errors.New("synthctl: configuration not validated")

	// ErrInvalidConfig is returned when instrument configuration validation fails.
	ErrInvalidConfig = errors.New("synthctl: invalid configuration")

	// ErrInvalidFrame is returned when decoding a register frame that holds
	// enum values outside the controller's tag list.
	ErrInvalidFrame = errors.New("synthctl: invalid register frame")
)

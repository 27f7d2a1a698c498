// Package domain contains the core domain entities and value objects for synthctl.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (PLC transport, file system, logging)
// and contains only pure data and business rules.
//
// # Entities
//
//   - [RunConfiguration]: A candidate synthesis or maintenance instruction
//   - [ValidationResult]: Outcome of static validation with collected violations
//   - [TransactionResult]: Outcome of a verified register write against the controller
//   - [SessionSnapshot]: Immutable view of one instrument session's state
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Focused on instrument-physical rules and invariants
//   - Testable without mocks or external systems
package domain

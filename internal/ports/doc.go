// Package ports defines the interfaces (ports) that connect the session core
// to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// core needs from external systems without specifying how those needs are
// fulfilled.
//
// # Port Interfaces
//
//   - [Transport]: Raw block read/write against the controller's register map
//   - [Notifier]: Session state change notifications for the driving agent
//   - [SessionJournal]: Persists finished session outcomes
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The session core (internal/session, internal/txn) depends only on these
// interfaces. Infrastructure adapters (internal/adapters) implement them with
// concrete implementations (S7 client, in-memory simulator, file system).
//
// This separation enables:
//   - Testing the transaction and state machine layers against the simulator
//   - Swapping the physical channel without changing session logic
//   - Clear boundaries and dependency direction
package ports

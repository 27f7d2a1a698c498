package ports

import "github.com/nanoforge-io/synthctl/internal/domain"

// Notifier receives session state change notifications.
// The driving agent implements this to relay phase, mode, and fault
// information to the operator. Calls are synchronous from the session's
// command path; implementations must not block.
type Notifier interface {
	OnSessionChange(snapshot domain.SessionSnapshot)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(snapshot domain.SessionSnapshot)

// OnSessionChange calls the wrapped function.
func (f NotifierFunc) OnSessionChange(snapshot domain.SessionSnapshot) {
	f(snapshot)
}

// Package log provides logging adapters for internal use.
package log

import "github.com/nanoforge-io/synthctl/pkg/log"

// NewNoopLogger returns a logger that discards all messages.
// Used as the default when no logger option is provided.
func NewNoopLogger() log.Logger {
	return log.NewNoopLogger()
}

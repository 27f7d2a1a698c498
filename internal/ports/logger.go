package ports

import "github.com/nanoforge-io/synthctl/pkg/log"

// Logger is the structured logging abstraction used across the core.
// It aliases pkg/log so internal packages need a single import.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Re-exported field constructors for convenience.
var (
	String   = log.String
	Int      = log.Int
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Stringer = log.Stringer
	Any      = log.Any
)

package ports

import "context"

// Transport abstracts the physical channel to the instrument controller.
//
// Implementations must surface timeouts and connection loss as errors
// wrapping domain.ErrUnreachable so the transaction manager can classify
// them. Calls are blocking with a bounded timeout; the layer above never
// retries automatically.
type Transport interface {
	// ReadBlock reads length bytes starting at the given byte offset of the
	// controller's experiment data block.
	ReadBlock(ctx context.Context, offset, length int) ([]byte, error)

	// WriteBlock writes data starting at the given byte offset of the
	// controller's experiment data block.
	WriteBlock(ctx context.Context, offset int, data []byte) error

	// Close releases the connection. A closed transport fails all
	// subsequent calls.
	Close() error
}

// Package sim provides a deterministic in-memory controller used when no
// hardware is attached.
//
// The simulator echoes writes back on read, with a configurable artificial
// latency and fault-injection modes for exercising the transaction manager's
// rollback and timeout paths.
package sim

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/nanoforge-io/synthctl/internal/domain"
	"github.com/nanoforge-io/synthctl/internal/register"
)

// blockSize is the simulated extent of the experiment data block.
const blockSize = register.BlockSize

// Transport is an in-memory ports.Transport implementation.
// Safe for concurrent use.
type Transport struct {
	mu     sync.Mutex
	block  [blockSize]byte
	closed bool

	latency     time.Duration
	corruptAt   int // byte offset corrupted on write, -1 when disabled
	dropStart   int // writes within [dropStart, dropEnd) are silently ignored
	dropEnd     int
	unreachable bool
}

// Option configures the simulated transport.
type Option func(*Transport)

// WithLatency adds an artificial delay to every read and write.
// A latency longer than the caller's context deadline produces an
// Unreachable failure, which is how transport timeouts are simulated.
func WithLatency(d time.Duration) Option {
	return func(t *Transport) { t.latency = d }
}

// WithCorruption flips the stored byte at the given offset whenever a write
// covers it. Used to test the rollback path: the readback will never match
// the written frame.
func WithCorruption(offset int) Option {
	return func(t *Transport) { t.corruptAt = offset }
}

// WithDroppedWrites silently discards writes that fall entirely within
// [start, end). Used to test abort against a controller that never
// acknowledges its stop command.
func WithDroppedWrites(start, end int) Option {
	return func(t *Transport) {
		t.dropStart = start
		t.dropEnd = end
	}
}

// New creates a simulated transport.
func New(opts ...Option) *Transport {
	t := &Transport{corruptAt: -1, dropStart: -1, dropEnd: -1}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ReadBlock returns length bytes starting at offset.
func (t *Transport) ReadBlock(ctx context.Context, offset, length int) ([]byte, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.unreachable {
		return nil, domain.ErrUnreachable
	}
	if offset < 0 || offset+length > blockSize {
		return nil, fmt.Errorf("sim: read out of range [%d, %d)", offset, offset+length)
	}

	out := make([]byte, length)
	copy(out, t.block[offset:offset+length])
	return out, nil
}

// WriteBlock stores data starting at offset, applying the configured
// fault-injection modes.
func (t *Transport) WriteBlock(ctx context.Context, offset int, data []byte) error {
	if err := t.wait(ctx); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.unreachable {
		return domain.ErrUnreachable
	}
	end := offset + len(data)
	if offset < 0 || end > blockSize {
		return fmt.Errorf("sim: write out of range [%d, %d)", offset, end)
	}

	if t.dropStart >= 0 && offset >= t.dropStart && end <= t.dropEnd {
		return nil // write silently lost
	}

	copy(t.block[offset:end], data)
	if t.corruptAt >= offset && t.corruptAt < end {
		t.block[t.corruptAt] ^= 0xFF
	}
	return nil
}

// Close marks the transport closed; subsequent calls fail as unreachable.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// SetUnreachable toggles a simulated connection loss.
func (t *Transport) SetUnreachable(down bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unreachable = down
}

// SetStatus writes the controller status word, bypassing fault injection.
// Test hook standing in for the controller's own status reporting.
func (t *Transport) SetStatus(status int16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	binary.BigEndian.PutUint16(t.block[register.OffStatus:], uint16(status))
}

// Peek returns a copy of stored bytes without latency or fault injection.
func (t *Transport) Peek(offset, length int) []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]byte, length)
	copy(out, t.block[offset:offset+length])
	return out
}

// wait applies the artificial latency, honoring the caller's deadline.
func (t *Transport) wait(ctx context.Context) error {
	if t.latency <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
		}
		return nil
	}

	timer := time.NewTimer(t.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrUnreachable, ctx.Err())
	case <-timer.C:
		return nil
	}
}

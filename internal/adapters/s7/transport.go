// Package s7 binds the transport port to a real S7-family controller over
// the S7 communication protocol.
package s7

import (
	"context"
	"fmt"
	"time"

	"github.com/robinson/gos7"

	"github.com/nanoforge-io/synthctl/internal/domain"
	"github.com/nanoforge-io/synthctl/internal/ports"
)

// Config holds the controller's network address and rack/slot coordinates.
type Config struct {
	// Addr is the controller's IP address or host:port.
	Addr string

	// Rack and Slot locate the CPU in the rack. Typical S7-1200 values are
	// rack 0, slot 1.
	Rack int
	Slot int

	// DBNumber is the experiment data block number on the controller.
	DBNumber int

	// Timeout bounds each protocol round trip.
	Timeout time.Duration
}

// Transport implements ports.Transport over a live S7 connection.
type Transport struct {
	client   gos7.Client
	handler  *gos7.TCPClientHandler
	dbNumber int
	logger   ports.Logger
}

// Connect dials the controller. A connection failure here is fatal to the
// session: there is no silent retry and no fallback to the simulator.
func Connect(cfg Config, logger ports.Logger) (*Transport, error) {
	handler := gos7.NewTCPClientHandler(cfg.Addr, cfg.Rack, cfg.Slot)
	if cfg.Timeout > 0 {
		handler.Timeout = cfg.Timeout
		handler.IdleTimeout = cfg.Timeout
	}

	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect %s (rack %d, slot %d): %v",
			domain.ErrUnreachable, cfg.Addr, cfg.Rack, cfg.Slot, err)
	}

	logger.Info("controller connected",
		ports.String("addr", cfg.Addr),
		ports.Int("rack", cfg.Rack),
		ports.Int("slot", cfg.Slot),
		ports.Int("db", cfg.DBNumber),
	)

	return &Transport{
		client:   gos7.NewClient(handler),
		handler:  handler,
		dbNumber: cfg.DBNumber,
		logger:   logger,
	}, nil
}

// ReadBlock reads length bytes from the experiment data block.
func (t *Transport) ReadBlock(ctx context.Context, offset, length int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
	}
	buf := make([]byte, length)
	if err := t.client.AGReadDB(t.dbNumber, offset, length, buf); err != nil {
		return nil, fmt.Errorf("%w: read DB%d@%d: %v", domain.ErrUnreachable, t.dbNumber, offset, err)
	}
	return buf, nil
}

// WriteBlock writes data into the experiment data block.
func (t *Transport) WriteBlock(ctx context.Context, offset int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
	}
	if err := t.client.AGWriteDB(t.dbNumber, offset, len(data), data); err != nil {
		return fmt.Errorf("%w: write DB%d@%d: %v", domain.ErrUnreachable, t.dbNumber, offset, err)
	}
	return nil
}

// Close drops the controller connection.
func (t *Transport) Close() error {
	return t.handler.Close()
}

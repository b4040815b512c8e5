package i2c

import (
	"context"
	"fmt"

	gi2c "gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/a1335"
)

var _ a1335.Bus = (*GobotBus)(nil)

// GobotBus exposes a gobot i2c connector (any gobot platform adaptor) as
// an a1335.Bus. Connections are opened lazily per device address and kept
// for the lifetime of the bus.
type GobotBus struct {
	connector gi2c.Connector
	busNr     int
	conns     map[byte]gi2c.Connection

	txAddr  byte
	txBuf   []byte
	pending []byte
}

func NewGobotBus(connector gi2c.Connector, busNr int) *GobotBus {
	return &GobotBus{
		connector: connector,
		busNr:     busNr,
		conns:     make(map[byte]gi2c.Connection),
	}
}

func (b *GobotBus) connection(address byte) (gi2c.Connection, error) {
	if conn, ok := b.conns[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c connection to %x: %w", address, err)
	}
	b.conns[address] = conn
	return conn, nil
}

func (b *GobotBus) BeginTransmission(address byte) {
	b.txAddr = address
	b.txBuf = b.txBuf[:0]
}

func (b *GobotBus) Write(bb byte) {
	b.txBuf = append(b.txBuf, bb)
}

func (b *GobotBus) EndTransmission(ctx context.Context) error {
	conn, err := b.connection(b.txAddr)
	if err != nil {
		return err
	}
	if _, err = conn.Write(b.txBuf); err != nil {
		return fmt.Errorf("could not write to i2c device %x: %w", b.txAddr, err)
	}
	return nil
}

func (b *GobotBus) RequestFrom(ctx context.Context, address byte, count int) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	buf := make([]byte, count)
	// a short read is reported through Available, not as an error
	n, err := conn.Read(buf)
	if err != nil {
		return fmt.Errorf("could not read from i2c device %x: %w", address, err)
	}
	b.pending = buf[:n]
	return nil
}

func (b *GobotBus) Available() int {
	return len(b.pending)
}

func (b *GobotBus) ReadByte() byte {
	bb := b.pending[0]
	b.pending = b.pending[1:]
	return bb
}

func (b *GobotBus) Close() error {
	for _, conn := range b.conns {
		if err := conn.Close(); err != nil {
			return err
		}
	}
	return nil
}

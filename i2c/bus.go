package i2c

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/mklimuk/a1335"
)

var _ a1335.Bus = (*GenericBus)(nil)

// GenericBus exposes a linux i2c device (/dev/i2c-*) as an a1335.Bus
// through periph.io. Queued transaction bytes go out as a single bus
// write on EndTransmission; RequestFrom performs one bus read and buffers
// the result for Available/ReadByte.
type GenericBus struct {
	bus i2c.BusCloser

	txAddr  byte
	txBuf   []byte
	pending []byte
}

func NewGenericBus(dev string) (*GenericBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return &GenericBus{
		bus: bus,
	}, nil
}

// SetSpeed adjusts the bus clock. The A1335 supports up to 400 kHz.
func (b *GenericBus) SetSpeed(f physic.Frequency) error {
	return b.bus.SetSpeed(f)
}

func (b *GenericBus) BeginTransmission(address byte) {
	b.txAddr = address
	b.txBuf = b.txBuf[:0]
}

func (b *GenericBus) Write(bb byte) {
	b.txBuf = append(b.txBuf, bb)
}

func (b *GenericBus) EndTransmission(ctx context.Context) error {
	err := b.bus.Tx(uint16(b.txAddr), b.txBuf, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c device %x: %w", b.txAddr, err)
	}
	return nil
}

func (b *GenericBus) RequestFrom(ctx context.Context, address byte, count int) error {
	buf := make([]byte, count)
	err := b.bus.Tx(uint16(address), nil, buf)
	if err != nil {
		return fmt.Errorf("could not read from i2c device %x: %w", address, err)
	}
	b.pending = buf
	return nil
}

func (b *GenericBus) Available() int {
	return len(b.pending)
}

func (b *GenericBus) ReadByte() byte {
	bb := b.pending[0]
	b.pending = b.pending[1:]
	return bb
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}

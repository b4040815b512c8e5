package a1335

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// Bus is the two-wire transport the driver operates on. It follows the
// transaction model of the register protocol: bytes queued between
// BeginTransmission and EndTransmission go out as a single write
// transaction, and RequestFrom opens a read transaction whose bytes are
// consumed one at a time with Available/ReadByte.
//
// The bus implementation is responsible for serializing access between
// devices sharing the wire; the driver issues strictly sequential
// transactions and holds no locks of its own.
type Bus interface {
	// BeginTransmission starts queueing a write transaction to the device
	// at the given 7-bit address. A transaction ended with no queued bytes
	// is a valid zero-length probe.
	BeginTransmission(address byte)
	// Write queues one byte within the open transaction.
	Write(b byte)
	// EndTransmission sends the queued transaction and reports the bus
	// completion status.
	EndTransmission(ctx context.Context) error
	// RequestFrom opens a read transaction for up to count bytes. Fewer
	// bytes than requested may arrive; Available reports how many did.
	RequestFrom(ctx context.Context, address byte, count int) error
	// Available returns the number of pending bytes left to consume.
	Available() int
	// ReadByte consumes and returns the next pending byte.
	ReadByte() byte
}

package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/a1335"
	"github.com/mklimuk/a1335/cmd/a1335/console"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// MCP2221 drives the Microchip MCP2221 USB to I2C bridge over USB HID and
// exposes it as an a1335.Bus. Bytes queued between BeginTransmission and
// EndTransmission are flushed as a single I2C write command; RequestFrom
// issues a read command and buffers whatever the engine delivered for
// consumption through Available/ReadByte.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration

	txAddr  byte
	txBuf   []byte
	pending []byte
}

var _ a1335.Bus = (*MCP2221)(nil)

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

func NewMCP2221() *MCP2221 {
	return &MCP2221{
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
	}
}

// Init checks that exactly one adapter is reachable over USB so that
// callers can fail fast before the first transaction.
func (d *MCP2221) Init() error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) > 1 {
		return fmt.Errorf("ambiguous device identification")
	}
	if len(devs) == 0 {
		return fmt.Errorf("MCP2221 device not found")
	}
	return nil
}

func (d *MCP2221) BeginTransmission(address byte) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.txAddr = address
	d.txBuf = d.txBuf[:0]
}

func (d *MCP2221) Write(b byte) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.txBuf = append(d.txBuf, b)
}

func (d *MCP2221) EndTransmission(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	// 0x90 is the stop-terminated I2C write; the register protocol never
	// needs a repeated-start write
	d.request[0] = 0x90
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(d.txBuf)))
	d.request[3] = d.txAddr << 1
	copy(d.request[4:], d.txBuf)
	d.txBuf = d.txBuf[:0]
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("write to %#02x failed: %w", d.txAddr, err)
	}
	if d.response[1] == 0x01 {
		console.Debug("adapter busy")
		return a1335.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) RequestFrom(ctx context.Context, address byte, count int) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = 0x91
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(count))
	d.request[3] = address<<1 + 1
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("bus read from %#02x failed: %w", address, err)
	}
	// 0x40 fetches the data the I2C engine collected
	d.request[0] = 0x40
	resetBuffer(d.response)
	err = d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == 0x41 {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	size := int(d.response[3])
	if size == 127 {
		return a1335.ErrBusBusy
	}
	// fewer bytes than requested is not an error here; the caller
	// observes the shortfall through Available
	if size > count {
		size = count
	}
	d.pending = append(d.pending[:0], d.response[4:4+size]...)
	return nil
}

func (d *MCP2221) Available() int {
	d.mx.Lock()
	defer d.mx.Unlock()
	return len(d.pending)
}

func (d *MCP2221) ReadByte() byte {
	d.mx.Lock()
	defer d.mx.Unlock()
	b := d.pending[0]
	d.pending = d.pending[1:]
	return b
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = 0x10
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

// ReleaseBus cancels the current transfer and frees the I2C engine, for
// recovery when a previous session left the bus claimed.
func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = 0x10
	d.request[2] = 0x10
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func (d *MCP2221) send(ctx context.Context, response bool) error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) > 1 {
		return fmt.Errorf("ambiguous device identification")
	}
	if len(devs) == 0 {
		return fmt.Errorf("MCP2221 device not found")
	}
	dev, err := devs[0].Open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() {
		_ = dev.Close()
	}()
	verbose := console.IsVerbose(ctx)
	if verbose {
		console.Printf("sending message to adapter:\n%s\n", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short write: %d", n)
	}
	if !response {
		return nil
	}
	time.Sleep(d.responseWait)
	console.Debug("reading response from adapter")
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		console.Printf("read message from adapter:\n%s\n", hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := 0; i < len(buf)-1; i++ {
		buf[i] = 0x00
	}
}

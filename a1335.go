// Package a1335 drives the Allegro A1335 contactless magnetic angle
// sensor over a two-wire bus. The sensor measures the absolute angular
// position of a permanent magnet, typically a diametrically magnetized
// cylinder on a rotating shaft, and additionally reports die temperature
// and magnetic field strength.
package a1335

import (
	"context"
	"fmt"
	"time"

	"github.com/mklimuk/a1335/word"
)

// DefaultAddress is the factory-programmed 7-bit bus address.
const DefaultAddress byte = 0x0C

var ErrParity = fmt.Errorf("a1335: angle register failed odd parity check")
var ErrWriteNotConfirmed = fmt.Errorf("a1335: extended write not confirmed by device")

type Opts struct {
	// StartupDelay is the settling time after Start.
	StartupDelay time.Duration
	// ModeDelay is the settling time after a control keycode write.
	ModeDelay time.Duration
	// WriteDelay is the settling time after an extended register write.
	WriteDelay time.Duration
	// TurnaroundDelay separates an extended register request from the
	// device response readback.
	TurnaroundDelay time.Duration
}

type Opt func(*Opts)

func WithStartupDelay(d time.Duration) Opt {
	return func(o *Opts) { o.StartupDelay = d }
}

func WithModeDelay(d time.Duration) Opt {
	return func(o *Opts) { o.ModeDelay = d }
}

func WithWriteDelay(d time.Duration) Opt {
	return func(o *Opts) { o.WriteDelay = d }
}

func WithTurnaroundDelay(d time.Duration) Opt {
	return func(o *Opts) { o.TurnaroundDelay = d }
}

// A1335 represents one sensor on the bus. Typical usage:
//
//	s := a1335.New(bus)
//	if err := s.Start(ctx, a1335.DefaultAddress); err != nil { ... }
//	deg, err := s.ReadAngle(ctx)
//
// An instance owns its session state exclusively and performs strictly
// sequential blocking transactions; several instances may share one Bus as
// long as they use distinct addresses and the Bus serializes access.
type A1335 struct {
	bus    Bus
	config Opts

	address byte
	state   ProcessorState
	rate    byte
}

func New(bus Bus, opts ...Opt) *A1335 {
	config := Opts{
		StartupDelay:    time.Millisecond,
		ModeDelay:       150 * time.Microsecond,
		WriteDelay:      50 * time.Microsecond,
		TurnaroundDelay: 10 * time.Microsecond,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &A1335{
		bus:     bus,
		config:  config,
		address: DefaultAddress,
		state:   StateNotFound,
	}
}

// Address returns the bus address the driver talks to.
func (s *A1335) Address() byte { return s.address }

// State returns the processor state derived from the last status read.
func (s *A1335) State() ProcessorState { return s.state }

// OutputRate returns the cached output rate code, the log2 of the sample
// rate. It is populated by Start and updated by SetOutputRate.
func (s *A1335) OutputRate() byte { return s.rate }

// Start probes the device at the given address and loads the session
// state: the processor state from the status register and the output rate
// code from the extended output rate register. When the probe fails the
// state stays at StateNotFound and no further transactions are attempted;
// reads issued after a failed Start are undefined, callers must check the
// returned error.
func (s *A1335) Start(ctx context.Context, address byte) error {
	s.bus.BeginTransmission(address)
	if err := s.bus.EndTransmission(ctx); err != nil {
		s.state = StateNotFound
		return fmt.Errorf("a1335: no response from address %#02x: %w", address, err)
	}
	s.address = address
	sta, err := s.normalRead(ctx, RegSTA)
	if err != nil {
		return fmt.Errorf("a1335: could not read status register: %w", err)
	}
	orate, _, err := s.extendedRead(ctx, RegORATE)
	if err != nil {
		return fmt.Errorf("a1335: could not read output rate register: %w", err)
	}
	s.state = decodeStatus(sta, s.state).State
	s.rate = byte(orate >> 24)
	time.Sleep(s.config.StartupDelay)
	return nil
}

// ReadAngle returns the current shaft angle in degrees.
func (s *A1335) ReadAngle(ctx context.Context) (float64, error) {
	raw, err := s.ReadAngleRaw(ctx)
	if err != nil {
		return 0, err
	}
	return float64(raw) * 360.0 / 4096.0, nil
}

// ReadAngleRaw returns the 12-bit angle code (4096 = full turn). The angle
// register carries odd parity over all 16 bits so an all-zero or
// bit-dropped transaction is detectable; a register that folds to even
// parity is reported as ErrParity together with the 0 sentinel the device
// protocol defines for an invalid angle.
func (s *A1335) ReadAngleRaw(ctx context.Context) (uint16, error) {
	raw, err := s.normalRead(ctx, RegANG)
	if err != nil {
		return 0, fmt.Errorf("a1335: could not read angle register: %w", err)
	}
	parity := raw
	parity ^= parity >> 8
	parity ^= parity >> 4
	parity ^= parity >> 2
	parity ^= parity >> 1
	if parity&1 == 0 {
		return 0, ErrParity
	}
	return raw & angValueMask, nil
}

// ReadTemp returns the die temperature in Kelvin.
func (s *A1335) ReadTemp(ctx context.Context) (float64, error) {
	raw, err := s.ReadTempRaw(ctx)
	if err != nil {
		return 0, err
	}
	return float64(raw) / 8.0, nil
}

// ReadTempRaw returns the 12-bit temperature code (8 = 1 K).
func (s *A1335) ReadTempRaw(ctx context.Context) (uint16, error) {
	raw, err := s.normalRead(ctx, RegTSEN)
	if err != nil {
		return 0, fmt.Errorf("a1335: could not read temperature register: %w", err)
	}
	return raw & tsenValueMask, nil
}

// ReadField returns the magnetic field strength in Tesla.
func (s *A1335) ReadField(ctx context.Context) (float64, error) {
	raw, err := s.ReadFieldRaw(ctx)
	if err != nil {
		return 0, err
	}
	return float64(raw) / 10000.0, nil
}

// ReadFieldRaw returns the 12-bit field strength code in gauss (10 = 1 mT).
func (s *A1335) ReadFieldRaw(ctx context.Context) (uint16, error) {
	raw, err := s.normalRead(ctx, RegFIELD)
	if err != nil {
		return 0, fmt.Errorf("a1335: could not read field register: %w", err)
	}
	return raw & fieldValueMask, nil
}

// ReadStatus reads and decodes the status register. The derived processor
// state is cached on the driver as well.
func (s *A1335) ReadStatus(ctx context.Context) (Status, error) {
	raw, err := s.normalRead(ctx, RegSTA)
	if err != nil {
		return Status{}, fmt.Errorf("a1335: could not read status register: %w", err)
	}
	st := decodeStatus(raw, s.state)
	s.state = st.State
	return st, nil
}

// ReadErrors returns the raw error and extended error registers.
func (s *A1335) ReadErrors(ctx context.Context) (uint16, uint16, error) {
	errReg, err := s.normalRead(ctx, RegERR)
	if err != nil {
		return 0, 0, fmt.Errorf("a1335: could not read error register: %w", err)
	}
	xerr, err := s.normalRead(ctx, RegXERR)
	if err != nil {
		return 0, 0, fmt.Errorf("a1335: could not read extended error register: %w", err)
	}
	return errReg, xerr, nil
}

// ReadOutputRate reads the output rate code, the log2 of the sample rate,
// from the extended output rate register.
// TODO: confirm on hardware which payload byte carries the rate code; the
// most significant byte is assumed here, matching what SetOutputRate
// writes, but has not been verified against a real device.
func (s *A1335) ReadOutputRate(ctx context.Context) (byte, error) {
	orate, _, err := s.extendedRead(ctx, RegORATE)
	if err != nil {
		return 0, fmt.Errorf("a1335: could not read output rate register: %w", err)
	}
	return byte(orate >> 24), nil
}

// SetOutputRate sets the output rate code (sample rate = 2^rate). Codes
// above 7 saturate to 7; saturation is addressing policy, not an error.
// The device has to leave run mode before it accepts configuration, so the
// sequence is idle keycode, extended write, run keycode, each followed by
// its settling delay. The first transport failure aborts the sequence; an
// extended write the device does not confirm is reported as
// ErrWriteNotConfirmed after run mode has been restored.
func (s *A1335) SetOutputRate(ctx context.Context, rate byte) error {
	if rate > 7 {
		rate = 7
	}
	if err := s.SetIdle(ctx); err != nil {
		return err
	}
	status, err := s.extendedWrite(ctx, RegORATE, uint32(rate)<<24)
	if err != nil {
		return fmt.Errorf("a1335: output rate write failed: %w", err)
	}
	time.Sleep(s.config.WriteDelay)
	if err := s.SetRun(ctx); err != nil {
		return err
	}
	if status != extWriteConfirmed {
		return ErrWriteNotConfirmed
	}
	s.rate = rate
	return nil
}

// SetIdle puts the processor in idle mode.
func (s *A1335) SetIdle(ctx context.Context) error {
	return s.control(ctx, ctrlIdle)
}

// SetRun puts the processor in run mode.
func (s *A1335) SetRun(ctx context.Context) error {
	return s.control(ctx, ctrlRun)
}

// SoftReset restarts the processor without clearing the EEPROM shadow
// registers. The session state is left untouched; callers re-Start the
// driver once the device is back up.
func (s *A1335) SoftReset(ctx context.Context) error {
	return s.control(ctx, ctrlSoftReset)
}

// HardReset restarts the device as if power-cycled. The session state is
// left untouched; callers re-Start the driver once the device is back up.
func (s *A1335) HardReset(ctx context.Context) error {
	return s.control(ctx, ctrlHardReset)
}

// ClearStatus clears the status registers.
func (s *A1335) ClearStatus(ctx context.Context) error {
	return s.control(ctx, ctrlClearSTA)
}

// ClearErrors clears the error registers.
func (s *A1335) ClearErrors(ctx context.Context) error {
	return s.control(ctx, ctrlClearERR)
}

// ClearExtendedErrors clears the extended error registers.
func (s *A1335) ClearExtendedErrors(ctx context.Context) error {
	return s.control(ctx, ctrlClearXERR)
}

func (s *A1335) control(ctx context.Context, keycode uint16) error {
	if err := s.normalWrite(ctx, RegCTRL, keycode); err != nil {
		return fmt.Errorf("a1335: control write %#04x failed: %w", keycode, err)
	}
	time.Sleep(s.config.ModeDelay)
	return nil
}

// NormalWrite writes a 16-bit value to a normal register, most significant
// byte first.
func (s *A1335) NormalWrite(ctx context.Context, reg byte, data uint16) error {
	return s.normalWrite(ctx, reg, data)
}

// NormalRead reads a 16-bit value from a normal register. Bytes the bus
// does not deliver keep their prior value instead of failing the read.
func (s *A1335) NormalRead(ctx context.Context, reg byte) (uint16, error) {
	return s.normalRead(ctx, reg)
}

// ExtendedWrite writes a 32-bit value to an extended register through the
// EWA gateway and returns the confirmation byte the device reports back;
// extWriteConfirmed (1) signals a confirmed write.
func (s *A1335) ExtendedWrite(ctx context.Context, reg uint16, data uint32) (byte, error) {
	return s.extendedWrite(ctx, reg, data)
}

// ExtendedRead reads a 32-bit value from an extended register through the
// ERA gateway.
func (s *A1335) ExtendedRead(ctx context.Context, reg uint16) (uint32, error) {
	v, _, err := s.extendedRead(ctx, reg)
	return v, err
}

func (s *A1335) normalWrite(ctx context.Context, reg byte, data uint16) error {
	w := word.Of16(int16(data), word.MSBFirst)
	s.bus.BeginTransmission(s.address)
	s.bus.Write(reg)
	for i := 0; i < 2; i++ {
		s.bus.Write(*w.MSB(i))
	}
	return s.bus.EndTransmission(ctx)
}

func (s *A1335) normalRead(ctx context.Context, reg byte) (uint16, error) {
	s.bus.BeginTransmission(s.address)
	s.bus.Write(reg)
	if err := s.bus.EndTransmission(ctx); err != nil {
		return 0, err
	}
	if err := s.bus.RequestFrom(ctx, s.address, 2); err != nil {
		return 0, err
	}
	w := word.New16(word.MSBFirst)
	for i := 0; i < 2; i++ {
		if s.bus.Available() > 0 {
			*w.MSB(i) = s.bus.ReadByte()
		}
	}
	return w.Uint(), nil
}

func (s *A1335) extendedWrite(ctx context.Context, reg uint16, data uint32) (byte, error) {
	addr := word.Of16(int16(reg), word.MSBFirst)
	payload := word.Of32(int32(data), word.MSBFirst)
	s.bus.BeginTransmission(s.address)
	s.bus.Write(RegEWA)
	for i := 0; i < 2; i++ {
		s.bus.Write(*addr.MSB(i))
	}
	for i := 0; i < 4; i++ {
		s.bus.Write(*payload.MSB(i))
	}
	s.bus.Write(extConfirm)
	if err := s.bus.EndTransmission(ctx); err != nil {
		return 0, err
	}
	time.Sleep(s.config.TurnaroundDelay)
	if err := s.bus.RequestFrom(ctx, s.address, 1); err != nil {
		return 0, err
	}
	if s.bus.Available() == 0 {
		return 0, nil
	}
	return s.bus.ReadByte(), nil
}

// extendedRead returns the register payload together with the transaction
// status byte that precedes it on the wire. The status byte is not
// validated yet; payload bytes the bus does not deliver keep their prior
// value.
func (s *A1335) extendedRead(ctx context.Context, reg uint16) (uint32, byte, error) {
	addr := word.Of16(int16(reg), word.MSBFirst)
	s.bus.BeginTransmission(s.address)
	s.bus.Write(RegERA)
	for i := 0; i < 2; i++ {
		s.bus.Write(*addr.MSB(i))
	}
	s.bus.Write(extConfirm)
	if err := s.bus.EndTransmission(ctx); err != nil {
		return 0, 0, err
	}
	time.Sleep(s.config.TurnaroundDelay)
	if err := s.bus.RequestFrom(ctx, s.address, 5); err != nil {
		return 0, 0, err
	}
	var status byte
	if s.bus.Available() > 0 {
		status = s.bus.ReadByte()
	}
	w := word.New32(word.MSBFirst)
	for i := 0; i < 4; i++ {
		if s.bus.Available() > 0 {
			*w.MSB(i) = s.bus.ReadByte()
		}
	}
	return w.Uint(), status, nil
}

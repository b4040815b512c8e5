package a1335

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type busWrite struct {
	addr byte
	data []byte
}

type busRequest struct {
	addr  byte
	count int
}

// fakeBus is a scripted in-memory Bus. It records every write transaction
// and read request and serves read bytes from queued responses, allowing
// responses shorter than requested to exercise partial reads.
type fakeBus struct {
	writes   []busWrite
	requests []busRequest

	current   busWrite
	endErrs   []error
	reqErr    error
	responses [][]byte
	pending   []byte
}

func (b *fakeBus) BeginTransmission(address byte) {
	b.current = busWrite{addr: address}
}

func (b *fakeBus) Write(bb byte) {
	b.current.data = append(b.current.data, bb)
}

func (b *fakeBus) EndTransmission(ctx context.Context) error {
	b.writes = append(b.writes, b.current)
	if len(b.endErrs) > 0 {
		err := b.endErrs[0]
		b.endErrs = b.endErrs[1:]
		return err
	}
	return nil
}

func (b *fakeBus) RequestFrom(ctx context.Context, address byte, count int) error {
	b.requests = append(b.requests, busRequest{addr: address, count: count})
	if b.reqErr != nil {
		return b.reqErr
	}
	b.pending = nil
	if len(b.responses) > 0 {
		b.pending = b.responses[0]
		b.responses = b.responses[1:]
	}
	return nil
}

func (b *fakeBus) Available() int { return len(b.pending) }

func (b *fakeBus) ReadByte() byte {
	bb := b.pending[0]
	b.pending = b.pending[1:]
	return bb
}

func newTestSensor(bus Bus) *A1335 {
	// settling delays shrunk so the suite does not busy-wait
	return New(bus,
		WithStartupDelay(time.Microsecond),
		WithModeDelay(time.Microsecond),
		WithWriteDelay(time.Microsecond),
		WithTurnaroundDelay(time.Microsecond),
	)
}

func TestStart(t *testing.T) {
	bus := &fakeBus{
		responses: [][]byte{
			{0x02, 0x10},                   // STA: processing status 0001, phase 0000
			{0x00, 0x03, 0x00, 0x00, 0x00}, // ORATE: ext status byte, then payload
		},
	}
	s := newTestSensor(bus)
	ctx := context.Background()

	require.NoError(t, s.Start(ctx, 0x0D))

	assert.Equal(t, byte(0x0D), s.Address())
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, byte(0x03), s.OutputRate())

	require.Len(t, bus.writes, 3)
	// zero-length probe
	assert.Equal(t, busWrite{addr: 0x0D}, bus.writes[0])
	// status register select
	assert.Equal(t, busWrite{addr: 0x0D, data: []byte{RegSTA}}, bus.writes[1])
	// extended read request: gateway, address MSB first, confirmation byte
	assert.Equal(t, busWrite{addr: 0x0D, data: []byte{RegERA, 0xFF, 0xD0, 0x80}}, bus.writes[2])
	require.Len(t, bus.requests, 2)
	assert.Equal(t, busRequest{addr: 0x0D, count: 2}, bus.requests[0])
	assert.Equal(t, busRequest{addr: 0x0D, count: 5}, bus.requests[1])
}

func TestStart_ProbeFailure(t *testing.T) {
	bus := &fakeBus{endErrs: []error{errors.New("address nack")}}
	s := newTestSensor(bus)

	err := s.Start(context.Background(), 0x0C)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "address nack")
	assert.Equal(t, StateNotFound, s.State())
	// the probe failure aborts before any register read
	assert.Len(t, bus.writes, 1)
	assert.Empty(t, bus.requests)
}

func TestStart_RunningState(t *testing.T) {
	bus := &fakeBus{
		responses: [][]byte{
			{0x02, 0x11}, // processing status 0001, phase 0001
			{0x00, 0x00, 0x00, 0x00, 0x00},
		},
	}
	s := newTestSensor(bus)
	require.NoError(t, s.Start(context.Background(), DefaultAddress))
	assert.Equal(t, StateProcessing, s.State())
}

func TestReadAngle(t *testing.T) {
	// 0x8FFF carries 13 set bits: odd parity, valid angle 0x0FFF
	bus := &fakeBus{responses: [][]byte{{0x8F, 0xFF}}}
	s := newTestSensor(bus)

	deg, err := s.ReadAngle(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 359.912109375, deg, 1e-9)
	assert.Equal(t, busWrite{addr: DefaultAddress, data: []byte{RegANG}}, bus.writes[0])
}

func TestReadAngleRaw_Parity(t *testing.T) {
	good := uint16(0x8FFF)
	// flipping any single bit breaks the odd parity of the register
	for bit := 0; bit < 16; bit++ {
		corrupted := good ^ (1 << bit)
		bus := &fakeBus{responses: [][]byte{{byte(corrupted >> 8), byte(corrupted)}}}
		s := newTestSensor(bus)

		raw, err := s.ReadAngleRaw(context.Background())

		assert.ErrorIs(t, err, ErrParity, "bit %d", bit)
		assert.Equal(t, uint16(0), raw, "bit %d", bit)
	}
}

func TestReadAngleRaw_AllZero(t *testing.T) {
	// an all-zero transaction folds to even parity and must not pass as
	// a valid zero-degree reading
	bus := &fakeBus{responses: [][]byte{{0x00, 0x00}}}
	s := newTestSensor(bus)
	raw, err := s.ReadAngleRaw(context.Background())
	assert.ErrorIs(t, err, ErrParity)
	assert.Equal(t, uint16(0), raw)
}

func TestReadAngleRaw_MasksFlags(t *testing.T) {
	// error and parity flags set over angle code 0x0001: the masked
	// result carries only the 12 angle bits
	bus := &fakeBus{responses: [][]byte{{0x50, 0x01}}}
	s := newTestSensor(bus)
	raw, err := s.ReadAngleRaw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0001), raw)
}

func TestReadTemp(t *testing.T) {
	// identifier prefix 1111 over code 0x400 = 1024 -> 128 K
	bus := &fakeBus{responses: [][]byte{{0xF4, 0x00}}}
	s := newTestSensor(bus)

	k, err := s.ReadTemp(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 128.0, k)
	assert.Equal(t, busWrite{addr: DefaultAddress, data: []byte{RegTSEN}}, bus.writes[0])
}

func TestReadField(t *testing.T) {
	// identifier prefix 1110 over code 100 gauss -> 0.01 T
	bus := &fakeBus{responses: [][]byte{{0xE0, 0x64}}}
	s := newTestSensor(bus)

	tesla, err := s.ReadField(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 0.01, tesla, 1e-12)
	assert.Equal(t, busWrite{addr: DefaultAddress, data: []byte{RegFIELD}}, bus.writes[0])
}

func TestReadStatus(t *testing.T) {
	bus := &fakeBus{responses: [][]byte{{0x8F, 0xE4}}}
	s := newTestSensor(bus)

	st, err := s.ReadStatus(context.Background())

	require.NoError(t, err)
	assert.True(t, st.PowerOnReset)
	assert.True(t, st.SoftReset)
	assert.True(t, st.NewAngle)
	assert.True(t, st.Error)
	assert.Equal(t, byte(0xE), st.Processing)
	assert.Equal(t, byte(0x4), st.Phase)
	assert.Equal(t, StateSelfTest, st.State)
	assert.Equal(t, StateSelfTest, s.State())
}

func TestReadErrors(t *testing.T) {
	bus := &fakeBus{responses: [][]byte{{0x12, 0x34}, {0x56, 0x78}}}
	s := newTestSensor(bus)

	errReg, xerr, err := s.ReadErrors(context.Background())

	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), errReg)
	assert.Equal(t, uint16(0x5678), xerr)
	assert.Equal(t, busWrite{addr: DefaultAddress, data: []byte{RegERR}}, bus.writes[0])
	assert.Equal(t, busWrite{addr: DefaultAddress, data: []byte{RegXERR}}, bus.writes[1])
}

func TestSetOutputRate(t *testing.T) {
	bus := &fakeBus{responses: [][]byte{{0x01}}}
	s := newTestSensor(bus)

	require.NoError(t, s.SetOutputRate(context.Background(), 3))

	require.Len(t, bus.writes, 3)
	// idle keycode pair at CTRL/KEY
	assert.Equal(t, busWrite{addr: DefaultAddress, data: []byte{RegCTRL, 0x80, 0x46}}, bus.writes[0])
	// extended write: gateway, address, payload with rate in the most
	// significant byte, confirmation byte
	assert.Equal(t, busWrite{addr: DefaultAddress, data: []byte{RegEWA, 0xFF, 0xD0, 0x03, 0x00, 0x00, 0x00, 0x80}}, bus.writes[1])
	// run keycode pair
	assert.Equal(t, busWrite{addr: DefaultAddress, data: []byte{RegCTRL, 0xC0, 0x46}}, bus.writes[2])
	assert.Equal(t, byte(3), s.OutputRate())
}

func TestSetOutputRate_Clamp(t *testing.T) {
	bus := &fakeBus{responses: [][]byte{{0x01}}}
	s := newTestSensor(bus)

	require.NoError(t, s.SetOutputRate(context.Background(), 9))

	// the rate saturates to 7 before transmission
	assert.Equal(t, byte(0x07), bus.writes[1].data[3])
	assert.Equal(t, byte(7), s.OutputRate())
}

func TestSetOutputRate_NotConfirmed(t *testing.T) {
	bus := &fakeBus{responses: [][]byte{{0x00}}}
	s := newTestSensor(bus)

	err := s.SetOutputRate(context.Background(), 2)

	assert.ErrorIs(t, err, ErrWriteNotConfirmed)
	// run mode is restored even when the write was not confirmed
	require.Len(t, bus.writes, 3)
	assert.Equal(t, busWrite{addr: DefaultAddress, data: []byte{RegCTRL, 0xC0, 0x46}}, bus.writes[2])
	// the cached rate keeps its prior value
	assert.Equal(t, byte(0), s.OutputRate())
}

func TestSetOutputRate_TransportError(t *testing.T) {
	bus := &fakeBus{endErrs: []error{errors.New("bus stuck")}}
	s := newTestSensor(bus)

	err := s.SetOutputRate(context.Background(), 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bus stuck")
	// the idle mode write failed, nothing else was attempted
	assert.Len(t, bus.writes, 1)
}

func TestReadOutputRate(t *testing.T) {
	bus := &fakeBus{responses: [][]byte{{0xAA, 0x05, 0x01, 0x02, 0x03}}}
	s := newTestSensor(bus)

	rate, err := s.ReadOutputRate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, byte(0x05), rate)
}

func TestControls(t *testing.T) {
	tests := []struct {
		name string
		op   func(*A1335, context.Context) error
		pair []byte
	}{
		{"soft reset", (*A1335).SoftReset, []byte{0x10, 0xB9}},
		{"hard reset", (*A1335).HardReset, []byte{0x20, 0xB9}},
		{"clear status", (*A1335).ClearStatus, []byte{0x04, 0x46}},
		{"clear errors", (*A1335).ClearErrors, []byte{0x01, 0x46}},
		{"clear extended errors", (*A1335).ClearExtendedErrors, []byte{0x02, 0x46}},
		{"idle", (*A1335).SetIdle, []byte{0x80, 0x46}},
		{"run", (*A1335).SetRun, []byte{0xC0, 0x46}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &fakeBus{}
			s := newTestSensor(bus)
			require.NoError(t, tt.op(s, context.Background()))
			require.Len(t, bus.writes, 1)
			assert.Equal(t, append([]byte{RegCTRL}, tt.pair...), bus.writes[0].data)
		})
	}
}

func TestNormalRead_Partial(t *testing.T) {
	// only one of two bytes arrives: the missing byte keeps its prior
	// (zero) value instead of failing the read
	bus := &fakeBus{responses: [][]byte{{0x12}}}
	s := newTestSensor(bus)

	v, err := s.NormalRead(context.Background(), RegERR)

	require.NoError(t, err)
	assert.Equal(t, uint16(0x1200), v)
}

func TestNormalWrite(t *testing.T) {
	bus := &fakeBus{}
	s := newTestSensor(bus)

	require.NoError(t, s.NormalWrite(context.Background(), RegERM, 0xBEEF))

	require.Len(t, bus.writes, 1)
	assert.Equal(t, busWrite{addr: DefaultAddress, data: []byte{RegERM, 0xBE, 0xEF}}, bus.writes[0])
}

func TestExtendedRead(t *testing.T) {
	bus := &fakeBus{responses: [][]byte{{0xAA, 0x12, 0x34, 0x56, 0x78}}}
	s := newTestSensor(bus)

	v, err := s.ExtendedRead(context.Background(), RegORATE)

	require.NoError(t, err)
	// the leading transaction status byte is discarded
	assert.Equal(t, uint32(0x12345678), v)
}

func TestExtendedRead_Partial(t *testing.T) {
	bus := &fakeBus{responses: [][]byte{{0xAA, 0x12}}}
	s := newTestSensor(bus)

	v, err := s.ExtendedRead(context.Background(), RegORATE)

	require.NoError(t, err)
	assert.Equal(t, uint32(0x12000000), v)
}

func TestExtendedWrite(t *testing.T) {
	tests := []struct {
		name     string
		response []byte
		status   byte
	}{
		{"confirmed", []byte{0x01}, 0x01},
		{"rejected", []byte{0x03}, 0x03},
		{"no response byte", nil, 0x00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &fakeBus{responses: [][]byte{tt.response}}
			s := newTestSensor(bus)

			status, err := s.ExtendedWrite(context.Background(), 0xFFD0, 0x0A0B0C0D)

			require.NoError(t, err)
			assert.Equal(t, tt.status, status)
			require.Len(t, bus.writes, 1)
			assert.Equal(t, []byte{RegEWA, 0xFF, 0xD0, 0x0A, 0x0B, 0x0C, 0x0D, 0x80}, bus.writes[0].data)
			assert.Equal(t, busRequest{addr: DefaultAddress, count: 1}, bus.requests[0])
		})
	}
}

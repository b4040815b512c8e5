// Package word provides fixed-width register words with an explicit byte
// order. A word holds its byte-sequence view directly; the integer view is
// derived from the same storage, so mutating a byte through Bytes, MSB or
// LSB is immediately visible through Int/Uint and vice versa.
package word

import "encoding/binary"

// Order selects where the most significant byte of a word lives in its
// byte-sequence view.
type Order int

const (
	// MSBFirst places the most significant byte at index 0 (wire order of
	// the A1335 register protocol).
	MSBFirst Order = iota
	// LSBFirst places the least significant byte at index 0.
	LSBFirst
)

// Word16 is a 16-bit register value over a 2-byte sequence.
type Word16 struct {
	buf   [2]byte
	order Order
}

// New16 returns a zero-valued 16-bit word with the given byte order.
func New16(order Order) *Word16 {
	return &Word16{order: order}
}

// Of16 returns a 16-bit word initialized to v.
func Of16(v int16, order Order) *Word16 {
	w := New16(order)
	w.SetInt(v)
	return w
}

func (w *Word16) Int() int16 { return int16(w.Uint()) }

func (w *Word16) SetInt(v int16) { w.SetUint(uint16(v)) }

func (w *Word16) Uint() uint16 {
	if w.order == LSBFirst {
		return binary.LittleEndian.Uint16(w.buf[:])
	}
	return binary.BigEndian.Uint16(w.buf[:])
}

func (w *Word16) SetUint(v uint16) {
	if w.order == LSBFirst {
		binary.LittleEndian.PutUint16(w.buf[:], v)
		return
	}
	binary.BigEndian.PutUint16(w.buf[:], v)
}

// Bytes returns the byte-sequence view in the declared order. The slice
// shares storage with the word.
func (w *Word16) Bytes() []byte { return w.buf[:] }

// MSB returns a pointer to the n-th byte counting from the most
// significant end. Out-of-range indices clamp to the nearest valid byte.
func (w *Word16) MSB(n int) *byte { return &w.buf[w.msIndex(clamp(n, 2))] }

// LSB returns a pointer to the n-th byte counting from the least
// significant end, with the same clamping policy as MSB.
func (w *Word16) LSB(n int) *byte { return &w.buf[w.msIndex(1-clamp(n, 2))] }

func (w *Word16) msIndex(n int) int {
	if w.order == LSBFirst {
		return 1 - n
	}
	return n
}

// Word32 is a 32-bit register value over a 4-byte sequence.
type Word32 struct {
	buf   [4]byte
	order Order
}

// New32 returns a zero-valued 32-bit word with the given byte order.
func New32(order Order) *Word32 {
	return &Word32{order: order}
}

// Of32 returns a 32-bit word initialized to v.
func Of32(v int32, order Order) *Word32 {
	w := New32(order)
	w.SetInt(v)
	return w
}

func (w *Word32) Int() int32 { return int32(w.Uint()) }

func (w *Word32) SetInt(v int32) { w.SetUint(uint32(v)) }

func (w *Word32) Uint() uint32 {
	if w.order == LSBFirst {
		return binary.LittleEndian.Uint32(w.buf[:])
	}
	return binary.BigEndian.Uint32(w.buf[:])
}

func (w *Word32) SetUint(v uint32) {
	if w.order == LSBFirst {
		binary.LittleEndian.PutUint32(w.buf[:], v)
		return
	}
	binary.BigEndian.PutUint32(w.buf[:], v)
}

// Bytes returns the byte-sequence view in the declared order. The slice
// shares storage with the word.
func (w *Word32) Bytes() []byte { return w.buf[:] }

// MSB returns a pointer to the n-th byte counting from the most
// significant end. Out-of-range indices clamp to the nearest valid byte.
func (w *Word32) MSB(n int) *byte { return &w.buf[w.msIndex(clamp(n, 4))] }

// LSB returns a pointer to the n-th byte counting from the least
// significant end, with the same clamping policy as MSB.
func (w *Word32) LSB(n int) *byte { return &w.buf[w.msIndex(3-clamp(n, 4))] }

func (w *Word32) msIndex(n int) int {
	if w.order == LSBFirst {
		return 3 - n
	}
	return n
}

// clamp saturates n to [0, size-1]. Indexed byte access never fails.
func clamp(n, size int) int {
	if n < 0 {
		return 0
	}
	if n >= size {
		return size - 1
	}
	return n
}

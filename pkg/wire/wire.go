// Package wire implements the compact binary primitives pkg/save uses to
// pack a chunk's block diff before base64-wrapping it into the JSON save
// envelope. The VarInt scheme and typed Put/Get pairs are adapted from the
// teacher's pkg/protocol wire codec, generalized from a network Reader/
// Writer into a plain in-memory byte buffer since a save file has no
// connection to frame.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer accumulates an encoded byte stream.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded stream so far.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// PutVarInt appends value as a variable-length integer, at most 5 bytes.
func (w *Writer) PutVarInt(value int32) {
	uval := uint32(value)
	for {
		if uval&^uint32(0x7F) == 0 {
			w.buf = append(w.buf, byte(uval))
			return
		}
		w.buf = append(w.buf, byte(uval&0x7F)|0x80)
		uval >>= 7
	}
}

// PutUint16 appends a big-endian uint16, used by pkg/save for a chunk
// diff's local cell indices (never a VarInt: every index costs exactly 2
// bytes regardless of value).
func (w *Writer) PutUint16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	w.buf = append(w.buf, buf[:]...)
}

// PutInt32 appends a big-endian int32.
func (w *Writer) PutInt32(v int32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	w.buf = append(w.buf, buf[:]...)
}

// PutInt64 appends a big-endian int64.
func (w *Writer) PutInt64(v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	w.buf = append(w.buf, buf[:]...)
}

// PutFloat32 appends a big-endian float32.
func (w *Writer) PutFloat32(v float32) {
	w.PutInt32(int32(math.Float32bits(v)))
}

// PutFloat64 appends a big-endian float64.
func (w *Writer) PutFloat64(v float64) {
	w.PutInt64(int64(math.Float64bits(v)))
}

// PutBool appends a single boolean byte.
func (w *Writer) PutBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
		return
	}
	w.buf = append(w.buf, 0)
}

// PutString appends a VarInt length prefix followed by UTF-8 bytes.
func (w *Writer) PutString(s string) {
	w.PutVarInt(int32(len(s)))
	w.buf = append(w.buf, s...)
}

// PutUUID appends a raw 128-bit UUID.
func (w *Writer) PutUUID(id [16]byte) {
	w.buf = append(w.buf, id[:]...)
}

// Reader consumes a byte stream in the same order a Writer produced it.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps an encoded byte stream for sequential reads.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("wire: short read: want %d bytes, have %d", n, r.Remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// VarInt reads a variable-length integer.
func (r *Reader) VarInt() (int32, error) {
	var result int32
	var shift uint
	for {
		b, err := r.take(1)
		if err != nil {
			return 0, err
		}
		result |= int32(b[0]&0x7F) << shift
		shift += 7
		if shift > 35 {
			return 0, fmt.Errorf("wire: VarInt too long")
		}
		if b[0]&0x80 == 0 {
			break
		}
	}
	return result, nil
}

// Uint16 reads a big-endian uint16.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Int32 reads a big-endian int32.
func (r *Reader) Int32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// Int64 reads a big-endian int64.
func (r *Reader) Int64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// Float32 reads a big-endian float32.
func (r *Reader) Float32() (float32, error) {
	v, err := r.Int32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

// Float64 reads a big-endian float64.
func (r *Reader) Float64() (float64, error) {
	v, err := r.Int64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

// Bool reads a single boolean byte.
func (r *Reader) Bool() (bool, error) {
	b, err := r.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// String reads a VarInt-length-prefixed UTF-8 string.
func (r *Reader) String() (string, error) {
	n, err := r.VarInt()
	if err != nil {
		return "", err
	}
	if n < 0 || n > 1<<20 {
		return "", fmt.Errorf("wire: string length out of range: %d", n)
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UUID reads a raw 128-bit UUID.
func (r *Reader) UUID() ([16]byte, error) {
	var id [16]byte
	b, err := r.take(16)
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

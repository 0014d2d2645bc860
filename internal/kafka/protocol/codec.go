package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortBuffer is returned when a decoder runs out of input.
var ErrShortBuffer = errors.New("kafka: short buffer")

// Encoder appends Kafka primitive types in network byte order.
type Encoder struct {
	buf []byte
}

// Bytes returns the encoded data.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

func (e *Encoder) PutInt16(v int16) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, uint16(v))
}

func (e *Encoder) PutInt32(v int32) {
	e.buf = binary.BigEndian.AppendUint32(e.buf, uint32(v))
}

// PutString writes a length-prefixed string.
func (e *Encoder) PutString(s string) {
	e.PutInt16(int16(len(s)))
	e.buf = append(e.buf, s...)
}

// PutNullableString writes s, or a -1 length when s is nil.
func (e *Encoder) PutNullableString(s *string) {
	if s == nil {
		e.PutInt16(-1)
		return
	}
	e.PutString(*s)
}

// PutArrayLen writes an array length prefix.
func (e *Encoder) PutArrayLen(n int) {
	e.PutInt32(int32(n))
}

// Decoder reads Kafka primitive types. The first error sticks; later reads
// return zero values.
type Decoder struct {
	buf []byte
	off int
	err error
}

// NewDecoder returns a decoder over buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Err returns the first decoding error.
func (d *Decoder) Err() error {
	return d.err
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.Remaining() < n {
		d.err = fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, n, d.Remaining())
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *Decoder) Int16() int16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return int16(binary.BigEndian.Uint16(b))
}

func (d *Decoder) Int32() int32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(b))
}

// Str reads a length-prefixed string. Null strings decode as "".
func (d *Decoder) Str() string {
	n := d.Int16()
	if n < 0 {
		return ""
	}
	return string(d.take(int(n)))
}

// ArrayLen reads an array length. Null arrays (-1) decode as 0.
func (d *Decoder) ArrayLen() int {
	n := d.Int32()
	if n < 0 {
		return 0
	}
	if int(n) > d.Remaining() {
		d.err = fmt.Errorf("%w: array of %d elements", ErrShortBuffer, n)
		return 0
	}
	return int(n)
}

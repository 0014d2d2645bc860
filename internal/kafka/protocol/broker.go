package protocol

import (
	"encoding/binary"
	"io"
)

// Bodies that know how to encode themselves, used on the broker side.
type encodable interface {
	Encode(e *Encoder)
}

// ReadRequest reads one request frame and returns its header and body.
func ReadRequest(r io.Reader) (RequestHeader, []byte, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return RequestHeader{}, nil, err
	}

	size := int32(binary.BigEndian.Uint32(sizeBuf[:]))
	if size < 10 || size > MaxFrameSize {
		return RequestHeader{}, nil, ErrInvalidFrame
	}

	frame := make([]byte, size)
	if _, err := io.ReadFull(r, frame); err != nil {
		return RequestHeader{}, nil, err
	}

	d := NewDecoder(frame)
	h := RequestHeader{
		APIKey:        d.Int16(),
		APIVersion:    d.Int16(),
		CorrelationID: d.Int32(),
		ClientID:      d.Str(),
	}
	if d.Err() != nil {
		return RequestHeader{}, nil, d.Err()
	}
	return h, frame[len(frame)-d.Remaining():], nil
}

// EncodeResponse builds a size-prefixed response frame for body.
func EncodeResponse(correlationID int32, body encodable) []byte {
	var e Encoder
	e.PutInt32(0)
	e.PutInt32(correlationID)
	body.Encode(&e)

	frame := e.Bytes()
	binary.BigEndian.PutUint32(frame[:4], uint32(len(frame)-4))
	return frame
}

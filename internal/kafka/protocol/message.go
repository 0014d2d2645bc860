// Package protocol holds the Kafka wire pieces the client needs: error codes
// and their classification, request/response framing and the ApiVersions
// request.
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize bounds response frames read from a broker.
const MaxFrameSize = 100 << 20

// Request is a Kafka request body.
type Request interface {
	APIKey() int16
	APIVersion() int16
	Encode(e *Encoder)
	// NewResponse returns an empty response for decoding the reply.
	NewResponse() Response
}

// Response is a Kafka response body.
type Response interface {
	Decode(d *Decoder) error
}

// ErrorCoder is implemented by responses that carry a top-level error code.
// Responses without it cannot be classified and are treated as successful.
type ErrorCoder interface {
	ErrorCode() ErrorCode
}

// RequestHeader is the v1 request header.
type RequestHeader struct {
	APIKey        int16
	APIVersion    int16
	CorrelationID int32
	ClientID      string
}

// EncodeRequest builds a size-prefixed request frame.
func EncodeRequest(h RequestHeader, req Request) []byte {
	var e Encoder
	e.PutInt32(0) // size, patched below
	e.PutInt16(h.APIKey)
	e.PutInt16(h.APIVersion)
	e.PutInt32(h.CorrelationID)
	e.PutString(h.ClientID)
	req.Encode(&e)

	frame := e.Bytes()
	binary.BigEndian.PutUint32(frame[:4], uint32(len(frame)-4))
	return frame
}

// ReadFrame reads one size-prefixed frame from r and returns the correlation
// id and the remaining body.
func ReadFrame(r io.Reader) (int32, []byte, error) {
	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return 0, nil, err
	}

	size := int32(binary.BigEndian.Uint32(sizeBuf[:]))
	if size < 4 || size > MaxFrameSize {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrInvalidFrame, size)
	}

	frame := make([]byte, size)
	if _, err := io.ReadFull(r, frame); err != nil {
		return 0, nil, err
	}

	return int32(binary.BigEndian.Uint32(frame[:4])), frame[4:], nil
}

// DecodeResponse decodes body into resp and rejects trailing garbage.
func DecodeResponse(body []byte, resp Response) error {
	d := NewDecoder(body)
	if err := resp.Decode(d); err != nil {
		return err
	}
	if d.Err() != nil {
		return d.Err()
	}
	return nil
}

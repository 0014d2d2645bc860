// Package client sends Kafka requests to a single broker.
//
// Both implementations connect lazily and reconnect on the first SendRecv
// after Close, so callers may close a client on any failure and keep using it.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/kafkaguard/internal/kafka/protocol"
	"github.com/vietddude/kafkaguard/internal/kafka/socket"
)

// ErrClosed is returned to requests in flight when their connection goes away.
var ErrClosed = errors.New("kafka connection closed")

// Client is a request/response channel to one broker.
type Client interface {
	SendRecv(ctx context.Context, req protocol.Request) (protocol.Response, error)
	Close() error
}

// SocketFactory creates the socket a client talks through.
type SocketFactory func(cfg socket.Config) socket.Socket

// Config holds client settings.
type Config struct {
	Broker         string
	ClientID       string
	ConnectTimeout time.Duration
	SendTimeout    time.Duration
	RecvTimeout    time.Duration
}

// DefaultClientID returns a unique client id.
func DefaultClientID() string {
	return "kafkaguard-" + uuid.NewString()
}

func (c Config) socketConfig() socket.Config {
	return socket.Config{
		Addr:           c.Broker,
		ConnectTimeout: c.ConnectTimeout,
		SendTimeout:    c.SendTimeout,
		RecvTimeout:    c.RecvTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.ClientID == "" {
		c.ClientID = DefaultClientID()
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.SendTimeout == 0 {
		c.SendTimeout = 10 * time.Second
	}
	if c.RecvTimeout == 0 {
		c.RecvTimeout = 30 * time.Second
	}
	return c
}

type correlator struct {
	next atomic.Int32
}

func (c *correlator) frame(clientID string, req protocol.Request) (int32, []byte) {
	id := c.next.Add(1)
	return id, protocol.EncodeRequest(protocol.RequestHeader{
		APIKey:        req.APIKey(),
		APIVersion:    req.APIVersion(),
		CorrelationID: id,
		ClientID:      clientID,
	}, req)
}

func decode(req protocol.Request, body []byte) (protocol.Response, error) {
	resp := req.NewResponse()
	if err := protocol.DecodeResponse(body, resp); err != nil {
		return nil, fmt.Errorf("failed to decode response to api key %d: %w", req.APIKey(), err)
	}
	return resp, nil
}

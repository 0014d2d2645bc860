package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vietddude/kafkaguard/internal/kafka/protocol"
	"github.com/vietddude/kafkaguard/internal/kafka/socket"
)

// SyncClient sends one request at a time and waits for its response.
type SyncClient struct {
	cfg       Config
	newSocket SocketFactory
	ids       correlator

	mu   sync.Mutex
	sock socket.Socket
}

// NewSyncClient creates a blocking client. A nil factory uses StreamSocket.
func NewSyncClient(cfg Config, newSocket SocketFactory) *SyncClient {
	if newSocket == nil {
		newSocket = func(cfg socket.Config) socket.Socket {
			return socket.NewStreamSocket(cfg)
		}
	}
	return &SyncClient{
		cfg:       cfg.withDefaults(),
		newSocket: newSocket,
	}
}

// SendRecv sends req and reads its response.
// Any transport failure closes the connection.
func (c *SyncClient) SendRecv(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sock == nil {
		sock := c.newSocket(c.cfg.socketConfig())
		if err := sock.Connect(ctx); err != nil {
			return nil, err
		}
		slog.Debug("Connected to broker", "broker", c.cfg.Broker, "client_id", c.cfg.ClientID)
		c.sock = sock
	}

	id, frame := c.ids.frame(c.cfg.ClientID, req)
	if err := c.sock.Send(ctx, frame); err != nil {
		c.closeLocked()
		return nil, err
	}

	corrID, body, err := protocol.ReadFrame(socket.Reader(ctx, c.sock))
	if err != nil {
		c.closeLocked()
		return nil, fmt.Errorf("failed to read response from %s: %w", c.cfg.Broker, err)
	}
	if corrID != id {
		c.closeLocked()
		return nil, fmt.Errorf("correlation id mismatch from %s: got %d, want %d", c.cfg.Broker, corrID, id)
	}

	return decode(req, body)
}

// Close drops the connection. The next SendRecv reconnects.
func (c *SyncClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *SyncClient) closeLocked() error {
	if c.sock == nil {
		return nil
	}
	err := c.sock.Close()
	c.sock = nil
	return err
}

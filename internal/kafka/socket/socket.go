// Package socket implements the byte transports Kafka clients talk through.
//
// StreamSocket is a plain TCP connection for blocking callers. CoopSocket
// wraps it for coop scheduler tasks: every blocking call releases the
// scheduler's run token so other tasks keep running.
package socket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/vietddude/kafkaguard/internal/runtime/coop"
)

// ErrNotConnected is returned by Send and Recv before Connect.
var ErrNotConnected = errors.New("socket not connected")

// Socket is a connection to a single broker.
type Socket interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, data []byte) error
	// Recv reads exactly n bytes.
	Recv(ctx context.Context, n int) ([]byte, error)
	Close() error
}

// Config holds socket settings.
type Config struct {
	Addr           string
	ConnectTimeout time.Duration
	SendTimeout    time.Duration
	RecvTimeout    time.Duration
}

// Reader adapts s to an io.Reader bound to ctx.
func Reader(ctx context.Context, s Socket) io.Reader {
	return readerFunc(func(p []byte) (int, error) {
		b, err := s.Recv(ctx, len(p))
		if err != nil {
			return 0, err
		}
		return copy(p, b), nil
	})
}

type readerFunc func(p []byte) (int, error)

func (fn readerFunc) Read(p []byte) (int, error) {
	return fn(p)
}

// StreamSocket is a blocking TCP socket.
type StreamSocket struct {
	cfg Config

	mu   sync.Mutex
	conn net.Conn
}

// NewStreamSocket creates an unconnected socket.
func NewStreamSocket(cfg Config) *StreamSocket {
	return &StreamSocket{cfg: cfg}
}

// Connect dials the broker. Connecting an open socket is a no-op.
func (s *StreamSocket) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	d := net.Dialer{Timeout: s.cfg.ConnectTimeout}
	conn, err := d.DialContext(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", s.cfg.Addr, err)
	}
	s.conn = conn
	return nil
}

func (s *StreamSocket) current() (net.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	return s.conn, nil
}

// Send writes all of data.
func (s *StreamSocket) Send(ctx context.Context, data []byte) error {
	conn, err := s.current()
	if err != nil {
		return err
	}

	if err := conn.SetWriteDeadline(deadline(ctx, s.cfg.SendTimeout)); err != nil {
		return err
	}
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("send to %s: %w", s.cfg.Addr, err)
	}
	return nil
}

// Recv reads exactly n bytes.
func (s *StreamSocket) Recv(ctx context.Context, n int) ([]byte, error) {
	conn, err := s.current()
	if err != nil {
		return nil, err
	}

	if err := conn.SetReadDeadline(deadline(ctx, s.cfg.RecvTimeout)); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return nil, fmt.Errorf("recv from %s: %w", s.cfg.Addr, err)
	}
	return buf, nil
}

// Close closes the connection. The socket may be connected again.
func (s *StreamSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// deadline picks the earlier of ctx's deadline and now+timeout.
// A zero timeout and no ctx deadline means no deadline.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	var t time.Time
	if timeout > 0 {
		t = time.Now().Add(timeout)
	}
	if d, ok := ctx.Deadline(); ok && (t.IsZero() || d.Before(t)) {
		t = d
	}
	return t
}

// CoopSocket runs StreamSocket I/O without holding the scheduler token.
type CoopSocket struct {
	stream *StreamSocket
}

// NewCoopSocket creates an unconnected cooperative socket.
func NewCoopSocket(cfg Config) *CoopSocket {
	return &CoopSocket{stream: NewStreamSocket(cfg)}
}

func (s *CoopSocket) Connect(ctx context.Context) error {
	var err error
	coop.Block(ctx, func() { err = s.stream.Connect(ctx) })
	return err
}

func (s *CoopSocket) Send(ctx context.Context, data []byte) error {
	var err error
	coop.Block(ctx, func() { err = s.stream.Send(ctx, data) })
	return err
}

func (s *CoopSocket) Recv(ctx context.Context, n int) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	coop.Block(ctx, func() { b, err = s.stream.Recv(ctx, n) })
	return b, err
}

func (s *CoopSocket) Close() error {
	return s.stream.Close()
}

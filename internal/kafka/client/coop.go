package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vietddude/kafkaguard/internal/kafka/protocol"
	"github.com/vietddude/kafkaguard/internal/kafka/socket"
	"github.com/vietddude/kafkaguard/internal/runtime/coop"
)

// CoopClient multiplexes requests from many coop tasks over one connection.
// A background receive loop routes responses by correlation id; waiting
// tasks give up the scheduler token until their response arrives.
type CoopClient struct {
	cfg       Config
	newSocket SocketFactory
	ids       correlator

	mu      sync.Mutex
	conn    *coopConn
	dialing chan struct{}
}

type frameResult struct {
	body []byte
	err  error
}

type coopConn struct {
	sock    socket.Socket
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[int32]chan frameResult
	closed  bool
}

// NewCoopClient creates a cooperative client. A nil factory uses CoopSocket.
func NewCoopClient(cfg Config, newSocket SocketFactory) *CoopClient {
	if newSocket == nil {
		newSocket = func(cfg socket.Config) socket.Socket {
			return socket.NewCoopSocket(cfg)
		}
	}
	return &CoopClient{
		cfg:       cfg.withDefaults(),
		newSocket: newSocket,
	}
}

// SendRecv sends req and waits for the matching response.
func (c *CoopClient) SendRecv(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	id, frame := c.ids.frame(c.cfg.ClientID, req)
	ch, err := conn.register(id)
	if err != nil {
		return nil, err
	}

	coop.Block(ctx, conn.writeMu.Lock)
	err = conn.sock.Send(ctx, frame)
	conn.writeMu.Unlock()
	if err != nil {
		conn.unregister(id)
		c.drop(conn, err)
		return nil, err
	}

	var res frameResult
	coop.Block(ctx, func() {
		select {
		case res = <-ch:
		case <-ctx.Done():
			res.err = ctx.Err()
		}
	})
	if res.err != nil {
		conn.unregister(id)
		return nil, res.err
	}

	return decode(req, res.body)
}

// Close drops the connection and fails requests in flight with ErrClosed.
func (c *CoopClient) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.shutdown(ErrClosed)
}

func (c *CoopClient) connect(ctx context.Context) (*coopConn, error) {
	for {
		c.mu.Lock()
		if c.conn != nil {
			conn := c.conn
			c.mu.Unlock()
			return conn, nil
		}
		if c.dialing != nil {
			wait := c.dialing
			c.mu.Unlock()
			coop.Block(ctx, func() {
				select {
				case <-wait:
				case <-ctx.Done():
				}
			})
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			continue
		}
		dialing := make(chan struct{})
		c.dialing = dialing
		c.mu.Unlock()

		sock := c.newSocket(c.cfg.socketConfig())
		err := sock.Connect(ctx)

		c.mu.Lock()
		c.dialing = nil
		close(dialing)
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		conn := &coopConn{sock: sock, pending: make(map[int32]chan frameResult)}
		c.conn = conn
		c.mu.Unlock()

		slog.Debug("Connected to broker", "broker", c.cfg.Broker, "client_id", c.cfg.ClientID)
		go c.receive(conn)
		return conn, nil
	}
}

// receive runs outside any task, so socket reads block only this goroutine.
func (c *CoopClient) receive(conn *coopConn) {
	r := socket.Reader(context.Background(), conn.sock)
	for {
		corrID, body, err := protocol.ReadFrame(r)
		if err != nil {
			c.drop(conn, err)
			return
		}

		conn.mu.Lock()
		ch, ok := conn.pending[corrID]
		delete(conn.pending, corrID)
		conn.mu.Unlock()

		if !ok {
			slog.Warn("Dropping response with unknown correlation id",
				"broker", c.cfg.Broker, "correlation_id", corrID)
			continue
		}
		ch <- frameResult{body: body}
	}
}

func (c *CoopClient) drop(conn *coopConn, cause error) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()

	_ = conn.shutdown(fmt.Errorf("%w: %v", ErrClosed, cause))
}

func (cc *coopConn) register(id int32) (chan frameResult, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.closed {
		return nil, ErrClosed
	}
	ch := make(chan frameResult, 1)
	cc.pending[id] = ch
	return ch, nil
}

func (cc *coopConn) unregister(id int32) {
	cc.mu.Lock()
	delete(cc.pending, id)
	cc.mu.Unlock()
}

func (cc *coopConn) shutdown(cause error) error {
	cc.mu.Lock()
	if cc.closed {
		cc.mu.Unlock()
		return nil
	}
	cc.closed = true
	pending := cc.pending
	cc.pending = make(map[int32]chan frameResult)
	cc.mu.Unlock()

	for _, ch := range pending {
		ch <- frameResult{err: cause}
	}
	return cc.sock.Close()
}

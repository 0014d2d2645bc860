// Package kafkatest provides a scripted in-process Kafka broker for tests.
package kafkatest

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/vietddude/kafkaguard/internal/kafka/protocol"
)

// Broker answers ApiVersions requests. Each request consumes the next error
// code from the script; once the script is exhausted it answers NONE.
type Broker struct {
	ln net.Listener

	mu     sync.Mutex
	script []protocol.ErrorCode

	requests    atomic.Int32
	connections atomic.Int32
	clientIDs   sync.Map
}

// NewBroker starts a broker on a random local port. It stops when the test
// ends.
func NewBroker(t testing.TB, script ...protocol.ErrorCode) *Broker {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("kafkatest: failed to listen: %v", err)
	}

	b := &Broker{ln: ln, script: script}
	go b.serve()
	t.Cleanup(func() { ln.Close() })

	return b
}

// Addr returns the broker's host:port.
func (b *Broker) Addr() string {
	return b.ln.Addr().String()
}

// Requests returns the number of requests answered so far.
func (b *Broker) Requests() int {
	return int(b.requests.Load())
}

// Connections returns the number of accepted connections.
func (b *Broker) Connections() int {
	return int(b.connections.Load())
}

// SawClientID reports whether any request carried id.
func (b *Broker) SawClientID(id string) bool {
	_, ok := b.clientIDs.Load(id)
	return ok
}

func (b *Broker) next() protocol.ErrorCode {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.script) == 0 {
		return protocol.None
	}
	code := b.script[0]
	b.script = b.script[1:]
	return code
}

func (b *Broker) serve() {
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			return
		}
		b.connections.Add(1)
		go b.handle(conn)
	}
}

func (b *Broker) handle(conn net.Conn) {
	defer conn.Close()
	for {
		h, _, err := protocol.ReadRequest(conn)
		if err != nil {
			return
		}
		b.clientIDs.Store(h.ClientID, struct{}{})

		resp := &protocol.ApiVersionsResponse{Code: b.next()}
		if resp.Code == protocol.None {
			resp.APIKeys = []protocol.APIVersionRange{
				{APIKey: protocol.APIKeyApiVersions, MinVersion: 0, MaxVersion: 3},
			}
		}

		b.requests.Add(1)
		if _, err := conn.Write(protocol.EncodeResponse(h.CorrelationID, resp)); err != nil {
			return
		}
	}
}

package lenframe

import (
	"net"
	"time"
)

// TestState is a generic interface for a test state, implemented e.g. by testing.T
type TestState interface {
	Error(args ...interface{})
	Fatal(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// MockSource is a mock upstream byte source. It consists of a TCP server on a kernel-selected
// localhost port that accepts a single connection and writes every queued SourceChunk to it,
// in order, as raw bytes. The connection is closed (the client sees EOF) once Close is called
// and every queued chunk has been written.
//
// When running tests with one of these, it is strongly recommended to specify a timeout to
// `go test` so that if the source hangs waiting for a client, the test panics.
//
// Nothing is framed automatically, chunks may split or corrupt frames deliberately.
type MockSource struct {
	stopper  chan bool
	chunks   chan *SourceChunk
	listener net.Listener
	t        TestState
}

type callback func()

// SourceChunk describes one write the MockSource performs.
type SourceChunk struct {
	Before  callback      // Before will be called before the chunk is written
	Latency time.Duration // Latency before the chunk is written
	Data    []byte        // Data is written to the connection as-is
	After   callback      // After will be called after the chunk has been written

	IgnoreConnectionErrors bool // IgnoreConnectionErrors should be set to true if the client is expected to hang up before this chunk is written.
}

// NewMockSource launches a mock byte source. It takes a TestState (e.g. *testing.T) as
// provided by the test framework. If an error occurs it is simply logged to the TestState and
// the source exits.
func NewMockSource(t TestState) *MockSource {
	return NewMockSourceAddr(t, "localhost:0")
}

// NewMockSourceAddr behaves like NewMockSource but listens on the address you give
// it rather than just some ephemeral port.
func NewMockSourceAddr(t TestState, addr string) *MockSource {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}

	source := &MockSource{
		stopper:  make(chan bool),
		chunks:   make(chan *SourceChunk, 512),
		listener: listener,
		t:        t,
	}
	Logger.Printf("*** mocksource/%s listening\n", listener.Addr())

	go source.serverLoop()

	return source
}

func (s *MockSource) Addr() string {
	return s.listener.Addr().String()
}

// Expects queues a chunk to be written once a client has connected.
func (s *MockSource) Expects(chunk *SourceChunk) {
	s.chunks <- chunk
}

// Sends queues raw bytes to be written once a client has connected.
func (s *MockSource) Sends(data ...[]byte) {
	for _, d := range data {
		s.Expects(&SourceChunk{Data: d})
	}
}

// Close stops accepting chunks and blocks until every queued chunk has been written and the
// connection has been closed.
func (s *MockSource) Close() {
	close(s.chunks)
	<-s.stopper
}

func (s *MockSource) serverLoop() (ok bool) {
	var (
		err  error
		conn net.Conn
	)

	defer close(s.stopper)
	if conn, err = s.listener.Accept(); err != nil {
		return s.serverError(err, conn, false)
	}
	for chunk := range s.chunks {
		if chunk.Before != nil {
			chunk.Before()
		}

		if chunk.Latency > 0 {
			time.Sleep(chunk.Latency)
		}

		if len(chunk.Data) > 0 {
			if _, err = conn.Write(chunk.Data); err != nil {
				if chunk.IgnoreConnectionErrors {
					continue
				}
				return s.serverError(err, conn, false)
			}
		}

		if chunk.After != nil {
			chunk.After()
		}
	}
	if err = conn.Close(); err != nil {
		return s.serverError(err, nil, false)
	}
	if err = s.listener.Close(); err != nil {
		s.t.Error(err)
		return false
	}
	return true
}

func (s *MockSource) serverError(err error, conn net.Conn, ignoreErrors bool) bool {
	if !ignoreErrors {
		s.t.Error(err)
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			if !ignoreErrors {
				s.t.Error(err)
			}
		}
	}
	if err := s.listener.Close(); err != nil {
		if !ignoreErrors {
			s.t.Error(err)
		}
	}
	return false
}

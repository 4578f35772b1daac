/*
Package lenframe decodes a byte stream of length-prefixed frames into discrete payloads.

Each frame on the wire is a fixed-width unsigned length field in network byte order (8, 16, 32 or
64 bits) followed by exactly that many payload bytes. There is no header, version or magic number;
a stream is simply a concatenation of frames.

The package is organised around a small state machine, the Decoder, which is driven by its owner
against a borrowed ByteStream (normally a Buffer that accumulates bytes as they arrive). The
Decoder never blocks: if a frame is not yet complete it reports NeedMoreData and leaves the stream
untouched so the same attempt can be retried once more bytes have been written.

Most users want the Pipeline, which owns the accumulation buffer and the decoder, drives the
decoder until it needs more data and forwards every frame (or error) to a Handler. Consume wraps a
Pipeline around an io.Reader such as a net.Conn.

Metrics are exposed through https://github.com/rcrowley/go-metrics library in a local registry,
see Config.MetricRegistry.

Pipeline metrics:

	+------------------------------------------+------------+------------------------------------------+
	| Name                                     | Type       | Description                              |
	+------------------------------------------+------------+------------------------------------------+
	| frame-rate                               | meter      | Frames/second decoded for all streams    |
	| frame-rate-for-stream-<stream-id>        | meter      | Frames/second decoded for a given stream |
	| byte-rate                                | meter      | Bytes/second fed for all streams         |
	| byte-rate-for-stream-<stream-id>         | meter      | Bytes/second fed for a given stream      |
	| frame-size                               | histogram  | Distribution of payload sizes            |
	| frame-size-for-stream-<stream-id>        | histogram  | Distribution of payload sizes per stream |
	| invalid-frame-length                     | counter    | Streams aborted by an invalid length     |
	| bytes-left-over                          | counter    | Streams torn down with unread bytes      |
	+------------------------------------------+------------+------------------------------------------+
*/
package lenframe

import (
	"io"
	"log"
)

var (
	// Logger is the instance of a StdLogger interface that lenframe writes connection
	// and pipeline lifecycle information to. By default it is set to discard all log
	// messages via io.Discard, but you can set it to redirect wherever you want.
	Logger StdLogger = log.New(io.Discard, "[lenframe] ", log.LstdFlags)

	// DebugLogger is the instance of a StdLogger that lenframe writes per-frame debug
	// information to. By default it is set to redirect all debug to the default Logger
	// above, but you can optionally set it to another StdLogger instance to (e.g.,)
	// discard debug information
	DebugLogger StdLogger = &debugLogger{}
)

// StdLogger is used to log error messages.
type StdLogger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

type debugLogger struct{}

func (d *debugLogger) Print(v ...interface{}) {
	Logger.Print(v...)
}

func (d *debugLogger) Printf(format string, v ...interface{}) {
	Logger.Printf(format, v...)
}

func (d *debugLogger) Println(v ...interface{}) {
	Logger.Println(v...)
}

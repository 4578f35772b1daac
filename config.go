package lenframe

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/rcrowley/go-metrics"
	"golang.org/x/net/proxy"
)

// Config is used to pass multiple configuration options to lenframe's constructors.
type Config struct {
	// Decoder is the namespace for framing configuration.
	Decoder struct {
		// The inclusive upper bound on a payload's length. Frames carrying a length
		// field of zero or above this value abort the stream (default 1MiB).
		MaxFrameLength uint64
		// The width of the length field preceding every payload (default 32).
		LengthFieldWidth LengthFieldWidth
		// Reject every step after the first invalid frame length instead of relying on the
		// owner to stop driving the decoder (default true).
		PoisonOnInvalid bool
		// The codec payloads were compressed with before framing. When set, frames are
		// decompressed before they reach the Handler (default CompressionNone).
		Compression CompressionCodec
	}

	// Buffer is the namespace for the accumulation buffer.
	Buffer struct {
		// The capacity the accumulation buffer starts with (default 4096).
		InitialSize int
	}

	// Net is the namespace for network-level properties used by Consume and Dial.
	Net struct {
		// How many bytes to read from the underlying stream at once (default 32KiB).
		ReadBufferSize int
		// How long to wait for the next bytes before giving up on the stream. Zero
		// disables the deadline (default 0).
		ReadTimeout time.Duration
		// How long to wait for the initial connection (default 30s).
		DialTimeout time.Duration

		// KeepAlive specifies the keep-alive period for an active network connection (defaults to 0).
		// If zero or positive, keep-alives are enabled.
		// If negative, keep-alives are disabled.
		KeepAlive time.Duration

		// Proxy is the namespace for configuring proxy settings.
		Proxy struct {
			// Whether or not to use proxy when connecting (defaults to false).
			Enable bool
			// The proxy dialer to use enabled (defaults to nil).
			Dialer proxy.Dialer
		}

		// DialRetry controls how failed connection attempts are retried.
		DialRetry struct {
			// The total number of times to retry a failed dial (default 3).
			Max int
			// How long to wait before the first retry, doubling on every further
			// attempt (default 250ms).
			Backoff time.Duration
		}
	}

	// StreamID labels log lines and per-stream metrics. Only [A-Za-z0-9._-] is accepted
	// (default "stream").
	StreamID string

	// The number of frames and errors to buffer in ChannelHandler channels (default 256).
	ChannelBufferSize int

	// The registry to define metrics into.
	// Defaults to a local registry.
	// If you want to disable metrics gathering, set "metrics.UseNilMetrics" to "true"
	// prior to creating a Pipeline.
	// See Examples on how to use the metrics registry
	MetricRegistry metrics.Registry
}

// NewConfig returns a new configuration instance with sane defaults.
func NewConfig() *Config {
	c := &Config{}

	c.Decoder.MaxFrameLength = 1 << 20
	c.Decoder.LengthFieldWidth = LengthField32
	c.Decoder.PoisonOnInvalid = true
	c.Decoder.Compression = CompressionNone

	c.Buffer.InitialSize = 4096

	c.Net.ReadBufferSize = 32 * 1024
	c.Net.DialTimeout = 30 * time.Second
	c.Net.DialRetry.Max = 3
	c.Net.DialRetry.Backoff = 250 * time.Millisecond

	c.StreamID = defaultStreamID
	c.ChannelBufferSize = 256
	c.MetricRegistry = metrics.NewRegistry()

	return c
}

const defaultStreamID = "stream"

var validStreamID = regexp.MustCompile(`\A[A-Za-z0-9._-]+\z`)

// Validate checks a Config instance. It will return a
// ConfigurationError if the specified values don't make sense.
func (c *Config) Validate() error {
	// some configuration values should be warned on but not fail completely, do those first
	if c.Decoder.MaxFrameLength > math.MaxInt32 {
		Logger.Println("Decoder.MaxFrameLength is above 2GiB, a single frame may exhaust memory.")
	}
	if c.StreamID == defaultStreamID {
		Logger.Println("StreamID is the default of 'stream', you should consider setting it to something application-specific.")
	}

	// validate the Decoder values
	switch {
	case !c.Decoder.LengthFieldWidth.valid():
		return ConfigurationError(fmt.Sprintf("Decoder.LengthFieldWidth must be one of 8, 16, 32 or 64, got %d", int(c.Decoder.LengthFieldWidth)))
	case c.Decoder.MaxFrameLength == 0:
		return ConfigurationError("Decoder.MaxFrameLength must be > 0")
	case c.Decoder.MaxFrameLength > c.Decoder.LengthFieldWidth.MaxValue():
		return ConfigurationError(fmt.Sprintf("Decoder.MaxFrameLength %d cannot be represented in a %s length field", c.Decoder.MaxFrameLength, c.Decoder.LengthFieldWidth))
	case c.Decoder.MaxFrameLength > math.MaxInt:
		return ConfigurationError("Decoder.MaxFrameLength must fit in an int")
	case !c.Decoder.Compression.valid():
		return ConfigurationError(fmt.Sprintf("Decoder.Compression has unknown codec %d", int(c.Decoder.Compression)))
	}

	// validate the Buffer values
	if c.Buffer.InitialSize < 0 {
		return ConfigurationError("Buffer.InitialSize must be >= 0")
	}

	// validate the Net values
	switch {
	case c.Net.ReadBufferSize <= 0:
		return ConfigurationError("Net.ReadBufferSize must be > 0")
	case c.Net.ReadTimeout < 0:
		return ConfigurationError("Net.ReadTimeout must be >= 0")
	case c.Net.DialTimeout <= 0:
		return ConfigurationError("Net.DialTimeout must be > 0")
	case c.Net.Proxy.Enable && c.Net.Proxy.Dialer == nil:
		return ConfigurationError("Net.Proxy.Dialer must not be nil when Net.Proxy.Enable is true")
	case c.Net.DialRetry.Max < 0:
		return ConfigurationError("Net.DialRetry.Max must be >= 0")
	case c.Net.DialRetry.Backoff < 0:
		return ConfigurationError("Net.DialRetry.Backoff must be >= 0")
	}

	// validate misc shared values
	switch {
	case !validStreamID.MatchString(c.StreamID):
		return ConfigurationError(fmt.Sprintf("StreamID value %q is not valid", c.StreamID))
	case c.ChannelBufferSize < 0:
		return ConfigurationError("ChannelBufferSize must be >= 0")
	case c.MetricRegistry == nil:
		return ConfigurationError("MetricRegistry must not be nil")
	}

	return nil
}

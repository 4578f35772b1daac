package lenframe

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/net/proxy"
)

// Consume reads r until EOF, feeding every chunk through a new Pipeline that delivers frames
// and errors to handler. It returns nil on a clean EOF, the ErrInvalidFrameLength error if the
// stream carried an invalid length, ctx.Err() if ctx was cancelled, or the read error. In every
// case the pipeline is closed before Consume returns, so bytes of a truncated trailing frame are
// reported to handler as a *LeftoverError.
//
// If r is a net.Conn, conf.Net.ReadTimeout is applied to every read and cancelling ctx
// interrupts a blocked read. Other readers are only checked for cancellation between reads.
func Consume(ctx context.Context, r io.Reader, conf *Config, handler Handler) error {
	if conf == nil {
		conf = NewConfig()
	}
	p, err := NewPipeline(conf, handler)
	if err != nil {
		return err
	}
	defer p.Close()

	conn, _ := r.(net.Conn)
	if conn != nil {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-ctx.Done():
				// any deadline in the past wakes up a blocked Read
				_ = conn.SetReadDeadline(time.Unix(1, 0))
			case <-stop:
			}
		}()
	}

	chunk := make([]byte, conf.Net.ReadBufferSize)
	for {
		if conn != nil && conf.Net.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(conf.Net.ReadTimeout)); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(chunk)
		if n > 0 {
			if ferr := p.Feed(chunk[:n]); ferr != nil {
				return ferr
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			DebugLogger.Printf("pipeline/%s reached end of stream\n", conf.StreamID)
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return err
		}
	}
}

// Dial connects to addr, directly or through conf.Net.Proxy, retrying failed attempts with an
// exponential backoff as configured by conf.Net.DialRetry.
func Dial(ctx context.Context, network, addr string, conf *Config) (net.Conn, error) {
	if conf == nil {
		conf = NewConfig()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	var (
		conn    net.Conn
		attempt int
	)
	r := retrier.New(retrier.ExponentialBackoff(conf.Net.DialRetry.Max, conf.Net.DialRetry.Backoff), nil)
	err := r.RunCtx(ctx, func(ctx context.Context) error {
		attempt++
		c, err := dial(ctx, network, addr, conf)
		if err != nil {
			Logger.Printf("pipeline/%s failed to connect to %s (attempt %d): %v\n", conf.StreamID, addr, attempt, err)
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	Logger.Printf("pipeline/%s connected to %s\n", conf.StreamID, addr)
	return conn, nil
}

func dial(ctx context.Context, network, addr string, conf *Config) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, conf.Net.DialTimeout)
	defer cancel()

	if conf.Net.Proxy.Enable {
		if d, ok := conf.Net.Proxy.Dialer.(proxy.ContextDialer); ok {
			return d.DialContext(ctx, network, addr)
		}
		return conf.Net.Proxy.Dialer.Dial(network, addr)
	}

	dialer := &net.Dialer{
		Timeout:   conf.Net.DialTimeout,
		KeepAlive: conf.Net.KeepAlive,
	}
	return dialer.DialContext(ctx, network, addr)
}

// DialAndConsume dials addr and consumes the connection until it ends, closing it afterwards.
// Read and close failures are both reported.
func DialAndConsume(ctx context.Context, network, addr string, conf *Config, handler Handler) error {
	if conf == nil {
		conf = NewConfig()
	}
	conn, err := Dial(ctx, network, addr, conf)
	if err != nil {
		return err
	}

	var result *multierror.Error
	if err := Consume(ctx, conn, conf, handler); err != nil {
		result = multierror.Append(result, err)
	}
	if err := conn.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

package lenframe

import (
	"sync"
)

// Pipeline owns the accumulation buffer and the Decoder for one stream and drives the decoder
// every time bytes are fed, forwarding each frame to its Handler. A Pipeline is owned by a
// single goroutine; Feed, Write and Close must not be called concurrently.
type Pipeline struct {
	conf    *Config
	buf     *Buffer
	decoder *Decoder
	handler Handler
	metrics *pipelineMetrics

	closed    bool
	closeOnce sync.Once
}

// NewPipeline creates a pipeline for a new stream using the given configuration. The handler
// receives every frame and error; wrap it with NewDecompressingHandler yourself or set
// conf.Decoder.Compression to have payloads decompressed first.
func NewPipeline(conf *Config, handler Handler) (*Pipeline, error) {
	if conf == nil {
		conf = NewConfig()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, ConfigurationError("Handler must not be nil")
	}

	if conf.Decoder.Compression != CompressionNone {
		handler = NewDecompressingHandler(conf.Decoder.Compression, handler)
	}

	decoder := NewDecoder(conf.Decoder.MaxFrameLength, conf.Decoder.LengthFieldWidth)
	decoder.Poison = conf.Decoder.PoisonOnInvalid

	p := &Pipeline{
		conf:    conf,
		buf:     NewBuffer(conf.Buffer.InitialSize),
		decoder: decoder,
		handler: handler,
		metrics: newPipelineMetrics(conf.StreamID, conf.MetricRegistry),
	}
	DebugLogger.Printf("pipeline/%s started with %s length field, max frame length %d\n",
		conf.StreamID, conf.Decoder.LengthFieldWidth, conf.Decoder.MaxFrameLength)
	return p, nil
}

// Feed appends chunk to the accumulation buffer and decodes every frame that is now complete,
// in stream order, before returning. If the stream carries an invalid frame length the error
// is forwarded to the handler, the pipeline closes itself and the error is returned.
func (p *Pipeline) Feed(chunk []byte) error {
	if p.closed {
		return ErrClosedPipeline
	}

	_, _ = p.buf.Write(chunk)
	p.metrics.fed(len(chunk))

	for {
		res := p.decoder.Step(p.buf)
		switch res.Status {
		case NeedMoreData:
			return nil
		case Produced:
			p.metrics.produced(res.Frame)
			p.handler.HandleFrame(res.Frame)
		case Invalid:
			p.metrics.invalidFrameLength.Inc(1)
			Logger.Printf("pipeline/%s aborting stream: %v\n", p.conf.StreamID, res.Err)
			p.handler.HandleError(res.Err)
			// the remaining bytes cannot be framed, discard them rather than
			// reporting them again as leftovers
			p.buf.Reset()
			p.Close()
			return res.Err
		}
	}
}

// Write implements io.Writer on top of Feed so a Pipeline can be the destination of io.Copy.
func (p *Pipeline) Write(chunk []byte) (int, error) {
	if err := p.Feed(chunk); err != nil {
		return 0, err
	}
	return len(chunk), nil
}

// Buffered returns the number of bytes received but not yet consumed into a frame.
func (p *Pipeline) Buffered() int {
	return p.buf.Remaining()
}

// Decoder exposes the pipeline's decoder for inspection.
func (p *Pipeline) Decoder() *Decoder {
	return p.decoder
}

// Close detaches the decoder from the stream. If bytes of an incomplete frame are still
// buffered, a *LeftoverError is forwarded to the handler; Close itself always succeeds.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.closed = true
		if err := p.decoder.Detach(p.buf); err != nil {
			p.metrics.bytesLeftOver.Inc(1)
			Logger.Printf("pipeline/%s closed with %v\n", p.conf.StreamID, err)
			p.handler.HandleError(err)
		} else {
			DebugLogger.Printf("pipeline/%s closed\n", p.conf.StreamID)
		}
		p.buf.Reset()
	})
	return nil
}

package lenframe

import (
	"sync"

	"github.com/eapache/queue"
)

// Handler is the downstream sink of a Pipeline. HandleFrame receives every decoded frame in
// stream order and owns it from then on. HandleError receives invalid frame lengths,
// leftover bytes at teardown and errors from downstream stages. Both are called synchronously
// from the goroutine driving the pipeline and must not block for long.
type Handler interface {
	HandleFrame(Frame)
	HandleError(error)
}

// HandlerFuncs adapts a pair of functions to the Handler interface. Nil fields are ignored.
type HandlerFuncs struct {
	Frame func(Frame)
	Error func(error)
}

func (h HandlerFuncs) HandleFrame(f Frame) {
	if h.Frame != nil {
		h.Frame(f)
	}
}

func (h HandlerFuncs) HandleError(err error) {
	if h.Error != nil {
		h.Error(err)
	}
}

type handlerEvent struct {
	frame Frame
	err   error
}

// ChannelHandler is a Handler that republishes frames and errors on channels. It places no
// bound on how far the consumer may fall behind: events are parked in an unbounded queue so
// the decoding goroutine never waits on the consumer. You MUST read from both Frames() and
// Errors(), events are delivered in order across the two channels.
type ChannelHandler struct {
	input  chan *handlerEvent
	frames chan Frame
	errors chan error

	closeOnce sync.Once
}

// NewChannelHandler creates a ChannelHandler whose output channels are buffered according to
// conf.ChannelBufferSize.
func NewChannelHandler(conf *Config) *ChannelHandler {
	h := &ChannelHandler{
		input:  make(chan *handlerEvent),
		frames: make(chan Frame, conf.ChannelBufferSize),
		errors: make(chan error, conf.ChannelBufferSize),
	}
	go h.bridge()
	return h
}

// Frames returns the channel decoded frames are delivered on. It is closed after Close once
// every pending event has been delivered.
func (h *ChannelHandler) Frames() <-chan Frame {
	return h.frames
}

// Errors returns the channel errors are delivered on. It is closed together with Frames.
func (h *ChannelHandler) Errors() <-chan error {
	return h.errors
}

func (h *ChannelHandler) HandleFrame(f Frame) {
	h.input <- &handlerEvent{frame: f}
}

func (h *ChannelHandler) HandleError(err error) {
	h.input <- &handlerEvent{err: err}
}

// Close stops accepting events. It must only be called once the pipeline feeding this handler
// has been closed. Pending events are still delivered before the channels close.
func (h *ChannelHandler) Close() error {
	h.closeOnce.Do(func() {
		close(h.input)
	})
	return nil
}

// effectively a "bridge" between the decoding goroutine and the consumer to avoid one
// stalling the other, based on https://godoc.org/github.com/eapache/channels#InfiniteChannel
func (h *ChannelHandler) bridge() {
	defer close(h.errors)
	defer close(h.frames)

	buf := queue.New()
	input := h.input

	for input != nil || buf.Length() > 0 {
		if buf.Length() == 0 {
			ev, ok := <-input
			if !ok {
				return
			}
			buf.Add(ev)
			continue
		}

		var (
			frames chan<- Frame
			errs   chan<- error
		)
		head := buf.Peek().(*handlerEvent)
		if head.err != nil {
			errs = h.errors
		} else {
			frames = h.frames
		}

		select {
		case ev, ok := <-input:
			if !ok {
				input = nil
				continue
			}
			buf.Add(ev)
		case frames <- head.frame:
			buf.Remove()
		case errs <- head.err:
			buf.Remove()
		}
	}
}

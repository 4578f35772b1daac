package mocks

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/Shopify/lenframe"
)

type handlerExpectation struct {
	isError       bool
	target        error
	CheckFunction FrameChecker
}

// Handler implements lenframe's Handler interface for testing purposes. Before you can use
// it, you have to set expectations on the mock Handler to tell it which frames and errors it
// will receive, in order. Any frame or error arriving out of order, or beyond the last
// expectation, is reported to the ErrorReporter.
type Handler struct {
	l            sync.Mutex
	t            ErrorReporter
	expectations []*handlerExpectation
	frames       [][]byte
	errors       []error
}

// NewHandler instantiates a new Handler mock. The t argument should be the *testing.T
// instance of your test method. An error will be written to it if an expectation is violated.
func NewHandler(t ErrorReporter) *Handler {
	return &Handler{
		t:            t,
		expectations: make([]*handlerExpectation, 0),
	}
}

////////////////////////////////////////////////
// Implement Handler interface
////////////////////////////////////////////////

// HandleFrame corresponds with the HandleFrame method of lenframe's Handler interface.
// The frame is matched against the next expectation.
func (h *Handler) HandleFrame(f lenframe.Frame) {
	h.l.Lock()
	defer h.l.Unlock()

	h.frames = append(h.frames, f)

	expectation, err := h.next()
	if err != nil {
		h.t.Errorf("No more expectation set on this mock handler to handle a frame of %d bytes.", len(f))
		return
	}
	if expectation.isError {
		h.t.Errorf("Expected an error matching %v, got a frame of %d bytes instead.", expectation.target, len(f))
		return
	}
	if expectation.CheckFunction != nil {
		if err := expectation.CheckFunction(f); err != nil {
			h.t.Errorf("Frame does not match expectation: %v", err)
		}
	}
}

// HandleError corresponds with the HandleError method of lenframe's Handler interface.
// The error is matched against the next expectation with errors.Is.
func (h *Handler) HandleError(err error) {
	h.l.Lock()
	defer h.l.Unlock()

	h.errors = append(h.errors, err)

	expectation, nextErr := h.next()
	if nextErr != nil {
		h.t.Errorf("No more expectation set on this mock handler to handle error: %v", err)
		return
	}
	if !expectation.isError {
		h.t.Errorf("Expected a frame, got error %v instead.", err)
		return
	}
	if expectation.target != nil && !errors.Is(err, expectation.target) {
		h.t.Errorf("Expected error matching %v, got %v", expectation.target, err)
	}
}

func (h *Handler) next() (*handlerExpectation, error) {
	if len(h.expectations) == 0 {
		return nil, errOutOfExpectations
	}
	expectation := h.expectations[0]
	h.expectations = h.expectations[1:]
	return expectation, nil
}

// Close tells the mock that no more frames or errors will follow, so it will write an error
// to the test state if there are any remaining expectations.
func (h *Handler) Close() error {
	h.l.Lock()
	defer h.l.Unlock()

	if len(h.expectations) > 0 {
		h.t.Errorf("Expected to exhaust all expectations, but %d are left.", len(h.expectations))
	}

	return nil
}

// Frames returns every frame received so far.
func (h *Handler) Frames() [][]byte {
	h.l.Lock()
	defer h.l.Unlock()

	out := make([][]byte, len(h.frames))
	copy(out, h.frames)
	return out
}

// Errors returns every error received so far.
func (h *Handler) Errors() []error {
	h.l.Lock()
	defer h.l.Unlock()

	out := make([]error, len(h.errors))
	copy(out, h.errors)
	return out
}

////////////////////////////////////////////////
// Setting expectations
////////////////////////////////////////////////

// ExpectFrame sets an expectation on the mock handler that the next event is a frame whose
// payload equals payload.
func (h *Handler) ExpectFrame(payload []byte) *Handler {
	expected := append([]byte(nil), payload...)
	return h.ExpectFrameWithCheckerFunction(func(got []byte) error {
		if !bytes.Equal(got, expected) {
			return fmt.Errorf("%w: expected %q, got %q", errNoMatch, expected, got)
		}
		return nil
	})
}

// ExpectFrameWithCheckerFunction sets an expectation on the mock handler that the next event
// is a frame, which is passed to cf. A nil cf accepts any frame.
func (h *Handler) ExpectFrameWithCheckerFunction(cf FrameChecker) *Handler {
	h.l.Lock()
	defer h.l.Unlock()
	h.expectations = append(h.expectations, &handlerExpectation{CheckFunction: cf})
	return h
}

// ExpectError sets an expectation on the mock handler that the next event is an error
// matching target according to errors.Is. A nil target accepts any error.
func (h *Handler) ExpectError(target error) *Handler {
	h.l.Lock()
	defer h.l.Unlock()
	h.expectations = append(h.expectations, &handlerExpectation{isError: true, target: target})
	return h
}

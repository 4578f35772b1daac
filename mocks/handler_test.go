package mocks

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Shopify/lenframe"
)

type testReporterMock struct {
	errors []string
}

func newTestReporterMock() *testReporterMock {
	return &testReporterMock{errors: make([]string, 0)}
}

func (trm *testReporterMock) Errorf(format string, args ...interface{}) {
	trm.errors = append(trm.errors, fmt.Sprintf(format, args...))
}

func TestMockHandlerImplementsHandlerInterface(t *testing.T) {
	var h interface{} = &Handler{}
	if _, ok := h.(lenframe.Handler); !ok {
		t.Error("The mock handler should implement the lenframe.Handler interface.")
	}
}

func TestHandlerMatchesExpectationsInOrder(t *testing.T) {
	h := NewHandler(t)
	h.ExpectFrame([]byte("HELLO")).
		ExpectFrameWithCheckerFunction(nil).
		ExpectError(lenframe.ErrBytesLeftOver)

	h.HandleFrame(lenframe.Frame("HELLO"))
	h.HandleFrame(lenframe.Frame("anything"))
	h.HandleError(&lenframe.LeftoverError{Remaining: 1})

	if err := h.Close(); err != nil {
		t.Error(err)
	}
	if len(h.Frames()) != 2 || len(h.Errors()) != 1 {
		t.Errorf("unexpected recorded events: %d frames, %d errors", len(h.Frames()), len(h.Errors()))
	}
}

func TestHandlerReportsMismatchedFrame(t *testing.T) {
	trm := newTestReporterMock()
	h := NewHandler(trm)
	h.ExpectFrame([]byte("FOO"))

	h.HandleFrame(lenframe.Frame("BAR"))

	if len(trm.errors) != 1 {
		t.Errorf("Expected a mismatch to be reported, got %v", trm.errors)
	}
}

func TestHandlerReportsErrorWhereFrameExpected(t *testing.T) {
	trm := newTestReporterMock()
	h := NewHandler(trm)
	h.ExpectFrame([]byte("FOO")).ExpectError(lenframe.ErrInvalidFrameLength)

	h.HandleError(errors.New("boom"))
	h.HandleError(errors.New("not a length error"))

	if len(trm.errors) != 2 {
		t.Errorf("Expected 2 violations to be reported, got %v", trm.errors)
	}
}

func TestHandlerReportsUnexpectedEvents(t *testing.T) {
	trm := newTestReporterMock()
	h := NewHandler(trm)

	h.HandleFrame(lenframe.Frame("x"))
	h.HandleError(lenframe.ErrBytesLeftOver)

	if len(trm.errors) != 2 {
		t.Errorf("Expected 2 violations to be reported, got %v", trm.errors)
	}
}

func TestHandlerReportsUnsatisfiedExpectationsOnClose(t *testing.T) {
	trm := newTestReporterMock()
	h := NewHandler(trm)
	h.ExpectFrame([]byte("never"))

	if err := h.Close(); err != nil {
		t.Error(err)
	}

	if len(trm.errors) != 1 {
		t.Errorf("Expected the remaining expectation to be reported, got %v", trm.errors)
	}
}

/*
Package mocks provides mocks that can be used for testing applications
that use lenframe. The mock types provided by this package implement the
interfaces lenframe exports, so you can use them for dependency injection
in your tests.

All mock instances require you to set expectations on them before you
can use them. It will determine how the mock will behave. If an
expectation is not met, it will make your test fail.
*/
package mocks

import (
	"errors"
)

// ErrorReporter is a simple interface that includes the testing.T methods we use to report
// expectation violations when using the mock objects.
type ErrorReporter interface {
	Errorf(string, ...interface{})
}

// FrameChecker is a function type to be set in each frame expectation of the handler mock
// to check the payload delivered.
type FrameChecker func(payload []byte) error

var (
	errOutOfExpectations = errors.New("no more expectations set on mock")
	errNoMatch           = errors.New("frame does not match expectation")
)

package lenframe

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned by a ByteStream when fewer bytes are readable than the read
// requires. The stream cursor is left untouched, so the same read can be retried once more
// bytes have been written. The Decoder never surfaces it as a failure, it reports NeedMoreData.
var ErrInsufficientData = errors.New("lenframe: insufficient data to decode frame, more bytes expected")

// ErrInvalidFrameLength is returned when a length field is zero or exceeds the configured
// maximum frame length. The stream cannot be resynchronised and should be closed.
var ErrInvalidFrameLength = errors.New("lenframe: invalid frame length")

// ErrBytesLeftOver is reported when a decoder is detached from a stream that still holds
// unread bytes, i.e. the stream ended inside a length field or a payload.
var ErrBytesLeftOver = errors.New("lenframe: bytes left over in buffer at teardown")

// ErrDecoderPoisoned is returned by a poisoning Decoder for every Step after the first
// invalid frame length.
var ErrDecoderPoisoned = errors.New("lenframe: decoder already rejected the stream")

// ErrClosedPipeline is returned when feeding bytes to a Pipeline that has been closed,
// either explicitly or because the stream carried an invalid frame.
var ErrClosedPipeline = errors.New("lenframe: tried to use a pipeline that was closed")

// FrameLengthError is the concrete error behind ErrInvalidFrameLength.
type FrameLengthError struct {
	Length uint64
	Max    uint64
}

func (err *FrameLengthError) Error() string {
	if err.Length == 0 {
		return "lenframe: invalid frame length (zero-length frame)"
	}
	return fmt.Sprintf("lenframe: invalid frame length (%d exceeds maximum of %d)", err.Length, err.Max)
}

func (err *FrameLengthError) Is(target error) bool {
	return target == ErrInvalidFrameLength
}

// LeftoverError is the concrete error behind ErrBytesLeftOver. Remaining counts the unread bytes
// in the stream. Phase records what the decoder was waiting for when it was detached.
type LeftoverError struct {
	Remaining int
	Phase     Phase
}

func (err *LeftoverError) Error() string {
	return fmt.Sprintf("lenframe: %d bytes left over in buffer at teardown (%s)", err.Remaining, err.Phase)
}

func (err *LeftoverError) Is(target error) bool {
	return target == ErrBytesLeftOver
}

// PayloadDecodingError is returned when a downstream stage fails to make sense of a frame's
// payload, for example a corrupt compressed frame.
type PayloadDecodingError struct {
	Info string
	Err  error
}

func (err PayloadDecodingError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("lenframe: error decoding payload: %s: %v", err.Info, err.Err)
	}
	return fmt.Sprintf("lenframe: error decoding payload: %s", err.Info)
}

func (err PayloadDecodingError) Unwrap() error {
	return err.Err
}

// ConfigurationError is the type of error returned from a constructor (e.g. NewPipeline, or
// Consume) when the specified configuration is invalid.
type ConfigurationError string

func (err ConfigurationError) Error() string {
	return "lenframe: invalid configuration (" + string(err) + ")"
}

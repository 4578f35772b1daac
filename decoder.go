package lenframe

import (
	"errors"
	"fmt"
	"math"
)

// Phase is what a Decoder is waiting for next.
type Phase int

const (
	// AwaitingLength is the initial phase: the next bytes are a length field.
	AwaitingLength Phase = iota
	// AwaitingPayload means a valid length has been read and its payload is outstanding.
	AwaitingPayload
	// Poisoned is only entered by a decoder created with Poison set, after an invalid length.
	Poisoned
)

func (p Phase) String() string {
	switch p {
	case AwaitingLength:
		return "awaiting length"
	case AwaitingPayload:
		return "awaiting payload"
	case Poisoned:
		return "poisoned"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Status is the outcome of a single Decoder.Step.
type Status int

const (
	// NeedMoreData means no complete frame is buffered. The stream cursor is exactly where a
	// retry with more bytes needs it.
	NeedMoreData Status = iota
	// Produced means StepResult.Frame holds the next frame. Call Step again.
	Produced
	// Invalid means StepResult.Err holds an ErrInvalidFrameLength. The stream must be abandoned.
	Invalid
)

func (s Status) String() string {
	switch s {
	case NeedMoreData:
		return "need more data"
	case Produced:
		return "produced"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Frame is one decoded payload. It shares no memory with the stream it was read from.
type Frame []byte

// StepResult is returned by Decoder.Step. Frame is set only for Produced, Err only for Invalid.
type StepResult struct {
	Status Status
	Frame  Frame
	Err    error
}

// Decoder is the length-prefixed frame state machine. It is created once per stream, is driven
// by a single goroutine and never retains the ByteStream between calls.
type Decoder struct {
	maxFrameLength uint64
	width          LengthFieldWidth

	// Poison makes the decoder refuse every Step after the first invalid length instead of
	// leaving its phase untouched.
	Poison bool

	phase   Phase
	pending uint64
	failure error
}

// NewDecoder creates a decoder in the AwaitingLength phase. Neither argument is validated here,
// lengths are checked against maxFrameLength frame by frame.
func NewDecoder(maxFrameLength uint64, width LengthFieldWidth) *Decoder {
	return &Decoder{
		maxFrameLength: maxFrameLength,
		width:          width,
		phase:          AwaitingLength,
	}
}

// MaxFrameLength returns the inclusive upper bound on payload length.
func (d *Decoder) MaxFrameLength() uint64 {
	return d.maxFrameLength
}

// Width returns the length field width.
func (d *Decoder) Width() LengthFieldWidth {
	return d.width
}

// Phase returns the current phase.
func (d *Decoder) Phase() Phase {
	return d.phase
}

// PendingLength returns the payload length being waited for in AwaitingPayload, 0 otherwise.
func (d *Decoder) PendingLength() uint64 {
	if d.phase != AwaitingPayload {
		return 0
	}
	return d.pending
}

// Step advances the state machine as far as the buffered bytes allow, producing at most one
// frame. Once a valid length is read the payload is attempted in the same call, so a frame that
// is already fully buffered never waits for another write.
func (d *Decoder) Step(s ByteStream) StepResult {
	switch d.phase {
	case Poisoned:
		return StepResult{Status: Invalid, Err: fmt.Errorf("%w: %v", ErrDecoderPoisoned, d.failure)}
	case AwaitingLength:
		length, err := s.ReadUint(d.width)
		if errors.Is(err, ErrInsufficientData) {
			return StepResult{Status: NeedMoreData}
		} else if err != nil {
			return d.fail(err)
		}

		if length == 0 || length > d.maxFrameLength || length > math.MaxInt {
			return d.fail(&FrameLengthError{Length: length, Max: d.maxFrameLength})
		}

		d.phase = AwaitingPayload
		d.pending = length
	}

	payload, err := s.ReadSlice(int(d.pending))
	if errors.Is(err, ErrInsufficientData) {
		return StepResult{Status: NeedMoreData}
	} else if err != nil {
		return d.fail(err)
	}

	d.phase = AwaitingLength
	d.pending = 0
	return StepResult{Status: Produced, Frame: payload}
}

func (d *Decoder) fail(err error) StepResult {
	if d.Poison {
		d.phase = Poisoned
		d.failure = err
	}
	return StepResult{Status: Invalid, Err: err}
}

// Detach is called by the owner when it stops driving the decoder. It returns a *LeftoverError
// if the stream still holds unread bytes, which the caller should forward to its own error
// reporting; detaching itself cannot fail. The decoder is reset to AwaitingLength.
func (d *Decoder) Detach(s ByteStream) error {
	phase := d.phase
	d.phase = AwaitingLength
	d.pending = 0
	d.failure = nil

	if remaining := s.Remaining(); remaining > 0 {
		return &LeftoverError{Remaining: remaining, Phase: phase}
	}
	return nil
}

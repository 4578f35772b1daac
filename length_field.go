package lenframe

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// LengthFieldWidth is the width, in bits, of the unsigned length field preceding every payload.
type LengthFieldWidth int

const (
	LengthField8  LengthFieldWidth = 8
	LengthField16 LengthFieldWidth = 16
	LengthField32 LengthFieldWidth = 32
	LengthField64 LengthFieldWidth = 64
)

// Size returns the number of bytes the length field occupies on the wire, or 0 for an unknown width.
func (w LengthFieldWidth) Size() int {
	switch w {
	case LengthField8, LengthField16, LengthField32, LengthField64:
		return int(w) / 8
	default:
		return 0
	}
}

// MaxValue is the largest length the field can carry.
func (w LengthFieldWidth) MaxValue() uint64 {
	switch w {
	case LengthField8:
		return math.MaxUint8
	case LengthField16:
		return math.MaxUint16
	case LengthField32:
		return math.MaxUint32
	case LengthField64:
		return math.MaxUint64
	default:
		return 0
	}
}

func (w LengthFieldWidth) valid() bool {
	return w.Size() != 0
}

func (w LengthFieldWidth) String() string {
	if !w.valid() {
		return fmt.Sprintf("LengthFieldWidth(%d)", int(w))
	}
	return fmt.Sprintf("uint%d", int(w))
}

// decode reads a big-endian value of the field's width from the start of buf, which must
// hold at least Size() bytes.
func (w LengthFieldWidth) decode(buf []byte) uint64 {
	switch w {
	case LengthField8:
		return uint64(buf[0])
	case LengthField16:
		return uint64(binary.BigEndian.Uint16(buf))
	case LengthField32:
		return uint64(binary.BigEndian.Uint32(buf))
	default:
		return binary.BigEndian.Uint64(buf)
	}
}

// ParseLengthFieldWidth accepts "8", "16", "32", "64" with an optional "uint" prefix.
func ParseLengthFieldWidth(s string) (LengthFieldWidth, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "uint") {
	case "8":
		return LengthField8, nil
	case "16":
		return LengthField16, nil
	case "32":
		return LengthField32, nil
	case "64":
		return LengthField64, nil
	default:
		return 0, fmt.Errorf("lenframe: unknown length field width %q", s)
	}
}

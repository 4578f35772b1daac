package lenframe

import (
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"testing"
)

func safeClose(t testing.TB, c io.Closer) {
	t.Helper()
	err := c.Close()
	if err != nil {
		t.Error(err)
	}
}

// encodeLength writes n as a big-endian length field of the given width.
func encodeLength(width LengthFieldWidth, n uint64) []byte {
	buf := make([]byte, width.Size())
	switch width {
	case LengthField8:
		buf[0] = byte(n)
	case LengthField16:
		binary.BigEndian.PutUint16(buf, uint16(n))
	case LengthField32:
		binary.BigEndian.PutUint32(buf, uint32(n))
	case LengthField64:
		binary.BigEndian.PutUint64(buf, n)
	}
	return buf
}

func encodeFrame(width LengthFieldWidth, payload []byte) []byte {
	return append(encodeLength(width, uint64(len(payload))), payload...)
}

func encodeFrames(width LengthFieldWidth, payloads ...[]byte) []byte {
	var out []byte
	for _, p := range payloads {
		out = append(out, encodeFrame(width, p)...)
	}
	return out
}

// randomPayloads returns n payloads with lengths in [1, maxLen].
func randomPayloads(rng *rand.Rand, n, maxLen int) [][]byte {
	payloads := make([][]byte, n)
	for i := range payloads {
		p := make([]byte, 1+rng.Intn(maxLen))
		rng.Read(p)
		payloads[i] = p
	}
	return payloads
}

// randomSplit cuts data into consecutive chunks of random size, possibly empty.
func randomSplit(rng *rand.Rand, data []byte) [][]byte {
	var chunks [][]byte
	for len(data) > 0 {
		n := rng.Intn(len(data) + 1)
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}

func splitEvery(data []byte, n int) [][]byte {
	var chunks [][]byte
	for len(data) > n {
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return append(chunks, data)
}

// recordingHandler keeps every event it receives, in order.
type recordingHandler struct {
	l      sync.Mutex
	frames []Frame
	errors []error
}

func (h *recordingHandler) HandleFrame(f Frame) {
	h.l.Lock()
	defer h.l.Unlock()
	h.frames = append(h.frames, f)
}

func (h *recordingHandler) HandleError(err error) {
	h.l.Lock()
	defer h.l.Unlock()
	h.errors = append(h.errors, err)
}

func (h *recordingHandler) payloads() [][]byte {
	h.l.Lock()
	defer h.l.Unlock()
	out := make([][]byte, len(h.frames))
	for i, f := range h.frames {
		out[i] = f
	}
	return out
}

func (h *recordingHandler) errs() []error {
	h.l.Lock()
	defer h.l.Unlock()
	return append([]error(nil), h.errors...)
}

var allWidths = []LengthFieldWidth{LengthField8, LengthField16, LengthField32, LengthField64}

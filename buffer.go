package lenframe

// ByteStream is the cursor-based view of accumulated bytes that a Decoder reads from.
// A read that fails with ErrInsufficientData must not move the cursor.
type ByteStream interface {
	// Remaining returns the number of readable bytes.
	Remaining() int
	// ReadUint consumes a big-endian unsigned integer of the given width.
	ReadUint(width LengthFieldWidth) (uint64, error)
	// ReadSlice consumes exactly n bytes. The returned slice is owned by the caller.
	ReadSlice(n int) ([]byte, error)
}

// Buffer accumulates bytes across writes and serves them to a Decoder. Consumed bytes are
// reclaimed lazily on the next Write. A Buffer is not safe for concurrent use.
type Buffer struct {
	raw []byte
	off int
}

// NewBuffer returns an empty Buffer with initialSize bytes of capacity.
func NewBuffer(initialSize int) *Buffer {
	if initialSize < 0 {
		initialSize = 0
	}
	return &Buffer{raw: make([]byte, 0, initialSize)}
}

// Write appends p to the readable bytes. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.off > 0 && (b.off == len(b.raw) || len(b.raw)+len(p) > cap(b.raw)) {
		n := copy(b.raw, b.raw[b.off:])
		b.raw = b.raw[:n]
		b.off = 0
	}
	b.raw = append(b.raw, p...)
	return len(p), nil
}

// Remaining implements ByteStream.
func (b *Buffer) Remaining() int {
	return len(b.raw) - b.off
}

// Len is an alias of Remaining matching bytes.Buffer.
func (b *Buffer) Len() int {
	return b.Remaining()
}

// ReadUint implements ByteStream.
func (b *Buffer) ReadUint(width LengthFieldWidth) (uint64, error) {
	size := width.Size()
	if size == 0 {
		return 0, ConfigurationError("unsupported length field width " + width.String())
	}
	if b.Remaining() < size {
		return 0, ErrInsufficientData
	}
	tmp := width.decode(b.raw[b.off:])
	b.off += size
	return tmp, nil
}

// ReadSlice implements ByteStream.
func (b *Buffer) ReadSlice(n int) ([]byte, error) {
	if n < 0 || b.Remaining() < n {
		return nil, ErrInsufficientData
	}
	tmp := make([]byte, n)
	copy(tmp, b.raw[b.off:])
	b.off += n
	return tmp, nil
}

// Reset discards all readable bytes but keeps the allocated capacity.
func (b *Buffer) Reset() {
	b.raw = b.raw[:0]
	b.off = 0
}

package lenframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferReadUint(t *testing.T) {
	tests := []struct {
		name    string
		width   LengthFieldWidth
		input   []byte
		want    uint64
		wantErr error
	}{
		{"uint8", LengthField8, []byte{0xFE, 0x01}, 0xFE, nil},
		{"uint16", LengthField16, []byte{0x01, 0x02}, 0x0102, nil},
		{"uint32", LengthField32, []byte{0x01, 0x02, 0x03, 0x04}, 0x01020304, nil},
		{"uint64", LengthField64, []byte{0, 0, 0, 1, 0, 0, 0, 2}, 1<<32 | 2, nil},
		{"empty", LengthField8, nil, 0, ErrInsufficientData},
		{"short uint32", LengthField32, []byte{0x00, 0x00, 0x01}, 0, ErrInsufficientData},
		{"short uint64", LengthField64, []byte{0, 0, 0, 0, 0, 0, 0}, 0, ErrInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(0)
			_, _ = b.Write(tt.input)

			got, err := b.ReadUint(tt.width)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, len(tt.input), b.Remaining(), "a failed read must not consume")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.input)-tt.width.Size(), b.Remaining())
		})
	}
}

func TestBufferReadSlice(t *testing.T) {
	b := NewBuffer(0)
	_, _ = b.Write([]byte("abc"))

	_, err := b.ReadSlice(4)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Equal(t, 3, b.Remaining())

	got, err := b.ReadSlice(2)
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), got)
	assert.Equal(t, 1, b.Len())

	got, err = b.ReadSlice(0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBufferWriteCompactsConsumedBytes(t *testing.T) {
	b := NewBuffer(8)
	_, _ = b.Write([]byte("12345678"))
	_, err := b.ReadSlice(6)
	require.NoError(t, err)

	n, err := b.Write([]byte("9abc"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 6, b.Remaining())

	got, err := b.ReadSlice(6)
	require.NoError(t, err)
	assert.Equal(t, []byte("789abc"), got)
	assert.Equal(t, 8, cap(b.raw), "compaction should have made room without growing")
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer(0)
	_, _ = b.Write([]byte{1, 2, 3})
	b.Reset()
	assert.Zero(t, b.Remaining())

	_, err := b.ReadUint(LengthField8)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestLengthFieldWidth(t *testing.T) {
	for _, w := range allWidths {
		assert.Equal(t, int(w)/8, w.Size())
		parsed, err := ParseLengthFieldWidth(w.String())
		require.NoError(t, err)
		assert.Equal(t, w, parsed)
	}

	assert.Equal(t, uint64(255), LengthField8.MaxValue())
	assert.Equal(t, uint64(65535), LengthField16.MaxValue())
	assert.Zero(t, LengthFieldWidth(12).Size())
	assert.Equal(t, "LengthFieldWidth(12)", LengthFieldWidth(12).String())

	w, err := ParseLengthFieldWidth(" 16 ")
	require.NoError(t, err)
	assert.Equal(t, LengthField16, w)

	_, err = ParseLengthFieldWidth("24")
	assert.Error(t, err)
}

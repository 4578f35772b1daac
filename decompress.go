package lenframe

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
	"sync"

	xerial "github.com/eapache/go-xerial-snappy"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionCodec represents the various compression codecs a producer may have applied to
// payloads before framing them.
type CompressionCodec int8

const (
	// CompressionNone no compression
	CompressionNone CompressionCodec = iota
	// CompressionGZIP compression using GZIP
	CompressionGZIP
	// CompressionSnappy compression using snappy, raw or in xerial framing
	CompressionSnappy
	// CompressionLZ4 compression using LZ4 frames
	CompressionLZ4
	// CompressionZSTD compression using ZSTD
	CompressionZSTD
)

func (cc CompressionCodec) String() string {
	if !cc.valid() {
		return fmt.Sprintf("CompressionCodec(%d)", int(cc))
	}
	return []string{
		"none",
		"gzip",
		"snappy",
		"lz4",
		"zstd",
	}[int(cc)]
}

func (cc CompressionCodec) valid() bool {
	return cc >= CompressionNone && cc <= CompressionZSTD
}

// ParseCompressionCodec maps a codec name as printed by String back to the codec.
func ParseCompressionCodec(s string) (CompressionCodec, error) {
	for cc := CompressionNone; cc <= CompressionZSTD; cc++ {
		if strings.EqualFold(s, cc.String()) {
			return cc, nil
		}
	}
	return CompressionNone, fmt.Errorf("lenframe: unknown compression codec %q", s)
}

// xerialHeader opens snappy payloads written in the xerial (snappy-java) block framing.
var xerialHeader = []byte{130, 83, 78, 65, 80, 80, 89, 0}

var (
	lz4ReaderPool = sync.Pool{
		New: func() interface{} {
			return lz4.NewReader(nil)
		},
	}

	gzipReaderPool sync.Pool

	zstdDecoderOnce sync.Once
	zstdDecoder     *zstd.Decoder
	zstdDecoderErr  error
)

func decompress(cc CompressionCodec, data []byte) ([]byte, error) {
	switch cc {
	case CompressionNone:
		return data, nil
	case CompressionGZIP:
		var err error
		reader, ok := gzipReaderPool.Get().(*gzip.Reader)
		if ok {
			err = reader.Reset(bytes.NewReader(data))
		} else {
			reader, err = gzip.NewReader(bytes.NewReader(data))
		}
		if err != nil {
			return nil, err
		}
		defer gzipReaderPool.Put(reader)

		return io.ReadAll(reader)
	case CompressionSnappy:
		if !bytes.HasPrefix(data, xerialHeader) {
			return snappy.Decode(nil, data)
		}
		return xerial.Decode(data)
	case CompressionLZ4:
		reader := lz4ReaderPool.Get().(*lz4.Reader)
		defer lz4ReaderPool.Put(reader)

		reader.Reset(bytes.NewReader(data))
		return io.ReadAll(reader)
	case CompressionZSTD:
		zstdDecoderOnce.Do(func() {
			zstdDecoder, zstdDecoderErr = zstd.NewReader(nil)
		})
		if zstdDecoderErr != nil {
			return nil, zstdDecoderErr
		}
		return zstdDecoder.DecodeAll(data, nil)
	default:
		return nil, PayloadDecodingError{Info: fmt.Sprintf("invalid compression specified (%d)", cc)}
	}
}

// DecompressingHandler is a pipeline stage placed between the decoder and the application's
// Handler. It decompresses every frame before passing it on; frames that fail to decompress
// are reported to the next handler as a PayloadDecodingError and dropped.
type DecompressingHandler struct {
	codec CompressionCodec
	next  Handler
}

// NewDecompressingHandler wraps next so it receives payloads decompressed with codec.
func NewDecompressingHandler(codec CompressionCodec, next Handler) *DecompressingHandler {
	return &DecompressingHandler{codec: codec, next: next}
}

func (h *DecompressingHandler) HandleFrame(f Frame) {
	out, err := decompress(h.codec, f)
	if err != nil {
		h.next.HandleError(PayloadDecodingError{
			Info: fmt.Sprintf("failed to decompress %d byte %s frame", len(f), h.codec),
			Err:  err,
		})
		return
	}
	h.next.HandleFrame(out)
}

func (h *DecompressingHandler) HandleError(err error) {
	h.next.HandleError(err)
}

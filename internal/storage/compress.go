package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	ErrUnknownCompression = errors.New("storage: unknown compression")
	ErrBlobTooLarge       = errors.New("storage: decompressed blob exceeds limit")
)

// MaxBlobSize is the default bound on decompressed output.
const MaxBlobSize = 256 << 20

// Compressor transforms whole blobs.
type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// NewCompressor returns the compressor registered under name. level is passed
// through to the codec; zero selects its default. Output is bounded by
// MaxBlobSize.
func NewCompressor(name string, level int) (Compressor, error) {
	return NewLimitedCompressor(name, level, MaxBlobSize)
}

// NewLimitedCompressor is NewCompressor with decompressed output bounded by
// limit bytes. Exceeding it fails with ErrBlobTooLarge.
func NewLimitedCompressor(name string, level int, limit int64) (Compressor, error) {
	switch name {
	case "gzip":
		return Gzip{Level: level, Limit: limit}, nil
	case "zstd":
		return NewZstdLimit(level, limit)
	case "none", "":
		return None{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}

type None struct{}

func (None) Name() string { return "none" }

func (None) Compress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (None) Decompress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

// Gzip wraps blobs in a plain gzip stream.
type Gzip struct {
	Level int
	// Limit bounds decompressed output. Zero means MaxBlobSize.
	Limit int64
}

func (Gzip) Name() string { return "gzip" }

func (g Gzip) Compress(data []byte) ([]byte, error) {
	level := g.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

func (g Gzip) Decompress(data []byte) ([]byte, error) {
	limit := g.Limit
	if limit <= 0 {
		limit = MaxBlobSize
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: gzip over %d bytes", ErrBlobTooLarge, limit)
	}
	return out, nil
}

// Zstd holds a reusable encoder and decoder. It is safe for concurrent use.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewZstd(level int) (*Zstd, error) {
	return NewZstdLimit(level, MaxBlobSize)
}

// NewZstdLimit bounds decoded output to limit bytes.
func NewZstdLimit(level int, limit int64) (*Zstd, error) {
	if limit <= 0 {
		limit = MaxBlobSize
	}
	opts := []zstd.EOption{}
	if level != 0 {
		opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	}
	enc, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(limit)))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Zstd{enc: enc, dec: dec}, nil
}

func (*Zstd) Name() string { return "zstd" }

func (z *Zstd) Compress(data []byte) ([]byte, error) {
	return z.enc.EncodeAll(data, nil), nil
}

func (z *Zstd) Decompress(data []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(data, nil)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
		return nil, fmt.Errorf("%w: zstd: %w", ErrBlobTooLarge, err)
	}
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

// Detect names the compression of data from its leading magic bytes. Data
// without a known header is reported as "none".
func Detect(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0x1f, 0x8b}):
		return "gzip"
	case bytes.HasPrefix(data, []byte{0x28, 0xb5, 0x2f, 0xfd}):
		return "zstd"
	default:
		return "none"
	}
}

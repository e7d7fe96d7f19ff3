package buffer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/danmuck/scenesave/internal/wire/strtab"
)

const initialCapacity = 1024

// ErrBufferUnderrun is shared with the string table header parser.
var ErrBufferUnderrun = strtab.ErrUnderrun

// Buffer is an append-only byte store with a read cursor.
// Strings are routed through the attached string table.
type Buffer struct {
	data   []byte
	length int
	offset int
	table  *strtab.Table
}

// New returns an empty buffer interning strings into table.
func New(table *strtab.Table) *Buffer {
	if table == nil {
		table = strtab.New()
	}
	return &Buffer{data: make([]byte, initialCapacity), table: table}
}

// FromBytes returns a buffer positioned at the start of data.
func FromBytes(data []byte, table *strtab.Table) *Buffer {
	b := New(table)
	b.Reset(data)
	return b
}

func (b *Buffer) Table() *strtab.Table {
	return b.table
}

// Reset replaces the content with a copy of data and rewinds the cursor.
func (b *Buffer) Reset(data []byte) {
	b.length = 0
	b.offset = 0
	if len(data) == 0 {
		return
	}
	b.ensureCapacity(len(data))
	copy(b.data, data)
	b.length = len(data)
}

// Bytes returns a copy of the written region.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, b.length)
	copy(out, b.data[:b.length])
	return out
}

func (b *Buffer) Len() int { return b.length }

func (b *Buffer) Cap() int { return len(b.data) }

func (b *Buffer) Offset() int { return b.offset }

func (b *Buffer) Remaining() int { return b.length - b.offset }

func (b *Buffer) ensureCapacity(required int) {
	if required <= len(b.data) {
		return
	}
	n := len(b.data)
	if n == 0 {
		n = initialCapacity
	}
	for n < required {
		n <<= 1
	}
	grown := make([]byte, n)
	copy(grown, b.data[:b.length])
	b.data = grown
}

// Append writes p verbatim.
func (b *Buffer) Append(p []byte) {
	b.ensureCapacity(b.length + len(p))
	copy(b.data[b.length:], p)
	b.length += len(p)
}

// ReadExact returns the next n bytes and advances the cursor.
func (b *Buffer) ReadExact(n int) ([]byte, error) {
	if n < 0 || b.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d at offset %d, have %d", ErrBufferUnderrun, n, b.offset, b.Remaining())
	}
	out := make([]byte, n)
	copy(out, b.data[b.offset:b.offset+n])
	b.offset += n
	return out, nil
}

func (b *Buffer) WriteInt32(v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	b.Append(tmp[:])
}

func (b *Buffer) WriteInt64(v int64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	b.Append(tmp[:])
}

func (b *Buffer) WriteFloat32(v float32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	b.Append(tmp[:])
}

func (b *Buffer) WriteFloat64(v float64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	b.Append(tmp[:])
}

func (b *Buffer) WriteBool(v bool) {
	if v {
		b.Append([]byte{1})
		return
	}
	b.Append([]byte{0})
}

// WriteBytes writes an int32 length followed by p. Nil and empty both encode as length 0.
func (b *Buffer) WriteBytes(p []byte) {
	b.WriteInt32(int32(len(p)))
	if len(p) > 0 {
		b.Append(p)
	}
}

// WriteString writes the interned index of s.
func (b *Buffer) WriteString(s string) {
	b.WriteInt32(b.table.Intern(s))
}

func (b *Buffer) ReadInt32() (int32, error) {
	p, err := b.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(p)), nil
}

func (b *Buffer) ReadInt64() (int64, error) {
	p, err := b.ReadExact(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(p)), nil
}

func (b *Buffer) ReadFloat32() (float32, error) {
	p, err := b.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p)), nil
}

func (b *Buffer) ReadFloat64() (float64, error) {
	p, err := b.ReadExact(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(p)), nil
}

func (b *Buffer) ReadBool() (bool, error) {
	p, err := b.ReadExact(1)
	if err != nil {
		return false, err
	}
	return p[0] != 0, nil
}

func (b *Buffer) ReadBytes() ([]byte, error) {
	n, err := b.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: negative block length %d", ErrBufferUnderrun, n)
	}
	return b.ReadExact(int(n))
}

func (b *Buffer) ReadString() (string, error) {
	i, err := b.ReadInt32()
	if err != nil {
		return "", err
	}
	return b.table.Resolve(i)
}

// WriteFloats writes each component as float32 in order, without padding.
func (b *Buffer) WriteFloats(vs ...float32) {
	for _, v := range vs {
		b.WriteFloat32(v)
	}
}

// ReadFloats reads n consecutive float32 values.
func (b *Buffer) ReadFloats(n int) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		v, err := b.ReadFloat32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

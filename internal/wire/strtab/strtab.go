package strtab

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrIndexOutOfRange = errors.New("strtab: index out of range")
	ErrMalformedHeader = errors.New("strtab: malformed header")
	ErrInvalidString   = errors.New("strtab: string is not valid utf-8")
	// ErrUnderrun is also exported as buffer.ErrBufferUnderrun.
	ErrUnderrun = errors.New("wire: read past end")
)

// Table interns strings so the body only stores int32 indices.
// Index is the position of first insertion. Not safe for concurrent writers.
type Table struct {
	list  []string
	index map[string]int32
}

func New() *Table {
	return &Table{index: make(map[string]int32)}
}

// Intern returns the index of s, appending it on first sight.
func (t *Table) Intern(s string) int32 {
	if i, ok := t.index[s]; ok {
		return i
	}
	i := int32(len(t.list))
	t.list = append(t.list, s)
	t.index[s] = i
	return i
}

// Resolve returns the string stored at index i.
func (t *Table) Resolve(i int32) (string, error) {
	if i < 0 || int(i) >= len(t.list) {
		return "", fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, i, len(t.list))
	}
	return t.list[i], nil
}

func (t *Table) Len() int {
	return len(t.list)
}

// Strings returns a copy of the table in index order.
func (t *Table) Strings() []string {
	out := make([]string, len(t.list))
	copy(out, t.list)
	return out
}

// Seed appends every string of src in index order, duplicates included, so
// indices of src stay valid in t. t must be empty.
func (t *Table) Seed(src *Table) error {
	if len(t.list) != 0 {
		return fmt.Errorf("strtab: seed into table of %d strings", len(t.list))
	}
	for _, s := range src.list {
		if _, ok := t.index[s]; !ok {
			t.index[s] = int32(len(t.list))
		}
		t.list = append(t.list, s)
	}
	return nil
}

// Validate fails when a string would be rejected by StripHeader.
func (t *Table) Validate() error {
	for i, s := range t.list {
		if !utf8.ValidString(s) {
			return fmt.Errorf("%w: string %d %q", ErrInvalidString, i, s)
		}
	}
	return nil
}

// PrependHeader renders the table as a header block followed by body.
//
//	count:int32, { len:int32, utf8 }*count, body
func (t *Table) PrependHeader(body []byte) []byte {
	size := 4 + len(body)
	for _, s := range t.list {
		size += 4 + len(s)
	}
	out := make([]byte, 4, size)
	binary.LittleEndian.PutUint32(out, uint32(len(t.list)))
	var n [4]byte
	for _, s := range t.list {
		binary.LittleEndian.PutUint32(n[:], uint32(len(s)))
		out = append(out, n[:]...)
		out = append(out, s...)
	}
	return append(out, body...)
}

// StripHeader parses the header block into t and returns the remaining body.
// It must run before any body decoding dereferences an index.
func (t *Table) StripHeader(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: %w: short count", ErrMalformedHeader, ErrUnderrun)
	}
	count := int32(binary.LittleEndian.Uint32(data[0:4]))
	if count < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrMalformedHeader, count)
	}
	offset := 4
	for i := int32(0); i < count; i++ {
		if len(data)-offset < 4 {
			return nil, fmt.Errorf("%w: %w: short length for string %d", ErrMalformedHeader, ErrUnderrun, i)
		}
		l := int(int32(binary.LittleEndian.Uint32(data[offset : offset+4])))
		offset += 4
		if l < 0 {
			return nil, fmt.Errorf("%w: string %d has negative length %d", ErrMalformedHeader, i, l)
		}
		if len(data)-offset < l {
			return nil, fmt.Errorf("%w: %w: string %d length %d exceeds data", ErrMalformedHeader, ErrUnderrun, i, l)
		}
		raw := data[offset : offset+l]
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("%w: %w: string %d", ErrMalformedHeader, ErrInvalidString, i)
		}
		s := string(raw)
		if _, ok := t.index[s]; !ok {
			t.index[s] = int32(len(t.list))
		}
		t.list = append(t.list, s)
		offset += l
	}
	body := make([]byte, len(data)-offset)
	copy(body, data[offset:])
	return body, nil
}

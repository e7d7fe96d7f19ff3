package buffer

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/danmuck/scenesave/internal/testutil/testlog"
	"github.com/danmuck/scenesave/internal/wire/strtab"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	testlog.Start(t)
	w := New(nil)
	w.WriteInt32(-7)
	w.WriteInt64(math.MaxInt64)
	w.WriteFloat32(3.5)
	w.WriteFloat64(-0.125)
	w.WriteBool(true)
	w.WriteBool(false)
	w.WriteBytes([]byte{1, 2, 3})
	w.WriteBytes(nil)
	w.WriteString("hp")
	w.WriteFloats(1, 2, 3)

	r := FromBytes(w.Bytes(), w.Table())
	if v, err := r.ReadInt32(); err != nil || v != -7 {
		t.Fatalf("int32: %v %v", v, err)
	}
	if v, err := r.ReadInt64(); err != nil || v != math.MaxInt64 {
		t.Fatalf("int64: %v %v", v, err)
	}
	if v, err := r.ReadFloat32(); err != nil || v != 3.5 {
		t.Fatalf("float32: %v %v", v, err)
	}
	if v, err := r.ReadFloat64(); err != nil || v != -0.125 {
		t.Fatalf("float64: %v %v", v, err)
	}
	if v, err := r.ReadBool(); err != nil || !v {
		t.Fatalf("bool true: %v %v", v, err)
	}
	if v, err := r.ReadBool(); err != nil || v {
		t.Fatalf("bool false: %v %v", v, err)
	}
	if v, err := r.ReadBytes(); err != nil || !bytes.Equal(v, []byte{1, 2, 3}) {
		t.Fatalf("bytes: %v %v", v, err)
	}
	if v, err := r.ReadBytes(); err != nil || len(v) != 0 {
		t.Fatalf("empty bytes: %v %v", v, err)
	}
	if v, err := r.ReadString(); err != nil || v != "hp" {
		t.Fatalf("string: %q %v", v, err)
	}
	fs, err := r.ReadFloats(3)
	if err != nil || fs[0] != 1 || fs[1] != 2 || fs[2] != 3 {
		t.Fatalf("floats: %v %v", fs, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected fully consumed buffer, %d left", r.Remaining())
	}
}

func TestLittleEndianFixedWidth(t *testing.T) {
	testlog.Start(t)
	w := New(nil)
	w.WriteInt32(1)
	w.WriteBool(true)
	want := []byte{1, 0, 0, 0, 1}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("layout mismatch: got=%v want=%v", w.Bytes(), want)
	}
}

func TestCapacityDoubles(t *testing.T) {
	testlog.Start(t)
	w := New(nil)
	if w.Cap() != initialCapacity {
		t.Fatalf("unexpected initial capacity %d", w.Cap())
	}
	w.Append(make([]byte, initialCapacity+1))
	if w.Cap() != initialCapacity*2 {
		t.Fatalf("expected doubled capacity, got %d", w.Cap())
	}
	w.Append(make([]byte, initialCapacity*3))
	if w.Cap() != initialCapacity*8 {
		t.Fatalf("expected capacity %d, got %d", initialCapacity*8, w.Cap())
	}
	if w.Len() != initialCapacity*4+1 {
		t.Fatalf("unexpected length %d", w.Len())
	}
}

func TestReadPastEndIsUnderrun(t *testing.T) {
	testlog.Start(t)
	r := FromBytes([]byte{1, 2}, nil)
	if _, err := r.ReadInt32(); !errors.Is(err, ErrBufferUnderrun) {
		t.Fatalf("expected ErrBufferUnderrun, got %v", err)
	}
	if r.Offset() != 0 {
		t.Fatalf("failed read must not advance cursor")
	}
	r = FromBytes([]byte{5, 0, 0, 0, 'a'}, nil)
	if _, err := r.ReadBytes(); !errors.Is(err, ErrBufferUnderrun) {
		t.Fatalf("expected ErrBufferUnderrun for short block, got %v", err)
	}
}

func TestReadStringUnknownIndex(t *testing.T) {
	testlog.Start(t)
	r := FromBytes([]byte{3, 0, 0, 0}, strtab.New())
	if _, err := r.ReadString(); !errors.Is(err, strtab.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

package document

import (
	"fmt"

	"github.com/danmuck/scenesave/internal/wire/buffer"
	"github.com/danmuck/scenesave/internal/wire/strtab"
	"github.com/danmuck/scenesave/internal/wire/value"
	"github.com/rs/zerolog/log"
)

// Leaf is an opaque encoded value. A leaf built with NewLeaf is encoded when
// the tree is serialized; a decoded leaf keeps its bytes until Value is
// called with the declared type, and keeps the last decoded value so it can
// be written into another document.
type Leaf struct {
	val   value.Value
	set   bool
	raw   []byte
	codec value.Codec
	table *strtab.Table

	cached    value.Value
	cachedFor string
}

func NewLeaf(v value.Value) *Leaf {
	return &Leaf{val: v, set: true}
}

func (l *Leaf) Tag() string { return TagLeaf }

// Size is the encoded payload length of a decoded leaf.
func (l *Leaf) Size() int { return len(l.raw) }

// Raw returns the encoded payload of a decoded leaf.
func (l *Leaf) Raw() []byte { return l.raw }

// Empty reports whether the leaf carries no payload (a skipped value).
func (l *Leaf) Empty() bool { return !l.set && len(l.raw) == 0 }

// Value returns the leaf content decoded as t. The payload must be consumed
// exactly.
func (l *Leaf) Value(t value.Type) (value.Value, error) {
	if l.set {
		if l.val.Kind() != t.Kind() {
			return value.Value{}, fmt.Errorf("%w: leaf holds %s, want %s", value.ErrKindMismatch, l.val.Kind(), t.Kind())
		}
		return l.val, nil
	}
	if len(l.raw) == 0 {
		return value.Value{}, ErrEmptyLeaf
	}
	if l.cachedFor != "" && l.cachedFor == t.Name() {
		return l.cached, nil
	}
	b := buffer.FromBytes(l.raw, l.table)
	v, err := l.codec.Decode(b, t)
	if err != nil {
		return value.Value{}, err
	}
	if n := b.Remaining(); n != 0 {
		return value.Value{}, fmt.Errorf("%w: %w: %d bytes after %s", ErrTrailingBytes, value.ErrKindMismatch, n, t.Name())
	}
	l.cached, l.cachedFor = v, t.Name()
	return v, nil
}

func (l *Leaf) encode(w *writer) error {
	if !l.set {
		switch {
		case len(l.raw) == 0 || w.shares(l.table):
			w.buf.WriteBytes(l.raw)
			return nil
		case l.cachedFor != "":
			return w.writeValue(l.cached)
		default:
			log.Error().Err(ErrForeignLeaf).Int("bytes", len(l.raw)).Msg("document: leaf value skipped")
			w.buf.WriteBytes(nil)
			return nil
		}
	}
	return w.writeValue(l.val)
}

func (l *Leaf) decode(r *reader) error {
	raw, err := r.buf.ReadBytes()
	if err != nil {
		return err
	}
	l.raw = raw
	l.codec = r.codec
	l.table = r.buf.Table()
	return nil
}

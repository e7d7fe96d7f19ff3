package document

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/danmuck/scenesave/internal/wire/buffer"
	"github.com/danmuck/scenesave/internal/wire/strtab"
	"github.com/danmuck/scenesave/internal/wire/value"
	"github.com/rs/zerolog/log"
)

// Stable node tags written before every nested node.
const (
	TagMap  = "map"
	TagList = "list"
	TagLeaf = "leaf"
)

var (
	ErrUnknownTag    = errors.New("document: unknown node tag")
	ErrKeyNotFound   = errors.New("document: key not found")
	ErrNodeType      = errors.New("document: unexpected node type")
	ErrEmptyLeaf     = errors.New("document: empty leaf")
	ErrForeignLeaf   = errors.New("document: leaf belongs to another string table")
	ErrIndexInvalid  = errors.New("document: list index out of range")
	ErrInvalidKey    = errors.New("document: map key is not valid utf-8")
	ErrTrailingBytes = errors.New("document: leaf has trailing bytes")
)

// Node is one element of the save tree. Payload encoding excludes the tag,
// which the enclosing container (or Encode) writes.
type Node interface {
	Tag() string
	encode(w *writer) error
	decode(r *reader) error
}

var factories = map[string]func() Node{
	TagMap:  func() Node { return NewMap() },
	TagList: func() Node { return NewList() },
	TagLeaf: func() Node { return &Leaf{} },
}

type writer struct {
	buf   *buffer.Buffer
	codec value.Codec
	// seed is the decoded table the output table was seeded from.
	seed *strtab.Table
}

// shares reports whether payloads indexed against t can be copied verbatim.
func (w *writer) shares(t *strtab.Table) bool {
	return t == w.buf.Table() || (t != nil && t == w.seed)
}

// writeValue encodes v as a leaf payload. Per-field failures write an empty
// payload instead of failing the document.
func (w *writer) writeValue(v value.Value) error {
	scratch := buffer.New(w.buf.Table())
	err := value.Check(v)
	if err == nil {
		err = w.codec.Encode(scratch, v)
	}
	if err != nil {
		if !value.IsPerField(err) {
			return err
		}
		log.Error().Err(err).Str("kind", v.Kind().String()).Msg("document: leaf value skipped")
		w.buf.WriteBytes(nil)
		return nil
	}
	w.buf.WriteBytes(scratch.Bytes())
	return nil
}

func (w *writer) writeNode(n Node) error {
	w.buf.WriteString(n.Tag())
	return n.encode(w)
}

type reader struct {
	buf   *buffer.Buffer
	codec value.Codec
}

func (r *reader) readNode() (Node, error) {
	tag, err := r.buf.ReadString()
	if err != nil {
		return nil, err
	}
	factory, ok := factories[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q (%w)", ErrUnknownTag, tag, value.ErrUnknownType)
	}
	n := factory()
	if err := n.decode(r); err != nil {
		return nil, err
	}
	return n, nil
}

// Encode serializes root into a string-table header followed by the body.
func Encode(root Node, codec value.Codec) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root", ErrNodeType)
	}
	table := strtab.New()
	w := &writer{buf: buffer.New(table), codec: codec}
	if seed := dominantTable(root); seed != nil {
		if err := table.Seed(seed); err != nil {
			return nil, err
		}
		w.seed = seed
	}
	if err := w.writeNode(root); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table.PrependHeader(w.buf.Bytes()), nil
}

// dominantTable returns the string table shared by most decoded leaves
// under n, or nil when every leaf was built in memory.
func dominantTable(n Node) *strtab.Table {
	counts := make(map[*strtab.Table]int)
	var order []*strtab.Table
	walkLeaves(n, func(l *Leaf) {
		if l.set || len(l.raw) == 0 || l.table == nil {
			return
		}
		if counts[l.table] == 0 {
			order = append(order, l.table)
		}
		counts[l.table]++
	})
	var best *strtab.Table
	for _, t := range order {
		if best == nil || counts[t] > counts[best] {
			best = t
		}
	}
	return best
}

func walkLeaves(n Node, fn func(*Leaf)) {
	switch n := n.(type) {
	case *Leaf:
		fn(n)
	case *Map:
		for _, key := range n.keys {
			walkLeaves(n.items[key], fn)
		}
	case *List:
		for _, item := range n.items {
			walkLeaves(item, fn)
		}
	}
}

// Validate reports the first map key under n that cannot be written.
func Validate(n Node) error {
	switch n := n.(type) {
	case *Map:
		for _, key := range n.keys {
			if !utf8.ValidString(key) {
				return fmt.Errorf("%w: %q (%w)", ErrInvalidKey, key, value.ErrInvalidString)
			}
			if err := Validate(n.items[key]); err != nil {
				return fmt.Errorf("map key %q: %w", key, err)
			}
		}
	case *List:
		for i, item := range n.items {
			if err := Validate(item); err != nil {
				return fmt.Errorf("list element %d: %w", i, err)
			}
		}
	}
	return nil
}

// Decode parses a blob produced by Encode. The header is loaded before any
// body index is dereferenced.
func Decode(data []byte, codec value.Codec) (Node, error) {
	table := strtab.New()
	body, err := table.StripHeader(data)
	if err != nil {
		return nil, err
	}
	r := &reader{buf: buffer.FromBytes(body, table), codec: codec}
	return r.readNode()
}

// DecodeMap is Decode for blobs whose root must be a Map.
func DecodeMap(data []byte, codec value.Codec) (*Map, error) {
	n, err := Decode(data, codec)
	if err != nil {
		return nil, err
	}
	m, ok := n.(*Map)
	if !ok {
		return nil, fmt.Errorf("%w: root is %s", ErrNodeType, n.Tag())
	}
	return m, nil
}

package inspect

import (
	"encoding/hex"
	"fmt"

	"github.com/danmuck/scenesave/internal/document"
	"github.com/danmuck/scenesave/internal/engine"
	"github.com/danmuck/scenesave/internal/registry"
	"github.com/danmuck/scenesave/internal/wire/value"
	"github.com/google/uuid"
)

const previewBytes = 16

// Node is one rendered element of a save.
type Node struct {
	Key      string  `json:"key,omitempty" yaml:"key,omitempty"`
	Kind     string  `json:"kind"`
	Type     string  `json:"type,omitempty"`
	Value    string  `json:"value,omitempty"`
	Size     int     `json:"size,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

var knownLeaves = map[string]value.Type{
	engine.KeyFormat:   value.StringType,
	engine.KeyScene:    value.StringType,
	engine.KeyName:     value.StringType,
	engine.KeyType:     value.StringType,
	engine.KeyIdentity: value.UUIDType,
	engine.KeyTemplate: value.UUIDType,
}

// Codec returns a codec able to decode every leaf of a save without a
// template registry. reg may be nil.
func Codec(reg *registry.Registry) value.Codec {
	var catalog *value.Catalog
	if reg != nil {
		catalog = reg.Catalog()
	}
	return value.Codec{Catalog: catalog, Refs: idOnly{}}
}

// Decode parses blob and builds its tree.
func Decode(blob []byte, reg *registry.Registry) (*Node, error) {
	root, err := document.Decode(blob, Codec(reg))
	if err != nil {
		return nil, err
	}
	return Tree(root, reg), nil
}

// Tree converts a decoded document. Component field values are decoded when
// reg knows the component type.
func Tree(n document.Node, reg *registry.Registry) *Node {
	w := walker{reg: reg}
	return w.node("", n, nil)
}

type walker struct {
	reg *registry.Registry
}

// node renders n. owner is the descriptor of the component whose fields are
// being walked, if known.
func (w walker) node(key string, n document.Node, owner *registry.TypeDescriptor) *Node {
	switch v := n.(type) {
	case *document.Map:
		return w.mapNode(key, v, owner)
	case *document.List:
		out := &Node{Key: key, Kind: document.TagList, Size: v.Len()}
		for i, item := range v.Items() {
			out.Children = append(out.Children, w.node(fmt.Sprintf("[%d]", i), item, owner))
		}
		return out
	case *document.Leaf:
		return w.leaf(key, v, nil)
	default:
		return &Node{Key: key, Kind: n.Tag()}
	}
}

func (w walker) mapNode(key string, m *document.Map, owner *registry.TypeDescriptor) *Node {
	out := &Node{Key: key, Kind: document.TagMap, Size: m.Len()}
	if typeName, err := m.String(engine.KeyType); err == nil {
		owner = nil
		if desc, ok := w.reg.Lookup(typeName); ok {
			owner = desc
		}
	}
	var field *registry.FieldDescriptor
	if owner != nil && m.Has(engine.KeyValue) {
		if name, err := m.String(engine.KeyName); err == nil {
			if f, ok := owner.Field(name); ok {
				field = &f
			}
		}
	}
	for _, k := range m.Keys() {
		child, _ := m.Get(k)
		if leaf, ok := child.(*document.Leaf); ok {
			var want *value.Type
			if t, known := knownLeaves[k]; known {
				want = &t
			} else if k == engine.KeyValue && field != nil {
				want = &field.Type
			}
			out.Children = append(out.Children, w.leaf(k, leaf, want))
			continue
		}
		out.Children = append(out.Children, w.node(k, child, owner))
	}
	return out
}

func (w walker) leaf(key string, l *document.Leaf, want *value.Type) *Node {
	out := &Node{Key: key, Kind: document.TagLeaf, Size: l.Size()}
	if l.Empty() {
		out.Value = "<empty>"
		return out
	}
	if want != nil {
		if v, err := l.Value(*want); err == nil {
			out.Type = want.Name()
			if s, err := v.AsString(); err == nil {
				out.Value = s
			} else {
				out.Value = v.String()
			}
			return out
		}
	}
	raw := l.Raw()
	preview := raw
	if len(preview) > previewBytes {
		preview = preview[:previewBytes]
	}
	out.Value = hex.EncodeToString(preview)
	if len(raw) > previewBytes {
		out.Value += "..."
	}
	return out
}

// idOnly resolves references to their template id without a live registry.
type idOnly struct{}

func (idOnly) TemplateFor(target any) (uuid.UUID, error) {
	return uuid.Nil, fmt.Errorf("%w: inspection is read-only", value.ErrMissingRegistry)
}

func (idOnly) Template(id uuid.UUID) (any, error) {
	return nil, nil
}

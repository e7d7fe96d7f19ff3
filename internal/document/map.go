package document

import (
	"fmt"
	"unicode/utf8"

	"github.com/danmuck/scenesave/internal/wire/value"
	"github.com/google/uuid"
)

// Map is an insertion-ordered mapping with unique keys.
type Map struct {
	keys  []string
	items map[string]Node
}

func NewMap() *Map {
	return &Map{items: make(map[string]Node)}
}

// Set stores n under key. Replacing a key keeps its original position.
func (m *Map) Set(key string, n Node) *Map {
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = n
	return m
}

// SetValue stores v as a leaf.
func (m *Map) SetValue(key string, v value.Value) *Map {
	return m.Set(key, NewLeaf(v))
}

// Put converts x with value.AnyValue and stores it as a leaf.
func (m *Map) Put(key string, x any) error {
	v, err := value.AnyValue(x)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	m.SetValue(key, v)
	return nil
}

func (m *Map) Get(key string) (Node, bool) {
	n, ok := m.items[key]
	return n, ok
}

func (m *Map) Has(key string) bool {
	_, ok := m.items[key]
	return ok
}

func (m *Map) Delete(key string) {
	if _, ok := m.items[key]; !ok {
		return
	}
	delete(m.items, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *Map) Len() int { return len(m.keys) }

func (m *Map) Tag() string { return TagMap }

func (m *Map) Map(key string) (*Map, error) {
	n, err := m.node(key)
	if err != nil {
		return nil, err
	}
	child, ok := n.(*Map)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %s, want map", ErrNodeType, key, n.Tag())
	}
	return child, nil
}

func (m *Map) List(key string) (*List, error) {
	n, err := m.node(key)
	if err != nil {
		return nil, err
	}
	child, ok := n.(*List)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %s, want list", ErrNodeType, key, n.Tag())
	}
	return child, nil
}

func (m *Map) Leaf(key string) (*Leaf, error) {
	n, err := m.node(key)
	if err != nil {
		return nil, err
	}
	child, ok := n.(*Leaf)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %s, want leaf", ErrNodeType, key, n.Tag())
	}
	return child, nil
}

// Value decodes the leaf under key as t.
func (m *Map) Value(key string, t value.Type) (value.Value, error) {
	l, err := m.Leaf(key)
	if err != nil {
		return value.Value{}, err
	}
	v, err := l.Value(t)
	if err != nil {
		return value.Value{}, fmt.Errorf("%q: %w", key, err)
	}
	return v, nil
}

func (m *Map) node(key string) (Node, error) {
	n, ok := m.items[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return n, nil
}

func (m *Map) String(key string) (string, error) {
	v, err := m.Value(key, value.StringType)
	if err != nil {
		return "", err
	}
	return v.AsString()
}

func (m *Map) Int32(key string) (int32, error) {
	v, err := m.Value(key, value.Int32Type)
	if err != nil {
		return 0, err
	}
	return v.AsInt32()
}

func (m *Map) Int64(key string) (int64, error) {
	v, err := m.Value(key, value.Int64Type)
	if err != nil {
		return 0, err
	}
	return v.AsInt64()
}

func (m *Map) Float32(key string) (float32, error) {
	v, err := m.Value(key, value.Float32Type)
	if err != nil {
		return 0, err
	}
	return v.AsFloat32()
}

func (m *Map) Float64(key string) (float64, error) {
	v, err := m.Value(key, value.Float64Type)
	if err != nil {
		return 0, err
	}
	return v.AsFloat64()
}

func (m *Map) Bool(key string) (bool, error) {
	v, err := m.Value(key, value.BoolType)
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

func (m *Map) UUID(key string) (uuid.UUID, error) {
	v, err := m.Value(key, value.UUIDType)
	if err != nil {
		return uuid.Nil, err
	}
	return v.AsUUID()
}

func (m *Map) Vector2(key string) (value.Vector2, error) {
	v, err := m.Value(key, value.Vector2Type)
	if err != nil {
		return value.Vector2{}, err
	}
	return v.AsVector2()
}

func (m *Map) Vector3(key string) (value.Vector3, error) {
	v, err := m.Value(key, value.Vector3Type)
	if err != nil {
		return value.Vector3{}, err
	}
	return v.AsVector3()
}

func (m *Map) Vector4(key string) (value.Vector4, error) {
	v, err := m.Value(key, value.Vector4Type)
	if err != nil {
		return value.Vector4{}, err
	}
	return v.AsVector4()
}

func (m *Map) Quaternion(key string) (value.Quaternion, error) {
	v, err := m.Value(key, value.QuaternionType)
	if err != nil {
		return value.Quaternion{}, err
	}
	return v.AsQuaternion()
}

func (m *Map) Color(key string) (value.Color, error) {
	v, err := m.Value(key, value.ColorType)
	if err != nil {
		return value.Color{}, err
	}
	return v.AsColor()
}

// Payload: count, then per entry key (interned), value tag, value payload.
func (m *Map) encode(w *writer) error {
	w.buf.WriteInt32(int32(len(m.keys)))
	for _, key := range m.keys {
		if !utf8.ValidString(key) {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		w.buf.WriteString(key)
		if err := w.writeNode(m.items[key]); err != nil {
			return fmt.Errorf("map key %q: %w", key, err)
		}
	}
	return nil
}

func (m *Map) decode(r *reader) error {
	count, err := r.buf.ReadInt32()
	if err != nil {
		return err
	}
	for i := int32(0); i < count; i++ {
		key, err := r.buf.ReadString()
		if err != nil {
			return err
		}
		n, err := r.readNode()
		if err != nil {
			return fmt.Errorf("map key %q: %w", key, err)
		}
		m.Set(key, n)
	}
	return nil
}

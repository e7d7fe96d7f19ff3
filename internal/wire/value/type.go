package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Type describes the declared shape of a value. Decoding needs it because
// scalar payloads carry no tag of their own.
type Type struct {
	kind   Kind
	name   string
	elem   *Type
	key    *Type
	length int
	fields []StructField
}

// StructField is one declared member of a struct value type.
type StructField struct {
	Name string
	Type Type
}

var (
	BytesType      = Type{kind: KindBytes}
	Int32Type      = Type{kind: KindInt32}
	Int64Type      = Type{kind: KindInt64}
	Float32Type    = Type{kind: KindFloat32}
	Float64Type    = Type{kind: KindFloat64}
	BoolType       = Type{kind: KindBool}
	StringType     = Type{kind: KindString}
	Vector2Type    = Type{kind: KindVector2}
	Vector3Type    = Type{kind: KindVector3}
	Vector4Type    = Type{kind: KindVector4}
	QuaternionType = Type{kind: KindQuaternion}
	ColorType      = Type{kind: KindColor}
	TypeType       = Type{kind: KindType}
	UUIDType       = Type{kind: KindUUID}
	RefType        = Type{kind: KindRef}
)

var builtins = map[string]Type{}

func init() {
	for _, t := range []Type{
		BytesType, Int32Type, Int64Type, Float32Type, Float64Type, BoolType, StringType,
		Vector2Type, Vector3Type, Vector4Type, QuaternionType, ColorType, TypeType, UUIDType, RefType,
	} {
		builtins[t.Name()] = t
	}
}

func ListOf(elem Type) Type {
	return Type{kind: KindList, elem: &elem}
}

func ArrayOf(length int, elem Type) Type {
	return Type{kind: KindArray, elem: &elem, length: length}
}

func MapOf(key, val Type) Type {
	return Type{kind: KindMap, key: &key, elem: &val}
}

// EnumType declares a named enumeration stored as its int32 value.
func EnumType(name string) Type {
	return Type{kind: KindEnum, name: name}
}

// StructType declares a named value object encoded as its fields in order.
func StructType(name string, fields ...StructField) Type {
	return Type{kind: KindStruct, name: name, fields: fields}
}

func (t Type) Kind() Kind { return t.kind }

func (t Type) Valid() bool { return t.kind != KindInvalid }

// Elem returns the element type of a list or array, or the value type of a map.
func (t Type) Elem() Type {
	if t.elem == nil {
		return Type{}
	}
	return *t.elem
}

// Key returns the key type of a map.
func (t Type) Key() Type {
	if t.key == nil {
		return Type{}
	}
	return *t.key
}

func (t Type) Len() int { return t.length }

func (t Type) Fields() []StructField { return t.fields }

// Name is the canonical, stable name written as a type tag.
func (t Type) Name() string {
	switch t.kind {
	case KindList:
		return "[]" + t.Elem().Name()
	case KindArray:
		return "[" + strconv.Itoa(t.length) + "]" + t.Elem().Name()
	case KindMap:
		return "map[" + t.Key().Name() + "]" + t.Elem().Name()
	case KindEnum, KindStruct:
		return t.name
	default:
		return t.kind.String()
	}
}

func (t Type) String() string { return t.Name() }

// Catalog resolves type tags back to declared types. It is populated during
// startup and read-only afterwards.
type Catalog struct {
	named map[string]Type
	order []string
}

func NewCatalog() *Catalog {
	return &Catalog{named: make(map[string]Type)}
}

// Register adds a named enum or struct type.
func (c *Catalog) Register(t Type) error {
	if t.kind != KindEnum && t.kind != KindStruct {
		return fmt.Errorf("%w: only enum and struct types are registered, got %s", ErrInvalidType, t.kind)
	}
	name := strings.TrimSpace(t.name)
	if name == "" || strings.ContainsAny(name, "[] ") {
		return fmt.Errorf("%w: bad name %q", ErrInvalidType, t.name)
	}
	if _, ok := builtins[name]; ok {
		return fmt.Errorf("%w: %q shadows a builtin", ErrDuplicateType, name)
	}
	if _, ok := c.named[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateType, name)
	}
	c.named[name] = t
	c.order = append(c.order, name)
	return nil
}

// Names returns registered enum and struct names in registration order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Resolve parses a canonical type name. A nil catalog resolves builtins and
// composites of builtins only.
func (c *Catalog) Resolve(name string) (Type, error) {
	if t, ok := builtins[name]; ok {
		return t, nil
	}
	switch {
	case strings.HasPrefix(name, "[]"):
		elem, err := c.Resolve(name[2:])
		if err != nil {
			return Type{}, err
		}
		return ListOf(elem), nil
	case strings.HasPrefix(name, "map["):
		end := matchBracket(name, 3)
		if end < 0 {
			return Type{}, fmt.Errorf("%w: %q", ErrUnknownType, name)
		}
		key, err := c.Resolve(name[4:end])
		if err != nil {
			return Type{}, err
		}
		val, err := c.Resolve(name[end+1:])
		if err != nil {
			return Type{}, err
		}
		return MapOf(key, val), nil
	case strings.HasPrefix(name, "["):
		end := strings.IndexByte(name, ']')
		if end < 0 {
			return Type{}, fmt.Errorf("%w: %q", ErrUnknownType, name)
		}
		n, err := strconv.Atoi(name[1:end])
		if err != nil || n < 0 {
			return Type{}, fmt.Errorf("%w: bad array length in %q", ErrUnknownType, name)
		}
		elem, err := c.Resolve(name[end+1:])
		if err != nil {
			return Type{}, err
		}
		return ArrayOf(n, elem), nil
	}
	if c != nil {
		if t, ok := c.named[name]; ok {
			return t, nil
		}
	}
	return Type{}, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// matchBracket returns the index of the ']' closing the '[' at open.
func matchBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

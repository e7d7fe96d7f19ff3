package value

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Value is a tagged variant over every category the codec can persist.
// The zero Value is invalid and fails to encode.
type Value struct {
	kind  Kind
	num   int64
	flt   float64
	vec   [4]float32
	str   string
	raw   []byte
	id    uuid.UUID
	ref   any
	typ   Type
	items []Value
	pairs []Pair
}

// Pair is one entry of a map value.
type Pair struct {
	Key   Value
	Value Value
}

func BytesValue(p []byte) Value {
	cp := make([]byte, len(p))
	copy(cp, p)
	return Value{kind: KindBytes, raw: cp}
}

func Int32Value(v int32) Value { return Value{kind: KindInt32, num: int64(v)} }

func Int64Value(v int64) Value { return Value{kind: KindInt64, num: v} }

func Float32Value(v float32) Value { return Value{kind: KindFloat32, flt: float64(v)} }

func Float64Value(v float64) Value { return Value{kind: KindFloat64, flt: v} }

func BoolValue(v bool) Value {
	if v {
		return Value{kind: KindBool, num: 1}
	}
	return Value{kind: KindBool}
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }

func Vector2Value(v Vector2) Value {
	return Value{kind: KindVector2, vec: [4]float32{v.X, v.Y}}
}

func Vector3Value(v Vector3) Value {
	return Value{kind: KindVector3, vec: [4]float32{v.X, v.Y, v.Z}}
}

func Vector4Value(v Vector4) Value {
	return Value{kind: KindVector4, vec: [4]float32{v.X, v.Y, v.Z, v.W}}
}

func QuaternionValue(q Quaternion) Value {
	return Value{kind: KindQuaternion, vec: [4]float32{q.X, q.Y, q.Z, q.W}}
}

func ColorValue(c Color) Value {
	return Value{kind: KindColor, vec: [4]float32{c.R, c.G, c.B, c.A}}
}

// TypeValue references a type by canonical name.
func TypeValue(t Type) Value { return Value{kind: KindType, str: t.Name()} }

func UUIDValue(id uuid.UUID) Value { return Value{kind: KindUUID, id: id} }

// RefValue references a live tracked entity (or anything the RefResolver understands).
func RefValue(target any) Value { return Value{kind: KindRef, ref: target} }

// resolvedRef is a reference as it comes off the wire: the template id and,
// when resolvable, the template itself.
func resolvedRef(id uuid.UUID, target any) Value {
	return Value{kind: KindRef, id: id, ref: target}
}

func ListValue(elem Type, items ...Value) Value {
	return Value{kind: KindList, typ: ListOf(elem), items: items}
}

func ArrayValue(elem Type, items ...Value) Value {
	return Value{kind: KindArray, typ: ArrayOf(len(items), elem), items: items}
}

func MapValue(key, val Type, pairs ...Pair) Value {
	return Value{kind: KindMap, typ: MapOf(key, val), pairs: pairs}
}

func EnumValue(t Type, v int32) Value {
	return Value{kind: KindEnum, typ: t, num: int64(v)}
}

// StructValue builds a value object of type t with field values in declared order.
func StructValue(t Type, fields ...Value) Value {
	return Value{kind: KindStruct, typ: t, items: fields}
}

// AnyValue converts common Go values. Anything outside the closed set fails
// with ErrUnsupportedValueCategory.
func AnyValue(x any) (Value, error) {
	switch v := x.(type) {
	case Value:
		return v, nil
	case []byte:
		return BytesValue(v), nil
	case int32:
		return Int32Value(v), nil
	case int:
		return Int64Value(int64(v)), nil
	case int64:
		return Int64Value(v), nil
	case float32:
		return Float32Value(v), nil
	case float64:
		return Float64Value(v), nil
	case bool:
		return BoolValue(v), nil
	case string:
		return StringValue(v), nil
	case Vector2:
		return Vector2Value(v), nil
	case Vector3:
		return Vector3Value(v), nil
	case Vector4:
		return Vector4Value(v), nil
	case Quaternion:
		return QuaternionValue(v), nil
	case Color:
		return ColorValue(v), nil
	case Type:
		return TypeValue(v), nil
	case uuid.UUID:
		return UUIDValue(v), nil
	case []string:
		items := make([]Value, len(v))
		for i, s := range v {
			items[i] = StringValue(s)
		}
		return ListValue(StringType, items...), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValueCategory, x)
	}
}

func (v Value) Kind() Kind { return v.kind }

// Type returns the declared type of v.
func (v Value) Type() Type {
	switch v.kind {
	case KindList, KindMap, KindArray, KindEnum, KindStruct:
		return v.typ
	default:
		return Type{kind: v.kind}
	}
}

func (v Value) expect(k Kind) error {
	if v.kind != k {
		return fmt.Errorf("%w: have %s, want %s", ErrKindMismatch, v.kind, k)
	}
	return nil
}

func (v Value) AsBytes() ([]byte, error) {
	if err := v.expect(KindBytes); err != nil {
		return nil, err
	}
	cp := make([]byte, len(v.raw))
	copy(cp, v.raw)
	return cp, nil
}

func (v Value) AsInt32() (int32, error) {
	return int32(v.num), v.expect(KindInt32)
}

func (v Value) AsInt64() (int64, error) {
	return v.num, v.expect(KindInt64)
}

func (v Value) AsFloat32() (float32, error) {
	return float32(v.flt), v.expect(KindFloat32)
}

func (v Value) AsFloat64() (float64, error) {
	return v.flt, v.expect(KindFloat64)
}

func (v Value) AsBool() (bool, error) {
	return v.num != 0, v.expect(KindBool)
}

func (v Value) AsString() (string, error) {
	return v.str, v.expect(KindString)
}

func (v Value) AsVector2() (Vector2, error) {
	return Vector2{v.vec[0], v.vec[1]}, v.expect(KindVector2)
}

func (v Value) AsVector3() (Vector3, error) {
	return Vector3{v.vec[0], v.vec[1], v.vec[2]}, v.expect(KindVector3)
}

func (v Value) AsVector4() (Vector4, error) {
	return Vector4{v.vec[0], v.vec[1], v.vec[2], v.vec[3]}, v.expect(KindVector4)
}

func (v Value) AsQuaternion() (Quaternion, error) {
	return Quaternion{v.vec[0], v.vec[1], v.vec[2], v.vec[3]}, v.expect(KindQuaternion)
}

func (v Value) AsColor() (Color, error) {
	return Color{v.vec[0], v.vec[1], v.vec[2], v.vec[3]}, v.expect(KindColor)
}

// AsTypeName returns the canonical name of a type reference.
func (v Value) AsTypeName() (string, error) {
	return v.str, v.expect(KindType)
}

func (v Value) AsUUID() (uuid.UUID, error) {
	return v.id, v.expect(KindUUID)
}

// AsRef returns the referenced target and, for decoded references, the
// template id it was resolved from.
func (v Value) AsRef() (any, uuid.UUID, error) {
	return v.ref, v.id, v.expect(KindRef)
}

func (v Value) AsEnum() (int32, error) {
	return int32(v.num), v.expect(KindEnum)
}

// Items returns list or array elements, or struct field values.
func (v Value) Items() []Value { return v.items }

func (v Value) Pairs() []Pair { return v.pairs }

// Check validates v without encoding it. Cross-references are not resolved.
func Check(v Value) error {
	switch v.kind {
	case KindInvalid:
		return fmt.Errorf("%w: invalid value", ErrUnsupportedValueCategory)
	case KindList, KindArray:
		want := v.typ.Elem()
		for i, item := range v.items {
			if err := checkElem(item, want); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
	case KindMap:
		for i, p := range v.pairs {
			if err := checkElem(p.Key, v.typ.Key()); err != nil {
				return fmt.Errorf("key %d: %w", i, err)
			}
			if err := checkElem(p.Value, v.typ.Elem()); err != nil {
				return fmt.Errorf("value %d: %w", i, err)
			}
		}
		seen := make(map[string]struct{}, len(v.pairs))
		for _, p := range v.pairs {
			k := p.Key.String()
			if _, dup := seen[k]; dup {
				return fmt.Errorf("%w: duplicate map key %s", ErrUnsupportedValueCategory, k)
			}
			seen[k] = struct{}{}
		}
	case KindStruct:
		if v.typ.name == "" {
			return fmt.Errorf("%w: unnamed struct", ErrUnsupportedValueCategory)
		}
		if decl := v.typ.fields; len(decl) > 0 && len(decl) != len(v.items) {
			return fmt.Errorf("%w: struct %s has %d fields, value has %d", ErrKindMismatch, v.typ.name, len(decl), len(v.items))
		}
		decl := v.typ.fields
		for i, item := range v.items {
			var err error
			if len(decl) > 0 {
				err = checkElem(item, decl[i].Type)
			} else {
				err = Check(item)
			}
			if err != nil {
				return fmt.Errorf("field %d: %w", i, err)
			}
		}
	case KindString:
		if !utf8.ValidString(v.str) {
			return fmt.Errorf("%w: %q", ErrInvalidString, v.str)
		}
	case KindEnum:
		if v.typ.name == "" {
			return fmt.Errorf("%w: unnamed enum", ErrUnsupportedValueCategory)
		}
	}
	return nil
}

func checkElem(item Value, want Type) error {
	if item.kind != want.kind {
		return fmt.Errorf("%w: have %s, want %s", ErrKindMismatch, item.kind, want.kind)
	}
	if (want.kind == KindStruct || want.kind == KindEnum) && item.typ.name != want.name {
		return fmt.Errorf("%w: have %s, want %s", ErrKindMismatch, item.typ.name, want.name)
	}
	return Check(item)
}

// Equal reports deep equality. References compare by template id when both
// sides carry one, otherwise by target identity.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInvalid:
		return true
	case KindBytes:
		return bytes.Equal(a.raw, b.raw)
	case KindInt32, KindInt64, KindBool:
		return a.num == b.num
	case KindFloat32, KindFloat64:
		return a.flt == b.flt
	case KindVector2, KindVector3, KindVector4, KindQuaternion, KindColor:
		return a.vec == b.vec
	case KindString, KindType:
		return a.str == b.str
	case KindUUID:
		return a.id == b.id
	case KindRef:
		if a.id != uuid.Nil && b.id != uuid.Nil {
			return a.id == b.id
		}
		return a.ref == b.ref
	case KindEnum:
		return a.typ.name == b.typ.name && a.num == b.num
	case KindList, KindArray, KindStruct:
		if a.typ.Name() != b.typ.Name() || len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if a.typ.Name() != b.typ.Name() || len(a.pairs) != len(b.pairs) {
			return false
		}
		for i := range a.pairs {
			if !Equal(a.pairs[i].Key, b.pairs[i].Key) || !Equal(a.pairs[i].Value, b.pairs[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v for logs and inspection output.
func (v Value) String() string {
	switch v.kind {
	case KindBytes:
		return fmt.Sprintf("bytes(%d)", len(v.raw))
	case KindInt32, KindInt64:
		return fmt.Sprintf("%d", v.num)
	case KindFloat32:
		return fmt.Sprintf("%g", float32(v.flt))
	case KindFloat64:
		return fmt.Sprintf("%g", v.flt)
	case KindBool:
		return fmt.Sprintf("%t", v.num != 0)
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindVector2, KindVector3, KindVector4, KindQuaternion, KindColor:
		parts := make([]string, v.kind.floats())
		for i := range parts {
			parts[i] = fmt.Sprintf("%g", v.vec[i])
		}
		return v.kind.String() + "(" + strings.Join(parts, ", ") + ")"
	case KindType:
		return "type(" + v.str + ")"
	case KindUUID:
		return v.id.String()
	case KindRef:
		if v.id != uuid.Nil {
			return "ref(" + v.id.String() + ")"
		}
		return fmt.Sprintf("ref(%v)", v.ref)
	case KindEnum:
		return fmt.Sprintf("%s(%d)", v.typ.name, v.num)
	case KindList, KindArray, KindStruct:
		parts := make([]string, len(v.items))
		for i, item := range v.items {
			parts[i] = item.String()
		}
		prefix := v.typ.Name()
		return prefix + "{" + strings.Join(parts, ", ") + "}"
	case KindMap:
		parts := make([]string, len(v.pairs))
		for i, p := range v.pairs {
			parts[i] = p.Key.String() + ": " + p.Value.String()
		}
		return v.typ.Name() + "{" + strings.Join(parts, ", ") + "}"
	}
	return "<invalid>"
}

// Interface converts v to plain Go data for generic renderers.
func (v Value) Interface() any {
	switch v.kind {
	case KindBytes:
		return v.raw
	case KindInt32:
		return int32(v.num)
	case KindInt64:
		return v.num
	case KindFloat32:
		return float32(v.flt)
	case KindFloat64:
		return v.flt
	case KindBool:
		return v.num != 0
	case KindString:
		return v.str
	case KindVector2, KindVector3, KindVector4, KindQuaternion, KindColor:
		out := make([]float32, v.kind.floats())
		copy(out, v.vec[:])
		return out
	case KindType, KindUUID, KindRef, KindEnum:
		return v.String()
	case KindList, KindArray, KindStruct:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.pairs))
		for _, p := range v.pairs {
			out[p.Key.String()] = p.Value.Interface()
		}
		return out
	}
	return nil
}

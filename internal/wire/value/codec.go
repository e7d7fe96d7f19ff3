package value

import (
	"fmt"
	"unicode/utf8"

	"github.com/danmuck/scenesave/internal/wire/buffer"
	"github.com/google/uuid"
)

// RefResolver maps live cross-reference targets to template ids and back.
type RefResolver interface {
	// TemplateFor returns the template id of the tracked owner of target.
	TemplateFor(target any) (uuid.UUID, error)
	// Template returns the registered template for id.
	Template(id uuid.UUID) (any, error)
}

// Codec encodes and decodes values against a type catalog. Catalog may be nil
// (builtins only); Refs may be nil until a reference is actually encountered.
type Codec struct {
	Catalog *Catalog
	Refs    RefResolver
}

// Encode appends the encoding of v to b. On error b may hold a partial write,
// so callers encode into a scratch buffer when they need to recover.
func (c Codec) Encode(b *buffer.Buffer, v Value) error {
	switch v.kind {
	case KindBytes:
		b.WriteBytes(v.raw)
	case KindInt32, KindEnum:
		b.WriteInt32(int32(v.num))
	case KindInt64:
		b.WriteInt64(v.num)
	case KindFloat32:
		b.WriteFloat32(float32(v.flt))
	case KindFloat64:
		b.WriteFloat64(v.flt)
	case KindBool:
		b.WriteBool(v.num != 0)
	case KindString, KindType:
		if !utf8.ValidString(v.str) {
			return fmt.Errorf("%w: %q", ErrInvalidString, v.str)
		}
		b.WriteString(v.str)
	case KindVector2, KindVector3, KindVector4, KindQuaternion, KindColor:
		b.WriteFloats(v.vec[:v.kind.floats()]...)
	case KindUUID:
		b.WriteBytes(v.id[:])
	case KindRef:
		id, err := c.refID(v)
		if err != nil {
			return err
		}
		b.WriteBytes(id[:])
	case KindList, KindArray:
		elem := v.typ.Elem()
		b.WriteString(elem.Name())
		b.WriteInt32(int32(len(v.items)))
		for i, item := range v.items {
			if err := checkElem(item, elem); err != nil {
				return fmt.Errorf("%s element %d: %w", v.kind, i, err)
			}
			if err := c.Encode(b, item); err != nil {
				return err
			}
		}
	case KindMap:
		b.WriteString(v.typ.Key().Name())
		b.WriteString(v.typ.Elem().Name())
		b.WriteInt32(int32(len(v.pairs)))
		for _, p := range v.pairs {
			if err := c.Encode(b, p.Key); err != nil {
				return err
			}
			if err := c.Encode(b, p.Value); err != nil {
				return err
			}
		}
	case KindStruct:
		if v.typ.name == "" {
			return fmt.Errorf("%w: unnamed struct", ErrUnsupportedValueCategory)
		}
		decl := v.typ.fields
		if len(decl) > 0 && len(decl) != len(v.items) {
			return fmt.Errorf("%w: struct %s has %d fields, value has %d", ErrKindMismatch, v.typ.name, len(decl), len(v.items))
		}
		b.WriteString(v.typ.name)
		for i, item := range v.items {
			if len(decl) > 0 {
				if err := checkElem(item, decl[i].Type); err != nil {
					return fmt.Errorf("%s.%s: %w", v.typ.name, decl[i].Name, err)
				}
			}
			if err := c.Encode(b, item); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedValueCategory, v.kind)
	}
	return nil
}

func (c Codec) refID(v Value) (uuid.UUID, error) {
	if v.ref == nil && v.id != uuid.Nil {
		return v.id, nil
	}
	if c.Refs == nil {
		return uuid.Nil, ErrMissingRegistry
	}
	if v.ref == nil {
		return uuid.Nil, fmt.Errorf("%w: nil reference", ErrEntityNotTrackable)
	}
	return c.Refs.TemplateFor(v.ref)
}

// Decode reads one value of declared type t from b.
func (c Codec) Decode(b *buffer.Buffer, t Type) (Value, error) {
	switch t.kind {
	case KindBytes:
		p, err := b.ReadBytes()
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindBytes, raw: p}, nil
	case KindInt32:
		n, err := b.ReadInt32()
		return Int32Value(n), err
	case KindInt64:
		n, err := b.ReadInt64()
		return Int64Value(n), err
	case KindFloat32:
		f, err := b.ReadFloat32()
		return Float32Value(f), err
	case KindFloat64:
		f, err := b.ReadFloat64()
		return Float64Value(f), err
	case KindBool:
		ok, err := b.ReadBool()
		return BoolValue(ok), err
	case KindString:
		s, err := b.ReadString()
		return StringValue(s), err
	case KindVector2, KindVector3, KindVector4, KindQuaternion, KindColor:
		fs, err := b.ReadFloats(t.kind.floats())
		if err != nil {
			return Value{}, err
		}
		v := Value{kind: t.kind}
		copy(v.vec[:], fs)
		return v, nil
	case KindType:
		name, err := b.ReadString()
		if err != nil {
			return Value{}, err
		}
		resolved, err := c.Catalog.Resolve(name)
		if err != nil {
			return Value{}, err
		}
		return TypeValue(resolved), nil
	case KindUUID:
		id, err := readUUID(b)
		return UUIDValue(id), err
	case KindRef:
		id, err := readUUID(b)
		if err != nil {
			return Value{}, err
		}
		if c.Refs == nil {
			return Value{}, ErrMissingRegistry
		}
		target, err := c.Refs.Template(id)
		if err != nil {
			return resolvedRef(id, nil), err
		}
		return resolvedRef(id, target), nil
	case KindList, KindArray:
		elem, count, err := c.readHeader(b)
		if err != nil {
			return Value{}, err
		}
		if t.kind == KindArray && count != t.Len() {
			return Value{}, fmt.Errorf("%w: array of %d, want %d", ErrKindMismatch, count, t.Len())
		}
		items := make([]Value, 0, min(count, b.Remaining()))
		for i := 0; i < count; i++ {
			item, err := c.Decode(b, elem)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		if t.kind == KindArray {
			return ArrayValue(elem, items...), nil
		}
		return ListValue(elem, items...), nil
	case KindMap:
		key, err := c.readTag(b)
		if err != nil {
			return Value{}, err
		}
		val, count, err := c.readHeader(b)
		if err != nil {
			return Value{}, err
		}
		pairs := make([]Pair, 0, min(count, b.Remaining()))
		for i := 0; i < count; i++ {
			k, err := c.Decode(b, key)
			if err != nil {
				return Value{}, err
			}
			v, err := c.Decode(b, val)
			if err != nil {
				return Value{}, err
			}
			pairs = append(pairs, Pair{Key: k, Value: v})
		}
		return MapValue(key, val, pairs...), nil
	case KindEnum:
		n, err := b.ReadInt32()
		return EnumValue(t, n), err
	case KindStruct:
		decl, err := c.readTag(b)
		if err != nil {
			return Value{}, err
		}
		if decl.kind != KindStruct {
			return Value{}, fmt.Errorf("%w: tag %s is not a struct", ErrKindMismatch, decl.Name())
		}
		fields := make([]Value, len(decl.fields))
		for i, f := range decl.fields {
			fv, err := c.Decode(b, f.Type)
			if err != nil {
				return Value{}, fmt.Errorf("%s.%s: %w", decl.name, f.Name, err)
			}
			fields[i] = fv
		}
		return StructValue(decl, fields...), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedValueCategory, t.kind)
	}
}

func (c Codec) readTag(b *buffer.Buffer) (Type, error) {
	name, err := b.ReadString()
	if err != nil {
		return Type{}, err
	}
	return c.Catalog.Resolve(name)
}

func (c Codec) readHeader(b *buffer.Buffer) (Type, int, error) {
	elem, err := c.readTag(b)
	if err != nil {
		return Type{}, 0, err
	}
	n, err := b.ReadInt32()
	if err != nil {
		return Type{}, 0, err
	}
	if n < 0 {
		return Type{}, 0, fmt.Errorf("%w: negative count %d", buffer.ErrBufferUnderrun, n)
	}
	return elem, int(n), nil
}

func readUUID(b *buffer.Buffer) (uuid.UUID, error) {
	p, err := b.ReadBytes()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(p)
}

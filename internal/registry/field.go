package registry

import (
	"fmt"

	"github.com/danmuck/scenesave/internal/wire/value"
	"github.com/google/uuid"
)

// FieldDescriptor is one persistable field: its name, declared type, and
// accessors bound to the owning type.
type FieldDescriptor struct {
	Name string
	Type value.Type
	get  func(owner any) (value.Value, error)
	set  func(owner any, v value.Value) error
}

// Get reads the field from owner.
func (f FieldDescriptor) Get(owner any) (value.Value, error) {
	return f.get(owner)
}

// Set assigns v to the field on owner.
func (f FieldDescriptor) Set(owner any, v value.Value) error {
	return f.set(owner, v)
}

// CustomField binds a field of Go type T through explicit conversions.
func CustomField[O, T any](name string, t value.Type, ptr func(O) *T, to func(T) value.Value, from func(value.Value) (T, error)) FieldDescriptor {
	owned := func(owner any) (O, error) {
		o, ok := owner.(O)
		if !ok {
			return o, fmt.Errorf("%w: field %s got %T", ErrOwnerMismatch, name, owner)
		}
		return o, nil
	}
	return FieldDescriptor{
		Name: name,
		Type: t,
		get: func(owner any) (value.Value, error) {
			o, err := owned(owner)
			if err != nil {
				return value.Value{}, err
			}
			return to(*ptr(o)), nil
		},
		set: func(owner any, v value.Value) error {
			o, err := owned(owner)
			if err != nil {
				return err
			}
			x, err := from(v)
			if err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
			*ptr(o) = x
			return nil
		},
	}
}

func Int32Field[O any](name string, ptr func(O) *int32) FieldDescriptor {
	return CustomField(name, value.Int32Type, ptr, value.Int32Value, value.Value.AsInt32)
}

func Int64Field[O any](name string, ptr func(O) *int64) FieldDescriptor {
	return CustomField(name, value.Int64Type, ptr, value.Int64Value, value.Value.AsInt64)
}

func Float32Field[O any](name string, ptr func(O) *float32) FieldDescriptor {
	return CustomField(name, value.Float32Type, ptr, value.Float32Value, value.Value.AsFloat32)
}

func Float64Field[O any](name string, ptr func(O) *float64) FieldDescriptor {
	return CustomField(name, value.Float64Type, ptr, value.Float64Value, value.Value.AsFloat64)
}

func BoolField[O any](name string, ptr func(O) *bool) FieldDescriptor {
	return CustomField(name, value.BoolType, ptr, value.BoolValue, value.Value.AsBool)
}

func StringField[O any](name string, ptr func(O) *string) FieldDescriptor {
	return CustomField(name, value.StringType, ptr, value.StringValue, value.Value.AsString)
}

func BytesField[O any](name string, ptr func(O) *[]byte) FieldDescriptor {
	return CustomField(name, value.BytesType, ptr, value.BytesValue, value.Value.AsBytes)
}

func Vector2Field[O any](name string, ptr func(O) *value.Vector2) FieldDescriptor {
	return CustomField(name, value.Vector2Type, ptr, value.Vector2Value, value.Value.AsVector2)
}

func Vector3Field[O any](name string, ptr func(O) *value.Vector3) FieldDescriptor {
	return CustomField(name, value.Vector3Type, ptr, value.Vector3Value, value.Value.AsVector3)
}

func Vector4Field[O any](name string, ptr func(O) *value.Vector4) FieldDescriptor {
	return CustomField(name, value.Vector4Type, ptr, value.Vector4Value, value.Value.AsVector4)
}

func QuaternionField[O any](name string, ptr func(O) *value.Quaternion) FieldDescriptor {
	return CustomField(name, value.QuaternionType, ptr, value.QuaternionValue, value.Value.AsQuaternion)
}

func ColorField[O any](name string, ptr func(O) *value.Color) FieldDescriptor {
	return CustomField(name, value.ColorType, ptr, value.ColorValue, value.Value.AsColor)
}

func UUIDField[O any](name string, ptr func(O) *uuid.UUID) FieldDescriptor {
	return CustomField(name, value.UUIDType, ptr, value.UUIDValue, value.Value.AsUUID)
}

// EnumField stores E as its underlying integer under the enum type t.
func EnumField[O any, E ~int32](name string, t value.Type, ptr func(O) *E) FieldDescriptor {
	return CustomField(name, t, ptr,
		func(e E) value.Value { return value.EnumValue(t, int32(e)) },
		func(v value.Value) (E, error) {
			n, err := v.AsEnum()
			return E(n), err
		})
}

// RefField stores a cross-reference to a template-backed target of type R.
// On load the target is the registered template.
func RefField[O, R any](name string, ptr func(O) *R) FieldDescriptor {
	return CustomField(name, value.RefType, ptr,
		func(r R) value.Value { return value.RefValue(r) },
		func(v value.Value) (R, error) {
			var zero R
			target, _, err := v.AsRef()
			if err != nil {
				return zero, err
			}
			r, ok := target.(R)
			if !ok {
				return zero, fmt.Errorf("%w: reference target %T", value.ErrKindMismatch, target)
			}
			return r, nil
		})
}

// ValueField stores an arbitrary value of declared type t, typically a
// collection or value object.
func ValueField[O any](name string, t value.Type, ptr func(O) *value.Value) FieldDescriptor {
	return CustomField(name, t, ptr,
		func(v value.Value) value.Value { return v },
		func(v value.Value) (value.Value, error) {
			if v.Kind() != t.Kind() {
				return value.Value{}, fmt.Errorf("%w: have %s, want %s", value.ErrKindMismatch, v.Kind(), t.Kind())
			}
			return v, nil
		})
}

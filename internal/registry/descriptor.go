package registry

import (
	"fmt"

	"github.com/danmuck/scenesave/internal/document"
)

// Category partitions cached types.
type Category int

const (
	// Instance types are attached to entities as components.
	Instance Category = iota
	// Static types have a single process-wide owner.
	Static
)

func (c Category) String() string {
	if c == Static {
		return "static"
	}
	return "instance"
}

// SaveHook fills m with custom state for owner.
type SaveHook func(owner any, m *document.Map) error

// LoadHook restores custom state for owner from m.
type LoadHook func(owner any, m *document.Map) error

// TypeDescriptor is the cached persistence surface of one type. Descriptors
// returned by a Registry must not be modified.
type TypeDescriptor struct {
	Name     string
	Category Category
	Fields   []FieldDescriptor
	Save     SaveHook
	Load     LoadHook
	// Owner is the singleton for Static types, nil otherwise.
	Owner any
}

// Field returns the field named name.
func (d *TypeDescriptor) Field(name string) (FieldDescriptor, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// Cacheable reports whether the type has anything to persist.
func (d *TypeDescriptor) Cacheable() bool {
	return len(d.Fields) > 0 || d.Save != nil || d.Load != nil
}

func (d *TypeDescriptor) clone() *TypeDescriptor {
	out := *d
	out.Fields = append([]FieldDescriptor(nil), d.Fields...)
	return &out
}

// Option configures a type during Register.
type Option func(d *TypeDescriptor) error

// Fields appends persistable fields in declared order.
func Fields(fields ...FieldDescriptor) Option {
	return func(d *TypeDescriptor) error {
		for _, f := range fields {
			if f.Name == "" || f.get == nil || f.set == nil {
				return fmt.Errorf("%w: incomplete field %q on %s", ErrInvalidName, f.Name, d.Name)
			}
			if _, dup := d.Field(f.Name); dup {
				return fmt.Errorf("%w: duplicate field %q on %s", ErrInvalidName, f.Name, d.Name)
			}
			d.Fields = append(d.Fields, f)
		}
		return nil
	}
}

// Singleton marks the type Static with owner as its only instance.
func Singleton(owner any) Option {
	return func(d *TypeDescriptor) error {
		if owner == nil {
			return fmt.Errorf("%w: nil singleton for %s", ErrOwnerMismatch, d.Name)
		}
		d.Category = Static
		d.Owner = owner
		return nil
	}
}

// OnSave installs the save hook. A second hook is rejected.
func OnSave[O any](fn func(owner O, m *document.Map) error) Option {
	return func(d *TypeDescriptor) error {
		if d.Save != nil {
			return fmt.Errorf("%w: save hook on %s", ErrDuplicateHook, d.Name)
		}
		name := d.Name
		d.Save = func(owner any, m *document.Map) error {
			o, ok := owner.(O)
			if !ok {
				return fmt.Errorf("%w: save hook of %s got %T", ErrOwnerMismatch, name, owner)
			}
			return fn(o, m)
		}
		return nil
	}
}

// OnLoad installs the load hook. A second hook is rejected.
func OnLoad[O any](fn func(owner O, m *document.Map) error) Option {
	return func(d *TypeDescriptor) error {
		if d.Load != nil {
			return fmt.Errorf("%w: load hook on %s", ErrDuplicateHook, d.Name)
		}
		name := d.Name
		d.Load = func(owner any, m *document.Map) error {
			o, ok := owner.(O)
			if !ok {
				return fmt.Errorf("%w: load hook of %s got %T", ErrOwnerMismatch, name, owner)
			}
			return fn(o, m)
		}
		return nil
	}
}

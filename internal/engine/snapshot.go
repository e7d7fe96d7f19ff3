package engine

import (
	"fmt"

	"github.com/blang/semver/v4"
	"github.com/danmuck/scenesave/internal/document"
	"github.com/danmuck/scenesave/internal/wire/value"
	"github.com/google/uuid"
)

// FormatVersion is written under the Format key of every save. Loads accept
// any version with the same major number.
const FormatVersion = "1.0.0"

var formatVersion = semver.MustParse(FormatVersion)

// Top-level and record keys.
const (
	KeyFormat     = "Format"
	KeyScene      = "Scene"
	KeyContext    = "Context"
	KeyStatic     = "Static"
	KeyEntities   = "Entities"
	KeyRoots      = "Roots"
	KeyType       = "Type"
	KeyFields     = "Fields"
	KeyHook       = "Hook"
	KeyName       = "Name"
	KeyValue      = "Value"
	KeyIdentity   = "Identity"
	KeyTemplate   = "Template"
	KeyComponents = "Components"
	KeyChildren   = "Children"
)

// Document renders s as the top-level save map.
func (s *Snapshot) Document() *document.Map {
	root := document.NewMap()
	root.SetValue(KeyFormat, value.StringValue(FormatVersion))
	root.SetValue(KeyScene, value.StringValue(s.Scene))
	ctx := s.Context
	if ctx == nil {
		ctx = document.NewMap()
	}
	root.Set(KeyContext, ctx)

	statics := document.NewList()
	for _, c := range s.Statics {
		statics.Append(componentNode(c))
	}
	root.Set(KeyStatic, statics)
	root.Set(KeyEntities, entityList(s.Entities))
	root.Set(KeyRoots, entityList(s.Roots))
	return root
}

func entityList(recs []EntityRecord) *document.List {
	l := document.NewList()
	for _, r := range recs {
		l.Append(entityNode(r))
	}
	return l
}

func entityNode(r EntityRecord) *document.Map {
	m := document.NewMap()
	if r.Tracked {
		m.SetValue(KeyIdentity, value.UUIDValue(r.Identity))
	}
	if r.Template != uuid.Nil {
		m.SetValue(KeyTemplate, value.UUIDValue(r.Template))
	}
	m.SetValue(KeyName, value.StringValue(r.Name))
	comps := document.NewList()
	for _, c := range r.Components {
		comps.Append(componentNode(c))
	}
	m.Set(KeyComponents, comps)
	m.Set(KeyChildren, entityList(r.Children))
	return m
}

func componentNode(c ComponentSnapshot) *document.Map {
	m := document.NewMap()
	m.SetValue(KeyType, value.StringValue(c.Type))
	fields := document.NewList()
	for _, f := range c.Fields {
		fm := document.NewMap()
		fm.SetValue(KeyName, value.StringValue(f.Name))
		fm.SetValue(KeyValue, f.Value)
		fields.Append(fm)
	}
	m.Set(KeyFields, fields)
	if c.Hook != nil {
		m.Set(KeyHook, c.Hook)
	}
	return m
}

// CheckFormat validates the Format key of a decoded save.
func CheckFormat(root *document.Map) (semver.Version, error) {
	raw, err := root.String(KeyFormat)
	if err != nil {
		return semver.Version{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	v, err := semver.Parse(raw)
	if err != nil {
		return semver.Version{}, fmt.Errorf("%w: %q: %w", ErrIncompatibleFormat, raw, err)
	}
	if v.Major != formatVersion.Major {
		return v, fmt.Errorf("%w: %s, want %d.x", ErrIncompatibleFormat, v, formatVersion.Major)
	}
	return v, nil
}

// ReadSnapshot converts a decoded save map back into a Snapshot. Missing
// top-level sections are fatal; a malformed record is reported and skipped.
func ReadSnapshot(root *document.Map, rep *Report) (*Snapshot, error) {
	snap := &Snapshot{}
	var err error
	if snap.Scene, err = root.String(KeyScene); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if root.Has(KeyContext) {
		if snap.Context, err = root.Map(KeyContext); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}
	}
	lists := make(map[string]*document.List, 3)
	for _, key := range []string{KeyStatic, KeyEntities, KeyRoots} {
		l, err := root.List(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}
		lists[key] = l
	}

	for i, n := range lists[KeyStatic].Items() {
		c, err := readComponent(n)
		if err != nil {
			rep.add(fmt.Sprintf("static #%d", i), err)
			continue
		}
		snap.Statics = append(snap.Statics, c)
	}
	snap.Entities = readEntities(lists[KeyEntities], "entity", rep)
	snap.Roots = readEntities(lists[KeyRoots], "root", rep)
	return snap, nil
}

func readEntities(l *document.List, what string, rep *Report) []EntityRecord {
	var out []EntityRecord
	for i, n := range l.Items() {
		rec, err := readEntity(n)
		if err != nil {
			rep.add(fmt.Sprintf("%s #%d", what, i), err)
			continue
		}
		out = append(out, rec)
	}
	return out
}

func readEntity(n document.Node) (EntityRecord, error) {
	m, ok := n.(*document.Map)
	if !ok {
		return EntityRecord{}, fmt.Errorf("%w: entity is %s", ErrMalformedDocument, n.Tag())
	}
	var rec EntityRecord
	var err error
	if rec.Name, err = m.String(KeyName); err != nil {
		return rec, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if m.Has(KeyIdentity) {
		if rec.Identity, err = m.UUID(KeyIdentity); err != nil {
			return rec, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}
		rec.Tracked = true
	}
	if m.Has(KeyTemplate) {
		if rec.Template, err = m.UUID(KeyTemplate); err != nil {
			return rec, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}
	}
	comps, err := m.List(KeyComponents)
	if err != nil {
		return rec, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	for _, cn := range comps.Items() {
		c, err := readComponent(cn)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", rec.Name, err)
		}
		rec.Components = append(rec.Components, c)
	}
	children, err := m.List(KeyChildren)
	if err != nil {
		return rec, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	for _, cn := range children.Items() {
		child, err := readEntity(cn)
		if err != nil {
			return rec, fmt.Errorf("%s: %w", rec.Name, err)
		}
		rec.Children = append(rec.Children, child)
	}
	return rec, nil
}

func readComponent(n document.Node) (ComponentSnapshot, error) {
	m, ok := n.(*document.Map)
	if !ok {
		return ComponentSnapshot{}, fmt.Errorf("%w: component is %s", ErrMalformedDocument, n.Tag())
	}
	var c ComponentSnapshot
	var err error
	if c.Type, err = m.String(KeyType); err != nil {
		return c, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	fields, err := m.List(KeyFields)
	if err != nil {
		return c, fmt.Errorf("%w: %s: %w", ErrMalformedDocument, c.Type, err)
	}
	for i := 0; i < fields.Len(); i++ {
		fm, err := fields.MapAt(i)
		if err != nil {
			return c, fmt.Errorf("%w: %s: %w", ErrMalformedDocument, c.Type, err)
		}
		name, err := fm.String(KeyName)
		if err != nil {
			return c, fmt.Errorf("%w: %s field #%d: %w", ErrMalformedDocument, c.Type, i, err)
		}
		leaf, err := fm.Leaf(KeyValue)
		if err != nil {
			return c, fmt.Errorf("%w: %s.%s: %w", ErrMalformedDocument, c.Type, name, err)
		}
		c.Fields = append(c.Fields, FieldSnapshot{Name: name, leaf: leaf})
	}
	if m.Has(KeyHook) {
		if c.Hook, err = m.Map(KeyHook); err != nil {
			return c, fmt.Errorf("%w: %s hook: %w", ErrMalformedDocument, c.Type, err)
		}
	}
	return c, nil
}

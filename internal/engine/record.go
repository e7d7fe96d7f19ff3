package engine

import (
	"fmt"
	"unicode/utf8"

	"github.com/danmuck/scenesave/internal/document"
	"github.com/danmuck/scenesave/internal/graph"
	"github.com/danmuck/scenesave/internal/registry"
	"github.com/danmuck/scenesave/internal/wire/value"
	"github.com/google/uuid"
)

// FieldSnapshot is one persisted field. Collected fields carry Value;
// decoded fields carry the undecoded leaf until the declared type is known.
type FieldSnapshot struct {
	Name  string
	Value value.Value
	leaf  *document.Leaf
}

// Decode returns the field value as t.
func (f FieldSnapshot) Decode(t value.Type) (value.Value, error) {
	if f.leaf != nil {
		return f.leaf.Value(t)
	}
	if f.Value.Kind() != t.Kind() {
		return value.Value{}, fmt.Errorf("%w: have %s, want %s", value.ErrKindMismatch, f.Value.Kind(), t.Kind())
	}
	return f.Value, nil
}

// ComponentSnapshot is the persisted state of one component or static type.
type ComponentSnapshot struct {
	Type   string
	Fields []FieldSnapshot
	// Hook is the map filled by the save hook, nil when the type has none.
	Hook *document.Map
}

// EntityRecord is the persisted state of one entity and its untracked
// structural children.
type EntityRecord struct {
	Identity   uuid.UUID
	Tracked    bool
	Template   uuid.UUID
	Name       string
	Components []ComponentSnapshot
	Children   []EntityRecord
}

func (r EntityRecord) subject() string {
	if r.Tracked {
		return fmt.Sprintf("%s (%s)", r.Name, r.Identity)
	}
	return r.Name
}

// hasContent reports whether the record or a structural child carries a
// component snapshot.
func (r EntityRecord) hasContent() bool {
	if len(r.Components) > 0 {
		return true
	}
	for _, c := range r.Children {
		if c.hasContent() {
			return true
		}
	}
	return false
}

// Snapshot is the whole persisted state of one save.
type Snapshot struct {
	Scene    string
	Context  *document.Map
	Statics  []ComponentSnapshot
	Entities []EntityRecord
	Roots    []EntityRecord
}

// Collect walks host and builds a Snapshot without mutating the graph. Save
// hooks run here. refs, when set, validates cross-references so that
// unresolvable ones are reported and skipped.
func Collect(reg *registry.Registry, refs value.RefResolver, host graph.Host) (*Snapshot, *Report) {
	rep := newReport("save")
	c := collector{reg: reg, refs: refs, rep: rep}
	snap := &Snapshot{}

	for _, desc := range reg.Statics() {
		snap.Statics = append(snap.Statics, c.component(desc, desc.Owner))
	}

	entities := host.Entities()
	seen := make(map[uuid.UUID]graph.Entity)
	for _, e := range entities {
		id, tracked := e.Identity()
		if !tracked {
			continue
		}
		if _, dup := seen[id]; dup {
			rep.add(fmt.Sprintf("%s (%s)", e.Name(), id), ErrDuplicateIdentity)
			continue
		}
		seen[id] = e
		if err := checkName(e); err != nil {
			rep.add(fmt.Sprintf("%q (%s)", e.Name(), id), err)
			continue
		}
		snap.Entities = append(snap.Entities, c.entity(e))
	}

	roots := make([]EntityRecord, 0)
	counts := make(map[string]int)
	for _, e := range entities {
		if e.Parent() != nil || graph.Tracked(e) {
			continue
		}
		if err := checkName(e); err != nil {
			rep.add(fmt.Sprintf("%q", e.Name()), err)
			continue
		}
		rec := c.entity(e)
		if !rec.hasContent() {
			continue
		}
		roots = append(roots, rec)
		counts[rec.Name]++
	}
	for _, rec := range roots {
		if counts[rec.Name] > 1 {
			rep.add(rec.Name, ErrDuplicateName)
			continue
		}
		snap.Roots = append(snap.Roots, rec)
	}
	return snap, rep
}

type collector struct {
	reg  *registry.Registry
	refs value.RefResolver
	rep  *Report
}

// entity snapshots e and its untracked descendants. Tracked descendants are
// captured on their own.
func (c collector) entity(e graph.Entity) EntityRecord {
	rec := EntityRecord{Name: e.Name(), Template: e.TemplateID()}
	rec.Identity, rec.Tracked = e.Identity()
	for _, comp := range e.Components() {
		desc, ok := c.reg.Lookup(comp.TypeName())
		if !ok || desc.Category != registry.Instance {
			continue
		}
		rec.Components = append(rec.Components, c.component(desc, comp))
	}
	for _, child := range e.Children() {
		if graph.Tracked(child) {
			continue
		}
		if err := checkName(child); err != nil {
			c.rep.add(fmt.Sprintf("%q", child.Name()), err)
			continue
		}
		if cr := c.entity(child); cr.hasContent() {
			rec.Children = append(rec.Children, cr)
		}
	}
	return rec
}

func (c collector) component(desc *registry.TypeDescriptor, owner any) ComponentSnapshot {
	snap := ComponentSnapshot{Type: desc.Name}
	for _, f := range desc.Fields {
		subject := desc.Name + "." + f.Name
		v, err := f.Get(owner)
		if err == nil {
			err = value.Check(v)
		}
		if err == nil && v.Kind() == value.KindRef && c.refs != nil {
			target, _, _ := v.AsRef()
			_, err = c.refs.TemplateFor(target)
		}
		if err != nil {
			c.rep.add(subject, err)
			continue
		}
		snap.Fields = append(snap.Fields, FieldSnapshot{Name: f.Name, Value: v})
	}
	if desc.Save != nil {
		m := document.NewMap()
		err := desc.Save(owner, m)
		if err == nil {
			err = document.Validate(m)
		}
		if err != nil {
			c.rep.add(desc.Name+" save hook", err)
		} else {
			snap.Hook = m
		}
	}
	return snap
}

// checkName rejects names the string table header could not carry.
func checkName(e graph.Entity) error {
	if !utf8.ValidString(e.Name()) {
		return fmt.Errorf("name: %w", value.ErrInvalidString)
	}
	return nil
}

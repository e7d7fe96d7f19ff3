package engine

import (
	"fmt"

	"github.com/danmuck/scenesave/internal/graph"
	"github.com/danmuck/scenesave/internal/registry"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// reconciler applies one decoded Snapshot onto a live host.
type reconciler struct {
	reg       *registry.Registry
	templates graph.Templates
	host      graph.Host
	rep       *Report
}

func (r reconciler) statics(snaps []ComponentSnapshot) {
	for _, snap := range snaps {
		desc, ok := r.reg.Lookup(snap.Type)
		if !ok || desc.Category != registry.Static {
			r.rep.add(snap.Type, ErrUnknownCachedType)
			continue
		}
		r.component(desc, desc.Owner, snap)
	}
}

// component assigns persisted fields by name and runs the load hook. Fields
// unknown to the live type are ignored; live fields absent from the data
// keep their values.
func (r reconciler) component(desc *registry.TypeDescriptor, owner any, snap ComponentSnapshot) {
	for _, fs := range snap.Fields {
		f, ok := desc.Field(fs.Name)
		if !ok {
			log.Debug().Str("type", desc.Name).Str("field", fs.Name).Msg("engine: field not in live type")
			continue
		}
		subject := desc.Name + "." + fs.Name
		v, err := fs.Decode(f.Type)
		if err == nil {
			err = f.Set(owner, v)
		}
		if err != nil {
			r.rep.add(subject, err)
		}
	}
	if desc.Load != nil && snap.Hook != nil {
		if err := desc.Load(owner, snap.Hook); err != nil {
			r.rep.add(desc.Name+" load hook", err)
		}
	}
}

// entities matches records by identity, instantiates missing ones from
// their template, and prunes tracked entities the data does not mention.
func (r reconciler) entities(recs []EntityRecord) {
	live := make(map[uuid.UUID]graph.Entity)
	for _, e := range r.host.Entities() {
		id, tracked := e.Identity()
		if !tracked {
			continue
		}
		if _, dup := live[id]; dup {
			r.rep.add(fmt.Sprintf("live %s (%s)", e.Name(), id), ErrDuplicateIdentity)
			continue
		}
		live[id] = e
	}

	referenced := make(map[uuid.UUID]bool, len(recs))
	for _, rec := range recs {
		if !rec.Tracked {
			r.rep.add(rec.subject(), fmt.Errorf("%w: entity record without identity", ErrMalformedDocument))
			continue
		}
		if referenced[rec.Identity] {
			r.rep.add(rec.subject(), ErrDuplicateIdentity)
			continue
		}
		referenced[rec.Identity] = true

		e, ok := live[rec.Identity]
		if !ok {
			var err error
			if e, err = r.instantiate(rec); err != nil {
				r.rep.add(rec.subject(), err)
				continue
			}
		}
		r.entity(e, rec)
	}
	r.prune(referenced)
}

func (r reconciler) instantiate(rec EntityRecord) (graph.Entity, error) {
	tmpl, ok := r.templates.Template(rec.Template)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, rec.Template)
	}
	e, err := r.host.Instantiate(tmpl)
	if err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", rec.Template, err)
	}
	e.SetIdentity(rec.Identity)
	log.Debug().Str("entity", rec.subject()).Str("template", rec.Template.String()).Msg("engine: instantiated")
	return e, nil
}

// prune destroys tracked entities missing from referenced. Referenced tracked
// descendants of an orphan are moved to the root first.
func (r reconciler) prune(referenced map[uuid.UUID]bool) {
	orphans := make(map[graph.Entity]bool)
	var order []graph.Entity
	for _, e := range r.host.Entities() {
		if id, tracked := e.Identity(); tracked && !referenced[id] {
			orphans[e] = true
			order = append(order, e)
		}
	}
	for _, orphan := range order {
		if coveredBy(orphan, orphans) {
			continue
		}
		var rescue []graph.Entity
		for _, child := range orphan.Children() {
			graph.Walk(child, func(d graph.Entity) bool {
				if id, tracked := d.Identity(); tracked && referenced[id] {
					rescue = append(rescue, d)
					return false
				}
				return true
			})
		}
		for _, d := range rescue {
			if err := r.host.Attach(d, nil); err != nil {
				r.rep.add(d.Name(), fmt.Errorf("rescue from orphan %s: %w", orphan.Name(), err))
			}
		}
		if err := r.host.Destroy(orphan); err != nil {
			r.rep.add(orphan.Name(), fmt.Errorf("destroy orphan: %w", err))
			continue
		}
		log.Debug().Str("entity", orphan.Name()).Msg("engine: pruned orphan")
	}
}

// coveredBy reports whether an ancestor of e is also in set.
func coveredBy(e graph.Entity, set map[graph.Entity]bool) bool {
	for cur := e.Parent(); cur != nil; cur = cur.Parent() {
		if set[cur] {
			return true
		}
	}
	return false
}

// roots matches root records by name against the currently eligible roots.
func (r reconciler) roots(recs []EntityRecord) {
	byName := make(map[string][]graph.Entity)
	for _, e := range eligibleRoots(r.reg, r.host) {
		byName[e.Name()] = append(byName[e.Name()], e)
	}
	for _, rec := range recs {
		matches := byName[rec.Name]
		switch len(matches) {
		case 0:
			r.rep.add(rec.Name, fmt.Errorf("%w: root", ErrEntityNotFound))
		case 1:
			r.entity(matches[0], rec)
		default:
			r.rep.add(rec.Name, fmt.Errorf("%w: %d live roots", ErrDuplicateName, len(matches)))
		}
	}
}

// eligibleRoots returns parentless untracked entities whose untracked subtree
// carries at least one instance component.
func eligibleRoots(reg *registry.Registry, host graph.Host) []graph.Entity {
	var out []graph.Entity
	for _, e := range host.Entities() {
		if e.Parent() != nil || graph.Tracked(e) {
			continue
		}
		if carriesInstance(reg, e) {
			out = append(out, e)
		}
	}
	return out
}

func carriesInstance(reg *registry.Registry, e graph.Entity) bool {
	found := false
	graph.Walk(e, func(cur graph.Entity) bool {
		if found || (cur != e && graph.Tracked(cur)) {
			return false
		}
		for _, c := range cur.Components() {
			if reg.IsInstance(c.TypeName()) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// entity applies rec onto e: components matched by type in order, then
// untracked structural children matched by name in order.
func (r reconciler) entity(e graph.Entity, rec EntityRecord) {
	used := make(map[int]bool)
	comps := e.Components()
	for _, snap := range rec.Components {
		desc, ok := r.reg.Lookup(snap.Type)
		if !ok || desc.Category != registry.Instance {
			r.rep.add(rec.subject()+"/"+snap.Type, ErrUnknownCachedType)
			continue
		}
		idx := -1
		for i, c := range comps {
			if !used[i] && c.TypeName() == snap.Type {
				idx = i
				break
			}
		}
		if idx < 0 {
			r.rep.add(rec.subject()+"/"+snap.Type, ErrComponentNotFound)
			continue
		}
		used[idx] = true
		r.component(desc, comps[idx], snap)
	}

	taken := make(map[graph.Entity]bool)
	children := e.Children()
	for _, childRec := range rec.Children {
		var match graph.Entity
		for _, c := range children {
			if !taken[c] && !graph.Tracked(c) && c.Name() == childRec.Name {
				match = c
				break
			}
		}
		if match == nil {
			r.rep.add(rec.subject()+"/"+childRec.Name, fmt.Errorf("%w: child", ErrEntityNotFound))
			continue
		}
		taken[match] = true
		r.entity(match, childRec)
	}
}

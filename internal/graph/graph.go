package graph

import (
	"context"

	"github.com/google/uuid"
)

// Component is a unit of state attached to an entity. TypeName is the name
// the component's type is registered under.
type Component interface {
	TypeName() string
}

// Cloner is implemented by components that can be copied when a template is
// instantiated.
type Cloner interface {
	Clone() Component
}

// Entity is one node of the live graph.
type Entity interface {
	Name() string
	// Identity returns the stable identity and whether the entity is
	// identity-tracked.
	Identity() (uuid.UUID, bool)
	SetIdentity(id uuid.UUID)
	// TemplateID is uuid.Nil for entities not built from a template.
	TemplateID() uuid.UUID
	Parent() Entity
	Children() []Entity
	Components() []Component
}

// Host mutates the live graph.
type Host interface {
	// Entities returns every live entity, parents before children.
	Entities() []Entity
	// Instantiate copies template into the graph as a root.
	Instantiate(template Entity) (Entity, error)
	Destroy(e Entity) error
	// Attach moves child under parent; a nil parent makes it a root.
	Attach(child, parent Entity) error
}

// SceneHost is a Host with a switchable top-level container.
type SceneHost interface {
	Host
	ActiveScene() string
	LoadScene(ctx context.Context, name string) error
}

// Templates resolves template identifiers.
type Templates interface {
	Template(id uuid.UUID) (Entity, bool)
}

// Tracked reports whether e carries a stable identity.
func Tracked(e Entity) bool {
	_, ok := e.Identity()
	return ok
}

// TrackedOwner walks up from e to the nearest identity-tracked entity,
// including e itself.
func TrackedOwner(e Entity) (Entity, bool) {
	for cur := e; cur != nil; cur = cur.Parent() {
		if Tracked(cur) {
			return cur, true
		}
	}
	return nil, false
}

// Walk visits e and its descendants depth-first. Returning false from fn
// skips the children of that entity.
func Walk(e Entity, fn func(Entity) bool) {
	if !fn(e) {
		return
	}
	for _, child := range e.Children() {
		Walk(child, fn)
	}
}

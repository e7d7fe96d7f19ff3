package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrForeignEntity   = errors.New("graph: entity does not belong to this scene")
	ErrNotClonable     = errors.New("graph: component cannot be cloned")
	ErrUnknownScene    = errors.New("graph: unknown scene")
	ErrCycle           = errors.New("graph: attach would create a cycle")
	ErrTemplateExists  = errors.New("graph: template already registered")
	ErrInvalidTemplate = errors.New("graph: invalid template")
)

// Node is the in-memory Entity.
type Node struct {
	name       string
	id         uuid.UUID
	tracked    bool
	template   uuid.UUID
	parent     *Node
	children   []*Node
	components []Component
	scene      *Scene
}

func NewNode(name string, components ...Component) *Node {
	return &Node{name: name, components: components}
}

// Track gives n a stable identity.
func (n *Node) Track(id uuid.UUID) *Node {
	n.SetIdentity(id)
	return n
}

// FromTemplate records the template n was built from.
func (n *Node) FromTemplate(id uuid.UUID) *Node {
	n.template = id
	return n
}

// Add appends child and returns n.
func (n *Node) Add(child *Node) *Node {
	child.detach()
	child.parent = n
	child.setScene(n.scene)
	n.children = append(n.children, child)
	return n
}

func (n *Node) AddComponent(c Component) *Node {
	n.components = append(n.components, c)
	return n
}

// Component returns the first component registered under typeName.
func (n *Node) Component(typeName string) (Component, bool) {
	for _, c := range n.components {
		if c.TypeName() == typeName {
			return c, true
		}
	}
	return nil, false
}

// Child returns the first direct child named name.
func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

func (n *Node) Name() string { return n.name }

func (n *Node) Identity() (uuid.UUID, bool) { return n.id, n.tracked }

func (n *Node) SetIdentity(id uuid.UUID) {
	n.id = id
	n.tracked = true
}

func (n *Node) TemplateID() uuid.UUID { return n.template }

func (n *Node) Parent() Entity {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Children() []Entity {
	out := make([]Entity, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) Components() []Component {
	return append([]Component(nil), n.components...)
}

func (n *Node) detach() {
	if n.parent != nil {
		n.parent.children = remove(n.parent.children, n)
		n.parent = nil
		return
	}
	if n.scene != nil {
		n.scene.roots = remove(n.scene.roots, n)
	}
}

func (n *Node) setScene(s *Scene) {
	n.scene = s
	for _, c := range n.children {
		c.setScene(s)
	}
}

func (n *Node) clone() (*Node, error) {
	out := &Node{name: n.name, id: n.id, tracked: n.tracked, template: n.template}
	if out.tracked {
		out.id = uuid.New()
	}
	for _, c := range n.components {
		cl, ok := c.(Cloner)
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s", ErrNotClonable, c.TypeName(), n.name)
		}
		out.components = append(out.components, cl.Clone())
	}
	for _, child := range n.children {
		cc, err := child.clone()
		if err != nil {
			return nil, err
		}
		out.Add(cc)
	}
	return out, nil
}

func remove(list []*Node, n *Node) []*Node {
	for i, c := range list {
		if c == n {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Scene is an in-memory SceneHost. It is not safe for concurrent mutation.
type Scene struct {
	name     string
	roots    []*Node
	builders map[string]func(s *Scene)
}

func NewScene(name string) *Scene {
	return &Scene{name: name, builders: make(map[string]func(s *Scene))}
}

// Add attaches n as a root and returns it.
func (s *Scene) Add(n *Node) *Node {
	n.detach()
	n.setScene(s)
	s.roots = append(s.roots, n)
	return n
}

func (s *Scene) Roots() []*Node {
	return append([]*Node(nil), s.roots...)
}

// Root returns the first root named name.
func (s *Scene) Root(name string) (*Node, bool) {
	for _, r := range s.roots {
		if r.name == name {
			return r, true
		}
	}
	return nil, false
}

// Find returns the tracked node with identity id.
func (s *Scene) Find(id uuid.UUID) (*Node, bool) {
	for _, e := range s.Entities() {
		if got, ok := e.Identity(); ok && got == id {
			return e.(*Node), true
		}
	}
	return nil, false
}

func (s *Scene) Entities() []Entity {
	var out []Entity
	for _, r := range s.roots {
		Walk(r, func(e Entity) bool {
			out = append(out, e)
			return true
		})
	}
	return out
}

func (s *Scene) Instantiate(template Entity) (Entity, error) {
	src, ok := template.(*Node)
	if !ok {
		return nil, fmt.Errorf("%w: template %T", ErrForeignEntity, template)
	}
	n, err := src.clone()
	if err != nil {
		return nil, err
	}
	s.Add(n)
	log.Debug().Str("entity", n.name).Str("template", n.template.String()).Msg("graph: instantiated")
	return n, nil
}

func (s *Scene) Destroy(e Entity) error {
	n, err := s.own(e)
	if err != nil {
		return err
	}
	n.detach()
	n.setScene(nil)
	return nil
}

func (s *Scene) Attach(child, parent Entity) error {
	c, err := s.own(child)
	if err != nil {
		return err
	}
	if parent == nil {
		s.Add(c)
		return nil
	}
	p, err := s.own(parent)
	if err != nil {
		return err
	}
	for cur := p; cur != nil; cur = cur.parent {
		if cur == c {
			return ErrCycle
		}
	}
	p.Add(c)
	return nil
}

func (s *Scene) own(e Entity) (*Node, error) {
	n, ok := e.(*Node)
	if !ok || n == nil || n.scene != s {
		return nil, fmt.Errorf("%w: %v", ErrForeignEntity, e)
	}
	return n, nil
}

func (s *Scene) ActiveScene() string { return s.name }

// Define registers a builder that populates the scene when name is loaded.
func (s *Scene) Define(name string, build func(s *Scene)) {
	s.builders[name] = build
}

// LoadScene replaces every root with the content built for name.
func (s *Scene) LoadScene(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	build, ok := s.builders[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	for _, r := range s.roots {
		r.setScene(nil)
	}
	s.roots = nil
	s.name = name
	build(s)
	log.Debug().Str("scene", name).Int("roots", len(s.roots)).Msg("graph: scene loaded")
	return nil
}

// TemplateSet is an in-memory template registry keyed by template id.
type TemplateSet struct {
	items map[uuid.UUID]Entity
}

func NewTemplateSet() *TemplateSet {
	return &TemplateSet{items: make(map[uuid.UUID]Entity)}
}

// Register adds e under its TemplateID.
func (t *TemplateSet) Register(e Entity) error {
	if e == nil || e.TemplateID() == uuid.Nil {
		return fmt.Errorf("%w: missing template id", ErrInvalidTemplate)
	}
	id := e.TemplateID()
	if _, ok := t.items[id]; ok {
		return fmt.Errorf("%w: %s", ErrTemplateExists, id)
	}
	t.items[id] = e
	return nil
}

func (t *TemplateSet) Template(id uuid.UUID) (Entity, bool) {
	e, ok := t.items[id]
	return e, ok
}

// IDs returns registered template ids in deterministic order.
func (t *TemplateSet) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.items))
	for id := range t.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

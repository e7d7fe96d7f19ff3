package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/danmuck/scenesave/internal/testutil/testlog"
	"github.com/google/uuid"
)

type counter struct{ n int }

func (c *counter) TypeName() string { return "test.Counter" }

func (c *counter) Clone() Component { return &counter{n: c.n} }

type fixed struct{}

func (fixed) TypeName() string { return "test.Fixed" }

func TestEntitiesParentsFirst(t *testing.T) {
	testlog.Start(t)
	s := NewScene("Level1")
	player := s.Add(NewNode("Player").Add(NewNode("Weapon").Add(NewNode("Barrel"))))
	s.Add(NewNode("Camera"))

	var names []string
	for _, e := range s.Entities() {
		names = append(names, e.Name())
	}
	want := []string{"Player", "Weapon", "Barrel", "Camera"}
	if len(names) != len(want) {
		t.Fatalf("entities = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("entities = %v, want %v", names, want)
		}
	}
	weapon, _ := player.Child("Weapon")
	if weapon.Parent() != Entity(player) {
		t.Fatalf("weapon parent mismatch")
	}
	if player.Parent() != nil {
		t.Fatalf("root parent must be a nil interface")
	}
}

func TestInstantiateClonesTemplate(t *testing.T) {
	testlog.Start(t)
	templateID := uuid.New()
	tmpl := NewNode("Crate", &counter{n: 3}).Track(uuid.New()).FromTemplate(templateID)
	tmpl.Add(NewNode("Lid", &counter{n: 1}))

	s := NewScene("Level1")
	e, err := s.Instantiate(tmpl)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	n := e.(*Node)
	if n.TemplateID() != templateID {
		t.Fatalf("template id = %s", n.TemplateID())
	}
	id, tracked := n.Identity()
	tmplID, _ := tmpl.Identity()
	if !tracked || id == tmplID {
		t.Fatalf("expected fresh identity, got %s", id)
	}
	c, _ := n.Component("test.Counter")
	c.(*counter).n = 9
	orig, _ := tmpl.Component("test.Counter")
	if orig.(*counter).n != 3 {
		t.Fatalf("template mutated through clone")
	}
	if len(s.Roots()) != 1 || len(s.Entities()) != 2 {
		t.Fatalf("unexpected scene shape")
	}

	if _, err := s.Instantiate(NewNode("Wall", fixed{})); !errors.Is(err, ErrNotClonable) {
		t.Fatalf("expected ErrNotClonable, got %v", err)
	}
}

func TestAttachAndDestroy(t *testing.T) {
	testlog.Start(t)
	s := NewScene("Level1")
	a := s.Add(NewNode("A"))
	b := s.Add(NewNode("B"))
	if err := s.Attach(b, a); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(s.Roots()) != 1 {
		t.Fatalf("expected B to leave roots")
	}
	if err := s.Attach(a, b); !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
	if err := s.Attach(b, nil); err != nil || len(s.Roots()) != 2 {
		t.Fatalf("detach to root: %v", err)
	}
	if err := s.Destroy(a); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := s.Destroy(a); !errors.Is(err, ErrForeignEntity) {
		t.Fatalf("expected ErrForeignEntity, got %v", err)
	}
	if len(s.Entities()) != 1 {
		t.Fatalf("expected one entity left")
	}
}

func TestLoadScene(t *testing.T) {
	testlog.Start(t)
	s := NewScene("Menu")
	s.Add(NewNode("Title"))
	s.Define("Level2", func(s *Scene) {
		s.Add(NewNode("Door"))
	})
	if err := s.LoadScene(context.Background(), "Level2"); err != nil {
		t.Fatalf("load scene: %v", err)
	}
	if s.ActiveScene() != "Level2" {
		t.Fatalf("active = %s", s.ActiveScene())
	}
	if _, ok := s.Root("Door"); !ok {
		t.Fatalf("missing Door")
	}
	if _, ok := s.Root("Title"); ok {
		t.Fatalf("old content survived")
	}
	if err := s.LoadScene(context.Background(), "Nowhere"); !errors.Is(err, ErrUnknownScene) {
		t.Fatalf("expected ErrUnknownScene, got %v", err)
	}
}

func TestTemplateSet(t *testing.T) {
	testlog.Start(t)
	set := NewTemplateSet()
	id := uuid.New()
	if err := set.Register(NewNode("Crate").FromTemplate(id)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := set.Register(NewNode("Other").FromTemplate(id)); !errors.Is(err, ErrTemplateExists) {
		t.Fatalf("expected ErrTemplateExists, got %v", err)
	}
	if err := set.Register(NewNode("Plain")); !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate, got %v", err)
	}
	if e, ok := set.Template(id); !ok || e.Name() != "Crate" {
		t.Fatalf("resolve failed")
	}
	if ids := set.IDs(); len(ids) != 1 || ids[0] != id {
		t.Fatalf("ids = %v", ids)
	}
}

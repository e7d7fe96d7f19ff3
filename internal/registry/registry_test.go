package registry

import (
	"errors"
	"regexp"
	"testing"

	"github.com/danmuck/scenesave/internal/document"
	"github.com/danmuck/scenesave/internal/testutil/testlog"
	"github.com/danmuck/scenesave/internal/wire/value"
)

type health struct {
	HP    int32
	Armor float32
	Mood  mood
}

type mood int32

var moodType = value.EnumType("game.Mood")

type progress struct {
	Level string
	Kills int64
}

func healthFields() Option {
	return Fields(
		Int32Field("hp", func(h *health) *int32 { return &h.HP }),
		Float32Field("armor", func(h *health) *float32 { return &h.Armor }),
		EnumField("mood", moodType, func(h *health) *mood { return &h.Mood }),
	)
}

func TestRegisterAndLookup(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder()
	if err := b.ValueType(moodType); err != nil {
		t.Fatalf("value type: %v", err)
	}
	if err := b.Register("game.Health", healthFields()); err != nil {
		t.Fatalf("register: %v", err)
	}
	state := &progress{Level: "Level1"}
	if err := b.Register("game.Progress", Singleton(state), Fields(
		StringField("level", func(p *progress) *string { return &p.Level }),
		Int64Field("kills", func(p *progress) *int64 { return &p.Kills }),
	)); err != nil {
		t.Fatalf("register static: %v", err)
	}

	reg := b.Build()
	if names := reg.Names(); len(names) != 2 || names[0] != "game.Health" || names[1] != "game.Progress" {
		t.Fatalf("names = %v", names)
	}
	if !reg.IsInstance("game.Health") || reg.IsInstance("game.Progress") {
		t.Fatalf("unexpected categories")
	}
	statics := reg.Statics()
	if len(statics) != 1 || statics[0].Owner != state || statics[0].Category != Static {
		t.Fatalf("statics = %+v", statics)
	}
	if _, err := reg.Catalog().Resolve("[]game.Mood"); err != nil {
		t.Fatalf("catalog resolve: %v", err)
	}
}

func TestFieldAccessors(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder()
	_ = b.ValueType(moodType)
	_ = b.Register("game.Health", healthFields())
	desc, ok := b.Build().Lookup("game.Health")
	if !ok {
		t.Fatalf("missing descriptor")
	}

	h := &health{HP: 7, Armor: 0.5, Mood: 2}
	hp, _ := desc.Field("hp")
	v, err := hp.Get(h)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n, _ := v.AsInt32(); n != 7 {
		t.Fatalf("hp = %d", n)
	}
	if err := hp.Set(h, value.Int32Value(12)); err != nil || h.HP != 12 {
		t.Fatalf("set hp = %d, %v", h.HP, err)
	}
	if err := hp.Set(h, value.StringValue("12")); !errors.Is(err, value.ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
	if _, err := hp.Get(progress{}); !errors.Is(err, ErrOwnerMismatch) {
		t.Fatalf("expected ErrOwnerMismatch, got %v", err)
	}

	md, _ := desc.Field("mood")
	if err := md.Set(h, value.EnumValue(moodType, 3)); err != nil || h.Mood != 3 {
		t.Fatalf("set mood = %d, %v", h.Mood, err)
	}
}

func TestDuplicateRegistrations(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder()
	first := OnSave(func(h *health, m *document.Map) error {
		m.SetValue("first", value.BoolValue(true))
		return nil
	})
	second := OnSave(func(h *health, m *document.Map) error {
		m.SetValue("second", value.BoolValue(true))
		return nil
	})
	if err := b.Register("game.Health", first, second); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := b.Register("game.Health", healthFields()); !errors.Is(err, ErrTypeExists) {
		t.Fatalf("expected ErrTypeExists, got %v", err)
	}

	errs := b.Errors()
	if len(errs) != 2 || !errors.Is(errs[0], ErrDuplicateHook) || !errors.Is(errs[1], ErrTypeExists) {
		t.Fatalf("errors = %v", errs)
	}

	desc, _ := b.Build().Lookup("game.Health")
	m := document.NewMap()
	if err := desc.Save(&health{}, m); err != nil {
		t.Fatalf("save hook: %v", err)
	}
	if !m.Has("first") || m.Has("second") {
		t.Fatalf("expected first hook to win, keys %v", m.Keys())
	}
	if err := desc.Save(progress{}, m); !errors.Is(err, ErrOwnerMismatch) {
		t.Fatalf("expected ErrOwnerMismatch, got %v", err)
	}
}

func TestNamespaceAndEmptyTypes(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder()
	if err := b.Register("runtime.Goroutine", healthFields()); !errors.Is(err, ErrIgnoredNamespace) {
		t.Fatalf("expected ErrIgnoredNamespace, got %v", err)
	}
	if err := b.Register("game.Marker"); err != nil {
		t.Fatalf("register empty: %v", err)
	}
	if err := b.Register("bad name", healthFields()); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	reg := b.Build()
	if reg.Len() != 0 {
		t.Fatalf("expected nothing cached, got %v", reg.Names())
	}

	custom := NewBuilder(WithDenylist(regexp.MustCompile(`^editor\.`)))
	if err := custom.Register("runtime.Goroutine", healthFields()); err != nil {
		t.Fatalf("custom denylist: %v", err)
	}
	if err := custom.Register("editor.Gizmo", healthFields()); !errors.Is(err, ErrIgnoredNamespace) {
		t.Fatalf("expected ErrIgnoredNamespace, got %v", err)
	}
}

func TestBuildIsFrozenUntilInvalidated(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder()
	_ = b.Register("game.Health", healthFields())
	first := b.Build()
	if b.Build() != first {
		t.Fatalf("expected repeated Build to return the same registry")
	}

	_ = b.Register("game.Shield", Fields(BoolField("up", func(h *health) *bool { return new(bool) })))
	if first.Len() != 1 || b.Build().Len() != 1 {
		t.Fatalf("frozen registry changed")
	}

	b.Invalidate()
	rebuilt := b.Build()
	if rebuilt == first || rebuilt.Len() != 2 {
		t.Fatalf("expected rebuild with 2 types, got %v", rebuilt.Names())
	}
}
